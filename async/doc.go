// Package async schedules native async work on behalf of addons.
//
// A job moves through a small state machine:
//
//	Created --Queue--> Queued --(execute, complete)--> Completed
//	   |                  |
//	   +-----Cancel-------+--> Cancelled --(complete with StatusCancelled)--> Completed
//
// A job cancelled before it was queued can still be queued once; it skips
// execute and completes with StatusCancelled. Delete is allowed in every
// state and invalidates the handle. Close warns about completed jobs that
// were never deleted. Each
// job's owner (a native environment) must have a host.TaskInvoker
// registered with SetInvoker before its jobs can be queued. Execution runs
// wherever the invoker puts it; completion runs on the script thread.
//
// Init, Destroy and MakeCallback manage async resource contexts, which
// carry no state beyond their identity.
package async
