// Package resource provides generational handle tables.
//
// Handles are opaque references handed out to native callers (async work
// items, async contexts) in place of raw pointers. A handle packs a slot
// index with the slot's generation; when a slot is freed and reused its
// generation is bumped, so a stale handle is rejected in O(1) without ever
// touching the value that used to live there.
//
// # Handle Table
//
// A Table maps handles to Go values. Each value is stored with a type ID,
// so a handle of one kind cannot be used where another kind is expected:
//
//	const JobTypeID = 1
//	const ContextTypeID = 2
//
//	table := resource.NewTable()
//	jobHandle := table.Insert(JobTypeID, job)
//	value, ok := table.GetTyped(jobHandle, JobTypeID)     // ok
//	value, ok := table.GetTyped(jobHandle, ContextTypeID) // !ok
//
// # Observers
//
// Register observers to track lifecycle events:
//
//	table.Subscribe(observer)
//
// Values are not garbage collected by the table. Owners must call RemoveTyped,
// or Close the table to drop everything still live.
package resource
