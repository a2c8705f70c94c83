package async

import "fmt"

// State is the lifecycle state of an async job.
type State uint8

const (
	StateCreated State = iota
	StateQueued
	StateCompleted
	StateCancelled
	StateDeleted
)

var stateNames = [...]string{
	StateCreated:   "created",
	StateQueued:    "queued",
	StateCompleted: "completed",
	StateCancelled: "cancelled",
	StateDeleted:   "deleted",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", s)
}

// Status is passed to a completion callback.
type Status uint8

const (
	StatusOK Status = iota
	StatusCancelled
)

func (s Status) String() string {
	if s == StatusCancelled {
		return "cancelled"
	}
	return "ok"
}

// Owner identifies the native environment a job or context belongs to.
// Owners are compared with ==.
type Owner any

// ExecuteFunc runs off the script thread.
type ExecuteFunc func(owner Owner, data any)

// CompleteFunc runs on the script thread after execution, or instead of it
// when the job was cancelled.
type CompleteFunc func(owner Owner, status Status, data any)

// Handle types stored in the scheduler's table.
const (
	TypeJob     uint32 = 1
	TypeContext uint32 = 2
)

type job struct {
	id       uint64
	owner    Owner
	name     string
	execute  ExecuteFunc
	complete CompleteFunc
	data     any

	// guarded by Scheduler.mu
	state     State
	scheduled bool
}

// Context is an async resource context created by Init.
type Context struct {
	ID    uint64
	Owner Owner
	Name  string
}
