package napi

import (
	"github.com/wippyai/napi-host/async"
	"github.com/wippyai/napi-host/errors"
	"github.com/wippyai/napi-host/host"
	"github.com/wippyai/napi-host/resource"
)

// AsyncWork is a handle to a scheduled job.
type AsyncWork resource.Handle

// AsyncContext is a handle to an async resource context.
type AsyncContext resource.Handle

// AsyncExecute runs off the script thread and must not touch script values.
type AsyncExecute func(env *Env, data any)

// AsyncComplete runs on the script thread with StatusOK or StatusCancelled.
type AsyncComplete func(env *Env, status Status, data any)

// CreateAsyncWork registers a job owned by e. The resource value and name
// are diagnostic only.
func (e *Env) CreateAsyncWork(resourceValue host.Value, name string, execute AsyncExecute, complete AsyncComplete, data any) (AsyncWork, Status) {
	sched, st := e.scheduler()
	if st != StatusOK {
		return 0, st
	}
	if execute == nil {
		return 0, e.status(StatusInvalidArg)
	}
	exec := func(_ async.Owner, d any) { execute(e, d) }
	var done async.CompleteFunc
	if complete != nil {
		done = func(_ async.Owner, s async.Status, d any) {
			status := StatusOK
			if s == async.StatusCancelled {
				status = StatusCancelled
			}
			complete(e, status, d)
		}
	}
	h, err := sched.Create(e, name, exec, done, data)
	if err != nil {
		return 0, e.status(statusFor(err))
	}
	return AsyncWork(h), e.status(StatusOK)
}

func (e *Env) QueueAsyncWork(w AsyncWork) Status {
	return e.asyncCall(func(s *async.Scheduler) error { return s.Queue(resource.Handle(w)) })
}

func (e *Env) CancelAsyncWork(w AsyncWork) Status {
	return e.asyncCall(func(s *async.Scheduler) error { return s.Cancel(resource.Handle(w)) })
}

func (e *Env) DeleteAsyncWork(w AsyncWork) Status {
	return e.asyncCall(func(s *async.Scheduler) error { return s.Delete(resource.Handle(w)) })
}

// AsyncInit creates an async resource context.
func (e *Env) AsyncInit(resourceValue host.Value, name string) (AsyncContext, Status) {
	sched, st := e.scheduler()
	if st != StatusOK {
		return 0, st
	}
	h, err := sched.Init(e, name)
	if err != nil {
		return 0, e.status(statusFor(err))
	}
	return AsyncContext(h), e.status(StatusOK)
}

func (e *Env) AsyncDestroy(c AsyncContext) Status {
	return e.asyncCall(func(s *async.Scheduler) error { return s.Destroy(resource.Handle(c)) })
}

// MakeCallback calls fn inside the async context c. If fn throws, the
// context is destroyed and StatusPendingException is returned.
func (e *Env) MakeCallback(c AsyncContext, recv, fn host.Value, args ...host.Value) (host.Value, Status) {
	sched, st := e.scheduler()
	if st != StatusOK {
		return nil, st
	}
	var result host.Value
	var callStatus Status
	err := sched.MakeCallback(resource.Handle(c), func() error {
		result, callStatus = e.CallFunction(recv, fn, args...)
		if callStatus == StatusPendingException {
			return errors.PendingException(e.pending)
		}
		return nil
	})
	if err != nil {
		return nil, e.status(statusFor(err))
	}
	return result, e.status(callStatus)
}

func (e *Env) scheduler() (*async.Scheduler, Status) {
	if e.ec.Scheduler == nil {
		return nil, e.status(StatusGenericFailure)
	}
	return e.ec.Scheduler, StatusOK
}

func (e *Env) asyncCall(fn func(*async.Scheduler) error) Status {
	sched, st := e.scheduler()
	if st != StatusOK {
		return st
	}
	if err := fn(sched); err != nil {
		return e.status(statusFor(err))
	}
	return e.status(StatusOK)
}

func statusFor(err error) Status {
	switch {
	case errors.Is(err, errors.ErrInvalidHandle):
		return StatusInvalidArg
	case errors.Is(err, &errors.Error{Phase: errors.PhaseAsync, Kind: errors.KindInvalidInput}):
		return StatusInvalidArg
	case errors.Is(err, errors.ErrPendingException):
		return StatusPendingException
	default:
		return StatusGenericFailure
	}
}
