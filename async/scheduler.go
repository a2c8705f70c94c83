package async

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/napi-host/errors"
	"github.com/wippyai/napi-host/host"
	"github.com/wippyai/napi-host/metrics"
	"github.com/wippyai/napi-host/resource"
)

// Scheduler tracks async jobs and contexts for every environment in the
// process. Jobs are referenced by generational handles, so a deleted job's
// handle is rejected even after its slot is reused.
type Scheduler struct {
	table    *resource.Table
	recorder metrics.Recorder
	nextID   atomic.Uint64

	// mu guards job state and the invoker map. Execution reads job state
	// from worker goroutines.
	mu       sync.Mutex
	invokers map[Owner]host.TaskInvoker
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRecorder reports state transitions to r.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Scheduler) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithObserver subscribes o to handle creation and removal.
func WithObserver(o resource.Observer) Option {
	return func(s *Scheduler) { s.table.Subscribe(o) }
}

// NewScheduler creates an empty scheduler.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		table:    resource.NewTable(),
		recorder: metrics.Nop{},
		invokers: make(map[Owner]host.TaskInvoker),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetInvoker records the task invoker for owner, replacing any earlier one.
func (s *Scheduler) SetInvoker(owner Owner, inv host.TaskInvoker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invokers[owner] = inv
}

// RemoveInvoker forgets owner's invoker. Jobs queued afterwards for owner
// fail; tasks already handed to the invoker are unaffected.
func (s *Scheduler) RemoveInvoker(owner Owner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.invokers, owner)
}

// Create registers a job in the Created state.
func (s *Scheduler) Create(owner Owner, name string, execute ExecuteFunc, complete CompleteFunc, data any) (resource.Handle, error) {
	if execute == nil {
		return 0, errors.InvalidInput(errors.PhaseAsync, "execute callback is required")
	}
	j := &job{
		id:       s.nextID.Add(1),
		owner:    owner,
		name:     name,
		execute:  execute,
		complete: complete,
		data:     data,
		state:    StateCreated,
	}
	h := s.table.Insert(TypeJob, j)
	if h == 0 {
		return 0, errors.New(errors.PhaseAsync, errors.KindStateConflict).
			Detail("scheduler is closed").Build()
	}
	s.recorder.AsyncTransition(StateCreated.String())
	Logger().Debug("async work created",
		zap.Uint64("id", j.id), zap.String("name", name), zap.Stringer("handle", h))
	return h, nil
}

// Queue hands the job to its owner's task invoker. The job becomes Queued
// immediately; execution happens whenever the invoker dispatches it. A job
// cancelled before it was ever queued may still be queued: it stays
// Cancelled, so execution is skipped and completion reports
// StatusCancelled. A job can be queued only once.
func (s *Scheduler) Queue(h resource.Handle) error {
	j, ok := s.job(h)
	if !ok {
		return errors.InvalidHandle("async work", h)
	}

	s.mu.Lock()
	prev := j.state
	if j.scheduled || (prev != StateCreated && prev != StateCancelled) {
		s.mu.Unlock()
		return errors.StateConflict("queue", prev.String())
	}
	inv, ok := s.invokers[j.owner]
	if !ok {
		s.mu.Unlock()
		return errors.InvalidInput(errors.PhaseAsync, "no task invoker registered for the owner of "+j.name)
	}
	if prev == StateCreated {
		j.state = StateQueued
	}
	j.scheduled = true
	s.mu.Unlock()

	if err := inv.InvokeAsync(s.executeTask(h), s.completeTask(h)); err != nil {
		s.mu.Lock()
		j.scheduled = false
		if j.state == StateQueued {
			j.state = prev
		}
		s.mu.Unlock()
		return errors.Wrap(errors.PhaseAsync, errors.KindStateConflict, err, "invoker rejected work")
	}
	if prev == StateCreated {
		s.recorder.AsyncTransition(StateQueued.String())
	}
	return nil
}

// Cancel marks a job Cancelled. Execution is skipped if it has not started;
// completion then reports StatusCancelled. Cancelling twice is allowed.
func (s *Scheduler) Cancel(h resource.Handle) error {
	j, ok := s.job(h)
	if !ok {
		return errors.InvalidHandle("async work", h)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch j.state {
	case StateCompleted, StateDeleted:
		return errors.StateConflict("cancel", j.state.String())
	case StateCancelled:
		return nil
	}
	j.state = StateCancelled
	s.recorder.AsyncTransition(StateCancelled.String())
	return nil
}

// Delete releases a job in any state. Its handle becomes invalid and a
// pending execution or completion is skipped.
func (s *Scheduler) Delete(h resource.Handle) error {
	j, ok := s.job(h)
	if !ok {
		return errors.InvalidHandle("async work", h)
	}

	s.mu.Lock()
	j.state = StateDeleted
	s.mu.Unlock()

	if _, ok := s.table.RemoveTyped(h, TypeJob); !ok {
		return errors.InvalidHandle("async work", h)
	}

	s.recorder.AsyncTransition(StateDeleted.String())
	Logger().Debug("async work deleted", zap.Uint64("id", j.id), zap.String("name", j.name))
	return nil
}

// State returns the current state of a live job.
func (s *Scheduler) State(h resource.Handle) (State, bool) {
	j, ok := s.job(h)
	if !ok {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return j.state, true
}

// Len returns the number of live jobs and contexts.
func (s *Scheduler) Len() int {
	return s.table.Len()
}

// Close drops every job and context. Outstanding tasks find nothing to run.
// Completed jobs still in the table were never deleted by their addon and
// are reported.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	s.invokers = make(map[Owner]host.TaskInvoker)
	var leaked []string
	s.table.Each(func(_ resource.Handle, typeID uint32, v any) bool {
		if j, ok := v.(*job); ok && typeID == TypeJob && j.state == StateCompleted {
			leaked = append(leaked, j.name)
		}
		return true
	})
	s.mu.Unlock()
	if len(leaked) > 0 {
		Logger().Warn("closing scheduler with completed async work that was never deleted",
			zap.Int("count", len(leaked)), zap.Strings("names", leaked))
	}
	s.table.Clear()
	return s.table.Close()
}

func (s *Scheduler) job(h resource.Handle) (*job, bool) {
	v, ok := s.table.GetTyped(h, TypeJob)
	if !ok {
		return nil, false
	}
	return v.(*job), true
}

func (s *Scheduler) executeTask(h resource.Handle) func() {
	return func() {
		j, ok := s.job(h)
		if !ok {
			Logger().Debug("async work deleted before execution", zap.Stringer("handle", h))
			return
		}
		s.mu.Lock()
		run := j.state == StateQueued
		s.mu.Unlock()
		if run {
			j.execute(j.owner, j.data)
		}
	}
}

func (s *Scheduler) completeTask(h resource.Handle) func() {
	return func() {
		j, ok := s.job(h)
		if !ok {
			Logger().Debug("async work deleted before completion", zap.Stringer("handle", h))
			return
		}
		s.mu.Lock()
		status := StatusOK
		if j.state == StateCancelled {
			status = StatusCancelled
		}
		s.mu.Unlock()

		if j.complete != nil {
			j.complete(j.owner, status, j.data)
		}

		s.mu.Lock()
		if j.state != StateDeleted {
			j.state = StateCompleted
		}
		s.mu.Unlock()
		s.recorder.AsyncTransition(StateCompleted.String())
	}
}
