package async

import (
	"go.uber.org/zap"

	"github.com/wippyai/napi-host/errors"
	"github.com/wippyai/napi-host/resource"
)

// Init creates an async resource context for owner.
func (s *Scheduler) Init(owner Owner, name string) (resource.Handle, error) {
	c := &Context{ID: s.nextID.Add(1), Owner: owner, Name: name}
	h := s.table.Insert(TypeContext, c)
	if h == 0 {
		return 0, errors.New(errors.PhaseAsync, errors.KindStateConflict).
			Detail("scheduler is closed").Build()
	}
	return h, nil
}

// Context returns a live async context.
func (s *Scheduler) Context(h resource.Handle) (*Context, bool) {
	v, ok := s.table.GetTyped(h, TypeContext)
	if !ok {
		return nil, false
	}
	return v.(*Context), true
}

// Destroy releases an async context.
func (s *Scheduler) Destroy(h resource.Handle) error {
	if _, ok := s.table.RemoveTyped(h, TypeContext); !ok {
		return errors.InvalidHandle("async context", h)
	}
	return nil
}

// MakeCallback runs call inside the context h. If call reports a pending
// exception the context is destroyed before the error is returned.
func (s *Scheduler) MakeCallback(h resource.Handle, call func() error) error {
	c, ok := s.Context(h)
	if !ok {
		return errors.InvalidHandle("async context", h)
	}
	err := call()
	if err != nil && errors.Is(err, errors.ErrPendingException) {
		Logger().Debug("destroying async context after exception",
			zap.Uint64("id", c.ID), zap.String("name", c.Name))
		_ = s.Destroy(h)
	}
	return err
}
