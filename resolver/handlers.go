package resolver

import (
	"context"
	"sort"
	"sync"

	"github.com/wippyai/napi-host/errors"
	"github.com/wippyai/napi-host/host"
)

// Handler resolves a specifier on behalf of a prefix or a package.
//
// strippedPath is the specifier with any "prefix:" removed, identifier is
// the prefix or package name the handler was registered under, and
// importerID is the requiring module's path.
type Handler func(ctx context.Context, rt host.Runtime, strippedPath, identifier, importerID string) (host.Value, error)

// HandlerTable maps identifiers to handlers.
type HandlerTable struct {
	name     string
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewHandlerTable creates an empty table. name appears in errors.
func NewHandlerTable(name string) *HandlerTable {
	return &HandlerTable{name: name, handlers: make(map[string]Handler)}
}

// Register adds h under id, replacing any earlier handler.
func (t *HandlerTable) Register(id string, h Handler) error {
	if id == "" {
		return errors.Registration(errors.PhaseResolve, t.name, id,
			errors.InvalidInput(errors.PhaseResolve, "identifier is empty"))
	}
	if h == nil {
		return errors.Registration(errors.PhaseResolve, t.name, id,
			errors.InvalidInput(errors.PhaseResolve, "handler is nil"))
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[id] = h
	return nil
}

// Unregister removes the handler for id and reports whether one existed.
func (t *HandlerTable) Unregister(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.handlers[id]
	delete(t.handlers, id)
	return ok
}

// Lookup returns the handler for id.
func (t *HandlerTable) Lookup(id string) (Handler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.handlers[id]
	return h, ok
}

// Names returns the registered identifiers in sorted order.
func (t *HandlerTable) Names() []string {
	t.mu.RLock()
	names := make([]string, 0, len(t.handlers))
	for id := range t.handlers {
		names = append(names, id)
	}
	t.mu.RUnlock()
	sort.Strings(names)
	return names
}
