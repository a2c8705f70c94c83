package resource

import (
	"sync"
)

// Table is a typed handle table over a Slab. Every insertion and removal is
// reported to the subscribed observers.
type Table struct {
	slab *Slab

	mu        sync.RWMutex
	observers []Observer
	closed    bool
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{slab: NewSlab()}
}

// Insert stores value under typeID. It returns 0 once the table is closed.
func (t *Table) Insert(typeID uint32, value any) Handle {
	t.mu.RLock()
	closed := t.closed
	t.mu.RUnlock()
	if closed {
		return 0
	}

	h, err := t.slab.Create(typeID, value)
	if err != nil {
		return 0
	}
	t.notify(Event{Type: EventCreated, Handle: h, TypeID: typeID, Value: value})
	return h
}

// GetTyped returns the value behind h if h is live and was inserted with typeID.
func (t *Table) GetTyped(h Handle, typeID uint32) (any, bool) {
	if got, ok := t.slab.TypeID(h); !ok || got != typeID {
		return nil, false
	}
	return t.slab.Get(h)
}

// RemoveTyped drops h if it is live and was inserted with typeID.
func (t *Table) RemoveTyped(h Handle, typeID uint32) (any, bool) {
	if got, ok := t.slab.TypeID(h); !ok || got != typeID {
		return nil, false
	}
	return t.remove(h, typeID)
}

func (t *Table) remove(h Handle, typeID uint32) (any, bool) {
	value, ok := t.slab.Drop(h)
	if !ok {
		return nil, false
	}
	t.notify(Event{Type: EventDropped, Handle: h, TypeID: typeID, Value: value})
	return value, true
}

// Subscribe registers o for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.mu.Lock()
	t.observers = append(t.observers, o)
	t.mu.Unlock()
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	return t.slab.Len()
}

// Each calls fn for every live handle until fn returns false.
// fn must not modify the table.
func (t *Table) Each(fn func(Handle, uint32, any) bool) {
	t.slab.Each(fn)
}

// Clear drops every live handle, notifying observers for each.
func (t *Table) Clear() {
	type live struct {
		h      Handle
		typeID uint32
	}
	var all []live
	t.slab.Each(func(h Handle, typeID uint32, _ any) bool {
		all = append(all, live{h, typeID})
		return true
	})
	for _, l := range all {
		t.remove(l.h, l.typeID)
	}
}

// Close stops further insertions and releases the slab.
func (t *Table) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	return t.slab.Close()
}

func (t *Table) notify(e Event) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
