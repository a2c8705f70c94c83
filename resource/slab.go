package resource

import (
	"errors"
	"math"
	"sync"
)

var (
	ErrClosed = errors.New("resource backend closed")
	ErrFull   = errors.New("resource backend exhausted")
)

// Slab is an in-memory generational resource backend.
// Freed slots are reused with a bumped generation, so a handle that outlived
// its value is detected in O(1) without touching the old value.
type Slab struct {
	entries  []entry
	freeList []uint32
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value      any
	typeID     uint32
	generation uint32
	valid      bool
}

// NewSlab creates a new in-memory backend.
func NewSlab() *Slab {
	return &Slab{
		entries:  make([]entry, 0, 64),
		freeList: make([]uint32, 0, 16),
	}
}

// Create stores a value and returns a handle.
func (s *Slab) Create(typeID uint32, value any) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	if len(s.freeList) > 0 {
		idx := s.freeList[len(s.freeList)-1]
		s.freeList = s.freeList[:len(s.freeList)-1]
		e := &s.entries[idx-1]
		e.generation++
		if e.generation == 0 {
			e.generation = 1
		}
		e.typeID = typeID
		e.value = value
		e.valid = true
		return makeHandle(idx, e.generation), nil
	}

	if len(s.entries) >= math.MaxUint32 {
		return 0, ErrFull
	}

	s.entries = append(s.entries, entry{
		typeID:     typeID,
		value:      value,
		generation: 1,
		valid:      true,
	})
	return makeHandle(uint32(len(s.entries)), 1), nil
}

// lookup returns the live entry for handle. Caller holds the lock.
func (s *Slab) lookup(handle Handle) *entry {
	if handle == 0 {
		return nil
	}
	idx := handle.Index()
	if idx == 0 || int(idx) > len(s.entries) {
		return nil
	}
	e := &s.entries[idx-1]
	if !e.valid || e.generation != handle.Generation() {
		return nil
	}
	return e
}

// Get retrieves a value by handle.
func (s *Slab) Get(handle Handle) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e := s.lookup(handle)
	if e == nil {
		return nil, false
	}
	return e.value, true
}

// Drop removes a resource and returns (value, true) if it was live.
func (s *Slab) Drop(handle Handle) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookup(handle)
	if e == nil {
		return nil, false
	}

	value := e.value
	e.valid = false
	e.value = nil
	s.freeList = append(s.freeList, handle.Index())

	return value, true
}

// Close releases all resources.
func (s *Slab) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.entries = nil
	s.freeList = nil
	return nil
}

// TypeID returns the type ID for a handle.
func (s *Slab) TypeID(handle Handle) (uint32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e := s.lookup(handle)
	if e == nil {
		return 0, false
	}
	return e.typeID, true
}

// Len returns the number of active resources.
func (s *Slab) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries) - len(s.freeList)
}

// Each iterates over all active resources.
func (s *Slab) Each(fn func(Handle, uint32, any) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i, e := range s.entries {
		if e.valid {
			if !fn(makeHandle(uint32(i+1), e.generation), e.typeID, e.value) {
				break
			}
		}
	}
}
