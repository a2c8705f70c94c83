package resource

import "fmt"

// Handle is an opaque generational reference into a table.
// The high 32 bits hold the slot index (1-based), the low 32 bits the
// generation of that slot at insertion time.
// Handle 0 is reserved and always invalid.
type Handle uint64

func makeHandle(index, generation uint32) Handle {
	return Handle(uint64(index)<<32 | uint64(generation))
}

// Index returns the 1-based slot index encoded in the handle.
func (h Handle) Index() uint32 {
	return uint32(h >> 32)
}

// Generation returns the slot generation encoded in the handle.
func (h Handle) Generation() uint32 {
	return uint32(h)
}

func (h Handle) String() string {
	return fmt.Sprintf("%d@%d", h.Index(), h.Generation())
}

// Event types for resource lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
)

// Event represents a resource lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	TypeID uint32
	Type   EventType
}

// Observer receives notifications about resource lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}
