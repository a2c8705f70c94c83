package resource

import (
	"testing"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.events = append(o.events, e)
}

func TestTable_Basic(t *testing.T) {
	table := NewTable()

	h := table.Insert(1, "test")
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}

	val, ok := table.GetTyped(h, 1)
	if !ok {
		t.Fatal("GetTyped with correct type failed")
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	if _, ok = table.GetTyped(h, 2); ok {
		t.Fatal("GetTyped with wrong type should fail")
	}

	val, ok = table.RemoveTyped(h, 1)
	if !ok {
		t.Fatal("RemoveTyped failed")
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}
	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after RemoveTyped")
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)

	h := table.Insert(7, "test")
	if len(obs.events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(obs.events))
	}
	if e := obs.events[0]; e.Type != EventCreated || e.Handle != h || e.TypeID != 7 {
		t.Fatalf("unexpected created event %+v", e)
	}

	table.RemoveTyped(h, 7)
	if len(obs.events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(obs.events))
	}
	if e := obs.events[1]; e.Type != EventDropped || e.TypeID != 7 || e.Value != "test" {
		t.Fatalf("unexpected dropped event %+v", e)
	}

	// a rejected removal is not reported
	table.RemoveTyped(h, 7)
	if len(obs.events) != 2 {
		t.Fatalf("Expected 2 events after stale removal, got %d", len(obs.events))
	}
}

func TestTable_Clear(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)

	table.Insert(1, "a")
	table.Insert(2, "b")
	table.Insert(1, "c")

	if table.Len() != 3 {
		t.Fatal("Expected Len() == 3")
	}

	table.Clear()

	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Clear")
	}
	dropped := map[uint32]int{}
	for _, e := range obs.events {
		if e.Type == EventDropped {
			dropped[e.TypeID]++
		}
	}
	if dropped[1] != 2 || dropped[2] != 1 {
		t.Fatalf("unexpected dropped events by type: %v", dropped)
	}
}

func TestTable_Close(t *testing.T) {
	table := NewTable()

	table.Insert(1, "a")
	table.Insert(1, "b")

	if err := table.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Close")
	}
	if h := table.Insert(1, "c"); h != 0 {
		t.Fatal("Expected Insert to fail after Close")
	}
}

func TestTable_RemoveTyped(t *testing.T) {
	table := NewTable()

	h := table.Insert(1, "job")
	if _, ok := table.RemoveTyped(h, 2); ok {
		t.Fatal("RemoveTyped with wrong type should fail")
	}
	if table.Len() != 1 {
		t.Fatal("wrong-type RemoveTyped must not remove")
	}
	if _, ok := table.RemoveTyped(h, 1); !ok {
		t.Fatal("RemoveTyped with correct type failed")
	}
	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after RemoveTyped")
	}
}

func TestTable_StaleHandleAfterReuse(t *testing.T) {
	table := NewTable()

	old := table.Insert(1, "first")
	table.RemoveTyped(old, 1)
	reused := table.Insert(1, "second")

	if reused.Index() != old.Index() {
		t.Fatalf("expected slot reuse, got index %d and %d", old.Index(), reused.Index())
	}
	if _, ok := table.GetTyped(old, 1); ok {
		t.Fatal("stale handle must not resolve to the reused slot")
	}
	if _, ok := table.RemoveTyped(old, 1); ok {
		t.Fatal("stale handle must not remove the reused slot")
	}
	if v, ok := table.GetTyped(reused, 1); !ok || v != "second" {
		t.Fatalf("GetTyped(reused) = %v, %v", v, ok)
	}
}

func TestTable_Each(t *testing.T) {
	table := NewTable()
	table.Insert(1, "a")
	table.Insert(2, "b")
	table.Insert(1, "c")

	var seen int
	table.Each(func(_ Handle, typeID uint32, _ any) bool {
		seen++
		return seen < 2
	})
	if seen != 2 {
		t.Fatalf("Each should stop when fn returns false, visited %d", seen)
	}
}
