package events

import "testing"

func TestBusDelivers(t *testing.T) {
	bus := NewBus(4)
	bus.GroupCreated(1)
	bus.BillChanged(1, 2)
	bus.Close()

	var got []Event
	for ev := range bus.Events() {
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if ev, ok := got[0].(GroupCreated); !ok || ev.GroupID != 1 {
		t.Errorf("unexpected first event: %#v", got[0])
	}
	if ev, ok := got[1].(BillChanged); !ok || ev.GroupID != 1 || ev.BillID != 2 {
		t.Errorf("unexpected second event: %#v", got[1])
	}
}

func TestBusDropsWhenFull(t *testing.T) {
	bus := NewBus(1)
	bus.BillChanged(0, 0)
	// Buffer is full; this emit must not block.
	bus.BillChanged(0, 1)
	bus.Close()

	var got []Event
	for ev := range bus.Events() {
		got = append(got, ev)
	}
	if len(got) != 1 {
		t.Fatalf("expected the overflow event to be dropped, got %d events", len(got))
	}
}
