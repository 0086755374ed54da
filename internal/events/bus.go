// Package events carries ledger change notifications to in-process
// subscribers. Notifications are fire-and-forget and carry identity only;
// consumers re-fetch current state by id and upsert idempotently, so replays
// and drops cannot corrupt downstream state.
package events

import "log/slog"

// GroupCreated signals that a group was created.
type GroupCreated struct {
	GroupID uint64
}

// BillChanged signals that a bill was created or mutated.
type BillChanged struct {
	GroupID uint64
	BillID  uint64
}

// Event is a ledger change notification.
type Event interface {
	isEvent()
}

func (GroupCreated) isEvent() {}
func (BillChanged) isEvent()  {}

// Bus is a bounded in-process notification channel. Emits never block the
// ledger: if the buffer is full the event is dropped and logged, and the
// mirror catches up on the next notification for the same record.
type Bus struct {
	ch chan Event
}

// NewBus creates a bus with the given buffer size.
func NewBus(size int) *Bus {
	if size <= 0 {
		size = 256
	}
	return &Bus{ch: make(chan Event, size)}
}

// GroupCreated emits a GroupCreated notification.
func (b *Bus) GroupCreated(groupID uint64) {
	b.emit(GroupCreated{GroupID: groupID})
}

// BillChanged emits a BillChanged notification.
func (b *Bus) BillChanged(groupID, billID uint64) {
	b.emit(BillChanged{GroupID: groupID, BillID: billID})
}

func (b *Bus) emit(ev Event) {
	select {
	case b.ch <- ev:
	default:
		slog.Warn("event buffer full, dropping notification", "event", ev)
	}
}

// Events returns the subscriber channel.
func (b *Bus) Events() <-chan Event {
	return b.ch
}

// Close closes the bus. No emits may follow.
func (b *Bus) Close() {
	close(b.ch)
}
