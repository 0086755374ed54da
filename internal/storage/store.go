// Package storage provides the keyed persistence abstraction the ledger
// operates on: two maps (groups by id, bills by composite key) plus the
// global group counter.
package storage

import (
	"context"
	"errors"

	"github.com/splitrix/splitrix/internal/models"
)

// ErrNotFound is returned by point lookups when no record exists under the
// given key.
var ErrNotFound = errors.New("record not found")

// Store is the keyed store backing the ledger. Every read returns a
// disconnected snapshot: mutating a returned value has no effect until it is
// staged in a WorkingSet and committed. Commit applies all staged writes
// atomically, so a ledger operation either fully persists or not at all.
type Store interface {
	// GetGroup returns a snapshot of the group, or ErrNotFound.
	GetGroup(ctx context.Context, id uint64) (models.Group, error)

	// GetBill returns a snapshot of the bill, or ErrNotFound.
	GetBill(ctx context.Context, key models.BillKey) (models.Bill, error)

	// HasBill reports whether a bill exists under the key.
	HasBill(ctx context.Context, key models.BillKey) (bool, error)

	// GroupCounter returns the global group counter (the next group id).
	GroupCounter(ctx context.Context) (uint64, error)

	// Commit atomically applies every write staged in the working set.
	Commit(ctx context.Context, ws *WorkingSet) error

	// Close releases any resources held by the store.
	Close() error
}

// WorkingSet stages the writes of one ledger operation. Reads during the
// operation consult the working set before the store, so an operation sees
// its own staged writes (a netting batch can touch the same bill twice).
type WorkingSet struct {
	groups       map[uint64]models.Group
	bills        map[models.BillKey]models.Bill
	groupCounter *uint64
}

// NewWorkingSet returns an empty working set.
func NewWorkingSet() *WorkingSet {
	return &WorkingSet{
		groups: make(map[uint64]models.Group),
		bills:  make(map[models.BillKey]models.Bill),
	}
}

// PutGroup stages a group write.
func (ws *WorkingSet) PutGroup(g models.Group) {
	ws.groups[g.ID] = g
}

// PutBill stages a bill write.
func (ws *WorkingSet) PutBill(b models.Bill) {
	ws.bills[b.Key()] = b
}

// SetGroupCounter stages a group counter update.
func (ws *WorkingSet) SetGroupCounter(n uint64) {
	ws.groupCounter = &n
}

// Group returns a staged group, if any.
func (ws *WorkingSet) Group(id uint64) (models.Group, bool) {
	g, ok := ws.groups[id]
	return g, ok
}

// Bill returns a staged bill, if any.
func (ws *WorkingSet) Bill(key models.BillKey) (models.Bill, bool) {
	b, ok := ws.bills[key]
	return b, ok
}

// Groups returns the staged group writes.
func (ws *WorkingSet) Groups() map[uint64]models.Group {
	return ws.groups
}

// Bills returns the staged bill writes.
func (ws *WorkingSet) Bills() map[models.BillKey]models.Bill {
	return ws.bills
}

// GroupCounter returns the staged counter update, if any.
func (ws *WorkingSet) GroupCounter() (uint64, bool) {
	if ws.groupCounter == nil {
		return 0, false
	}
	return *ws.groupCounter, true
}
