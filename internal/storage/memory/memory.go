// Package memory provides a non-durable in-memory implementation of
// storage.Store, used by tests and memory-mode deployments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jinzhu/copier"

	"github.com/splitrix/splitrix/internal/models"
	"github.com/splitrix/splitrix/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store is an in-memory keyed store. Records are deep-copied on every read
// and write so callers never alias stored data.
type Store struct {
	mu           sync.RWMutex
	groups       map[uint64]models.Group
	bills        map[models.BillKey]models.Bill
	groupCounter uint64
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		groups: make(map[uint64]models.Group),
		bills:  make(map[models.BillKey]models.Bill),
	}
}

// GetGroup returns a snapshot of the group, or storage.ErrNotFound.
func (s *Store) GetGroup(_ context.Context, id uint64) (models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return models.Group{}, fmt.Errorf("group %d: %w", id, storage.ErrNotFound)
	}
	return copyGroup(g)
}

// GetBill returns a snapshot of the bill, or storage.ErrNotFound.
func (s *Store) GetBill(_ context.Context, key models.BillKey) (models.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bills[key]
	if !ok {
		return models.Bill{}, fmt.Errorf("bill %d/%d: %w", key.GroupID, key.BillID, storage.ErrNotFound)
	}
	return copyBill(b)
}

// HasBill reports whether a bill exists under the key.
func (s *Store) HasBill(_ context.Context, key models.BillKey) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.bills[key]
	return ok, nil
}

// GroupCounter returns the global group counter.
func (s *Store) GroupCounter(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.groupCounter, nil
}

// Commit applies every staged write under one lock acquisition.
func (s *Store) Commit(_ context.Context, ws *storage.WorkingSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, g := range ws.Groups() {
		cp, err := copyGroup(g)
		if err != nil {
			return err
		}
		s.groups[id] = cp
	}
	for key, b := range ws.Bills() {
		cp, err := copyBill(b)
		if err != nil {
			return err
		}
		s.bills[key] = cp
	}
	if n, ok := ws.GroupCounter(); ok {
		s.groupCounter = n
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

func copyGroup(g models.Group) (models.Group, error) {
	var cp models.Group
	if err := copier.CopyWithOption(&cp, &g, copier.Option{DeepCopy: true}); err != nil {
		return models.Group{}, fmt.Errorf("failed to copy group: %w", err)
	}
	return cp, nil
}

func copyBill(b models.Bill) (models.Bill, error) {
	var cp models.Bill
	if err := copier.CopyWithOption(&cp, &b, copier.Option{DeepCopy: true}); err != nil {
		return models.Bill{}, fmt.Errorf("failed to copy bill: %w", err)
	}
	return cp, nil
}
