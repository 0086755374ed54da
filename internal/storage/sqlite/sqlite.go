// Package sqlite provides a SQLite-backed implementation of the
// storage.Store interface. Records are stored as CBOR blobs in plain
// key/value tables; the relational read mirror lives elsewhere.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/splitrix/splitrix/internal/models"
	"github.com/splitrix/splitrix/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path. It creates the
// parent directories and runs migrations automatically.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetGroup returns a snapshot of the group, or storage.ErrNotFound.
func (s *Store) GetGroup(ctx context.Context, id uint64) (models.Group, error) {
	var record []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT record FROM groups WHERE id = ?", int64(id),
	).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, fmt.Errorf("group %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.Group{}, fmt.Errorf("failed to get group: %w", err)
	}

	var group models.Group
	if err := cbor.Unmarshal(record, &group); err != nil {
		return models.Group{}, fmt.Errorf("failed to decode group record: %w", err)
	}
	return group, nil
}

// GetBill returns a snapshot of the bill, or storage.ErrNotFound.
func (s *Store) GetBill(ctx context.Context, key models.BillKey) (models.Bill, error) {
	var record []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT record FROM bills WHERE group_id = ? AND bill_id = ?",
		int64(key.GroupID), int64(key.BillID),
	).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Bill{}, fmt.Errorf("bill %d/%d: %w", key.GroupID, key.BillID, storage.ErrNotFound)
	}
	if err != nil {
		return models.Bill{}, fmt.Errorf("failed to get bill: %w", err)
	}

	var bill models.Bill
	if err := cbor.Unmarshal(record, &bill); err != nil {
		return models.Bill{}, fmt.Errorf("failed to decode bill record: %w", err)
	}
	return bill, nil
}

// HasBill reports whether a bill exists under the key.
func (s *Store) HasBill(ctx context.Context, key models.BillKey) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM bills WHERE group_id = ? AND bill_id = ?",
		int64(key.GroupID), int64(key.BillID),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check bill existence: %w", err)
	}
	return true, nil
}

// GroupCounter returns the global group counter.
func (s *Store) GroupCounter(ctx context.Context) (uint64, error) {
	var counter int64
	err := s.db.QueryRowContext(ctx,
		"SELECT group_counter FROM ledger_state WHERE id = 1",
	).Scan(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to get group counter: %w", err)
	}
	return uint64(counter), nil
}

// Commit applies every staged write in a single SQL transaction.
func (s *Store) Commit(ctx context.Context, ws *storage.WorkingSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for id, group := range ws.Groups() {
		record, err := cbor.Marshal(group)
		if err != nil {
			return fmt.Errorf("failed to encode group record: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO groups (id, record) VALUES (?, ?)
			 ON CONFLICT (id) DO UPDATE SET record = excluded.record`,
			int64(id), record,
		)
		if err != nil {
			return fmt.Errorf("failed to write group: %w", err)
		}
	}

	for key, bill := range ws.Bills() {
		record, err := cbor.Marshal(bill)
		if err != nil {
			return fmt.Errorf("failed to encode bill record: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO bills (group_id, bill_id, record) VALUES (?, ?, ?)
			 ON CONFLICT (group_id, bill_id) DO UPDATE SET record = excluded.record`,
			int64(key.GroupID), int64(key.BillID), record,
		)
		if err != nil {
			return fmt.Errorf("failed to write bill: %w", err)
		}
	}

	if counter, ok := ws.GroupCounter(); ok {
		_, err = tx.ExecContext(ctx,
			"UPDATE ledger_state SET group_counter = ? WHERE id = 1",
			int64(counter),
		)
		if err != nil {
			return fmt.Errorf("failed to write group counter: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
