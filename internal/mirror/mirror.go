// Package mirror maintains a relational read model of the ledger. The
// projector replays change notifications into it; query layers read from it.
// The mirror implements none of the ledger's rules and is rebuildable from
// the ledger's records at any time.
package mirror

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/splitrix/splitrix/internal/models"
	"github.com/splitrix/splitrix/internal/storage"
)

// DB is the SQLite-backed read mirror.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the mirror database at the given path and runs
// migrations.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create mirror directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open mirror database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run mirror migrations: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (m *DB) Close() error {
	return m.db.Close()
}

// UpsertGroup writes the group snapshot into the mirror, replacing the member
// list wholesale. Safe to replay.
func (m *DB) UpsertGroup(ctx context.Context, group models.Group) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO groups (id, admin, bill_counter) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET admin = excluded.admin, bill_counter = excluded.bill_counter`,
		int64(group.ID), string(group.Admin), int64(group.BillCounter),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert group: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM group_members WHERE group_id = ?", int64(group.ID)); err != nil {
		return fmt.Errorf("failed to clear group members: %w", err)
	}
	for pos, member := range group.Members {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO group_members (group_id, position, address) VALUES (?, ?, ?)",
			int64(group.ID), pos, string(member),
		)
		if err != nil {
			return fmt.Errorf("failed to insert group member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpsertBill writes the bill snapshot into the mirror, replacing the debtor
// list wholesale. Safe to replay.
func (m *DB) UpsertBill(ctx context.Context, bill models.Bill) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bills (group_id, bill_id, payer, total_amount, memo) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (group_id, bill_id) DO UPDATE SET
		   payer = excluded.payer, total_amount = excluded.total_amount, memo = excluded.memo`,
		int64(bill.GroupID), int64(bill.ID), string(bill.Payer), int64(bill.TotalAmount), bill.Memo,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert bill: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"DELETE FROM bill_debtors WHERE group_id = ? AND bill_id = ?",
		int64(bill.GroupID), int64(bill.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to clear bill debtors: %w", err)
	}
	for pos, debtor := range bill.Debtors {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO bill_debtors (group_id, bill_id, position, address, amount, paid)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			int64(bill.GroupID), int64(bill.ID), pos, string(debtor.Address), int64(debtor.Amount), int64(debtor.Paid),
		)
		if err != nil {
			return fmt.Errorf("failed to insert bill debtor: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetGroup retrieves a mirrored group by id.
func (m *DB) GetGroup(ctx context.Context, id uint64) (models.Group, error) {
	group := models.Group{ID: id}
	var admin string
	var billCounter int64
	err := m.db.QueryRowContext(ctx,
		"SELECT admin, bill_counter FROM groups WHERE id = ?", int64(id),
	).Scan(&admin, &billCounter)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, fmt.Errorf("group %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.Group{}, fmt.Errorf("failed to get group: %w", err)
	}
	group.Admin = models.Address(admin)
	group.BillCounter = uint64(billCounter)

	rows, err := m.db.QueryContext(ctx,
		"SELECT address FROM group_members WHERE group_id = ? ORDER BY position", int64(id),
	)
	if err != nil {
		return models.Group{}, fmt.Errorf("failed to get group members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return models.Group{}, fmt.Errorf("failed to scan group member: %w", err)
		}
		group.Members = append(group.Members, models.Address(addr))
	}
	if err := rows.Err(); err != nil {
		return models.Group{}, fmt.Errorf("failed to iterate group members: %w", err)
	}
	return group, nil
}

// ListGroupsByMember returns all mirrored groups that include the address.
func (m *DB) ListGroupsByMember(ctx context.Context, addr models.Address) ([]models.Group, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT DISTINCT group_id FROM group_members WHERE address = ? ORDER BY group_id`,
		string(addr),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups by member: %w", err)
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan group id: %w", err)
		}
		ids = append(ids, uint64(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group ids: %w", err)
	}

	groups := make([]models.Group, 0, len(ids))
	for _, id := range ids {
		group, err := m.GetGroup(ctx, id)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// ListBillsByGroup returns all mirrored bills of a group, ordered by bill id.
func (m *DB) ListBillsByGroup(ctx context.Context, groupID uint64) ([]models.Bill, error) {
	rows, err := m.db.QueryContext(ctx,
		"SELECT bill_id FROM bills WHERE group_id = ? ORDER BY bill_id", int64(groupID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills by group: %w", err)
	}
	defer rows.Close()

	var billIDs []uint64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan bill id: %w", err)
		}
		billIDs = append(billIDs, uint64(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bill ids: %w", err)
	}

	bills := make([]models.Bill, 0, len(billIDs))
	for _, id := range billIDs {
		bill, err := m.getBill(ctx, groupID, id)
		if err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}
	return bills, nil
}

// ListBillsByUser returns all mirrored bills where the address is the payer
// or a debtor.
func (m *DB) ListBillsByUser(ctx context.Context, addr models.Address) ([]models.Bill, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT DISTINCT b.group_id, b.bill_id FROM bills b
		 LEFT JOIN bill_debtors d ON d.group_id = b.group_id AND d.bill_id = b.bill_id
		 WHERE b.payer = ? OR d.address = ?
		 ORDER BY b.group_id, b.bill_id`,
		string(addr), string(addr),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills by user: %w", err)
	}
	defer rows.Close()

	var keys []models.BillKey
	for rows.Next() {
		var gid, bid int64
		if err := rows.Scan(&gid, &bid); err != nil {
			return nil, fmt.Errorf("failed to scan bill key: %w", err)
		}
		keys = append(keys, models.BillKey{GroupID: uint64(gid), BillID: uint64(bid)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bill keys: %w", err)
	}

	bills := make([]models.Bill, 0, len(keys))
	for _, key := range keys {
		bill, err := m.getBill(ctx, key.GroupID, key.BillID)
		if err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}
	return bills, nil
}

func (m *DB) getBill(ctx context.Context, groupID, billID uint64) (models.Bill, error) {
	bill := models.Bill{GroupID: groupID, ID: billID}
	var payer, memo string
	var total int64
	err := m.db.QueryRowContext(ctx,
		"SELECT payer, total_amount, memo FROM bills WHERE group_id = ? AND bill_id = ?",
		int64(groupID), int64(billID),
	).Scan(&payer, &total, &memo)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Bill{}, fmt.Errorf("bill %d/%d: %w", groupID, billID, storage.ErrNotFound)
	}
	if err != nil {
		return models.Bill{}, fmt.Errorf("failed to get bill: %w", err)
	}
	bill.Payer = models.Address(payer)
	bill.TotalAmount = uint64(total)
	bill.Memo = memo

	rows, err := m.db.QueryContext(ctx,
		`SELECT address, amount, paid FROM bill_debtors
		 WHERE group_id = ? AND bill_id = ? ORDER BY position`,
		int64(groupID), int64(billID),
	)
	if err != nil {
		return models.Bill{}, fmt.Errorf("failed to get bill debtors: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var addr string
		var amount, paid int64
		if err := rows.Scan(&addr, &amount, &paid); err != nil {
			return models.Bill{}, fmt.Errorf("failed to scan bill debtor: %w", err)
		}
		bill.Debtors = append(bill.Debtors, models.Debtor{
			Address: models.Address(addr),
			Amount:  uint64(amount),
			Paid:    uint64(paid),
		})
	}
	if err := rows.Err(); err != nil {
		return models.Bill{}, fmt.Errorf("failed to iterate bill debtors: %w", err)
	}
	return bill, nil
}
