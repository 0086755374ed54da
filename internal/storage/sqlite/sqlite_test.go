package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/splitrix/splitrix/internal/models"
	"github.com/splitrix/splitrix/internal/storage"
)

func TestSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	group := models.Group{
		ID:          0,
		Admin:       "A",
		BillCounter: 1,
		Members:     []models.Address{"A", "B", "C"},
	}
	bill := models.Bill{
		GroupID:     0,
		ID:          0,
		Payer:       "A",
		TotalAmount: 300,
		Memo:        "dinner",
		Debtors: []models.Debtor{
			{Address: "B", Amount: 100, Paid: 0},
			{Address: "C", Amount: 200, Paid: 50},
		},
	}

	t.Run("lookups on empty store", func(t *testing.T) {
		if _, err := store.GetGroup(ctx, 0); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := store.GetBill(ctx, bill.Key()); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		counter, err := store.GroupCounter(ctx)
		if err != nil {
			t.Fatalf("GroupCounter failed: %v", err)
		}
		if counter != 0 {
			t.Errorf("expected seeded counter 0, got %d", counter)
		}
	})

	t.Run("commit round trip", func(t *testing.T) {
		ws := storage.NewWorkingSet()
		ws.PutGroup(group)
		ws.PutBill(bill)
		ws.SetGroupCounter(1)
		if err := store.Commit(ctx, ws); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}

		gotGroup, err := store.GetGroup(ctx, 0)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if gotGroup.Admin != group.Admin || gotGroup.BillCounter != group.BillCounter {
			t.Errorf("group mismatch: got %+v", gotGroup)
		}
		if len(gotGroup.Members) != 3 || gotGroup.Members[2] != "C" {
			t.Errorf("member list mismatch: got %v", gotGroup.Members)
		}

		gotBill, err := store.GetBill(ctx, bill.Key())
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}
		if gotBill.TotalAmount != 300 || gotBill.Memo != "dinner" {
			t.Errorf("bill mismatch: got %+v", gotBill)
		}
		if len(gotBill.Debtors) != 2 || gotBill.Debtors[1].Paid != 50 {
			t.Errorf("debtor list mismatch: got %v", gotBill.Debtors)
		}

		ok, err := store.HasBill(ctx, bill.Key())
		if err != nil {
			t.Fatalf("HasBill failed: %v", err)
		}
		if !ok {
			t.Error("expected committed bill to exist")
		}
	})

	t.Run("commit updates existing records", func(t *testing.T) {
		updated := bill
		updated.Debtors = []models.Debtor{
			{Address: "B", Amount: 100, Paid: 100},
			{Address: "C", Amount: 200, Paid: 50},
		}
		ws := storage.NewWorkingSet()
		ws.PutBill(updated)
		if err := store.Commit(ctx, ws); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}

		gotBill, err := store.GetBill(ctx, bill.Key())
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}
		if gotBill.Debtors[0].Paid != 100 {
			t.Errorf("expected updated paid 100, got %d", gotBill.Debtors[0].Paid)
		}
	})

	t.Run("state survives reopen", func(t *testing.T) {
		if err := store.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		reopened, err := New(dbPath)
		if err != nil {
			t.Fatalf("Failed to reopen store: %v", err)
		}
		defer reopened.Close()

		counter, err := reopened.GroupCounter(ctx)
		if err != nil {
			t.Fatalf("GroupCounter failed: %v", err)
		}
		if counter != 1 {
			t.Errorf("expected counter 1 after reopen, got %d", counter)
		}
		if _, err := reopened.GetBill(ctx, bill.Key()); err != nil {
			t.Errorf("expected bill to survive reopen: %v", err)
		}
	})
}
