package mirror

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/splitrix/splitrix/internal/events"
	"github.com/splitrix/splitrix/internal/models"
	"github.com/splitrix/splitrix/internal/storage"
	"github.com/splitrix/splitrix/internal/storage/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// waitFor polls until fn returns nil or the deadline passes.
func waitFor(t *testing.T, fn func() error) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	var err error
	for time.Now().Before(deadline) {
		if err = fn(); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not reached: %v", err)
}

func TestProjector(t *testing.T) {
	store := memory.New()
	db, err := Open(filepath.Join(t.TempDir(), "mirror.db"))
	if err != nil {
		t.Fatalf("Failed to open mirror: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	group := models.Group{ID: 0, Admin: "A", BillCounter: 1, Members: []models.Address{"A", "B"}}
	bill := models.Bill{
		GroupID: 0, ID: 0, Payer: "A", TotalAmount: 100, Memo: "lunch",
		Debtors: []models.Debtor{{Address: "B", Amount: 100}},
	}
	ws := storage.NewWorkingSet()
	ws.PutGroup(group)
	ws.PutBill(bill)
	ws.SetGroupCounter(1)
	if err := store.Commit(ctx, ws); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	bus := events.NewBus(16)
	projector := NewProjector(store, db, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		projector.Run(ctx, bus.Events())
	}()

	bus.GroupCreated(0)
	bus.BillChanged(0, 0)
	// Notifications for records the store does not have are skipped.
	bus.BillChanged(9, 9)

	waitFor(t, func() error {
		if _, err := db.GetGroup(ctx, 0); err != nil {
			return err
		}
		bills, err := db.ListBillsByGroup(ctx, 0)
		if err != nil {
			return err
		}
		if len(bills) != 1 {
			return errors.New("bill not projected yet")
		}
		return nil
	})

	got, err := db.GetGroup(ctx, 0)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if len(got.Members) != 2 {
		t.Errorf("expected 2 members, got %v", got.Members)
	}

	if _, err := db.GetGroup(ctx, 9); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing-record notification should not create a row: %v", err)
	}

	// Closing the bus stops the projector.
	bus.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("projector did not stop after bus close")
	}
}

func TestProjectorStopsOnContextCancel(t *testing.T) {
	store := memory.New()
	db, err := Open(filepath.Join(t.TempDir(), "mirror.db"))
	if err != nil {
		t.Fatalf("Failed to open mirror: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	bus := events.NewBus(1)
	projector := NewProjector(store, db, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		projector.Run(ctx, bus.Events())
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("projector did not stop after context cancel")
	}
}
