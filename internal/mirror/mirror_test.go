package mirror

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/splitrix/splitrix/internal/models"
	"github.com/splitrix/splitrix/internal/storage"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "mirror.db"))
	if err != nil {
		t.Fatalf("Failed to open mirror: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpsertGroup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	group := models.Group{
		ID:          3,
		Admin:       "A",
		BillCounter: 2,
		Members:     []models.Address{"A", "B", "C"},
	}
	if err := db.UpsertGroup(ctx, group); err != nil {
		t.Fatalf("UpsertGroup failed: %v", err)
	}

	got, err := db.GetGroup(ctx, 3)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if got.Admin != "A" || got.BillCounter != 2 {
		t.Errorf("group mismatch: %+v", got)
	}
	if len(got.Members) != 3 || got.Members[0] != "A" {
		t.Errorf("member list mismatch: %v", got.Members)
	}

	// Replaying with a changed member list replaces it wholesale.
	group.Members = []models.Address{"A", "D"}
	group.BillCounter = 5
	if err := db.UpsertGroup(ctx, group); err != nil {
		t.Fatalf("UpsertGroup replay failed: %v", err)
	}
	got, err = db.GetGroup(ctx, 3)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if got.BillCounter != 5 {
		t.Errorf("expected counter 5, got %d", got.BillCounter)
	}
	if len(got.Members) != 2 || got.Members[1] != "D" {
		t.Errorf("expected replaced member list, got %v", got.Members)
	}
}

func TestGetGroupNotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.GetGroup(context.Background(), 99); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertBill(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	bill := models.Bill{
		GroupID:     0,
		ID:          0,
		Payer:       "A",
		TotalAmount: 300,
		Memo:        "dinner",
		Debtors: []models.Debtor{
			{Address: "B", Amount: 100},
			{Address: "C", Amount: 200},
		},
	}
	if err := db.UpsertBill(ctx, bill); err != nil {
		t.Fatalf("UpsertBill failed: %v", err)
	}

	bills, err := db.ListBillsByGroup(ctx, 0)
	if err != nil {
		t.Fatalf("ListBillsByGroup failed: %v", err)
	}
	if len(bills) != 1 {
		t.Fatalf("expected 1 bill, got %d", len(bills))
	}
	if bills[0].Memo != "dinner" || len(bills[0].Debtors) != 2 {
		t.Errorf("bill mismatch: %+v", bills[0])
	}

	// Replay with settled debt replaces the debtor rows.
	bill.Debtors[0].Paid = 100
	if err := db.UpsertBill(ctx, bill); err != nil {
		t.Fatalf("UpsertBill replay failed: %v", err)
	}
	bills, err = db.ListBillsByGroup(ctx, 0)
	if err != nil {
		t.Fatalf("ListBillsByGroup failed: %v", err)
	}
	if len(bills) != 1 {
		t.Fatalf("expected 1 bill after replay, got %d", len(bills))
	}
	if bills[0].Debtors[0].Paid != 100 {
		t.Errorf("expected paid 100 after replay, got %d", bills[0].Debtors[0].Paid)
	}
}

func TestListGroupsByMember(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	groups := []models.Group{
		{ID: 0, Admin: "A", Members: []models.Address{"A", "B"}},
		{ID: 1, Admin: "B", Members: []models.Address{"B", "C"}},
		{ID: 2, Admin: "A", Members: []models.Address{"A", "C"}},
	}
	for _, g := range groups {
		if err := db.UpsertGroup(ctx, g); err != nil {
			t.Fatalf("UpsertGroup failed: %v", err)
		}
	}

	got, err := db.ListGroupsByMember(ctx, "B")
	if err != nil {
		t.Fatalf("ListGroupsByMember failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != 0 || got[1].ID != 1 {
		t.Errorf("expected groups 0 and 1 for B, got %+v", got)
	}

	got, err = db.ListGroupsByMember(ctx, "D")
	if err != nil {
		t.Fatalf("ListGroupsByMember failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no groups for D, got %d", len(got))
	}
}

func TestListBillsByUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	bills := []models.Bill{
		{GroupID: 0, ID: 0, Payer: "A", TotalAmount: 100, Memo: "one",
			Debtors: []models.Debtor{{Address: "B", Amount: 100}}},
		{GroupID: 0, ID: 1, Payer: "B", TotalAmount: 50, Memo: "two",
			Debtors: []models.Debtor{{Address: "C", Amount: 50}}},
		{GroupID: 1, ID: 0, Payer: "C", TotalAmount: 70, Memo: "three",
			Debtors: []models.Debtor{{Address: "A", Amount: 70}}},
	}
	for _, b := range bills {
		if err := db.UpsertBill(ctx, b); err != nil {
			t.Fatalf("UpsertBill failed: %v", err)
		}
	}

	// A pays bill 0/0 and owes on 1/0.
	got, err := db.ListBillsByUser(ctx, "A")
	if err != nil {
		t.Fatalf("ListBillsByUser failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 bills for A, got %d", len(got))
	}
	if got[0].Memo != "one" || got[1].Memo != "three" {
		t.Errorf("unexpected bills for A: %+v", got)
	}

	got, err = db.ListBillsByUser(ctx, "D")
	if err != nil {
		t.Fatalf("ListBillsByUser failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no bills for D, got %d", len(got))
	}
}

func TestUsers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := &models.User{
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
	}
	if err := db.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.ID == "" || user.CreatedAt == 0 {
		t.Error("expected generated id and timestamp")
	}

	byEmail, err := db.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.ID != user.ID || byEmail.Name != "Alice" {
		t.Errorf("user mismatch: %+v", byEmail)
	}

	byID, err := db.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if byID.Email != "alice@example.com" {
		t.Errorf("user mismatch: %+v", byID)
	}

	if _, err := db.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// Duplicate email violates the unique constraint.
	dup := &models.User{Name: "Other", Email: "alice@example.com", PasswordHash: "hash"}
	if err := db.CreateUser(ctx, dup); err == nil {
		t.Error("expected duplicate email insert to fail")
	}
}
