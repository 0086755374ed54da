// Package ledger implements the Splitrix ledger state machine: group
// creation, bill creation with cross-bill debt netting, and settlement of
// debtor shares against external payment proofs.
//
// Operations are fully serialized. Each operation stages all reads into local
// working copies, validates and mutates those copies, and commits every write
// in one atomic batch at the end. A failed check aborts the whole operation
// with no side effects.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/splitrix/splitrix/internal/models"
	"github.com/splitrix/splitrix/internal/storage"
)

// Notifier receives change notifications after an operation commits. The
// notifications carry identity only; consumers re-fetch current state by id.
type Notifier interface {
	GroupCreated(groupID uint64)
	BillChanged(groupID, billID uint64)
}

// noopNotifier is used when no notifier is configured.
type noopNotifier struct{}

func (noopNotifier) GroupCreated(uint64)        {}
func (noopNotifier) BillChanged(uint64, uint64) {}

// Ledger is the ledger state machine. It is the sole owner of all group and
// bill records in its store.
type Ledger struct {
	mu       sync.Mutex
	store    storage.Store
	notifier Notifier
}

// New creates a Ledger on top of the given store. notifier may be nil.
func New(store storage.Store, notifier Notifier) *Ledger {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Ledger{store: store, notifier: notifier}
}

// SettleResult reports how a payment was applied to a debtor share.
type SettleResult struct {
	// Applied is the amount credited to the share.
	Applied uint64

	// Excess is the portion of the payment above the outstanding balance.
	// It is not tracked, refunded, or credited anywhere; callers bear
	// responsibility for not overpaying.
	Excess uint64

	// Outstanding is the share's remaining balance after the settlement.
	Outstanding uint64
}

// CreateGroup creates a group with the given admin and candidate members and
// returns the new group id.
//
// The canonical member set starts with the admin; each candidate that is
// non-zero and not already present is appended in order. The canonical set
// must have at least two members. Validation runs before id allocation, so an
// invalid call consumes no id.
func (l *Ledger) CreateGroup(ctx context.Context, admin models.Address, candidates []models.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if admin.IsZero() {
		return 0, fmt.Errorf("create group: admin: %w", ErrZeroAddress)
	}

	members := []models.Address{admin}
	for _, c := range candidates {
		if !c.IsZero() && !containsAddress(members, c) {
			members = append(members, c)
		}
	}
	if len(members) < 2 {
		return 0, fmt.Errorf("create group: %w", ErrTooFewMembers)
	}

	groupID, err := l.store.GroupCounter(ctx)
	if err != nil {
		return 0, fmt.Errorf("create group: %w", err)
	}

	ws := storage.NewWorkingSet()
	ws.PutGroup(models.Group{
		ID:          groupID,
		Admin:       admin,
		BillCounter: 0,
		Members:     members,
	})
	ws.SetGroupCounter(groupID + 1)

	if err := l.store.Commit(ctx, ws); err != nil {
		return 0, fmt.Errorf("create group: %w", err)
	}

	l.notifier.GroupCreated(groupID)
	slog.Info("group created", "group_id", groupID, "members", len(members))
	return groupID, nil
}

// CreateBill creates a bill under the group and returns the new bill id.
//
// The debtor list is canonicalized from debtors in order: entries with a zero
// address or a duplicate address are silently dropped (first occurrence
// wins). A debtor whose address equals the payer is created fully paid. The
// total amount must equal the sum of the canonical debtor amounts exactly.
//
// Netting instructions are applied against the freshly built bill and zero or
// more older bills as part of the same operation; any netting failure aborts
// the entire call, including the bill creation and counter increment.
func (l *Ledger) CreateBill(
	ctx context.Context,
	groupID uint64,
	payer models.Address,
	totalAmount uint64,
	debtors []models.DebtorShare,
	memo string,
	netting []models.NettingInstruction,
) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	group, err := l.store.GetGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, fmt.Errorf("create bill: group %d: %w", groupID, ErrGroupNotFound)
		}
		return 0, fmt.Errorf("create bill: %w", err)
	}
	if payer.IsZero() {
		return 0, fmt.Errorf("create bill: payer: %w", ErrZeroAddress)
	}
	if totalAmount == 0 {
		return 0, fmt.Errorf("create bill: %w", ErrZeroAmount)
	}
	if len(debtors) == 0 {
		return 0, fmt.Errorf("create bill: %w", ErrNoDebtors)
	}
	if memo == "" {
		return 0, fmt.Errorf("create bill: %w", ErrEmptyMemo)
	}

	canonical := canonicalizeDebtors(debtors, payer)
	if len(canonical) == 0 {
		return 0, fmt.Errorf("create bill: no valid debtors: %w", ErrNoDebtors)
	}

	// The sum is checked against the canonical list, after dedup: a total
	// that matched the raw list but not the deduped one must fail. The sum
	// must not wrap uint64, or wrapped shares could fake a matching total.
	var sum uint64
	for _, d := range canonical {
		if d.Amount > math.MaxUint64-sum {
			return 0, fmt.Errorf("create bill: debtor amounts overflow: %w", ErrTotalMismatch)
		}
		sum += d.Amount
	}
	if sum != totalAmount {
		return 0, fmt.Errorf("create bill: declared %d, debtors sum to %d: %w", totalAmount, sum, ErrTotalMismatch)
	}

	billID := group.BillCounter
	group.BillCounter++

	bill := models.Bill{
		GroupID:     groupID,
		ID:          billID,
		Payer:       payer,
		TotalAmount: totalAmount,
		Memo:        memo,
		Debtors:     canonical,
	}

	ws := storage.NewWorkingSet()
	ws.PutGroup(group)
	ws.PutBill(bill)

	touched, err := l.applyNetting(ctx, ws, &bill, netting)
	if err != nil {
		return 0, fmt.Errorf("create bill: %w", err)
	}
	ws.PutBill(bill)

	if err := l.store.Commit(ctx, ws); err != nil {
		return 0, fmt.Errorf("create bill: %w", err)
	}

	for _, key := range touched {
		l.notifier.BillChanged(key.GroupID, key.BillID)
	}
	l.notifier.BillChanged(groupID, billID)
	slog.Info("bill created",
		"group_id", groupID,
		"bill_id", billID,
		"total_amount", totalAmount,
		"debtors", len(canonical),
		"netted_bills", len(touched),
	)
	return billID, nil
}

// SettleBill applies an external payment proof to the debtor share at
// senderIndex on the bill. The payment must be addressed to the bill's payer
// and sent by the addressed debtor. A payment above the outstanding balance
// is clamped; the excess is reported in the result but not tracked anywhere.
func (l *Ledger) SettleBill(
	ctx context.Context,
	groupID, billID uint64,
	senderIndex uint64,
	payment models.PaymentProof,
) (SettleResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := models.BillKey{GroupID: groupID, BillID: billID}
	bill, err := l.store.GetBill(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return SettleResult{}, fmt.Errorf("settle bill: bill %d/%d: %w", groupID, billID, ErrBillNotFound)
		}
		return SettleResult{}, fmt.Errorf("settle bill: %w", err)
	}

	if payment.Receiver != bill.Payer {
		return SettleResult{}, fmt.Errorf("settle bill: receiver %s: %w", payment.Receiver, ErrPayeeMismatch)
	}
	if senderIndex >= uint64(len(bill.Debtors)) {
		return SettleResult{}, fmt.Errorf("settle bill: sender index %d: %w", senderIndex, ErrIndexOutOfRange)
	}
	debtor := &bill.Debtors[senderIndex]
	if debtor.Address != payment.Sender {
		return SettleResult{}, fmt.Errorf("settle bill: sender %s: %w", payment.Sender, ErrSenderMismatch)
	}

	outstanding := debtor.Outstanding()
	if outstanding == 0 {
		return SettleResult{}, fmt.Errorf("settle bill: %w", ErrAlreadySettled)
	}

	applied := payment.Amount
	if applied > outstanding {
		applied = outstanding
	}
	debtor.Paid += applied

	ws := storage.NewWorkingSet()
	ws.PutBill(bill)
	if err := l.store.Commit(ctx, ws); err != nil {
		return SettleResult{}, fmt.Errorf("settle bill: %w", err)
	}

	result := SettleResult{
		Applied:     applied,
		Excess:      payment.Amount - applied,
		Outstanding: debtor.Outstanding(),
	}
	l.notifier.BillChanged(groupID, billID)
	slog.Info("bill settled",
		"group_id", groupID,
		"bill_id", billID,
		"sender", payment.Sender,
		"applied", applied,
		"excess", result.Excess,
	)
	return result, nil
}

// GetGroup returns a snapshot of the group.
func (l *Ledger) GetGroup(ctx context.Context, id uint64) (models.Group, error) {
	group, err := l.store.GetGroup(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Group{}, fmt.Errorf("group %d: %w", id, ErrGroupNotFound)
		}
		return models.Group{}, err
	}
	return group, nil
}

// GetBill returns a snapshot of the bill.
func (l *Ledger) GetBill(ctx context.Context, groupID, billID uint64) (models.Bill, error) {
	bill, err := l.store.GetBill(ctx, models.BillKey{GroupID: groupID, BillID: billID})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Bill{}, fmt.Errorf("bill %d/%d: %w", groupID, billID, ErrBillNotFound)
		}
		return models.Bill{}, err
	}
	return bill, nil
}

// canonicalizeDebtors builds a bill's debtor list from caller input: zero
// addresses and duplicates are dropped, first occurrence wins, and the
// payer's own share is created fully paid.
func canonicalizeDebtors(in []models.DebtorShare, payer models.Address) []models.Debtor {
	out := make([]models.Debtor, 0, len(in))
	for _, share := range in {
		if share.Address.IsZero() || containsDebtor(out, share.Address) {
			continue
		}
		paid := uint64(0)
		if share.Address == payer {
			paid = share.Amount
		}
		out = append(out, models.Debtor{
			Address: share.Address,
			Amount:  share.Amount,
			Paid:    paid,
		})
	}
	return out
}

func containsAddress(list []models.Address, addr models.Address) bool {
	for _, a := range list {
		if a == addr {
			return true
		}
	}
	return false
}

func containsDebtor(list []models.Debtor, addr models.Address) bool {
	for _, d := range list {
		if d.Address == addr {
			return true
		}
	}
	return false
}
