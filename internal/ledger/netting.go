package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/splitrix/splitrix/internal/models"
	"github.com/splitrix/splitrix/internal/storage"
)

// applyNetting applies a batch of netting instructions against the bill being
// created. Each instruction discharges part of an outstanding debt the new
// bill's payer holds on an older bill by crediting the same amount against
// what the older bill's payer now owes on the new bill.
//
// Old-bill mutations are staged in the working set, never persisted early: a
// failing instruction anywhere in the batch aborts the whole bill creation
// with no writes. Returns the keys of the older bills touched, in first-touch
// order, for change notification.
func (l *Ledger) applyNetting(
	ctx context.Context,
	ws *storage.WorkingSet,
	newBill *models.Bill,
	instructions []models.NettingInstruction,
) ([]models.BillKey, error) {
	var touched []models.BillKey
	newKey := newBill.Key()

	for i, instr := range instructions {
		oldKey := models.BillKey{GroupID: newBill.GroupID, BillID: instr.BillID}

		// Later instructions must see earlier mutations of the same
		// bill, so staged copies take precedence over the store.
		oldBill, ok := ws.Bill(oldKey)
		if !ok {
			var err error
			oldBill, err = l.store.GetBill(ctx, oldKey)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return nil, fmt.Errorf("netting %d: bill %d: %w", i, instr.BillID, ErrBillNotFound)
				}
				return nil, fmt.Errorf("netting %d: %w", i, err)
			}
		}

		if oldBill.Payer != instr.BillPayer {
			return nil, fmt.Errorf("netting %d: bill %d payer %s: %w", i, instr.BillID, oldBill.Payer, ErrPayerMismatch)
		}
		if instr.PayerDebtorIndex >= uint64(len(oldBill.Debtors)) {
			return nil, fmt.Errorf("netting %d: payer debtor index %d: %w", i, instr.PayerDebtorIndex, ErrIndexOutOfRange)
		}

		oldDebtor := &oldBill.Debtors[instr.PayerDebtorIndex]
		if instr.Amount > oldDebtor.Outstanding() {
			return nil, fmt.Errorf("netting %d: amount %d exceeds outstanding %d on bill %d: %w",
				i, instr.Amount, oldDebtor.Outstanding(), instr.BillID, ErrNettingOverflow)
		}
		oldDebtor.Paid += instr.Amount
		ws.PutBill(oldBill)
		if oldKey != newKey && !containsKey(touched, oldKey) {
			touched = append(touched, oldKey)
		}

		if instr.NewBillDebtorIndex >= uint64(len(newBill.Debtors)) {
			return nil, fmt.Errorf("netting %d: new bill debtor index %d: %w", i, instr.NewBillDebtorIndex, ErrIndexOutOfRange)
		}
		newDebtor := &newBill.Debtors[instr.NewBillDebtorIndex]
		if newDebtor.Address != instr.BillPayer {
			return nil, fmt.Errorf("netting %d: new bill debtor %s: %w", i, newDebtor.Address, ErrPayerMismatch)
		}
		// Compared against the outstanding balance rather than Paid+Amount,
		// which could wrap uint64 and slip past the guard.
		if instr.Amount > newDebtor.Outstanding() {
			return nil, fmt.Errorf("netting %d: amount %d exceeds obligation on new bill: %w", i, instr.Amount, ErrNettingOverflow)
		}
		newDebtor.Paid += instr.Amount
	}

	return touched, nil
}

func containsKey(list []models.BillKey, key models.BillKey) bool {
	for _, k := range list {
		if k == key {
			return true
		}
	}
	return false
}
