package models

// NettingInstruction offsets an outstanding debt on an older bill against the
// obligation its payer has on a bill being created. The old bill's payer must
// appear as a debtor on the new bill; the same amount is marked paid on both
// sides, so no real transfer is needed for money that nets to zero.
//
// Instructions are transient inputs to bill creation and are never persisted.
type NettingInstruction struct {
	// BillID references the older bill within the same group.
	BillID uint64

	// BillPayer is the old bill's payer, supplied for verification against
	// stale or forged instructions.
	BillPayer Address

	// PayerDebtorIndex locates the new bill's payer in the old bill's
	// debtor list.
	PayerDebtorIndex uint64

	// Amount is the debt to offset on both bills.
	Amount uint64

	// NewBillDebtorIndex locates the old bill's payer in the new bill's
	// debtor list.
	NewBillDebtorIndex uint64
}
