package models

// BillKey identifies a bill within the ledger.
type BillKey struct {
	GroupID uint64
	BillID  uint64
}

// Debtor is one person's share of a bill. Debtors are identified by their
// position in the bill's list; no two debtors in one bill share an address.
type Debtor struct {
	Address Address
	Amount  uint64
	Paid    uint64
}

// Outstanding returns the portion of the share still owed.
func (d Debtor) Outstanding() uint64 {
	return d.Amount - d.Paid
}

// DebtorShare is a caller-supplied (address, amount) pair for bill creation.
type DebtorShare struct {
	Address Address
	Amount  uint64
}

// Bill represents a single expense event: one payer fronted TotalAmount and
// each debtor owes their share back. TotalAmount always equals the sum of the
// debtor amounts; settlement and netting move Paid only.
type Bill struct {
	GroupID     uint64
	ID          uint64
	Payer       Address
	TotalAmount uint64
	Memo        string
	Debtors     []Debtor
}

// Key returns the bill's composite storage key.
func (b *Bill) Key() BillKey {
	return BillKey{GroupID: b.GroupID, BillID: b.ID}
}
