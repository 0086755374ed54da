package models

// PaymentProof attests that an external payment of Amount from Sender to
// Receiver occurred. It is produced by an external payment mechanism and
// trusted as authentic by the time it reaches the ledger; the ledger only
// validates it against the bill being settled.
type PaymentProof struct {
	Sender   Address
	Receiver Address
	Amount   uint64
}
