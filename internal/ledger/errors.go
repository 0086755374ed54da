package ledger

import "errors"

// Every rule the ledger enforces maps to one sentinel below, so callers can
// distinguish failures by kind with errors.Is. A failed check aborts the
// enclosing operation with no writes; there is no recovery inside the ledger.
var (
	// ErrGroupNotFound is returned when a group id references no group.
	ErrGroupNotFound = errors.New("group does not exist")

	// ErrBillNotFound is returned when a bill key references no bill.
	ErrBillNotFound = errors.New("bill does not exist")

	// ErrZeroAddress is returned when a required address is the zero address.
	ErrZeroAddress = errors.New("address must be provided")

	// ErrTooFewMembers is returned when a group would have fewer than two
	// distinct members.
	ErrTooFewMembers = errors.New("at least two members must be provided")

	// ErrZeroAmount is returned when a bill's total amount is zero.
	ErrZeroAmount = errors.New("total amount must be greater than 0")

	// ErrNoDebtors is returned when a bill has no valid debtors.
	ErrNoDebtors = errors.New("at least one debtor must be provided")

	// ErrEmptyMemo is returned when a bill's memo is empty.
	ErrEmptyMemo = errors.New("memo must be provided")

	// ErrTotalMismatch is returned when a bill's total amount does not equal
	// the sum of its canonical debtor amounts.
	ErrTotalMismatch = errors.New("total amount does not match the sum of the debtors' amounts")

	// ErrIndexOutOfRange is returned when a debtor index exceeds a bill's
	// debtor list.
	ErrIndexOutOfRange = errors.New("debtor index out of range")

	// ErrPayerMismatch is returned when a netting instruction's payer does
	// not match the referenced bill or the addressed debtor.
	ErrPayerMismatch = errors.New("bill payer mismatch")

	// ErrPayeeMismatch is returned when a settlement payment's receiver is
	// not the bill's payer.
	ErrPayeeMismatch = errors.New("payment must be sent to the bill payer")

	// ErrSenderMismatch is returned when a settlement payment's sender is
	// not the addressed debtor.
	ErrSenderMismatch = errors.New("payment sender is not the addressed debtor")

	// ErrAlreadySettled is returned when settling a share with no
	// outstanding balance.
	ErrAlreadySettled = errors.New("debt already paid")

	// ErrNettingOverflow is returned when a netting amount exceeds the
	// outstanding debt on either side.
	ErrNettingOverflow = errors.New("netting amount exceeds outstanding debt")
)
