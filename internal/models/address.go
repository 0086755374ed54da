package models

// Address is an opaque account identifier. The ledger attaches no meaning to
// its contents beyond equality; the empty string is the zero address.
type Address string

// IsZero reports whether the address is the zero address.
func (a Address) IsZero() bool {
	return a == ""
}
