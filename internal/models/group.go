package models

// Group represents a set of participants who split bills with each other.
type Group struct {
	// ID is the group's ledger-wide identifier, allocated from the global
	// group counter.
	ID uint64

	// Admin is the member who created the group.
	Admin Address

	// BillCounter is the number of bills ever created under this group.
	// The next bill created takes this value as its id.
	BillCounter uint64

	// Members is the canonical member list: no duplicates, no zero
	// addresses, always includes Admin, insertion order preserved.
	Members []Address
}

// HasMember reports whether addr is in the member list.
func (g *Group) HasMember(addr Address) bool {
	for _, m := range g.Members {
		if m == addr {
			return true
		}
	}
	return false
}
