// Package calculator computes per-member balances and simplified debt edges
// over a set of ledger bills. It is read-side arithmetic only; the ledger's
// records are the source of truth.
package calculator

import (
	"sort"

	"github.com/splitrix/splitrix/internal/models"
)

// MemberBalance represents the balance information for one group member.
type MemberBalance struct {
	Address    models.Address
	NetBalance int64  // Positive = owed money, Negative = owes money
	TotalOwed  uint64 // Outstanding debt this member still owes across bills
	TotalDue   uint64 // Outstanding debt still owed to this member as payer
}

// DebtEdge represents an outstanding debt from one member to another.
type DebtEdge struct {
	From   models.Address // Member who owes
	To     models.Address // Member who is owed
	Amount uint64
}

// GroupBalances computes balances across the given bills.
//
// For each bill, every debtor owes their outstanding share (amount - paid) to
// the bill's payer; fully paid shares contribute nothing. Net balance is what
// a member is owed minus what they owe. The debt matrix is simplified by
// greedily matching debtors against creditors, so the edges settle all nets
// with a minimal number of transfers rather than mirroring per-bill debts.
func GroupBalances(bills []models.Bill) ([]MemberBalance, []DebtEdge) {
	balances := make(map[models.Address]*MemberBalance)

	lookup := func(addr models.Address) *MemberBalance {
		bal, ok := balances[addr]
		if !ok {
			bal = &MemberBalance{Address: addr}
			balances[addr] = bal
		}
		return bal
	}

	for _, bill := range bills {
		for _, debtor := range bill.Debtors {
			outstanding := debtor.Outstanding()
			if outstanding == 0 || debtor.Address == bill.Payer {
				continue
			}
			lookup(debtor.Address).TotalOwed += outstanding
			lookup(bill.Payer).TotalDue += outstanding
		}
	}

	addrs := make([]models.Address, 0, len(balances))
	for addr := range balances {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	memberBalances := make([]MemberBalance, 0, len(addrs))
	var creditors, debtors []models.Address
	remaining := make(map[models.Address]uint64)

	for _, addr := range addrs {
		bal := balances[addr]
		bal.NetBalance = int64(bal.TotalDue) - int64(bal.TotalOwed)
		memberBalances = append(memberBalances, *bal)

		switch {
		case bal.NetBalance > 0:
			creditors = append(creditors, addr)
			remaining[addr] = uint64(bal.NetBalance)
		case bal.NetBalance < 0:
			debtors = append(debtors, addr)
			remaining[addr] = uint64(-bal.NetBalance)
		}
	}

	// Greedy matching: walk debtors and creditors in address order and
	// settle the smaller of the two remainders each step.
	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := debtors[i], creditors[j]
		amount := remaining[debtor]
		if remaining[creditor] < amount {
			amount = remaining[creditor]
		}
		if amount > 0 {
			edges = append(edges, DebtEdge{From: debtor, To: creditor, Amount: amount})
		}
		remaining[debtor] -= amount
		remaining[creditor] -= amount
		if remaining[debtor] == 0 {
			i++
		}
		if remaining[creditor] == 0 {
			j++
		}
	}

	return memberBalances, edges
}
