package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Obligation is an unsettled amount one member owes another.
type Obligation struct {
	Debtor   string
	Creditor string
	Amount   decimal.Decimal
}

// MemberBalance is the net position of one member.
type MemberBalance struct {
	Member string
	// Net is positive when the member is owed money, negative when they owe.
	Net decimal.Decimal
}

// DebtEdge is a payment from one member to another.
type DebtEdge struct {
	From   string // Member who owes
	To     string // Member who is owed
	Amount decimal.Decimal
}

// NetBalances computes each member's net balance from unsettled obligations.
//
// The result lists members in the given order, followed by anyone who only
// appears in obligations, in order of first appearance. Obligations a member
// owes to themself are ignored.
func NetBalances(members []string, obligations []Obligation) []MemberBalance {
	index := make(map[string]int, len(members))
	var balances []MemberBalance

	slot := func(member string) int {
		if i, ok := index[member]; ok {
			return i
		}
		index[member] = len(balances)
		balances = append(balances, MemberBalance{Member: member, Net: decimal.Zero})
		return index[member]
	}

	for _, m := range members {
		slot(m)
	}

	for _, o := range obligations {
		if o.Debtor == o.Creditor {
			continue
		}
		d := slot(o.Debtor)
		c := slot(o.Creditor)
		balances[d].Net = balances[d].Net.Sub(o.Amount)
		balances[c].Net = balances[c].Net.Add(o.Amount)
	}

	return balances
}

// SimplifyDebts turns net balances into a short list of payments that clears
// them.
//
// Algorithm: greedy matching of the largest debtor with the largest creditor.
// Each step settles at least one of the two, so the result has fewer entries
// than the number of members with a non-zero balance. Ties keep the input order.
func SimplifyDebts(balances []MemberBalance) []DebtEdge {
	var creditors, debtors []MemberBalance
	for _, b := range balances {
		switch {
		case b.Net.IsPositive():
			creditors = append(creditors, b)
		case b.Net.IsNegative():
			debtors = append(debtors, MemberBalance{Member: b.Member, Net: b.Net.Neg()})
		}
	}

	// Match largest debts with largest credits
	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].Net.GreaterThan(creditors[j].Net) })
	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].Net.GreaterThan(debtors[j].Net) })

	edges := []DebtEdge{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := decimal.Min(debtors[i].Net, creditors[j].Net)
		edges = append(edges, DebtEdge{
			From:   debtors[i].Member,
			To:     creditors[j].Member,
			Amount: amount,
		})

		debtors[i].Net = debtors[i].Net.Sub(amount)
		creditors[j].Net = creditors[j].Net.Sub(amount)

		// Move to next debtor/creditor if fully settled
		if debtors[i].Net.IsZero() {
			i++
		}
		if creditors[j].Net.IsZero() {
			j++
		}
	}

	return edges
}
