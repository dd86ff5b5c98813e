// Package balance folds a group's transactions into per-member net
// positions and plans the transfers that clear them.
package balance

import (
	"sort"

	"vydaje/internal/core"
)

// Compute folds the group's transactions into a signed ledger-currency
// balance per member. Positive means the member is owed money, negative
// that they owe.
//
// The fold is pure summation, so the result is deterministic and
// independent of transaction order. Payers, recipients and split members
// who have since left the group carry no balance bucket and are skipped;
// their historical share simply drops out of the map.
func Compute(group *core.Group) map[string]float64 {
	balances := make(map[string]float64, len(group.Members))
	for _, m := range group.Members {
		balances[m] = 0
	}

	for i := range group.Transactions {
		tx := &group.Transactions[i]
		switch d := tx.Detail.(type) {
		case core.ExpenseDetail:
			if _, ok := balances[d.Payer]; ok {
				balances[d.Payer] += float64(tx.LedgerAmount)
			}
			switch d.Mode {
			case core.SplitCustom:
				for _, share := range d.Shares {
					if _, ok := balances[share.Member]; !ok {
						continue
					}
					if share.Fixed != nil {
						balances[share.Member] -= float64(*share.Fixed)
					}
				}
			default: // SplitEqual
				if len(d.Shares) == 0 {
					continue
				}
				perMember := float64(tx.LedgerAmount) / float64(len(d.Shares))
				for _, share := range d.Shares {
					if _, ok := balances[share.Member]; ok {
						balances[share.Member] -= perMember
					}
				}
			}
		case core.IncomeDetail:
			if _, ok := balances[d.Recipient]; ok {
				balances[d.Recipient] += float64(tx.LedgerAmount)
			}
		}
	}

	return balances
}

// Totals sums expenses and incomes in ledger units across the group.
func Totals(group *core.Group) (expenses, incomes int64) {
	for i := range group.Transactions {
		tx := &group.Transactions[i]
		switch tx.Detail.(type) {
		case core.ExpenseDetail:
			expenses += tx.LedgerAmount
		case core.IncomeDetail:
			incomes += tx.LedgerAmount
		}
	}
	return expenses, incomes
}

// Transfer is one planned debt-clearing payment.
type Transfer struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

type party struct {
	member string
	amount float64
}

// Plan turns a balance map into an ordered transfer list using greedy
// largest-debtor against largest-creditor matching. Balances within
// ±core.Epsilon of zero are treated as settled and excluded.
//
// The plan is a pure function of the balance map: recomputing it on every
// view refresh yields the same list. It emits at most debtors+creditors−1
// transfers, a greedy approximation that is not claimed globally minimal.
func Plan(balances map[string]float64) []Transfer {
	var debtors, creditors []party
	for _, member := range sortedMembers(balances) {
		b := balances[member]
		switch {
		case b < -core.Epsilon:
			debtors = append(debtors, party{member: member, amount: -b})
		case b > core.Epsilon:
			creditors = append(creditors, party{member: member, amount: b})
		}
	}

	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].amount > debtors[j].amount })
	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].amount > creditors[j].amount })

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := debtors[i].amount
		if creditors[j].amount < amount {
			amount = creditors[j].amount
		}

		transfers = append(transfers, Transfer{
			From:   debtors[i].member,
			To:     creditors[j].member,
			Amount: amount,
		})

		debtors[i].amount -= amount
		creditors[j].amount -= amount

		if debtors[i].amount < core.Epsilon {
			i++
		}
		if creditors[j].amount < core.Epsilon {
			j++
		}
	}

	return transfers
}

// sortedMembers fixes the iteration order so ties in Plan break on member
// name rather than map order.
func sortedMembers(balances map[string]float64) []string {
	members := make([]string, 0, len(balances))
	for m := range balances {
		members = append(members, m)
	}
	sort.Strings(members)
	return members
}
