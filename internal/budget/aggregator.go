// Package budget is the computation core of SpendWise: time-windowed
// aggregation of transactions, budget usage evaluation against category
// limits, and threshold-based alert generation. Everything in this package
// is a pure function over caller-supplied snapshots — no I/O, no clock
// reads, no hidden state — so dashboard, budget and report views all
// render from the same numbers.
package budget

import (
	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/domain"
)

// Aggregate filters transactions to those dated inside period and sums them
// into per-kind totals plus expense-only subtotals per category. Expenses
// without a category accumulate under domain.UncategorizedKey, so the
// subtotals always partition the expense total exactly.
//
// Zero-amount transactions are included (they affect the count, not the
// sums). Negative amounts are not valid input; rejecting them is the input
// layer's job, not the aggregator's.
func Aggregate(transactions []domain.Transaction, period domain.Period) domain.PeriodTotals {
	totals := domain.PeriodTotals{
		Period:            period,
		ExpenseByCategory: make(map[string]int64),
	}

	for _, tx := range transactions {
		if !period.Contains(tx.OccurredOn) {
			continue
		}
		totals.TransactionCount++

		switch tx.Kind {
		case domain.KindIncome:
			totals.IncomeCents += tx.AmountCents
		case domain.KindExpense:
			totals.ExpenseCents += tx.AmountCents
			key := tx.CategoryID
			if key == "" {
				key = domain.UncategorizedKey
			}
			totals.ExpenseByCategory[key] += tx.AmountCents
		}
	}

	return totals
}
