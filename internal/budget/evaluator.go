package budget

import (
	"sort"

	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/domain"
)

// Percent returns part/whole as an integer percentage, rounded half-up
// (84.5% → 85%). All threshold comparisons in the engine use this rounded
// value, never the raw ratio, so a category cannot flicker between 79.999%
// and 80% across views. Returns 0 when whole is not positive.
func Percent(part, whole int64) int {
	if whole <= 0 {
		return 0
	}
	return int((part*200 + whole) / (2 * whole))
}

// Evaluate combines aggregated expense totals with the current category
// limits into a BudgetReport. Limits are always the current ones: changing
// a limit never rewrites past reports, it only changes what the next
// evaluation says about that month's spend.
//
// The overall limit is the sum of per-category limits; categories without a
// limit contribute 0 to it while their spend still counts toward the total,
// which can understate overall usage. That matches the observed product
// behavior and is kept deliberately.
func Evaluate(totals domain.PeriodTotals, categories []domain.Category) domain.BudgetReport {
	report := domain.BudgetReport{
		Period:             totals.Period,
		Categories:         make([]domain.CategoryUsage, 0, len(categories)),
		TotalIncomeCents:   totals.IncomeCents,
		TotalExpensesCents: totals.ExpenseCents,
	}

	for _, cat := range categories {
		usage := domain.CategoryUsage{
			CategoryID: cat.ID,
			Name:       cat.Name,
			SpentCents: totals.ExpenseByCategory[cat.ID],
			LimitCents: cat.MonthlyLimitCents,
			HasLimit:   cat.HasLimit(),
		}
		if usage.HasLimit {
			usage.UsagePercent = Percent(usage.SpentCents, usage.LimitCents)
			report.OverallLimitCents += cat.MonthlyLimitCents
		}
		report.Categories = append(report.Categories, usage)
	}

	// Stable output order regardless of input order.
	sort.Slice(report.Categories, func(i, j int) bool {
		return report.Categories[i].Name < report.Categories[j].Name
	})

	if report.OverallLimitCents > 0 {
		report.HasOverallLimit = true
		report.OverallUsagePercent = Percent(report.TotalExpensesCents, report.OverallLimitCents)
	}

	return report
}
