// Package domain holds the entities and value types of the SpendWise
// budget engine: transactions, categories, periods, budget reports,
// alerts and closure records.
package domain

import "time"

// TransactionKind distinguishes money coming in from money going out.
type TransactionKind string

const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

// Valid reports whether the kind is one of the two known values.
func (k TransactionKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// UncategorizedKey is the synthetic category key under which expenses
// without a category are accumulated in PeriodTotals.
const UncategorizedKey = "uncategorized"

// Transaction is an immutable financial record. The engine only reads
// transactions; creation and deletion go through the store, guarded by
// the closure service.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Description string          `json:"description"`
	AmountCents int64           `json:"amount_cents"`
	Kind        TransactionKind `json:"kind"`
	CategoryID  string          `json:"category_id,omitempty"` // empty = uncategorized
	OccurredOn  time.Time       `json:"occurred_on"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Category groups expenses and optionally carries a monthly spending limit.
// A zero MonthlyLimitCents means "no limit".
type Category struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Name              string    `json:"name"`
	MonthlyLimitCents int64     `json:"monthly_limit_cents"`
	ColorTag          string    `json:"color_tag,omitempty"` // presentation only
	CreatedAt         time.Time `json:"created_at"`
}

// HasLimit reports whether the category carries a spending limit.
func (c Category) HasLimit() bool {
	return c.MonthlyLimitCents > 0
}

// PeriodTotals is the Aggregator output: income and expense totals for one
// period plus expense subtotals keyed by category ID (UncategorizedKey for
// expenses without a category). Income is not broken down by category.
type PeriodTotals struct {
	Period            Period           `json:"period"`
	IncomeCents       int64            `json:"income_cents"`
	ExpenseCents      int64            `json:"expense_cents"`
	ExpenseByCategory map[string]int64 `json:"expense_by_category"`
	TransactionCount  int              `json:"transaction_count"`
}

// CategoryUsage is one row of a BudgetReport.
type CategoryUsage struct {
	CategoryID   string `json:"category_id"`
	Name         string `json:"name"`
	SpentCents   int64  `json:"spent_cents"`
	LimitCents   int64  `json:"limit_cents"`
	UsagePercent int    `json:"usage_percent"` // meaningful only when HasLimit
	HasLimit     bool   `json:"has_limit"`
}

// BudgetReport combines aggregated spend with category limits.
// OverallUsagePercent is meaningful only when HasOverallLimit is true;
// a missing limit is an explicit state, never a division error.
type BudgetReport struct {
	Period              Period          `json:"period"`
	Categories          []CategoryUsage `json:"categories"`
	TotalIncomeCents    int64           `json:"total_income_cents"`
	TotalExpensesCents  int64           `json:"total_expenses_cents"`
	OverallLimitCents   int64           `json:"overall_limit_cents"`
	OverallUsagePercent int             `json:"overall_usage_percent"`
	HasOverallLimit     bool            `json:"has_overall_limit"`
}

// AlertSeverity orders alerts from advisory to urgent.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// ScopeGlobal marks alerts about the whole monthly budget rather than a
// single category.
const ScopeGlobal = "global"

// Alert is an ephemeral advisory recomputed on demand; it is never
// persisted or deduplicated across recomputations.
type Alert struct {
	Severity AlertSeverity `json:"severity"`
	Message  string        `json:"message"`
	Scope    string        `json:"scope"` // ScopeGlobal or the category name
}

// ClosureRecord is the immutable snapshot taken when a period is closed.
// Totals are stamped at closure time and never recomputed.
type ClosureRecord struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Period             Period    `json:"period"`
	TotalIncomeCents   int64     `json:"total_income_cents"`
	TotalExpensesCents int64     `json:"total_expenses_cents"`
	ClosedAt           time.Time `json:"closed_at"`
}

// PeriodStatus pairs a period with its closure state for listings.
type PeriodStatus struct {
	Period Period         `json:"period"`
	Closed bool           `json:"closed"`
	Record *ClosureRecord `json:"record,omitempty"`
}

// EngineMetrics is a snapshot of engine counters for the
// GET /v1/metrics/engine endpoint.
type EngineMetrics struct {
	ReportsComputed   int64            `json:"reports_computed"`
	AlertsGenerated   int64            `json:"alerts_generated"`
	AlertsBySeverity  map[string]int64 `json:"alerts_by_severity"`
	PeriodsClosed     int64            `json:"periods_closed"`
	PeriodsReopened   int64            `json:"periods_reopened"`
	MutationsRejected int64            `json:"mutations_rejected"`
	CacheHitRate      float64          `json:"cache_hit_rate"`
	Period            string           `json:"period"`
}

// MonthlyTrendPoint is one month of the income/expense trend report.
type MonthlyTrendPoint struct {
	Period       Period  `json:"period"`
	Income       float64 `json:"income"`
	Expenses     float64 `json:"expenses"`
	Balance      float64 `json:"balance"`
	PeriodClosed bool    `json:"period_closed"`
}
