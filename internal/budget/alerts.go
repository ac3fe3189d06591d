package budget

import (
	"fmt"
	"time"

	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/domain"
)

// Alert thresholds, shared by every view that renders budget state.
// The 80/100 boundaries are inclusive on the higher-severity side.
const (
	warningThresholdPct  = 80
	criticalThresholdPct = 100
	paceSlackPct         = 15
	projectionWindowDays = 5
	closingSoonDays      = 3
	paceMinDayOfMonth    = 5
)

// alertContext is the calendar context a rule may consult. Day-based
// fields are only meaningful when today falls inside the evaluated period.
type alertContext struct {
	report        domain.BudgetReport
	dayOfMonth    int
	daysInMonth   int
	daysRemaining int
	todayInPeriod bool
}

// alertRules is the single ordered rule table. Every matching rule fires;
// the slice order is the display priority.
var alertRules = []func(alertContext) []domain.Alert{
	globalCriticalRule,
	globalWarningRule,
	globalOnTrackRule,
	categoryCriticalRule,
	categoryWarningRule,
	endOfMonthProjectionRule,
	paceRule,
	noBudgetRule,
	emptyPeriodRule,
}

// GenerateAlerts derives the ordered alert list for a budget report.
// It is a pure function of its inputs: the clock enters only through the
// explicit today parameter, which keeps every alert replayable in tests.
func GenerateAlerts(report domain.BudgetReport, today time.Time, period domain.Period) []domain.Alert {
	ctx := alertContext{
		report:        report,
		daysInMonth:   period.DaysInMonth(),
		todayInPeriod: period.Contains(today),
	}
	if ctx.todayInPeriod {
		ctx.dayOfMonth = today.Day()
		ctx.daysRemaining = ctx.daysInMonth - ctx.dayOfMonth
	}

	alerts := make([]domain.Alert, 0, 4)
	for _, rule := range alertRules {
		alerts = append(alerts, rule(ctx)...)
	}
	return alerts
}

func globalCriticalRule(ctx alertContext) []domain.Alert {
	r := ctx.report
	if !r.HasOverallLimit || r.OverallUsagePercent < criticalThresholdPct {
		return nil
	}
	return []domain.Alert{{
		Severity: domain.SeverityCritical,
		Scope:    domain.ScopeGlobal,
		Message: fmt.Sprintf("Orçamento mensal estourado: %d%% do limite total utilizado",
			r.OverallUsagePercent),
	}}
}

func globalWarningRule(ctx alertContext) []domain.Alert {
	r := ctx.report
	if !r.HasOverallLimit ||
		r.OverallUsagePercent < warningThresholdPct ||
		r.OverallUsagePercent >= criticalThresholdPct {
		return nil
	}
	return []domain.Alert{{
		Severity: domain.SeverityWarning,
		Scope:    domain.ScopeGlobal,
		Message: fmt.Sprintf("Atenção: %s de %s do orçamento mensal já utilizados (%d%%)",
			amount(r.TotalExpensesCents), amount(r.OverallLimitCents), r.OverallUsagePercent),
	}}
}

func globalOnTrackRule(ctx alertContext) []domain.Alert {
	r := ctx.report
	if !r.HasOverallLimit ||
		r.OverallUsagePercent <= 0 ||
		r.OverallUsagePercent >= warningThresholdPct {
		return nil
	}
	remaining := r.OverallLimitCents - r.TotalExpensesCents
	return []domain.Alert{{
		Severity: domain.SeverityInfo,
		Scope:    domain.ScopeGlobal,
		Message: fmt.Sprintf("Dentro do orçamento: restam %s do limite mensal (%d%% utilizado)",
			amount(remaining), r.OverallUsagePercent),
	}}
}

func categoryCriticalRule(ctx alertContext) []domain.Alert {
	var alerts []domain.Alert
	for _, cat := range ctx.report.Categories {
		if !cat.HasLimit || cat.UsagePercent < criticalThresholdPct {
			continue
		}
		alerts = append(alerts, domain.Alert{
			Severity: domain.SeverityCritical,
			Scope:    cat.Name,
			Message: fmt.Sprintf("Categoria %s: limite mensal estourado (%d%% utilizado)",
				cat.Name, cat.UsagePercent),
		})
	}
	return alerts
}

// categoryWarningRule is mutually exclusive with categoryCriticalRule for
// the same category: a category triggers at most one of the two.
func categoryWarningRule(ctx alertContext) []domain.Alert {
	var alerts []domain.Alert
	for _, cat := range ctx.report.Categories {
		if !cat.HasLimit ||
			cat.UsagePercent < warningThresholdPct ||
			cat.UsagePercent >= criticalThresholdPct {
			continue
		}
		alerts = append(alerts, domain.Alert{
			Severity: domain.SeverityWarning,
			Scope:    cat.Name,
			Message: fmt.Sprintf("Categoria %s: %d%% do limite mensal utilizado",
				cat.Name, cat.UsagePercent),
		})
	}
	return alerts
}

// endOfMonthProjectionRule projects end-of-month spend linearly from the
// daily average once the month is within the projection window.
func endOfMonthProjectionRule(ctx alertContext) []domain.Alert {
	r := ctx.report
	if !ctx.todayInPeriod || !r.HasOverallLimit {
		return nil
	}
	if ctx.daysRemaining <= 0 || ctx.daysRemaining > projectionWindowDays {
		return nil
	}

	projected := r.TotalExpensesCents * int64(ctx.daysInMonth) / int64(ctx.dayOfMonth)
	if projected > r.OverallLimitCents {
		return []domain.Alert{{
			Severity: domain.SeverityWarning,
			Scope:    domain.ScopeGlobal,
			Message: fmt.Sprintf("Projeção de fim de mês: gasto projetado de %s excede o orçamento de %s",
				amount(projected), amount(r.OverallLimitCents)),
		}}
	}
	if ctx.daysRemaining <= closingSoonDays {
		return []domain.Alert{{
			Severity: domain.SeverityInfo,
			Scope:    domain.ScopeGlobal,
			Message:  fmt.Sprintf("O mês fecha em %d dias: revise seus lançamentos antes do fechamento", ctx.daysRemaining),
		}}
	}
	return nil
}

func paceRule(ctx alertContext) []domain.Alert {
	r := ctx.report
	if !ctx.todayInPeriod || !r.HasOverallLimit || ctx.dayOfMonth <= paceMinDayOfMonth {
		return nil
	}
	elapsedPct := Percent(int64(ctx.dayOfMonth), int64(ctx.daysInMonth))
	if r.OverallUsagePercent <= elapsedPct+paceSlackPct {
		return nil
	}
	return []domain.Alert{{
		Severity: domain.SeverityWarning,
		Scope:    domain.ScopeGlobal,
		Message: fmt.Sprintf("Ritmo de gastos acima do mês: %d%% do orçamento utilizado com %d%% do mês decorrido",
			r.OverallUsagePercent, elapsedPct),
	}}
}

func noBudgetRule(ctx alertContext) []domain.Alert {
	r := ctx.report
	if r.HasOverallLimit || r.TotalExpensesCents <= 0 {
		return nil
	}
	return []domain.Alert{{
		Severity: domain.SeverityInfo,
		Scope:    domain.ScopeGlobal,
		Message:  "Nenhum orçamento configurado: defina limites mensais por categoria para acompanhar seus gastos",
	}}
}

func emptyPeriodRule(ctx alertContext) []domain.Alert {
	r := ctx.report
	if r.TotalIncomeCents != 0 || r.TotalExpensesCents != 0 {
		return nil
	}
	return []domain.Alert{{
		Severity: domain.SeverityInfo,
		Scope:    domain.ScopeGlobal,
		Message:  "Nenhuma transação registrada neste mês: comece lançando suas receitas e despesas",
	}}
}

func amount(cents int64) string {
	return fmt.Sprintf("%.2f", domain.CentsToFloat(cents))
}
