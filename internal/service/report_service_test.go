package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/domain"
	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/infra/observability"

	"go.uber.org/zap"
)

func newReportFixture() (*ReportService, *ClosureService, *memStore, *fakeCache) {
	store := newMemStore()
	cache := newFakeCache()
	metrics := observability.NewMetrics()
	closure := NewClosureService(store, store, metrics, zap.NewNop())
	svc := NewReportService(store, closure, cache, metrics, zap.NewNop())
	return svc, closure, store, cache
}

// seedMarchScenario loads the store with a month of data: salary 3000.00,
// groceries 650.00 against an 800.00 limit, transport 290.00 against 300.00.
func seedMarchScenario(store *memStore) {
	store.categories["cat-food"] = domain.Category{
		ID: "cat-food", UserID: testUser, Name: "Alimentação", MonthlyLimitCents: 80000,
	}
	store.categories["cat-transport"] = domain.Category{
		ID: "cat-transport", UserID: testUser, Name: "Transporte", MonthlyLimitCents: 30000,
	}
	seedTransaction(store, "t1", domain.KindIncome, 300000, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	seedTransaction(store, "t2", domain.KindExpense, 65000, time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC))
	store.transactions["t2"] = withCategory(store.transactions["t2"], "cat-food")
	seedTransaction(store, "t3", domain.KindExpense, 29000, time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC))
	store.transactions["t3"] = withCategory(store.transactions["t3"], "cat-transport")
}

func withCategory(tx domain.Transaction, categoryID string) domain.Transaction {
	tx.CategoryID = categoryID
	return tx
}

func TestGetBudgetReport(t *testing.T) {
	svc, _, store, _ := newReportFixture()
	seedMarchScenario(store)
	march := domain.Period{Year: 2025, Month: time.March}

	report, err := svc.GetBudgetReport(context.Background(), testUser, march)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalIncomeCents != 300000 || report.TotalExpensesCents != 94000 {
		t.Errorf("unexpected totals: income=%d expenses=%d", report.TotalIncomeCents, report.TotalExpensesCents)
	}
	if report.OverallUsagePercent != 85 {
		t.Errorf("expected overall usage 85%%, got %d%%", report.OverallUsagePercent)
	}
	if len(report.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(report.Categories))
	}
	if report.Categories[0].Name != "Alimentação" || report.Categories[0].UsagePercent != 81 {
		t.Errorf("unexpected food usage: %+v", report.Categories[0])
	}
	if report.Categories[1].Name != "Transporte" || report.Categories[1].UsagePercent != 97 {
		t.Errorf("unexpected transport usage: %+v", report.Categories[1])
	}
}

func TestGetBudgetReport_UsesCategoryCache(t *testing.T) {
	svc, _, store, _ := newReportFixture()
	seedMarchScenario(store)
	march := domain.Period{Year: 2025, Month: time.March}
	ctx := context.Background()

	if _, err := svc.GetBudgetReport(ctx, testUser, march); err != nil {
		t.Fatalf("first report failed: %v", err)
	}
	if _, err := svc.GetBudgetReport(ctx, testUser, march); err != nil {
		t.Fatalf("second report failed: %v", err)
	}
	if store.listCategoriesCalls != 1 {
		t.Errorf("expected a single category fetch across two reports, got %d", store.listCategoriesCalls)
	}
}

func TestGetDashboard(t *testing.T) {
	svc, closure, store, _ := newReportFixture()
	seedMarchScenario(store)
	march := domain.Period{Year: 2025, Month: time.March}
	today := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	dash, err := svc.GetDashboard(ctx, testUser, march, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dash.Closed {
		t.Error("march should start open")
	}
	if dash.Totals.ExpenseCents != 94000 {
		t.Errorf("expected expenses 94000, got %d", dash.Totals.ExpenseCents)
	}
	if len(dash.Alerts) == 0 {
		t.Fatal("expected alerts on the dashboard")
	}
	for _, a := range dash.Alerts {
		if a.Severity == domain.SeverityCritical {
			t.Errorf("no category is over limit, got critical alert: %s", a.Message)
		}
	}
	if !dash.AsOf.Equal(today) {
		t.Errorf("dashboard should be stamped with the request time")
	}

	if _, err := closure.ClosePeriod(ctx, testUser, march); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	dash, err = svc.GetDashboard(ctx, testUser, march, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dash.Closed {
		t.Error("dashboard should reflect the closed state")
	}
}

func TestGetDashboard_EmptyMonth(t *testing.T) {
	svc, _, _, _ := newReportFixture()
	march := domain.Period{Year: 2025, Month: time.March}
	today := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)

	dash, err := svc.GetDashboard(context.Background(), testUser, march, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dash.Alerts) != 1 || dash.Alerts[0].Severity != domain.SeverityInfo {
		t.Fatalf("expected the single empty-month notice, got %+v", dash.Alerts)
	}
}

func TestGetMonthlyTrend(t *testing.T) {
	svc, closure, store, _ := newReportFixture()
	ctx := context.Background()
	seedTransaction(store, "feb-income", domain.KindIncome, 200000, time.Date(2025, time.February, 5, 0, 0, 0, 0, time.UTC))
	seedTransaction(store, "feb-expense", domain.KindExpense, 50000, time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC))
	seedTransaction(store, "mar-expense", domain.KindExpense, 120000, time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC))

	feb := domain.Period{Year: 2025, Month: time.February}
	march := domain.Period{Year: 2025, Month: time.March}
	if _, err := closure.ClosePeriod(ctx, testUser, feb); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	points, err := svc.GetMonthlyTrend(ctx, testUser, feb, march)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Period != feb || points[0].Income != 2000.00 || points[0].Balance != 1500.00 || !points[0].PeriodClosed {
		t.Errorf("unexpected february point: %+v", points[0])
	}
	if points[1].Period != march || points[1].Expenses != 1200.00 || points[1].Balance != -1200.00 || points[1].PeriodClosed {
		t.Errorf("unexpected march point: %+v", points[1])
	}
}

func TestGetMonthlyTrend_InvalidRange(t *testing.T) {
	svc, _, _, _ := newReportFixture()
	march := domain.Period{Year: 2025, Month: time.March}
	feb := domain.Period{Year: 2025, Month: time.February}

	_, err := svc.GetMonthlyTrend(context.Background(), testUser, march, feb)
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error for inverted range, got %v", err)
	}
}
