package service

import (
	"context"
	"errors"
	"time"

	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/budget"
	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/domain"
	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/infra/observability"
	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var reportTracer = otel.Tracer("service/report")

// Dashboard is the combined read-path payload: totals, budget report and
// alerts, all derived from one consistent snapshot. It is recomputed on
// every request — alerts are never stored.
type Dashboard struct {
	Period  domain.Period       `json:"period"`
	Closed  bool                `json:"closed"`
	Totals  domain.PeriodTotals `json:"totals"`
	Report  domain.BudgetReport `json:"report"`
	Alerts  []domain.Alert      `json:"alerts"`
	AsOf    time.Time           `json:"as_of"`
}

// ReportService runs the read path: snapshot → aggregate → evaluate →
// alerts. It is safe for concurrent use by multiple readers since the
// engine functions are pure over caller-supplied snapshots.
type ReportService struct {
	records  port.RecordStore
	closure  *ClosureService
	catCache port.Cache[[]domain.Category]
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewReportService creates a new report service.
func NewReportService(records port.RecordStore, closure *ClosureService, catCache port.Cache[[]domain.Category], metrics *observability.Metrics, logger *zap.Logger) *ReportService {
	return &ReportService{
		records:  records,
		closure:  closure,
		catCache: catCache,
		metrics:  metrics,
		logger:   logger,
	}
}

// snapshot fetches the period's transactions and the category list
// concurrently. Categories go through the TTL cache since they change far
// less often than transactions.
func (s *ReportService) snapshot(ctx context.Context, userID string, period domain.Period) ([]domain.Transaction, []domain.Category, error) {
	var (
		transactions []domain.Transaction
		categories   []domain.Category
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		transactions, err = s.records.ListTransactions(gctx, userID, period)
		return err
	})
	g.Go(func() error {
		if cached, ok := s.catCache.Get(userID); ok {
			s.metrics.IncrCacheHit("categories")
			categories = cached
			return nil
		}
		s.metrics.IncrCacheMiss("categories")
		var err error
		categories, err = s.records.ListCategories(gctx, userID)
		if err == nil {
			s.catCache.Set(userID, categories)
		}
		return err
	})
	if err := g.Wait(); err != nil {
		var external *domain.ErrExternalService
		if errors.As(err, &external) {
			s.metrics.IncrExternalError(external.Service)
		}
		return nil, nil, err
	}
	return transactions, categories, nil
}

// GetBudgetReport aggregates one period and evaluates it against the
// current category limits.
func (s *ReportService) GetBudgetReport(ctx context.Context, userID string, period domain.Period) (*domain.BudgetReport, error) {
	ctx, span := reportTracer.Start(ctx, "ReportService.GetBudgetReport")
	defer span.End()
	span.SetAttributes(attribute.String("period", period.String()))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("budget_report", time.Since(start)) }()

	transactions, categories, err := s.snapshot(ctx, userID, period)
	if err != nil {
		return nil, err
	}

	totals := budget.Aggregate(transactions, period)
	report := budget.Evaluate(totals, categories)
	s.metrics.IncrReportComputed()
	return &report, nil
}

// GetDashboard builds the full dashboard payload for a period: totals,
// budget report, alerts and closure state. today is explicit so the
// calendar-dependent alert rules stay replayable.
func (s *ReportService) GetDashboard(ctx context.Context, userID string, period domain.Period, today time.Time) (*Dashboard, error) {
	ctx, span := reportTracer.Start(ctx, "ReportService.GetDashboard")
	defer span.End()
	span.SetAttributes(attribute.String("period", period.String()))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("dashboard", time.Since(start)) }()

	transactions, categories, err := s.snapshot(ctx, userID, period)
	if err != nil {
		return nil, err
	}
	closed, err := s.closure.IsClosed(ctx, userID, period)
	if err != nil {
		return nil, err
	}

	totals := budget.Aggregate(transactions, period)
	report := budget.Evaluate(totals, categories)
	alerts := budget.GenerateAlerts(report, today, period)
	s.metrics.IncrReportComputed()
	for _, a := range alerts {
		s.metrics.IncrAlertGenerated(string(a.Severity))
	}

	return &Dashboard{
		Period: period,
		Closed: closed,
		Totals: totals,
		Report: report,
		Alerts: alerts,
		AsOf:   today,
	}, nil
}

// GetMonthlyTrend aggregates each month between from and to into an
// income/expense/balance series for the reports view.
func (s *ReportService) GetMonthlyTrend(ctx context.Context, userID string, from, to domain.Period) ([]domain.MonthlyTrendPoint, error) {
	ctx, span := reportTracer.Start(ctx, "ReportService.GetMonthlyTrend")
	defer span.End()

	if to.Before(from) {
		return nil, &domain.ErrValidation{Field: "period", Message: "'from' must not be after 'to'"}
	}

	var points []domain.MonthlyTrendPoint
	for p := from; !to.Before(p); p = p.Next() {
		transactions, err := s.records.ListTransactions(ctx, userID, p)
		if err != nil {
			return nil, err
		}
		closed, err := s.closure.IsClosed(ctx, userID, p)
		if err != nil {
			return nil, err
		}
		totals := budget.Aggregate(transactions, p)
		points = append(points, domain.MonthlyTrendPoint{
			Period:       p,
			Income:       domain.CentsToFloat(totals.IncomeCents),
			Expenses:     domain.CentsToFloat(totals.ExpenseCents),
			Balance:      domain.CentsToFloat(totals.IncomeCents - totals.ExpenseCents),
			PeriodClosed: closed,
		})
	}
	return points, nil
}
