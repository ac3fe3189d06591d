package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/domain"
	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/infra/observability"
	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Relatórios — dashboard, orçamento, tendência
// ============================================================

const defaultTrendMonths = 6

func getDashboardHandler(svc *service.ReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard")
		defer span.End()

		userID := UserIDFromContext(ctx)
		period, err := periodFromQuery(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("period", period.String()))

		dash, err := svc.GetDashboard(ctx, userID, period, time.Now())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, dash)
	}
}

func getBudgetReportHandler(svc *service.ReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/budget/report")
		defer span.End()

		userID := UserIDFromContext(ctx)
		period, err := periodFromQuery(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("period", period.String()))

		report, err := svc.GetBudgetReport(ctx, userID, period)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// getMonthlyTrendHandler returns the last N months of income/expense
// balance, ending at the requested period (current month by default).
func getMonthlyTrendHandler(svc *service.ReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/trend")
		defer span.End()

		userID := UserIDFromContext(ctx)
		to, err := periodFromQuery(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		months := defaultTrendMonths
		if v := r.URL.Query().Get("months"); v != "" {
			if m, err := strconv.Atoi(v); err == nil && m > 0 && m <= 24 {
				months = m
			}
		}
		from := domain.PeriodOf(to.Start().AddDate(0, -(months - 1), 0))

		points, err := svc.GetMonthlyTrend(ctx, userID, from, to)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"trend": points})
	}
}

func engineMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetEngineSnapshot())
	}
}
