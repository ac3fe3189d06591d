package handler

import (
	"net/http"
	"time"

	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/domain"
	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Fechamento mensal — /v1/periods
// ============================================================

type closureResponse struct {
	ID            string  `json:"id"`
	Period        string  `json:"period"`
	TotalIncome   float64 `json:"totalIncome"`
	TotalExpenses float64 `json:"totalExpenses"`
	ClosedAt      string  `json:"closedAt"`
}

func toClosureResponse(rec *domain.ClosureRecord) closureResponse {
	return closureResponse{
		ID:            rec.ID,
		Period:        rec.Period.String(),
		TotalIncome:   domain.CentsToFloat(rec.TotalIncomeCents),
		TotalExpenses: domain.CentsToFloat(rec.TotalExpensesCents),
		ClosedAt:      rec.ClosedAt.Format(time.RFC3339),
	}
}

func periodFromURL(r *http.Request) (domain.Period, error) {
	return domain.ParsePeriod(chi.URLParam(r, "period"))
}

// listPeriodsHandler returns closure status for the last 12 months.
func listPeriodsHandler(svc *service.ClosureService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/periods")
		defer span.End()

		userID := UserIDFromContext(ctx)
		to := domain.PeriodOf(time.Now())
		from := domain.PeriodOf(to.Start().AddDate(0, -11, 0))

		statuses, err := svc.ListPeriodStatuses(ctx, userID, from, to)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"periods": statuses})
	}
}

func getPeriodHandler(svc *service.ClosureService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/periods/{period}")
		defer span.End()

		userID := UserIDFromContext(ctx)
		period, err := periodFromURL(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("period", period.String()))

		rec, err := svc.GetClosureRecord(ctx, userID, period)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, toClosureResponse(rec))
	}
}

func closePeriodHandler(svc *service.ClosureService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/periods/{period}/close")
		defer span.End()

		userID := UserIDFromContext(ctx)
		period, err := periodFromURL(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("period", period.String()))

		rec, err := svc.ClosePeriod(ctx, userID, period)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, toClosureResponse(rec))
	}
}

func reopenPeriodHandler(svc *service.ClosureService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/periods/{period}/close")
		defer span.End()

		userID := UserIDFromContext(ctx)
		period, err := periodFromURL(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("period", period.String()))

		if err := svc.Reopen(ctx, userID, period); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
