package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// periodFromQuery reads ?period=YYYY-MM, defaulting to the current month.
func periodFromQuery(r *http.Request) (domain.Period, error) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		return domain.PeriodOf(time.Now()), nil
	}
	return domain.ParsePeriod(raw)
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var periodClosed *domain.ErrPeriodClosed
	var alreadyClosed *domain.ErrAlreadyClosed
	var conflict *domain.ErrConflict
	var unauthorized *domain.ErrUnauthorized

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &periodClosed):
		logger.Debug("mutation on closed period", zap.String("period", periodClosed.Period.String()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &alreadyClosed):
		logger.Debug("duplicate closure", zap.String("period", alreadyClosed.Period.String()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
