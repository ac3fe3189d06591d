package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/domain"
	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Transações — /v1/transactions
// ============================================================

// transactionBody is the write contract. Amounts arrive in reais and are
// converted to cents at the boundary; everything past this point is integer.
type transactionBody struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Kind        string  `json:"kind"`
	CategoryID  string  `json:"categoryId,omitempty"`
	OccurredOn  string  `json:"occurredOn"` // YYYY-MM-DD
}

type transactionResponse struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	AmountCents int64   `json:"amountCents"`
	Kind        string  `json:"kind"`
	CategoryID  string  `json:"categoryId,omitempty"`
	OccurredOn  string  `json:"occurredOn"`
	CreatedAt   string  `json:"createdAt"`
}

func toTransactionResponse(tx *domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Description: tx.Description,
		Amount:      domain.CentsToFloat(tx.AmountCents),
		AmountCents: tx.AmountCents,
		Kind:        string(tx.Kind),
		CategoryID:  tx.CategoryID,
		OccurredOn:  tx.OccurredOn.Format("2006-01-02"),
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
	}
}

func (b transactionBody) toDomain(userID string) (*domain.Transaction, error) {
	occurred, err := time.Parse("2006-01-02", b.OccurredOn)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "occurredOn", Message: "Data deve estar no formato YYYY-MM-DD"}
	}
	return &domain.Transaction{
		UserID:      userID,
		Description: b.Description,
		AmountCents: domain.CentsFromFloat(b.Amount),
		Kind:        domain.TransactionKind(b.Kind),
		CategoryID:  b.CategoryID,
		OccurredOn:  occurred,
	}, nil
}

func listTransactionsHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions")
		defer span.End()

		userID := UserIDFromContext(ctx)
		period, err := periodFromQuery(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("period", period.String()))

		txs, err := svc.List(ctx, userID, period)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		resp := make([]transactionResponse, 0, len(txs))
		for i := range txs {
			resp = append(resp, toTransactionResponse(&txs[i]))
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"period":       period,
			"transactions": resp,
		})
	}
}

func createTransactionHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions")
		defer span.End()

		userID := UserIDFromContext(ctx)

		var body transactionBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		tx, err := body.toDomain(userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		created, err := svc.Create(ctx, userID, tx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, toTransactionResponse(created))
	}
}

func updateTransactionHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/transactions/{transactionId}")
		defer span.End()

		userID := UserIDFromContext(ctx)
		transactionID := chi.URLParam(r, "transactionId")

		var body transactionBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		tx, err := body.toDomain(userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		tx.ID = transactionID

		updated, err := svc.Update(ctx, userID, tx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, toTransactionResponse(updated))
	}
}

func deleteTransactionHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/transactions/{transactionId}")
		defer span.End()

		userID := UserIDFromContext(ctx)
		transactionID := chi.URLParam(r, "transactionId")

		if err := svc.Delete(ctx, userID, transactionID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
