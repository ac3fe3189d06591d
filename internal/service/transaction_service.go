package service

import (
	"context"
	"strings"
	"time"

	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/domain"
	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/infra/observability"
	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var txTracer = otel.Tracer("service/transaction")

const maxDescriptionLen = 200

// TransactionService handles transaction CRUD. Every mutation runs inside
// the closure guard (check and write under the period lock), so a closed
// month can never be edited through this path — not even by a write racing
// the closure itself.
type TransactionService struct {
	store   port.RecordStore
	closure *ClosureService
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewTransactionService creates a new transaction service.
func NewTransactionService(store port.RecordStore, closure *ClosureService, metrics *observability.Metrics, logger *zap.Logger) *TransactionService {
	return &TransactionService{store: store, closure: closure, metrics: metrics, logger: logger}
}

// List returns the transactions of one period.
func (s *TransactionService) List(ctx context.Context, userID string, period domain.Period) ([]domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionService.List")
	defer span.End()
	span.SetAttributes(attribute.String("period", period.String()))

	return s.store.ListTransactions(ctx, userID, period)
}

// Create validates and stores a new transaction, rejecting it with
// ErrPeriodClosed when it is dated inside a closed period.
func (s *TransactionService) Create(ctx context.Context, userID string, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionService.Create")
	defer span.End()

	if err := validateTransaction(tx); err != nil {
		return nil, err
	}

	tx.ID = uuid.New().String()
	tx.UserID = userID
	tx.CreatedAt = time.Now().UTC()

	var created *domain.Transaction
	err := s.closure.GuardMutation(ctx, userID, []time.Time{tx.OccurredOn}, func(ctx context.Context) error {
		var err error
		created, err = s.store.CreateTransaction(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transaction created",
		zap.String("user_id", userID),
		zap.String("transaction_id", created.ID),
		zap.String("kind", string(created.Kind)),
		zap.Int64("amount_cents", created.AmountCents),
	)
	return created, nil
}

// Update replaces a transaction's mutable view. Both the stored date and
// the new date must be in open periods: moving a transaction into or out
// of a closed month is a mutation of that month.
func (s *TransactionService) Update(ctx context.Context, userID string, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionService.Update")
	defer span.End()

	if tx.ID == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "required"}
	}
	if err := validateTransaction(tx); err != nil {
		return nil, err
	}

	existing, err := s.store.GetTransaction(ctx, userID, tx.ID)
	if err != nil {
		return nil, err
	}

	tx.UserID = userID
	tx.CreatedAt = existing.CreatedAt

	var updated *domain.Transaction
	err = s.closure.GuardMutation(ctx, userID, []time.Time{existing.OccurredOn, tx.OccurredOn}, func(ctx context.Context) error {
		var err error
		updated, err = s.store.UpdateTransaction(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a transaction unless its period is closed.
func (s *TransactionService) Delete(ctx context.Context, userID, transactionID string) error {
	ctx, span := txTracer.Start(ctx, "TransactionService.Delete")
	defer span.End()

	existing, err := s.store.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		return err
	}
	err = s.closure.GuardMutation(ctx, userID, []time.Time{existing.OccurredOn}, func(ctx context.Context) error {
		return s.store.DeleteTransaction(ctx, userID, transactionID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("transaction deleted",
		zap.String("user_id", userID),
		zap.String("transaction_id", transactionID),
	)
	return nil
}

func validateTransaction(tx *domain.Transaction) error {
	if strings.TrimSpace(tx.Description) == "" {
		return &domain.ErrValidation{Field: "description", Message: "required"}
	}
	if len(tx.Description) > maxDescriptionLen {
		return &domain.ErrValidation{Field: "description", Message: "too long (max 200 characters)"}
	}
	if tx.AmountCents < 0 {
		return &domain.ErrValidation{Field: "amount", Message: "must not be negative"}
	}
	if !tx.Kind.Valid() {
		return &domain.ErrValidation{Field: "kind", Message: "must be income or expense"}
	}
	if tx.OccurredOn.IsZero() {
		return &domain.ErrValidation{Field: "occurred_on", Message: "required"}
	}
	return nil
}
