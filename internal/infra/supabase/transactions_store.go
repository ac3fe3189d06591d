package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Transactions — RecordStore implementation via PostgREST
// ============================================================

const dateLayout = "2006-01-02"

// transactionRow maps the transactions table columns.
type transactionRow struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Kind        string `json:"kind"`
	CategoryID  string `json:"category_id"`
	OccurredOn  string `json:"occurred_on"`
	CreatedAt   string `json:"created_at"`
}

func (r transactionRow) toDomain() domain.Transaction {
	occurred, _ := time.Parse(dateLayout, r.OccurredOn)
	created, _ := time.Parse(time.RFC3339, r.CreatedAt)
	return domain.Transaction{
		ID:          r.ID,
		UserID:      r.UserID,
		Description: r.Description,
		AmountCents: r.AmountCents,
		Kind:        domain.TransactionKind(r.Kind),
		CategoryID:  r.CategoryID,
		OccurredOn:  occurred,
		CreatedAt:   created,
	}
}

// ListTransactions fetches all of the user's transactions inside the
// period. PostgREST filters on the occurred_on date column.
func (c *Client) ListTransactions(ctx context.Context, userID string, period domain.Period) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactions")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("period", period.String()),
	)

	from := period.Start().Format(dateLayout)
	to := period.Next().Start().Format(dateLayout)
	path := fmt.Sprintf("transactions?user_id=eq.%s&occurred_on=gte.%s&occurred_on=lt.%s&order=occurred_on.asc",
		userID, from, to)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return []domain.Transaction{}, nil
	}

	var rows []transactionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		txs = append(txs, r.toDomain())
	}
	return txs, nil
}

func (c *Client) GetTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetTransaction")
	defer span.End()

	path := fmt.Sprintf("transactions?user_id=eq.%s&id=eq.%s&limit=1", userID, transactionID)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: transactionID}
	}

	var rows []transactionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: transactionID}
	}
	tx := rows[0].toDomain()
	return &tx, nil
}

func (c *Client) CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateTransaction")
	defer span.End()

	data := map[string]any{
		"id":           tx.ID,
		"user_id":      tx.UserID,
		"description":  tx.Description,
		"amount_cents": tx.AmountCents,
		"kind":         string(tx.Kind),
		"occurred_on":  tx.OccurredOn.Format(dateLayout),
		"created_at":   tx.CreatedAt.Format(time.RFC3339),
	}
	if tx.CategoryID != "" {
		data["category_id"] = tx.CategoryID
	}

	body, err := c.doPost(ctx, "transactions", data)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	var rows []transactionRow
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		// representation missing; echo the input
		return tx, nil
	}
	created := rows[0].toDomain()
	return &created, nil
}

func (c *Client) UpdateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateTransaction")
	defer span.End()

	updates := map[string]any{
		"description":  tx.Description,
		"amount_cents": tx.AmountCents,
		"kind":         string(tx.Kind),
		"occurred_on":  tx.OccurredOn.Format(dateLayout),
	}
	if tx.CategoryID != "" {
		updates["category_id"] = tx.CategoryID
	} else {
		updates["category_id"] = nil
	}

	path := fmt.Sprintf("transactions?user_id=eq.%s&id=eq.%s", tx.UserID, tx.ID)
	if err := c.doPatch(ctx, path, updates); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	return c.GetTransaction(ctx, tx.UserID, tx.ID)
}

func (c *Client) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteTransaction")
	defer span.End()

	path := fmt.Sprintf("transactions?user_id=eq.%s&id=eq.%s", userID, transactionID)
	if err := c.doDelete(ctx, path); err != nil {
		return &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	return nil
}
