package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// ClosureStore implementation — monthly_closures via PostgREST
// ============================================================

// closureRow maps the monthly_closures table. The table carries a
// unique constraint on (user_id, period); PostgREST answers a violation
// with 409, which SaveClosureRecord maps to ErrAlreadyClosed.
type closureRow struct {
	ID                 string `json:"id"`
	UserID             string `json:"user_id"`
	Period             string `json:"period"`
	TotalIncomeCents   int64  `json:"total_income_cents"`
	TotalExpensesCents int64  `json:"total_expenses_cents"`
	ClosedAt           string `json:"closed_at"`
}

func (r closureRow) toDomain() (domain.ClosureRecord, error) {
	period, err := domain.ParsePeriod(r.Period)
	if err != nil {
		return domain.ClosureRecord{}, fmt.Errorf("closure row %s: bad period %q", r.ID, r.Period)
	}
	closedAt, err := time.Parse(time.RFC3339, r.ClosedAt)
	if err != nil {
		return domain.ClosureRecord{}, fmt.Errorf("closure row %s: bad closed_at %q", r.ID, r.ClosedAt)
	}
	return domain.ClosureRecord{
		ID:                 r.ID,
		UserID:             r.UserID,
		Period:             period,
		TotalIncomeCents:   r.TotalIncomeCents,
		TotalExpensesCents: r.TotalExpensesCents,
		ClosedAt:           closedAt,
	}, nil
}

func (c *Client) SaveClosureRecord(ctx context.Context, rec *domain.ClosureRecord) error {
	ctx, span := tracer.Start(ctx, "Supabase.SaveClosureRecord")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", rec.UserID),
		attribute.String("period", rec.Period.String()),
	)

	data := map[string]any{
		"id":                   rec.ID,
		"user_id":              rec.UserID,
		"period":               rec.Period.String(),
		"total_income_cents":   rec.TotalIncomeCents,
		"total_expenses_cents": rec.TotalExpensesCents,
		"closed_at":            rec.ClosedAt.Format(time.RFC3339),
	}

	_, err := c.doPost(ctx, "monthly_closures", data)
	if err != nil {
		if errors.Is(err, errConflict) {
			return &domain.ErrAlreadyClosed{Period: rec.Period}
		}
		return &domain.ErrExternalService{Service: "supabase/monthly_closures", Err: err}
	}
	return nil
}

func (c *Client) LoadClosureRecord(ctx context.Context, userID string, period domain.Period) (*domain.ClosureRecord, bool, error) {
	ctx, span := tracer.Start(ctx, "Supabase.LoadClosureRecord")
	defer span.End()

	path := fmt.Sprintf("monthly_closures?user_id=eq.%s&period=eq.%s&limit=1", userID, period.String())
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, false, &domain.ErrExternalService{Service: "supabase/monthly_closures", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return nil, false, nil
	}

	var rows []closureRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, false, fmt.Errorf("decode monthly_closures: %w", err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	rec, err := rows[0].toDomain()
	if err != nil {
		return nil, false, err
	}
	return &rec, true, nil
}

func (c *Client) DeleteClosureRecord(ctx context.Context, userID string, period domain.Period) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteClosureRecord")
	defer span.End()

	path := fmt.Sprintf("monthly_closures?user_id=eq.%s&period=eq.%s", userID, period.String())
	if err := c.doDelete(ctx, path); err != nil {
		return &domain.ErrExternalService{Service: "supabase/monthly_closures", Err: err}
	}
	return nil
}

func (c *Client) ListClosureRecords(ctx context.Context, userID string) ([]domain.ClosureRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListClosureRecords")
	defer span.End()

	path := fmt.Sprintf("monthly_closures?user_id=eq.%s&order=period.asc", userID)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/monthly_closures", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return []domain.ClosureRecord{}, nil
	}

	var rows []closureRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode monthly_closures: %w", err)
	}

	recs := make([]domain.ClosureRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
