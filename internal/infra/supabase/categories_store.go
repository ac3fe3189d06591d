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
// Categories — RecordStore implementation via PostgREST
// ============================================================

// categoryRow maps the categories table columns.
type categoryRow struct {
	ID                string `json:"id"`
	UserID            string `json:"user_id"`
	Name              string `json:"name"`
	MonthlyLimitCents int64  `json:"monthly_limit_cents"`
	ColorTag          string `json:"color_tag"`
	CreatedAt         string `json:"created_at"`
}

func (r categoryRow) toDomain() domain.Category {
	created, _ := time.Parse(time.RFC3339, r.CreatedAt)
	return domain.Category{
		ID:                r.ID,
		UserID:            r.UserID,
		Name:              r.Name,
		MonthlyLimitCents: r.MonthlyLimitCents,
		ColorTag:          r.ColorTag,
		CreatedAt:         created,
	}
}

func (c *Client) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCategories")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	path := fmt.Sprintf("categories?user_id=eq.%s&order=name.asc", userID)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/categories", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return []domain.Category{}, nil
	}

	var rows []categoryRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}

	cats := make([]domain.Category, 0, len(rows))
	for _, r := range rows {
		cats = append(cats, r.toDomain())
	}
	return cats, nil
}

func (c *Client) GetCategory(ctx context.Context, userID, categoryID string) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCategory")
	defer span.End()

	path := fmt.Sprintf("categories?user_id=eq.%s&id=eq.%s&limit=1", userID, categoryID)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/categories", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return nil, &domain.ErrNotFound{Resource: "category", ID: categoryID}
	}

	var rows []categoryRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "category", ID: categoryID}
	}
	cat := rows[0].toDomain()
	return &cat, nil
}

func (c *Client) CreateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCategory")
	defer span.End()

	data := map[string]any{
		"id":                  cat.ID,
		"user_id":             cat.UserID,
		"name":                cat.Name,
		"monthly_limit_cents": cat.MonthlyLimitCents,
		"color_tag":           cat.ColorTag,
		"created_at":          cat.CreatedAt.Format(time.RFC3339),
	}

	body, err := c.doPost(ctx, "categories", data)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/categories", Err: err}
	}

	var rows []categoryRow
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return cat, nil
	}
	created := rows[0].toDomain()
	return &created, nil
}

func (c *Client) UpdateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCategory")
	defer span.End()

	updates := map[string]any{
		"name":                cat.Name,
		"monthly_limit_cents": cat.MonthlyLimitCents,
		"color_tag":           cat.ColorTag,
	}

	path := fmt.Sprintf("categories?user_id=eq.%s&id=eq.%s", cat.UserID, cat.ID)
	if err := c.doPatch(ctx, path, updates); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/categories", Err: err}
	}
	return c.GetCategory(ctx, cat.UserID, cat.ID)
}

// DeleteCategory removes the category. Transactions keep their
// category_id; the aggregator folds dangling references under the
// uncategorized key.
func (c *Client) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteCategory")
	defer span.End()

	path := fmt.Sprintf("categories?user_id=eq.%s&id=eq.%s", userID, categoryID)
	if err := c.doDelete(ctx, path); err != nil {
		return &domain.ErrExternalService{Service: "supabase/categories", Err: err}
	}
	return nil
}
