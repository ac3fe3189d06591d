package service

import (
	"context"
	"strings"
	"time"

	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/domain"
	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var catTracer = otel.Tracer("service/category")

// CategoryService handles category CRUD. Limits may change at any time;
// reports always evaluate against current limits, so no limit history is
// kept and past alerts are never rewritten.
type CategoryService struct {
	store  port.RecordStore
	cache  port.Cache[[]domain.Category]
	logger *zap.Logger
}

// NewCategoryService creates a new category service.
func NewCategoryService(store port.RecordStore, cache port.Cache[[]domain.Category], logger *zap.Logger) *CategoryService {
	return &CategoryService{store: store, cache: cache, logger: logger}
}

// List returns the user's categories.
func (s *CategoryService) List(ctx context.Context, userID string) ([]domain.Category, error) {
	ctx, span := catTracer.Start(ctx, "CategoryService.List")
	defer span.End()

	return s.store.ListCategories(ctx, userID)
}

// Create validates and stores a new category. Names are unique per user.
func (s *CategoryService) Create(ctx context.Context, userID string, cat *domain.Category) (*domain.Category, error) {
	ctx, span := catTracer.Start(ctx, "CategoryService.Create")
	defer span.End()

	if err := validateCategory(cat); err != nil {
		return nil, err
	}
	if err := s.assertNameFree(ctx, userID, cat.Name, ""); err != nil {
		return nil, err
	}

	cat.ID = uuid.New().String()
	cat.UserID = userID
	cat.CreatedAt = time.Now().UTC()

	created, err := s.store.CreateCategory(ctx, cat)
	if err != nil {
		return nil, err
	}

	s.cache.Delete(userID)
	s.logger.Info("category created",
		zap.String("user_id", userID),
		zap.String("category_id", created.ID),
		zap.String("name", created.Name),
	)
	return created, nil
}

// Update changes a category's name, color or limit.
func (s *CategoryService) Update(ctx context.Context, userID string, cat *domain.Category) (*domain.Category, error) {
	ctx, span := catTracer.Start(ctx, "CategoryService.Update")
	defer span.End()

	if cat.ID == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "required"}
	}
	if err := validateCategory(cat); err != nil {
		return nil, err
	}
	existing, err := s.store.GetCategory(ctx, userID, cat.ID)
	if err != nil {
		return nil, err
	}
	if err := s.assertNameFree(ctx, userID, cat.Name, cat.ID); err != nil {
		return nil, err
	}

	cat.UserID = userID
	cat.CreatedAt = existing.CreatedAt
	updated, err := s.store.UpdateCategory(ctx, cat)
	if err != nil {
		return nil, err
	}

	s.cache.Delete(userID)
	if existing.MonthlyLimitCents != updated.MonthlyLimitCents {
		s.logger.Info("category limit changed",
			zap.String("user_id", userID),
			zap.String("category_id", updated.ID),
			zap.Int64("old_limit_cents", existing.MonthlyLimitCents),
			zap.Int64("new_limit_cents", updated.MonthlyLimitCents),
		)
	}
	return updated, nil
}

// Delete removes a category. Its transactions survive as uncategorized
// spend on the next aggregation.
func (s *CategoryService) Delete(ctx context.Context, userID, categoryID string) error {
	ctx, span := catTracer.Start(ctx, "CategoryService.Delete")
	defer span.End()

	if _, err := s.store.GetCategory(ctx, userID, categoryID); err != nil {
		return err
	}
	if err := s.store.DeleteCategory(ctx, userID, categoryID); err != nil {
		return err
	}
	s.cache.Delete(userID)
	return nil
}

func (s *CategoryService) assertNameFree(ctx context.Context, userID, name, selfID string) error {
	existing, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return err
	}
	for _, c := range existing {
		if c.ID != selfID && strings.EqualFold(c.Name, name) {
			return &domain.ErrConflict{Message: "Já existe uma categoria com esse nome"}
		}
	}
	return nil
}

func validateCategory(cat *domain.Category) error {
	if strings.TrimSpace(cat.Name) == "" {
		return &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if cat.MonthlyLimitCents < 0 {
		return &domain.ErrValidation{Field: "monthly_limit", Message: "must not be negative"}
	}
	return nil
}
