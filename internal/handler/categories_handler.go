package handler

import (
	"encoding/json"
	"net/http"

	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/domain"
	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Categorias — /v1/categories
// ============================================================

type categoryBody struct {
	Name         string  `json:"name"`
	MonthlyLimit float64 `json:"monthlyLimit"` // reais; 0 = no limit
	ColorTag     string  `json:"colorTag,omitempty"`
}

type categoryResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	MonthlyLimit float64 `json:"monthlyLimit"`
	HasLimit     bool    `json:"hasLimit"`
	ColorTag     string  `json:"colorTag,omitempty"`
}

func toCategoryResponse(cat *domain.Category) categoryResponse {
	return categoryResponse{
		ID:           cat.ID,
		Name:         cat.Name,
		MonthlyLimit: domain.CentsToFloat(cat.MonthlyLimitCents),
		HasLimit:     cat.HasLimit(),
		ColorTag:     cat.ColorTag,
	}
}

func listCategoriesHandler(svc *service.CategoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/categories")
		defer span.End()

		userID := UserIDFromContext(ctx)
		cats, err := svc.List(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		resp := make([]categoryResponse, 0, len(cats))
		for i := range cats {
			resp = append(resp, toCategoryResponse(&cats[i]))
		}
		writeJSON(w, http.StatusOK, map[string]any{"categories": resp})
	}
}

func createCategoryHandler(svc *service.CategoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/categories")
		defer span.End()

		userID := UserIDFromContext(ctx)

		var body categoryBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		created, err := svc.Create(ctx, userID, &domain.Category{
			UserID:            userID,
			Name:              body.Name,
			MonthlyLimitCents: domain.CentsFromFloat(body.MonthlyLimit),
			ColorTag:          body.ColorTag,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, toCategoryResponse(created))
	}
}

func updateCategoryHandler(svc *service.CategoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/categories/{categoryId}")
		defer span.End()

		userID := UserIDFromContext(ctx)
		categoryID := chi.URLParam(r, "categoryId")

		var body categoryBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		updated, err := svc.Update(ctx, userID, &domain.Category{
			ID:                categoryID,
			UserID:            userID,
			Name:              body.Name,
			MonthlyLimitCents: domain.CentsFromFloat(body.MonthlyLimit),
			ColorTag:          body.ColorTag,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, toCategoryResponse(updated))
	}
}

func deleteCategoryHandler(svc *service.CategoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/categories/{categoryId}")
		defer span.End()

		userID := UserIDFromContext(ctx)
		categoryID := chi.URLParam(r, "categoryId")

		if err := svc.Delete(ctx, userID, categoryID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
