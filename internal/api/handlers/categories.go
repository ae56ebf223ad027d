package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/family-budget/internal/api/middleware"
	"github.com/dvloznov/family-budget/internal/cache"
	"github.com/dvloznov/family-budget/internal/parser"
	"github.com/dvloznov/family-budget/internal/storage"
)

// CategoriesHandler handles category-related endpoints.
type CategoriesHandler struct {
	catalog *catalog
	log     zerolog.Logger
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(store storage.Store, c *cache.Cache, log zerolog.Logger) *CategoriesHandler {
	return &CategoriesHandler{
		catalog: &catalog{store: store, cache: c},
		log:     log,
	}
}

// ListCategories handles GET /api/categories
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.categories(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

type categoryRequest struct {
	Name          string  `json:"name"`
	MonthlyBudget float64 `json:"monthly_budget"`
	IsFixed       bool    `json:"is_fixed"`
}

// CreateCategory handles POST /api/categories
func (h *CategoriesHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.MonthlyBudget < 0 {
		middleware.WriteError(w, http.StatusBadRequest, "monthly_budget must be non-negative")
		return
	}

	id, err := h.catalog.store.InsertCategory(ctx, strings.TrimSpace(req.Name), req.MonthlyBudget, req.IsFixed)
	if err != nil {
		h.log.Error().Err(err).Str("name", req.Name).Msg("Failed to create category")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}
	h.catalog.invalidate()

	middleware.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// UpdateCategory handles PUT /api/categories/{id}
func (h *CategoriesHandler) UpdateCategory(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.MonthlyBudget < 0 {
		middleware.WriteError(w, http.StatusBadRequest, "monthly_budget must be non-negative")
		return
	}

	if err := h.catalog.store.UpdateCategoryBudget(ctx, id, req.MonthlyBudget); err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to update category")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update category")
		return
	}
	h.catalog.invalidate()

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}

// DeleteCategory handles DELETE /api/categories/{id}. Referencing
// transactions are unlinked, never deleted.
func (h *CategoriesHandler) DeleteCategory(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.catalog.store.DeleteCategory(r.Context(), id); err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to delete category")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete category")
		return
	}
	h.catalog.invalidate()

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}

// ApplyCommand handles POST /api/categories/command: a CategoryCommand the
// user confirmed in the review step. Add and update take the parsed budget
// (zero when absent); remove resolves by name.
func (h *CategoriesHandler) ApplyCommand(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var cmd parser.CategoryCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Category name is required")
		return
	}

	var budget float64
	if cmd.Budget != nil {
		budget = *cmd.Budget
	}

	switch cmd.Action {
	case parser.ActionAdd:
		id, err := h.catalog.store.InsertCategory(ctx, name, budget, false)
		if err != nil {
			h.log.Error().Err(err).Str("name", name).Msg("Failed to add category")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to add category")
			return
		}
		h.catalog.invalidate()
		middleware.WriteJSON(w, http.StatusCreated, map[string]string{
			"id":      id,
			"message": fmt.Sprintf("Added category: %s", name),
		})

	case parser.ActionUpdate:
		if err := h.catalog.store.UpdateCategoryBudgetByName(ctx, name, budget); err != nil {
			h.log.Error().Err(err).Str("name", name).Msg("Failed to update category")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to update category")
			return
		}
		h.catalog.invalidate()
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"message": fmt.Sprintf("Updated %s budget to %.0f", name, budget),
		})

	case parser.ActionRemove:
		found, err := h.catalog.store.DeleteCategoryByName(ctx, name)
		if err != nil {
			h.log.Error().Err(err).Str("name", name).Msg("Failed to remove category")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to remove category")
			return
		}
		if !found {
			middleware.WriteError(w, http.StatusNotFound, fmt.Sprintf("Category '%s' not found", name))
			return
		}
		h.catalog.invalidate()
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"message": fmt.Sprintf("Removed category: %s", name),
		})

	default:
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Unknown category action: %s", cmd.Action))
	}
}
