package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/family-budget/internal/api/middleware"
	"github.com/dvloznov/family-budget/internal/budget"
	"github.com/dvloznov/family-budget/internal/cache"
	"github.com/dvloznov/family-budget/internal/storage"
)

// BudgetHandler serves the monthly budget dashboard view.
type BudgetHandler struct {
	catalog *catalog
	log     zerolog.Logger
}

// NewBudgetHandler creates a new budget handler.
func NewBudgetHandler(store storage.Store, c *cache.Cache, log zerolog.Logger) *BudgetHandler {
	return &BudgetHandler{
		catalog: &catalog{store: store, cache: c},
		log:     log,
	}
}

type budgetResponse struct {
	Year               int            `json:"year"`
	Month              int            `json:"month"`
	Summary            budget.Summary `json:"summary"`
	UncategorizedSpent float64        `json:"uncategorized_spent"`
}

// GetBudget handles GET /api/budget?year=&month=
func (h *BudgetHandler) GetBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	year, month, ok := monthFromQuery(r)
	if !ok {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid year or month")
		return
	}

	categories, err := h.catalog.categories(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load categories")
		return
	}

	txs, err := h.catalog.monthTransactions(ctx, year, month)
	if err != nil {
		h.log.Error().Err(err).Int("year", year).Int("month", month).Msg("Failed to load transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load transactions")
		return
	}

	resp := budgetResponse{
		Year:               year,
		Month:              month,
		Summary:            budget.Aggregate(categories, txs),
		UncategorizedSpent: budget.UncategorizedSpent(categories, txs),
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}
