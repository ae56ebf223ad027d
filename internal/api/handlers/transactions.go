package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/family-budget/internal/api/middleware"
	"github.com/dvloznov/family-budget/internal/cache"
	"github.com/dvloznov/family-budget/internal/domain"
	"github.com/dvloznov/family-budget/internal/storage"
)

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	catalog *catalog
	log     zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(store storage.Store, c *cache.Cache, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		catalog: &catalog{store: store, cache: c},
		log:     log,
	}
}

// monthFromQuery reads year/month query parameters, defaulting to the
// current month.
func monthFromQuery(r *http.Request) (int, int, bool) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	query := r.URL.Query()
	if y := query.Get("year"); y != "" {
		v, err := strconv.Atoi(y)
		if err != nil {
			return 0, 0, false
		}
		year = v
	}
	if m := query.Get("month"); m != "" {
		v, err := strconv.Atoi(m)
		if err != nil || v < 1 || v > 12 {
			return 0, 0, false
		}
		month = v
	}
	return year, month, true
}

// ListTransactions handles GET /api/transactions?year=&month=&user_id=
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	year, month, ok := monthFromQuery(r)
	if !ok {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid year or month")
		return
	}

	userID := r.URL.Query().Get("user_id")

	var txs []domain.Transaction
	var err error
	if userID == "" {
		// All-user month view goes through the cache; it backs the budget
		// burn-down as well.
		txs, err = h.catalog.monthTransactions(ctx, year, month)
	} else {
		txs, err = h.catalog.store.ListMonthTransactions(ctx, year, month, userID)
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	if txs == nil {
		txs = []domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, txs)
}

// RecentTransactions handles GET /api/transactions/recent?user_id=&limit=
func (h *TransactionsHandler) RecentTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}

	txs, err := h.catalog.store.ListRecentTransactions(ctx, userID, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query recent transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query recent transactions")
		return
	}

	if txs == nil {
		txs = []domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, txs)
}

type transactionRequest struct {
	UserID         string  `json:"user_id"`
	Amount         float64 `json:"amount"`
	Description    string  `json:"description"`
	CategoryID     *string `json:"category_id,omitempty"`
	Date           *string `json:"date,omitempty"`
	IsAnnieRelated bool    `json:"is_annie_related"`
}

func (req *transactionRequest) toDomain() (*domain.Transaction, error) {
	// A null date means the user confirmed without one: default to today.
	date := time.Now().UTC().Truncate(24 * time.Hour)
	if req.Date != nil {
		parsed, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return nil, err
		}
		date = parsed
	}

	return &domain.Transaction{
		UserID:         req.UserID,
		Amount:         req.Amount,
		Description:    req.Description,
		CategoryID:     req.CategoryID,
		Date:           date,
		IsAnnieRelated: req.IsAnnieRelated,
	}, nil
}

// CreateTransaction handles POST /api/transactions: a confirmed
// ExpenseCommand with the category already resolved to an id by the client.
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.Amount < 0 {
		middleware.WriteError(w, http.StatusBadRequest, "amount must be non-negative")
		return
	}

	tx, err := req.toDomain()
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
		return
	}

	id, err := h.catalog.store.InsertTransaction(ctx, tx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to insert transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save transaction")
		return
	}
	h.catalog.invalidate()

	middleware.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// UpdateTransaction handles PUT /api/transactions/{id}
func (h *TransactionsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Amount < 0 {
		middleware.WriteError(w, http.StatusBadRequest, "amount must be non-negative")
		return
	}

	tx, err := req.toDomain()
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
		return
	}
	tx.ID = id

	if err := h.catalog.store.UpdateTransaction(ctx, tx); err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to update transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update transaction")
		return
	}
	h.catalog.invalidate()

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.catalog.store.DeleteTransaction(r.Context(), id); err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to delete transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete transaction")
		return
	}
	h.catalog.invalidate()

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}
