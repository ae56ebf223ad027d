// Package storage defines the keyed record operations the rest of the system
// consumes. The core parser and aggregator never touch these; only the
// handler and CLI layers do.
package storage

import (
	"context"

	"github.com/dvloznov/family-budget/internal/domain"
)

// CategoryStore covers the categories table.
type CategoryStore interface {
	// ListCategories returns all categories ordered by monthly budget,
	// largest first.
	ListCategories(ctx context.Context) ([]domain.Category, error)

	InsertCategory(ctx context.Context, name string, monthlyBudget float64, isFixed bool) (string, error)
	UpdateCategoryBudget(ctx context.Context, id string, monthlyBudget float64) error
	UpdateCategoryBudgetByName(ctx context.Context, name string, monthlyBudget float64) error

	// DeleteCategory removes a category after nulling the category_id of any
	// referencing transactions. Transactions are never cascade-deleted.
	DeleteCategory(ctx context.Context, id string) error

	// DeleteCategoryByName resolves the name to an id and deletes. Returns
	// false when no category carries that name.
	DeleteCategoryByName(ctx context.Context, name string) (bool, error)
}

// TransactionStore covers the transactions table.
type TransactionStore interface {
	InsertTransaction(ctx context.Context, tx *domain.Transaction) (string, error)
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	// ListMonthTransactions returns transactions with date in
	// [year-month-01, first of next month), newest first. An empty userID
	// returns all users.
	ListMonthTransactions(ctx context.Context, year, month int, userID string) ([]domain.Transaction, error)

	// ListRecentTransactions returns the owner's latest transactions by date
	// descending, capped at limit.
	ListRecentTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error)
}

// ProfileStore covers the profiles table.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	CreateProfile(ctx context.Context, userID, displayName string) error
	UpdateProfile(ctx context.Context, userID, displayName string) error
	ListProfiles(ctx context.Context) ([]domain.Profile, error)
}

// SessionStore covers the sessions table.
type SessionStore interface {
	CreateSession(ctx context.Context, userID, email string) (string, error)

	// GetSession returns nil for a missing or expired token.
	GetSession(ctx context.Context, token string) (*domain.Session, error)

	DeleteSession(ctx context.Context, token string) error
	CleanupExpiredSessions(ctx context.Context) error
}

// Store is the full storage collaborator.
type Store interface {
	CategoryStore
	TransactionStore
	ProfileStore
	SessionStore
}
