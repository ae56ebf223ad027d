package domain

import (
	"time"
)

// Category is a monthly spending envelope. Name is unique among active
// categories. IsFixed marks recurring fixed costs (rent, utilities) that the
// UI renders as paid/pending instead of a burn-down bar; the arithmetic is
// identical either way.
type Category struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	MonthlyBudget float64 `json:"monthly_budget"`
	IsFixed       bool    `json:"is_fixed"`
}

// Transaction is one logged expense. CategoryID is nil for uncategorized
// spend; a dangling reference is tolerated and rendered as uncategorized.
type Transaction struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Amount         float64   `json:"amount"`
	Description    string    `json:"description"`
	CategoryID     *string   `json:"category_id,omitempty"`
	Date           time.Time `json:"date"`
	IsAnnieRelated bool      `json:"is_annie_related"`
}

// Profile identifies a household member who owns transactions.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Session is a login token record. Expiry is enforced on read.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}
