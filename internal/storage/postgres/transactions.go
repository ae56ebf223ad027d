package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/family-budget/internal/domain"
)

func (s *Storage) InsertTransaction(ctx context.Context, tx *domain.Transaction) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(ctx, `
		INSERT INTO transactions (id, user_id, amount, description, category_id, date, is_annie_related)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, tx.UserID, tx.Amount, tx.Description, tx.CategoryID, tx.Date, tx.IsAnnieRelated)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

func (s *Storage) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	cmd, err := s.db.Exec(ctx, `
		UPDATE transactions
		SET amount = $1, description = $2, category_id = $3, date = $4, is_annie_related = $5
		WHERE id = $6
	`, tx.Amount, tx.Description, tx.CategoryID, tx.Date, tx.IsAnnieRelated, tx.ID)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", tx.ID, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s not found", tx.ID)
	}
	return nil
}

func (s *Storage) DeleteTransaction(ctx context.Context, id string) error {
	cmd, err := s.db.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s not found", id)
	}
	return nil
}

// ListMonthTransactions queries the half-open month window
// [year-month-01, first of next month).
func (s *Storage) ListMonthTransactions(ctx context.Context, year, month int, userID string) ([]domain.Transaction, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	query := `
		SELECT id, user_id, amount, description, category_id, date, is_annie_related
		FROM transactions
		WHERE date >= $1 AND date < $2
	`
	args := []interface{}{start, end}
	if userID != "" {
		query += ` AND user_id = $3`
		args = append(args, userID)
	}
	query += ` ORDER BY date DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query month transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func (s *Storage) ListRecentTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, amount, description, category_id, date, is_annie_related
		FROM transactions
		WHERE user_id = $1
		ORDER BY date DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTransactions(rows pgxRows) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.Description, &tx.CategoryID, &tx.Date, &tx.IsAnnieRelated); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
