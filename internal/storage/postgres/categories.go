package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dvloznov/family-budget/internal/domain"
)

// ListCategories returns all categories sorted by budget descending, matching
// the burn-down view order.
func (s *Storage) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, monthly_budget, is_fixed
		FROM categories
		ORDER BY monthly_budget DESC, name
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.MonthlyBudget, &c.IsFixed); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Storage) InsertCategory(ctx context.Context, name string, monthlyBudget float64, isFixed bool) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(ctx, `
		INSERT INTO categories (id, name, monthly_budget, is_fixed)
		VALUES ($1, $2, $3, $4)
	`, id, name, monthlyBudget, isFixed)
	if err != nil {
		return "", fmt.Errorf("insert category %q: %w", name, err)
	}
	return id, nil
}

func (s *Storage) UpdateCategoryBudget(ctx context.Context, id string, monthlyBudget float64) error {
	cmd, err := s.db.Exec(ctx, `
		UPDATE categories SET monthly_budget = $1 WHERE id = $2
	`, monthlyBudget, id)
	if err != nil {
		return fmt.Errorf("update category %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("category %s not found", id)
	}
	return nil
}

func (s *Storage) UpdateCategoryBudgetByName(ctx context.Context, name string, monthlyBudget float64) error {
	cmd, err := s.db.Exec(ctx, `
		UPDATE categories SET monthly_budget = $1 WHERE name = $2
	`, monthlyBudget, name)
	if err != nil {
		return fmt.Errorf("update category %q: %w", name, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("category %q not found", name)
	}
	return nil
}

// DeleteCategory unlinks referencing transactions first, in the same
// transaction, so a failed delete never leaves orphans pointing at a missing
// category.
func (s *Storage) DeleteCategory(ctx context.Context, id string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE transactions SET category_id = NULL WHERE category_id = $1
	`, id); err != nil {
		return fmt.Errorf("unlink transactions: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM categories WHERE id = $1
	`, id); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Storage) DeleteCategoryByName(ctx context.Context, name string) (bool, error) {
	var id string
	err := s.db.QueryRow(ctx, `
		SELECT id FROM categories WHERE name = $1
	`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("find category %q: %w", name, err)
	}
	if err := s.DeleteCategory(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}
