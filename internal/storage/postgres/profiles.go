package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dvloznov/family-budget/internal/domain"
)

func (s *Storage) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	var p domain.Profile
	err := s.db.QueryRow(ctx, `
		SELECT id, display_name FROM profiles WHERE id = $1
	`, userID).Scan(&p.ID, &p.DisplayName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}
	return &p, nil
}

func (s *Storage) CreateProfile(ctx context.Context, userID, displayName string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO profiles (id, display_name) VALUES ($1, $2)
	`, userID, displayName)
	if err != nil {
		return fmt.Errorf("create profile %s: %w", userID, err)
	}
	return nil
}

func (s *Storage) UpdateProfile(ctx context.Context, userID, displayName string) error {
	cmd, err := s.db.Exec(ctx, `
		UPDATE profiles SET display_name = $1 WHERE id = $2
	`, displayName, userID)
	if err != nil {
		return fmt.Errorf("update profile %s: %w", userID, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("profile %s not found", userID)
	}
	return nil
}

func (s *Storage) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, display_name FROM profiles ORDER BY display_name
	`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.DisplayName); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
