package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dvloznov/family-budget/internal/domain"
)

// sessionTTL mirrors the hosted store's week-long session tokens.
const sessionTTL = 7 * 24 * time.Hour

func (s *Storage) CreateSession(ctx context.Context, userID, email string) (string, error) {
	token := uuid.NewString()
	_, err := s.db.Exec(ctx, `
		INSERT INTO sessions (token, user_id, email, expires_at)
		VALUES ($1, $2, $3, $4)
	`, token, userID, email, time.Now().UTC().Add(sessionTTL))
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return token, nil
}

// GetSession returns nil for a missing token and for an expired one; expiry
// is checked here rather than left to the caller.
func (s *Storage) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	var sess domain.Session
	err := s.db.QueryRow(ctx, `
		SELECT token, user_id, email, expires_at FROM sessions WHERE token = $1
	`, token).Scan(&sess.Token, &sess.UserID, &sess.Email, &sess.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !sess.ExpiresAt.After(time.Now().UTC()) {
		return nil, nil
	}
	return &sess, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Storage) CleanupExpiredSessions(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`); err != nil {
		return fmt.Errorf("cleanup sessions: %w", err)
	}
	return nil
}
