package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/moodx/internal/shared"
)

// SessionRepository stores opaque bearer tokens issued by the reference server.
type SessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

// Create issues a token for userID that expires after ttl.
func (r *SessionRepository) Create(ctx context.Context, userID string, ttl time.Duration) (string, time.Time, error) {
	token := shared.GenerateID()
	now := r.now().UTC()
	expires := now.Add(ttl)

	query := `INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, token, userID, expires, now); err != nil {
		return "", time.Time{}, mapConstraint(err, "session")
	}
	return token, expires, nil
}

// Lookup returns the owner of token.
//
// Unknown tokens fail with [shared.ErrNotAuthenticated], expired ones with [shared.ErrTokenExpired].
func (r *SessionRepository) Lookup(ctx context.Context, token string) (string, error) {
	var (
		userID  string
		expires time.Time
	)
	err := r.db.QueryRowContext(ctx, "SELECT user_id, expires_at FROM sessions WHERE token = ?", token).Scan(&userID, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: unknown token", shared.ErrNotAuthenticated)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query session: %w", err)
	}

	if !r.now().Before(expires) {
		return "", shared.ErrTokenExpired
	}
	return userID, nil
}

// Revoke deletes token. Revoking an unknown token is not an error.
func (r *SessionRepository) Revoke(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// Prune deletes expired sessions and returns how many were removed.
func (r *SessionRepository) Prune(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}
