package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uniboard/uniboard-api/internal/models"
)

// TokenRepository persists refresh-token hashes. The store enforces the
// single-session invariant: at most one live refresh token per user.
type TokenRepository struct {
	db *sqlx.DB
}

// NewTokenRepository creates a new instance of TokenRepository.
func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Store replaces any existing refresh token for the user with a new row.
// Delete and insert run in one transaction so two concurrent logins for the
// same account cannot both leave a live token behind.
func (r *TokenRepository) Store(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin refresh token tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete prior refresh tokens: %w", err)
	}

	token := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	const insert = `INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES (:id, :user_id, :token_hash, :expires_at, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, token); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit refresh token tx: %w", err)
	}
	return nil
}

// Verify reports whether a live (unexpired) row exists for the pair. Expired
// rows that have not been purged yet read as absent.
func (r *TokenRepository) Verify(ctx context.Context, userID, tokenHash string) (bool, error) {
	const query = `SELECT COUNT(*) FROM refresh_tokens WHERE user_id = $1 AND token_hash = $2 AND expires_at > NOW()`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, tokenHash); err != nil {
		return false, fmt.Errorf("verify refresh token: %w", err)
	}
	return count > 0, nil
}

// Remove deletes the row matching the token hash. Removing a token that does
// not exist is not an error.
func (r *TokenRepository) Remove(ctx context.Context, tokenHash string) error {
	const query = `DELETE FROM refresh_tokens WHERE token_hash = $1`
	if _, err := r.db.ExecContext(ctx, query, tokenHash); err != nil {
		return fmt.Errorf("remove refresh token: %w", err)
	}
	return nil
}

// PurgeExpired deletes all expired rows and returns how many were removed.
// Safe to run repeatedly and concurrently; scheduled off the request path.
func (r *TokenRepository) PurgeExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM refresh_tokens WHERE expires_at <= NOW()`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("purge expired refresh tokens: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}
