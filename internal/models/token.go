package models

import "time"

// RefreshToken represents a persisted refresh-token session. The token value
// itself is never stored; TokenHash is a SHA-256 digest of the signed JWT.
// At most one live row exists per user.
type RefreshToken struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	TokenHash string    `db:"token_hash" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
