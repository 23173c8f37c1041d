package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// RegisterRequest holds the public student registration payload.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	StudentID string `json:"studentId" validate:"required"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	IP       string `json:"-"`
}

// AuthResponse returns the authenticated user and the access token. The
// refresh token never appears in the body; it travels in an httpOnly cookie.
type AuthResponse struct {
	User        UserPublic `json:"user"`
	AccessToken string     `json:"accessToken"`
}

// RefreshResponse returns a freshly minted access token.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// CreateAdminRequest is the super-admin payload for provisioning an admin.
type CreateAdminRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

// UpdateRoleRequest changes a user's role assignment.
type UpdateRoleRequest struct {
	Role UserRole `json:"role" validate:"required"`
}

// AccessClaims is the JWT payload for access tokens.
type AccessClaims struct {
	UserID string   `json:"userId"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims is the JWT payload for refresh tokens. TokenType must equal
// "refresh"; the verifier rejects anything else so an access token can never
// be replayed on the refresh path.
type RefreshClaims struct {
	UserID    string `json:"userId"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// RefreshTokenType is the required value of RefreshClaims.TokenType.
const RefreshTokenType = "refresh"
