package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/uniboard/uniboard-api/internal/models"
	"github.com/uniboard/uniboard-api/pkg/config"
	appErrors "github.com/uniboard/uniboard-api/pkg/errors"
)

// TokenService issues and verifies the two token classes. Access and refresh
// tokens are signed with distinct HS256 secrets, so neither class can be
// forged from a compromise of the other, and the refresh payload carries an
// explicit type discriminator on top of that.
type TokenService struct {
	cfg config.JWTConfig
}

// NewTokenService constructs a TokenService from immutable configuration.
func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{cfg: cfg}
}

// AccessTokenTTL exposes the configured access token lifetime.
func (s *TokenService) AccessTokenTTL() time.Duration {
	return s.cfg.AccessExpiry
}

// RefreshTokenTTL exposes the configured refresh token lifetime.
func (s *TokenService) RefreshTokenTTL() time.Duration {
	return s.cfg.RefreshExpiry
}

// IssueAccessToken signs a short-lived token carrying identity and role
// claims. exp is always iat + configured TTL.
func (s *TokenService) IssueAccessToken(user *models.User) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.AccessClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   user.ID,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.cfg.AccessExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.AccessSecret))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign access token")
	}
	return signed, nil
}

// IssueRefreshToken signs a long-lived token that references the user only.
// It carries no role claims; the refresh path reloads the account anyway.
func (s *TokenService) IssueRefreshToken(userID string) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.RefreshClaims{
		UserID:    userID,
		TokenType: models.RefreshTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.cfg.RefreshExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.RefreshSecret))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign refresh token")
	}
	return signed, nil
}

// VerifyAccessToken validates signature, expiry, issuer and audience and
// returns the decoded claims. A refresh token fails here because it is
// signed with the other secret.
func (s *TokenService) VerifyAccessToken(tokenString string) (*models.AccessClaims, error) {
	claims := &models.AccessClaims{}
	if err := s.parse(tokenString, claims, s.cfg.AccessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefreshToken validates a refresh token and returns the owning user
// id. Tokens whose type discriminator is not "refresh" are rejected even
// when the signature checks out.
func (s *TokenService) VerifyRefreshToken(tokenString string) (string, error) {
	claims := &models.RefreshClaims{}
	if err := s.parse(tokenString, claims, s.cfg.RefreshSecret); err != nil {
		return "", err
	}
	if claims.TokenType != models.RefreshTokenType {
		return "", appErrors.Clone(appErrors.ErrInvalidToken, "Invalid token type")
	}
	return claims.UserID, nil
}

func (s *TokenService) parse(tokenString string, claims jwt.Claims, secret string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return appErrors.ErrTokenExpired
		}
		return appErrors.Wrap(err, appErrors.ErrInvalidToken.Code, appErrors.ErrInvalidToken.Status, appErrors.ErrInvalidToken.Message)
	}
	if !token.Valid {
		return appErrors.ErrInvalidToken
	}
	return nil
}

// ExtractBearer parses an "Authorization: Bearer <token>" header. A missing
// or malformed header is not an error; whether authentication is required
// stays the caller's decision.
func ExtractBearer(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// HashToken digests a signed token for storage. Only the digest is ever
// persisted, so a leaked refresh_tokens table cannot be replayed.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
