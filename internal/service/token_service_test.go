package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniboard/uniboard-api/internal/models"
	appErrors "github.com/uniboard/uniboard-api/pkg/errors"
)

func testTokenUser() *models.User {
	return &models.User{
		ID:    "user-1",
		Email: "ada@university.edu",
		Role:  models.RoleAdmin,
	}
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	svc := NewTokenService(testJWTConfig())

	token, err := svc.IssueAccessToken(testTokenUser())
	require.NoError(t, err)

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ada@university.edu", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "uniboard-api", claims.Issuer)
	assert.Contains(t, claims.Audience, "uniboard-client")
}

func TestIssueAndVerifyRefreshToken(t *testing.T) {
	svc := NewTokenService(testJWTConfig())

	token, err := svc.IssueRefreshToken("user-1")
	require.NoError(t, err)

	userID, err := svc.VerifyRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestTokenClassesAreNotInterchangeable(t *testing.T) {
	svc := NewTokenService(testJWTConfig())

	accessToken, err := svc.IssueAccessToken(testTokenUser())
	require.NoError(t, err)
	refreshToken, err := svc.IssueRefreshToken("user-1")
	require.NoError(t, err)

	_, err = svc.VerifyRefreshToken(accessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidToken.Code, appErrors.FromError(err).Code)

	_, err = svc.VerifyAccessToken(refreshToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidToken.Code, appErrors.FromError(err).Code)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	svc := NewTokenService(testJWTConfig())

	token, err := svc.IssueAccessToken(testTokenUser())
	require.NoError(t, err)

	tampered := token[:len(token)-4] + "AAAA"
	_, err = svc.VerifyAccessToken(tampered)
	require.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	cfg.AccessExpiry = -time.Minute
	svc := NewTokenService(cfg)

	token, err := svc.IssueAccessToken(testTokenUser())
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTokenExpired.Code, appErrors.FromError(err).Code)
}

func TestVerifyRejectsWrongIssuerAndAudience(t *testing.T) {
	other := testJWTConfig()
	other.Issuer = "someone-else"
	foreign, err := NewTokenService(other).IssueAccessToken(testTokenUser())
	require.NoError(t, err)

	svc := NewTokenService(testJWTConfig())
	_, err = svc.VerifyAccessToken(foreign)
	require.Error(t, err)
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	claims := &models.AccessClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "uniboard-api",
			Audience:  jwt.ClaimStrings{"uniboard-client"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	svc := NewTokenService(testJWTConfig())
	_, err = svc.VerifyAccessToken(unsigned)
	require.Error(t, err)
}

func TestVerifyRefreshRejectsForgedTypeClaim(t *testing.T) {
	cfg := testJWTConfig()
	claims := &models.RefreshClaims{
		UserID:    "user-1",
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.RefreshSecret))
	require.NoError(t, err)

	_, err = NewTokenService(cfg).VerifyRefreshToken(forged)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidToken.Code, appErrors.FromError(err).Code)
}

func TestExtractBearer(t *testing.T) {
	cases := []struct {
		name   string
		header string
		token  string
		ok     bool
	}{
		{"well formed", "Bearer abc.def.ghi", "abc.def.ghi", true},
		{"case insensitive scheme", "bearer abc", "abc", true},
		{"missing header", "", "", false},
		{"wrong scheme", "Basic abc", "", false},
		{"no token", "Bearer ", "", false},
		{"bare token", "abc.def.ghi", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, ok := ExtractBearer(tc.header)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.token, token)
		})
	}
}

func TestHashTokenIsStableAndOpaque(t *testing.T) {
	token := "some.signed.token"

	first := HashToken(token)
	second := HashToken(token)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
	assert.NotEqual(t, first, HashToken("other.signed.token"))
}
