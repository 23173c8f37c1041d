package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/uniboard/uniboard-api/internal/models"
	appErrors "github.com/uniboard/uniboard-api/pkg/errors"
)

const pqUniqueViolation = "23505"

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type refreshTokenRepository interface {
	Store(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	Verify(ctx context.Context, userID, tokenHash string) (bool, error)
	Remove(ctx context.Context, tokenHash string) error
}

// AuthService provides registration, login and token lifecycle use cases.
type AuthService struct {
	users     authUserRepository
	tokens    refreshTokenRepository
	hasher    *PasswordHasher
	issuer    *TokenService
	limiter   *LoginLimiter
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, tokens refreshTokenRepository, hasher *PasswordHasher, issuer *TokenService, limiter *LoginLimiter, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		hasher:    hasher,
		issuer:    issuer,
		limiter:   limiter,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Register creates a student account and signs the new user in. The returned
// refresh token goes into a cookie by the handler, never into the body.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, "", mapRegistrationValidation(err)
	}
	if !IsValidStudentID(req.StudentID) {
		return nil, "", appErrors.ErrInvalidStudentID
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, "", err
	}

	studentID := req.StudentID
	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         models.RoleStudent,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		StudentID:    &studentID,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if conflict := mapUniqueViolation(err); conflict != nil {
			return nil, "", conflict
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return s.signIn(ctx, user)
}

// Login authenticates credentials and issues a fresh token pair. Failures
// count against the caller's rate limit window; success resets it.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrMissingFields, "Email and password are required")
	}

	limitKey := strings.ToLower(strings.TrimSpace(req.Email))
	if s.limiter != nil && !s.limiter.Allow(ctx, limitKey) {
		s.metrics.RecordRateLimited()
		return nil, "", appErrors.ErrRateLimited
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordLoginAttempt(false)
			return nil, "", appErrors.ErrInvalidCredentials
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		s.metrics.RecordLoginAttempt(false)
		return nil, "", appErrors.ErrInvalidCredentials
	}

	if s.limiter != nil {
		s.limiter.Reset(ctx, limitKey)
	}
	s.metrics.RecordLoginAttempt(true)

	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("ip", req.IP))
	return s.signIn(ctx, user)
}

// Refresh exchanges a valid refresh token for a new access token. The refresh
// token itself is not rotated; it stays bound to the session that minted it.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.RefreshResponse, error) {
	userID, err := s.issuer.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "Invalid refresh token")
	}

	live, err := s.tokens.Verify(ctx, userID, HashToken(refreshToken))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify refresh token")
	}
	if !live {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "Invalid refresh token")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	accessToken, err := s.issuer.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTokenIssued("access")
	return &models.RefreshResponse{AccessToken: accessToken}, nil
}

// Logout invalidates the stored refresh token. Unknown tokens are not an
// error; logging out twice succeeds both times.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.tokens.Remove(ctx, HashToken(refreshToken)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove refresh token")
	}
	return nil
}

// CurrentUser loads the account behind an authenticated request.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// signIn issues the token pair for an authenticated user and persists the
// refresh token digest, displacing any previous session.
func (s *AuthService) signIn(ctx context.Context, user *models.User) (*models.AuthResponse, string, error) {
	accessToken, err := s.issuer.IssueAccessToken(user)
	if err != nil {
		return nil, "", err
	}

	refreshToken, err := s.issuer.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	expiresAt := time.Now().UTC().Add(s.issuer.RefreshTokenTTL())
	if err := s.tokens.Store(ctx, user.ID, HashToken(refreshToken), expiresAt); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist refresh token")
	}
	s.metrics.RecordTokenIssued("access")
	s.metrics.RecordTokenIssued("refresh")

	return &models.AuthResponse{User: user.Public(), AccessToken: accessToken}, refreshToken, nil
}

// mapRegistrationValidation converts validator failures into the field-level
// registration errors clients branch on.
func mapRegistrationValidation(err error) error {
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		for _, fe := range fieldErrors {
			if fe.Tag() == "required" {
				return appErrors.ErrMissingFields
			}
		}
		for _, fe := range fieldErrors {
			if fe.Tag() == "email" {
				return appErrors.ErrInvalidEmail
			}
		}
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
}

// mapUniqueViolation translates Postgres duplicate-key failures into the
// public conflict errors. Returns nil when the error is something else.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != pqUniqueViolation {
		return nil
	}
	if strings.Contains(pqErr.Constraint, "student") {
		return appErrors.ErrStudentIDExists
	}
	return appErrors.ErrUserExists
}
