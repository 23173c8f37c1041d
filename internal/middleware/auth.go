package middleware

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/uniboard/uniboard-api/internal/models"
	"github.com/uniboard/uniboard-api/internal/service"
	appErrors "github.com/uniboard/uniboard-api/pkg/errors"
	"github.com/uniboard/uniboard-api/pkg/response"
)

// ContextUserKey is the gin context key storing the authenticated identity.
const ContextUserKey = "currentUser"

type userResolver interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Authenticate requires a valid access token and resolves the account behind
// it. The account lookup means a deleted user's still-valid token stops
// working immediately.
func Authenticate(tokens *service.TokenService, users userResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := service.ExtractBearer(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, appErrors.ErrMissingToken)
			c.Abort()
			return
		}

		claims, err := tokens.VerifyAccessToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		user, err := users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				response.Error(c, appErrors.ErrUserNotFound)
			} else {
				response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user"))
			}
			c.Abort()
			return
		}

		c.Set(ContextUserKey, &models.AuthUser{
			ID:        user.ID,
			Email:     user.Email,
			Role:      user.Role,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			StudentID: user.StudentID,
		})
		c.Next()
	}
}

// OptionalAuthenticate attaches the identity when a valid token is present
// but never blocks the request.
func OptionalAuthenticate(tokens *service.TokenService, users userResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := service.ExtractBearer(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		claims, err := tokens.VerifyAccessToken(token)
		if err != nil {
			c.Next()
			return
		}

		user, err := users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.Next()
			return
		}

		c.Set(ContextUserKey, &models.AuthUser{
			ID:        user.ID,
			Email:     user.Email,
			Role:      user.Role,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			StudentID: user.StudentID,
		})
		c.Next()
	}
}

// CurrentUser extracts the authenticated identity from the gin context.
func CurrentUser(c *gin.Context) (*models.AuthUser, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.AuthUser)
	return user, ok
}
