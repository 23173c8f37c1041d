package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniboard/uniboard-api/internal/models"
	"github.com/uniboard/uniboard-api/internal/service"
	"github.com/uniboard/uniboard-api/pkg/config"
	appErrors "github.com/uniboard/uniboard-api/pkg/errors"
	"github.com/uniboard/uniboard-api/pkg/response"
)

// AuthHandler wires HTTP endpoints to the auth service. The refresh token
// travels only in an httpOnly cookie scoped to the auth routes; response
// bodies carry the access token alone.
type AuthHandler struct {
	service    *service.AuthService
	cookieName string
	cookiePath string
	secure     bool
	maxAge     int
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService, jwtCfg config.JWTConfig, env string) *AuthHandler {
	return &AuthHandler{
		service:    svc,
		cookieName: jwtCfg.CookieName,
		cookiePath: jwtCfg.CookiePath,
		secure:     env == config.EnvProduction,
		maxAge:     int(jwtCfg.RefreshExpiry.Seconds()),
	}
}

// Register godoc
// @Summary Register a student account
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.ErrMissingFields)
		return
	}

	res, refreshToken, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setRefreshCookie(c, refreshToken)
	response.Created(c, res)
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate user by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrMissingFields, "Email and password are required"))
		return
	}
	req.IP = c.ClientIP()

	res, refreshToken, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setRefreshCookie(c, refreshToken)
	response.JSON(c, http.StatusOK, res, nil)
}

// Refresh godoc
// @Summary Refresh access token
// @Description Exchange the refresh cookie for a new access token
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(h.cookieName)
	if err != nil || refreshToken == "" {
		response.Error(c, appErrors.ErrMissingRefresh)
		return
	}

	res, err := h.service.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		h.clearRefreshCookie(c)
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Logout godoc
// @Summary Logout current session
// @Description Invalidate the refresh token and clear the cookie
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie(h.cookieName)

	if err := h.service.Logout(c.Request.Context(), refreshToken); err != nil {
		response.Error(c, err)
		return
	}

	h.clearRefreshCookie(c)
	response.Message(c, http.StatusOK, "Logged out successfully")
}

// Me godoc
// @Summary Current user profile
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	identity := userFromContext(c)
	if identity == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	user, err := h.service.CurrentUser(c.Request.Context(), identity.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"user": user.Public()}, nil)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookieName, token, h.maxAge, h.cookiePath, "", h.secure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookieName, "", -1, h.cookiePath, "", h.secure, true)
}
