package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	applogger "github.com/arklim/social-platform-commerce/internal/infra/logger"
	"github.com/arklim/social-platform-commerce/internal/usecase"
)

// AuthHandler exposes login, token refresh and logout endpoints.
type AuthHandler struct {
	auth   *usecase.AuthService
	logger *zap.Logger
}

// AuthHandlerOption customises the handler during construction.
type AuthHandlerOption func(*AuthHandler)

// WithAuthLogger attaches a structured logger to the handler.
func WithAuthLogger(logger *zap.Logger) AuthHandlerOption {
	return func(h *AuthHandler) {
		h.logger = logger
	}
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, opts ...AuthHandlerOption) *AuthHandler {
	handler := &AuthHandler{auth: auth}
	for _, opt := range opts {
		opt(handler)
	}
	if handler.logger == nil {
		handler.logger = zap.NewNop()
	}
	return handler
}

// RegisterRoutes wires the authentication endpoints under the given group.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	group := r.Group("/auth")
	for _, mw := range middlewares {
		group.Use(mw)
	}

	group.POST("/login", h.login)
	group.POST("/refresh", h.refresh)
	group.POST("/logout", h.logout)
}

// login godoc
// @Summary Authenticate with email and password
// @Description Validates credentials, enforces lockout and two-factor policy, and issues a token pair.
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body AuthLoginRequest true "Login payload"
// @Success 200 {object} AuthLoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 423 {object} ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) login(c *gin.Context) {
	var req AuthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), usecase.LoginInput{
		Email:         req.Email,
		Password:      req.Password,
		TwoFactorCode: req.TwoFactorCode,
		IP:            c.ClientIP(),
		UserAgent:     c.Request.UserAgent(),
	})
	if err != nil {
		h.respondLoginError(c, req.Email, err)
		return
	}

	c.JSON(http.StatusOK, AuthLoginResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    h.auth.AccessTokenTTLSeconds(),
		User:         newUserSummary(result.User),
	})
}

func (h *AuthHandler) respondLoginError(c *gin.Context, email string, err error) {
	switch {
	case errors.Is(err, usecase.ErrTwoFactorRequired):
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "two-factor code required"))
	case errors.Is(err, usecase.ErrInvalidTwoFactorCode):
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid two-factor code"))
	case errors.Is(err, usecase.ErrAccountLocked):
		c.JSON(http.StatusLocked, NewErrorResponse(c, "account temporarily locked"))
	case errors.Is(err, usecase.ErrInactiveAccount):
		c.JSON(http.StatusForbidden, NewErrorResponse(c, "account is inactive"))
	case errors.Is(err, usecase.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid email or password"))
	default:
		h.logger.Error("login failed",
			zap.String("email", applogger.MaskEmail(email)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "authentication failed"))
	}
}

// refresh godoc
// @Summary Rotate a refresh token
// @Description Exchanges a valid refresh token for a new token pair. The presented token is revoked.
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body TokenRefreshRequest true "Refresh payload"
// @Success 200 {object} TokenRefreshResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) refresh(c *gin.Context) {
	var req TokenRefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	accessToken, refreshToken, user, err := h.auth.RefreshAccessToken(c.Request.Context(), req.RefreshToken, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrExpiredRefreshToken):
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "refresh token expired"))
		case errors.Is(err, usecase.ErrInvalidRefreshToken), errors.Is(err, usecase.ErrRefreshTokenUnavailable):
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid refresh token"))
		case errors.Is(err, usecase.ErrInactiveAccount):
			c.JSON(http.StatusForbidden, NewErrorResponse(c, "account is inactive"))
		default:
			h.logger.Error("token refresh failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "token refresh failed"))
		}
		return
	}

	summary := newUserSummary(user)
	c.JSON(http.StatusOK, TokenRefreshResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    h.auth.AccessTokenTTLSeconds(),
		User:         &summary,
	})
}

// logout godoc
// @Summary Revoke a refresh token
// @Description Revokes the presented refresh token and records a logout audit event.
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body LogoutRequest true "Logout payload"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken, c.ClientIP(), c.Request.UserAgent()); err != nil {
		// Logout stays idempotent toward the client: an unknown or already
		// revoked token still yields a successful response.
		h.logger.Debug("logout", zap.Error(err))
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

// getAccessTokenClaims extracts parsed claims stored by the auth middleware.
func getAccessTokenClaims(c *gin.Context) (*usecase.AccessTokenClaims, bool) {
	claimsVal, exists := c.Get("claims")
	if !exists {
		return nil, false
	}
	claims, ok := claimsVal.(*usecase.AccessTokenClaims)
	return claims, ok
}
