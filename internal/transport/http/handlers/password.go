package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	applogger "github.com/arklim/social-platform-commerce/internal/infra/logger"
	"github.com/arklim/social-platform-commerce/internal/transport/http/middleware"
	"github.com/arklim/social-platform-commerce/internal/usecase"
)

// PasswordHandler exposes password reset and change endpoints.
type PasswordHandler struct {
	passwords  *usecase.PasswordService
	dispatcher NotificationDispatcher
	logger     *zap.Logger
	isDev      bool
}

// PasswordHandlerOption customises the handler.
type PasswordHandlerOption func(*PasswordHandler)

// WithPasswordLogger attaches a structured logger to the handler.
func WithPasswordLogger(logger *zap.Logger) PasswordHandlerOption {
	return func(h *PasswordHandler) {
		h.logger = logger
	}
}

func NewPasswordHandler(passwords *usecase.PasswordService, dispatcher NotificationDispatcher, isDev bool, opts ...PasswordHandlerOption) *PasswordHandler {
	if dispatcher == nil {
		dispatcher = noopDispatcher{}
	}
	handler := &PasswordHandler{
		passwords:  passwords,
		dispatcher: dispatcher,
		isDev:      isDev,
	}
	for _, opt := range opts {
		opt(handler)
	}
	if handler.logger == nil {
		handler.logger = zap.NewNop()
	}
	return handler
}

// RegisterPublicRoutes binds the unauthenticated reset endpoints.
func (h *PasswordHandler) RegisterPublicRoutes(r *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	group := r.Group("/auth")
	for _, mw := range middlewares {
		group.Use(mw)
	}
	group.POST("/forgot-password", h.ForgotPassword)
	group.POST("/reset-password", h.ResetPassword)
}

// RegisterProtectedRoutes binds the authenticated change endpoint.
func (h *PasswordHandler) RegisterProtectedRoutes(r *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	group := r.Group("/users/me")
	for _, mw := range middlewares {
		group.Use(mw)
	}
	group.POST("/password", h.ChangePassword)
}

// ForgotPassword godoc
// @Summary Initiate a password reset
// @Description Starts the password reset flow. The response does not reveal whether the account exists.
// @Tags Password
// @Accept json
// @Produce json
// @Param request body PasswordForgotRequest true "Password reset request"
// @Success 202 {object} PasswordForgotResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/forgot-password [post]
func (h *PasswordHandler) ForgotPassword(c *gin.Context) {
	var req PasswordForgotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid password reset request"))
		return
	}

	result, err := h.passwords.InitiateReset(c.Request.Context(), req.Email, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to initiate password reset"))
		return
	}

	response := PasswordForgotResponse{
		Message: "If the account exists, instructions have been sent",
	}

	// A nil result means the email matched no account. The response is
	// identical either way so callers cannot probe for accounts.
	if result != nil {
		expires := result.ExpiresAt
		response.ExpiresAt = &expires

		// SECURITY: Only expose the raw token in development mode.
		if h.isDev {
			if token := strings.TrimSpace(result.Token); token != "" {
				response.DevToken = &token
			}
		}

		h.dispatchReset(c.Request.Context(), result)
	}

	c.JSON(http.StatusAccepted, response)
}

// ResetPassword godoc
// @Summary Complete a password reset
// @Description Consumes a single-use reset token and sets the new password. All refresh tokens are revoked.
// @Tags Password
// @Accept json
// @Produce json
// @Param request body PasswordResetConfirmRequest true "Password reset confirm request"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/reset-password [post]
func (h *PasswordHandler) ResetPassword(c *gin.Context) {
	var req PasswordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reset payload"))
		return
	}

	err := h.passwords.ConfirmReset(c.Request.Context(), req.Token, req.NewPassword, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrResetTokenInvalid, Status: http.StatusBadRequest, Message: "reset token is invalid"},
			{Err: usecase.ErrResetTokenExpired, Status: http.StatusBadRequest, Message: "reset token has expired"},
			{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "password does not meet requirements"},
		}, http.StatusInternalServerError, "failed to reset password")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password reset successful"})
}

// ChangePassword godoc
// @Summary Change the password for the authenticated account
// @Description Verifies the current password before applying the new one. All refresh tokens are revoked.
// @Tags Password
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param request body PasswordChangeRequest true "Password change request"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/users/me/password [post]
func (h *PasswordHandler) ChangePassword(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	var req PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid change password payload"))
		return
	}

	err := h.passwords.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrWrongCurrentPassword):
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "current password is incorrect"))
		case errors.Is(err, usecase.ErrPasswordPolicyViolation):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "password does not meet requirements"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to change password"))
		}
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password changed"})
}

func (h *PasswordHandler) dispatchReset(ctx context.Context, result *usecase.ResetInitiationResult) {
	if h.dispatcher == nil || result == nil {
		return
	}

	payload := PasswordResetNotification{
		Email:   strings.TrimSpace(result.Email),
		Expires: result.ExpiresAt,
	}

	if h.isDev {
		payload.DevToken = strings.TrimSpace(result.Token)
	}

	if err := h.dispatcher.SendPasswordReset(ctx, payload); err != nil {
		h.logger.Warn("send password reset email failed",
			zap.String("email", applogger.MaskEmail(payload.Email)),
			zap.Error(err),
		)
	}
}
