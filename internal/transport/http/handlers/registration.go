package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	applogger "github.com/arklim/social-platform-commerce/internal/infra/logger"
	"github.com/arklim/social-platform-commerce/internal/usecase"
)

// RegistrationHandler exposes endpoints for account registration and email verification.
type RegistrationHandler struct {
	registration *usecase.RegistrationService
	dispatcher   NotificationDispatcher
	logger       *zap.Logger
	isDev        bool // Development mode flag
}

// RegistrationHandlerOption customises the handler.
type RegistrationHandlerOption func(*RegistrationHandler)

// WithRegistrationLogger attaches a structured logger to the handler.
func WithRegistrationLogger(logger *zap.Logger) RegistrationHandlerOption {
	return func(h *RegistrationHandler) {
		h.logger = logger
	}
}

func NewRegistrationHandler(registration *usecase.RegistrationService, dispatcher NotificationDispatcher, isDev bool, opts ...RegistrationHandlerOption) *RegistrationHandler {
	if dispatcher == nil {
		dispatcher = noopDispatcher{}
	}
	handler := &RegistrationHandler{
		registration: registration,
		dispatcher:   dispatcher,
		isDev:        isDev,
	}
	for _, opt := range opts {
		opt(handler)
	}
	if handler.logger == nil {
		handler.logger = zap.NewNop()
	}
	return handler
}

// RegisterRoutes binds registration endpoints under the given group.
func (h *RegistrationHandler) RegisterRoutes(r *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	group := r.Group("/auth")
	for _, mw := range middlewares {
		group.Use(mw)
	}
	group.POST("/register", h.Register)
	group.GET("/verify-email", h.VerifyEmailLink)
	group.POST("/verify-email", h.VerifyEmail)
}

// Register godoc
// @Summary Register a new account
// @Description Creates a pending account and issues an email verification token. Data processing consent is mandatory.
// @Tags Registration
// @Accept json
// @Produce json
// @Param request body RegistrationRequest true "Registration request"
// @Success 201 {object} RegistrationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/register [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	user, verification, err := h.registration.RegisterUser(c.Request.Context(), usecase.RegisterInput{
		Email:                 req.Email,
		Password:              req.Password,
		FirstName:             req.FirstName,
		LastName:              req.LastName,
		Phone:                 req.Phone,
		DataProcessingConsent: req.DataProcessingConsent,
		MarketingConsent:      req.MarketingConsent,
		IP:                    c.ClientIP(),
		UserAgent:             c.Request.UserAgent(),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			c.JSON(http.StatusConflict, NewErrorResponse(c, "email already registered"))
			return
		}
		switch {
		case errors.Is(err, usecase.ErrEmailTaken):
			c.JSON(http.StatusConflict, NewErrorResponse(c, "email already registered"))
		case errors.Is(err, usecase.ErrConsentRequired):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "data processing consent is required"))
		case errors.Is(err, usecase.ErrPasswordPolicyViolation):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "password does not meet requirements"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to register account"))
		}
		return
	}

	user.PasswordHash = ""

	resp := RegistrationResponse{
		User:                 newUserSummary(user),
		RequiresVerification: true,
		Message:              "verification email sent",
	}

	if !verification.ExpiresAt.IsZero() {
		expires := verification.ExpiresAt.UTC()
		resp.ExpiresAt = &expires
	}

	// SECURITY: Only expose the raw token in development mode.
	// In production, the token travels exclusively by email.
	if h.isDev {
		if token := strings.TrimSpace(verification.Token); token != "" {
			resp.DevToken = &token
		}
	}

	h.dispatchVerification(c.Request.Context(), user.Email, user.FullName(), verification)

	c.JSON(http.StatusCreated, resp)
}

// VerifyEmail godoc
// @Summary Verify a pending account email
// @Description Consumes a verification token and marks the account email as verified.
// @Tags Registration
// @Accept json
// @Produce json
// @Param request body EmailVerifyRequest true "Verification request"
// @Success 200 {object} EmailVerifyResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/verify-email [post]
func (h *RegistrationHandler) VerifyEmail(c *gin.Context) {
	var req EmailVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid verification payload"))
		return
	}

	h.completeVerification(c, req.Token)
}

// VerifyEmailLink godoc
// @Summary Verify a pending account email via link
// @Description Consumes a verification token carried in the query string, as sent in verification emails.
// @Tags Registration
// @Produce json
// @Param token query string true "Verification token"
// @Success 200 {object} EmailVerifyResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/verify-email [get]
func (h *RegistrationHandler) VerifyEmailLink(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "verification token is required"))
		return
	}

	h.completeVerification(c, token)
}

func (h *RegistrationHandler) completeVerification(c *gin.Context, token string) {
	user, err := h.registration.VerifyEmail(c.Request.Context(), token, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrVerificationTokenInvalid):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "verification token is invalid"))
		case errors.Is(err, usecase.ErrVerificationTokenExpired):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "verification token has expired"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to verify email"))
		}
		return
	}

	user.PasswordHash = ""

	c.JSON(http.StatusOK, EmailVerifyResponse{
		Message: "email verified",
		User:    newUserSummary(user),
	})
}

func (h *RegistrationHandler) dispatchVerification(ctx context.Context, email, name string, verification usecase.RegistrationVerification) {
	if h.dispatcher == nil {
		return
	}

	payload := EmailVerificationNotification{
		Email:   strings.TrimSpace(email),
		Name:    strings.TrimSpace(name),
		Expires: verification.ExpiresAt,
	}

	if h.isDev {
		payload.DevToken = strings.TrimSpace(verification.Token)
	}

	if err := h.dispatcher.SendEmailVerification(ctx, payload); err != nil {
		h.logger.Warn("send verification email failed",
			zap.String("email", applogger.MaskEmail(payload.Email)),
			zap.Error(err),
		)
	}
}
