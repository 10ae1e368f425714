package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-commerce/internal/transport/http/middleware"
	"github.com/arklim/social-platform-commerce/internal/usecase"
)

// TwoFactorHandler exposes TOTP enrollment and disablement endpoints.
type TwoFactorHandler struct {
	twoFactor *usecase.TwoFactorService
}

func NewTwoFactorHandler(twoFactor *usecase.TwoFactorService) *TwoFactorHandler {
	return &TwoFactorHandler{twoFactor: twoFactor}
}

// RegisterRoutes binds the 2FA endpoints under the given group.
func (h *TwoFactorHandler) RegisterRoutes(r *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	group := r.Group("/users/me/2fa")
	for _, mw := range middlewares {
		group.Use(mw)
	}

	group.POST("/enroll", h.Enroll)
	group.POST("/confirm", h.Confirm)
	group.POST("/disable", h.Disable)
}

// Enroll godoc
// @Summary Begin TOTP enrollment
// @Description Generates a fresh TOTP secret and provisioning URI. A prior unconfirmed enrollment is replaced.
// @Tags TwoFactor
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param request body TwoFactorEnrollRequest false "Enrollment options"
// @Success 200 {object} TwoFactorEnrollResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/users/me/2fa/enroll [post]
func (h *TwoFactorHandler) Enroll(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	// Body is optional; an absent or malformed body falls back to the
	// default device name.
	var req TwoFactorEnrollRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.twoFactor.BeginEnrollment(c.Request.Context(), userID, req.DeviceName)
	if err != nil {
		if errors.Is(err, usecase.ErrTwoFactorAlreadyEnabled) {
			c.JSON(http.StatusConflict, NewErrorResponse(c, "two-factor authentication already enabled"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to begin enrollment"))
		return
	}

	c.JSON(http.StatusOK, TwoFactorEnrollResponse{
		Secret:          result.Secret,
		ProvisioningURI: result.ProvisioningURI,
	})
}

// Confirm godoc
// @Summary Confirm TOTP enrollment
// @Description Verifies a code from the authenticator app and enables two-factor authentication.
// @Tags TwoFactor
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param request body TwoFactorCodeRequest true "Confirmation code"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/users/me/2fa/confirm [post]
func (h *TwoFactorHandler) Confirm(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	var req TwoFactorCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid confirmation payload"))
		return
	}

	err := h.twoFactor.ConfirmEnrollment(c.Request.Context(), userID, req.Code, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrNoPendingEnrollment):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "no pending enrollment"))
		case errors.Is(err, usecase.ErrInvalidTwoFactorCode):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid code"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to confirm enrollment"))
		}
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "two-factor authentication enabled"})
}

// Disable godoc
// @Summary Disable two-factor authentication
// @Description Verifies a current code before removing the TOTP device from the account.
// @Tags TwoFactor
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param request body TwoFactorCodeRequest true "Current code"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/users/me/2fa/disable [post]
func (h *TwoFactorHandler) Disable(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	var req TwoFactorCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid payload"))
		return
	}

	err := h.twoFactor.Disable(c.Request.Context(), userID, req.Code, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrTwoFactorNotEnabled):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "two-factor authentication is not enabled"))
		case errors.Is(err, usecase.ErrInvalidTwoFactorCode):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid code"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to disable two-factor authentication"))
		}
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "two-factor authentication disabled"})
}
