package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-commerce/internal/repository"
	"github.com/arklim/social-platform-commerce/internal/transport/http/middleware"
	"github.com/arklim/social-platform-commerce/internal/usecase"
)

// UserHandler exposes profile and security history endpoints.
type UserHandler struct {
	users *usecase.UserService
}

func NewUserHandler(users *usecase.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterRoutes binds the profile endpoints under the given group.
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	group := r.Group("/users/me")
	for _, mw := range middlewares {
		group.Use(mw)
	}

	group.GET("", h.GetProfile)
	group.PATCH("", h.UpdateProfile)
	group.GET("/security-events", h.ListSecurityEvents)
}

// GetProfile godoc
// @Summary Get the authenticated account profile
// @Tags Users
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {object} UserSummary
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/users/me [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	user, err := h.users.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "account not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load profile"))
		return
	}

	c.JSON(http.StatusOK, newUserSummary(*user))
}

// UpdateProfile godoc
// @Summary Update the authenticated account profile
// @Description Applies partial edits to name, phone and marketing consent.
// @Tags Users
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param request body ProfileUpdateRequest true "Profile edits"
// @Success 200 {object} UserSummary
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/users/me [patch]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	var req ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid profile payload"))
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, usecase.ProfileUpdateInput{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Phone:            req.Phone,
		MarketingConsent: req.MarketingConsent,
		IP:               c.ClientIP(),
		UserAgent:        c.Request.UserAgent(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "account not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to update profile"))
		return
	}

	c.JSON(http.StatusOK, newUserSummary(*user))
}

// ListSecurityEvents godoc
// @Summary List recent security events for the account
// @Tags Users
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param limit query int false "Maximum entries to return" default(20)
// @Success 200 {object} SecurityEventListResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/users/me/security-events [get]
func (h *UserHandler) ListSecurityEvents(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	events, err := h.users.ListSecurityEvents(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list security events"))
		return
	}

	payloads := make([]SecurityEventPayload, 0, len(events))
	for _, event := range events {
		payloads = append(payloads, newSecurityEventPayload(event))
	}

	c.JSON(http.StatusOK, SecurityEventListResponse{Events: payloads})
}
