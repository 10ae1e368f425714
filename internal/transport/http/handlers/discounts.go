package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/usecase"
)

// DiscountHandler exposes discount preview for customers and code management for staff.
type DiscountHandler struct {
	discounts *usecase.DiscountService
}

func NewDiscountHandler(discounts *usecase.DiscountService) *DiscountHandler {
	return &DiscountHandler{discounts: discounts}
}

// RegisterRoutes binds the customer-facing preview endpoint.
func (h *DiscountHandler) RegisterRoutes(r *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	group := r.Group("/discounts")
	for _, mw := range middlewares {
		group.Use(mw)
	}

	group.POST("/preview", h.Preview)
}

// RegisterStaffRoutes binds the staff management endpoints.
func (h *DiscountHandler) RegisterStaffRoutes(r *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	group := r.Group("/admin/discounts")
	for _, mw := range middlewares {
		group.Use(mw)
	}

	group.GET("", h.List)
	group.POST("", h.Create)
	group.DELETE("/:code", h.Deactivate)
}

// Preview godoc
// @Summary Preview a discount code against an order total
// @Description Computes the reduction without redeeming the code.
// @Tags Discounts
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param request body DiscountPreviewRequest true "Preview payload"
// @Success 200 {object} DiscountPreviewResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/discounts/preview [post]
func (h *DiscountHandler) Preview(c *gin.Context) {
	var req DiscountPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid preview payload"))
		return
	}

	preview, err := h.discounts.Preview(c.Request.Context(), req.Code, req.OrderTotalCents)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrDiscountNotFound):
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "discount code not found"))
		case errors.Is(err, usecase.ErrDiscountNotApplicable):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "discount code cannot be applied"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to preview discount"))
		}
		return
	}

	c.JSON(http.StatusOK, DiscountPreviewResponse{
		Code:          preview.Code,
		Type:          string(preview.Type),
		DiscountCents: preview.DiscountCents,
		FreeShipping:  preview.FreeShipping,
	})
}

// List godoc
// @Summary List discount codes
// @Tags DiscountsAdmin
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param active_only query bool false "Active codes only"
// @Success 200 {object} DiscountListResponse
// @Router /api/v1/admin/discounts [get]
func (h *DiscountHandler) List(c *gin.Context) {
	activeOnly := c.Query("active_only") == "true"

	discounts, err := h.discounts.List(c.Request.Context(), activeOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list discounts"))
		return
	}

	payloads := make([]DiscountPayload, 0, len(discounts))
	for _, discount := range discounts {
		payloads = append(payloads, newDiscountPayload(discount))
	}

	c.JSON(http.StatusOK, DiscountListResponse{Discounts: payloads})
}

// Create godoc
// @Summary Create a discount code
// @Tags DiscountsAdmin
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param request body DiscountCreateRequest true "Discount payload"
// @Success 201 {object} DiscountPayload
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/admin/discounts [post]
func (h *DiscountHandler) Create(c *gin.Context) {
	var req DiscountCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid discount payload"))
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	discount, err := h.discounts.Create(c.Request.Context(), usecase.DiscountInput{
		Code:             req.Code,
		Description:      req.Description,
		Type:             domain.DiscountType(req.Type),
		Value:            req.Value,
		MinOrderCents:    req.MinOrderCents,
		MaxDiscountCents: req.MaxDiscountCents,
		UsageLimit:       req.UsageLimit,
		ValidFrom:        req.ValidFrom,
		ValidUntil:       req.ValidUntil,
		IsActive:         isActive,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			c.JSON(http.StatusConflict, NewErrorResponse(c, "discount code already exists"))
			return
		}
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid discount definition"))
		return
	}

	c.JSON(http.StatusCreated, newDiscountPayload(*discount))
}

// Deactivate godoc
// @Summary Deactivate a discount code
// @Tags DiscountsAdmin
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param code path string true "Discount code"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/admin/discounts/{code} [delete]
func (h *DiscountHandler) Deactivate(c *gin.Context) {
	if err := h.discounts.Deactivate(c.Request.Context(), c.Param("code")); err != nil {
		if errors.Is(err, usecase.ErrDiscountNotFound) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "discount code not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to deactivate discount"))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "discount deactivated"})
}
