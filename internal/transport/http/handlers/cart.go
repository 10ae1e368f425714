package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-commerce/internal/repository"
	"github.com/arklim/social-platform-commerce/internal/transport/http/middleware"
	"github.com/arklim/social-platform-commerce/internal/usecase"
)

// CartHandler exposes the authenticated shopping cart endpoints.
type CartHandler struct {
	carts *usecase.CartService
}

func NewCartHandler(carts *usecase.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// RegisterRoutes binds the cart endpoints under the given group.
func (h *CartHandler) RegisterRoutes(r *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	group := r.Group("/cart")
	for _, mw := range middlewares {
		group.Use(mw)
	}

	group.GET("", h.GetCart)
	group.POST("/items", h.AddItem)
	group.PATCH("/items/:id", h.UpdateItem)
	group.DELETE("/items/:id", h.RemoveItem)
	group.DELETE("", h.Clear)
}

// GetCart godoc
// @Summary Get the current cart
// @Description Returns the open cart for the account, creating an empty one on first access.
// @Tags Cart
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {object} CartResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	cart, err := h.carts.GetCart(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load cart"))
		return
	}

	c.JSON(http.StatusOK, newCartResponse(*cart))
}

// AddItem godoc
// @Summary Add a product to the cart
// @Description Adds a product line or merges quantity into an existing line for the same product and variant.
// @Tags Cart
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param request body CartAddItemRequest true "Item payload"
// @Success 200 {object} CartResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	var req CartAddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid item payload"))
		return
	}

	cart, err := h.carts.AddItem(c.Request.Context(), userID, req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		h.respondCartError(c, err, "failed to add item")
		return
	}

	c.JSON(http.StatusOK, newCartResponse(*cart))
}

// UpdateItem godoc
// @Summary Change the quantity of a cart line
// @Tags Cart
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path string true "Cart item ID"
// @Param request body CartUpdateItemRequest true "Quantity payload"
// @Success 200 {object} CartResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/cart/items/{id} [patch]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	var req CartUpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid quantity payload"))
		return
	}

	cart, err := h.carts.UpdateItemQuantity(c.Request.Context(), userID, c.Param("id"), req.Quantity)
	if err != nil {
		h.respondCartError(c, err, "failed to update item")
		return
	}

	c.JSON(http.StatusOK, newCartResponse(*cart))
}

// RemoveItem godoc
// @Summary Remove a line from the cart
// @Tags Cart
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path string true "Cart item ID"
// @Success 200 {object} CartResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/cart/items/{id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	cart, err := h.carts.RemoveItem(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.respondCartError(c, err, "failed to remove item")
		return
	}

	c.JSON(http.StatusOK, newCartResponse(*cart))
}

// Clear godoc
// @Summary Remove every line from the cart
// @Tags Cart
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	if err := h.carts.Clear(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to clear cart"))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "cart cleared"})
}

func (h *CartHandler) respondCartError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, usecase.ErrProductUnavailable):
		c.JSON(http.StatusConflict, NewErrorResponse(c, "product is unavailable"))
	case errors.Is(err, usecase.ErrInsufficientStock):
		c.JSON(http.StatusConflict, NewErrorResponse(c, "insufficient stock"))
	case errors.Is(err, usecase.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid quantity"))
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, NewErrorResponse(c, "item not found"))
	default:
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, fallback))
	}
}
