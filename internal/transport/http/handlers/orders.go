package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/repository"
	"github.com/arklim/social-platform-commerce/internal/usecase"
)

// OrderHandler exposes checkout, order history and the staff fulfilment endpoints.
type OrderHandler struct {
	orders *usecase.OrderService
}

func NewOrderHandler(orders *usecase.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// RegisterRoutes binds the customer order endpoints under the given group.
func (h *OrderHandler) RegisterRoutes(r *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	group := r.Group("/orders")
	for _, mw := range middlewares {
		group.Use(mw)
	}

	group.POST("", h.Checkout)
	group.GET("", h.ListOrders)
	group.GET("/:id", h.GetOrder)
	group.POST("/:id/cancel", h.CancelOrder)
	group.POST("/:id/pay", h.ConfirmPayment)
}

// RegisterStaffRoutes binds the staff-only fulfilment endpoints.
func (h *OrderHandler) RegisterStaffRoutes(r *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	group := r.Group("/admin/orders")
	for _, mw := range middlewares {
		group.Use(mw)
	}

	group.POST("/:id/refund", h.RefundPayment)
	group.PATCH("/:id/shipping", h.UpdateShipping)
}

// Checkout godoc
// @Summary Convert the cart into an order
// @Description Snapshots the cart, reserves stock, applies an optional discount code and creates a pending payment.
// @Tags Orders
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param request body CheckoutRequest true "Checkout payload"
// @Success 201 {object} OrderPayload
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/orders [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	claims, ok := getAccessTokenClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid checkout payload"))
		return
	}

	order, err := h.orders.Checkout(c.Request.Context(), usecase.CheckoutInput{
		UserID:        claims.UserID,
		ShippingName:  req.ShippingName,
		ShippingLine1: req.ShippingLine1,
		ShippingLine2: req.ShippingLine2,
		ShippingCity:  req.ShippingCity,
		ShippingZip:   req.ShippingZip,
		ShippingPhone: req.ShippingPhone,
		DiscountCode:  req.DiscountCode,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "cart is empty"))
		case errors.Is(err, usecase.ErrInsufficientStock):
			c.JSON(http.StatusConflict, NewErrorResponse(c, "insufficient stock for one or more items"))
		case errors.Is(err, usecase.ErrDiscountNotFound), errors.Is(err, usecase.ErrDiscountNotApplicable):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "discount code cannot be applied"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to place order"))
		}
		return
	}

	c.JSON(http.StatusCreated, newOrderPayload(*order))
}

// ListOrders godoc
// @Summary List orders for the authenticated account
// @Tags Orders
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} OrderListResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	claims, ok := getAccessTokenClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, err := h.orders.ListOrders(c.Request.Context(), claims.UserID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list orders"))
		return
	}

	payloads := make([]OrderPayload, 0, len(orders))
	for _, order := range orders {
		payloads = append(payloads, newOrderPayload(order))
	}

	c.JSON(http.StatusOK, OrderListResponse{
		Orders: payloads,
		Limit:  limit,
		Offset: offset,
	})
}

// GetOrder godoc
// @Summary Get a single order
// @Description Customers see only their own orders; staff may fetch any order.
// @Tags Orders
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path string true "Order ID"
// @Success 200 {object} OrderPayload
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	claims, ok := getAccessTokenClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"), claims.UserID, claims.IsStaff)
	if err != nil {
		h.respondOrderError(c, err, "failed to load order")
		return
	}

	c.JSON(http.StatusOK, newOrderPayload(*order))
}

// CancelOrder godoc
// @Summary Cancel an order
// @Description Cancels an order that has not yet shipped. Reserved stock is returned.
// @Tags Orders
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path string true "Order ID"
// @Success 200 {object} OrderPayload
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	claims, ok := getAccessTokenClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	order, err := h.orders.CancelOrder(c.Request.Context(), c.Param("id"), claims.UserID, claims.IsStaff)
	if err != nil {
		h.respondOrderError(c, err, "failed to cancel order")
		return
	}

	c.JSON(http.StatusOK, newOrderPayload(*order))
}

// ConfirmPayment godoc
// @Summary Confirm payment for an order
// @Description Settles the pending payment and transitions the order to paid.
// @Tags Orders
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path string true "Order ID"
// @Success 200 {object} PaymentPayload
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/orders/{id}/pay [post]
func (h *OrderHandler) ConfirmPayment(c *gin.Context) {
	claims, ok := getAccessTokenClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	payment, err := h.orders.ConfirmPayment(c.Request.Context(), c.Param("id"), claims.UserID, claims.IsStaff)
	if err != nil {
		h.respondOrderError(c, err, "failed to confirm payment")
		return
	}

	c.JSON(http.StatusOK, newPaymentPayload(*payment))
}

// RefundPayment godoc
// @Summary Refund an order payment
// @Description Applies a partial or full refund. The refunded total never exceeds the captured amount.
// @Tags OrdersAdmin
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path string true "Order ID"
// @Param request body RefundRequest true "Refund payload"
// @Success 200 {object} PaymentPayload
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/admin/orders/{id}/refund [post]
func (h *OrderHandler) RefundPayment(c *gin.Context) {
	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid refund payload"))
		return
	}

	payment, err := h.orders.RefundPayment(c.Request.Context(), c.Param("id"), req.AmountCents)
	if err != nil {
		h.respondOrderError(c, err, "failed to refund payment")
		return
	}

	c.JSON(http.StatusOK, newPaymentPayload(*payment))
}

// UpdateShipping godoc
// @Summary Update fulfilment status for an order
// @Tags OrdersAdmin
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path string true "Order ID"
// @Param request body ShippingUpdateRequest true "Shipping payload"
// @Success 200 {object} OrderPayload
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/admin/orders/{id}/shipping [patch]
func (h *OrderHandler) UpdateShipping(c *gin.Context) {
	var req ShippingUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid shipping payload"))
		return
	}

	order, err := h.orders.UpdateShippingStatus(c.Request.Context(), c.Param("id"), domain.ShippingStatus(req.Status), req.TrackingNumber)
	if err != nil {
		h.respondOrderError(c, err, "failed to update shipping status")
		return
	}

	c.JSON(http.StatusOK, newOrderPayload(*order))
}

func (h *OrderHandler) respondOrderError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, usecase.ErrNotOrderOwner):
		// Hidden as not-found so order IDs cannot be probed.
		c.JSON(http.StatusNotFound, NewErrorResponse(c, "order not found"))
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, NewErrorResponse(c, "order not found"))
	case errors.Is(err, usecase.ErrOrderNotCancellable):
		c.JSON(http.StatusConflict, NewErrorResponse(c, "order can no longer be cancelled"))
	case errors.Is(err, usecase.ErrPaymentAlreadyCompleted):
		c.JSON(http.StatusConflict, NewErrorResponse(c, "payment already completed"))
	case errors.Is(err, usecase.ErrRefundNotAllowed):
		c.JSON(http.StatusConflict, NewErrorResponse(c, "payment cannot be refunded"))
	case errors.Is(err, usecase.ErrRefundExceedsBalance):
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "refund exceeds remaining balance"))
	case errors.Is(err, usecase.ErrInvalidShippingStatus):
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid shipping status"))
	default:
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, fallback))
	}
}
