package handlers

import (
	"time"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/usecase"
	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserSummary describes the account view returned by the API.
type UserSummary struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	FirstName        string     `json:"first_name,omitempty"`
	LastName         string     `json:"last_name,omitempty"`
	Phone            *string    `json:"phone,omitempty"`
	EmailVerified    bool       `json:"email_verified"`
	TwoFactorEnabled bool       `json:"two_factor_enabled"`
	MarketingConsent bool       `json:"marketing_consent"`
	IsStaff          bool       `json:"is_staff,omitempty"`
	RegisteredAt     time.Time  `json:"registered_at"`
	LastLogin        *time.Time `json:"last_login,omitempty"`
}

// AuthLoginRequest defines the payload for the login endpoint.
type AuthLoginRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required"`
	TwoFactorCode string `json:"two_factor_code"`
}

// AuthLoginResponse describes the response returned for a successful login.
type AuthLoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int         `json:"expires_in"`
	User         UserSummary `json:"user"`
}

// TokenRefreshRequest represents the payload to refresh an access token.
type TokenRefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenRefreshResponse contains tokens issued by the refresh endpoint.
type TokenRefreshResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in,omitempty"`
	User         *UserSummary `json:"user,omitempty"`
}

// LogoutRequest carries the refresh token to revoke.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RegistrationRequest defines the account registration payload.
type RegistrationRequest struct {
	Email                 string `json:"email" binding:"required,email"`
	Password              string `json:"password" binding:"required,min=8"`
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	Phone                 string `json:"phone"`
	DataProcessingConsent bool   `json:"data_processing_consent"`
	MarketingConsent      bool   `json:"marketing_consent"`
}

// RegistrationResponse contains registration results and next steps.
type RegistrationResponse struct {
	User                 UserSummary `json:"user"`
	RequiresVerification bool        `json:"requires_verification"`
	Message              string      `json:"message,omitempty"`
	ExpiresAt            *time.Time  `json:"expires_at,omitempty"`
	// SECURITY: DevToken is ONLY exposed in development mode.
	// In production, verification tokens are delivered by email.
	DevToken *string `json:"dev_token,omitempty"`
}

// EmailVerifyRequest holds the verification payload.
type EmailVerifyRequest struct {
	Token string `json:"token" binding:"required"`
}

// EmailVerifyResponse is returned after a successful verification.
type EmailVerifyResponse struct {
	Message string      `json:"message"`
	User    UserSummary `json:"user"`
}

// PasswordForgotRequest represents a password reset initiation payload.
type PasswordForgotRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// PasswordForgotResponse returns information about the generated reset artifact.
type PasswordForgotResponse struct {
	Message   string     `json:"message"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	// SECURITY: DevToken is ONLY exposed in development mode.
	DevToken *string `json:"dev_token,omitempty"`
}

// PasswordResetConfirmRequest captures a password reset confirmation payload.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// PasswordChangeRequest captures a password change request body.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// TwoFactorEnrollRequest starts a TOTP enrollment.
type TwoFactorEnrollRequest struct {
	DeviceName string `json:"device_name"`
}

// TwoFactorEnrollResponse carries the secret for the authenticator app.
type TwoFactorEnrollResponse struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
}

// TwoFactorCodeRequest carries a TOTP code for confirmation or disablement.
type TwoFactorCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// ProfileUpdateRequest defines the editable profile fields.
type ProfileUpdateRequest struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Phone            string `json:"phone"`
	MarketingConsent *bool  `json:"marketing_consent,omitempty"`
}

// SecurityEventPayload describes an audit ledger entry.
type SecurityEventPayload struct {
	ID        string         `json:"id"`
	EventType string         `json:"event_type"`
	IP        *string        `json:"ip,omitempty"`
	UserAgent *string        `json:"user_agent,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// SecurityEventListResponse wraps the account audit trail.
type SecurityEventListResponse struct {
	Events []SecurityEventPayload `json:"events"`
}

// CategoryPayload summarizes a catalog category.
type CategoryPayload struct {
	ID          string  `json:"id"`
	ParentID    *string `json:"parent_id,omitempty"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description,omitempty"`
	SortOrder   int     `json:"sort_order"`
	IsActive    bool    `json:"is_active"`
}

// CategoryListResponse wraps multiple categories.
type CategoryListResponse struct {
	Categories []CategoryPayload `json:"categories"`
}

// CategoryTreePayload is a category with its nested children.
type CategoryTreePayload struct {
	CategoryPayload
	Children []CategoryTreePayload `json:"children"`
}

// CategoryTreeResponse wraps the root categories of the taxonomy.
type CategoryTreeResponse struct {
	Categories []CategoryTreePayload `json:"categories"`
}

// CategoryCreateRequest defines the payload for creating a category.
type CategoryCreateRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	ParentID    *string `json:"parent_id,omitempty"`
	SortOrder   int     `json:"sort_order"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

func newCategoryTreePayloads(nodes []usecase.CategoryNode) []CategoryTreePayload {
	payloads := make([]CategoryTreePayload, 0, len(nodes))
	for _, node := range nodes {
		payloads = append(payloads, CategoryTreePayload{
			CategoryPayload: newCategoryPayload(node.Category),
			Children:        newCategoryTreePayloads(node.Children),
		})
	}
	return payloads
}

// ProductPayload is the full product view including computed pricing.
type ProductPayload struct {
	ID                 string     `json:"id"`
	CategoryID         string     `json:"category_id"`
	Name               string     `json:"name"`
	Slug               string     `json:"slug"`
	SKU                string     `json:"sku"`
	Description        string     `json:"description,omitempty"`
	ShortDescription   string     `json:"short_description,omitempty"`
	PriceCents         int64      `json:"price_cents"`
	SalePriceCents     *int64     `json:"sale_price_cents,omitempty"`
	CurrentPriceCents  int64      `json:"current_price_cents"`
	DiscountPercentage int        `json:"discount_percentage,omitempty"`
	InStock            bool       `json:"in_stock"`
	StockQuantity      *int       `json:"stock_quantity,omitempty"`
	IsFeatured         bool       `json:"is_featured"`
	CreatedAt          time.Time  `json:"created_at"`
}

// ProductVariantPayload describes a purchasable product option.
type ProductVariantPayload struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	SKU           string `json:"sku"`
	PriceCents    int64  `json:"price_cents"`
	StockQuantity int    `json:"stock_quantity"`
	InStock       bool   `json:"in_stock"`
}

// ProductListResponse wraps a page of products.
type ProductListResponse struct {
	Products []ProductPayload `json:"products"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// ProductDetailResponse returns a product with its variants.
type ProductDetailResponse struct {
	Product  ProductPayload          `json:"product"`
	Variants []ProductVariantPayload `json:"variants,omitempty"`
}

// ProductUpsertRequest defines the payload for creating or updating a product.
type ProductUpsertRequest struct {
	CategoryID        string `json:"category_id" binding:"required"`
	Name              string `json:"name" binding:"required"`
	SKU               string `json:"sku" binding:"required"`
	Description       string `json:"description"`
	ShortDescription  string `json:"short_description"`
	PriceCents        int64  `json:"price_cents" binding:"required"`
	SalePriceCents    *int64 `json:"sale_price_cents,omitempty"`
	ManageStock       bool   `json:"manage_stock"`
	StockQuantity     int    `json:"stock_quantity"`
	LowStockThreshold int    `json:"low_stock_threshold"`
	StockStatus       string `json:"stock_status"`
	IsActive          *bool  `json:"is_active,omitempty"`
	IsFeatured        bool   `json:"is_featured"`
}

// StockAdjustRequest applies a manual stock movement to a product.
type StockAdjustRequest struct {
	Delta           int    `json:"delta" binding:"required"`
	TransactionType string `json:"transaction_type" binding:"required"`
	Note            string `json:"note"`
}

// StockAdjustResponse returns the stock level after the movement.
type StockAdjustResponse struct {
	ProductID     string `json:"product_id"`
	StockQuantity int    `json:"stock_quantity"`
}

// InventoryLogPayload describes one stock movement.
type InventoryLogPayload struct {
	ID              string    `json:"id"`
	TransactionType string    `json:"transaction_type"`
	QuantityChange  int       `json:"quantity_change"`
	QuantityBefore  int       `json:"quantity_before"`
	QuantityAfter   int       `json:"quantity_after"`
	Reference       *string   `json:"reference,omitempty"`
	Note            *string   `json:"note,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// InventoryLogResponse wraps a product's stock movement history.
type InventoryLogResponse struct {
	Entries []InventoryLogPayload `json:"entries"`
}

// CartItemPayload is one line of the cart view.
type CartItemPayload struct {
	ID             string  `json:"id"`
	ProductID      string  `json:"product_id"`
	VariantID      *string `json:"variant_id,omitempty"`
	Quantity       int     `json:"quantity"`
	UnitPriceCents int64   `json:"unit_price_cents"`
	LineTotalCents int64   `json:"line_total_cents"`
}

// CartResponse is the full cart view with totals.
type CartResponse struct {
	ID            string            `json:"id"`
	Items         []CartItemPayload `json:"items"`
	SubtotalCents int64             `json:"subtotal_cents"`
	TotalQuantity int               `json:"total_quantity"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// CartAddItemRequest adds a product line to the cart.
type CartAddItemRequest struct {
	ProductID string  `json:"product_id" binding:"required"`
	VariantID *string `json:"variant_id,omitempty"`
	Quantity  int     `json:"quantity" binding:"required,min=1"`
}

// CartUpdateItemRequest changes the quantity of an existing line.
type CartUpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// CheckoutRequest converts the cart into an order.
type CheckoutRequest struct {
	ShippingName  string `json:"shipping_name" binding:"required"`
	ShippingLine1 string `json:"shipping_line1" binding:"required"`
	ShippingLine2 string `json:"shipping_line2"`
	ShippingCity  string `json:"shipping_city" binding:"required"`
	ShippingZip   string `json:"shipping_zip" binding:"required"`
	ShippingPhone string `json:"shipping_phone"`
	DiscountCode  string `json:"discount_code"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// OrderItemPayload is one frozen line of an order.
type OrderItemPayload struct {
	ID             string  `json:"id"`
	ProductID      string  `json:"product_id"`
	VariantID      *string `json:"variant_id,omitempty"`
	ProductName    string  `json:"product_name"`
	ProductSKU     string  `json:"product_sku"`
	VariantName    *string `json:"variant_name,omitempty"`
	UnitPriceCents int64   `json:"unit_price_cents"`
	Quantity       int     `json:"quantity"`
	TotalCents     int64   `json:"total_cents"`
}

// OrderPayload is the full order view.
type OrderPayload struct {
	ID             string             `json:"id"`
	OrderNumber    string             `json:"order_number"`
	Status         string             `json:"status"`
	ShippingStatus string             `json:"shipping_status"`
	SubtotalCents  int64              `json:"subtotal_cents"`
	ShippingCents  int64              `json:"shipping_cents"`
	TaxCents       int64              `json:"tax_cents"`
	DiscountCents  int64              `json:"discount_cents"`
	TotalCents     int64              `json:"total_cents"`
	DiscountCode   *string            `json:"discount_code,omitempty"`
	ShippingName   string             `json:"shipping_name"`
	ShippingLine1  string             `json:"shipping_line1"`
	ShippingLine2  *string            `json:"shipping_line2,omitempty"`
	ShippingCity   string             `json:"shipping_city"`
	ShippingZip    string             `json:"shipping_zip"`
	ShippingPhone  *string            `json:"shipping_phone,omitempty"`
	TrackingNumber *string            `json:"tracking_number,omitempty"`
	Items          []OrderItemPayload `json:"items"`
	CreatedAt      time.Time          `json:"created_at"`
	PaidAt         *time.Time         `json:"paid_at,omitempty"`
	ShippedAt      *time.Time         `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time         `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time         `json:"cancelled_at,omitempty"`
}

// OrderListResponse wraps a page of orders.
type OrderListResponse struct {
	Orders []OrderPayload `json:"orders"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// PaymentPayload is the money record attached to an order.
type PaymentPayload struct {
	ID            string     `json:"id"`
	OrderID       string     `json:"order_id"`
	Status        string     `json:"status"`
	Method        string     `json:"method"`
	AmountCents   int64      `json:"amount_cents"`
	RefundedCents int64      `json:"refunded_cents"`
	TransactionID *string    `json:"transaction_id,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// RefundRequest applies a partial or full refund to an order's payment.
type RefundRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required,min=1"`
}

// ShippingUpdateRequest advances an order's fulfilment status.
type ShippingUpdateRequest struct {
	Status         string `json:"status" binding:"required"`
	TrackingNumber string `json:"tracking_number"`
}

// DiscountPreviewRequest checks a code against an order total.
type DiscountPreviewRequest struct {
	Code            string `json:"code" binding:"required"`
	OrderTotalCents int64  `json:"order_total_cents" binding:"required,min=0"`
}

// DiscountPreviewResponse returns the computed reduction without redeeming.
type DiscountPreviewResponse struct {
	Code          string `json:"code"`
	Type          string `json:"type"`
	DiscountCents int64  `json:"discount_cents"`
	FreeShipping  bool   `json:"free_shipping"`
}

// DiscountPayload is the staff view of a discount code.
type DiscountPayload struct {
	ID               string     `json:"id"`
	Code             string     `json:"code"`
	Description      string     `json:"description,omitempty"`
	Type             string     `json:"type"`
	Value            int64      `json:"value"`
	MinOrderCents    int64      `json:"min_order_cents"`
	MaxDiscountCents *int64     `json:"max_discount_cents,omitempty"`
	UsageLimit       *int       `json:"usage_limit,omitempty"`
	UsedCount        int        `json:"used_count"`
	ValidFrom        *time.Time `json:"valid_from,omitempty"`
	ValidUntil       *time.Time `json:"valid_until,omitempty"`
	IsActive         bool       `json:"is_active"`
}

// DiscountListResponse wraps multiple discount codes.
type DiscountListResponse struct {
	Discounts []DiscountPayload `json:"discounts"`
}

// DiscountCreateRequest defines the payload for creating a discount code.
type DiscountCreateRequest struct {
	Code             string     `json:"code" binding:"required"`
	Description      string     `json:"description"`
	Type             string     `json:"type" binding:"required"`
	Value            int64      `json:"value"`
	MinOrderCents    int64      `json:"min_order_cents"`
	MaxDiscountCents *int64     `json:"max_discount_cents,omitempty"`
	UsageLimit       *int       `json:"usage_limit,omitempty"`
	ValidFrom        *time.Time `json:"valid_from,omitempty"`
	ValidUntil       *time.Time `json:"valid_until,omitempty"`
	IsActive         *bool      `json:"is_active,omitempty"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// JWKSKey describes an individual JSON Web Key in the JWKS response.
type JWKSKey struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKSResponse represents the JSON Web Key Set payload.
type JWKSResponse struct {
	Keys []JWKSKey `json:"keys"`
}

// newUserSummary converts a domain user to a summary suitable for API responses.
func newUserSummary(user domain.User) UserSummary {
	return UserSummary{
		ID:               user.ID,
		Email:            user.Email,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		Phone:            user.Phone,
		EmailVerified:    user.EmailVerified,
		TwoFactorEnabled: user.TwoFactorEnabled,
		MarketingConsent: user.MarketingConsent,
		IsStaff:          user.IsStaff,
		RegisteredAt:     user.RegisteredAt,
		LastLogin:        user.LastLogin,
	}
}

// newCategoryPayload converts a domain category to its API view.
func newCategoryPayload(category domain.Category) CategoryPayload {
	return CategoryPayload{
		ID:          category.ID,
		ParentID:    category.ParentID,
		Name:        category.Name,
		Slug:        category.Slug,
		Description: category.Description,
		SortOrder:   category.SortOrder,
		IsActive:    category.IsActive,
	}
}

// newProductPayload converts a domain product to its API view. Stock counts
// are only exposed for tracked products.
func newProductPayload(product domain.Product) ProductPayload {
	payload := ProductPayload{
		ID:                 product.ID,
		CategoryID:         product.CategoryID,
		Name:               product.Name,
		Slug:               product.Slug,
		SKU:                product.SKU,
		Description:        product.Description,
		ShortDescription:   product.ShortDescription,
		PriceCents:         product.PriceCents,
		SalePriceCents:     product.SalePriceCents,
		CurrentPriceCents:  product.CurrentPrice(),
		DiscountPercentage: product.DiscountPercentage(),
		InStock:            product.IsInStock(),
		IsFeatured:         product.IsFeatured,
		CreatedAt:          product.CreatedAt,
	}

	if product.ManageStock {
		quantity := product.StockQuantity
		payload.StockQuantity = &quantity
	}

	return payload
}

// newVariantPayload converts a variant resolving its price against the parent.
func newVariantPayload(variant domain.ProductVariant, parent domain.Product) ProductVariantPayload {
	return ProductVariantPayload{
		ID:            variant.ID,
		Name:          variant.Name,
		SKU:           variant.SKU,
		PriceCents:    variant.EffectivePrice(parent),
		StockQuantity: variant.StockQuantity,
		InStock:       variant.StockQuantity > 0,
	}
}

// newCartResponse converts a domain cart with computed totals.
func newCartResponse(cart domain.Cart) CartResponse {
	items := make([]CartItemPayload, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, CartItemPayload{
			ID:             item.ID,
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: item.LineTotal(),
		})
	}

	return CartResponse{
		ID:            cart.ID,
		Items:         items,
		SubtotalCents: cart.Subtotal(),
		TotalQuantity: cart.TotalQuantity(),
		UpdatedAt:     cart.UpdatedAt,
	}
}

// newOrderPayload converts a domain order with its items.
func newOrderPayload(order domain.Order) OrderPayload {
	items := make([]OrderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemPayload{
			ID:             item.ID,
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			ProductName:    item.ProductName,
			ProductSKU:     item.ProductSKU,
			VariantName:    item.VariantName,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			TotalCents:     item.TotalCents,
		})
	}

	return OrderPayload{
		ID:             order.ID,
		OrderNumber:    order.OrderNumber,
		Status:         string(order.Status),
		ShippingStatus: string(order.ShippingStatus),
		SubtotalCents:  order.SubtotalCents,
		ShippingCents:  order.ShippingCents,
		TaxCents:       order.TaxCents,
		DiscountCents:  order.DiscountCents,
		TotalCents:     order.TotalCents,
		DiscountCode:   order.DiscountCode,
		ShippingName:   order.ShippingName,
		ShippingLine1:  order.ShippingLine1,
		ShippingLine2:  order.ShippingLine2,
		ShippingCity:   order.ShippingCity,
		ShippingZip:    order.ShippingZip,
		ShippingPhone:  order.ShippingPhone,
		TrackingNumber: order.TrackingNumber,
		Items:          items,
		CreatedAt:      order.CreatedAt,
		PaidAt:         order.PaidAt,
		ShippedAt:      order.ShippedAt,
		DeliveredAt:    order.DeliveredAt,
		CancelledAt:    order.CancelledAt,
	}
}

// newPaymentPayload converts a domain payment to its API view.
func newPaymentPayload(payment domain.Payment) PaymentPayload {
	return PaymentPayload{
		ID:            payment.ID,
		OrderID:       payment.OrderID,
		Status:        string(payment.Status),
		Method:        payment.Method,
		AmountCents:   payment.AmountCents,
		RefundedCents: payment.RefundedCents,
		TransactionID: payment.TransactionID,
		CompletedAt:   payment.CompletedAt,
	}
}

// newDiscountPayload converts a domain discount to its staff API view.
func newDiscountPayload(discount domain.Discount) DiscountPayload {
	return DiscountPayload{
		ID:               discount.ID,
		Code:             discount.Code,
		Description:      discount.Description,
		Type:             string(discount.Type),
		Value:            discount.Value,
		MinOrderCents:    discount.MinOrderCents,
		MaxDiscountCents: discount.MaxDiscountCents,
		UsageLimit:       discount.UsageLimit,
		UsedCount:        discount.UsedCount,
		ValidFrom:        discount.ValidFrom,
		ValidUntil:       discount.ValidUntil,
		IsActive:         discount.IsActive,
	}
}

// newSecurityEventPayload converts an audit entry to its API view.
func newSecurityEventPayload(event domain.SecurityEvent) SecurityEventPayload {
	return SecurityEventPayload{
		ID:        event.ID,
		EventType: string(event.EventType),
		IP:        event.IP,
		UserAgent: event.UserAgent,
		Details:   event.Details,
		CreatedAt: event.CreatedAt,
	}
}
