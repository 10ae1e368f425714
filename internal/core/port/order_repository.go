package port

import (
	"context"
	"time"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
)

// CartRepository exposes persistence behavior for shopping carts.
type CartRepository interface {
	// GetOrCreate returns the user's cart with items, creating an empty one
	// when none exists yet.
	GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertItem(ctx context.Context, item domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error
	RemoveItem(ctx context.Context, cartID, itemID string) error
	Clear(ctx context.Context, cartID string) error
}

// OrderRepository exposes persistence behavior for orders and payments.
type OrderRepository interface {
	// PlaceOrder runs the checkout transaction: insert the order with its
	// frozen items and pending payment, decrement managed stock with
	// inventory log entries, redeem the discount code, and clear the cart.
	// All steps commit or roll back together.
	PlaceOrder(ctx context.Context, order domain.Order, payment domain.Payment, cartID string, discountCode *string) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) error
	UpdateShippingStatus(ctx context.Context, id string, status domain.ShippingStatus, trackingNumber *string, at time.Time) error
	// Cancel applies the cancellation guard inside the statement so a
	// concurrent fulfilment update cannot race it.
	Cancel(ctx context.Context, id string, at time.Time) error
	GetPaymentByOrderID(ctx context.Context, orderID string) (*domain.Payment, error)
	CompletePayment(ctx context.Context, paymentID, transactionID string, at time.Time) error
	// RefundPayment applies a monotonic refund increment, guarded so the
	// refunded total can never exceed the payment amount.
	RefundPayment(ctx context.Context, paymentID string, amountCents int64, at time.Time) error
}

// DiscountRepository exposes persistence behavior for discount codes.
type DiscountRepository interface {
	Create(ctx context.Context, discount domain.Discount) error
	Update(ctx context.Context, discount domain.Discount) error
	GetByCode(ctx context.Context, code string) (*domain.Discount, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Discount, error)
	// Redeem increments used_count only while it is below the usage limit;
	// concurrent redemptions of a limited code cannot exceed the limit.
	Redeem(ctx context.Context, code string) error
}
