package domain

import "time"

// UserRegisteredEvent represents the payload for commerce.user.registered messages.
type UserRegisteredEvent struct {
	EventID          string
	UserID           string
	Email            string
	MarketingConsent bool
	RegisteredAt     time.Time
	Metadata         map[string]any
}

// EmailVerifiedEvent represents the payload for commerce.user.email_verified messages.
type EmailVerifiedEvent struct {
	EventID    string
	UserID     string
	VerifiedAt time.Time
	Metadata   map[string]any
}

// AccountLockedEvent represents the payload for commerce.user.locked messages.
type AccountLockedEvent struct {
	EventID        string
	UserID         string
	FailedAttempts int
	LockedUntil    time.Time
	IPAddress      *string
	LockedAt       time.Time
	Metadata       map[string]any
}

// PasswordChangedEvent represents the payload for commerce.user.password_changed messages.
type PasswordChangedEvent struct {
	EventID   string
	UserID    string
	ChangedAt time.Time
	ChangedBy string
	Metadata  map[string]any
}

// TwoFactorStateChangedEvent represents the payload for commerce.user.two_factor messages.
type TwoFactorStateChangedEvent struct {
	EventID   string
	UserID    string
	Enabled   bool
	ChangedAt time.Time
	Metadata  map[string]any
}

// OrderCreatedEvent represents the payload for commerce.order.created messages.
type OrderCreatedEvent struct {
	EventID       string
	OrderID       string
	OrderNumber   string
	UserID        string
	SubtotalCents int64
	ShippingCents int64
	TaxCents      int64
	DiscountCents int64
	TotalCents    int64
	ItemCount     int
	DiscountCode  *string
	CreatedAt     time.Time
	Metadata      map[string]any
}

// OrderStatusChangedEvent represents the payload for commerce.order.status messages.
type OrderStatusChangedEvent struct {
	EventID     string
	OrderID     string
	OrderNumber string
	UserID      string
	OldStatus   string
	NewStatus   string
	ChangedAt   time.Time
	Metadata    map[string]any
}

// PaymentCompletedEvent represents the payload for commerce.payment.completed messages.
type PaymentCompletedEvent struct {
	EventID       string
	PaymentID     string
	OrderID       string
	OrderNumber   string
	AmountCents   int64
	Method        string
	TransactionID string
	CompletedAt   time.Time
	Metadata      map[string]any
}

// PaymentRefundedEvent represents the payload for commerce.payment.refunded messages.
type PaymentRefundedEvent struct {
	EventID        string
	PaymentID      string
	OrderID        string
	OrderNumber    string
	RefundCents    int64
	TotalRefunded  int64
	FullRefund     bool
	RefundedAt     time.Time
	Metadata       map[string]any
}

// LowStockEvent represents the payload for commerce.inventory.low_stock messages.
type LowStockEvent struct {
	EventID    string
	ProductID  string
	SKU        string
	Quantity   int
	Threshold  int
	ObservedAt time.Time
	Metadata   map[string]any
}
