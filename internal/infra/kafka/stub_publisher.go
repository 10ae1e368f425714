package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishUserRegistered logs commerce.user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	payload := map[string]any{
		"user_id":           event.UserID,
		"email":             event.Email,
		"marketing_consent": event.MarketingConsent,
		"registered_at":     event.RegisteredAt,
		"metadata":          event.Metadata,
	}
	p.logEvent("commerce.user.registered", event.UserID, event.RegisteredAt, payload)
	return nil
}

// PublishEmailVerified logs commerce.user.email_verified events.
func (p *StubPublisher) PublishEmailVerified(_ context.Context, event domain.EmailVerifiedEvent) error {
	payload := map[string]any{
		"user_id":     event.UserID,
		"verified_at": event.VerifiedAt,
		"metadata":    event.Metadata,
	}
	p.logEvent("commerce.user.email_verified", event.UserID, event.VerifiedAt, payload)
	return nil
}

// PublishAccountLocked logs commerce.user.locked events.
func (p *StubPublisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	payload := map[string]any{
		"user_id":         event.UserID,
		"failed_attempts": event.FailedAttempts,
		"locked_until":    event.LockedUntil,
		"ip_address":      event.IPAddress,
		"locked_at":       event.LockedAt,
		"metadata":        event.Metadata,
	}
	p.logEvent("commerce.user.locked", event.UserID, event.LockedAt, payload)
	return nil
}

// PublishPasswordChanged logs commerce.user.password_changed events.
func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	payload := map[string]any{
		"user_id":    event.UserID,
		"changed_at": event.ChangedAt,
		"changed_by": event.ChangedBy,
		"metadata":   event.Metadata,
	}
	p.logEvent("commerce.user.password_changed", event.UserID, event.ChangedAt, payload)
	return nil
}

// PublishTwoFactorStateChanged logs commerce.user.two_factor events.
func (p *StubPublisher) PublishTwoFactorStateChanged(_ context.Context, event domain.TwoFactorStateChangedEvent) error {
	payload := map[string]any{
		"user_id":    event.UserID,
		"enabled":    event.Enabled,
		"changed_at": event.ChangedAt,
		"metadata":   event.Metadata,
	}
	p.logEvent("commerce.user.two_factor", event.UserID, event.ChangedAt, payload)
	return nil
}

// PublishOrderCreated logs commerce.order.created events.
func (p *StubPublisher) PublishOrderCreated(_ context.Context, event domain.OrderCreatedEvent) error {
	payload := map[string]any{
		"order_id":       event.OrderID,
		"order_number":   event.OrderNumber,
		"user_id":        event.UserID,
		"subtotal_cents": event.SubtotalCents,
		"shipping_cents": event.ShippingCents,
		"tax_cents":      event.TaxCents,
		"discount_cents": event.DiscountCents,
		"total_cents":    event.TotalCents,
		"item_count":     event.ItemCount,
		"discount_code":  event.DiscountCode,
		"created_at":     event.CreatedAt,
		"metadata":       event.Metadata,
	}
	p.logEvent("commerce.order.created", event.UserID, event.CreatedAt, payload)
	return nil
}

// PublishOrderStatusChanged logs commerce.order.status events.
func (p *StubPublisher) PublishOrderStatusChanged(_ context.Context, event domain.OrderStatusChangedEvent) error {
	payload := map[string]any{
		"order_id":     event.OrderID,
		"order_number": event.OrderNumber,
		"user_id":      event.UserID,
		"old_status":   event.OldStatus,
		"new_status":   event.NewStatus,
		"changed_at":   event.ChangedAt,
		"metadata":     event.Metadata,
	}
	p.logEvent("commerce.order.status", event.UserID, event.ChangedAt, payload)
	return nil
}

// PublishPaymentCompleted logs commerce.payment.completed events.
func (p *StubPublisher) PublishPaymentCompleted(_ context.Context, event domain.PaymentCompletedEvent) error {
	payload := map[string]any{
		"payment_id":     event.PaymentID,
		"order_id":       event.OrderID,
		"order_number":   event.OrderNumber,
		"amount_cents":   event.AmountCents,
		"method":         event.Method,
		"transaction_id": event.TransactionID,
		"completed_at":   event.CompletedAt,
		"metadata":       event.Metadata,
	}
	p.logEvent("commerce.payment.completed", "", event.CompletedAt, payload)
	return nil
}

// PublishPaymentRefunded logs commerce.payment.refunded events.
func (p *StubPublisher) PublishPaymentRefunded(_ context.Context, event domain.PaymentRefundedEvent) error {
	payload := map[string]any{
		"payment_id":           event.PaymentID,
		"order_id":             event.OrderID,
		"order_number":         event.OrderNumber,
		"refund_cents":         event.RefundCents,
		"total_refunded_cents": event.TotalRefunded,
		"full_refund":          event.FullRefund,
		"refunded_at":          event.RefundedAt,
		"metadata":             event.Metadata,
	}
	p.logEvent("commerce.payment.refunded", "", event.RefundedAt, payload)
	return nil
}

// PublishLowStock logs commerce.inventory.low_stock events.
func (p *StubPublisher) PublishLowStock(_ context.Context, event domain.LowStockEvent) error {
	payload := map[string]any{
		"product_id":  event.ProductID,
		"sku":         event.SKU,
		"quantity":    event.Quantity,
		"threshold":   event.Threshold,
		"observed_at": event.ObservedAt,
		"metadata":    event.Metadata,
	}
	p.logEvent("commerce.inventory.low_stock", "", event.ObservedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
