package port

import (
	"context"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishEmailVerified(ctx context.Context, event domain.EmailVerifiedEvent) error
	PublishAccountLocked(ctx context.Context, event domain.AccountLockedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishTwoFactorStateChanged(ctx context.Context, event domain.TwoFactorStateChangedEvent) error
	PublishOrderCreated(ctx context.Context, event domain.OrderCreatedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event domain.OrderStatusChangedEvent) error
	PublishPaymentCompleted(ctx context.Context, event domain.PaymentCompletedEvent) error
	PublishPaymentRefunded(ctx context.Context, event domain.PaymentRefundedEvent) error
	PublishLowStock(ctx context.Context, event domain.LowStockEvent) error
}
