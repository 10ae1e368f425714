package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/core/port"
	"github.com/arklim/social-platform-commerce/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

var _ port.EventPublisher = (*EventPublisher)(nil)

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishUserRegistered publishes commerce.user.registered events.
func (p *EventPublisher) PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error {
	payload := struct {
		UserID           string         `json:"user_id"`
		Email            string         `json:"email"`
		MarketingConsent bool           `json:"marketing_consent"`
		RegisteredAt     time.Time      `json:"registered_at"`
		Metadata         map[string]any `json:"metadata,omitempty"`
	}{
		UserID:           event.UserID,
		Email:            event.Email,
		MarketingConsent: event.MarketingConsent,
		RegisteredAt:     event.RegisteredAt.UTC(),
		Metadata:         event.Metadata,
	}

	return p.publish(ctx, event.EventID, "commerce.user.registered", event.UserID, event.RegisteredAt, payload)
}

// PublishEmailVerified publishes commerce.user.email_verified events.
func (p *EventPublisher) PublishEmailVerified(ctx context.Context, event domain.EmailVerifiedEvent) error {
	payload := struct {
		UserID     string         `json:"user_id"`
		VerifiedAt time.Time      `json:"verified_at"`
		Metadata   map[string]any `json:"metadata,omitempty"`
	}{
		UserID:     event.UserID,
		VerifiedAt: event.VerifiedAt.UTC(),
		Metadata:   event.Metadata,
	}

	return p.publish(ctx, event.EventID, "commerce.user.email_verified", event.UserID, event.VerifiedAt, payload)
}

// PublishAccountLocked publishes commerce.user.locked events.
func (p *EventPublisher) PublishAccountLocked(ctx context.Context, event domain.AccountLockedEvent) error {
	payload := struct {
		UserID         string         `json:"user_id"`
		FailedAttempts int            `json:"failed_attempts"`
		LockedUntil    time.Time      `json:"locked_until"`
		IPAddress      *string        `json:"ip_address,omitempty"`
		LockedAt       time.Time      `json:"locked_at"`
		Metadata       map[string]any `json:"metadata,omitempty"`
	}{
		UserID:         event.UserID,
		FailedAttempts: event.FailedAttempts,
		LockedUntil:    event.LockedUntil.UTC(),
		IPAddress:      event.IPAddress,
		LockedAt:       event.LockedAt.UTC(),
		Metadata:       event.Metadata,
	}

	return p.publish(ctx, event.EventID, "commerce.user.locked", event.UserID, event.LockedAt, payload)
}

// PublishPasswordChanged publishes commerce.user.password_changed events.
func (p *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	payload := struct {
		UserID    string         `json:"user_id"`
		ChangedAt time.Time      `json:"changed_at"`
		ChangedBy string         `json:"changed_by"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}{
		UserID:    event.UserID,
		ChangedAt: event.ChangedAt.UTC(),
		ChangedBy: event.ChangedBy,
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, "commerce.user.password_changed", event.UserID, event.ChangedAt, payload)
}

// PublishTwoFactorStateChanged publishes commerce.user.two_factor events.
func (p *EventPublisher) PublishTwoFactorStateChanged(ctx context.Context, event domain.TwoFactorStateChangedEvent) error {
	payload := struct {
		UserID    string         `json:"user_id"`
		Enabled   bool           `json:"enabled"`
		ChangedAt time.Time      `json:"changed_at"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}{
		UserID:    event.UserID,
		Enabled:   event.Enabled,
		ChangedAt: event.ChangedAt.UTC(),
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, "commerce.user.two_factor", event.UserID, event.ChangedAt, payload)
}

// PublishOrderCreated publishes commerce.order.created events.
func (p *EventPublisher) PublishOrderCreated(ctx context.Context, event domain.OrderCreatedEvent) error {
	payload := struct {
		OrderID       string         `json:"order_id"`
		OrderNumber   string         `json:"order_number"`
		UserID        string         `json:"user_id"`
		SubtotalCents int64          `json:"subtotal_cents"`
		ShippingCents int64          `json:"shipping_cents"`
		TaxCents      int64          `json:"tax_cents"`
		DiscountCents int64          `json:"discount_cents"`
		TotalCents    int64          `json:"total_cents"`
		ItemCount     int            `json:"item_count"`
		DiscountCode  *string        `json:"discount_code,omitempty"`
		CreatedAt     time.Time      `json:"created_at"`
		Metadata      map[string]any `json:"metadata,omitempty"`
	}{
		OrderID:       event.OrderID,
		OrderNumber:   event.OrderNumber,
		UserID:        event.UserID,
		SubtotalCents: event.SubtotalCents,
		ShippingCents: event.ShippingCents,
		TaxCents:      event.TaxCents,
		DiscountCents: event.DiscountCents,
		TotalCents:    event.TotalCents,
		ItemCount:     event.ItemCount,
		DiscountCode:  event.DiscountCode,
		CreatedAt:     event.CreatedAt.UTC(),
		Metadata:      event.Metadata,
	}

	return p.publish(ctx, event.EventID, "commerce.order.created", event.UserID, event.CreatedAt, payload)
}

// PublishOrderStatusChanged publishes commerce.order.status events.
func (p *EventPublisher) PublishOrderStatusChanged(ctx context.Context, event domain.OrderStatusChangedEvent) error {
	payload := struct {
		OrderID     string         `json:"order_id"`
		OrderNumber string         `json:"order_number"`
		UserID      string         `json:"user_id"`
		OldStatus   string         `json:"old_status"`
		NewStatus   string         `json:"new_status"`
		ChangedAt   time.Time      `json:"changed_at"`
		Metadata    map[string]any `json:"metadata,omitempty"`
	}{
		OrderID:     event.OrderID,
		OrderNumber: event.OrderNumber,
		UserID:      event.UserID,
		OldStatus:   event.OldStatus,
		NewStatus:   event.NewStatus,
		ChangedAt:   event.ChangedAt.UTC(),
		Metadata:    event.Metadata,
	}

	return p.publish(ctx, event.EventID, "commerce.order.status", event.UserID, event.ChangedAt, payload)
}

// PublishPaymentCompleted publishes commerce.payment.completed events.
func (p *EventPublisher) PublishPaymentCompleted(ctx context.Context, event domain.PaymentCompletedEvent) error {
	payload := struct {
		PaymentID     string         `json:"payment_id"`
		OrderID       string         `json:"order_id"`
		OrderNumber   string         `json:"order_number"`
		AmountCents   int64          `json:"amount_cents"`
		Method        string         `json:"method"`
		TransactionID string         `json:"transaction_id"`
		CompletedAt   time.Time      `json:"completed_at"`
		Metadata      map[string]any `json:"metadata,omitempty"`
	}{
		PaymentID:     event.PaymentID,
		OrderID:       event.OrderID,
		OrderNumber:   event.OrderNumber,
		AmountCents:   event.AmountCents,
		Method:        event.Method,
		TransactionID: event.TransactionID,
		CompletedAt:   event.CompletedAt.UTC(),
		Metadata:      event.Metadata,
	}

	return p.publish(ctx, event.EventID, "commerce.payment.completed", "", event.CompletedAt, payload)
}

// PublishPaymentRefunded publishes commerce.payment.refunded events.
func (p *EventPublisher) PublishPaymentRefunded(ctx context.Context, event domain.PaymentRefundedEvent) error {
	payload := struct {
		PaymentID     string         `json:"payment_id"`
		OrderID       string         `json:"order_id"`
		OrderNumber   string         `json:"order_number"`
		RefundCents   int64          `json:"refund_cents"`
		TotalRefunded int64          `json:"total_refunded_cents"`
		FullRefund    bool           `json:"full_refund"`
		RefundedAt    time.Time      `json:"refunded_at"`
		Metadata      map[string]any `json:"metadata,omitempty"`
	}{
		PaymentID:     event.PaymentID,
		OrderID:       event.OrderID,
		OrderNumber:   event.OrderNumber,
		RefundCents:   event.RefundCents,
		TotalRefunded: event.TotalRefunded,
		FullRefund:    event.FullRefund,
		RefundedAt:    event.RefundedAt.UTC(),
		Metadata:      event.Metadata,
	}

	return p.publish(ctx, event.EventID, "commerce.payment.refunded", "", event.RefundedAt, payload)
}

// PublishLowStock publishes commerce.inventory.low_stock events.
func (p *EventPublisher) PublishLowStock(ctx context.Context, event domain.LowStockEvent) error {
	payload := struct {
		ProductID  string         `json:"product_id"`
		SKU        string         `json:"sku"`
		Quantity   int            `json:"quantity"`
		Threshold  int            `json:"threshold"`
		ObservedAt time.Time      `json:"observed_at"`
		Metadata   map[string]any `json:"metadata,omitempty"`
	}{
		ProductID:  event.ProductID,
		SKU:        event.SKU,
		Quantity:   event.Quantity,
		Threshold:  event.Threshold,
		ObservedAt: event.ObservedAt.UTC(),
		Metadata:   event.Metadata,
	}

	return p.publish(ctx, event.EventID, "commerce.inventory.low_stock", "", event.ObservedAt, payload)
}
