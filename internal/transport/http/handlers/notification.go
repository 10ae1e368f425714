package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	applogger "github.com/arklim/social-platform-commerce/internal/infra/logger"
)

// NotificationDispatcher fans out account emails to downstream notifiers.
type NotificationDispatcher interface {
	SendEmailVerification(ctx context.Context, payload EmailVerificationNotification) error
	SendPasswordReset(ctx context.Context, payload PasswordResetNotification) error
}

// EmailVerificationNotification captures data needed to deliver the
// registration verification link.
type EmailVerificationNotification struct {
	Email    string
	Name     string
	DevToken string
	Expires  time.Time
}

// PasswordResetNotification captures data needed to deliver password reset credentials.
type PasswordResetNotification struct {
	Email    string
	DevToken string
	Expires  time.Time
}

type noopDispatcher struct{}

func (noopDispatcher) SendEmailVerification(ctx context.Context, payload EmailVerificationNotification) error {
	return nil
}

func (noopDispatcher) SendPasswordReset(ctx context.Context, payload PasswordResetNotification) error {
	return nil
}

// LoggingNotificationDispatcher records credential dispatch events for observability without delivering them.
type LoggingNotificationDispatcher struct {
	logger *zap.Logger
}

// NewLoggingNotificationDispatcher constructs a notification dispatcher backed by structured logging.
func NewLoggingNotificationDispatcher(logger *zap.Logger) NotificationDispatcher {
	if logger == nil {
		return noopDispatcher{}
	}
	return &LoggingNotificationDispatcher{logger: logger}
}

func (d *LoggingNotificationDispatcher) SendEmailVerification(ctx context.Context, payload EmailVerificationNotification) error {
	if d == nil || d.logger == nil {
		return nil
	}

	fields := []zap.Field{
		zap.String("email", applogger.MaskEmail(payload.Email)),
		zap.Time("expires_at", payload.Expires),
	}

	if payload.Name != "" {
		fields = append(fields, zap.String("name", payload.Name))
	}
	if payload.DevToken != "" {
		fields = append(fields, zap.String("dev_token", payload.DevToken))
	}

	d.logger.Info("dispatch email verification", fields...)
	return nil
}

func (d *LoggingNotificationDispatcher) SendPasswordReset(ctx context.Context, payload PasswordResetNotification) error {
	if d == nil || d.logger == nil {
		return nil
	}

	fields := []zap.Field{
		zap.String("email", applogger.MaskEmail(payload.Email)),
		zap.Time("expires_at", payload.Expires),
	}

	if payload.DevToken != "" {
		fields = append(fields, zap.String("dev_token", payload.DevToken))
	}

	d.logger.Info("dispatch password reset", fields...)
	return nil
}
