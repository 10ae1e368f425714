package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/core/port"
	"github.com/arklim/social-platform-commerce/internal/repository"
)

var (
	// ErrTwoFactorAlreadyEnabled indicates the account already has a confirmed device.
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor already enabled")
	// ErrTwoFactorNotEnabled indicates no confirmed device exists for the account.
	ErrTwoFactorNotEnabled = errors.New("two-factor not enabled")
	// ErrNoPendingEnrollment indicates confirmation was attempted without a prior setup call.
	ErrNoPendingEnrollment = errors.New("no pending two-factor enrollment")
)

// TwoFactorService manages authenticator enrollment and teardown.
type TwoFactorService struct {
	users          port.UserRepository
	devices        port.TOTPDeviceRepository
	securityEvents port.SecurityEventRepository
	totp           port.TOTPProvider
	events         port.EventPublisher
	logger         *zap.Logger
}

// NewTwoFactorService constructs a TwoFactorService.
func NewTwoFactorService(
	users port.UserRepository,
	devices port.TOTPDeviceRepository,
	securityEvents port.SecurityEventRepository,
	totp port.TOTPProvider,
	events port.EventPublisher,
	logger *zap.Logger,
) *TwoFactorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TwoFactorService{
		users:          users,
		devices:        devices,
		securityEvents: securityEvents,
		totp:           totp,
		events:         events,
		logger:         logger,
	}
}

// EnrollmentResult carries the secret handed to the authenticator app.
type EnrollmentResult struct {
	Secret          string
	ProvisioningURI string
}

// BeginEnrollment creates an unconfirmed device with a fresh secret. A prior
// unconfirmed enrollment is replaced; a confirmed one blocks re-enrollment.
func (s *TwoFactorService) BeginEnrollment(ctx context.Context, userID, deviceName string) (*EnrollmentResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user.TwoFactorEnabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	existing, err := s.devices.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup totp device: %w", err)
	}
	if existing != nil {
		if existing.Confirmed {
			return nil, ErrTwoFactorAlreadyEnabled
		}
		if err := s.devices.DeleteForUser(ctx, userID); err != nil {
			return nil, fmt.Errorf("discard pending enrollment: %w", err)
		}
	}

	secret := s.totp.GenerateSecret()
	name := strings.TrimSpace(deviceName)
	if name == "" {
		name = "authenticator"
	}

	device := domain.TOTPDevice{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Secret:    secret,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.devices.Create(ctx, device); err != nil {
		return nil, fmt.Errorf("store totp device: %w", err)
	}

	return &EnrollmentResult{
		Secret:          secret,
		ProvisioningURI: s.totp.ProvisioningURI(secret, user.Email),
	}, nil
}

// ConfirmEnrollment verifies the first code from the authenticator app,
// confirms the device, and flips the account flag.
func (s *TwoFactorService) ConfirmEnrollment(ctx context.Context, userID, code, ip, userAgent string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("code is required")
	}

	device, err := s.devices.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoPendingEnrollment
		}
		return fmt.Errorf("lookup totp device: %w", err)
	}
	if device.Confirmed {
		return ErrTwoFactorAlreadyEnabled
	}

	if !s.totp.VerifyCode(device.Secret, code) {
		return ErrInvalidTwoFactorCode
	}

	now := time.Now().UTC()
	if err := s.devices.Confirm(ctx, device.ID, now); err != nil {
		return fmt.Errorf("confirm totp device: %w", err)
	}
	if err := s.users.SetTwoFactorEnabled(ctx, userID, true); err != nil {
		return fmt.Errorf("enable two-factor: %w", err)
	}

	s.recordEvent(ctx, userID, domain.SecurityEvent2FAEnabled, ip, userAgent)
	s.publishStateChange(ctx, userID, true, now)
	return nil
}

// Disable verifies a current code, removes the device, and clears the flag.
func (s *TwoFactorService) Disable(ctx context.Context, userID, code, ip, userAgent string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	device, err := s.devices.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTwoFactorNotEnabled
		}
		return fmt.Errorf("lookup totp device: %w", err)
	}
	if !device.Confirmed {
		return ErrTwoFactorNotEnabled
	}

	if !s.totp.VerifyCode(device.Secret, strings.TrimSpace(code)) {
		return ErrInvalidTwoFactorCode
	}

	if err := s.devices.DeleteForUser(ctx, userID); err != nil {
		return fmt.Errorf("remove totp device: %w", err)
	}
	if err := s.users.SetTwoFactorEnabled(ctx, userID, false); err != nil {
		return fmt.Errorf("disable two-factor: %w", err)
	}

	now := time.Now().UTC()
	s.recordEvent(ctx, userID, domain.SecurityEvent2FADisabled, ip, userAgent)
	s.publishStateChange(ctx, userID, false, now)
	return nil
}

func (s *TwoFactorService) recordEvent(ctx context.Context, userID string, eventType domain.SecurityEventType, ip, userAgent string) {
	if s.securityEvents == nil {
		return
	}

	event := domain.SecurityEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		EventType: eventType,
		IP:        optionalString(ip),
		UserAgent: optionalString(userAgent),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.securityEvents.Create(ctx, event); err != nil {
		s.logger.Warn("record security event failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func (s *TwoFactorService) publishStateChange(ctx context.Context, userID string, enabled bool, at time.Time) {
	if s.events == nil {
		return
	}

	event := domain.TwoFactorStateChangedEvent{
		EventID:   uuid.NewString(),
		UserID:    userID,
		Enabled:   enabled,
		ChangedAt: at,
	}
	if err := s.events.PublishTwoFactorStateChanged(ctx, event); err != nil {
		s.logger.Warn("publish two-factor event failed", zap.String("user_id", userID), zap.Error(err))
	}
}
