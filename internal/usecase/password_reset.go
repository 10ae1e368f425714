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
	"github.com/arklim/social-platform-commerce/internal/infra/security"
	"github.com/arklim/social-platform-commerce/internal/repository"
)

const defaultPasswordResetTTL = time.Hour

var (
	// ErrResetTokenInvalid indicates the reset token is unknown or already used.
	ErrResetTokenInvalid = errors.New("password reset token invalid")
	// ErrResetTokenExpired indicates the reset token exists but is expired.
	ErrResetTokenExpired = errors.New("password reset token expired")
	// ErrWrongCurrentPassword indicates the supplied current password did not verify.
	ErrWrongCurrentPassword = errors.New("current password is incorrect")
)

// PasswordService handles password resets and authenticated changes.
type PasswordService struct {
	users             port.UserRepository
	tokens            port.TokenRepository
	securityEvents    port.SecurityEventRepository
	events            port.EventPublisher
	passwordValidator *security.PasswordValidator
	logger            *zap.Logger
}

// NewPasswordService constructs a PasswordService.
func NewPasswordService(
	users port.UserRepository,
	tokens port.TokenRepository,
	securityEvents port.SecurityEventRepository,
	events port.EventPublisher,
	validator *security.PasswordValidator,
	logger *zap.Logger,
) *PasswordService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PasswordService{
		users:             users,
		tokens:            tokens,
		securityEvents:    securityEvents,
		events:            events,
		passwordValidator: validator,
		logger:            logger,
	}
}

// ResetInitiationResult carries the reset artifact for delivery.
type ResetInitiationResult struct {
	Token     string
	ExpiresAt time.Time
	Email     string
}

// InitiateReset issues a single-use reset token for the account. An unknown
// email yields no result and no error, so callers cannot probe for accounts.
func (s *PasswordService) InitiateReset(ctx context.Context, email, ip, userAgent string) (*ResetInitiationResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		return nil, nil
	}

	raw, err := security.GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate reset token: %w", err)
	}

	now := time.Now().UTC()
	expiresAt := now.Add(defaultPasswordResetTTL)
	token := domain.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: security.HashToken(raw),
		IP:        optionalString(ip),
		UserAgent: optionalString(userAgent),
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	if err := s.tokens.CreatePasswordReset(ctx, token); err != nil {
		return nil, fmt.Errorf("store reset token: %w", err)
	}

	return &ResetInitiationResult{Token: raw, ExpiresAt: expiresAt, Email: user.Email}, nil
}

// ConfirmReset redeems the token and installs the new password. All refresh
// tokens for the account are revoked.
func (s *PasswordService) ConfirmReset(ctx context.Context, rawToken, newPassword, ip, userAgent string) error {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return fmt.Errorf("reset token is required")
	}
	newPassword = strings.TrimSpace(newPassword)
	if newPassword == "" {
		return fmt.Errorf("new password is required")
	}

	if err := s.passwordValidator.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	hash := security.HashToken(rawToken)
	token, err := s.tokens.GetPasswordResetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}

	if token.UsedAt != nil {
		return ErrResetTokenInvalid
	}
	now := time.Now().UTC()
	if token.IsExpired(now) {
		return ErrResetTokenExpired
	}

	if err := s.tokens.ConsumePasswordReset(ctx, token.ID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, token.UserID, passwordHash, now); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.tokens.RevokeRefreshTokensForUser(ctx, token.UserID); err != nil {
		s.logger.Warn("revoke refresh tokens failed", zap.String("user_id", token.UserID), zap.Error(err))
	}

	s.recordPasswordChange(ctx, token.UserID, "reset", ip, userAgent, now)
	return nil
}

// ChangePassword verifies the current password before installing a new one.
func (s *PasswordService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, ip, userAgent string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	newPassword = strings.TrimSpace(newPassword)
	if newPassword == "" {
		return fmt.Errorf("new password is required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}

	ok, err := security.VerifyPassword(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrWrongCurrentPassword
	}

	validator := security.NewPasswordValidatorWithContext(user.Email)
	if err := validator.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}
	if err := security.NewPasswordValidator(security.RequireDifferentFrom(currentPassword)).Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	if err := s.users.UpdatePassword(ctx, userID, passwordHash, now); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.tokens.RevokeRefreshTokensForUser(ctx, userID); err != nil {
		s.logger.Warn("revoke refresh tokens failed", zap.String("user_id", userID), zap.Error(err))
	}

	s.recordPasswordChange(ctx, userID, "user", ip, userAgent, now)
	return nil
}

func (s *PasswordService) recordPasswordChange(ctx context.Context, userID, changedBy, ip, userAgent string, at time.Time) {
	if s.securityEvents != nil {
		event := domain.SecurityEvent{
			ID:        uuid.NewString(),
			UserID:    userID,
			EventType: domain.SecurityEventPasswordChange,
			IP:        optionalString(ip),
			UserAgent: optionalString(userAgent),
			Details:   map[string]any{"changed_by": changedBy},
			CreatedAt: at,
		}
		if err := s.securityEvents.Create(ctx, event); err != nil {
			s.logger.Warn("record security event failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	if s.events != nil {
		payload := domain.PasswordChangedEvent{
			EventID:   uuid.NewString(),
			UserID:    userID,
			ChangedAt: at,
			ChangedBy: changedBy,
		}
		if err := s.events.PublishPasswordChanged(ctx, payload); err != nil {
			s.logger.Warn("publish password changed event failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
}
