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

const defaultVerificationTTL = 24 * time.Hour

var (
	// ErrConsentRequired indicates the data processing consent checkbox was not accepted.
	ErrConsentRequired = errors.New("data processing consent is required")
	// ErrEmailTaken indicates an account already exists for the email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrVerificationTokenInvalid indicates the provided verification token is invalid or already used.
	ErrVerificationTokenInvalid = errors.New("verification token invalid")
	// ErrVerificationTokenExpired indicates the token exists but is expired.
	ErrVerificationTokenExpired = errors.New("verification token expired")
	// ErrPasswordPolicyViolation indicates the password does not satisfy complexity requirements.
	ErrPasswordPolicyViolation = errors.New("password does not meet complexity requirements")
)

// RegistrationService handles new account onboarding.
type RegistrationService struct {
	users             port.UserRepository
	tokens            port.TokenRepository
	securityEvents    port.SecurityEventRepository
	events            port.EventPublisher
	passwordValidator *security.PasswordValidator
	logger            *zap.Logger
}

// NewRegistrationService constructs a registration service.
func NewRegistrationService(
	users port.UserRepository,
	tokens port.TokenRepository,
	securityEvents port.SecurityEventRepository,
	events port.EventPublisher,
	validator *security.PasswordValidator,
	logger *zap.Logger,
) *RegistrationService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		users:             users,
		tokens:            tokens,
		securityEvents:    securityEvents,
		events:            events,
		passwordValidator: validator,
		logger:            logger,
	}
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Email                 string
	Password              string
	FirstName             string
	LastName              string
	Phone                 string
	DataProcessingConsent bool
	MarketingConsent      bool
	IP                    string
	UserAgent             string
}

// RegistrationVerification captures the verification artifact for a newly registered user.
type RegistrationVerification struct {
	Token     string
	ExpiresAt time.Time
}

// RegisterUser creates a pending account and returns the email verification artifact.
// Accounts cannot be created without data processing consent.
func (s *RegistrationService) RegisterUser(ctx context.Context, input RegisterInput) (domain.User, RegistrationVerification, error) {
	var zero RegistrationVerification

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return domain.User{}, zero, fmt.Errorf("email is required")
	}
	password := strings.TrimSpace(input.Password)
	if password == "" {
		return domain.User{}, zero, fmt.Errorf("password is required")
	}
	if !input.DataProcessingConsent {
		return domain.User{}, zero, ErrConsentRequired
	}
	if s.tokens == nil {
		return domain.User{}, zero, fmt.Errorf("token repository not configured")
	}

	if err := s.passwordValidator.Validate(password); err != nil {
		return domain.User{}, zero, fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return domain.User{}, zero, ErrEmailTaken
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, zero, fmt.Errorf("lookup user: %w", err)
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return domain.User{}, zero, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:                    uuid.NewString(),
		Email:                 email,
		PasswordHash:          passwordHash,
		FirstName:             strings.TrimSpace(input.FirstName),
		LastName:              strings.TrimSpace(input.LastName),
		DataProcessingConsent: true,
		MarketingConsent:      input.MarketingConsent,
		IsActive:              true,
		RegisteredAt:          now,
		LastPasswordChange:    now,
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		user.Phone = &phone
	}

	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, zero, err
	}

	rawToken, err := security.GenerateSecureToken(32)
	if err != nil {
		return domain.User{}, zero, fmt.Errorf("generate verification token: %w", err)
	}

	expiresAt := now.Add(defaultVerificationTTL)
	token := domain.VerificationToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: security.HashToken(rawToken),
		IP:        optionalString(input.IP),
		UserAgent: optionalString(input.UserAgent),
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	if err := s.tokens.CreateVerification(ctx, token); err != nil {
		return domain.User{}, zero, fmt.Errorf("store verification token: %w", err)
	}

	s.publishUserRegistered(ctx, user)

	return user, RegistrationVerification{Token: rawToken, ExpiresAt: expiresAt}, nil
}

// VerifyEmail redeems the verification token and marks the account verified.
// Tokens are single use: the conditional consume makes a second redemption
// fail even when two requests race.
func (s *RegistrationService) VerifyEmail(ctx context.Context, rawToken, ip, userAgent string) (domain.User, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return domain.User{}, fmt.Errorf("verification token is required")
	}
	if s.tokens == nil {
		return domain.User{}, fmt.Errorf("token repository not configured")
	}

	hash := security.HashToken(rawToken)
	token, err := s.tokens.GetVerificationByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrVerificationTokenInvalid
		}
		return domain.User{}, fmt.Errorf("lookup verification token: %w", err)
	}

	if token.UsedAt != nil {
		return domain.User{}, ErrVerificationTokenInvalid
	}
	now := time.Now().UTC()
	if token.IsExpired(now) {
		return domain.User{}, ErrVerificationTokenExpired
	}

	if err := s.tokens.ConsumeVerification(ctx, token.ID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrVerificationTokenInvalid
		}
		return domain.User{}, fmt.Errorf("consume verification token: %w", err)
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrVerificationTokenInvalid
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := s.users.SetEmailVerified(ctx, user.ID, now); err != nil {
		return domain.User{}, fmt.Errorf("mark email verified: %w", err)
	}
	user.EmailVerified = true

	if s.securityEvents != nil {
		event := domain.SecurityEvent{
			ID:        uuid.NewString(),
			UserID:    user.ID,
			EventType: domain.SecurityEventEmailVerified,
			IP:        optionalString(ip),
			UserAgent: optionalString(userAgent),
			CreatedAt: now,
		}
		if err := s.securityEvents.Create(ctx, event); err != nil {
			s.logger.Warn("record security event failed", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	s.publishEmailVerified(ctx, user.ID, now)

	return *user, nil
}

func (s *RegistrationService) publishUserRegistered(ctx context.Context, user domain.User) {
	if s.events == nil {
		return
	}

	event := domain.UserRegisteredEvent{
		EventID:          uuid.NewString(),
		UserID:           user.ID,
		Email:            user.Email,
		MarketingConsent: user.MarketingConsent,
		RegisteredAt:     user.RegisteredAt,
	}
	if err := s.events.PublishUserRegistered(ctx, event); err != nil {
		s.logger.Warn("publish user registered event failed", zap.String("user_id", user.ID), zap.Error(err))
	}
}

func (s *RegistrationService) publishEmailVerified(ctx context.Context, userID string, at time.Time) {
	if s.events == nil {
		return
	}

	event := domain.EmailVerifiedEvent{
		EventID:    uuid.NewString(),
		UserID:     userID,
		VerifiedAt: at,
	}
	if err := s.events.PublishEmailVerified(ctx, event); err != nil {
		s.logger.Warn("publish email verified event failed", zap.String("user_id", userID), zap.Error(err))
	}
}
