package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/core/port"
	"github.com/arklim/social-platform-commerce/internal/infra/config"
	applogger "github.com/arklim/social-platform-commerce/internal/infra/logger"
	"github.com/arklim/social-platform-commerce/internal/infra/security"
	"github.com/arklim/social-platform-commerce/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the provided email or password are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked indicates the account is under an active lockout window.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrInactiveAccount indicates the account is disabled.
	ErrInactiveAccount = errors.New("account is not active")
	// ErrTwoFactorRequired indicates the account has 2FA enabled and no code was supplied.
	ErrTwoFactorRequired = errors.New("two-factor code required")
	// ErrInvalidTwoFactorCode indicates the supplied TOTP code did not verify.
	ErrInvalidTwoFactorCode = errors.New("invalid two-factor code")
	// ErrInvalidRefreshToken indicates the provided refresh token does not exist or was revoked.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrExpiredRefreshToken indicates the provided refresh token has expired.
	ErrExpiredRefreshToken = errors.New("refresh token expired")
	// ErrRefreshTokenUnavailable indicates refresh token issuance is not configured.
	ErrRefreshTokenUnavailable = errors.New("refresh token unavailable")
	// ErrInvalidAccessToken indicates the provided access token is malformed or signature validation failed.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrExpiredAccessToken indicates the provided access token has expired.
	ErrExpiredAccessToken = errors.New("access token expired")
)

// AuthService coordinates authentication flows.
type AuthService struct {
	cfg            *config.AppConfig
	users          port.UserRepository
	attempts       port.LoginAttemptRepository
	securityEvents port.SecurityEventRepository
	tokens         port.TokenRepository
	totpDevices    port.TOTPDeviceRepository
	totp           port.TOTPProvider
	events         port.EventPublisher
	ipBlocks       port.IPBlockStore
	tokenGenerator *security.TokenGenerator
	keyProvider    security.KeyProvider
	logger         *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	cfg *config.AppConfig,
	users port.UserRepository,
	attempts port.LoginAttemptRepository,
	securityEvents port.SecurityEventRepository,
	tokens port.TokenRepository,
	totpDevices port.TOTPDeviceRepository,
	totp port.TOTPProvider,
	events port.EventPublisher,
	ipBlocks port.IPBlockStore,
	tokenGenerator *security.TokenGenerator,
	keyProvider security.KeyProvider,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		cfg:            cfg,
		users:          users,
		attempts:       attempts,
		securityEvents: securityEvents,
		tokens:         tokens,
		totpDevices:    totpDevices,
		totp:           totp,
		events:         events,
		ipBlocks:       ipBlocks,
		tokenGenerator: tokenGenerator,
		keyProvider:    keyProvider,
		logger:         logger,
	}
}

// LoginInput carries the credentials and client metadata for a login attempt.
type LoginInput struct {
	Email         string
	Password      string
	TwoFactorCode string
	IP            string
	UserAgent     string
}

// LoginResult is the token pair issued after successful authentication.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         domain.User
}

// Login validates credentials and issues an access/refresh token pair.
// The lockout check runs before credential verification, and every attempt is
// appended to the login attempt ledger regardless of outcome.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if input.Password == "" {
		return nil, fmt.Errorf("password is required")
	}

	now := time.Now().UTC()

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.recordAttempt(ctx, nil, email, domain.LoginAttemptFailed, "unknown_email", input)
			s.blockIPAfterRepeatedFailures(ctx, input.IP)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if user.IsLocked(now) {
		s.recordAttempt(ctx, &user.ID, email, domain.LoginAttemptBlocked, "account_locked", input)
		return nil, ErrAccountLocked
	}

	if !user.IsActive {
		s.recordAttempt(ctx, &user.ID, email, domain.LoginAttemptBlocked, "account_inactive", input)
		return nil, ErrInactiveAccount
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		locked := user.RecordFailure(now, s.maxFailedLogins(), s.lockoutDuration())
		if err := s.users.UpdateLoginState(ctx, *user); err != nil {
			return nil, fmt.Errorf("update login state: %w", err)
		}
		s.recordAttempt(ctx, &user.ID, email, domain.LoginAttemptFailed, "bad_password", input)
		s.blockIPAfterRepeatedFailures(ctx, input.IP)
		if locked {
			s.recordSecurityEvent(ctx, user.ID, domain.SecurityEventAccountLocked, input, map[string]any{
				"failed_attempts": user.FailedLoginAttempts,
			})
			s.publishAccountLocked(ctx, user, input.IP)
		}
		return nil, ErrInvalidCredentials
	}

	if user.TwoFactorEnabled {
		code := strings.TrimSpace(input.TwoFactorCode)
		if code == "" {
			return nil, ErrTwoFactorRequired
		}
		if err := s.verifyTwoFactor(ctx, user.ID, code, now); err != nil {
			s.recordAttempt(ctx, &user.ID, email, domain.LoginAttemptFailed, "invalid_totp", input)
			s.blockIPAfterRepeatedFailures(ctx, input.IP)
			return nil, err
		}
	}

	ip := optionalString(input.IP)
	user.RecordSuccess(now, ip)
	if err := s.users.UpdateLoginState(ctx, *user); err != nil {
		return nil, fmt.Errorf("update login state: %w", err)
	}
	s.recordAttempt(ctx, &user.ID, email, domain.LoginAttemptSuccess, "", input)
	s.recordSecurityEvent(ctx, user.ID, domain.SecurityEventLogin, input, nil)

	accessToken, err := s.IssueToken(ctx, *user)
	if err != nil {
		return nil, err
	}
	refreshToken, _, err := s.IssueRefreshToken(ctx, *user, input.IP, input.UserAgent)
	if err != nil {
		return nil, err
	}

	sanitized := *user
	sanitized.PasswordHash = ""

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         sanitized,
	}, nil
}

func (s *AuthService) verifyTwoFactor(ctx context.Context, userID, code string, now time.Time) error {
	if s.totpDevices == nil || s.totp == nil {
		return fmt.Errorf("two-factor verification not configured")
	}

	device, err := s.totpDevices.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidTwoFactorCode
		}
		return fmt.Errorf("lookup totp device: %w", err)
	}
	if !device.Confirmed {
		return ErrInvalidTwoFactorCode
	}
	if !s.totp.VerifyCode(device.Secret, code) {
		return ErrInvalidTwoFactorCode
	}

	if err := s.totpDevices.TouchLastUsed(ctx, device.ID, now); err != nil {
		s.logger.Warn("touch totp device failed", zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}

// Logout revokes the presented refresh token and records the audit event.
func (s *AuthService) Logout(ctx context.Context, refreshToken, ip, userAgent string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return fmt.Errorf("refresh token is required")
	}
	if s.tokens == nil {
		return ErrRefreshTokenUnavailable
	}

	hash := security.HashToken(refreshToken)
	record, err := s.tokens.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidRefreshToken
		}
		return fmt.Errorf("lookup refresh token: %w", err)
	}

	if err := s.tokens.RevokeRefreshToken(ctx, record.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	s.recordSecurityEvent(ctx, record.UserID, domain.SecurityEventLogout, LoginInput{IP: ip, UserAgent: userAgent}, nil)
	return nil
}

// IssueToken issues a JWT access token for the authenticated user.
func (s *AuthService) IssueToken(_ context.Context, user domain.User) (string, error) {
	if user.ID == "" {
		return "", fmt.Errorf("user id is required")
	}

	now := time.Now().UTC()
	ttl := s.cfg.JWT.AccessTokenTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	claimAudience := jwt.ClaimStrings{}
	if s.cfg.App.Name != "" {
		claimAudience = append(claimAudience, s.cfg.App.Name)
	}

	claims := AccessTokenClaims{
		UserID:  user.ID,
		Email:   user.Email,
		IsStaff: user.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.cfg.App.Name,
			Audience:  claimAudience,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.tokenGenerator.GetKID()

	signingKey, err := s.keyProvider.GetSigningKey()
	if err != nil {
		return "", fmt.Errorf("get signing key: %w", err)
	}

	signed, err := token.SignedString(signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// AccessTokenTTLSeconds exposes the configured access token lifetime for API responses.
func (s *AuthService) AccessTokenTTLSeconds() int {
	ttl := s.cfg.JWT.AccessTokenTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return int(ttl.Seconds())
}

// ParseAccessToken validates the JWT access token and returns its claims.
func (s *AuthService) ParseAccessToken(token string) (*AccessTokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("access token is required")
	}

	claims := &AccessTokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}

		kid, ok := t.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("kid header not found")
		}

		return s.keyProvider.GetVerificationKey(kid)
	}, jwt.WithIssuer(s.cfg.App.Name), jwt.WithAudience(s.cfg.App.Name))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredAccessToken
		}
		return nil, ErrInvalidAccessToken
	}

	if parsed == nil || !parsed.Valid {
		return nil, ErrInvalidAccessToken
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return nil, ErrInvalidAccessToken
	}

	return claims, nil
}

// AccessTokenClaims augments registered claims with account context.
type AccessTokenClaims struct {
	UserID  string `json:"uid"`
	Email   string `json:"email,omitempty"`
	IsStaff bool   `json:"staff,omitempty"`
	jwt.RegisteredClaims
}

// IssueRefreshToken creates and persists a new refresh token for the supplied user.
func (s *AuthService) IssueRefreshToken(ctx context.Context, user domain.User, ip, userAgent string) (string, *domain.RefreshToken, error) {
	if user.ID == "" {
		return "", nil, fmt.Errorf("user id is required")
	}
	if s.tokens == nil {
		return "", nil, ErrRefreshTokenUnavailable
	}

	raw, err := security.GenerateSecureToken(32)
	if err != nil {
		return "", nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := time.Now().UTC()
	ttl := s.cfg.JWT.RefreshTokenTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	record := domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: security.HashToken(raw),
		IP:        optionalString(ip),
		UserAgent: optionalString(userAgent),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if err := s.tokens.CreateRefreshToken(ctx, record); err != nil {
		return "", nil, fmt.Errorf("store refresh token: %w", err)
	}

	return raw, &record, nil
}

// RefreshAccessToken validates the provided refresh token, rotates it, and issues a new access token.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken, ip, userAgent string) (string, string, domain.User, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return "", "", domain.User{}, fmt.Errorf("refresh token is required")
	}
	if s.tokens == nil {
		return "", "", domain.User{}, ErrRefreshTokenUnavailable
	}

	hash := security.HashToken(refreshToken)
	record, err := s.tokens.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", "", domain.User{}, ErrInvalidRefreshToken
		}
		return "", "", domain.User{}, fmt.Errorf("lookup refresh token: %w", err)
	}

	if record.RevokedAt != nil || record.UsedAt != nil {
		return "", "", domain.User{}, ErrInvalidRefreshToken
	}
	if time.Now().UTC().After(record.ExpiresAt) {
		return "", "", domain.User{}, ErrExpiredRefreshToken
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", "", domain.User{}, ErrInvalidRefreshToken
		}
		return "", "", domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if !user.IsActive {
		return "", "", domain.User{}, ErrInactiveAccount
	}
	if user.IsLocked(time.Now().UTC()) {
		return "", "", domain.User{}, ErrAccountLocked
	}

	accessToken, err := s.IssueToken(ctx, *user)
	if err != nil {
		return "", "", domain.User{}, err
	}

	newRefreshToken, _, err := s.IssueRefreshToken(ctx, *user, ip, userAgent)
	if err != nil {
		return "", "", domain.User{}, err
	}

	if err := s.tokens.RevokeRefreshToken(ctx, record.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", "", domain.User{}, fmt.Errorf("revoke refresh token: %w", err)
	}

	sanitized := *user
	sanitized.PasswordHash = ""

	return accessToken, newRefreshToken, sanitized, nil
}

func (s *AuthService) maxFailedLogins() int {
	if s.cfg != nil && s.cfg.Security.MaxFailedLogins > 0 {
		return s.cfg.Security.MaxFailedLogins
	}
	return 5
}

func (s *AuthService) lockoutDuration() time.Duration {
	if s.cfg != nil && s.cfg.Security.LockoutDuration > 0 {
		return s.cfg.Security.LockoutDuration
	}
	return 30 * time.Minute
}

func (s *AuthService) ipBlockThreshold() int {
	if s.cfg != nil && s.cfg.Security.IPBlockThreshold > 0 {
		return s.cfg.Security.IPBlockThreshold
	}
	return 10
}

func (s *AuthService) ipBlockDuration() time.Duration {
	if s.cfg != nil && s.cfg.Security.IPBlockDuration > 0 {
		return s.cfg.Security.IPBlockDuration
	}
	return time.Hour
}

// blockIPAfterRepeatedFailures counts failed attempts from the address within
// the block window and installs a temporary block at the threshold. Best
// effort: counting or blocking errors are logged and the login response is
// unaffected.
func (s *AuthService) blockIPAfterRepeatedFailures(ctx context.Context, ip string) {
	ip = strings.TrimSpace(ip)
	if s.ipBlocks == nil || s.attempts == nil || ip == "" {
		return
	}

	window := s.ipBlockDuration()
	count, err := s.attempts.CountRecentFailures(ctx, ip, time.Now().UTC().Add(-window))
	if err != nil {
		s.logger.Warn("count recent login failures failed", zap.String("ip", applogger.MaskIP(ip)), zap.Error(err))
		return
	}
	if count < s.ipBlockThreshold() {
		return
	}

	if err := s.ipBlocks.Block(ctx, ip, window); err != nil {
		s.logger.Warn("block ip failed", zap.String("ip", applogger.MaskIP(ip)), zap.Error(err))
		return
	}

	s.logger.Warn("ip temporarily blocked after repeated login failures",
		zap.String("ip", applogger.MaskIP(ip)),
		zap.Int("failed_attempts", count),
		zap.Duration("block_duration", window),
	)
}

func (s *AuthService) recordAttempt(ctx context.Context, userID *string, email string, outcome domain.LoginAttemptOutcome, reason string, input LoginInput) {
	if s.attempts == nil {
		return
	}

	attempt := domain.LoginAttempt{
		ID:        uuid.NewString(),
		UserID:    userID,
		Email:     email,
		Outcome:   outcome,
		IP:        optionalString(input.IP),
		UserAgent: optionalString(input.UserAgent),
		CreatedAt: time.Now().UTC(),
	}
	if reason != "" {
		attempt.FailureReason = &reason
	}

	if err := s.attempts.Create(ctx, attempt); err != nil {
		s.logger.Warn("record login attempt failed", zap.String("outcome", string(outcome)), zap.Error(err))
	}
}

func (s *AuthService) recordSecurityEvent(ctx context.Context, userID string, eventType domain.SecurityEventType, input LoginInput, details map[string]any) {
	if s.securityEvents == nil {
		return
	}

	event := domain.SecurityEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		EventType: eventType,
		IP:        optionalString(input.IP),
		UserAgent: optionalString(input.UserAgent),
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.securityEvents.Create(ctx, event); err != nil {
		s.logger.Warn("record security event failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func (s *AuthService) publishAccountLocked(ctx context.Context, user *domain.User, ip string) {
	if s.events == nil || user.LockedUntil == nil {
		return
	}

	event := domain.AccountLockedEvent{
		EventID:        uuid.NewString(),
		UserID:         user.ID,
		FailedAttempts: user.FailedLoginAttempts,
		LockedUntil:    *user.LockedUntil,
		IPAddress:      optionalString(ip),
		LockedAt:       time.Now().UTC(),
	}

	if err := s.events.PublishAccountLocked(ctx, event); err != nil {
		s.logger.Warn("publish account locked event failed", zap.String("user_id", user.ID), zap.Error(err))
	}
}

// optionalString maps blank client metadata (IP, user agent) to NULL.
func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
