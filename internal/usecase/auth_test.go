package usecase

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	uuid "github.com/google/uuid"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/infra/config"
	"github.com/arklim/social-platform-commerce/internal/infra/security"
)

// createTestKeyProvider creates a temporary RSA key pair and key provider for tests
func createTestKeyProvider(t *testing.T) security.KeyProvider {
	t.Helper()

	tmpDir := t.TempDir()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}

	privateKeyPath := filepath.Join(tmpDir, "v1.pem")
	privateKeyPEM := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	}
	privateKeyFile, err := os.Create(privateKeyPath)
	if err != nil {
		t.Fatalf("failed to create private key file: %v", err)
	}
	if err := pem.Encode(privateKeyFile, privateKeyPEM); err != nil {
		t.Fatalf("failed to encode private key: %v", err)
	}
	privateKeyFile.Close()

	publicKeyPath := filepath.Join(tmpDir, "public.pem")
	publicKeyPEM := &pem.Block{
		Type:  "RSA PUBLIC KEY",
		Bytes: x509.MarshalPKCS1PublicKey(&privateKey.PublicKey),
	}
	publicKeyFile, err := os.Create(publicKeyPath)
	if err != nil {
		t.Fatalf("failed to create public key file: %v", err)
	}
	if err := pem.Encode(publicKeyFile, publicKeyPEM); err != nil {
		t.Fatalf("failed to encode public key: %v", err)
	}
	publicKeyFile.Close()

	keyProvider, err := security.NewDevKeyProvider(tmpDir)
	if err != nil {
		t.Fatalf("failed to create key provider: %v", err)
	}

	return keyProvider
}

type authFixture struct {
	service  *AuthService
	users    *fakeUserRepo
	attempts *fakeAttemptRepo
	audit    *fakeSecurityEventRepo
	tokens   *fakeTokenRepo
	devices  *fakeTOTPDeviceRepo
	totp     *fakeTOTPProvider
	events   *fakeEventPublisher
	ipBlocks *fakeIPBlockStore
	user     domain.User
}

func newAuthFixture(t *testing.T, mutate func(*domain.User)) *authFixture {
	t.Helper()

	hash, err := security.HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        "shopper@example.com",
		PasswordHash: hash,
		FirstName:    "Sam",
		LastName:     "Lee",
		IsActive:     true,
		RegisteredAt: time.Now().UTC(),
	}
	if mutate != nil {
		mutate(&user)
	}

	keyProvider := createTestKeyProvider(t)
	tokenGenerator, err := security.NewTokenGenerator(keyProvider, "v1")
	if err != nil {
		t.Fatalf("create token generator: %v", err)
	}

	cfg := &config.AppConfig{
		App: config.AppSettings{Name: "commerce-test"},
		JWT: config.JWTSettings{AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour},
		Security: config.SecuritySettings{
			MaxFailedLogins:  3,
			LockoutDuration:  30 * time.Minute,
			IPBlockThreshold: 4,
			IPBlockDuration:  time.Hour,
		},
	}

	fixture := &authFixture{
		users:    newFakeUserRepo(user),
		attempts: &fakeAttemptRepo{},
		audit:    &fakeSecurityEventRepo{},
		tokens:   newFakeTokenRepo(),
		devices:  newFakeTOTPDeviceRepo(),
		totp:     &fakeTOTPProvider{secret: "SECRET", acceptCode: "123456"},
		events:   &fakeEventPublisher{},
		ipBlocks: newFakeIPBlockStore(),
		user:     user,
	}
	fixture.service = NewAuthService(
		cfg,
		fixture.users,
		fixture.attempts,
		fixture.audit,
		fixture.tokens,
		fixture.devices,
		fixture.totp,
		fixture.events,
		fixture.ipBlocks,
		tokenGenerator,
		keyProvider,
		nil,
	)
	return fixture
}

func TestLoginLocksAccountAfterRepeatedFailures(t *testing.T) {
	fixture := newAuthFixture(t, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := fixture.service.Login(ctx, LoginInput{
			Email:    fixture.user.Email,
			Password: "wrong password",
			IP:       "203.0.113.7",
		})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	stored, err := fixture.users.GetByID(ctx, fixture.user.ID)
	if err != nil {
		t.Fatalf("lookup user: %v", err)
	}
	if stored.LockedUntil == nil {
		t.Fatal("expected account to be locked after threshold failures")
	}
	if fixture.events.locked != 1 {
		t.Fatalf("expected one account locked event, got %d", fixture.events.locked)
	}
	if !fixture.audit.hasEvent(domain.SecurityEventAccountLocked) {
		t.Fatal("expected account_locked audit entry")
	}

	// Even the correct password is rejected while the lockout holds.
	_, err = fixture.service.Login(ctx, LoginInput{
		Email:    fixture.user.Email,
		Password: "correct horse battery",
	})
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
}

func TestLoginBlocksAddressAfterRepeatedFailures(t *testing.T) {
	fixture := newAuthFixture(t, nil)
	ctx := context.Background()
	const ip = "198.51.100.9"

	for i := 0; i < 3; i++ {
		_, err := fixture.service.Login(ctx, LoginInput{
			Email:    "ghost@example.com",
			Password: "whatever",
			IP:       ip,
		})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}
	if blocked, _ := fixture.ipBlocks.IsBlocked(ctx, ip); blocked {
		t.Fatal("address blocked before reaching the threshold")
	}

	_, err := fixture.service.Login(ctx, LoginInput{
		Email:    "ghost@example.com",
		Password: "whatever",
		IP:       ip,
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	ttl, ok := fixture.ipBlocks.blocked[ip]
	if !ok {
		t.Fatal("expected address to be blocked after threshold failures")
	}
	if ttl != time.Hour {
		t.Fatalf("expected block ttl %v, got %v", time.Hour, ttl)
	}
}

func TestLoginSuccessIssuesTokensAndResetsCounter(t *testing.T) {
	fixture := newAuthFixture(t, func(u *domain.User) {
		u.FailedLoginAttempts = 2
		u.IsStaff = true
	})
	ctx := context.Background()

	result, err := fixture.service.Login(ctx, LoginInput{
		Email:    fixture.user.Email,
		Password: "correct horse battery",
		IP:       "198.51.100.4",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if result.User.PasswordHash != "" {
		t.Fatal("password hash must not leave the service")
	}

	stored, err := fixture.users.GetByID(ctx, fixture.user.ID)
	if err != nil {
		t.Fatalf("lookup user: %v", err)
	}
	if stored.FailedLoginAttempts != 0 {
		t.Fatalf("expected failure counter reset, got %d", stored.FailedLoginAttempts)
	}
	if stored.LastLogin == nil {
		t.Fatal("expected last login to be stamped")
	}

	claims, err := fixture.service.ParseAccessToken(result.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != fixture.user.ID {
		t.Fatalf("expected uid %s, got %s", fixture.user.ID, claims.UserID)
	}
	if !claims.IsStaff {
		t.Fatal("expected staff claim to carry through")
	}
}

func TestLoginRequiresTwoFactorCode(t *testing.T) {
	fixture := newAuthFixture(t, func(u *domain.User) {
		u.TwoFactorEnabled = true
	})
	ctx := context.Background()

	device := domain.TOTPDevice{
		ID:        uuid.NewString(),
		UserID:    fixture.user.ID,
		Secret:    "SECRET",
		Confirmed: true,
		CreatedAt: time.Now().UTC(),
	}
	if err := fixture.devices.Create(ctx, device); err != nil {
		t.Fatalf("store device: %v", err)
	}

	_, err := fixture.service.Login(ctx, LoginInput{
		Email:    fixture.user.Email,
		Password: "correct horse battery",
	})
	if !errors.Is(err, ErrTwoFactorRequired) {
		t.Fatalf("expected ErrTwoFactorRequired, got %v", err)
	}

	_, err = fixture.service.Login(ctx, LoginInput{
		Email:         fixture.user.Email,
		Password:      "correct horse battery",
		TwoFactorCode: "000000",
	})
	if !errors.Is(err, ErrInvalidTwoFactorCode) {
		t.Fatalf("expected ErrInvalidTwoFactorCode, got %v", err)
	}

	result, err := fixture.service.Login(ctx, LoginInput{
		Email:         fixture.user.Email,
		Password:      "correct horse battery",
		TwoFactorCode: "123456",
	})
	if err != nil {
		t.Fatalf("login with valid code: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("expected access token after 2FA login")
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	fixture := newAuthFixture(t, nil)
	ctx := context.Background()

	result, err := fixture.service.Login(ctx, LoginInput{
		Email:    fixture.user.Email,
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	access, rotated, _, err := fixture.service.RefreshAccessToken(ctx, result.RefreshToken, "", "")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if access == "" || rotated == "" {
		t.Fatal("expected a fresh token pair")
	}
	if rotated == result.RefreshToken {
		t.Fatal("expected refresh token rotation")
	}

	// The presented token was revoked by the rotation.
	_, _, _, err = fixture.service.RefreshAccessToken(ctx, result.RefreshToken, "", "")
	if !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken on reuse, got %v", err)
	}
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	fixture := newAuthFixture(t, nil)
	ctx := context.Background()

	result, err := fixture.service.Login(ctx, LoginInput{
		Email:    fixture.user.Email,
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := fixture.service.Logout(ctx, result.RefreshToken, "", ""); err != nil {
		t.Fatalf("logout: %v", err)
	}

	_, _, _, err = fixture.service.RefreshAccessToken(ctx, result.RefreshToken, "", "")
	if !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}
}

func TestParseAccessTokenRejectsTampered(t *testing.T) {
	fixture := newAuthFixture(t, nil)

	token, err := fixture.service.IssueToken(context.Background(), fixture.user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := fixture.service.ParseAccessToken(tampered); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("expected ErrInvalidAccessToken, got %v", err)
	}
}
