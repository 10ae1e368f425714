package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	uuid "github.com/google/uuid"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/infra/security"
)

type passwordFixture struct {
	service *PasswordService
	users   *fakeUserRepo
	tokens  *fakeTokenRepo
	user    domain.User
}

func newPasswordFixture(t *testing.T) *passwordFixture {
	t.Helper()

	hash, err := security.HashPassword(strongTestPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        "shopper@example.com",
		PasswordHash: hash,
		IsActive:     true,
	}

	fixture := &passwordFixture{
		users:  newFakeUserRepo(user),
		tokens: newFakeTokenRepo(),
		user:   user,
	}
	fixture.service = NewPasswordService(fixture.users, fixture.tokens, &fakeSecurityEventRepo{}, &fakeEventPublisher{}, nil, nil)
	return fixture
}

func TestInitiateResetHidesUnknownEmail(t *testing.T) {
	fixture := newPasswordFixture(t)

	result, err := fixture.service.InitiateReset(context.Background(), "nobody@example.com", "", "")
	if err != nil {
		t.Fatalf("expected nil error for unknown email, got %v", err)
	}
	if result != nil {
		t.Fatal("unknown email must not yield a reset artifact")
	}
}

func TestConfirmResetInstallsNewPasswordAndRevokesSessions(t *testing.T) {
	fixture := newPasswordFixture(t)
	ctx := context.Background()

	refresh := domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    fixture.user.ID,
		TokenHash: security.HashToken("old-session"),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	if err := fixture.tokens.CreateRefreshToken(ctx, refresh); err != nil {
		t.Fatalf("seed refresh token: %v", err)
	}

	result, err := fixture.service.InitiateReset(ctx, fixture.user.Email, "", "")
	if err != nil {
		t.Fatalf("initiate reset: %v", err)
	}
	if result == nil || result.Token == "" {
		t.Fatal("expected a reset token for a known account")
	}

	const newPassword = "Quartz!Meadow-77 run"
	if err := fixture.service.ConfirmReset(ctx, result.Token, newPassword, "", ""); err != nil {
		t.Fatalf("confirm reset: %v", err)
	}

	stored, err := fixture.users.GetByID(ctx, fixture.user.ID)
	if err != nil {
		t.Fatalf("lookup user: %v", err)
	}
	ok, err := security.VerifyPassword(newPassword, stored.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("new password does not verify (ok=%v err=%v)", ok, err)
	}

	for _, token := range fixture.tokens.refresh {
		if token.RevokedAt == nil {
			t.Fatal("expected all refresh tokens to be revoked after reset")
		}
	}

	// The token is single use.
	if err := fixture.service.ConfirmReset(ctx, result.Token, newPassword, "", ""); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid on reuse, got %v", err)
	}
}

func TestConfirmResetRejectsExpiredToken(t *testing.T) {
	fixture := newPasswordFixture(t)
	ctx := context.Background()

	result, err := fixture.service.InitiateReset(ctx, fixture.user.Email, "", "")
	if err != nil {
		t.Fatalf("initiate reset: %v", err)
	}

	for _, token := range fixture.tokens.resets {
		token.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	}

	err = fixture.service.ConfirmReset(ctx, result.Token, "Quartz!Meadow-77 run", "", "")
	if !errors.Is(err, ErrResetTokenExpired) {
		t.Fatalf("expected ErrResetTokenExpired, got %v", err)
	}
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	fixture := newPasswordFixture(t)
	ctx := context.Background()

	err := fixture.service.ChangePassword(ctx, fixture.user.ID, "not the password", "Quartz!Meadow-77 run", "", "")
	if !errors.Is(err, ErrWrongCurrentPassword) {
		t.Fatalf("expected ErrWrongCurrentPassword, got %v", err)
	}

	err = fixture.service.ChangePassword(ctx, fixture.user.ID, strongTestPassword, strongTestPassword, "", "")
	if !errors.Is(err, ErrPasswordPolicyViolation) {
		t.Fatalf("expected rejection of unchanged password, got %v", err)
	}

	if err := fixture.service.ChangePassword(ctx, fixture.user.ID, strongTestPassword, "Quartz!Meadow-77 run", "", ""); err != nil {
		t.Fatalf("change password: %v", err)
	}
}
