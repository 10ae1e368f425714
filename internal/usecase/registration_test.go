package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
)

const strongTestPassword = "M4rina!Harbor-Kites"

type registrationFixture struct {
	service *RegistrationService
	users   *fakeUserRepo
	tokens  *fakeTokenRepo
	audit   *fakeSecurityEventRepo
	events  *fakeEventPublisher
}

func newRegistrationFixture() *registrationFixture {
	fixture := &registrationFixture{
		users:  newFakeUserRepo(),
		tokens: newFakeTokenRepo(),
		audit:  &fakeSecurityEventRepo{},
		events: &fakeEventPublisher{},
	}
	fixture.service = NewRegistrationService(fixture.users, fixture.tokens, fixture.audit, fixture.events, nil, nil)
	return fixture
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Email:                 "new.shopper@example.com",
		Password:              strongTestPassword,
		FirstName:             "Noor",
		LastName:              "Haddad",
		DataProcessingConsent: true,
	}
}

func TestRegisterUserRequiresConsent(t *testing.T) {
	fixture := newRegistrationFixture()

	input := validRegisterInput()
	input.DataProcessingConsent = false

	_, _, err := fixture.service.RegisterUser(context.Background(), input)
	if !errors.Is(err, ErrConsentRequired) {
		t.Fatalf("expected ErrConsentRequired, got %v", err)
	}
}

func TestRegisterUserRejectsWeakPassword(t *testing.T) {
	fixture := newRegistrationFixture()

	input := validRegisterInput()
	input.Password = "password1"

	_, _, err := fixture.service.RegisterUser(context.Background(), input)
	if !errors.Is(err, ErrPasswordPolicyViolation) {
		t.Fatalf("expected ErrPasswordPolicyViolation, got %v", err)
	}
}

func TestRegisterUserRejectsDuplicateEmail(t *testing.T) {
	fixture := newRegistrationFixture()
	ctx := context.Background()

	if _, _, err := fixture.service.RegisterUser(ctx, validRegisterInput()); err != nil {
		t.Fatalf("first registration: %v", err)
	}

	_, _, err := fixture.service.RegisterUser(ctx, validRegisterInput())
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterUserIssuesVerificationToken(t *testing.T) {
	fixture := newRegistrationFixture()
	ctx := context.Background()

	user, verification, err := fixture.service.RegisterUser(ctx, validRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.EmailVerified {
		t.Fatal("account must start unverified")
	}
	if verification.Token == "" {
		t.Fatal("expected a verification token")
	}
	if !verification.ExpiresAt.After(time.Now().UTC()) {
		t.Fatal("verification token must not be born expired")
	}
	if fixture.events.registered != 1 {
		t.Fatalf("expected one registration event, got %d", fixture.events.registered)
	}
}

func TestVerifyEmailIsSingleUse(t *testing.T) {
	fixture := newRegistrationFixture()
	ctx := context.Background()

	_, verification, err := fixture.service.RegisterUser(ctx, validRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	verified, err := fixture.service.VerifyEmail(ctx, verification.Token, "", "")
	if err != nil {
		t.Fatalf("verify email: %v", err)
	}
	if !verified.EmailVerified {
		t.Fatal("expected verified flag to be set")
	}
	if !fixture.audit.hasEvent(domain.SecurityEventEmailVerified) {
		t.Fatal("expected email_verified audit entry")
	}

	_, err = fixture.service.VerifyEmail(ctx, verification.Token, "", "")
	if !errors.Is(err, ErrVerificationTokenInvalid) {
		t.Fatalf("expected second redemption to fail, got %v", err)
	}
}

func TestVerifyEmailRejectsExpiredToken(t *testing.T) {
	fixture := newRegistrationFixture()
	ctx := context.Background()

	_, verification, err := fixture.service.RegisterUser(ctx, validRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, token := range fixture.tokens.verifications {
		token.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	}

	_, err = fixture.service.VerifyEmail(ctx, verification.Token, "", "")
	if !errors.Is(err, ErrVerificationTokenExpired) {
		t.Fatalf("expected ErrVerificationTokenExpired, got %v", err)
	}
}
