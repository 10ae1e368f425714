package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
)

type twoFactorFixture struct {
	service *TwoFactorService
	users   *fakeUserRepo
	devices *fakeTOTPDeviceRepo
	audit   *fakeSecurityEventRepo
	events  *fakeEventPublisher
	userID  string
}

func newTwoFactorFixture(t *testing.T, mutate func(*domain.User)) *twoFactorFixture {
	t.Helper()

	user := domain.User{
		ID:           "user-2fa",
		Email:        "shopper@example.com",
		FirstName:    "Nadia",
		LastName:     "Okafor",
		IsActive:     true,
		RegisteredAt: time.Now().UTC().Add(-time.Hour),
	}
	if mutate != nil {
		mutate(&user)
	}

	fixture := &twoFactorFixture{
		users:   newFakeUserRepo(user),
		devices: newFakeTOTPDeviceRepo(),
		audit:   &fakeSecurityEventRepo{},
		events:  &fakeEventPublisher{},
		userID:  user.ID,
	}
	fixture.service = NewTwoFactorService(
		fixture.users,
		fixture.devices,
		fixture.audit,
		&fakeTOTPProvider{secret: "JBSWY3DPEHPK3PXP", acceptCode: "654321"},
		fixture.events,
		nil,
	)
	return fixture
}

func TestBeginEnrollmentReplacesPendingDevice(t *testing.T) {
	fixture := newTwoFactorFixture(t, nil)
	ctx := context.Background()

	first, err := fixture.service.BeginEnrollment(ctx, fixture.userID, "")
	if err != nil {
		t.Fatalf("BeginEnrollment returned %v", err)
	}
	if first.Secret == "" {
		t.Fatal("expected a secret for the authenticator app")
	}
	if !strings.Contains(first.ProvisioningURI, "shopper@example.com") {
		t.Fatalf("provisioning URI %q does not reference the account", first.ProvisioningURI)
	}

	device, err := fixture.devices.GetByUserID(ctx, fixture.userID)
	if err != nil {
		t.Fatalf("expected pending device: %v", err)
	}
	if device.Confirmed {
		t.Fatal("enrollment must start unconfirmed")
	}
	if device.Name != "authenticator" {
		t.Fatalf("blank device name should default, got %q", device.Name)
	}
	firstID := device.ID

	if _, err := fixture.service.BeginEnrollment(ctx, fixture.userID, "phone"); err != nil {
		t.Fatalf("re-enrollment over a pending device returned %v", err)
	}
	device, err = fixture.devices.GetByUserID(ctx, fixture.userID)
	if err != nil {
		t.Fatalf("expected replacement device: %v", err)
	}
	if device.ID == firstID {
		t.Fatal("pending device was not replaced")
	}
	if device.Name != "phone" {
		t.Fatalf("device name = %q, want phone", device.Name)
	}
}

func TestBeginEnrollmentRejectsConfirmedDevice(t *testing.T) {
	fixture := newTwoFactorFixture(t, func(u *domain.User) {
		u.TwoFactorEnabled = true
	})
	ctx := context.Background()

	if _, err := fixture.service.BeginEnrollment(ctx, fixture.userID, ""); !errors.Is(err, ErrTwoFactorAlreadyEnabled) {
		t.Fatalf("expected ErrTwoFactorAlreadyEnabled, got %v", err)
	}
}

func TestConfirmEnrollmentEnablesTwoFactor(t *testing.T) {
	fixture := newTwoFactorFixture(t, nil)
	ctx := context.Background()

	err := fixture.service.ConfirmEnrollment(ctx, fixture.userID, "654321", "203.0.113.9", "test-agent")
	if !errors.Is(err, ErrNoPendingEnrollment) {
		t.Fatalf("confirmation without enrollment should fail, got %v", err)
	}

	if _, err := fixture.service.BeginEnrollment(ctx, fixture.userID, "phone"); err != nil {
		t.Fatalf("BeginEnrollment returned %v", err)
	}

	if err := fixture.service.ConfirmEnrollment(ctx, fixture.userID, "000000", "203.0.113.9", "test-agent"); !errors.Is(err, ErrInvalidTwoFactorCode) {
		t.Fatalf("wrong code should be rejected, got %v", err)
	}

	if err := fixture.service.ConfirmEnrollment(ctx, fixture.userID, " 654321 ", "203.0.113.9", "test-agent"); err != nil {
		t.Fatalf("ConfirmEnrollment returned %v", err)
	}

	user, err := fixture.users.GetByID(ctx, fixture.userID)
	if err != nil {
		t.Fatalf("GetByID returned %v", err)
	}
	if !user.TwoFactorEnabled {
		t.Fatal("account flag was not set")
	}
	device, err := fixture.devices.GetByUserID(ctx, fixture.userID)
	if err != nil {
		t.Fatalf("GetByUserID returned %v", err)
	}
	if !device.Confirmed {
		t.Fatal("device was not confirmed")
	}
	if !fixture.audit.hasEvent(domain.SecurityEvent2FAEnabled) {
		t.Fatal("missing 2fa_enabled audit event")
	}
	if fixture.events.twoFactor != 1 {
		t.Fatalf("published %d state change events, want 1", fixture.events.twoFactor)
	}

	if err := fixture.service.ConfirmEnrollment(ctx, fixture.userID, "654321", "203.0.113.9", "test-agent"); !errors.Is(err, ErrTwoFactorAlreadyEnabled) {
		t.Fatalf("re-confirmation should fail, got %v", err)
	}
}

func TestDisableRemovesDeviceAndClearsFlag(t *testing.T) {
	fixture := newTwoFactorFixture(t, nil)
	ctx := context.Background()

	if err := fixture.service.Disable(ctx, fixture.userID, "654321", "203.0.113.9", "test-agent"); !errors.Is(err, ErrTwoFactorNotEnabled) {
		t.Fatalf("disable without enrollment should fail, got %v", err)
	}

	if _, err := fixture.service.BeginEnrollment(ctx, fixture.userID, "phone"); err != nil {
		t.Fatalf("BeginEnrollment returned %v", err)
	}
	if err := fixture.service.ConfirmEnrollment(ctx, fixture.userID, "654321", "203.0.113.9", "test-agent"); err != nil {
		t.Fatalf("ConfirmEnrollment returned %v", err)
	}

	if err := fixture.service.Disable(ctx, fixture.userID, "999999", "203.0.113.9", "test-agent"); !errors.Is(err, ErrInvalidTwoFactorCode) {
		t.Fatalf("wrong code should be rejected, got %v", err)
	}

	if err := fixture.service.Disable(ctx, fixture.userID, "654321", "203.0.113.9", "test-agent"); err != nil {
		t.Fatalf("Disable returned %v", err)
	}

	user, err := fixture.users.GetByID(ctx, fixture.userID)
	if err != nil {
		t.Fatalf("GetByID returned %v", err)
	}
	if user.TwoFactorEnabled {
		t.Fatal("account flag was not cleared")
	}
	if _, err := fixture.devices.GetByUserID(ctx, fixture.userID); err == nil {
		t.Fatal("device should be removed")
	}
	if !fixture.audit.hasEvent(domain.SecurityEvent2FADisabled) {
		t.Fatal("missing 2fa_disabled audit event")
	}
	if fixture.events.twoFactor != 2 {
		t.Fatalf("published %d state change events, want 2", fixture.events.twoFactor)
	}
}
