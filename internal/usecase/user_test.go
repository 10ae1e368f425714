package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
)

func newUserFixture(t *testing.T) (*UserService, *fakeUserRepo, *fakeSecurityEventRepo) {
	t.Helper()

	user := domain.User{
		ID:               "user-profile",
		Email:            "shopper@example.com",
		PasswordHash:     "argon2-hash",
		FirstName:        "Nadia",
		LastName:         "Okafor",
		MarketingConsent: true,
		IsActive:         true,
		RegisteredAt:     time.Now().UTC().Add(-time.Hour),
	}
	users := newFakeUserRepo(user)
	audit := &fakeSecurityEventRepo{}
	return NewUserService(users, audit, nil), users, audit
}

func TestGetProfileSanitizesPasswordHash(t *testing.T) {
	service, _, _ := newUserFixture(t)

	profile, err := service.GetProfile(context.Background(), "user-profile")
	if err != nil {
		t.Fatalf("GetProfile returned %v", err)
	}
	if profile.PasswordHash != "" {
		t.Fatal("password hash must not leave the service")
	}
	if profile.Email != "shopper@example.com" {
		t.Fatalf("email = %q", profile.Email)
	}

	if _, err := service.GetProfile(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestUpdateProfileAppliesOnlyProvidedFields(t *testing.T) {
	service, users, audit := newUserFixture(t)
	ctx := context.Background()

	consent := false
	updated, err := service.UpdateProfile(ctx, "user-profile", ProfileUpdateInput{
		FirstName:        "  Amara ",
		Phone:            "+14155550123",
		MarketingConsent: &consent,
		IP:               "203.0.113.9",
		UserAgent:        "test-agent",
	})
	if err != nil {
		t.Fatalf("UpdateProfile returned %v", err)
	}

	if updated.FirstName != "Amara" {
		t.Fatalf("first name = %q, want trimmed Amara", updated.FirstName)
	}
	if updated.LastName != "Okafor" {
		t.Fatalf("omitted last name changed to %q", updated.LastName)
	}
	if updated.Phone == nil || *updated.Phone != "+14155550123" {
		t.Fatal("phone was not stored")
	}
	if updated.MarketingConsent {
		t.Fatal("consent flag was not cleared")
	}
	if updated.PasswordHash != "" {
		t.Fatal("password hash must not leave the service")
	}

	stored, err := users.GetByID(ctx, "user-profile")
	if err != nil {
		t.Fatalf("GetByID returned %v", err)
	}
	if stored.FirstName != "Amara" || stored.MarketingConsent {
		t.Fatal("repository copy was not updated")
	}
	if !audit.hasEvent(domain.SecurityEventProfileUpdated) {
		t.Fatal("missing profile_updated audit event")
	}
}

func TestListSecurityEventsClampsLimit(t *testing.T) {
	service, _, audit := newUserFixture(t)
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		event := domain.SecurityEvent{
			ID:        "evt",
			UserID:    "user-profile",
			EventType: domain.SecurityEventProfileUpdated,
			CreatedAt: time.Now().UTC(),
		}
		if err := audit.Create(ctx, event); err != nil {
			t.Fatalf("seed event: %v", err)
		}
	}

	events, err := service.ListSecurityEvents(ctx, "user-profile", 0)
	if err != nil {
		t.Fatalf("ListSecurityEvents returned %v", err)
	}
	if len(events) != 20 {
		t.Fatalf("out-of-range limit should default to 20, got %d", len(events))
	}

	events, err = service.ListSecurityEvents(ctx, "user-profile", 5)
	if err != nil {
		t.Fatalf("ListSecurityEvents returned %v", err)
	}
	if len(events) != 5 {
		t.Fatalf("limit 5 returned %d events", len(events))
	}

	if _, err := service.ListSecurityEvents(ctx, "", 5); err == nil {
		t.Fatal("expected error for missing user id")
	}
}
