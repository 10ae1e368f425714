package security

import (
	"errors"
	"testing"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

func assertViolationCode(t *testing.T, validator *PasswordValidator, password, wantCode string) {
	t.Helper()

	err := validator.Validate(password)
	if err == nil {
		t.Fatalf("expected %s violation for %q", wantCode, password)
	}

	var vErr *PasswordValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected PasswordValidationError, got %T", err)
	}
	if vErr.Code != wantCode {
		t.Fatalf("expected code %s, got %s", wantCode, vErr.Code)
	}
}

func TestDefaultPasswordValidatorAcceptsStrongPassword(t *testing.T) {
	validator := DefaultPasswordValidator()

	password := "Tr4verse!Maple#Orbit"
	if strength := zxcvbn.PasswordStrength(password, nil); strength.Score < defaultMinZxcvbnScore {
		t.Fatalf("fixture password unexpectedly weak: score=%d", strength.Score)
	}

	if err := validator.Validate(password); err != nil {
		t.Fatalf("expected password to pass validation, got %v", err)
	}
}

func TestDefaultPasswordValidatorViolations(t *testing.T) {
	validator := DefaultPasswordValidator()

	assertViolationCode(t, validator, "Ab1!", "min_length")
	assertViolationCode(t, validator, "lowercaseonlyphrase", "character_classes")
	assertViolationCode(t, validator, "Password123", "weak_password")
}

func TestPasswordValidatorWithUserContext(t *testing.T) {
	validator := NewPasswordValidatorWithContext("amara.okafor@example.com", "Amara")

	if err := validator.Validate("AmaraOkafor2026!"); err == nil {
		t.Fatal("expected password built from user details to be rejected")
	}
}

func TestCustomPasswordValidatorRules(t *testing.T) {
	validator := NewPasswordValidator(
		MinLengthRule(4),
		RequireSymbolRule(),
		RequireDifferentFrom("current-secret"),
	)

	if err := validator.Validate("current-secret"); err == nil {
		t.Fatal("expected rejection when new password matches the current one")
	}
	if err := validator.Validate("next"); err == nil {
		t.Fatal("expected rejection for missing symbol")
	}
	if err := validator.Validate("next!"); err != nil {
		t.Fatalf("expected password to pass custom rules, got %v", err)
	}
}
