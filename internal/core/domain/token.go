package domain

import "time"

// RefreshToken represents a persisted refresh token (stored as a hash).
// Rotation revokes the presented token and issues a replacement.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	IP        *string
	UserAgent *string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
	RevokedAt *time.Time
}

// IsExpired reports whether the token has elapsed its validity window.
func (t RefreshToken) IsExpired(at time.Time) bool {
	return !t.ExpiresAt.After(at)
}

// IsRevoked reports whether the token has been explicitly revoked.
func (t RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsActive returns true when the token can still be presented for rotation.
func (t RefreshToken) IsActive(at time.Time) bool {
	if t.IsRevoked() || t.UsedAt != nil {
		return false
	}
	return !t.IsExpired(at)
}

// Revoke marks the token as revoked.
// Returns true if the token transitioned to the revoked state.
func (t *RefreshToken) Revoke(at time.Time) bool {
	if t.RevokedAt != nil {
		return false
	}
	timeCopy := at
	t.RevokedAt = &timeCopy
	return true
}

// VerificationToken captures email verification artifacts. Tokens are single
// use: Consume succeeds at most once per token.
type VerificationToken struct {
	ID        string
	UserID    string
	TokenHash string
	IP        *string
	UserAgent *string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// IsExpired reports whether the verification token can still be redeemed.
func (t VerificationToken) IsExpired(at time.Time) bool {
	return !t.ExpiresAt.After(at)
}

// Consume marks the verification token as used.
// Returns true when the token transitions from unused to used.
func (t *VerificationToken) Consume(at time.Time) bool {
	if t.UsedAt != nil {
		return false
	}
	timeCopy := at
	t.UsedAt = &timeCopy
	return true
}

// PasswordResetToken models password reset artifacts.
type PasswordResetToken struct {
	ID        string
	UserID    string
	TokenHash string
	IP        *string
	UserAgent *string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// IsExpired reports whether the password reset token can still be redeemed.
func (t PasswordResetToken) IsExpired(at time.Time) bool {
	return !t.ExpiresAt.After(at)
}

// Consume marks the password reset token as used.
func (t *PasswordResetToken) Consume(at time.Time) bool {
	if t.UsedAt != nil {
		return false
	}
	timeCopy := at
	t.UsedAt = &timeCopy
	return true
}

// TOTPDevice is an enrolled authenticator app secret. A device stays
// unconfirmed until the owner presents a valid code once.
type TOTPDevice struct {
	ID          string
	UserID      string
	Name        string
	Secret      string
	Confirmed   bool
	CreatedAt   time.Time
	ConfirmedAt *time.Time
	LastUsedAt  *time.Time
}

// Confirm marks the device as verified by its owner.
// Returns true when the device transitions from unconfirmed to confirmed.
func (d *TOTPDevice) Confirm(at time.Time) bool {
	if d.Confirmed {
		return false
	}
	d.Confirmed = true
	timeCopy := at
	d.ConfirmedAt = &timeCopy
	return true
}
