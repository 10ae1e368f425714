package domain

import "time"

// User mirrors the persisted representation in the users table. Accounts are
// identified by email; there is no separate username.
type User struct {
	ID                    string
	Email                 string
	PasswordHash          string
	FirstName             string
	LastName              string
	Phone                 *string
	EmailVerified         bool
	TwoFactorEnabled      bool
	FailedLoginAttempts   int
	LockedUntil           *time.Time
	LastLoginIP           *string
	DataProcessingConsent bool
	MarketingConsent      bool
	IsActive              bool
	IsStaff               bool
	RegisteredAt          time.Time
	LastLogin             *time.Time
	LastPasswordChange    time.Time
}

// IsLocked reports whether the account is under an active lockout window.
func (u User) IsLocked(at time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(at)
}

// RecordFailure increments the failure counter and, once threshold failures
// accumulate, locks the account until at+lockFor. Returns true when this call
// transitioned the account into the locked state.
func (u *User) RecordFailure(at time.Time, threshold int, lockFor time.Duration) bool {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts < threshold {
		return false
	}
	until := at.Add(lockFor)
	u.LockedUntil = &until
	return true
}

// RecordSuccess clears lockout state and stamps the login metadata.
func (u *User) RecordSuccess(at time.Time, ip *string) {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	timeCopy := at
	u.LastLogin = &timeCopy
	u.LastLoginIP = ip
}

// IsPasswordExpired reports whether the password is older than maxAge.
// A zero maxAge disables expiry.
func (u User) IsPasswordExpired(at time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return at.Sub(u.LastPasswordChange) > maxAge
}

// FullName joins the first and last name for display purposes.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// LoginAttemptOutcome enumerates the recorded result of an authentication attempt.
type LoginAttemptOutcome string

const (
	LoginAttemptSuccess LoginAttemptOutcome = "success"
	LoginAttemptFailed  LoginAttemptOutcome = "failed"
	LoginAttemptBlocked LoginAttemptOutcome = "blocked"
)

// LoginAttempt records authentication attempts for throttling and audit.
// Attempts rejected before credential verification (lockout, IP block) are
// recorded with the blocked outcome.
type LoginAttempt struct {
	ID            string
	UserID        *string
	Email         string
	Outcome       LoginAttemptOutcome
	FailureReason *string
	IP            *string
	UserAgent     *string
	CreatedAt     time.Time
}

// SecurityEventType enumerates append-only audit ledger entries.
type SecurityEventType string

const (
	SecurityEventLogin          SecurityEventType = "login"
	SecurityEventLogout         SecurityEventType = "logout"
	SecurityEventPasswordChange SecurityEventType = "password_change"
	SecurityEvent2FAEnabled     SecurityEventType = "2fa_enabled"
	SecurityEvent2FADisabled    SecurityEventType = "2fa_disabled"
	SecurityEventAccountLocked  SecurityEventType = "account_locked"
	SecurityEventEmailVerified  SecurityEventType = "email_verified"
	SecurityEventProfileUpdated SecurityEventType = "profile_updated"
)

// SecurityEvent is an append-only audit record tied to a user account.
type SecurityEvent struct {
	ID        string
	UserID    string
	EventType SecurityEventType
	IP        *string
	UserAgent *string
	Details   map[string]any
	CreatedAt time.Time
}
