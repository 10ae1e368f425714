package domain

import (
	"testing"
	"time"
)

func TestRecordFailureLocksAtThreshold(t *testing.T) {
	now := time.Now().UTC()
	user := User{}

	for i := 0; i < 4; i++ {
		if locked := user.RecordFailure(now, 5, 30*time.Minute); locked {
			t.Fatalf("locked after %d failures", i+1)
		}
	}
	if !user.RecordFailure(now, 5, 30*time.Minute) {
		t.Fatal("fifth failure should lock the account")
	}
	if !user.IsLocked(now) {
		t.Fatal("IsLocked should report the active window")
	}
	if user.IsLocked(now.Add(31 * time.Minute)) {
		t.Fatal("lockout should expire after the window")
	}

	ip := "203.0.113.9"
	user.RecordSuccess(now, &ip)
	if user.FailedLoginAttempts != 0 || user.LockedUntil != nil {
		t.Fatal("success should clear lockout state")
	}
	if user.LastLoginIP == nil || *user.LastLoginIP != ip {
		t.Fatal("success should stamp the login IP")
	}
}

func TestIsPasswordExpired(t *testing.T) {
	now := time.Now().UTC()
	user := User{LastPasswordChange: now.Add(-100 * 24 * time.Hour)}

	if user.IsPasswordExpired(now, 0) {
		t.Fatal("zero maxAge disables expiry")
	}
	if !user.IsPasswordExpired(now, 90*24*time.Hour) {
		t.Fatal("100-day-old password should be expired at 90 days")
	}
	if user.IsPasswordExpired(now, 120*24*time.Hour) {
		t.Fatal("password within the window should not be expired")
	}
}
