package port

import (
	"context"
	"time"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
)

// UserRepository exposes persistence behavior for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error
	UpdateProfile(ctx context.Context, user domain.User) error
	// UpdateLoginState persists the lockout counters after a login attempt.
	UpdateLoginState(ctx context.Context, user domain.User) error
	SetEmailVerified(ctx context.Context, id string, verifiedAt time.Time) error
	SetTwoFactorEnabled(ctx context.Context, id string, enabled bool) error
}

// LoginAttemptRepository appends and inspects the authentication attempt ledger.
type LoginAttemptRepository interface {
	Create(ctx context.Context, attempt domain.LoginAttempt) error
	CountRecentFailures(ctx context.Context, ip string, since time.Time) (int, error)
}

// SecurityEventRepository appends to and reads the per-user audit ledger.
type SecurityEventRepository interface {
	Create(ctx context.Context, event domain.SecurityEvent) error
	ListForUser(ctx context.Context, userID string, limit int) ([]domain.SecurityEvent, error)
}
