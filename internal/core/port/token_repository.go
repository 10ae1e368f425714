package port

import (
	"context"
	"time"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
)

// TokenRepository manages verification, reset, and refresh token records.
type TokenRepository interface {
	CreateVerification(ctx context.Context, token domain.VerificationToken) error
	GetVerificationByHash(ctx context.Context, hash string) (*domain.VerificationToken, error)
	// ConsumeVerification marks the token used. It fails with
	// repository.ErrNotFound when the token was already consumed, making
	// redemption single-use under concurrency.
	ConsumeVerification(ctx context.Context, id string, usedAt time.Time) error
	CreatePasswordReset(ctx context.Context, token domain.PasswordResetToken) error
	GetPasswordResetByHash(ctx context.Context, hash string) (*domain.PasswordResetToken, error)
	ConsumePasswordReset(ctx context.Context, id string, usedAt time.Time) error
	CreateRefreshToken(ctx context.Context, token domain.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, hash string) (*domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, refreshTokenID string) error
	RevokeRefreshTokensForUser(ctx context.Context, userID string) error
}

// TOTPDeviceRepository persists authenticator enrollments.
type TOTPDeviceRepository interface {
	Create(ctx context.Context, device domain.TOTPDevice) error
	GetByUserID(ctx context.Context, userID string) (*domain.TOTPDevice, error)
	Confirm(ctx context.Context, id string, confirmedAt time.Time) error
	TouchLastUsed(ctx context.Context, id string, usedAt time.Time) error
	DeleteForUser(ctx context.Context, userID string) error
}
