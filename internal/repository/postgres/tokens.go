package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/core/port"
	"github.com/arklim/social-platform-commerce/internal/repository"
)

// TokenRepository implements port.TokenRepository using PostgreSQL tables.
type TokenRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewTokenRepository constructs a new token repository.
func NewTokenRepository(exec pgExecutor) *TokenRepository {
	repo := &TokenRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance executing within the provided transaction.
func (r *TokenRepository) WithTx(tx pgx.Tx) *TokenRepository {
	if tx == nil {
		return r
	}
	return &TokenRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

var tokenColumns = []string{
	"id",
	"user_id",
	"token_hash",
	"ip",
	"user_agent",
	"created_at",
	"expires_at",
	"used_at",
}

// CreateVerification inserts a new email verification token record.
func (r *TokenRepository) CreateVerification(ctx context.Context, token domain.VerificationToken) error {
	stmt, args, err := r.builder.Insert("commerce.verification_tokens").
		Columns(tokenColumns...).
		Values(
			token.ID,
			token.UserID,
			token.TokenHash,
			token.IP,
			token.UserAgent,
			token.CreatedAt,
			token.ExpiresAt,
			token.UsedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert verification token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert verification token: %w", err)
	}

	return nil
}

// GetVerificationByHash retrieves a verification token by its hashed value.
func (r *TokenRepository) GetVerificationByHash(ctx context.Context, hash string) (*domain.VerificationToken, error) {
	stmt, args, err := r.builder.Select(tokenColumns...).
		From("commerce.verification_tokens").
		Where(squirrel.Eq{"token_hash": hash}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select verification token sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var token domain.VerificationToken
	if err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.IP,
		&token.UserAgent,
		&token.CreatedAt,
		&token.ExpiresAt,
		&token.UsedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan verification token: %w", err)
	}

	return &token, nil
}

// ConsumeVerification marks the token as used. The used_at guard makes
// redemption single use: a second call affects zero rows and reports
// repository.ErrNotFound.
func (r *TokenRepository) ConsumeVerification(ctx context.Context, id string, usedAt time.Time) error {
	stmt, args, err := r.builder.Update("commerce.verification_tokens").
		Set("used_at", usedAt).
		Where(squirrel.Eq{"id": id}).
		Where("used_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build consume verification token sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("consume verification token: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// CreatePasswordReset inserts a new password reset token record.
func (r *TokenRepository) CreatePasswordReset(ctx context.Context, token domain.PasswordResetToken) error {
	stmt, args, err := r.builder.Insert("commerce.password_reset_tokens").
		Columns(tokenColumns...).
		Values(
			token.ID,
			token.UserID,
			token.TokenHash,
			token.IP,
			token.UserAgent,
			token.CreatedAt,
			token.ExpiresAt,
			token.UsedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert password reset token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert password reset token: %w", err)
	}

	return nil
}

// GetPasswordResetByHash retrieves a password reset token by its hashed value.
func (r *TokenRepository) GetPasswordResetByHash(ctx context.Context, hash string) (*domain.PasswordResetToken, error) {
	stmt, args, err := r.builder.Select(tokenColumns...).
		From("commerce.password_reset_tokens").
		Where(squirrel.Eq{"token_hash": hash}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select password reset token sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var token domain.PasswordResetToken
	if err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.IP,
		&token.UserAgent,
		&token.CreatedAt,
		&token.ExpiresAt,
		&token.UsedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan password reset token: %w", err)
	}

	return &token, nil
}

// ConsumePasswordReset marks the token as used under the same single-use guard
// as verification tokens.
func (r *TokenRepository) ConsumePasswordReset(ctx context.Context, id string, usedAt time.Time) error {
	stmt, args, err := r.builder.Update("commerce.password_reset_tokens").
		Set("used_at", usedAt).
		Where(squirrel.Eq{"id": id}).
		Where("used_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build consume password reset token sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("consume password reset token: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// CreateRefreshToken inserts a new refresh token record.
func (r *TokenRepository) CreateRefreshToken(ctx context.Context, token domain.RefreshToken) error {
	stmt, args, err := r.builder.Insert("commerce.refresh_tokens").
		Columns(
			"id",
			"user_id",
			"token_hash",
			"ip",
			"user_agent",
			"created_at",
			"expires_at",
			"used_at",
			"revoked_at",
		).
		Values(
			token.ID,
			token.UserID,
			token.TokenHash,
			token.IP,
			token.UserAgent,
			token.CreatedAt,
			token.ExpiresAt,
			token.UsedAt,
			token.RevokedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert refresh token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}

	return nil
}

// GetRefreshTokenByHash retrieves a refresh token by its hashed value.
func (r *TokenRepository) GetRefreshTokenByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	stmt, args, err := r.builder.Select(
		"id",
		"user_id",
		"token_hash",
		"ip",
		"user_agent",
		"created_at",
		"expires_at",
		"used_at",
		"revoked_at",
	).
		From("commerce.refresh_tokens").
		Where(squirrel.Eq{"token_hash": hash}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select refresh token sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var token domain.RefreshToken
	if err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.IP,
		&token.UserAgent,
		&token.CreatedAt,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.RevokedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}

	return &token, nil
}

// RevokeRefreshToken marks a single refresh token as revoked.
func (r *TokenRepository) RevokeRefreshToken(ctx context.Context, refreshTokenID string) error {
	stmt, args, err := r.builder.Update("commerce.refresh_tokens").
		Set("revoked_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": refreshTokenID}).
		Where("revoked_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build revoke refresh token sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// RevokeRefreshTokensForUser revokes every active refresh token held by the user.
func (r *TokenRepository) RevokeRefreshTokensForUser(ctx context.Context, userID string) error {
	stmt, args, err := r.builder.Update("commerce.refresh_tokens").
		Set("revoked_at", time.Now().UTC()).
		Where(squirrel.Eq{"user_id": userID}).
		Where("revoked_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build revoke user refresh tokens sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}

	return nil
}

var _ port.TokenRepository = (*TokenRepository)(nil)
