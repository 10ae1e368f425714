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

// TOTPDeviceRepository implements port.TOTPDeviceRepository using PostgreSQL.
type TOTPDeviceRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewTOTPDeviceRepository wires a PostgreSQL-backed authenticator store.
func NewTOTPDeviceRepository(exec pgExecutor) *TOTPDeviceRepository {
	repo := &TOTPDeviceRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// Create inserts a new authenticator enrollment, replacing any unconfirmed one.
func (r *TOTPDeviceRepository) Create(ctx context.Context, device domain.TOTPDevice) error {
	del, delArgs, err := r.builder.Delete("commerce.totp_devices").
		Where(squirrel.Eq{"user_id": device.UserID, "confirmed": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete stale totp device sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, del, delArgs...); err != nil {
		return fmt.Errorf("delete stale totp device: %w", err)
	}

	stmt, args, err := r.builder.Insert("commerce.totp_devices").
		Columns(
			"id",
			"user_id",
			"name",
			"secret",
			"confirmed",
			"created_at",
			"confirmed_at",
			"last_used_at",
		).
		Values(
			device.ID,
			device.UserID,
			device.Name,
			device.Secret,
			device.Confirmed,
			device.CreatedAt,
			device.ConfirmedAt,
			device.LastUsedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert totp device sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert totp device: %w", err)
	}

	return nil
}

// GetByUserID returns the user's authenticator enrollment.
func (r *TOTPDeviceRepository) GetByUserID(ctx context.Context, userID string) (*domain.TOTPDevice, error) {
	stmt, args, err := r.builder.Select(
		"id",
		"user_id",
		"name",
		"secret",
		"confirmed",
		"created_at",
		"confirmed_at",
		"last_used_at",
	).
		From("commerce.totp_devices").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select totp device sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var device domain.TOTPDevice
	if err := row.Scan(
		&device.ID,
		&device.UserID,
		&device.Name,
		&device.Secret,
		&device.Confirmed,
		&device.CreatedAt,
		&device.ConfirmedAt,
		&device.LastUsedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan totp device: %w", err)
	}

	return &device, nil
}

// Confirm marks an enrollment as verified by its owner.
func (r *TOTPDeviceRepository) Confirm(ctx context.Context, id string, confirmedAt time.Time) error {
	stmt, args, err := r.builder.Update("commerce.totp_devices").
		Set("confirmed", true).
		Set("confirmed_at", confirmedAt).
		Where(squirrel.Eq{"id": id, "confirmed": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build confirm totp device sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("confirm totp device: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// TouchLastUsed stamps the device after a successful code verification.
func (r *TOTPDeviceRepository) TouchLastUsed(ctx context.Context, id string, usedAt time.Time) error {
	stmt, args, err := r.builder.Update("commerce.totp_devices").
		Set("last_used_at", usedAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build touch totp device sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("touch totp device: %w", err)
	}

	return nil
}

// DeleteForUser removes every enrollment tied to the user.
func (r *TOTPDeviceRepository) DeleteForUser(ctx context.Context, userID string) error {
	stmt, args, err := r.builder.Delete("commerce.totp_devices").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete totp devices sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete totp devices: %w", err)
	}

	return nil
}

var _ port.TOTPDeviceRepository = (*TOTPDeviceRepository)(nil)
