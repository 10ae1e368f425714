package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/core/port"
)

// LoginAttemptRepository implements port.LoginAttemptRepository using PostgreSQL.
type LoginAttemptRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewLoginAttemptRepository wires a PostgreSQL-backed attempt ledger.
func NewLoginAttemptRepository(exec pgExecutor) *LoginAttemptRepository {
	repo := &LoginAttemptRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// Create appends a login attempt row.
func (r *LoginAttemptRepository) Create(ctx context.Context, attempt domain.LoginAttempt) error {
	stmt, args, err := r.builder.Insert("commerce.login_attempts").
		Columns(
			"id",
			"user_id",
			"email",
			"outcome",
			"failure_reason",
			"ip",
			"user_agent",
			"created_at",
		).
		Values(
			attempt.ID,
			attempt.UserID,
			attempt.Email,
			attempt.Outcome,
			attempt.FailureReason,
			attempt.IP,
			attempt.UserAgent,
			attempt.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert login attempt sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert login attempt: %w", err)
	}

	return nil
}

// CountRecentFailures counts failed attempts from an address since the cutoff.
func (r *LoginAttemptRepository) CountRecentFailures(ctx context.Context, ip string, since time.Time) (int, error) {
	stmt, args, err := r.builder.Select("COUNT(*)").
		From("commerce.login_attempts").
		Where(squirrel.Eq{"ip": ip, "outcome": domain.LoginAttemptFailed}).
		Where(squirrel.GtOrEq{"created_at": since}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count login failures sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("scan login failure count: %w", err)
	}

	return int(count), nil
}

var _ port.LoginAttemptRepository = (*LoginAttemptRepository)(nil)
