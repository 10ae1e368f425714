package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/core/port"
	"github.com/arklim/social-platform-commerce/internal/repository"
)

var userColumns = []string{
	"id",
	"email",
	"password_hash",
	"first_name",
	"last_name",
	"phone",
	"email_verified",
	"two_factor_enabled",
	"failed_login_attempts",
	"locked_until",
	"last_login_ip",
	"data_processing_consent",
	"marketing_consent",
	"is_active",
	"is_staff",
	"registered_at",
	"last_login",
	"last_password_change",
}

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository wires a PostgreSQL-backed user repository.
func NewUserRepository(exec pgExecutor) *UserRepository {
	repo := &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *UserRepository) WithTx(tx pgx.Tx) *UserRepository {
	if tx == nil {
		return r
	}
	return &UserRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	var phoneValue any
	if user.Phone != nil && *user.Phone != "" {
		phoneValue = *user.Phone
	}

	query := r.builder.Insert("commerce.users").
		Columns(userColumns...).
		Values(
			user.ID,
			user.Email,
			user.PasswordHash,
			user.FirstName,
			user.LastName,
			phoneValue,
			user.EmailVerified,
			user.TwoFactorEnabled,
			user.FailedLoginAttempts,
			user.LockedUntil,
			user.LastLoginIP,
			user.DataProcessingConsent,
			user.MarketingConsent,
			user.IsActive,
			user.IsStaff,
			user.RegisteredAt,
			user.LastLogin,
			user.LastPasswordChange,
		)

	sqlStmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sqlStmt, args...); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (r *UserRepository) getBy(ctx context.Context, pred squirrel.Eq) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("commerce.users").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user        domain.User
		phone       sql.NullString
		lockedUntil *time.Time
		lastLoginIP sql.NullString
		lastLogin   *time.Time
	)

	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&phone,
		&user.EmailVerified,
		&user.TwoFactorEnabled,
		&user.FailedLoginAttempts,
		&lockedUntil,
		&lastLoginIP,
		&user.DataProcessingConsent,
		&user.MarketingConsent,
		&user.IsActive,
		&user.IsStaff,
		&user.RegisteredAt,
		&lastLogin,
		&user.LastPasswordChange,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	user.LockedUntil = lockedUntil
	user.LastLogin = lastLogin
	if phone.Valid {
		val := phone.String
		user.Phone = &val
	}
	if lastLoginIP.Valid {
		val := lastLoginIP.String
		user.LastLoginIP = &val
	}

	return &user, nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, squirrel.Eq{"email": email})
}

// UpdatePassword updates a user's password hash and last change timestamp.
func (r *UserRepository) UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error {
	stmt, args, err := r.builder.Update("commerce.users").
		Set("password_hash", passwordHash).
		Set("last_password_change", changedAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateProfile modifies the mutable profile fields of a user.
func (r *UserRepository) UpdateProfile(ctx context.Context, user domain.User) error {
	var phoneValue any
	if user.Phone != nil && *user.Phone != "" {
		phoneValue = *user.Phone
	}

	stmt, args, err := r.builder.Update("commerce.users").
		Set("first_name", user.FirstName).
		Set("last_name", user.LastName).
		Set("phone", phoneValue).
		Set("marketing_consent", user.MarketingConsent).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update profile sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateLoginState persists the lockout counters and login metadata after an
// authentication attempt.
func (r *UserRepository) UpdateLoginState(ctx context.Context, user domain.User) error {
	stmt, args, err := r.builder.Update("commerce.users").
		Set("failed_login_attempts", user.FailedLoginAttempts).
		Set("locked_until", user.LockedUntil).
		Set("last_login", user.LastLogin).
		Set("last_login_ip", user.LastLoginIP).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update login state sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update login state: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetEmailVerified flags the account's email address as verified.
func (r *UserRepository) SetEmailVerified(ctx context.Context, id string, verifiedAt time.Time) error {
	stmt, args, err := r.builder.Update("commerce.users").
		Set("email_verified", true).
		Set("email_verified_at", verifiedAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set email verified sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("set email verified: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetTwoFactorEnabled toggles the two factor flag for the account.
func (r *UserRepository) SetTwoFactorEnabled(ctx context.Context, id string, enabled bool) error {
	stmt, args, err := r.builder.Update("commerce.users").
		Set("two_factor_enabled", enabled).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set two factor sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("set two factor: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.UserRepository = (*UserRepository)(nil)
