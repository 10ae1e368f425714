package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/core/port"
	"github.com/arklim/social-platform-commerce/internal/repository"
)

var discountColumns = []string{
	"id",
	"code",
	"description",
	"type",
	"value",
	"min_order_cents",
	"max_discount_cents",
	"usage_limit",
	"used_count",
	"valid_from",
	"valid_until",
	"is_active",
	"created_at",
}

// DiscountRepository implements port.DiscountRepository using PostgreSQL.
type DiscountRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewDiscountRepository wires a PostgreSQL-backed discount repository.
func NewDiscountRepository(exec pgExecutor) *DiscountRepository {
	repo := &DiscountRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// Create inserts a new discount code.
func (r *DiscountRepository) Create(ctx context.Context, discount domain.Discount) error {
	stmt, args, err := r.builder.Insert("commerce.discounts").
		Columns(discountColumns...).
		Values(
			discount.ID,
			discount.Code,
			discount.Description,
			discount.Type,
			discount.Value,
			discount.MinOrderCents,
			discount.MaxDiscountCents,
			discount.UsageLimit,
			discount.UsedCount,
			discount.ValidFrom,
			discount.ValidUntil,
			discount.IsActive,
			discount.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert discount sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert discount: %w", err)
	}

	return nil
}

// Update modifies an existing discount code. The redemption counter is
// advanced only through Redeem.
func (r *DiscountRepository) Update(ctx context.Context, discount domain.Discount) error {
	stmt, args, err := r.builder.Update("commerce.discounts").
		Set("description", discount.Description).
		Set("type", discount.Type).
		Set("value", discount.Value).
		Set("min_order_cents", discount.MinOrderCents).
		Set("max_discount_cents", discount.MaxDiscountCents).
		Set("usage_limit", discount.UsageLimit).
		Set("valid_from", discount.ValidFrom).
		Set("valid_until", discount.ValidUntil).
		Set("is_active", discount.IsActive).
		Where(squirrel.Eq{"id": discount.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update discount sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update discount: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// GetByCode retrieves a discount by its redemption code.
func (r *DiscountRepository) GetByCode(ctx context.Context, code string) (*domain.Discount, error) {
	stmt, args, err := r.builder.Select(discountColumns...).
		From("commerce.discounts").
		Where(squirrel.Eq{"code": code}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select discount sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	discount, err := scanDiscount(row)
	if err != nil {
		return nil, err
	}

	return discount, nil
}

func scanDiscount(row pgx.Row) (*domain.Discount, error) {
	var discount domain.Discount
	if err := row.Scan(
		&discount.ID,
		&discount.Code,
		&discount.Description,
		&discount.Type,
		&discount.Value,
		&discount.MinOrderCents,
		&discount.MaxDiscountCents,
		&discount.UsageLimit,
		&discount.UsedCount,
		&discount.ValidFrom,
		&discount.ValidUntil,
		&discount.IsActive,
		&discount.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan discount: %w", err)
	}
	return &discount, nil
}

// List returns discount codes, newest first.
func (r *DiscountRepository) List(ctx context.Context, activeOnly bool) ([]domain.Discount, error) {
	query := r.builder.Select(discountColumns...).
		From("commerce.discounts").
		OrderBy("created_at DESC")

	if activeOnly {
		query = query.Where(squirrel.Eq{"is_active": true})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list discounts sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query discounts: %w", err)
	}
	defer rows.Close()

	discounts := make([]domain.Discount, 0)
	for rows.Next() {
		discount, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		discounts = append(discounts, *discount)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate discounts: %w", err)
	}

	return discounts, nil
}

// Redeem increments used_count while it is below the usage limit. The guard
// inside the statement keeps concurrent redemptions of a limited code from
// exceeding the limit; a losing call reports repository.ErrNotFound.
func (r *DiscountRepository) Redeem(ctx context.Context, code string) error {
	ct, err := r.exec.Exec(ctx, `
		UPDATE commerce.discounts
		   SET used_count = used_count + 1
		 WHERE code = $1
		   AND is_active
		   AND (usage_limit IS NULL OR used_count < usage_limit)
	`, code)
	if err != nil {
		return fmt.Errorf("redeem discount: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.DiscountRepository = (*DiscountRepository)(nil)
