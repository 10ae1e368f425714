package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/core/port"
	"github.com/arklim/social-platform-commerce/internal/repository"
)

// CartRepository implements port.CartRepository using PostgreSQL.
type CartRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewCartRepository wires a PostgreSQL-backed cart repository.
func NewCartRepository(exec pgExecutor) *CartRepository {
	repo := &CartRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// GetOrCreate returns the user's cart with its items, creating an empty cart
// when none exists. The unique constraint on user_id keeps one open cart per
// account even under concurrent first requests.
func (r *CartRepository) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	now := time.Now().UTC()

	row := r.exec.QueryRow(ctx, `
		INSERT INTO commerce.carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = commerce.carts.updated_at
		RETURNING id, user_id, created_at, updated_at
	`, uuid.NewString(), userID, now)

	var cart domain.Cart
	if err := row.Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert cart: %w", err)
	}

	items, err := r.listItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items

	return &cart, nil
}

func (r *CartRepository) listItems(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	stmt, args, err := r.builder.Select(
		"id",
		"cart_id",
		"product_id",
		"variant_id",
		"quantity",
		"unit_price_cents",
		"added_at",
	).
		From("commerce.cart_items").
		Where(squirrel.Eq{"cart_id": cartID}).
		OrderBy("added_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list cart items sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.CartItem, 0)
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.ProductID,
			&item.VariantID,
			&item.Quantity,
			&item.UnitPriceCents,
			&item.AddedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}

	return items, nil
}

// UpsertItem inserts a cart line or, when the (product, variant) pair is
// already present, replaces its quantity. The captured unit price of an
// existing line is preserved.
func (r *CartRepository) UpsertItem(ctx context.Context, item domain.CartItem) error {
	if _, err := r.exec.Exec(ctx, `
		INSERT INTO commerce.cart_items
			(id, cart_id, product_id, variant_id, quantity, unit_price_cents, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (cart_id, product_id, variant_key) DO UPDATE
			SET quantity = EXCLUDED.quantity
	`,
		item.ID,
		item.CartID,
		item.ProductID,
		item.VariantID,
		item.Quantity,
		item.UnitPriceCents,
		item.AddedAt,
	); err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}

	if err := r.touch(ctx, item.CartID); err != nil {
		return err
	}

	return nil
}

// UpdateItemQuantity replaces the quantity on a cart line.
func (r *CartRepository) UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	stmt, args, err := r.builder.Update("commerce.cart_items").
		Set("quantity", quantity).
		Where(squirrel.Eq{"id": itemID, "cart_id": cartID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update cart item sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return r.touch(ctx, cartID)
}

// RemoveItem deletes a cart line.
func (r *CartRepository) RemoveItem(ctx context.Context, cartID, itemID string) error {
	stmt, args, err := r.builder.Delete("commerce.cart_items").
		Where(squirrel.Eq{"id": itemID, "cart_id": cartID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete cart item sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return r.touch(ctx, cartID)
}

// Clear removes all lines from a cart.
func (r *CartRepository) Clear(ctx context.Context, cartID string) error {
	stmt, args, err := r.builder.Delete("commerce.cart_items").
		Where(squirrel.Eq{"cart_id": cartID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build clear cart sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	return r.touch(ctx, cartID)
}

func (r *CartRepository) touch(ctx context.Context, cartID string) error {
	stmt, args, err := r.builder.Update("commerce.carts").
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": cartID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build touch cart sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}

	return nil
}

var _ port.CartRepository = (*CartRepository)(nil)
