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

var orderColumns = []string{
	"id",
	"order_number",
	"user_id",
	"status",
	"shipping_status",
	"subtotal_cents",
	"shipping_cents",
	"tax_cents",
	"discount_cents",
	"total_cents",
	"discount_code",
	"shipping_name",
	"shipping_line1",
	"shipping_line2",
	"shipping_city",
	"shipping_zip",
	"shipping_phone",
	"tracking_number",
	"created_at",
	"updated_at",
	"paid_at",
	"shipped_at",
	"delivered_at",
	"cancelled_at",
}

// OrderRepository implements port.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewOrderRepository wires a PostgreSQL-backed order repository.
func NewOrderRepository(exec pgExecutor) *OrderRepository {
	repo := &OrderRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// PlaceOrder runs the checkout transaction: insert the order with its frozen
// items and pending payment, decrement managed stock with inventory log
// entries, redeem the discount code, and clear the cart. Any guarded step that
// affects zero rows rolls the whole checkout back.
func (r *OrderRepository) PlaceOrder(ctx context.Context, order domain.Order, payment domain.Payment, cartID string, discountCode *string) error {
	if r.pool == nil {
		return fmt.Errorf("place order requires a pool-backed repository")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin place order tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertOrderTx(ctx, tx, order); err != nil {
		return err
	}

	for _, item := range order.Items {
		if err := insertOrderItemTx(ctx, tx, item); err != nil {
			return err
		}
		if err := decrementStockTx(ctx, tx, item, order.OrderNumber); err != nil {
			return err
		}
	}

	if discountCode != nil && *discountCode != "" {
		if err := redeemDiscountTx(ctx, tx, *discountCode); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM commerce.cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	if err := insertPaymentTx(ctx, tx, payment); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit place order tx: %w", err)
	}

	return nil
}

func insertOrderTx(ctx context.Context, tx pgx.Tx, order domain.Order) error {
	builder := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	stmt, args, err := builder.Insert("commerce.orders").
		Columns(orderColumns...).
		Values(
			order.ID,
			order.OrderNumber,
			order.UserID,
			order.Status,
			order.ShippingStatus,
			order.SubtotalCents,
			order.ShippingCents,
			order.TaxCents,
			order.DiscountCents,
			order.TotalCents,
			order.DiscountCode,
			order.ShippingName,
			order.ShippingLine1,
			order.ShippingLine2,
			order.ShippingCity,
			order.ShippingZip,
			order.ShippingPhone,
			order.TrackingNumber,
			order.CreatedAt,
			order.UpdatedAt,
			order.PaidAt,
			order.ShippedAt,
			order.DeliveredAt,
			order.CancelledAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert order sql: %w", err)
	}

	if _, err := tx.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

func insertOrderItemTx(ctx context.Context, tx pgx.Tx, item domain.OrderItem) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO commerce.order_items
			(id, order_id, product_id, variant_id, product_name, product_sku, variant_name, unit_price_cents, quantity, total_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		item.ID,
		item.OrderID,
		item.ProductID,
		item.VariantID,
		item.ProductName,
		item.ProductSKU,
		item.VariantName,
		item.UnitPriceCents,
		item.Quantity,
		item.TotalCents,
	); err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}

	return nil
}

// decrementStockTx takes stock for one order line. Untracked products pass
// through; tracked ones decrement under the non-negative guard, so a
// concurrent checkout of the last units loses with repository.ErrConflict.
func decrementStockTx(ctx context.Context, tx pgx.Tx, item domain.OrderItem, orderNumber string) error {
	if item.VariantID != nil {
		var after int
		row := tx.QueryRow(ctx, `
			UPDATE commerce.product_variants
			   SET stock_quantity = stock_quantity - $2
			 WHERE id = $1
			   AND stock_quantity >= $2
			RETURNING stock_quantity
		`, *item.VariantID, item.Quantity)
		if err := row.Scan(&after); err != nil {
			if err == pgx.ErrNoRows {
				return fmt.Errorf("take variant stock %s: %w", item.ProductSKU, repository.ErrConflict)
			}
			return fmt.Errorf("take variant stock: %w", err)
		}
		return insertSaleLogTx(ctx, tx, item, orderNumber, after)
	}

	var (
		managed bool
		after   int
	)
	row := tx.QueryRow(ctx, `
		UPDATE commerce.products
		   SET stock_quantity = CASE WHEN manage_stock THEN stock_quantity - $2 ELSE stock_quantity END,
		       updated_at = now()
		 WHERE id = $1
		   AND (NOT manage_stock OR stock_quantity >= $2)
		RETURNING manage_stock, stock_quantity
	`, item.ProductID, item.Quantity)
	if err := row.Scan(&managed, &after); err != nil {
		if err == pgx.ErrNoRows {
			return fmt.Errorf("take product stock %s: %w", item.ProductSKU, repository.ErrConflict)
		}
		return fmt.Errorf("take product stock: %w", err)
	}

	if !managed {
		return nil
	}

	return insertSaleLogTx(ctx, tx, item, orderNumber, after)
}

func insertSaleLogTx(ctx context.Context, tx pgx.Tx, item domain.OrderItem, orderNumber string, after int) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO commerce.inventory_log
			(id, product_id, variant_id, transaction_type, quantity_change, quantity_before, quantity_after, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		item.ID,
		item.ProductID,
		item.VariantID,
		domain.InventorySale,
		-item.Quantity,
		after+item.Quantity,
		after,
		orderNumber,
		time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("insert sale inventory log: %w", err)
	}

	return nil
}

func redeemDiscountTx(ctx context.Context, tx pgx.Tx, code string) error {
	ct, err := tx.Exec(ctx, `
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
		return fmt.Errorf("redeem discount %s: %w", code, repository.ErrConflict)
	}

	return nil
}

func insertPaymentTx(ctx context.Context, tx pgx.Tx, payment domain.Payment) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO commerce.payments
			(id, order_id, status, method, amount_cents, refunded_cents, transaction_id, created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		payment.ID,
		payment.OrderID,
		payment.Status,
		payment.Method,
		payment.AmountCents,
		payment.RefundedCents,
		payment.TransactionID,
		payment.CreatedAt,
		payment.UpdatedAt,
		payment.CompletedAt,
	); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	return nil
}

func (r *OrderRepository) getBy(ctx context.Context, pred squirrel.Eq) (*domain.Order, error) {
	stmt, args, err := r.builder.Select(orderColumns...).
		From("commerce.orders").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select order sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var order domain.Order
	if err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&order.Status,
		&order.ShippingStatus,
		&order.SubtotalCents,
		&order.ShippingCents,
		&order.TaxCents,
		&order.DiscountCents,
		&order.TotalCents,
		&order.DiscountCode,
		&order.ShippingName,
		&order.ShippingLine1,
		&order.ShippingLine2,
		&order.ShippingCity,
		&order.ShippingZip,
		&order.ShippingPhone,
		&order.TrackingNumber,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.PaidAt,
		&order.ShippedAt,
		&order.DeliveredAt,
		&order.CancelledAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &order, nil
}

func (r *OrderRepository) listItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	stmt, args, err := r.builder.Select(
		"id",
		"order_id",
		"product_id",
		"variant_id",
		"product_name",
		"product_sku",
		"variant_name",
		"unit_price_cents",
		"quantity",
		"total_cents",
	).
		From("commerce.order_items").
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("product_name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list order items sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.VariantID,
			&item.ProductName,
			&item.ProductSKU,
			&item.VariantName,
			&item.UnitPriceCents,
			&item.Quantity,
			&item.TotalCents,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

// GetByID retrieves an order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

// GetByNumber retrieves an order by its business order number.
func (r *OrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return r.getBy(ctx, squirrel.Eq{"order_number": orderNumber})
}

// ListForUser returns the user's orders, newest first, with items.
func (r *OrderRepository) ListForUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error) {
	query := r.builder.Select(orderColumns...).
		From("commerce.orders").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC")

	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	if offset > 0 {
		query = query.Offset(uint64(offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list orders sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	for i := range orders {
		items, err := r.listItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

// UpdateStatus moves the order through its payment lifecycle, stamping the
// matching timestamp column.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) error {
	query := r.builder.Update("commerce.orders").
		Set("status", status).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id})

	switch status {
	case domain.OrderStatusPaid:
		query = query.Set("paid_at", at)
	case domain.OrderStatusShipped:
		query = query.Set("shipped_at", at)
	case domain.OrderStatusDelivered:
		query = query.Set("delivered_at", at)
	case domain.OrderStatusCancelled:
		query = query.Set("cancelled_at", at)
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build update order status sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateShippingStatus moves the fulfilment state and records the tracking
// number when one is supplied.
func (r *OrderRepository) UpdateShippingStatus(ctx context.Context, id string, status domain.ShippingStatus, trackingNumber *string, at time.Time) error {
	query := r.builder.Update("commerce.orders").
		Set("shipping_status", status).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id})

	if trackingNumber != nil {
		query = query.Set("tracking_number", *trackingNumber)
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build update shipping status sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update shipping status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Cancel transitions the order to cancelled. The guard lives inside the
// statement, so a concurrent payment or fulfilment update cannot race past it.
func (r *OrderRepository) Cancel(ctx context.Context, id string, at time.Time) error {
	ct, err := r.exec.Exec(ctx, `
		UPDATE commerce.orders
		   SET status = 'cancelled',
		       cancelled_at = $2,
		       updated_at = $2
		 WHERE id = $1
		   AND status IN ('pending', 'paid')
		   AND shipping_status = 'pending'
	`, id, at)
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// GetPaymentByOrderID retrieves the payment record for an order.
func (r *OrderRepository) GetPaymentByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	stmt, args, err := r.builder.Select(
		"id",
		"order_id",
		"status",
		"method",
		"amount_cents",
		"refunded_cents",
		"transaction_id",
		"created_at",
		"updated_at",
		"completed_at",
	).
		From("commerce.payments").
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select payment sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var payment domain.Payment
	if err := row.Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.Status,
		&payment.Method,
		&payment.AmountCents,
		&payment.RefundedCents,
		&payment.TransactionID,
		&payment.CreatedAt,
		&payment.UpdatedAt,
		&payment.CompletedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}

	return &payment, nil
}

// CompletePayment settles a pending payment with the gateway reference. A
// payment that already settled affects zero rows and reports
// repository.ErrNotFound.
func (r *OrderRepository) CompletePayment(ctx context.Context, paymentID, transactionID string, at time.Time) error {
	ct, err := r.exec.Exec(ctx, `
		UPDATE commerce.payments
		   SET status = 'completed',
		       transaction_id = $2,
		       completed_at = $3,
		       updated_at = $3
		 WHERE id = $1
		   AND status IN ('pending', 'processing')
	`, paymentID, transactionID, at)
	if err != nil {
		return fmt.Errorf("complete payment: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// RefundPayment applies a monotonic refund increment. The guard keeps the
// refunded total within the payment amount; a full refund flips the status.
func (r *OrderRepository) RefundPayment(ctx context.Context, paymentID string, amountCents int64, at time.Time) error {
	ct, err := r.exec.Exec(ctx, `
		UPDATE commerce.payments
		   SET refunded_cents = refunded_cents + $2,
		       status = CASE WHEN refunded_cents + $2 = amount_cents THEN 'refunded' ELSE status END,
		       updated_at = $3
		 WHERE id = $1
		   AND status = 'completed'
		   AND refunded_cents + $2 <= amount_cents
	`, paymentID, amountCents, at)
	if err != nil {
		return fmt.Errorf("refund payment: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.OrderRepository = (*OrderRepository)(nil)
