package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/core/port"
	"github.com/arklim/social-platform-commerce/internal/repository"
)

var productColumns = []string{
	"id",
	"category_id",
	"name",
	"slug",
	"sku",
	"description",
	"short_description",
	"price_cents",
	"sale_price_cents",
	"manage_stock",
	"stock_quantity",
	"low_stock_threshold",
	"stock_status",
	"weight_grams",
	"is_active",
	"is_featured",
	"created_at",
	"updated_at",
}

// ProductRepository implements port.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewProductRepository wires a PostgreSQL-backed product repository.
func NewProductRepository(exec pgExecutor) *ProductRepository {
	repo := &ProductRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *ProductRepository) WithTx(tx pgx.Tx) *ProductRepository {
	if tx == nil {
		return r
	}
	return &ProductRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new product row.
func (r *ProductRepository) Create(ctx context.Context, product domain.Product) error {
	stmt, args, err := r.builder.Insert("commerce.products").
		Columns(productColumns...).
		Values(
			product.ID,
			product.CategoryID,
			product.Name,
			product.Slug,
			product.SKU,
			product.Description,
			product.ShortDescription,
			product.PriceCents,
			product.SalePriceCents,
			product.ManageStock,
			product.StockQuantity,
			product.LowStockThreshold,
			product.StockStatus,
			product.WeightGrams,
			product.IsActive,
			product.IsFeatured,
			product.CreatedAt,
			product.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert product sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// Update modifies an existing product. Stock counters are adjusted through
// AdjustStock, not here.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	stmt, args, err := r.builder.Update("commerce.products").
		Set("category_id", product.CategoryID).
		Set("name", product.Name).
		Set("slug", product.Slug).
		Set("sku", product.SKU).
		Set("description", product.Description).
		Set("short_description", product.ShortDescription).
		Set("price_cents", product.PriceCents).
		Set("sale_price_cents", product.SalePriceCents).
		Set("manage_stock", product.ManageStock).
		Set("low_stock_threshold", product.LowStockThreshold).
		Set("stock_status", product.StockStatus).
		Set("weight_grams", product.WeightGrams).
		Set("is_active", product.IsActive).
		Set("is_featured", product.IsFeatured).
		Set("updated_at", product.UpdatedAt).
		Where(squirrel.Eq{"id": product.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update product sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *ProductRepository) getBy(ctx context.Context, pred squirrel.Eq) (*domain.Product, error) {
	stmt, args, err := r.builder.Select(productColumns...).
		From("commerce.products").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select product sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	product, err := scanProduct(row)
	if err != nil {
		return nil, err
	}

	return product, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var product domain.Product
	if err := row.Scan(
		&product.ID,
		&product.CategoryID,
		&product.Name,
		&product.Slug,
		&product.SKU,
		&product.Description,
		&product.ShortDescription,
		&product.PriceCents,
		&product.SalePriceCents,
		&product.ManageStock,
		&product.StockQuantity,
		&product.LowStockThreshold,
		&product.StockStatus,
		&product.WeightGrams,
		&product.IsActive,
		&product.IsFeatured,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &product, nil
}

// GetByID retrieves a product by identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

// GetBySlug retrieves a product by URL slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.getBy(ctx, squirrel.Eq{"slug": slug})
}

func applyProductFilter(query squirrel.SelectBuilder, filter port.ProductFilter) squirrel.SelectBuilder {
	query = query.Where(squirrel.Eq{"p.is_active": true})

	if filter.CategorySlug != "" {
		query = query.
			Join("commerce.categories c ON c.id = p.category_id").
			Where(squirrel.Eq{"c.slug": filter.CategorySlug})
	}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(squirrel.Or{
			squirrel.ILike{"p.name": pattern},
			squirrel.ILike{"p.description": pattern},
			squirrel.ILike{"p.sku": pattern},
		})
	}

	if filter.FeaturedOnly {
		query = query.Where(squirrel.Eq{"p.is_featured": true})
	}

	if filter.InStockOnly {
		query = query.Where(squirrel.Or{
			squirrel.And{
				squirrel.Eq{"p.manage_stock": true},
				squirrel.Gt{"p.stock_quantity": 0},
			},
			squirrel.And{
				squirrel.Eq{"p.manage_stock": false},
				squirrel.Eq{"p.stock_status": domain.StockStatusInStock},
			},
		})
	}

	if filter.MinPrice != nil {
		query = query.Where(squirrel.GtOrEq{"COALESCE(p.sale_price_cents, p.price_cents)": *filter.MinPrice})
	}

	if filter.MaxPrice != nil {
		query = query.Where(squirrel.LtOrEq{"COALESCE(p.sale_price_cents, p.price_cents)": *filter.MaxPrice})
	}

	return query
}

// List returns products matching the filter plus the unpaginated total.
func (r *ProductRepository) List(ctx context.Context, filter port.ProductFilter) ([]domain.Product, int, error) {
	selected := make([]string, 0, len(productColumns))
	for _, col := range productColumns {
		selected = append(selected, "p."+col)
	}

	query := applyProductFilter(
		r.builder.Select(selected...).From("commerce.products p"),
		filter,
	).OrderBy("p.created_at DESC")

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list products sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", err)
	}

	countStmt, countArgs, err := applyProductFilter(
		r.builder.Select("COUNT(*)").From("commerce.products p"),
		filter,
	).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count products sql: %w", err)
	}

	var total int64
	if err := r.exec.QueryRow(ctx, countStmt, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("scan products count: %w", err)
	}

	return products, int(total), nil
}

var variantColumns = []string{
	"id",
	"product_id",
	"name",
	"sku",
	"price_cents",
	"stock_quantity",
	"is_active",
	"created_at",
}

// GetVariant retrieves a single product variant.
func (r *ProductRepository) GetVariant(ctx context.Context, variantID string) (*domain.ProductVariant, error) {
	stmt, args, err := r.builder.Select(variantColumns...).
		From("commerce.product_variants").
		Where(squirrel.Eq{"id": variantID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select variant sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var variant domain.ProductVariant
	if err := row.Scan(
		&variant.ID,
		&variant.ProductID,
		&variant.Name,
		&variant.SKU,
		&variant.PriceCents,
		&variant.StockQuantity,
		&variant.IsActive,
		&variant.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan variant: %w", err)
	}

	return &variant, nil
}

// ListVariants returns the active variants for a product.
func (r *ProductRepository) ListVariants(ctx context.Context, productID string) ([]domain.ProductVariant, error) {
	stmt, args, err := r.builder.Select(variantColumns...).
		From("commerce.product_variants").
		Where(squirrel.Eq{"product_id": productID, "is_active": true}).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list variants sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()

	variants := make([]domain.ProductVariant, 0)
	for rows.Next() {
		var variant domain.ProductVariant
		if err := rows.Scan(
			&variant.ID,
			&variant.ProductID,
			&variant.Name,
			&variant.SKU,
			&variant.PriceCents,
			&variant.StockQuantity,
			&variant.IsActive,
			&variant.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		variants = append(variants, variant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variants: %w", err)
	}

	return variants, nil
}

// AdjustStock applies a stock delta and appends the matching inventory log
// entry in one transaction. The non-negative guard lives inside the UPDATE, so
// a concurrent sale of the last unit affects zero rows instead of going
// negative.
func (r *ProductRepository) AdjustStock(ctx context.Context, productID string, variantID *string, delta int, txType domain.InventoryTransactionType, reference *string) error {
	if r.pool == nil {
		return fmt.Errorf("adjust stock requires a pool-backed repository")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin adjust stock tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := adjustStockTx(ctx, tx, productID, variantID, delta, txType, reference); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit adjust stock tx: %w", err)
	}

	return nil
}

func adjustStockTx(ctx context.Context, tx pgx.Tx, productID string, variantID *string, delta int, txType domain.InventoryTransactionType, reference *string) error {
	var after int

	if variantID != nil {
		row := tx.QueryRow(ctx, `
			UPDATE commerce.product_variants
			   SET stock_quantity = stock_quantity + $2
			 WHERE id = $1
			   AND stock_quantity + $2 >= 0
			RETURNING stock_quantity
		`, *variantID, delta)
		if err := row.Scan(&after); err != nil {
			if err == pgx.ErrNoRows {
				return repository.ErrNotFound
			}
			return fmt.Errorf("adjust variant stock: %w", err)
		}
	} else {
		row := tx.QueryRow(ctx, `
			UPDATE commerce.products
			   SET stock_quantity = stock_quantity + $2,
			       updated_at = now()
			 WHERE id = $1
			   AND manage_stock
			   AND stock_quantity + $2 >= 0
			RETURNING stock_quantity
		`, productID, delta)
		if err := row.Scan(&after); err != nil {
			if err == pgx.ErrNoRows {
				return repository.ErrNotFound
			}
			return fmt.Errorf("adjust product stock: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO commerce.inventory_log
			(id, product_id, variant_id, transaction_type, quantity_change, quantity_before, quantity_after, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, uuid.NewString(), productID, variantID, txType, delta, after-delta, after, reference, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert inventory log: %w", err)
	}

	return nil
}

// ListInventoryLog returns recent stock movements for a product.
func (r *ProductRepository) ListInventoryLog(ctx context.Context, productID string, limit int) ([]domain.InventoryLog, error) {
	query := r.builder.Select(
		"id",
		"product_id",
		"variant_id",
		"transaction_type",
		"quantity_change",
		"quantity_before",
		"quantity_after",
		"reference",
		"note",
		"created_at",
	).
		From("commerce.inventory_log").
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("created_at DESC")

	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list inventory log sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query inventory log: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.InventoryLog, 0)
	for rows.Next() {
		var entry domain.InventoryLog
		if err := rows.Scan(
			&entry.ID,
			&entry.ProductID,
			&entry.VariantID,
			&entry.TransactionType,
			&entry.QuantityChange,
			&entry.QuantityBefore,
			&entry.QuantityAfter,
			&entry.Reference,
			&entry.Note,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan inventory log entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory log: %w", err)
	}

	return entries, nil
}

var _ port.ProductRepository = (*ProductRepository)(nil)
