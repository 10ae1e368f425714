package port

import (
	"context"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
)

// ProductFilter narrows product listings.
type ProductFilter struct {
	CategorySlug string
	Search       string
	FeaturedOnly bool
	InStockOnly  bool
	MinPrice     *int64
	MaxPrice     *int64
	Limit        int
	Offset       int
}

// CategoryRepository exposes persistence behavior for the product taxonomy.
type CategoryRepository interface {
	Create(ctx context.Context, category domain.Category) error
	Update(ctx context.Context, category domain.Category) error
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Category, error)
}

// ProductRepository exposes persistence behavior for products and variants.
type ProductRepository interface {
	Create(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)
	GetVariant(ctx context.Context, variantID string) (*domain.ProductVariant, error)
	ListVariants(ctx context.Context, productID string) ([]domain.ProductVariant, error)
	// AdjustStock applies a conditional stock delta (never below zero for
	// sales) and appends the matching inventory log entry.
	AdjustStock(ctx context.Context, productID string, variantID *string, delta int, txType domain.InventoryTransactionType, reference *string) error
	ListInventoryLog(ctx context.Context, productID string, limit int) ([]domain.InventoryLog, error)
}
