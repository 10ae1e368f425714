package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/core/port"
)

var (
	// ErrInvalidPrice indicates a non-positive price was supplied.
	ErrInvalidPrice = errors.New("price must be positive")
	// ErrInvalidSalePrice indicates the sale price does not undercut the list price.
	ErrInvalidSalePrice = errors.New("sale price must be below the list price")
)

const (
	activeCategoriesCacheKey = "catalog:categories:active"
	categoriesCacheTTL       = 5 * time.Minute
)

// CatalogService serves the product taxonomy and inventory surface.
type CatalogService struct {
	categories port.CategoryRepository
	products   port.ProductRepository
	events     port.EventPublisher
	cache      port.Cache
	logger     *zap.Logger
}

// NewCatalogService constructs a CatalogService. The cache is optional and
// only backs the storefront category listing.
func NewCatalogService(categories port.CategoryRepository, products port.ProductRepository, events port.EventPublisher, cache port.Cache, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{categories: categories, products: products, events: events, cache: cache, logger: logger}
}

// ListCategories returns the taxonomy, active nodes only for storefront calls.
func (s *CatalogService) ListCategories(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	if activeOnly {
		if cached, ok := s.cachedCategories(ctx); ok {
			return cached, nil
		}
	}

	categories, err := s.categories.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	if activeOnly {
		s.storeCategories(ctx, categories)
	}
	return categories, nil
}

func (s *CatalogService) cachedCategories(ctx context.Context) ([]domain.Category, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, err := s.cache.Get(ctx, activeCategoriesCacheKey)
	if err != nil {
		return nil, false
	}

	var categories []domain.Category
	if err := json.Unmarshal([]byte(raw), &categories); err != nil {
		s.logger.Debug("drop undecodable category cache entry", zap.Error(err))
		_ = s.cache.Delete(ctx, activeCategoriesCacheKey)
		return nil, false
	}
	return categories, true
}

func (s *CatalogService) storeCategories(ctx context.Context, categories []domain.Category) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(categories)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, activeCategoriesCacheKey, string(raw), categoriesCacheTTL); err != nil {
		s.logger.Debug("cache category listing failed", zap.Error(err))
	}
}

// CategoryNode is a category with its resolved children.
type CategoryNode struct {
	domain.Category
	Children []CategoryNode
}

// CategoryTree returns active categories assembled into their hierarchy.
// Nodes whose parent is missing or inactive surface as roots.
func (s *CatalogService) CategoryTree(ctx context.Context) ([]CategoryNode, error) {
	categories, err := s.ListCategories(ctx, true)
	if err != nil {
		return nil, err
	}

	byParent := make(map[string][]domain.Category)
	present := make(map[string]struct{}, len(categories))
	for _, category := range categories {
		present[category.ID] = struct{}{}
	}

	var roots []domain.Category
	for _, category := range categories {
		if category.ParentID == nil {
			roots = append(roots, category)
			continue
		}
		if _, ok := present[*category.ParentID]; !ok {
			roots = append(roots, category)
			continue
		}
		byParent[*category.ParentID] = append(byParent[*category.ParentID], category)
	}

	return buildCategoryNodes(roots, byParent), nil
}

func buildCategoryNodes(categories []domain.Category, byParent map[string][]domain.Category) []CategoryNode {
	nodes := make([]CategoryNode, 0, len(categories))
	for _, category := range categories {
		nodes = append(nodes, CategoryNode{
			Category: category,
			Children: buildCategoryNodes(byParent[category.ID], byParent),
		})
	}
	return nodes
}

// GetCategory resolves a category by slug.
func (s *CatalogService) GetCategory(ctx context.Context, slug string) (*domain.Category, error) {
	category, err := s.categories.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, fmt.Errorf("lookup category: %w", err)
	}
	return category, nil
}

// CategoryInput carries the staff-facing category fields.
type CategoryInput struct {
	Name        string
	Description string
	ParentID    *string
	SortOrder   int
	IsActive    bool
}

// CreateCategory adds a taxonomy node with a slug derived from the name.
func (s *CatalogService) CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("category name is required")
	}

	now := time.Now().UTC()
	category := domain.Category{
		ID:          uuid.NewString(),
		ParentID:    input.ParentID,
		Name:        name,
		Slug:        Slugify(name),
		Description: strings.TrimSpace(input.Description),
		SortOrder:   input.SortOrder,
		IsActive:    input.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, activeCategoriesCacheKey)
	}
	return &category, nil
}

// ProductInput carries the staff-facing product fields.
type ProductInput struct {
	CategoryID        string
	Name              string
	SKU               string
	Description       string
	ShortDescription  string
	PriceCents        int64
	SalePriceCents    *int64
	ManageStock       bool
	StockQuantity     int
	LowStockThreshold int
	StockStatus       domain.StockStatus
	IsActive          bool
	IsFeatured        bool
}

// CreateProduct adds a product after validating the price fields.
func (s *CatalogService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("product name is required")
	}
	if strings.TrimSpace(input.SKU) == "" {
		return nil, fmt.Errorf("sku is required")
	}
	if input.CategoryID == "" {
		return nil, fmt.Errorf("category is required")
	}
	if err := validatePrices(input.PriceCents, input.SalePriceCents); err != nil {
		return nil, err
	}

	stockStatus := input.StockStatus
	if stockStatus == "" {
		stockStatus = domain.StockStatusInStock
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:                uuid.NewString(),
		CategoryID:        input.CategoryID,
		Name:              name,
		Slug:              Slugify(name),
		SKU:               strings.TrimSpace(input.SKU),
		Description:       input.Description,
		ShortDescription:  input.ShortDescription,
		PriceCents:        input.PriceCents,
		SalePriceCents:    input.SalePriceCents,
		ManageStock:       input.ManageStock,
		StockQuantity:     input.StockQuantity,
		LowStockThreshold: input.LowStockThreshold,
		StockStatus:       stockStatus,
		IsActive:          input.IsActive,
		IsFeatured:        input.IsFeatured,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &product, nil
}

// UpdateProduct applies staff edits to an existing product.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, input ProductInput) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup product: %w", err)
	}
	if err := validatePrices(input.PriceCents, input.SalePriceCents); err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" && name != product.Name {
		product.Name = name
		product.Slug = Slugify(name)
	}
	if input.CategoryID != "" {
		product.CategoryID = input.CategoryID
	}
	product.Description = input.Description
	product.ShortDescription = input.ShortDescription
	product.PriceCents = input.PriceCents
	product.SalePriceCents = input.SalePriceCents
	product.ManageStock = input.ManageStock
	product.LowStockThreshold = input.LowStockThreshold
	if input.StockStatus != "" {
		product.StockStatus = input.StockStatus
	}
	product.IsActive = input.IsActive
	product.IsFeatured = input.IsFeatured
	product.UpdatedAt = time.Now().UTC()

	if err := s.products.Update(ctx, *product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

// ListProducts returns a filtered product page and the total match count.
func (s *CatalogService) ListProducts(ctx context.Context, filter port.ProductFilter) ([]domain.Product, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// GetProduct resolves a product by slug together with its variants.
func (s *CatalogService) GetProduct(ctx context.Context, slug string) (*domain.Product, []domain.ProductVariant, error) {
	product, err := s.products.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, nil, fmt.Errorf("lookup product: %w", err)
	}

	variants, err := s.products.ListVariants(ctx, product.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list variants: %w", err)
	}
	return product, variants, nil
}

// ListFeatured returns the storefront highlight rail.
func (s *CatalogService) ListFeatured(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	products, _, err := s.products.List(ctx, port.ProductFilter{FeaturedOnly: true, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list featured products: %w", err)
	}
	return products, nil
}

// AdjustStock applies a staff stock correction and reports low-stock status.
func (s *CatalogService) AdjustStock(ctx context.Context, productID string, delta int, txType domain.InventoryTransactionType, note string) error {
	if productID == "" {
		return fmt.Errorf("product id is required")
	}
	if delta == 0 {
		return fmt.Errorf("quantity change must be non-zero")
	}
	if txType == "" {
		txType = domain.InventoryAdjustment
	}

	var ref *string
	if note = strings.TrimSpace(note); note != "" {
		ref = &note
	}
	if err := s.products.AdjustStock(ctx, productID, nil, delta, txType, ref); err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("lookup product: %w", err)
	}
	if product.IsLowStock() {
		s.publishLowStock(ctx, *product)
	}
	return nil
}

// ListInventoryLog returns recent stock movements for a product.
func (s *CatalogService) ListInventoryLog(ctx context.Context, productID string, limit int) ([]domain.InventoryLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	entries, err := s.products.ListInventoryLog(ctx, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("list inventory log: %w", err)
	}
	return entries, nil
}

func (s *CatalogService) publishLowStock(ctx context.Context, product domain.Product) {
	if s.events == nil {
		return
	}

	event := domain.LowStockEvent{
		EventID:    uuid.NewString(),
		ProductID:  product.ID,
		SKU:        product.SKU,
		Quantity:   product.StockQuantity,
		Threshold:  product.LowStockThreshold,
		ObservedAt: time.Now().UTC(),
	}
	if err := s.events.PublishLowStock(ctx, event); err != nil {
		s.logger.Warn("publish low stock event failed", zap.String("product_id", product.ID), zap.Error(err))
	}
}

func validatePrices(priceCents int64, salePriceCents *int64) error {
	if priceCents <= 0 {
		return ErrInvalidPrice
	}
	if salePriceCents != nil && (*salePriceCents <= 0 || *salePriceCents >= priceCents) {
		return ErrInvalidSalePrice
	}
	return nil
}

// Slugify lowercases the value and collapses non-alphanumeric runs to hyphens.
func Slugify(value string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
