package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Canvas Tote", "canvas-tote"},
		{"  Héllo --- World!  ", "héllo-world"},
		{"Size 10.5 (wide)", "size-10-5-wide"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCreateProductValidatesPrices(t *testing.T) {
	products := newFakeProductRepo()
	service := NewCatalogService(&fakeCategoryRepo{}, products, nil, nil, nil)
	ctx := context.Background()

	input := ProductInput{
		CategoryID: "cat-1",
		Name:       "Canvas Tote",
		SKU:        "TOTE-01",
		PriceCents: 0,
		IsActive:   true,
	}
	if _, err := service.CreateProduct(ctx, input); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}

	input.PriceCents = 2000
	sale := int64(2500)
	input.SalePriceCents = &sale
	if _, err := service.CreateProduct(ctx, input); !errors.Is(err, ErrInvalidSalePrice) {
		t.Fatalf("expected ErrInvalidSalePrice, got %v", err)
	}

	sale = 1500
	product, err := service.CreateProduct(ctx, input)
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if product.Slug != "canvas-tote" {
		t.Fatalf("expected derived slug, got %q", product.Slug)
	}
	if product.StockStatus != domain.StockStatusInStock {
		t.Fatalf("expected default stock status, got %s", product.StockStatus)
	}
}

func TestListCategoriesUsesCache(t *testing.T) {
	categories := &fakeCategoryRepo{categories: []domain.Category{
		{ID: "cat-1", Name: "Bags", Slug: "bags", IsActive: true},
		{ID: "cat-2", Name: "Archived", Slug: "archived", IsActive: false},
	}}
	cache := newFakeCache()
	service := NewCatalogService(categories, newFakeProductRepo(), nil, cache, nil)
	ctx := context.Background()

	first, err := service.ListCategories(ctx, true)
	if err != nil {
		t.Fatalf("first listing: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected only active categories, got %d", len(first))
	}

	second, err := service.ListCategories(ctx, true)
	if err != nil {
		t.Fatalf("second listing: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("expected cached listing of 1, got %d", len(second))
	}
	if categories.listCalls != 1 {
		t.Fatalf("expected the second call to hit the cache, repo saw %d calls", categories.listCalls)
	}
	if cache.hits != 1 {
		t.Fatalf("expected one cache hit, got %d", cache.hits)
	}

	// Staff listings bypass the cache.
	all, err := service.ListCategories(ctx, false)
	if err != nil {
		t.Fatalf("staff listing: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected both categories, got %d", len(all))
	}
}

func TestCreateCategoryInvalidatesCache(t *testing.T) {
	categories := &fakeCategoryRepo{}
	cache := newFakeCache()
	service := NewCatalogService(categories, newFakeProductRepo(), nil, cache, nil)
	ctx := context.Background()

	if _, err := service.ListCategories(ctx, true); err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	if _, err := service.CreateCategory(ctx, CategoryInput{Name: "Bags", IsActive: true}); err != nil {
		t.Fatalf("create category: %v", err)
	}

	listing, err := service.ListCategories(ctx, true)
	if err != nil {
		t.Fatalf("list after create: %v", err)
	}
	if len(listing) != 1 {
		t.Fatalf("expected the new category to be visible, got %d entries", len(listing))
	}
}

func TestAdjustStockPublishesLowStockEvent(t *testing.T) {
	product := domain.Product{
		ID:                "prod-1",
		Name:              "Canvas Tote",
		SKU:               "TOTE-01",
		PriceCents:        2000,
		ManageStock:       true,
		StockQuantity:     10,
		LowStockThreshold: 5,
		IsActive:          true,
	}
	products := newFakeProductRepo(product)
	events := &fakeEventPublisher{}
	service := NewCatalogService(&fakeCategoryRepo{}, products, events, nil, nil)
	ctx := context.Background()

	if err := service.AdjustStock(ctx, "prod-1", -7, domain.InventoryAdjustment, "shrinkage"); err != nil {
		t.Fatalf("adjust stock: %v", err)
	}
	if events.lowStock != 1 {
		t.Fatalf("expected a low stock event, got %d", events.lowStock)
	}

	entries, err := service.ListInventoryLog(ctx, "prod-1", 10)
	if err != nil {
		t.Fatalf("list inventory log: %v", err)
	}
	if len(entries) != 1 || entries[0].QuantityChange != -7 {
		t.Fatalf("expected one log entry with delta -7, got %+v", entries)
	}

	// A sale below zero is refused by the storage guard.
	if err := service.AdjustStock(ctx, "prod-1", -10, domain.InventorySale, ""); err == nil {
		t.Fatal("expected negative stock to be rejected")
	}
}

func TestCategoryTreeNestsChildren(t *testing.T) {
	parentID := "cat-root"
	hiddenID := "cat-hidden"
	categories := &fakeCategoryRepo{categories: []domain.Category{
		{ID: parentID, Name: "Apparel", Slug: "apparel", IsActive: true},
		{ID: "cat-child", Name: "Shirts", Slug: "shirts", ParentID: &parentID, IsActive: true},
		{ID: hiddenID, Name: "Archive", Slug: "archive", IsActive: false},
		{ID: "cat-orphan", Name: "Clearance", Slug: "clearance", ParentID: &hiddenID, IsActive: true},
	}}
	service := NewCatalogService(categories, newFakeProductRepo(), nil, nil, nil)

	tree, err := service.CategoryTree(context.Background())
	if err != nil {
		t.Fatalf("CategoryTree returned %v", err)
	}

	if len(tree) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(tree))
	}
	byName := make(map[string]CategoryNode, len(tree))
	for _, node := range tree {
		byName[node.Name] = node
	}

	apparel, ok := byName["Apparel"]
	if !ok {
		t.Fatal("missing Apparel root")
	}
	if len(apparel.Children) != 1 || apparel.Children[0].Slug != "shirts" {
		t.Fatalf("expected shirts under apparel, got %+v", apparel.Children)
	}

	// The orphan's parent is inactive, so it surfaces as a root.
	if _, ok := byName["Clearance"]; !ok {
		t.Fatal("orphaned child should be promoted to a root")
	}
}
