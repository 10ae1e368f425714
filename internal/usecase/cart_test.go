package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
)

func saleProduct() domain.Product {
	sale := int64(1500)
	return domain.Product{
		ID:             "prod-1",
		Name:           "Canvas Tote",
		SKU:            "TOTE-01",
		PriceCents:     2000,
		SalePriceCents: &sale,
		ManageStock:    true,
		StockQuantity:  10,
		IsActive:       true,
	}
}

func TestAddItemCapturesSalePrice(t *testing.T) {
	products := newFakeProductRepo(saleProduct())
	carts := newFakeCartRepo("user-1")
	service := NewCartService(carts, products, nil)

	cart, err := service.AddItem(context.Background(), "user-1", "prod-1", nil, 2)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(cart.Items))
	}
	if cart.Items[0].UnitPriceCents != 1500 {
		t.Fatalf("expected the sale price to be captured, got %d", cart.Items[0].UnitPriceCents)
	}
	if cart.Subtotal() != 3000 {
		t.Fatalf("expected subtotal 3000, got %d", cart.Subtotal())
	}
}

func TestAddItemMergesSameLineAndKeepsOriginalPrice(t *testing.T) {
	products := newFakeProductRepo(saleProduct())
	carts := newFakeCartRepo("user-1")
	service := NewCartService(carts, products, nil)
	ctx := context.Background()

	if _, err := service.AddItem(ctx, "user-1", "prod-1", nil, 2); err != nil {
		t.Fatalf("first add: %v", err)
	}

	// Sale ends between the two adds; the captured price must not change.
	products.products["prod-1"].SalePriceCents = nil

	cart, err := service.AddItem(ctx, "user-1", "prod-1", nil, 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected the lines to merge, got %d lines", len(cart.Items))
	}
	if cart.Items[0].Quantity != 5 {
		t.Fatalf("expected merged quantity 5, got %d", cart.Items[0].Quantity)
	}
	if cart.Items[0].UnitPriceCents != 1500 {
		t.Fatalf("expected the original captured price, got %d", cart.Items[0].UnitPriceCents)
	}
}

func TestAddItemEnforcesStockAndQuantityBounds(t *testing.T) {
	product := saleProduct()
	product.StockQuantity = 3
	products := newFakeProductRepo(product)
	carts := newFakeCartRepo("user-1")
	service := NewCartService(carts, products, nil)
	ctx := context.Background()

	if _, err := service.AddItem(ctx, "user-1", "prod-1", nil, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity for zero, got %v", err)
	}
	if _, err := service.AddItem(ctx, "user-1", "prod-1", nil, 100); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity above cap, got %v", err)
	}
	if _, err := service.AddItem(ctx, "user-1", "prod-1", nil, 4); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestAddItemRejectsInactiveProduct(t *testing.T) {
	product := saleProduct()
	product.IsActive = false
	products := newFakeProductRepo(product)
	service := NewCartService(newFakeCartRepo("user-1"), products, nil)

	_, err := service.AddItem(context.Background(), "user-1", "prod-1", nil, 1)
	if !errors.Is(err, ErrProductUnavailable) {
		t.Fatalf("expected ErrProductUnavailable, got %v", err)
	}
}

func TestAddItemUsesVariantPriceAndStock(t *testing.T) {
	products := newFakeProductRepo(saleProduct())
	variantPrice := int64(1800)
	products.addVariant(domain.ProductVariant{
		ID:            "var-1",
		ProductID:     "prod-1",
		Name:          "Large",
		SKU:           "TOTE-01-L",
		PriceCents:    &variantPrice,
		StockQuantity: 1,
		IsActive:      true,
	})
	service := NewCartService(newFakeCartRepo("user-1"), products, nil)
	ctx := context.Background()

	variantID := "var-1"
	cart, err := service.AddItem(ctx, "user-1", "prod-1", &variantID, 1)
	if err != nil {
		t.Fatalf("add variant: %v", err)
	}
	if cart.Items[0].UnitPriceCents != 1800 {
		t.Fatalf("expected variant price, got %d", cart.Items[0].UnitPriceCents)
	}

	if _, err := service.AddItem(ctx, "user-1", "prod-1", &variantID, 1); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected variant stock to bound the merge, got %v", err)
	}
}

func TestUpdateAndRemoveCartLines(t *testing.T) {
	products := newFakeProductRepo(saleProduct())
	carts := newFakeCartRepo("user-1")
	service := NewCartService(carts, products, nil)
	ctx := context.Background()

	cart, err := service.AddItem(ctx, "user-1", "prod-1", nil, 2)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	itemID := cart.Items[0].ID

	cart, err = service.UpdateItemQuantity(ctx, "user-1", itemID, 7)
	if err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if cart.Items[0].Quantity != 7 {
		t.Fatalf("expected quantity 7, got %d", cart.Items[0].Quantity)
	}

	cart, err = service.RemoveItem(ctx, "user-1", itemID)
	if err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(cart.Items))
	}
}
