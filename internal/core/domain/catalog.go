package domain

import (
	"math"
	"time"
)

// StockStatus is the manually curated availability flag used when stock
// tracking is disabled for a product.
type StockStatus string

const (
	StockStatusInStock    StockStatus = "in_stock"
	StockStatusOutOfStock StockStatus = "out_of_stock"
	StockStatusBackorder  StockStatus = "on_backorder"
)

// Category is a node of the hierarchical product taxonomy.
type Category struct {
	ID          string
	ParentID    *string
	Name        string
	Slug        string
	Description string
	SortOrder   int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Product mirrors the persisted representation in the products table.
// All monetary amounts are minor units (cents).
type Product struct {
	ID                string
	CategoryID        string
	Name              string
	Slug              string
	SKU               string
	Description       string
	ShortDescription  string
	PriceCents        int64
	SalePriceCents    *int64
	ManageStock       bool
	StockQuantity     int
	LowStockThreshold int
	StockStatus       StockStatus
	WeightGrams       *int
	IsActive          bool
	IsFeatured        bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsInStock reports availability: tracked products look at the counter,
// untracked ones at the manual status flag.
func (p Product) IsInStock() bool {
	if p.ManageStock {
		return p.StockQuantity > 0
	}
	return p.StockStatus == StockStatusInStock
}

// IsLowStock reports whether a tracked product has fallen to or below its
// low-stock threshold while still being available.
func (p Product) IsLowStock() bool {
	return p.ManageStock && p.StockQuantity > 0 && p.StockQuantity <= p.LowStockThreshold
}

// CurrentPrice returns the sale price when one is set, the list price otherwise.
func (p Product) CurrentPrice() int64 {
	if p.SalePriceCents != nil && *p.SalePriceCents > 0 && *p.SalePriceCents < p.PriceCents {
		return *p.SalePriceCents
	}
	return p.PriceCents
}

// DiscountPercentage returns the rounded percentage saved off the list price,
// or zero when the product is not on sale.
func (p Product) DiscountPercentage() int {
	current := p.CurrentPrice()
	if current >= p.PriceCents || p.PriceCents <= 0 {
		return 0
	}
	return int(math.Round(float64(p.PriceCents-current) / float64(p.PriceCents) * 100))
}

// ProductVariant overrides price and stock for a specific product option
// (size, color). A nil PriceCents falls back to the parent product price.
type ProductVariant struct {
	ID            string
	ProductID     string
	Name          string
	SKU           string
	PriceCents    *int64
	StockQuantity int
	IsActive      bool
	CreatedAt     time.Time
}

// EffectivePrice resolves the variant price against its parent product.
func (v ProductVariant) EffectivePrice(parent Product) int64 {
	if v.PriceCents != nil && *v.PriceCents > 0 {
		return *v.PriceCents
	}
	return parent.CurrentPrice()
}

// InventoryTransactionType classifies stock movements.
type InventoryTransactionType string

const (
	InventorySale       InventoryTransactionType = "sale"
	InventoryRestock    InventoryTransactionType = "restock"
	InventoryAdjustment InventoryTransactionType = "adjustment"
	InventoryReturn     InventoryTransactionType = "return"
)

// InventoryLog is an append-only record of a stock quantity change.
type InventoryLog struct {
	ID              string
	ProductID       string
	VariantID       *string
	TransactionType InventoryTransactionType
	QuantityChange  int
	QuantityBefore  int
	QuantityAfter   int
	Reference       *string
	Note            *string
	CreatedAt       time.Time
}
