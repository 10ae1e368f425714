package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/core/port"
	"github.com/arklim/social-platform-commerce/internal/repository"
)

const maxCartLineQuantity = 99

var (
	// ErrProductUnavailable indicates the product is inactive or cannot be purchased.
	ErrProductUnavailable = errors.New("product is not available")
	// ErrInsufficientStock indicates the requested quantity exceeds available stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidQuantity indicates a non-positive or excessive quantity.
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// CartService manages the per-account shopping cart.
type CartService struct {
	carts    port.CartRepository
	products port.ProductRepository
	logger   *zap.Logger
}

// NewCartService constructs a CartService.
func NewCartService(carts port.CartRepository, products port.ProductRepository, logger *zap.Logger) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{carts: carts, products: products, logger: logger}
}

// GetCart returns the user's cart, creating an empty one on first use.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return cart, nil
}

// AddItem puts quantity units of a product (or variant) into the cart. A line
// for the same (product, variant) pair merges quantities; the unit price is
// captured at add time.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, variantID *string, quantity int) (*domain.Cart, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if productID == "" {
		return nil, fmt.Errorf("product id is required")
	}
	if quantity <= 0 || quantity > maxCartLineQuantity {
		return nil, ErrInvalidQuantity
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductUnavailable
		}
		return nil, fmt.Errorf("lookup product: %w", err)
	}
	if !product.IsActive || !product.IsInStock() {
		return nil, ErrProductUnavailable
	}

	unitPrice := product.CurrentPrice()
	available := product.StockQuantity
	if variantID != nil {
		variant, err := s.products.GetVariant(ctx, *variantID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrProductUnavailable
			}
			return nil, fmt.Errorf("lookup variant: %w", err)
		}
		if variant.ProductID != product.ID || !variant.IsActive {
			return nil, ErrProductUnavailable
		}
		unitPrice = variant.EffectivePrice(*product)
		available = variant.StockQuantity
	}

	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	newQuantity := quantity
	existing := cart.FindItem(productID, variantID)
	if existing != nil {
		newQuantity += existing.Quantity
	}
	if newQuantity > maxCartLineQuantity {
		return nil, ErrInvalidQuantity
	}
	if product.ManageStock && newQuantity > available {
		return nil, ErrInsufficientStock
	}

	item := domain.CartItem{
		ID:             uuid.NewString(),
		CartID:         cart.ID,
		ProductID:      productID,
		VariantID:      variantID,
		Quantity:       newQuantity,
		UnitPriceCents: unitPrice,
		AddedAt:        time.Now().UTC(),
	}
	if existing != nil {
		item.ID = existing.ID
		item.UnitPriceCents = existing.UnitPriceCents
		item.AddedAt = existing.AddedAt
	}

	if err := s.carts.UpsertItem(ctx, item); err != nil {
		return nil, fmt.Errorf("store cart item: %w", err)
	}

	return s.GetCart(ctx, userID)
}

// UpdateItemQuantity sets the quantity of an existing cart line.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 || quantity > maxCartLineQuantity {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	var target *domain.CartItem
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			target = &cart.Items[i]
			break
		}
	}
	if target == nil {
		return nil, repository.ErrNotFound
	}

	product, err := s.products.GetByID(ctx, target.ProductID)
	if err != nil {
		return nil, fmt.Errorf("lookup product: %w", err)
	}
	if product.ManageStock {
		available := product.StockQuantity
		if target.VariantID != nil {
			variant, err := s.products.GetVariant(ctx, *target.VariantID)
			if err != nil {
				return nil, fmt.Errorf("lookup variant: %w", err)
			}
			available = variant.StockQuantity
		}
		if quantity > available {
			return nil, ErrInsufficientStock
		}
	}

	if err := s.carts.UpdateItemQuantity(ctx, cart.ID, itemID, quantity); err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}

	return s.GetCart(ctx, userID)
}

// RemoveItem deletes one line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) (*domain.Cart, error) {
	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	if err := s.carts.RemoveItem(ctx, cart.ID, itemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("remove cart item: %w", err)
	}

	return s.GetCart(ctx, userID)
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	if err := s.carts.Clear(ctx, cart.ID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
