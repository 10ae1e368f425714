package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/infra/config"
	"github.com/arklim/social-platform-commerce/internal/repository"
)

type orderFixture struct {
	service   *OrderService
	carts     *fakeCartRepo
	products  *fakeProductRepo
	orders    *fakeOrderRepo
	discounts *fakeDiscountRepo
	events    *fakeEventPublisher
}

func newOrderFixture(discounts ...domain.Discount) *orderFixture {
	product := domain.Product{
		ID:            "prod-1",
		Name:          "Canvas Tote",
		SKU:           "TOTE-01",
		PriceCents:    2000,
		ManageStock:   true,
		StockQuantity: 10,
		IsActive:      true,
	}

	carts := newFakeCartRepo("user-1")
	carts.cart.Items = []domain.CartItem{{
		ID:             "item-1",
		CartID:         "cart-1",
		ProductID:      "prod-1",
		Quantity:       3,
		UnitPriceCents: 2000,
	}}

	fixture := &orderFixture{
		carts:     carts,
		products:  newFakeProductRepo(product),
		orders:    newFakeOrderRepo(),
		discounts: newFakeDiscountRepo(discounts...),
		events:    &fakeEventPublisher{},
	}

	cfg := &config.AppConfig{
		Checkout: config.CheckoutSettings{ShippingCents: 500, TaxBasisPoints: 1000},
	}
	fixture.service = NewOrderService(cfg, fixture.carts, fixture.products, fixture.orders, fixture.discounts, fixture.events, nil)
	return fixture
}

func validCheckoutInput() CheckoutInput {
	return CheckoutInput{
		UserID:        "user-1",
		ShippingName:  "Sam Lee",
		ShippingLine1: "12 Harbor Way",
		ShippingCity:  "Portsmouth",
		ShippingZip:   "03801",
		PaymentMethod: "card",
	}
}

func TestCheckoutComputesTotals(t *testing.T) {
	fixture := newOrderFixture()

	order, err := fixture.service.Checkout(context.Background(), validCheckoutInput())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	// 3 x 2000 subtotal, 500 flat shipping, 10% tax.
	if order.SubtotalCents != 6000 {
		t.Fatalf("expected subtotal 6000, got %d", order.SubtotalCents)
	}
	if order.ShippingCents != 500 {
		t.Fatalf("expected shipping 500, got %d", order.ShippingCents)
	}
	if order.TaxCents != 600 {
		t.Fatalf("expected tax 600, got %d", order.TaxCents)
	}
	if got, want := order.TotalCents, order.SubtotalCents+order.ShippingCents+order.TaxCents-order.DiscountCents; got != want {
		t.Fatalf("total %d breaks the invariant, want %d", got, want)
	}
	if !strings.HasPrefix(order.OrderNumber, "ORD-") {
		t.Fatalf("unexpected order number %q", order.OrderNumber)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}
	if len(order.Items) != 1 || order.Items[0].ProductName != "Canvas Tote" {
		t.Fatal("expected the cart line to be frozen into an order item")
	}
	if fixture.orders.clearedVia != "cart-1" {
		t.Fatal("expected the cart to be handed to the checkout transaction")
	}
	if fixture.events.orders != 1 {
		t.Fatalf("expected one order created event, got %d", fixture.events.orders)
	}

	payment, err := fixture.orders.GetPaymentByOrderID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("lookup payment: %v", err)
	}
	if payment.AmountCents != order.TotalCents {
		t.Fatalf("payment amount %d must match order total %d", payment.AmountCents, order.TotalCents)
	}
}

func TestCheckoutFreezesEveryCartLine(t *testing.T) {
	fixture := newOrderFixture()
	fixture.products.products["prod-2"] = &domain.Product{
		ID:            "prod-2",
		Name:          "Wool Scarf",
		SKU:           "SCARF-01",
		PriceCents:    2000,
		ManageStock:   true,
		StockQuantity: 10,
		IsActive:      true,
	}
	fixture.carts.cart.Items = []domain.CartItem{
		{ID: "item-1", CartID: "cart-1", ProductID: "prod-1", Quantity: 2, UnitPriceCents: 5000},
		{ID: "item-2", CartID: "cart-1", ProductID: "prod-2", Quantity: 3, UnitPriceCents: 2000},
	}

	order, err := fixture.service.Checkout(context.Background(), validCheckoutInput())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	// 2 x 5000 plus 3 x 2000.
	if order.SubtotalCents != 16000 {
		t.Fatalf("expected subtotal 16000, got %d", order.SubtotalCents)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected both cart lines frozen, got %d items", len(order.Items))
	}

	byProduct := make(map[string]domain.OrderItem, len(order.Items))
	for _, item := range order.Items {
		byProduct[item.ProductID] = item
	}
	if item := byProduct["prod-1"]; item.Quantity != 2 || item.TotalCents != 10000 {
		t.Fatalf("first line frozen wrong: qty=%d total=%d", item.Quantity, item.TotalCents)
	}
	if item := byProduct["prod-2"]; item.ProductName != "Wool Scarf" || item.TotalCents != 6000 {
		t.Fatalf("second line frozen wrong: name=%q total=%d", item.ProductName, item.TotalCents)
	}
}

func TestCheckoutAppliesPercentageDiscount(t *testing.T) {
	cap := int64(500)
	fixture := newOrderFixture(domain.Discount{
		ID:               "disc-1",
		Code:             "SAVE20",
		Type:             domain.DiscountPercentage,
		Value:            20,
		MaxDiscountCents: &cap,
		IsActive:         true,
	})

	input := validCheckoutInput()
	input.DiscountCode = "save20"

	order, err := fixture.service.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	// 20% of 6000 is 1200, capped at 500.
	if order.DiscountCents != 500 {
		t.Fatalf("expected capped discount 500, got %d", order.DiscountCents)
	}
	if order.DiscountCode == nil || *order.DiscountCode != "SAVE20" {
		t.Fatal("expected the normalized code on the order")
	}
	if got, want := order.TotalCents, order.SubtotalCents+order.ShippingCents+order.TaxCents-order.DiscountCents; got != want {
		t.Fatalf("total %d breaks the invariant, want %d", got, want)
	}
}

func TestCheckoutFreeShippingWaivesShippingLine(t *testing.T) {
	fixture := newOrderFixture(domain.Discount{
		ID:       "disc-2",
		Code:     "SHIPFREE",
		Type:     domain.DiscountFreeShipping,
		IsActive: true,
	})

	input := validCheckoutInput()
	input.DiscountCode = "SHIPFREE"

	order, err := fixture.service.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if order.ShippingCents != 0 {
		t.Fatalf("expected free shipping, got %d", order.ShippingCents)
	}
	if order.DiscountCents != 0 {
		t.Fatalf("free shipping must not also discount the total, got %d", order.DiscountCents)
	}
}

func TestCheckoutRejectsEmptyCartAndBadDiscounts(t *testing.T) {
	fixture := newOrderFixture()
	ctx := context.Background()

	input := validCheckoutInput()
	input.DiscountCode = "NOPE"
	if _, err := fixture.service.Checkout(ctx, input); !errors.Is(err, ErrDiscountNotFound) {
		t.Fatalf("expected ErrDiscountNotFound, got %v", err)
	}

	fixture.carts.cart.Items = nil
	if _, err := fixture.service.Checkout(ctx, validCheckoutInput()); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCheckoutRejectsInsufficientStock(t *testing.T) {
	fixture := newOrderFixture()
	fixture.products.products["prod-1"].StockQuantity = 2

	_, err := fixture.service.Checkout(context.Background(), validCheckoutInput())
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestCheckoutMapsStorageConflictToInsufficientStock(t *testing.T) {
	fixture := newOrderFixture()
	fixture.orders.placeErr = repository.ErrConflict

	_, err := fixture.service.Checkout(context.Background(), validCheckoutInput())
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected conflict to surface as ErrInsufficientStock, got %v", err)
	}
}

func TestGetOrderEnforcesOwnership(t *testing.T) {
	fixture := newOrderFixture()
	ctx := context.Background()

	order, err := fixture.service.Checkout(ctx, validCheckoutInput())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if _, err := fixture.service.GetOrder(ctx, order.ID, "someone-else", false); !errors.Is(err, ErrNotOrderOwner) {
		t.Fatalf("expected ErrNotOrderOwner, got %v", err)
	}
	if _, err := fixture.service.GetOrder(ctx, order.ID, "someone-else", true); err != nil {
		t.Fatalf("staff must bypass the ownership check, got %v", err)
	}
}

func TestCancelOrderGuard(t *testing.T) {
	fixture := newOrderFixture()
	ctx := context.Background()

	order, err := fixture.service.Checkout(ctx, validCheckoutInput())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	cancelled, err := fixture.service.CancelOrder(ctx, order.ID, "user-1", false)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != domain.OrderStatusCancelled {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}

	if _, err := fixture.service.CancelOrder(ctx, order.ID, "user-1", false); !errors.Is(err, ErrOrderNotCancellable) {
		t.Fatalf("expected ErrOrderNotCancellable for a cancelled order, got %v", err)
	}
}

func TestConfirmPaymentMovesOrderToPaid(t *testing.T) {
	fixture := newOrderFixture()
	ctx := context.Background()

	order, err := fixture.service.Checkout(ctx, validCheckoutInput())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	payment, err := fixture.service.ConfirmPayment(ctx, order.ID, "user-1", false)
	if err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
	if payment.Status != domain.PaymentStatusCompleted {
		t.Fatalf("expected completed payment, got %s", payment.Status)
	}
	if payment.TransactionID == nil || *payment.TransactionID == "" {
		t.Fatal("expected a gateway transaction id")
	}

	stored, err := fixture.orders.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("lookup order: %v", err)
	}
	if stored.Status != domain.OrderStatusPaid {
		t.Fatalf("expected paid order, got %s", stored.Status)
	}

	if _, err := fixture.service.ConfirmPayment(ctx, order.ID, "user-1", false); !errors.Is(err, ErrPaymentAlreadyCompleted) {
		t.Fatalf("expected ErrPaymentAlreadyCompleted, got %v", err)
	}
}

func TestRefundPaymentBounds(t *testing.T) {
	fixture := newOrderFixture()
	ctx := context.Background()

	order, err := fixture.service.Checkout(ctx, validCheckoutInput())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	// Refunds require a settled payment.
	if _, err := fixture.service.RefundPayment(ctx, order.ID, 100); !errors.Is(err, ErrRefundNotAllowed) {
		t.Fatalf("expected ErrRefundNotAllowed before settlement, got %v", err)
	}

	if _, err := fixture.service.ConfirmPayment(ctx, order.ID, "user-1", false); err != nil {
		t.Fatalf("confirm payment: %v", err)
	}

	payment, err := fixture.service.RefundPayment(ctx, order.ID, 1000)
	if err != nil {
		t.Fatalf("partial refund: %v", err)
	}
	if payment.RefundedCents != 1000 {
		t.Fatalf("expected refunded 1000, got %d", payment.RefundedCents)
	}
	if payment.Status != domain.PaymentStatusCompleted {
		t.Fatalf("partial refund must not flip the status, got %s", payment.Status)
	}

	if _, err := fixture.service.RefundPayment(ctx, order.ID, payment.AmountCents); !errors.Is(err, ErrRefundExceedsBalance) {
		t.Fatalf("expected ErrRefundExceedsBalance, got %v", err)
	}

	// A zero amount refunds whatever remains and closes out the payment.
	payment, err = fixture.service.RefundPayment(ctx, order.ID, 0)
	if err != nil {
		t.Fatalf("full refund: %v", err)
	}
	if payment.Status != domain.PaymentStatusRefunded {
		t.Fatalf("expected refunded payment, got %s", payment.Status)
	}
	if payment.RefundedCents != payment.AmountCents {
		t.Fatalf("expected the full amount refunded, got %d of %d", payment.RefundedCents, payment.AmountCents)
	}

	stored, err := fixture.orders.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("lookup order: %v", err)
	}
	if stored.Status != domain.OrderStatusRefunded {
		t.Fatalf("expected refunded order, got %s", stored.Status)
	}
}

func TestUpdateShippingStatusAdvancesOrder(t *testing.T) {
	fixture := newOrderFixture()
	ctx := context.Background()

	order, err := fixture.service.Checkout(ctx, validCheckoutInput())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if _, err := fixture.service.ConfirmPayment(ctx, order.ID, "user-1", false); err != nil {
		t.Fatalf("confirm payment: %v", err)
	}

	updated, err := fixture.service.UpdateShippingStatus(ctx, order.ID, domain.ShippingStatusShipped, "TRACK-42")
	if err != nil {
		t.Fatalf("update shipping: %v", err)
	}
	if updated.Status != domain.OrderStatusShipped {
		t.Fatalf("expected shipped order, got %s", updated.Status)
	}
	if updated.TrackingNumber == nil || *updated.TrackingNumber != "TRACK-42" {
		t.Fatal("expected the tracking number to be stored")
	}

	// Fulfilment has started, the owner can no longer cancel.
	if _, err := fixture.service.CancelOrder(ctx, order.ID, "user-1", false); !errors.Is(err, ErrOrderNotCancellable) {
		t.Fatalf("expected ErrOrderNotCancellable after shipping, got %v", err)
	}

	// Carrier hand-off keeps the order status at shipped.
	updated, err = fixture.service.UpdateShippingStatus(ctx, order.ID, domain.ShippingStatusInTransit, "")
	if err != nil {
		t.Fatalf("update shipping to in_transit: %v", err)
	}
	if updated.ShippingStatus != domain.ShippingStatusInTransit {
		t.Fatalf("expected in_transit, got %s", updated.ShippingStatus)
	}
	if updated.Status != domain.OrderStatusShipped {
		t.Fatalf("in_transit must not change the order status, got %s", updated.Status)
	}
}

func TestUpdateShippingStatusRejectsUnknownState(t *testing.T) {
	fixture := newOrderFixture()
	ctx := context.Background()

	order, err := fixture.service.Checkout(ctx, validCheckoutInput())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if _, err := fixture.service.UpdateShippingStatus(ctx, order.ID, "expedited", ""); !errors.Is(err, ErrInvalidShippingStatus) {
		t.Fatalf("expected ErrInvalidShippingStatus, got %v", err)
	}

	stored, err := fixture.orders.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("lookup order: %v", err)
	}
	if stored.ShippingStatus != domain.ShippingStatusPending {
		t.Fatalf("rejected update must not persist, got %s", stored.ShippingStatus)
	}
}

func TestCheckoutRequiresCompleteAddress(t *testing.T) {
	fixture := newOrderFixture()

	input := validCheckoutInput()
	input.ShippingCity = "  "

	if _, err := fixture.service.Checkout(context.Background(), input); err == nil {
		t.Fatal("expected an incomplete address to be rejected")
	}
}
