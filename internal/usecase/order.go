package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/core/port"
	"github.com/arklim/social-platform-commerce/internal/infra/config"
	"github.com/arklim/social-platform-commerce/internal/infra/security"
	"github.com/arklim/social-platform-commerce/internal/repository"
)

var (
	// ErrEmptyCart indicates checkout was attempted with no cart lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNotOrderOwner indicates the caller does not own the order.
	ErrNotOrderOwner = errors.New("order belongs to another account")
	// ErrOrderNotCancellable indicates the cancellation guard rejected the transition.
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
	// ErrPaymentAlreadyCompleted indicates the payment is not awaiting confirmation.
	ErrPaymentAlreadyCompleted = errors.New("payment already completed")
	// ErrRefundNotAllowed indicates the payment has no refundable balance.
	ErrRefundNotAllowed = errors.New("payment cannot be refunded")
	// ErrRefundExceedsBalance indicates the refund would exceed the captured amount.
	ErrRefundExceedsBalance = errors.New("refund exceeds refundable balance")
	// ErrInvalidShippingStatus indicates the supplied fulfilment state is unknown.
	ErrInvalidShippingStatus = errors.New("invalid shipping status")
)

// OrderService drives checkout and the order lifecycle.
type OrderService struct {
	cfg       *config.AppConfig
	carts     port.CartRepository
	products  port.ProductRepository
	orders    port.OrderRepository
	discounts port.DiscountRepository
	events    port.EventPublisher
	logger    *zap.Logger
}

// NewOrderService constructs an OrderService.
func NewOrderService(
	cfg *config.AppConfig,
	carts port.CartRepository,
	products port.ProductRepository,
	orders port.OrderRepository,
	discounts port.DiscountRepository,
	events port.EventPublisher,
	logger *zap.Logger,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		cfg:       cfg,
		carts:     carts,
		products:  products,
		orders:    orders,
		discounts: discounts,
		events:    events,
		logger:    logger,
	}
}

// CheckoutInput carries the shipping details and payment intent for checkout.
type CheckoutInput struct {
	UserID        string
	ShippingName  string
	ShippingLine1 string
	ShippingLine2 string
	ShippingCity  string
	ShippingZip   string
	ShippingPhone string
	DiscountCode  string
	PaymentMethod string
}

// Checkout converts the user's cart into a pending order. Totals are
// snapshotted, cart lines are frozen into order items, managed stock is
// decremented, the discount is redeemed, and the cart is cleared, all inside
// one storage transaction.
func (s *OrderService) Checkout(ctx context.Context, input CheckoutInput) (*domain.Order, error) {
	if input.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(input.ShippingName) == "" || strings.TrimSpace(input.ShippingLine1) == "" ||
		strings.TrimSpace(input.ShippingCity) == "" || strings.TrimSpace(input.ShippingZip) == "" {
		return nil, fmt.Errorf("shipping address is incomplete")
	}

	cart, err := s.carts.GetOrCreate(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	now := time.Now().UTC()
	items := make([]domain.OrderItem, 0, len(cart.Items))
	var subtotal int64

	for _, line := range cart.Items {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrProductUnavailable
			}
			return nil, fmt.Errorf("lookup product: %w", err)
		}
		if !product.IsActive {
			return nil, ErrProductUnavailable
		}

		item := domain.OrderItem{
			ID:             uuid.NewString(),
			ProductID:      product.ID,
			VariantID:      line.VariantID,
			ProductName:    product.Name,
			ProductSKU:     product.SKU,
			UnitPriceCents: line.UnitPriceCents,
			Quantity:       line.Quantity,
			TotalCents:     line.LineTotal(),
		}

		available := product.StockQuantity
		if line.VariantID != nil {
			variant, err := s.products.GetVariant(ctx, *line.VariantID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return nil, ErrProductUnavailable
				}
				return nil, fmt.Errorf("lookup variant: %w", err)
			}
			available = variant.StockQuantity
			item.ProductSKU = variant.SKU
			name := variant.Name
			item.VariantName = &name
		}
		if product.ManageStock && line.Quantity > available {
			return nil, ErrInsufficientStock
		}

		subtotal += item.TotalCents
		items = append(items, item)
	}

	shipping := s.shippingCents()
	tax := subtotal * int64(s.taxBasisPoints()) / 10000

	var (
		discountCents int64
		discountCode  *string
	)
	if code := strings.ToUpper(strings.TrimSpace(input.DiscountCode)); code != "" {
		discount, err := s.discounts.GetByCode(ctx, code)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrDiscountNotFound
			}
			return nil, fmt.Errorf("lookup discount: %w", err)
		}
		if !discount.IsValid(now, subtotal) {
			return nil, ErrDiscountNotApplicable
		}
		discountCents = discount.CalculateDiscount(subtotal)
		if discount.Type == domain.DiscountFreeShipping {
			shipping = 0
		}
		discountCode = &discount.Code
	}

	orderNumber, err := generateOrderNumber(now)
	if err != nil {
		return nil, err
	}

	method := strings.TrimSpace(input.PaymentMethod)
	if method == "" {
		method = "card"
	}

	order := domain.Order{
		ID:             uuid.NewString(),
		OrderNumber:    orderNumber,
		UserID:         input.UserID,
		Status:         domain.OrderStatusPending,
		ShippingStatus: domain.ShippingStatusPending,
		SubtotalCents:  subtotal,
		ShippingCents:  shipping,
		TaxCents:       tax,
		DiscountCents:  discountCents,
		TotalCents:     subtotal + shipping + tax - discountCents,
		DiscountCode:   discountCode,
		ShippingName:   strings.TrimSpace(input.ShippingName),
		ShippingLine1:  strings.TrimSpace(input.ShippingLine1),
		ShippingCity:   strings.TrimSpace(input.ShippingCity),
		ShippingZip:    strings.TrimSpace(input.ShippingZip),
		Items:          items,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if line2 := strings.TrimSpace(input.ShippingLine2); line2 != "" {
		order.ShippingLine2 = &line2
	}
	if phone := strings.TrimSpace(input.ShippingPhone); phone != "" {
		order.ShippingPhone = &phone
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}

	payment := domain.Payment{
		ID:          uuid.NewString(),
		OrderID:     order.ID,
		Status:      domain.PaymentStatusPending,
		Method:      method,
		AmountCents: order.TotalCents,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.orders.PlaceOrder(ctx, order, payment, cart.ID, discountCode); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrInsufficientStock
		}
		return nil, fmt.Errorf("place order: %w", err)
	}

	s.publishOrderCreated(ctx, order)
	return &order, nil
}

// GetOrder returns an order, enforcing ownership unless the caller is staff.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID string, isStaff bool) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("lookup order: %w", err)
	}
	if !isStaff && order.UserID != userID {
		return nil, ErrNotOrderOwner
	}
	return order, nil
}

// ListOrders returns the caller's order history.
func (s *OrderService) ListOrders(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	orders, err := s.orders.ListForUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// CancelOrder applies the cancellation guard and records the transition.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, userID string, isStaff bool) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, orderID, userID, isStaff)
	if err != nil {
		return nil, err
	}
	if !order.CanBeCancelled() {
		return nil, ErrOrderNotCancellable
	}

	now := time.Now().UTC()
	if err := s.orders.Cancel(ctx, order.ID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotCancellable
		}
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	oldStatus := order.Status
	order.Cancel(now)
	s.publishStatusChange(ctx, *order, oldStatus)
	return order, nil
}

// ConfirmPayment settles the pending payment through the simulated gateway
// and moves the order to paid.
func (s *OrderService) ConfirmPayment(ctx context.Context, orderID, userID string, isStaff bool) (*domain.Payment, error) {
	order, err := s.GetOrder(ctx, orderID, userID, isStaff)
	if err != nil {
		return nil, err
	}

	payment, err := s.orders.GetPaymentByOrderID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("lookup payment: %w", err)
	}
	if payment.Status != domain.PaymentStatusPending && payment.Status != domain.PaymentStatusProcessing {
		return nil, ErrPaymentAlreadyCompleted
	}

	transactionID, err := security.GenerateSecureToken(16)
	if err != nil {
		return nil, fmt.Errorf("generate transaction id: %w", err)
	}

	now := time.Now().UTC()
	if err := s.orders.CompletePayment(ctx, payment.ID, transactionID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPaymentAlreadyCompleted
		}
		return nil, fmt.Errorf("complete payment: %w", err)
	}
	if err := s.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusPaid, now); err != nil {
		return nil, fmt.Errorf("mark order paid: %w", err)
	}

	payment.Complete(transactionID, now)
	s.publishPaymentCompleted(ctx, *order, *payment, transactionID)
	s.publishStatusChange(ctx, domain.Order{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Status:      domain.OrderStatusPaid,
	}, domain.OrderStatusPending)
	return payment, nil
}

// RefundPayment applies a staff-initiated refund. A zero amount refunds the
// remaining balance; a full refund moves the order to refunded.
func (s *OrderService) RefundPayment(ctx context.Context, orderID string, amountCents int64) (*domain.Payment, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("lookup order: %w", err)
	}

	payment, err := s.orders.GetPaymentByOrderID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("lookup payment: %w", err)
	}
	if !payment.CanBeRefunded() {
		return nil, ErrRefundNotAllowed
	}
	if amountCents == 0 {
		amountCents = payment.RemainingRefundable()
	}
	if amountCents < 0 || amountCents > payment.RemainingRefundable() {
		return nil, ErrRefundExceedsBalance
	}

	now := time.Now().UTC()
	if err := s.orders.RefundPayment(ctx, payment.ID, amountCents, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRefundExceedsBalance
		}
		return nil, fmt.Errorf("refund payment: %w", err)
	}

	payment.Refund(amountCents, now)
	fullRefund := payment.Status == domain.PaymentStatusRefunded
	if fullRefund {
		if err := s.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusRefunded, now); err != nil {
			return nil, fmt.Errorf("mark order refunded: %w", err)
		}
	}

	s.publishPaymentRefunded(ctx, *order, *payment, amountCents, fullRefund)
	return payment, nil
}

// UpdateShippingStatus applies a staff fulfilment update. Shipped and
// delivered transitions advance the order status alongside.
func (s *OrderService) UpdateShippingStatus(ctx context.Context, orderID string, status domain.ShippingStatus, trackingNumber string) (*domain.Order, error) {
	if !status.IsValid() {
		return nil, ErrInvalidShippingStatus
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("lookup order: %w", err)
	}

	now := time.Now().UTC()
	var tracking *string
	if trackingNumber = strings.TrimSpace(trackingNumber); trackingNumber != "" {
		tracking = &trackingNumber
	}
	if err := s.orders.UpdateShippingStatus(ctx, order.ID, status, tracking, now); err != nil {
		return nil, fmt.Errorf("update shipping status: %w", err)
	}

	oldStatus := order.Status
	switch status {
	case domain.ShippingStatusShipped:
		order.Status = domain.OrderStatusShipped
	case domain.ShippingStatusDelivered:
		order.Status = domain.OrderStatusDelivered
	case domain.ShippingStatusPreparing:
		if order.Status == domain.OrderStatusPaid {
			order.Status = domain.OrderStatusProcessing
		}
	}
	if order.Status != oldStatus {
		if err := s.orders.UpdateStatus(ctx, order.ID, order.Status, now); err != nil {
			return nil, fmt.Errorf("update order status: %w", err)
		}
		s.publishStatusChange(ctx, *order, oldStatus)
	}

	order.ShippingStatus = status
	order.TrackingNumber = tracking
	return order, nil
}

func (s *OrderService) shippingCents() int64 {
	if s.cfg != nil && s.cfg.Checkout.ShippingCents > 0 {
		return s.cfg.Checkout.ShippingCents
	}
	return 999
}

func (s *OrderService) taxBasisPoints() int {
	if s.cfg != nil && s.cfg.Checkout.TaxBasisPoints > 0 {
		return s.cfg.Checkout.TaxBasisPoints
	}
	return 800
}

// generateOrderNumber builds ORD-YYYYMMDD-HHMMSS-<4 digits>. Uniqueness is
// enforced by the database constraint, not by this generator.
func generateOrderNumber(at time.Time) (string, error) {
	suffix, err := security.GenerateNumericCode(4)
	if err != nil {
		return "", fmt.Errorf("generate order number: %w", err)
	}
	return fmt.Sprintf("ORD-%s-%s-%s", at.Format("20060102"), at.Format("150405"), suffix), nil
}

func (s *OrderService) publishOrderCreated(ctx context.Context, order domain.Order) {
	if s.events == nil {
		return
	}

	event := domain.OrderCreatedEvent{
		EventID:       uuid.NewString(),
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		SubtotalCents: order.SubtotalCents,
		ShippingCents: order.ShippingCents,
		TaxCents:      order.TaxCents,
		DiscountCents: order.DiscountCents,
		TotalCents:    order.TotalCents,
		ItemCount:     len(order.Items),
		DiscountCode:  order.DiscountCode,
		CreatedAt:     order.CreatedAt,
	}
	if err := s.events.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Warn("publish order created event failed", zap.String("order_id", order.ID), zap.Error(err))
	}
}

func (s *OrderService) publishStatusChange(ctx context.Context, order domain.Order, oldStatus domain.OrderStatus) {
	if s.events == nil {
		return
	}

	event := domain.OrderStatusChangedEvent{
		EventID:     uuid.NewString(),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		OldStatus:   string(oldStatus),
		NewStatus:   string(order.Status),
		ChangedAt:   time.Now().UTC(),
	}
	if err := s.events.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Warn("publish order status event failed", zap.String("order_id", order.ID), zap.Error(err))
	}
}

func (s *OrderService) publishPaymentCompleted(ctx context.Context, order domain.Order, payment domain.Payment, transactionID string) {
	if s.events == nil {
		return
	}

	event := domain.PaymentCompletedEvent{
		EventID:       uuid.NewString(),
		PaymentID:     payment.ID,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		AmountCents:   payment.AmountCents,
		Method:        payment.Method,
		TransactionID: transactionID,
		CompletedAt:   time.Now().UTC(),
	}
	if err := s.events.PublishPaymentCompleted(ctx, event); err != nil {
		s.logger.Warn("publish payment completed event failed", zap.String("payment_id", payment.ID), zap.Error(err))
	}
}

func (s *OrderService) publishPaymentRefunded(ctx context.Context, order domain.Order, payment domain.Payment, refundCents int64, fullRefund bool) {
	if s.events == nil {
		return
	}

	event := domain.PaymentRefundedEvent{
		EventID:       uuid.NewString(),
		PaymentID:     payment.ID,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		RefundCents:   refundCents,
		TotalRefunded: payment.RefundedCents,
		FullRefund:    fullRefund,
		RefundedAt:    time.Now().UTC(),
	}
	if err := s.events.PublishPaymentRefunded(ctx, event); err != nil {
		s.logger.Warn("publish payment refunded event failed", zap.String("payment_id", payment.ID), zap.Error(err))
	}
}
