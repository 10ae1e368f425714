package domain

import "time"

// Cart is the single open basket tied to a user account.
type Cart struct {
	ID        string
	UserID    string
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Subtotal sums line totals across the cart.
func (c Cart) Subtotal() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.LineTotal()
	}
	return total
}

// TotalQuantity counts units across all lines.
func (c Cart) TotalQuantity() int {
	var n int
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// FindItem locates the line for a (product, variant) pair, nil variant meaning
// the base product. Returns nil when the cart holds no such line.
func (c *Cart) FindItem(productID string, variantID *string) *CartItem {
	for i := range c.Items {
		item := &c.Items[i]
		if item.ProductID != productID {
			continue
		}
		if (item.VariantID == nil) != (variantID == nil) {
			continue
		}
		if item.VariantID == nil || *item.VariantID == *variantID {
			return item
		}
	}
	return nil
}

// CartItem is one product line in a cart. UnitPriceCents is captured at the
// moment the line is added.
type CartItem struct {
	ID             string
	CartID         string
	ProductID      string
	VariantID      *string
	Quantity       int
	UnitPriceCents int64
	AddedAt        time.Time
}

// LineTotal is quantity times the captured unit price.
func (i CartItem) LineTotal() int64 {
	return int64(i.Quantity) * i.UnitPriceCents
}

// OrderStatus tracks the payment-driven order lifecycle.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// ShippingStatus tracks fulfilment independently of payment.
type ShippingStatus string

const (
	ShippingStatusPending   ShippingStatus = "pending"
	ShippingStatusPreparing ShippingStatus = "preparing"
	ShippingStatusShipped   ShippingStatus = "shipped"
	ShippingStatusInTransit ShippingStatus = "in_transit"
	ShippingStatusDelivered ShippingStatus = "delivered"
	ShippingStatusReturned  ShippingStatus = "returned"
)

// IsValid reports whether the value is one of the known fulfilment states.
func (s ShippingStatus) IsValid() bool {
	switch s {
	case ShippingStatusPending, ShippingStatusPreparing, ShippingStatusShipped,
		ShippingStatusInTransit, ShippingStatusDelivered, ShippingStatusReturned:
		return true
	}
	return false
}

// Order mirrors the persisted representation in the orders table.
// At creation TotalCents = SubtotalCents + ShippingCents + TaxCents - DiscountCents.
type Order struct {
	ID             string
	OrderNumber    string
	UserID         string
	Status         OrderStatus
	ShippingStatus ShippingStatus
	SubtotalCents  int64
	ShippingCents  int64
	TaxCents       int64
	DiscountCents  int64
	TotalCents     int64
	DiscountCode   *string
	ShippingName   string
	ShippingLine1  string
	ShippingLine2  *string
	ShippingCity   string
	ShippingZip    string
	ShippingPhone  *string
	TrackingNumber *string
	Items          []OrderItem
	CreatedAt      time.Time
	UpdatedAt      time.Time
	PaidAt         *time.Time
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	CancelledAt    *time.Time
}

// CanBeCancelled reports whether the order may still be cancelled by its
// owner: payment not past paid, and fulfilment not started.
func (o Order) CanBeCancelled() bool {
	if o.ShippingStatus != ShippingStatusPending {
		return false
	}
	return o.Status == OrderStatusPending || o.Status == OrderStatusPaid
}

// Cancel transitions the order to cancelled when the guard allows it.
func (o *Order) Cancel(at time.Time) bool {
	if !o.CanBeCancelled() {
		return false
	}
	o.Status = OrderStatusCancelled
	timeCopy := at
	o.CancelledAt = &timeCopy
	return true
}

// MarkPaid transitions a pending order to paid.
func (o *Order) MarkPaid(at time.Time) bool {
	if o.Status != OrderStatusPending {
		return false
	}
	o.Status = OrderStatusPaid
	timeCopy := at
	o.PaidAt = &timeCopy
	return true
}

// OrderItem is a frozen copy of a cart line at checkout time. Product name,
// SKU and unit price are snapshotted so later catalog edits cannot rewrite
// order history.
type OrderItem struct {
	ID             string
	OrderID        string
	ProductID      string
	VariantID      *string
	ProductName    string
	ProductSKU     string
	VariantName    *string
	UnitPriceCents int64
	Quantity       int
	TotalCents     int64
}

// PaymentStatus tracks the gateway-facing payment lifecycle.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// Payment is the money record for an order. RefundedCents stays within
// [0, AmountCents] and only ever grows.
type Payment struct {
	ID            string
	OrderID       string
	Status        PaymentStatus
	Method        string
	AmountCents   int64
	RefundedCents int64
	TransactionID *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

// IsSuccessful reports whether the payment settled.
func (p Payment) IsSuccessful() bool {
	return p.Status == PaymentStatusCompleted
}

// CanBeRefunded reports whether any refundable balance remains.
func (p Payment) CanBeRefunded() bool {
	return p.Status == PaymentStatusCompleted && p.RefundedCents < p.AmountCents
}

// RemainingRefundable is the amount still eligible for refund.
func (p Payment) RemainingRefundable() int64 {
	if !p.CanBeRefunded() {
		return 0
	}
	return p.AmountCents - p.RefundedCents
}

// Refund applies a partial or full refund. Returns false when the amount is
// non-positive or would push the refunded total past the payment amount.
// A full refund flips the payment status to refunded.
func (p *Payment) Refund(amountCents int64, at time.Time) bool {
	if amountCents <= 0 || !p.CanBeRefunded() {
		return false
	}
	if p.RefundedCents+amountCents > p.AmountCents {
		return false
	}
	p.RefundedCents += amountCents
	if p.RefundedCents == p.AmountCents {
		p.Status = PaymentStatusRefunded
	}
	p.UpdatedAt = at
	return true
}

// Complete marks the payment as settled with the gateway reference.
func (p *Payment) Complete(transactionID string, at time.Time) bool {
	if p.Status != PaymentStatusPending && p.Status != PaymentStatusProcessing {
		return false
	}
	p.Status = PaymentStatusCompleted
	p.TransactionID = &transactionID
	timeCopy := at
	p.CompletedAt = &timeCopy
	p.UpdatedAt = at
	return true
}
