package domain

import "time"

// DiscountType enumerates how a discount code reduces an order.
type DiscountType string

const (
	DiscountPercentage   DiscountType = "percentage"
	DiscountFixedAmount  DiscountType = "fixed_amount"
	DiscountFreeShipping DiscountType = "free_shipping"
)

// Discount is a redeemable code. Value is an integer percent for percentage
// codes and cents for fixed-amount codes; free-shipping codes ignore it.
type Discount struct {
	ID               string
	Code             string
	Description      string
	Type             DiscountType
	Value            int64
	MinOrderCents    int64
	MaxDiscountCents *int64
	UsageLimit       *int
	UsedCount        int
	ValidFrom        *time.Time
	ValidUntil       *time.Time
	IsActive         bool
	CreatedAt        time.Time
}

// IsValid checks whether the code can be applied to an order of the given
// total at the given instant. Window bounds are open-ended when unset, the
// usage limit is unbounded when unset.
func (d Discount) IsValid(at time.Time, orderTotalCents int64) bool {
	if !d.IsActive {
		return false
	}
	if d.ValidFrom != nil && at.Before(*d.ValidFrom) {
		return false
	}
	if d.ValidUntil != nil && at.After(*d.ValidUntil) {
		return false
	}
	if d.UsageLimit != nil && d.UsedCount >= *d.UsageLimit {
		return false
	}
	return orderTotalCents >= d.MinOrderCents
}

// CalculateDiscount returns the amount deducted from the order total, capped
// at MaxDiscountCents when set and never exceeding the total itself.
// Free-shipping codes deduct nothing here; checkout waives the shipping line.
func (d Discount) CalculateDiscount(orderTotalCents int64) int64 {
	var amount int64
	switch d.Type {
	case DiscountPercentage:
		amount = orderTotalCents * d.Value / 100
	case DiscountFixedAmount:
		amount = d.Value
	case DiscountFreeShipping:
		return 0
	default:
		return 0
	}
	if d.MaxDiscountCents != nil && amount > *d.MaxDiscountCents {
		amount = *d.MaxDiscountCents
	}
	if amount > orderTotalCents {
		amount = orderTotalCents
	}
	if amount < 0 {
		amount = 0
	}
	return amount
}

// HasRemainingUses reports whether the usage counter is below its limit.
func (d Discount) HasRemainingUses() bool {
	return d.UsageLimit == nil || d.UsedCount < *d.UsageLimit
}
