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
	"github.com/arklim/social-platform-commerce/internal/repository"
)

var (
	// ErrDiscountNotFound indicates no code matched.
	ErrDiscountNotFound = errors.New("discount code not found")
	// ErrDiscountNotApplicable indicates the code exists but cannot apply to this order.
	ErrDiscountNotApplicable = errors.New("discount code not applicable")
)

// DiscountService validates and administers discount codes.
type DiscountService struct {
	discounts port.DiscountRepository
	logger    *zap.Logger
}

// NewDiscountService constructs a DiscountService.
func NewDiscountService(discounts port.DiscountRepository, logger *zap.Logger) *DiscountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiscountService{discounts: discounts, logger: logger}
}

// DiscountPreview reports the effect a code would have on an order total.
type DiscountPreview struct {
	Code          string
	Type          domain.DiscountType
	DiscountCents int64
	FreeShipping  bool
}

// Preview checks a code against an order total without redeeming it.
func (s *DiscountService) Preview(ctx context.Context, code string, orderTotalCents int64) (*DiscountPreview, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("discount code is required")
	}
	if orderTotalCents < 0 {
		return nil, fmt.Errorf("order total must be non-negative")
	}

	discount, err := s.discounts.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDiscountNotFound
		}
		return nil, fmt.Errorf("lookup discount: %w", err)
	}

	if !discount.IsValid(time.Now().UTC(), orderTotalCents) {
		return nil, ErrDiscountNotApplicable
	}

	return &DiscountPreview{
		Code:          discount.Code,
		Type:          discount.Type,
		DiscountCents: discount.CalculateDiscount(orderTotalCents),
		FreeShipping:  discount.Type == domain.DiscountFreeShipping,
	}, nil
}

// DiscountInput carries the staff-facing discount fields.
type DiscountInput struct {
	Code             string
	Description      string
	Type             domain.DiscountType
	Value            int64
	MinOrderCents    int64
	MaxDiscountCents *int64
	UsageLimit       *int
	ValidFrom        *time.Time
	ValidUntil       *time.Time
	IsActive         bool
}

// Create registers a new discount code.
func (s *DiscountService) Create(ctx context.Context, input DiscountInput) (*domain.Discount, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, fmt.Errorf("discount code is required")
	}
	switch input.Type {
	case domain.DiscountPercentage:
		if input.Value <= 0 || input.Value > 100 {
			return nil, fmt.Errorf("percentage value must be between 1 and 100")
		}
	case domain.DiscountFixedAmount:
		if input.Value <= 0 {
			return nil, fmt.Errorf("fixed amount must be positive")
		}
	case domain.DiscountFreeShipping:
	default:
		return nil, fmt.Errorf("unknown discount type %q", input.Type)
	}
	if input.ValidFrom != nil && input.ValidUntil != nil && input.ValidUntil.Before(*input.ValidFrom) {
		return nil, fmt.Errorf("validity window is inverted")
	}

	discount := domain.Discount{
		ID:               uuid.NewString(),
		Code:             code,
		Description:      strings.TrimSpace(input.Description),
		Type:             input.Type,
		Value:            input.Value,
		MinOrderCents:    input.MinOrderCents,
		MaxDiscountCents: input.MaxDiscountCents,
		UsageLimit:       input.UsageLimit,
		ValidFrom:        input.ValidFrom,
		ValidUntil:       input.ValidUntil,
		IsActive:         input.IsActive,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.discounts.Create(ctx, discount); err != nil {
		return nil, fmt.Errorf("create discount: %w", err)
	}
	return &discount, nil
}

// List returns discount codes for the staff surface.
func (s *DiscountService) List(ctx context.Context, activeOnly bool) ([]domain.Discount, error) {
	discounts, err := s.discounts.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list discounts: %w", err)
	}
	return discounts, nil
}

// Deactivate turns a code off without deleting its redemption history.
func (s *DiscountService) Deactivate(ctx context.Context, code string) error {
	discount, err := s.discounts.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDiscountNotFound
		}
		return fmt.Errorf("lookup discount: %w", err)
	}

	discount.IsActive = false
	if err := s.discounts.Update(ctx, *discount); err != nil {
		return fmt.Errorf("update discount: %w", err)
	}
	return nil
}
