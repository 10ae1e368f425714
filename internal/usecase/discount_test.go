package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
)

func activeDiscount(code string, mutate func(*domain.Discount)) domain.Discount {
	discount := domain.Discount{
		ID:        "disc-" + code,
		Code:      code,
		Type:      domain.DiscountPercentage,
		Value:     10,
		IsActive:  true,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
	if mutate != nil {
		mutate(&discount)
	}
	return discount
}

func TestPreviewNormalizesCodeAndComputesAmount(t *testing.T) {
	repo := newFakeDiscountRepo(activeDiscount("SAVE10", nil))
	service := NewDiscountService(repo, nil)

	preview, err := service.Preview(context.Background(), "  save10 ", 5000)
	if err != nil {
		t.Fatalf("Preview returned %v", err)
	}
	if preview.Code != "SAVE10" {
		t.Fatalf("code = %q, want SAVE10", preview.Code)
	}
	if preview.DiscountCents != 500 {
		t.Fatalf("discount = %d, want 500", preview.DiscountCents)
	}
	if preview.FreeShipping {
		t.Fatal("percentage code must not flag free shipping")
	}
}

func TestPreviewRejectsUnknownAndInapplicableCodes(t *testing.T) {
	limit := 5
	expired := activeDiscount("EXPIRED", func(d *domain.Discount) {
		past := time.Now().UTC().Add(-time.Minute)
		d.ValidUntil = &past
	})
	exhausted := activeDiscount("USEDUP", func(d *domain.Discount) {
		d.UsageLimit = &limit
		d.UsedCount = 5
	})
	minimum := activeDiscount("BIGSPEND", func(d *domain.Discount) {
		d.MinOrderCents = 10000
	})
	repo := newFakeDiscountRepo(expired, exhausted, minimum)
	service := NewDiscountService(repo, nil)
	ctx := context.Background()

	if _, err := service.Preview(ctx, "NOSUCH", 5000); !errors.Is(err, ErrDiscountNotFound) {
		t.Fatalf("unknown code: got %v", err)
	}
	if _, err := service.Preview(ctx, "EXPIRED", 5000); !errors.Is(err, ErrDiscountNotApplicable) {
		t.Fatalf("expired code: got %v", err)
	}
	if _, err := service.Preview(ctx, "USEDUP", 5000); !errors.Is(err, ErrDiscountNotApplicable) {
		t.Fatalf("exhausted code: got %v", err)
	}
	if _, err := service.Preview(ctx, "BIGSPEND", 5000); !errors.Is(err, ErrDiscountNotApplicable) {
		t.Fatalf("below minimum order: got %v", err)
	}
	if _, err := service.Preview(ctx, "", 5000); err == nil {
		t.Fatal("blank code should be rejected")
	}
}

func TestPreviewReportsFreeShipping(t *testing.T) {
	repo := newFakeDiscountRepo(activeDiscount("SHIPFREE", func(d *domain.Discount) {
		d.Type = domain.DiscountFreeShipping
		d.Value = 0
	}))
	service := NewDiscountService(repo, nil)

	preview, err := service.Preview(context.Background(), "SHIPFREE", 5000)
	if err != nil {
		t.Fatalf("Preview returned %v", err)
	}
	if !preview.FreeShipping {
		t.Fatal("free shipping flag not set")
	}
	if preview.DiscountCents != 0 {
		t.Fatalf("free shipping should not discount the total, got %d", preview.DiscountCents)
	}
}

func TestCreateValidatesDiscountInput(t *testing.T) {
	repo := newFakeDiscountRepo()
	service := NewDiscountService(repo, nil)
	ctx := context.Background()

	cases := []struct {
		name  string
		input DiscountInput
	}{
		{"blank code", DiscountInput{Type: domain.DiscountPercentage, Value: 10}},
		{"zero percentage", DiscountInput{Code: "P0", Type: domain.DiscountPercentage, Value: 0}},
		{"percentage over 100", DiscountInput{Code: "P101", Type: domain.DiscountPercentage, Value: 101}},
		{"negative fixed amount", DiscountInput{Code: "F1", Type: domain.DiscountFixedAmount, Value: -100}},
		{"unknown type", DiscountInput{Code: "T1", Type: domain.DiscountType("bogo"), Value: 1}},
	}
	for _, tc := range cases {
		if _, err := service.Create(ctx, tc.input); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}

	from := time.Now().UTC()
	until := from.Add(-time.Hour)
	inverted := DiscountInput{
		Code:       "WINDOW",
		Type:       domain.DiscountPercentage,
		Value:      10,
		ValidFrom:  &from,
		ValidUntil: &until,
	}
	if _, err := service.Create(ctx, inverted); err == nil {
		t.Fatal("inverted validity window should be rejected")
	}

	created, err := service.Create(ctx, DiscountInput{
		Code:     " spring25 ",
		Type:     domain.DiscountPercentage,
		Value:    25,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("Create returned %v", err)
	}
	if created.Code != "SPRING25" {
		t.Fatalf("code = %q, want normalized SPRING25", created.Code)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
}

func TestDeactivateKeepsRedemptionHistory(t *testing.T) {
	discount := activeDiscount("SUNSET", func(d *domain.Discount) {
		d.UsedCount = 7
	})
	repo := newFakeDiscountRepo(discount)
	service := NewDiscountService(repo, nil)
	ctx := context.Background()

	if err := service.Deactivate(ctx, "sunset"); err != nil {
		t.Fatalf("Deactivate returned %v", err)
	}

	stored, err := repo.GetByCode(ctx, "SUNSET")
	if err != nil {
		t.Fatalf("GetByCode returned %v", err)
	}
	if stored.IsActive {
		t.Fatal("code is still active")
	}
	if stored.UsedCount != 7 {
		t.Fatalf("redemption count changed to %d", stored.UsedCount)
	}

	if err := service.Deactivate(ctx, "NOSUCH"); !errors.Is(err, ErrDiscountNotFound) {
		t.Fatalf("unknown code: got %v", err)
	}

	active, err := service.List(ctx, true)
	if err != nil {
		t.Fatalf("List returned %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("active listing returned %d codes, want 0", len(active))
	}
}
