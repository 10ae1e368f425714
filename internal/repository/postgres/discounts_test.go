package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/repository"
)

func TestDiscountRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewDiscountRepository(mock)

	createdAt := time.Now().UTC()
	maxDiscount := int64(1500)
	discount := domain.Discount{
		ID:               "disc-1",
		Code:             "SAVE20",
		Description:      "20% off",
		Type:             domain.DiscountPercentage,
		Value:            20,
		MinOrderCents:    2500,
		MaxDiscountCents: &maxDiscount,
		IsActive:         true,
		CreatedAt:        createdAt,
	}

	mock.ExpectExec(`INSERT INTO commerce\.discounts`).
		WithArgs(
			discount.ID,
			discount.Code,
			discount.Description,
			discount.Type,
			discount.Value,
			discount.MinOrderCents,
			&maxDiscount,
			(*int)(nil),
			0,
			(*time.Time)(nil),
			(*time.Time)(nil),
			true,
			createdAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), discount); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDiscountRepository_GetByCode(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewDiscountRepository(mock)

	createdAt := time.Now().UTC()
	limit := 100

	rows := pgxmock.NewRows(discountColumns).AddRow(
		"disc-1", "SAVE20", "20% off", domain.DiscountPercentage, int64(20), int64(2500), nil, &limit, 3, nil, nil, true, createdAt,
	)

	mock.ExpectQuery(`SELECT .*FROM commerce\.discounts`).WithArgs("SAVE20").WillReturnRows(rows)

	discount, err := repo.GetByCode(context.Background(), "SAVE20")
	if err != nil {
		t.Fatalf("GetByCode returned error: %v", err)
	}
	if discount.Code != "SAVE20" {
		t.Fatalf("expected code SAVE20, got %s", discount.Code)
	}
	if discount.Type != domain.DiscountPercentage {
		t.Fatalf("expected percentage type, got %s", discount.Type)
	}
	if discount.UsageLimit == nil || *discount.UsageLimit != 100 {
		t.Fatalf("expected usage limit pointer populated")
	}
	if discount.UsedCount != 3 {
		t.Fatalf("expected used count 3, got %d", discount.UsedCount)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDiscountRepository_GetByCodeNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewDiscountRepository(mock)

	mock.ExpectQuery(`SELECT .*FROM commerce\.discounts`).WithArgs("NOSUCH").WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByCode(context.Background(), "NOSUCH"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected repository.ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDiscountRepository_Redeem(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewDiscountRepository(mock)

	mock.ExpectExec(`UPDATE commerce\.discounts`).
		WithArgs("SAVE20").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.Redeem(context.Background(), "SAVE20"); err != nil {
		t.Fatalf("Redeem returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDiscountRepository_RedeemExhausted(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewDiscountRepository(mock)

	mock.ExpectExec(`UPDATE commerce\.discounts`).
		WithArgs("SAVE20").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.Redeem(context.Background(), "SAVE20"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected repository.ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
