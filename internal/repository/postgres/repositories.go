package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Users          *UserRepository
	LoginAttempts  *LoginAttemptRepository
	SecurityEvents *SecurityEventRepository
	Tokens         *TokenRepository
	TOTPDevices    *TOTPDeviceRepository
	Categories     *CategoryRepository
	Products       *ProductRepository
	Carts          *CartRepository
	Orders         *OrderRepository
	Discounts      *DiscountRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:          NewUserRepository(pool),
		LoginAttempts:  NewLoginAttemptRepository(pool),
		SecurityEvents: NewSecurityEventRepository(pool),
		Tokens:         NewTokenRepository(pool),
		TOTPDevices:    NewTOTPDeviceRepository(pool),
		Categories:     NewCategoryRepository(pool),
		Products:       NewProductRepository(pool),
		Carts:          NewCartRepository(pool),
		Orders:         NewOrderRepository(pool),
		Discounts:      NewDiscountRepository(pool),
	}
}
