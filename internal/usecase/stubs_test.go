package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/core/port"
	"github.com/arklim/social-platform-commerce/internal/repository"
)

// In-memory fakes shared across the service tests in this package. They keep
// just enough state to drive the flows under test.

type fakeUserRepo struct {
	byID map[string]*domain.User
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{byID: make(map[string]*domain.User)}
	for i := range users {
		user := users[i]
		repo.byID[user.ID] = &user
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user domain.User) error {
	for _, existing := range r.byID {
		if existing.Email == user.Email {
			return fmt.Errorf("duplicate email")
		}
	}
	r.byID[user.ID] = &user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if user, ok := r.byID[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.byID {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string, changedAt time.Time) error {
	user, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.LastPasswordChange = changedAt
	return nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, user domain.User) error {
	stored, ok := r.byID[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.Phone = user.Phone
	stored.MarketingConsent = user.MarketingConsent
	return nil
}

func (r *fakeUserRepo) UpdateLoginState(_ context.Context, user domain.User) error {
	stored, ok := r.byID[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.FailedLoginAttempts = user.FailedLoginAttempts
	stored.LockedUntil = user.LockedUntil
	stored.LastLogin = user.LastLogin
	stored.LastLoginIP = user.LastLoginIP
	return nil
}

func (r *fakeUserRepo) SetEmailVerified(_ context.Context, id string, _ time.Time) error {
	user, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.EmailVerified = true
	return nil
}

func (r *fakeUserRepo) SetTwoFactorEnabled(_ context.Context, id string, enabled bool) error {
	user, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.TwoFactorEnabled = enabled
	return nil
}

type fakeAttemptRepo struct {
	attempts []domain.LoginAttempt
}

func (r *fakeAttemptRepo) Create(_ context.Context, attempt domain.LoginAttempt) error {
	r.attempts = append(r.attempts, attempt)
	return nil
}

func (r *fakeAttemptRepo) CountRecentFailures(_ context.Context, ip string, since time.Time) (int, error) {
	var n int
	for _, attempt := range r.attempts {
		if attempt.Outcome == domain.LoginAttemptFailed && attempt.IP != nil && *attempt.IP == ip && attempt.CreatedAt.After(since) {
			n++
		}
	}
	return n, nil
}

type fakeIPBlockStore struct {
	blocked map[string]time.Duration
}

func newFakeIPBlockStore() *fakeIPBlockStore {
	return &fakeIPBlockStore{blocked: make(map[string]time.Duration)}
}

func (f *fakeIPBlockStore) IsBlocked(_ context.Context, ip string) (bool, error) {
	_, ok := f.blocked[ip]
	return ok, nil
}

func (f *fakeIPBlockStore) Block(_ context.Context, ip string, ttl time.Duration) error {
	f.blocked[ip] = ttl
	return nil
}

func (f *fakeIPBlockStore) Unblock(_ context.Context, ip string) error {
	delete(f.blocked, ip)
	return nil
}

type fakeSecurityEventRepo struct {
	events []domain.SecurityEvent
}

func (r *fakeSecurityEventRepo) Create(_ context.Context, event domain.SecurityEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *fakeSecurityEventRepo) ListForUser(_ context.Context, userID string, limit int) ([]domain.SecurityEvent, error) {
	var out []domain.SecurityEvent
	for _, event := range r.events {
		if event.UserID == userID {
			out = append(out, event)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeSecurityEventRepo) hasEvent(eventType domain.SecurityEventType) bool {
	for _, event := range r.events {
		if event.EventType == eventType {
			return true
		}
	}
	return false
}

type fakeTokenRepo struct {
	verifications map[string]*domain.VerificationToken
	resets        map[string]*domain.PasswordResetToken
	refresh       map[string]*domain.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{
		verifications: make(map[string]*domain.VerificationToken),
		resets:        make(map[string]*domain.PasswordResetToken),
		refresh:       make(map[string]*domain.RefreshToken),
	}
}

func (r *fakeTokenRepo) CreateVerification(_ context.Context, token domain.VerificationToken) error {
	r.verifications[token.ID] = &token
	return nil
}

func (r *fakeTokenRepo) GetVerificationByHash(_ context.Context, hash string) (*domain.VerificationToken, error) {
	for _, token := range r.verifications {
		if token.TokenHash == hash {
			clone := *token
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTokenRepo) ConsumeVerification(_ context.Context, id string, usedAt time.Time) error {
	token, ok := r.verifications[id]
	if !ok || token.UsedAt != nil {
		return repository.ErrNotFound
	}
	token.UsedAt = &usedAt
	return nil
}

func (r *fakeTokenRepo) CreatePasswordReset(_ context.Context, token domain.PasswordResetToken) error {
	r.resets[token.ID] = &token
	return nil
}

func (r *fakeTokenRepo) GetPasswordResetByHash(_ context.Context, hash string) (*domain.PasswordResetToken, error) {
	for _, token := range r.resets {
		if token.TokenHash == hash {
			clone := *token
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTokenRepo) ConsumePasswordReset(_ context.Context, id string, usedAt time.Time) error {
	token, ok := r.resets[id]
	if !ok || token.UsedAt != nil {
		return repository.ErrNotFound
	}
	token.UsedAt = &usedAt
	return nil
}

func (r *fakeTokenRepo) CreateRefreshToken(_ context.Context, token domain.RefreshToken) error {
	r.refresh[token.ID] = &token
	return nil
}

func (r *fakeTokenRepo) GetRefreshTokenByHash(_ context.Context, hash string) (*domain.RefreshToken, error) {
	for _, token := range r.refresh {
		if token.TokenHash == hash {
			clone := *token
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTokenRepo) RevokeRefreshToken(_ context.Context, refreshTokenID string) error {
	token, ok := r.refresh[refreshTokenID]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	token.RevokedAt = &now
	return nil
}

func (r *fakeTokenRepo) RevokeRefreshTokensForUser(_ context.Context, userID string) error {
	now := time.Now().UTC()
	for _, token := range r.refresh {
		if token.UserID == userID && token.RevokedAt == nil {
			token.RevokedAt = &now
		}
	}
	return nil
}

type fakeTOTPDeviceRepo struct {
	byUserID map[string]*domain.TOTPDevice
}

func newFakeTOTPDeviceRepo() *fakeTOTPDeviceRepo {
	return &fakeTOTPDeviceRepo{byUserID: make(map[string]*domain.TOTPDevice)}
}

func (r *fakeTOTPDeviceRepo) Create(_ context.Context, device domain.TOTPDevice) error {
	r.byUserID[device.UserID] = &device
	return nil
}

func (r *fakeTOTPDeviceRepo) GetByUserID(_ context.Context, userID string) (*domain.TOTPDevice, error) {
	if device, ok := r.byUserID[userID]; ok {
		clone := *device
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTOTPDeviceRepo) Confirm(_ context.Context, id string, confirmedAt time.Time) error {
	for _, device := range r.byUserID {
		if device.ID == id {
			device.Confirmed = true
			device.ConfirmedAt = &confirmedAt
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeTOTPDeviceRepo) TouchLastUsed(_ context.Context, id string, usedAt time.Time) error {
	for _, device := range r.byUserID {
		if device.ID == id {
			device.LastUsedAt = &usedAt
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeTOTPDeviceRepo) DeleteForUser(_ context.Context, userID string) error {
	delete(r.byUserID, userID)
	return nil
}

// fakeTOTPProvider accepts exactly one code.
type fakeTOTPProvider struct {
	secret     string
	acceptCode string
}

func (p *fakeTOTPProvider) GenerateSecret() string { return p.secret }

func (p *fakeTOTPProvider) ProvisioningURI(secret, accountName string) string {
	return fmt.Sprintf("otpauth://totp/test:%s?secret=%s", accountName, secret)
}

func (p *fakeTOTPProvider) VerifyCode(secret, code string) bool {
	return secret == p.secret && code == p.acceptCode
}

type fakeEventPublisher struct {
	registered    int
	verified      int
	locked        int
	passwords     int
	twoFactor     int
	orders        int
	statusChanges int
	payments      int
	refunds       int
	lowStock      int
}

func (p *fakeEventPublisher) PublishUserRegistered(context.Context, domain.UserRegisteredEvent) error {
	p.registered++
	return nil
}

func (p *fakeEventPublisher) PublishEmailVerified(context.Context, domain.EmailVerifiedEvent) error {
	p.verified++
	return nil
}

func (p *fakeEventPublisher) PublishAccountLocked(context.Context, domain.AccountLockedEvent) error {
	p.locked++
	return nil
}

func (p *fakeEventPublisher) PublishPasswordChanged(context.Context, domain.PasswordChangedEvent) error {
	p.passwords++
	return nil
}

func (p *fakeEventPublisher) PublishTwoFactorStateChanged(context.Context, domain.TwoFactorStateChangedEvent) error {
	p.twoFactor++
	return nil
}

func (p *fakeEventPublisher) PublishOrderCreated(context.Context, domain.OrderCreatedEvent) error {
	p.orders++
	return nil
}

func (p *fakeEventPublisher) PublishOrderStatusChanged(context.Context, domain.OrderStatusChangedEvent) error {
	p.statusChanges++
	return nil
}

func (p *fakeEventPublisher) PublishPaymentCompleted(context.Context, domain.PaymentCompletedEvent) error {
	p.payments++
	return nil
}

func (p *fakeEventPublisher) PublishPaymentRefunded(context.Context, domain.PaymentRefundedEvent) error {
	p.refunds++
	return nil
}

func (p *fakeEventPublisher) PublishLowStock(context.Context, domain.LowStockEvent) error {
	p.lowStock++
	return nil
}

type fakeCategoryRepo struct {
	categories []domain.Category
	listCalls  int
}

func (r *fakeCategoryRepo) Create(_ context.Context, category domain.Category) error {
	r.categories = append(r.categories, category)
	return nil
}

func (r *fakeCategoryRepo) Update(_ context.Context, category domain.Category) error {
	for i := range r.categories {
		if r.categories[i].ID == category.ID {
			r.categories[i] = category
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeCategoryRepo) GetBySlug(_ context.Context, slug string) (*domain.Category, error) {
	for i := range r.categories {
		if r.categories[i].Slug == slug {
			clone := r.categories[i]
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeCategoryRepo) List(_ context.Context, activeOnly bool) ([]domain.Category, error) {
	r.listCalls++
	var out []domain.Category
	for _, category := range r.categories {
		if activeOnly && !category.IsActive {
			continue
		}
		out = append(out, category)
	}
	return out, nil
}

type fakeProductRepo struct {
	products map[string]*domain.Product
	variants map[string]*domain.ProductVariant
	log      []domain.InventoryLog
}

func newFakeProductRepo(products ...domain.Product) *fakeProductRepo {
	repo := &fakeProductRepo{
		products: make(map[string]*domain.Product),
		variants: make(map[string]*domain.ProductVariant),
	}
	for i := range products {
		product := products[i]
		repo.products[product.ID] = &product
	}
	return repo
}

func (r *fakeProductRepo) addVariant(variant domain.ProductVariant) {
	r.variants[variant.ID] = &variant
}

func (r *fakeProductRepo) Create(_ context.Context, product domain.Product) error {
	r.products[product.ID] = &product
	return nil
}

func (r *fakeProductRepo) Update(_ context.Context, product domain.Product) error {
	if _, ok := r.products[product.ID]; !ok {
		return repository.ErrNotFound
	}
	r.products[product.ID] = &product
	return nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	if product, ok := r.products[id]; ok {
		clone := *product
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeProductRepo) GetBySlug(_ context.Context, slug string) (*domain.Product, error) {
	for _, product := range r.products {
		if product.Slug == slug {
			clone := *product
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeProductRepo) List(_ context.Context, filter port.ProductFilter) ([]domain.Product, int, error) {
	var out []domain.Product
	for _, product := range r.products {
		if filter.FeaturedOnly && !product.IsFeatured {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(product.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *product)
	}
	return out, len(out), nil
}

func (r *fakeProductRepo) GetVariant(_ context.Context, variantID string) (*domain.ProductVariant, error) {
	if variant, ok := r.variants[variantID]; ok {
		clone := *variant
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeProductRepo) ListVariants(_ context.Context, productID string) ([]domain.ProductVariant, error) {
	var out []domain.ProductVariant
	for _, variant := range r.variants {
		if variant.ProductID == productID {
			out = append(out, *variant)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) AdjustStock(_ context.Context, productID string, variantID *string, delta int, txType domain.InventoryTransactionType, reference *string) error {
	if variantID != nil {
		variant, ok := r.variants[*variantID]
		if !ok || variant.StockQuantity+delta < 0 {
			return repository.ErrNotFound
		}
		variant.StockQuantity += delta
		return nil
	}
	product, ok := r.products[productID]
	if !ok || product.StockQuantity+delta < 0 {
		return repository.ErrNotFound
	}
	product.StockQuantity += delta
	r.log = append(r.log, domain.InventoryLog{
		ID:              fmt.Sprintf("log-%d", len(r.log)+1),
		ProductID:       productID,
		TransactionType: txType,
		QuantityChange:  delta,
		QuantityBefore:  product.StockQuantity - delta,
		QuantityAfter:   product.StockQuantity,
		Reference:       reference,
		CreatedAt:       time.Now().UTC(),
	})
	return nil
}

func (r *fakeProductRepo) ListInventoryLog(_ context.Context, productID string, limit int) ([]domain.InventoryLog, error) {
	var out []domain.InventoryLog
	for _, entry := range r.log {
		if entry.ProductID == productID {
			out = append(out, entry)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeCartRepo struct {
	cart *domain.Cart
}

func newFakeCartRepo(userID string) *fakeCartRepo {
	return &fakeCartRepo{cart: &domain.Cart{ID: "cart-1", UserID: userID}}
}

func (r *fakeCartRepo) GetOrCreate(_ context.Context, userID string) (*domain.Cart, error) {
	if r.cart.UserID != userID {
		return nil, fmt.Errorf("unexpected user %s", userID)
	}
	clone := *r.cart
	clone.Items = append([]domain.CartItem(nil), r.cart.Items...)
	return &clone, nil
}

func (r *fakeCartRepo) UpsertItem(_ context.Context, item domain.CartItem) error {
	for i := range r.cart.Items {
		if r.cart.Items[i].ID == item.ID {
			r.cart.Items[i] = item
			return nil
		}
	}
	r.cart.Items = append(r.cart.Items, item)
	return nil
}

func (r *fakeCartRepo) UpdateItemQuantity(_ context.Context, cartID, itemID string, quantity int) error {
	if cartID != r.cart.ID {
		return repository.ErrNotFound
	}
	for i := range r.cart.Items {
		if r.cart.Items[i].ID == itemID {
			r.cart.Items[i].Quantity = quantity
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeCartRepo) RemoveItem(_ context.Context, cartID, itemID string) error {
	if cartID != r.cart.ID {
		return repository.ErrNotFound
	}
	for i := range r.cart.Items {
		if r.cart.Items[i].ID == itemID {
			r.cart.Items = append(r.cart.Items[:i], r.cart.Items[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeCartRepo) Clear(_ context.Context, cartID string) error {
	if cartID != r.cart.ID {
		return repository.ErrNotFound
	}
	r.cart.Items = nil
	return nil
}

type fakeOrderRepo struct {
	orders     map[string]*domain.Order
	payments   map[string]*domain.Payment
	placeErr   error
	placed     []domain.Order
	clearedVia string
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:   make(map[string]*domain.Order),
		payments: make(map[string]*domain.Payment),
	}
}

func (r *fakeOrderRepo) PlaceOrder(_ context.Context, order domain.Order, payment domain.Payment, cartID string, _ *string) error {
	if r.placeErr != nil {
		return r.placeErr
	}
	r.orders[order.ID] = &order
	r.payments[order.ID] = &payment
	r.placed = append(r.placed, order)
	r.clearedVia = cartID
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	if order, ok := r.orders[id]; ok {
		clone := *order
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeOrderRepo) GetByNumber(_ context.Context, orderNumber string) (*domain.Order, error) {
	for _, order := range r.orders {
		if order.OrderNumber == orderNumber {
			clone := *order
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeOrderRepo) ListForUser(_ context.Context, userID string, limit, _ int) ([]domain.Order, error) {
	var out []domain.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			out = append(out, *order)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id string, status domain.OrderStatus, at time.Time) error {
	order, ok := r.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	order.Status = status
	order.UpdatedAt = at
	return nil
}

func (r *fakeOrderRepo) UpdateShippingStatus(_ context.Context, id string, status domain.ShippingStatus, trackingNumber *string, at time.Time) error {
	order, ok := r.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	order.ShippingStatus = status
	order.TrackingNumber = trackingNumber
	order.UpdatedAt = at
	return nil
}

func (r *fakeOrderRepo) Cancel(_ context.Context, id string, at time.Time) error {
	order, ok := r.orders[id]
	if !ok || !order.CanBeCancelled() {
		return repository.ErrNotFound
	}
	order.Cancel(at)
	return nil
}

func (r *fakeOrderRepo) GetPaymentByOrderID(_ context.Context, orderID string) (*domain.Payment, error) {
	if payment, ok := r.payments[orderID]; ok {
		clone := *payment
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeOrderRepo) CompletePayment(_ context.Context, paymentID, transactionID string, at time.Time) error {
	for _, payment := range r.payments {
		if payment.ID == paymentID {
			if !payment.Complete(transactionID, at) {
				return repository.ErrNotFound
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeOrderRepo) RefundPayment(_ context.Context, paymentID string, amountCents int64, at time.Time) error {
	for _, payment := range r.payments {
		if payment.ID == paymentID {
			if !payment.Refund(amountCents, at) {
				return repository.ErrNotFound
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeDiscountRepo struct {
	byCode map[string]*domain.Discount
}

func newFakeDiscountRepo(discounts ...domain.Discount) *fakeDiscountRepo {
	repo := &fakeDiscountRepo{byCode: make(map[string]*domain.Discount)}
	for i := range discounts {
		discount := discounts[i]
		repo.byCode[discount.Code] = &discount
	}
	return repo
}

func (r *fakeDiscountRepo) Create(_ context.Context, discount domain.Discount) error {
	if _, ok := r.byCode[discount.Code]; ok {
		return fmt.Errorf("duplicate code")
	}
	r.byCode[discount.Code] = &discount
	return nil
}

func (r *fakeDiscountRepo) Update(_ context.Context, discount domain.Discount) error {
	if _, ok := r.byCode[discount.Code]; !ok {
		return repository.ErrNotFound
	}
	r.byCode[discount.Code] = &discount
	return nil
}

func (r *fakeDiscountRepo) GetByCode(_ context.Context, code string) (*domain.Discount, error) {
	if discount, ok := r.byCode[code]; ok {
		clone := *discount
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeDiscountRepo) List(_ context.Context, activeOnly bool) ([]domain.Discount, error) {
	var out []domain.Discount
	for _, discount := range r.byCode {
		if activeOnly && !discount.IsActive {
			continue
		}
		out = append(out, *discount)
	}
	return out, nil
}

func (r *fakeDiscountRepo) Redeem(_ context.Context, code string) error {
	discount, ok := r.byCode[code]
	if !ok {
		return repository.ErrNotFound
	}
	if !discount.HasRemainingUses() {
		return repository.ErrConflict
	}
	discount.UsedCount++
	return nil
}

type fakeCache struct {
	values map[string]string
	hits   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	if value, ok := c.values[key]; ok {
		c.hits++
		return value, nil
	}
	return "", repository.ErrNotFound
}

func (c *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.values[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	delete(c.values, key)
	return nil
}
