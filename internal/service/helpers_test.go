package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storefront-service/internal/entity"
	"storefront-service/internal/repository/memstore"
)

var (
	admin    = entity.Principal{ID: 1000, Username: "root", Role: entity.RoleAdmin}
	customer = entity.Principal{ID: 2000, Username: "jane", Role: entity.RoleCustomer}
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.OrderEvent
	err    error
}

func (p *recordingPublisher) PublishOrderEvent(_ context.Context, event entity.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Events() []entity.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entity.OrderEvent(nil), p.events...)
}

type orderFixture struct {
	store     *memstore.Store
	cache     *memstore.ProductCache
	publisher *recordingPublisher
	svc       *OrderService
	clock     time.Time
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	f := &orderFixture{
		store:     memstore.New(),
		cache:     memstore.NewProductCache(),
		publisher: &recordingPublisher{},
		clock:     time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewOrderService(f.store.Orders(), memstore.NewIdempotencyStore(), f.publisher, f.cache)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *orderFixture) addUser(t *testing.T, username string) int {
	t.Helper()
	u := &entity.User{
		Username: username,
		Email:    username + "@example.com",
		IsActive: true,
		Role:     entity.RoleCustomer,
	}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u.ID
}

func (f *orderFixture) addProduct(t *testing.T, name, price string, stock int) int {
	t.Helper()
	p := &entity.Product{Name: name, Description: name + " description", Price: dec(price)}
	p.SetStock(stock)
	require.NoError(t, f.store.Products().Create(context.Background(), p))
	return p.ID
}

func (f *orderFixture) addDiscount(t *testing.T, code string, percentage int, active bool, expiry *time.Time) int {
	t.Helper()
	d := &entity.DiscountCode{Code: code, DiscountPercentage: percentage, IsActive: active, ExpiryDate: expiry}
	require.NoError(t, f.store.Discounts().Create(context.Background(), d))
	return d.ID
}

func (f *orderFixture) product(t *testing.T, id int) *entity.Product {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (f *orderFixture) allOrders(t *testing.T) []*entity.Order {
	t.Helper()
	orders, err := f.store.Orders().ListAll(context.Background())
	require.NoError(t, err)
	return orders
}

var errBoom = errors.New("boom")
