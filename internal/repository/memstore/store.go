// Package memstore keeps the whole catalog, order book and user table in process memory.
// It backs the service when database.driver is "memory" and is the store used by service and API tests.
package memstore

import (
	"context"
	"sync"
	"time"

	"storefront-service/internal/entity"
	"storefront-service/internal/port"
)

type state struct {
	products  map[int]*entity.Product
	discounts map[int]*entity.DiscountCode
	orders    map[int]*entity.Order
	users     map[int]*entity.User

	nextProductID  int
	nextDiscountID int
	nextOrderID    int
	nextItemID     int
	nextUserID     int
}

func newState() *state {
	return &state{
		products:       map[int]*entity.Product{},
		discounts:      map[int]*entity.DiscountCode{},
		orders:         map[int]*entity.Order{},
		users:          map[int]*entity.User{},
		nextProductID:  1,
		nextDiscountID: 1,
		nextOrderID:    1,
		nextItemID:     1,
		nextUserID:     1,
	}
}

func (s *state) clone() *state {
	c := *s
	c.products = make(map[int]*entity.Product, len(s.products))
	for id, p := range s.products {
		c.products[id] = copyProduct(p)
	}
	c.discounts = make(map[int]*entity.DiscountCode, len(s.discounts))
	for id, d := range s.discounts {
		c.discounts[id] = copyDiscount(d)
	}
	c.orders = make(map[int]*entity.Order, len(s.orders))
	for id, o := range s.orders {
		c.orders[id] = copyOrder(o)
	}
	c.users = make(map[int]*entity.User, len(s.users))
	for id, u := range s.users {
		c.users[id] = copyUser(u)
	}
	return &c
}

// Store serialises every operation behind one mutex. Transactions work on a clone of the
// state that replaces the live state only when the callback succeeds.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

func New() *Store {
	return &Store{state: newState(), now: time.Now}
}

func (s *Store) Products() *ProductRepository   { return &ProductRepository{s} }
func (s *Store) Discounts() *DiscountRepository { return &DiscountRepository{s} }
func (s *Store) Users() *UserRepository         { return &UserRepository{s} }
func (s *Store) Orders() *OrderRepository       { return &OrderRepository{s} }

func (s *Store) read(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// write applies fn to a copy of the state and keeps it only if fn succeeds.
func (s *Store) write(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	if err := fn(next); err != nil {
		return err
	}
	s.state = next
	return nil
}

var _ port.OrderRepository = (*OrderRepository)(nil)
var _ port.ProductRepository = (*ProductRepository)(nil)
var _ port.DiscountRepository = (*DiscountRepository)(nil)
var _ port.UserRepository = (*UserRepository)(nil)

func copyProduct(p *entity.Product) *entity.Product {
	c := *p
	return &c
}

func copyDiscount(d *entity.DiscountCode) *entity.DiscountCode {
	c := *d
	if d.ExpiryDate != nil {
		t := *d.ExpiryDate
		c.ExpiryDate = &t
	}
	return &c
}

func copyOrder(o *entity.Order) *entity.Order {
	c := *o
	if o.DiscountCodeID != nil {
		id := *o.DiscountCodeID
		c.DiscountCodeID = &id
	}
	c.Items = make([]entity.OrderItem, len(o.Items))
	copy(c.Items, o.Items)
	for i := range c.Items {
		c.Items[i].Product = nil
	}
	return &c
}

func copyUser(u *entity.User) *entity.User {
	c := *u
	if u.PhoneNumber != nil {
		p := *u.PhoneNumber
		c.PhoneNumber = &p
	}
	if u.Age != nil {
		a := *u.Age
		c.Age = &a
	}
	return &c
}

// materialise returns a copy of o with product snapshots taken from the current catalog.
func (st *state) materialise(o *entity.Order) *entity.Order {
	c := copyOrder(o)
	for i := range c.Items {
		if p, ok := st.products[c.Items[i].ProductID]; ok {
			c.Items[i].Product = &entity.ProductSnapshot{ID: p.ID, Name: p.Name, Price: p.Price}
		}
	}
	return c
}

func checkCtx(ctx context.Context) error {
	return ctx.Err()
}
