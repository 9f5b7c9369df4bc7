package memstore

import (
	"context"
	"sync"
	"time"

	"storefront-service/internal/entity"
)

type expiring struct {
	value   string
	expires time.Time
}

// SessionStore keeps one token per user until its TTL passes.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int]expiring
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[int]expiring{}, now: time.Now}
}

func (s *SessionStore) Save(_ context.Context, userID int, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = expiring{value: token, expires: s.now().Add(ttl)}
	return nil
}

func (s *SessionStore) Get(_ context.Context, userID int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[userID]
	if !ok || !s.now().Before(e.expires) {
		delete(s.sessions, userID)
		return "", entity.ErrNotFound
	}
	return e.value, nil
}

func (s *SessionStore) Revoke(_ context.Context, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

type ProductCache struct {
	mu       sync.Mutex
	products map[int]entity.Product
}

func NewProductCache() *ProductCache {
	return &ProductCache{products: map[int]entity.Product{}}
}

func (c *ProductCache) Get(_ context.Context, id int) (*entity.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *ProductCache) Set(_ context.Context, product *entity.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[product.ID] = *product
	return nil
}

func (c *ProductCache) Invalidate(_ context.Context, ids ...int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.products, id)
	}
	return nil
}

type IdempotencyStore struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{held: map[string]struct{}{}}
}

func (s *IdempotencyStore) Acquire(_ context.Context, scope, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := scope + ":" + key
	if _, ok := s.held[k]; ok {
		return false, nil
	}
	s.held[k] = struct{}{}
	return true, nil
}

func (s *IdempotencyStore) Release(_ context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.held, scope+":"+key)
	return nil
}
