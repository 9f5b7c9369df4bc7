package port

import (
	"context"
	"time"

	"storefront-service/internal/entity"
)

type SessionStore interface {
	Save(ctx context.Context, userID int, token string, ttl time.Duration) error
	// Get returns entity.ErrNotFound when the user has no live session.
	Get(ctx context.Context, userID int) (string, error)
	Revoke(ctx context.Context, userID int) error
}

type ProductCache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, id int) (*entity.Product, error)
	Set(ctx context.Context, product *entity.Product) error
	Invalidate(ctx context.Context, ids ...int) error
}

type IdempotencyStore interface {
	// Acquire returns false if the key is already held.
	Acquire(ctx context.Context, scope, key string) (bool, error)
	Release(ctx context.Context, scope, key string) error
}
