package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/entity"
)

func TestSessionStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessionStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, 1, "first", time.Minute))
	require.NoError(t, s.Save(ctx, 1, "second", time.Minute))
	token, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "second", token)

	now = now.Add(time.Minute)
	_, err = s.Get(ctx, 1)
	assert.ErrorIs(t, err, entity.ErrNotFound)

	require.NoError(t, s.Save(ctx, 2, "t", time.Hour))
	require.NoError(t, s.Revoke(ctx, 2))
	_, err = s.Get(ctx, 2)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	s := NewIdempotencyStore()

	ok, err := s.Acquire(ctx, "user:1", "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = s.Acquire(ctx, "user:1", "abc")
	assert.False(t, ok)

	ok, _ = s.Acquire(ctx, "user:2", "abc")
	assert.True(t, ok, "keys are scoped")

	require.NoError(t, s.Release(ctx, "user:1", "abc"))
	ok, _ = s.Acquire(ctx, "user:1", "abc")
	assert.True(t, ok)
}

func TestProductCache(t *testing.T) {
	ctx := context.Background()
	c := NewProductCache()

	got, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, &entity.Product{ID: 1, Name: "Mug"}))
	got, err = c.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Mug", got.Name)

	require.NoError(t, c.Invalidate(ctx, 1, 2))
	got, _ = c.Get(ctx, 1)
	assert.Nil(t, got)
}
