package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/entity"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	user := &entity.User{ID: 7, Username: "alice", Role: entity.RoleAdmin}

	raw, err := issuer.Issue(user)
	require.NoError(t, err)

	claims, err := issuer.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, entity.Principal{ID: 7, Username: "alice", Role: entity.RoleAdmin}, claims.Principal())
}

func TestTokenIssuerRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	issuer.now = func() time.Time { return issued }

	raw, err := issuer.Issue(&entity.User{ID: 1, Username: "bob", Role: entity.RoleCustomer})
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(raw)
	assert.ErrorIs(t, err, entity.ErrUnauthorized)
}

func TestTokenIssuerRejectsForeignSecret(t *testing.T) {
	raw, err := NewTokenIssuer("other", time.Minute).Issue(&entity.User{ID: 1, Username: "bob"})
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", time.Minute).Parse(raw)
	assert.ErrorIs(t, err, entity.ErrUnauthorized)
}
