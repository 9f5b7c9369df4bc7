package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"storefront-service/internal/entity"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSubtotal(t *testing.T) {
	items := []entity.OrderItem{
		{UnitPrice: dec("10.00"), Quantity: 2},
		{UnitPrice: dec("5.50"), Quantity: 3},
	}
	assert.True(t, dec("36.50").Equal(Subtotal(items)))
	assert.True(t, decimal.Zero.Equal(Subtotal(nil)))
}

func TestDiscountValue(t *testing.T) {
	tests := []struct {
		subtotal   string
		percentage int
		want       string
	}{
		{"100.00", 10, "10.00"},
		{"36.50", 15, "5.48"},
		{"0.10", 5, "0.01"},
		{"19.99", 50, "10.00"},
		{"33.33", 33, "11.00"},
	}

	for _, tt := range tests {
		got := DiscountValue(dec(tt.subtotal), tt.percentage)
		assert.Truef(t, dec(tt.want).Equal(got), "%s at %d%%: want %s, got %s", tt.subtotal, tt.percentage, tt.want, got)
	}
}

func TestPriceOrder(t *testing.T) {
	items := []entity.OrderItem{{UnitPrice: dec("20.00"), Quantity: 1}}

	t.Run("without discount", func(t *testing.T) {
		q := PriceOrder(items, nil)
		assert.True(t, dec("20.00").Equal(q.Subtotal))
		assert.True(t, decimal.Zero.Equal(q.Discount))
		assert.True(t, dec("20.00").Equal(q.Total))
	})

	t.Run("with discount", func(t *testing.T) {
		q := PriceOrder(items, &entity.DiscountCode{DiscountPercentage: 25, IsActive: true})
		assert.True(t, dec("5.00").Equal(q.Discount))
		assert.True(t, dec("15.00").Equal(q.Total))
	})
}
