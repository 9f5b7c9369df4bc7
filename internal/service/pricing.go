package service

import (
	"github.com/shopspring/decimal"

	"storefront-service/internal/entity"
)

var hundred = decimal.NewFromInt(100)

// Quote is the price breakdown of an order.
type Quote struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Subtotal sums unit price times quantity over the order lines.
func Subtotal(items []entity.OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}

// DiscountValue is percentage/100 of subtotal rounded to cents, half away from zero.
func DiscountValue(subtotal decimal.Decimal, percentage int) decimal.Decimal {
	return subtotal.Mul(decimal.NewFromInt(int64(percentage))).Div(hundred).Round(2)
}

// PriceOrder prices the lines with an optional, already validated discount code.
func PriceOrder(items []entity.OrderItem, code *entity.DiscountCode) Quote {
	q := Quote{Subtotal: Subtotal(items), Discount: decimal.Zero}
	if code != nil {
		q.Discount = DiscountValue(q.Subtotal, code.DiscountPercentage)
	}
	q.Total = q.Subtotal.Sub(q.Discount).Round(2)
	return q
}
