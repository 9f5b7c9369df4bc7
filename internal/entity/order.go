package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Cancellable reports whether an order in status s may still be cancelled.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}

type Order struct {
	ID              int             `json:"id"`
	OwnerID         int             `json:"owner_id"`
	OrderDate       time.Time       `json:"order_date"`
	Status          OrderStatus     `json:"status"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	DiscountApplied decimal.Decimal `json:"discount_applied"`
	DiscountCodeID  *int            `json:"discount_code_id,omitempty"`
	Items           []OrderItem     `json:"items"`
}

type OrderItem struct {
	ID        int              `json:"id"`
	OrderID   int              `json:"order_id"`
	ProductID int              `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	Product   *ProductSnapshot `json:"product"`
}

// ProductSnapshot is the product as seen when the order is read back.
type ProductSnapshot struct {
	ID    int             `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// ItemRequest is one requested order line.
type ItemRequest struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}
