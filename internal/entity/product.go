package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID              int             `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	QuantityInStock int             `json:"quantity_in_stock"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// IsActiveForStock is the only rule deciding whether a product is sellable.
func IsActiveForStock(stock int) bool {
	return stock > 0
}

// SetStock changes the stock level and re-derives IsActive.
func (p *Product) SetStock(stock int) {
	p.QuantityInStock = stock
	p.IsActive = IsActiveForStock(stock)
}

/*
Schema MySQL for products table:
CREATE TABLE `products` (
  `id` int NOT NULL AUTO_INCREMENT,
  `name` varchar(255) NOT NULL UNIQUE,
  `description` text NOT NULL,
  `price` decimal(10,2) NOT NULL,
  `quantity_in_stock` int NOT NULL DEFAULT 0,
  `is_active` tinyint(1) NOT NULL DEFAULT 0,
  PRIMARY KEY (`id`)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
*/
