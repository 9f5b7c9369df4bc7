package entity

import "time"

type DiscountCode struct {
	ID                 int        `json:"id"`
	Code               string     `json:"code"`
	DiscountPercentage int        `json:"discount_percentage"`
	IsActive           bool       `json:"is_active"`
	ExpiryDate         *time.Time `json:"expiry_date,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// ValidAt reports whether the code can be applied to an order placed at now.
func (d *DiscountCode) ValidAt(now time.Time) bool {
	if d == nil || !d.IsActive {
		return false
	}
	if d.ExpiryDate != nil && d.ExpiryDate.Before(now) {
		return false
	}
	return true
}

// ValidPercentage reports whether p lies in the open interval (0, 100).
func ValidPercentage(p int) bool {
	return p > 0 && p < 100
}
