package entity

import "time"

type OrderEventType string

const (
	OrderEventCreated   OrderEventType = "created"
	OrderEventCancelled OrderEventType = "cancelled"
)

// OrderEvent is published on the order topic after an order transaction commits.
type OrderEvent struct {
	ID         string         `json:"id"`
	Type       OrderEventType `json:"type"`
	Order      Order          `json:"order"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// ProductIDs lists the distinct products touched by the event's order.
func (e OrderEvent) ProductIDs() []int {
	seen := make(map[int]struct{}, len(e.Order.Items))
	ids := make([]int, 0, len(e.Order.Items))
	for _, item := range e.Order.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}
