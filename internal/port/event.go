package port

import (
	"context"

	"storefront-service/internal/entity"
)

type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event entity.OrderEvent) error
}
