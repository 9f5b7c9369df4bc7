package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"storefront-service/internal/entity"
	"storefront-service/internal/port"
)

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Consumer drops cached products whenever an order event changes their stock, so that every
// instance sharing the cache sees the committed stock level.
type Consumer struct {
	reader  MessageReader
	cache   port.ProductCache
	backoff time.Duration
}

const readRetryBackoff = 2 * time.Second

func NewConsumer(reader MessageReader, cache port.ProductCache) *Consumer {
	return &Consumer{reader: reader, cache: cache, backoff: readRetryBackoff}
}

// Run reads order events until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			log.Error().Msgf("Error reading message, retrying in %s: %v", c.backoff, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.backoff):
			}
			continue
		}

		c.processMessage(ctx, msg)
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	var event entity.OrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Error().Msgf("Error unmarshalling message %s: %v", string(msg.Key), err)
		return
	}

	switch event.Type {
	case entity.OrderEventCreated, entity.OrderEventCancelled:
		ids := event.ProductIDs()
		if err := c.cache.Invalidate(ctx, ids...); err != nil {
			log.Error().Err(err).Msgf("Error invalidating products %v for order %d", ids, event.Order.ID)
		}
	default:
		log.Warn().Msgf("Unknown order event type: %s", event.Type)
	}
}
