package producer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"storefront-service/internal/entity"
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	writer MessageWriter
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// MessageKey keys order events so that all events of one order land on the same partition.
func MessageKey(event entity.OrderEvent) string {
	// order-created-1 or order-cancelled-1
	return fmt.Sprintf("order-%s-%d", event.Type, event.Order.ID)
}

func (p *KafkaPublisher) PublishOrderEvent(ctx context.Context, event entity.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(MessageKey(event)),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write order event: %w", err)
	}
	return nil
}

// LogPublisher only logs events. It is used when kafka is disabled.
type LogPublisher struct{}

func (LogPublisher) PublishOrderEvent(_ context.Context, event entity.OrderEvent) error {
	log.Debug().Str("event_id", event.ID).Msgf("order %d %s", event.Order.ID, event.Type)
	return nil
}
