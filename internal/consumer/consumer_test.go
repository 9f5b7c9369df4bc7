package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/entity"
	"storefront-service/internal/repository/memstore"
)

type scriptedReader struct {
	msgs   []kafka.Message
	cancel context.CancelFunc
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	if msg.Value == nil {
		return kafka.Message{}, errors.New("transient read error")
	}
	return msg, nil
}

func eventMessage(t *testing.T, typ entity.OrderEventType, productIDs ...int) kafka.Message {
	t.Helper()
	event := entity.OrderEvent{ID: "evt", Type: typ, Order: entity.Order{ID: 1}}
	for _, id := range productIDs {
		event.Order.Items = append(event.Order.Items, entity.OrderItem{ProductID: id, Quantity: 1})
	}
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Key: []byte("order-" + string(typ) + "-1"), Value: raw}
}

func seedCache(t *testing.T, ids ...int) *memstore.ProductCache {
	t.Helper()
	c := memstore.NewProductCache()
	for _, id := range ids {
		require.NoError(t, c.Set(context.Background(), &entity.Product{ID: id, Price: decimal.NewFromInt(1)}))
	}
	return c
}

func cached(t *testing.T, c *memstore.ProductCache, id int) bool {
	t.Helper()
	p, err := c.Get(context.Background(), id)
	require.NoError(t, err)
	return p != nil
}

func TestRunInvalidatesProductsOfOrderEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := seedCache(t, 1, 2, 3, 4)
	reader := &scriptedReader{
		cancel: cancel,
		msgs: []kafka.Message{
			eventMessage(t, entity.OrderEventCreated, 1, 2),
			{Key: []byte("broken")},
			{Key: []byte("garbage"), Value: []byte("{not json")},
			eventMessage(t, entity.OrderEventCancelled, 3),
			eventMessage(t, entity.OrderEventType("shipped"), 4),
		},
	}

	consumer := NewConsumer(reader, c)
	consumer.backoff = time.Millisecond
	consumer.Run(ctx)

	assert.False(t, cached(t, c, 1))
	assert.False(t, cached(t, c, 2))
	assert.False(t, cached(t, c, 3))
	assert.True(t, cached(t, c, 4))
}

type failingReader struct {
	calls atomic.Int32
}

func (r *failingReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{}, errors.New("broker unavailable")
}

func TestRunBacksOffOnReadErrors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	reader := &failingReader{}
	consumer := NewConsumer(reader, memstore.NewProductCache())
	consumer.backoff = 50 * time.Millisecond
	consumer.Run(ctx)

	assert.LessOrEqual(t, reader.calls.Load(), int32(6), "reads are spaced by the backoff")
	assert.GreaterOrEqual(t, reader.calls.Load(), int32(2))
}

func TestRunStopsDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	consumer := NewConsumer(&failingReader{}, memstore.NewProductCache())
	consumer.backoff = time.Hour

	done := make(chan struct{})
	go func() {
		consumer.Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
