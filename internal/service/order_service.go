package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"storefront-service/internal/entity"
	"storefront-service/internal/port"
)

// CreateOrderRequest is one order placement. DiscountCode and IdempotencyKey are optional.
type CreateOrderRequest struct {
	Items          []entity.ItemRequest
	DiscountCode   string
	IdempotencyKey string
}

// OrderService places and cancels orders. Stock, discount and order rows change together inside
// one repository transaction; events and cache invalidation follow the commit.
type OrderService struct {
	orders      port.OrderRepository
	idempotency port.IdempotencyStore
	publisher   port.EventPublisher
	cache       port.ProductCache
	now         func() time.Time
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orders port.OrderRepository, idempotency port.IdempotencyStore, publisher port.EventPublisher, cache port.ProductCache) *OrderService {
	return &OrderService{
		orders:      orders,
		idempotency: idempotency,
		publisher:   publisher,
		cache:       cache,
		now:         time.Now,
	}
}

// CreateOrder reserves stock for every line, applies the discount code and stores the order.
// Any failure leaves stock, orders and order items untouched.
func (s *OrderService) CreateOrder(ctx context.Context, ownerID int, req CreateOrderRequest) (order *entity.Order, err error) {
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		scope := fmt.Sprintf("user:%d", ownerID)
		acquired, err := s.idempotency.Acquire(ctx, scope, req.IdempotencyKey)
		if err != nil {
			log.Error().Err(err).Msgf("Error acquiring idempotency key for user %d", ownerID)
			return nil, err
		}
		if !acquired {
			return nil, fmt.Errorf("%w: idempotency key %q already used", entity.ErrConflict, req.IdempotencyKey)
		}
		defer func() {
			if err == nil {
				return
			}
			// a failed attempt frees the key for a retry
			if releaseErr := s.idempotency.Release(context.WithoutCancel(ctx), scope, req.IdempotencyKey); releaseErr != nil {
				log.Error().Err(releaseErr).Msgf("Error releasing idempotency key for user %d", ownerID)
			}
		}()
	}

	code := strings.TrimSpace(req.DiscountCode)
	err = s.orders.WithinTx(ctx, func(ctx context.Context, tx port.OrderTx) error {
		var discount *entity.DiscountCode
		if code != "" {
			d, err := tx.LookupDiscount(ctx, code)
			if err != nil {
				return err
			}
			if !d.ValidAt(s.now()) {
				return fmt.Errorf("%w: %q", entity.ErrInvalidDiscount, code)
			}
			discount = d
		}

		items := make([]entity.OrderItem, 0, len(req.Items))
		for _, line := range req.Items {
			product, err := tx.ReserveStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			items = append(items, entity.OrderItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: product.Price,
			})
		}

		quote := PriceOrder(items, discount)
		pending := &entity.Order{
			OwnerID:         ownerID,
			OrderDate:       s.now().UTC().Truncate(time.Second),
			Status:          entity.OrderStatusPending,
			TotalPrice:      quote.Total,
			DiscountApplied: quote.Discount,
			Items:           items,
		}
		if discount != nil {
			pending.DiscountCodeID = &discount.ID
		}

		if err := tx.CreateOrder(ctx, pending); err != nil {
			return err
		}

		order, err = tx.GetOrder(ctx, pending.ID)
		return err
	})
	if err != nil {
		if !isBusinessError(err) {
			log.Error().Err(err).Msgf("Error creating order for user %d", ownerID)
		}
		return nil, err
	}

	s.afterCommit(ctx, entity.OrderEventCreated, order)
	return order, nil
}

// CancelOrder restores the stock of every line and marks the order cancelled. Lines whose product
// no longer exists are skipped.
func (s *OrderService) CancelOrder(ctx context.Context, ownerID, orderID int) (*entity.Order, error) {
	var cancelled *entity.Order
	err := s.orders.WithinTx(ctx, func(ctx context.Context, tx port.OrderTx) error {
		order, err := tx.GetOrderForUpdate(ctx, ownerID, orderID)
		if err != nil {
			if errors.Is(err, entity.ErrNotFound) {
				return fmt.Errorf("%w: order %d", entity.ErrNotFound, orderID)
			}
			return err
		}

		if !order.Status.Cancellable() {
			return fmt.Errorf("%w: order %d is %s", entity.ErrInvalidState, orderID, order.Status)
		}

		for _, item := range order.Items {
			err := tx.ReleaseStock(ctx, item.ProductID, item.Quantity)
			if errors.Is(err, entity.ErrNotFound) {
				log.Warn().Msgf("Product %d of order %d no longer exists, stock not restored", item.ProductID, orderID)
				continue
			}
			if err != nil {
				return err
			}
		}

		if err := tx.UpdateOrderStatus(ctx, orderID, entity.OrderStatusCancelled); err != nil {
			return err
		}

		cancelled, err = tx.GetOrder(ctx, orderID)
		return err
	})
	if err != nil {
		if !isBusinessError(err) {
			log.Error().Err(err).Msgf("Error cancelling order %d", orderID)
		}
		return nil, err
	}

	s.afterCommit(ctx, entity.OrderEventCancelled, cancelled)
	return cancelled, nil
}

// ListOrders returns the owner's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, ownerID int) ([]*entity.Order, error) {
	orders, err := s.orders.ListByOwner(ctx, ownerID)
	if err != nil {
		log.Error().Err(err).Msgf("Error listing orders for user %d", ownerID)
		return nil, err
	}
	return nonNil(orders), nil
}

// ListAllOrders returns every order in the system. Admins only.
func (s *OrderService) ListAllOrders(ctx context.Context, caller entity.Principal) ([]*entity.Order, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: listing all orders requires the admin role", entity.ErrForbidden)
	}
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error listing all orders")
		return nil, err
	}
	return nonNil(orders), nil
}

func (s *OrderService) GetOrderPrice(ctx context.Context, ownerID, orderID int) (decimal.Decimal, error) {
	total, err := s.orders.GetTotalPrice(ctx, ownerID, orderID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return decimal.Zero, fmt.Errorf("%w: order %d", entity.ErrNotFound, orderID)
		}
		return decimal.Zero, err
	}
	return total, nil
}

// afterCommit drops cached copies of the touched products and publishes the order event.
// Both are best effort: the order is already committed.
func (s *OrderService) afterCommit(ctx context.Context, typ entity.OrderEventType, order *entity.Order) {
	event := entity.OrderEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		Order:      *order,
		OccurredAt: s.now().UTC(),
	}

	if err := s.cache.Invalidate(ctx, event.ProductIDs()...); err != nil {
		log.Error().Err(err).Msgf("Error invalidating product cache for order %d", order.ID)
	}

	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		log.Error().Err(err).Msgf("Error publishing %s event for order %d", typ, order.ID)
	}
}

func validateItems(items []entity.ItemRequest) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: an order needs at least one item", entity.ErrValidation)
	}
	for i, item := range items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d has quantity %d, must be greater than 0", entity.ErrValidation, i, item.Quantity)
		}
	}
	return nil
}

// isBusinessError reports whether err is an expected rejection rather than a failure worth logging.
func isBusinessError(err error) bool {
	for _, target := range []error{
		entity.ErrValidation, entity.ErrNotFound, entity.ErrInvalidState, entity.ErrInsufficientStock,
		entity.ErrInvalidDiscount, entity.ErrForbidden, entity.ErrUnauthorized, entity.ErrConflict, entity.ErrInactiveUser,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
