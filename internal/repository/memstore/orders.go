package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"storefront-service/internal/entity"
	"storefront-service/internal/port"
)

type OrderRepository struct {
	s *Store
}

func (r *OrderRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx port.OrderTx) error) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	return r.s.write(func(st *state) error {
		return fn(ctx, &orderTx{st: st})
	})
}

func (r *OrderRepository) ListByOwner(ctx context.Context, ownerID int) ([]*entity.Order, error) {
	return r.list(ctx, func(o *entity.Order) bool { return o.OwnerID == ownerID })
}

func (r *OrderRepository) ListAll(ctx context.Context) ([]*entity.Order, error) {
	return r.list(ctx, func(*entity.Order) bool { return true })
}

func (r *OrderRepository) list(ctx context.Context, keep func(o *entity.Order) bool) ([]*entity.Order, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	var orders []*entity.Order
	err := r.s.read(func(st *state) error {
		for _, o := range st.orders {
			if keep(o) {
				orders = append(orders, st.materialise(o))
			}
		}
		return nil
	})
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].OrderDate.Equal(orders[j].OrderDate) {
			return orders[i].OrderDate.After(orders[j].OrderDate)
		}
		return orders[i].ID > orders[j].ID
	})
	return orders, err
}

func (r *OrderRepository) GetTotalPrice(ctx context.Context, ownerID, orderID int) (decimal.Decimal, error) {
	if err := checkCtx(ctx); err != nil {
		return decimal.Zero, err
	}
	var total decimal.Decimal
	err := r.s.read(func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok || o.OwnerID != ownerID {
			return entity.ErrNotFound
		}
		total = o.TotalPrice
		return nil
	})
	return total, err
}

type orderTx struct {
	st *state
}

func (t *orderTx) LookupDiscount(ctx context.Context, code string) (*entity.DiscountCode, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	d := t.st.discountByCode(code)
	if d == nil {
		return nil, nil
	}
	return copyDiscount(d), nil
}

func (t *orderTx) ReserveStock(ctx context.Context, productID, quantity int) (*entity.Product, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	p, ok := t.st.products[productID]
	if !ok || p.QuantityInStock < quantity {
		return nil, &entity.InsufficientStockError{ProductID: productID}
	}
	p.SetStock(p.QuantityInStock - quantity)
	return copyProduct(p), nil
}

func (t *orderTx) ReleaseStock(ctx context.Context, productID, quantity int) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	p, ok := t.st.products[productID]
	if !ok {
		return entity.ErrNotFound
	}
	p.SetStock(p.QuantityInStock + quantity)
	return nil
}

func (t *orderTx) CreateOrder(ctx context.Context, order *entity.Order) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	if _, ok := t.st.users[order.OwnerID]; !ok {
		return fmt.Errorf("%w: owner %d does not exist", entity.ErrConflict, order.OwnerID)
	}

	order.ID = t.st.nextOrderID
	t.st.nextOrderID++
	for i := range order.Items {
		order.Items[i].ID = t.st.nextItemID
		order.Items[i].OrderID = order.ID
		t.st.nextItemID++
	}
	t.st.orders[order.ID] = copyOrder(order)
	return nil
}

func (t *orderTx) GetOrderForUpdate(ctx context.Context, ownerID, orderID int) (*entity.Order, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	o, ok := t.st.orders[orderID]
	if !ok || o.OwnerID != ownerID {
		return nil, entity.ErrNotFound
	}
	return t.st.materialise(o), nil
}

func (t *orderTx) UpdateOrderStatus(ctx context.Context, orderID int, status entity.OrderStatus) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	o, ok := t.st.orders[orderID]
	if !ok {
		return entity.ErrNotFound
	}
	o.Status = status
	return nil
}

func (t *orderTx) GetOrder(ctx context.Context, orderID int) (*entity.Order, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	o, ok := t.st.orders[orderID]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return t.st.materialise(o), nil
}
