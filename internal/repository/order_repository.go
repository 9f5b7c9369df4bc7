package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"storefront-service/internal/entity"
	"storefront-service/internal/port"
)

const orderColumns = `SELECT id, owner_id, order_date, status, total_price, discount_applied, discount_code_id`

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db}
}

// WithinTx runs fn inside a single database transaction. Product rows touched through the
// OrderTx are locked with SELECT ... FOR UPDATE until fn returns.
func (r *OrderRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx port.OrderTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &orderTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *OrderRepository) ListByOwner(ctx context.Context, ownerID int) ([]*entity.Order, error) {
	return queryOrders(ctx, r.db, orderColumns+` FROM orders WHERE owner_id = ? ORDER BY order_date DESC, id DESC`, ownerID)
}

func (r *OrderRepository) ListAll(ctx context.Context) ([]*entity.Order, error) {
	return queryOrders(ctx, r.db, orderColumns+` FROM orders ORDER BY order_date DESC, id DESC`)
}

func (r *OrderRepository) GetTotalPrice(ctx context.Context, ownerID, orderID int) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx, `SELECT total_price FROM orders WHERE id = ? AND owner_id = ?`, orderID, ownerID).Scan(&total)
	if err != nil {
		return decimal.Zero, mapError(err)
	}
	return total, nil
}

type orderTx struct {
	tx *sql.Tx
}

func (t *orderTx) LookupDiscount(ctx context.Context, code string) (*entity.DiscountCode, error) {
	d, err := scanDiscount(t.tx.QueryRowContext(ctx, discountColumns+` FROM discount_codes WHERE code = ? LOCK IN SHARE MODE`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup discount: %w", err)
	}
	return d, nil
}

func (t *orderTx) ReserveStock(ctx context.Context, productID, quantity int) (*entity.Product, error) {
	p, err := scanProduct(t.tx.QueryRowContext(ctx, productColumns+` FROM products WHERE id = ? FOR UPDATE`, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &entity.InsufficientStockError{ProductID: productID}
	}
	if err != nil {
		return nil, fmt.Errorf("lock product %d: %w", productID, err)
	}

	if p.QuantityInStock < quantity {
		return nil, &entity.InsufficientStockError{ProductID: productID}
	}

	p.SetStock(p.QuantityInStock - quantity)
	if err := writeStock(ctx, t.tx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (t *orderTx) ReleaseStock(ctx context.Context, productID, quantity int) error {
	p, err := scanProduct(t.tx.QueryRowContext(ctx, productColumns+` FROM products WHERE id = ? FOR UPDATE`, productID))
	if err != nil {
		return mapError(err)
	}

	p.SetStock(p.QuantityInStock + quantity)
	return writeStock(ctx, t.tx, p)
}

func (t *orderTx) CreateOrder(ctx context.Context, order *entity.Order) error {
	orderQuery := `INSERT INTO orders (owner_id, order_date, status, total_price, discount_applied, discount_code_id) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, orderQuery, order.OwnerID, order.OrderDate, order.Status, order.TotalPrice, order.DiscountApplied, order.DiscountCodeID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	orderID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	order.ID = int(orderID)

	// Insert order items with batch
	itemQuery := `INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES `
	placeholders := make([]string, 0, len(order.Items))
	values := make([]any, 0, len(order.Items)*4)
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		placeholders = append(placeholders, "(?, ?, ?, ?)")
		values = append(values, order.ID, order.Items[i].ProductID, order.Items[i].Quantity, order.Items[i].UnitPrice)
	}

	if _, err := t.tx.ExecContext(ctx, itemQuery+strings.Join(placeholders, ", "), values...); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

func (t *orderTx) GetOrderForUpdate(ctx context.Context, ownerID, orderID int) (*entity.Order, error) {
	orders, err := queryOrders(ctx, t.tx, orderColumns+` FROM orders WHERE id = ? AND owner_id = ? FOR UPDATE`, orderID, ownerID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, entity.ErrNotFound
	}
	return orders[0], nil
}

func (t *orderTx) UpdateOrderStatus(ctx context.Context, orderID int, status entity.OrderStatus) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, status, orderID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return requireAffected(res)
}

func (t *orderTx) GetOrder(ctx context.Context, orderID int) (*entity.Order, error) {
	orders, err := queryOrders(ctx, t.tx, orderColumns+` FROM orders WHERE id = ?`, orderID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, entity.ErrNotFound
	}
	return orders[0], nil
}

// queryOrders runs an order header query and attaches the items of every returned order.
func queryOrders(ctx context.Context, q DBTX, query string, args ...any) ([]*entity.Order, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var orders []*entity.Order
	for rows.Next() {
		o := &entity.Order{Items: []entity.OrderItem{}}
		var discountID sql.NullInt64
		if err := rows.Scan(&o.ID, &o.OwnerID, &o.OrderDate, &o.Status, &o.TotalPrice, &o.DiscountApplied, &discountID); err != nil {
			rows.Close()
			return nil, err
		}
		if discountID.Valid {
			id := int(discountID.Int64)
			o.DiscountCodeID = &id
		}
		orders = append(orders, o)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := attachItems(ctx, q, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func attachItems(ctx context.Context, q DBTX, orders []*entity.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[int]*entity.Order, len(orders))
	placeholders := make([]string, 0, len(orders))
	args := make([]any, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		placeholders = append(placeholders, "?")
		args = append(args, o.ID)
	}

	query := `SELECT i.id, i.order_id, i.product_id, i.quantity, i.unit_price, p.id, p.name, p.price
		FROM order_items i LEFT JOIN products p ON p.id = i.product_id
		WHERE i.order_id IN (` + strings.Join(placeholders, ", ") + `) ORDER BY i.id`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item         entity.OrderItem
			productID    sql.NullInt64
			productName  sql.NullString
			productPrice decimal.NullDecimal
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &productID, &productName, &productPrice); err != nil {
			return err
		}
		if productID.Valid {
			item.Product = &entity.ProductSnapshot{
				ID:    int(productID.Int64),
				Name:  productName.String,
				Price: productPrice.Decimal,
			}
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}
