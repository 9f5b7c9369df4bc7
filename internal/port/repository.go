package port

import (
	"context"

	"github.com/shopspring/decimal"

	"storefront-service/internal/entity"
)

// OrderTx is the set of operations the order workflow performs inside one transaction.
// Everything done through an OrderTx commits or rolls back together.
type OrderTx interface {
	// LookupDiscount returns the code or nil if it does not exist. The row stays share-locked until the
	// transaction ends.
	LookupDiscount(ctx context.Context, code string) (*entity.DiscountCode, error)

	// ReserveStock locks the product row, checks availability and decrements it.
	// Returns *entity.InsufficientStockError when the product is missing or short.
	ReserveStock(ctx context.Context, productID, quantity int) (*entity.Product, error)

	// ReleaseStock returns quantity to the product. entity.ErrNotFound if the product is gone.
	ReleaseStock(ctx context.Context, productID, quantity int) error

	// CreateOrder inserts the header and its items and sets order.ID.
	CreateOrder(ctx context.Context, order *entity.Order) error

	GetOrderForUpdate(ctx context.Context, ownerID, orderID int) (*entity.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int, status entity.OrderStatus) error
	GetOrder(ctx context.Context, orderID int) (*entity.Order, error)
}

type OrderRepository interface {
	// WithinTx runs fn in a transaction, committing when fn returns nil.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx OrderTx) error) error

	ListByOwner(ctx context.Context, ownerID int) ([]*entity.Order, error)
	ListAll(ctx context.Context) ([]*entity.Order, error)
	GetTotalPrice(ctx context.Context, ownerID, orderID int) (decimal.Decimal, error)
}

type ProductRepository interface {
	List(ctx context.Context) ([]*entity.Product, error)
	GetByID(ctx context.Context, id int) (*entity.Product, error)
	Create(ctx context.Context, product *entity.Product) error
	// Modify locks the product, applies fn to it and writes it back in one transaction.
	// Stock reserved by concurrent orders is never overwritten with a stale value.
	Modify(ctx context.Context, id int, fn func(p *entity.Product) error) (*entity.Product, error)
	// Delete fails with entity.ErrConflict while order items still reference the product.
	Delete(ctx context.Context, id int) error
}

type DiscountRepository interface {
	GetByID(ctx context.Context, id int) (*entity.DiscountCode, error)
	Create(ctx context.Context, code *entity.DiscountCode) error
	Update(ctx context.Context, code *entity.DiscountCode) error
	Delete(ctx context.Context, id int) error
}

type UserRepository interface {
	List(ctx context.Context) ([]*entity.User, error)
	GetByID(ctx context.Context, id int) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id int) error
}
