package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/entity"
	"storefront-service/internal/port"
	"storefront-service/migrations"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/storefront_test?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("MySQL not available: %v", err)
	}
	require.NoError(t, migrations.AutoMigrate(0, db))
	t.Cleanup(func() { db.Close() })
	return db
}

// fixture inserts a user and a product with a unique suffix so runs do not collide.
func fixture(t *testing.T, db *sql.DB, stock int) (*entity.User, *entity.Product) {
	t.Helper()
	ctx := context.Background()
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())

	user := &entity.User{
		Username: "it-" + suffix, Email: "it-" + suffix + "@example.com",
		FirstName: "Int", LastName: "Test", HashedPassword: "x", IsActive: true, Role: entity.RoleCustomer,
	}
	require.NoError(t, NewUserRepository(db).Create(ctx, user))

	product := &entity.Product{Name: "it-product-" + suffix, Description: "integration", Price: decimal.RequireFromString("12.50")}
	product.SetStock(stock)
	require.NoError(t, NewProductRepository(db).Create(ctx, product))

	t.Cleanup(func() {
		db.ExecContext(ctx, `DELETE FROM orders WHERE owner_id = ?`, user.ID)
		db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, product.ID)
		db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, user.ID)
	})
	return user, product
}

func TestOrderRepository_CreateAndCancel(t *testing.T) {
	db := getMySQLDB(t)
	ctx := context.Background()
	user, product := fixture(t, db, 5)
	orders := NewOrderRepository(db)

	order := &entity.Order{
		OwnerID:    user.ID,
		OrderDate:  time.Now().UTC().Truncate(time.Second),
		Status:     entity.OrderStatusPending,
		TotalPrice: decimal.RequireFromString("25.00"),
		Items:      []entity.OrderItem{{ProductID: product.ID, Quantity: 2, UnitPrice: product.Price}},
	}
	err := orders.WithinTx(ctx, func(ctx context.Context, tx port.OrderTx) error {
		if _, err := tx.ReserveStock(ctx, product.ID, 2); err != nil {
			return err
		}
		return tx.CreateOrder(ctx, order)
	})
	require.NoError(t, err)
	require.Positive(t, order.ID)

	got, err := NewProductRepository(db).GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.QuantityInStock)

	listed, err := orders.ListByOwner(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Len(t, listed[0].Items, 1)
	require.NotNil(t, listed[0].Items[0].Product)
	assert.Equal(t, product.Name, listed[0].Items[0].Product.Name)
	assert.True(t, product.Price.Equal(listed[0].Items[0].UnitPrice))

	total, err := orders.GetTotalPrice(ctx, user.ID, order.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("25.00").Equal(total))

	err = orders.WithinTx(ctx, func(ctx context.Context, tx port.OrderTx) error {
		o, err := tx.GetOrderForUpdate(ctx, user.ID, order.ID)
		if err != nil {
			return err
		}
		for _, item := range o.Items {
			if err := tx.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return tx.UpdateOrderStatus(ctx, o.ID, entity.OrderStatusCancelled)
	})
	require.NoError(t, err)

	got, err = NewProductRepository(db).GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.QuantityInStock)

	assert.ErrorIs(t, NewProductRepository(db).Delete(ctx, product.ID), entity.ErrConflict)
}

func TestOrderRepository_ShortStockRollsBack(t *testing.T) {
	db := getMySQLDB(t)
	ctx := context.Background()
	user, product := fixture(t, db, 1)

	err := NewOrderRepository(db).WithinTx(ctx, func(ctx context.Context, tx port.OrderTx) error {
		if _, err := tx.ReserveStock(ctx, product.ID, 1); err != nil {
			return err
		}
		_, err := tx.ReserveStock(ctx, product.ID, 1)
		return err
	})
	var short *entity.InsufficientStockError
	require.ErrorAs(t, err, &short)

	got, err := NewProductRepository(db).GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.QuantityInStock)
	assert.True(t, got.IsActive)

	listed, err := NewOrderRepository(db).ListByOwner(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestUserRepository_Conflicts(t *testing.T) {
	db := getMySQLDB(t)
	ctx := context.Background()
	user, _ := fixture(t, db, 0)

	dup := *user
	dup.ID = 0
	dup.Email = "other-" + user.Email
	assert.ErrorIs(t, NewUserRepository(db).Create(ctx, &dup), entity.ErrConflict)

	_, err := NewUserRepository(db).GetByID(ctx, -1)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestOrderRepository_ConcurrentOrdersForLastUnits(t *testing.T) {
	db := getMySQLDB(t)
	ctx := context.Background()
	user, product := fixture(t, db, 4)
	orders := NewOrderRepository(db)

	const buyers = 2
	results := make(chan error, buyers)
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- orders.WithinTx(ctx, func(ctx context.Context, tx port.OrderTx) error {
				if _, err := tx.ReserveStock(ctx, product.ID, 4); err != nil {
					return err
				}
				return tx.CreateOrder(ctx, &entity.Order{
					OwnerID:    user.ID,
					OrderDate:  time.Now().UTC().Truncate(time.Second),
					Status:     entity.OrderStatusPending,
					TotalPrice: decimal.RequireFromString("50.00"),
					Items:      []entity.OrderItem{{ProductID: product.ID, Quantity: 4, UnitPrice: product.Price}},
				})
			})
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, short int
	for err := range results {
		var stockErr *entity.InsufficientStockError
		switch {
		case err == nil:
			succeeded++
		case errors.As(err, &stockErr):
			short++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, short)

	got, err := NewProductRepository(db).GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.QuantityInStock)
	assert.False(t, got.IsActive)
}

func TestProductRepository_ModifyKeepsReservedStock(t *testing.T) {
	db := getMySQLDB(t)
	ctx := context.Background()
	_, product := fixture(t, db, 5)
	products := NewProductRepository(db)

	updated, err := products.Modify(ctx, product.ID, func(p *entity.Product) error {
		// a reservation committed after the edit started waits for the row lock
		done := make(chan error, 1)
		go func() {
			done <- NewOrderRepository(db).WithinTx(ctx, func(ctx context.Context, tx port.OrderTx) error {
				_, err := tx.ReserveStock(ctx, product.ID, 3)
				return err
			})
		}()
		select {
		case err := <-done:
			return fmt.Errorf("reservation did not wait for the row lock: %v", err)
		case <-time.After(200 * time.Millisecond):
		}
		p.Name = p.Name + "-renamed"
		t.Cleanup(func() { <-done })
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.QuantityInStock)

	require.Eventually(t, func() bool {
		got, err := products.GetByID(ctx, product.ID)
		return err == nil && got.QuantityInStock == 2
	}, 5*time.Second, 50*time.Millisecond)

	got, err := products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.Name+"-renamed", got.Name)

	_, err = products.Modify(ctx, -1, func(*entity.Product) error { return nil })
	assert.ErrorIs(t, err, entity.ErrNotFound)
}
