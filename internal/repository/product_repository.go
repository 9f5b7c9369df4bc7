package repository

import (
	"context"
	"database/sql"
	"fmt"

	"storefront-service/internal/entity"
)

const productColumns = `SELECT id, name, description, price, quantity_in_stock, is_active, created_at, updated_at`

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*entity.Product, error) {
	p := &entity.Product{}
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.QuantityInStock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProductRepository) List(ctx context.Context) ([]*entity.Product, error) {
	rows, err := r.db.QueryContext(ctx, productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *ProductRepository) GetByID(ctx context.Context, id int) (*entity.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, productColumns+` FROM products WHERE id = ?`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (r *ProductRepository) Create(ctx context.Context, product *entity.Product) error {
	query := `INSERT INTO products (name, description, price, quantity_in_stock, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NOW(), NOW())`
	res, err := r.db.ExecContext(ctx, query, product.Name, product.Description, product.Price, product.QuantityInStock, product.IsActive)
	if err != nil {
		return mapError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	product.ID = int(id)
	return nil
}

func (r *ProductRepository) Modify(ctx context.Context, id int, fn func(p *entity.Product) error) (*entity.Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	product, err := scanProduct(tx.QueryRowContext(ctx, productColumns+` FROM products WHERE id = ? FOR UPDATE`, id))
	if err != nil {
		return nil, mapError(err)
	}
	if err := fn(product); err != nil {
		return nil, err
	}

	query := `UPDATE products SET name = ?, description = ?, price = ?, quantity_in_stock = ?, is_active = ?, updated_at = NOW() WHERE id = ?`
	_, err = tx.ExecContext(ctx, query, product.Name, product.Description, product.Price, product.QuantityInStock, product.IsActive, product.ID)
	if err != nil {
		return nil, mapError(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return product, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, mapError(err))
	}
	return requireAffected(res)
}

// writeStock persists a stock change made through entity.Product.SetStock.
func writeStock(ctx context.Context, q DBTX, product *entity.Product) error {
	_, err := q.ExecContext(ctx, `UPDATE products SET quantity_in_stock = ?, is_active = ?, updated_at = NOW() WHERE id = ?`,
		product.QuantityInStock, product.IsActive, product.ID)
	if err != nil {
		return fmt.Errorf("update stock for product %d: %w", product.ID, err)
	}
	return nil
}
