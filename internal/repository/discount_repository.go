package repository

import (
	"context"
	"database/sql"

	"storefront-service/internal/entity"
)

const discountColumns = `SELECT id, code, discount_percentage, is_active, expiry_date, created_at`

type DiscountRepository struct {
	db *sql.DB
}

func NewDiscountRepository(db *sql.DB) *DiscountRepository {
	return &DiscountRepository{db}
}

func scanDiscount(row rowScanner) (*entity.DiscountCode, error) {
	d := &entity.DiscountCode{}
	var expiry sql.NullTime
	if err := row.Scan(&d.ID, &d.Code, &d.DiscountPercentage, &d.IsActive, &expiry, &d.CreatedAt); err != nil {
		return nil, err
	}
	if expiry.Valid {
		t := expiry.Time
		d.ExpiryDate = &t
	}
	return d, nil
}

func (r *DiscountRepository) GetByID(ctx context.Context, id int) (*entity.DiscountCode, error) {
	d, err := scanDiscount(r.db.QueryRowContext(ctx, discountColumns+` FROM discount_codes WHERE id = ?`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return d, nil
}

func (r *DiscountRepository) Create(ctx context.Context, code *entity.DiscountCode) error {
	query := `INSERT INTO discount_codes (code, discount_percentage, is_active, expiry_date, created_at) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, code.Code, code.DiscountPercentage, code.IsActive, code.ExpiryDate, code.CreatedAt)
	if err != nil {
		return mapError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	code.ID = int(id)
	return nil
}

func (r *DiscountRepository) Update(ctx context.Context, code *entity.DiscountCode) error {
	query := `UPDATE discount_codes SET discount_percentage = ?, is_active = ?, expiry_date = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, code.DiscountPercentage, code.IsActive, code.ExpiryDate, code.ID)
	return mapError(err)
}

func (r *DiscountRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM discount_codes WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}
