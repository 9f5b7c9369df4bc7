package memstore

import (
	"context"
	"fmt"

	"storefront-service/internal/entity"
)

type DiscountRepository struct {
	s *Store
}

func (r *DiscountRepository) GetByID(ctx context.Context, id int) (*entity.DiscountCode, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	var code *entity.DiscountCode
	err := r.s.read(func(st *state) error {
		d, ok := st.discounts[id]
		if !ok {
			return entity.ErrNotFound
		}
		code = copyDiscount(d)
		return nil
	})
	return code, err
}

func (r *DiscountRepository) Create(ctx context.Context, code *entity.DiscountCode) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	return r.s.write(func(st *state) error {
		if st.discountByCode(code.Code) != nil {
			return fmt.Errorf("%w: discount code %q already exists", entity.ErrConflict, code.Code)
		}
		code.ID = st.nextDiscountID
		code.CreatedAt = r.s.now()
		st.nextDiscountID++
		st.discounts[code.ID] = copyDiscount(code)
		return nil
	})
}

// Update stores percentage, activity and expiry. The code string is immutable.
func (r *DiscountRepository) Update(ctx context.Context, code *entity.DiscountCode) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	return r.s.write(func(st *state) error {
		current, ok := st.discounts[code.ID]
		if !ok {
			return entity.ErrNotFound
		}
		next := copyDiscount(code)
		next.Code = current.Code
		next.CreatedAt = current.CreatedAt
		st.discounts[code.ID] = next
		return nil
	})
}

func (r *DiscountRepository) Delete(ctx context.Context, id int) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	return r.s.write(func(st *state) error {
		if _, ok := st.discounts[id]; !ok {
			return entity.ErrNotFound
		}
		delete(st.discounts, id)
		for _, o := range st.orders {
			if o.DiscountCodeID != nil && *o.DiscountCodeID == id {
				o.DiscountCodeID = nil
			}
		}
		return nil
	})
}

func (st *state) discountByCode(code string) *entity.DiscountCode {
	for _, d := range st.discounts {
		if d.Code == code {
			return d
		}
	}
	return nil
}
