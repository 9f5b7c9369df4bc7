package memstore

import (
	"context"
	"fmt"
	"sort"

	"storefront-service/internal/entity"
)

type ProductRepository struct {
	s *Store
}

func (r *ProductRepository) List(ctx context.Context) ([]*entity.Product, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	var products []*entity.Product
	err := r.s.read(func(st *state) error {
		for _, p := range st.products {
			products = append(products, copyProduct(p))
		}
		return nil
	})
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, err
}

func (r *ProductRepository) GetByID(ctx context.Context, id int) (*entity.Product, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	var product *entity.Product
	err := r.s.read(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return entity.ErrNotFound
		}
		product = copyProduct(p)
		return nil
	})
	return product, err
}

func (r *ProductRepository) Create(ctx context.Context, product *entity.Product) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	return r.s.write(func(st *state) error {
		if st.productNameTaken(product.Name, 0) {
			return fmt.Errorf("%w: product name %q already exists", entity.ErrConflict, product.Name)
		}
		now := r.s.now()
		product.ID = st.nextProductID
		product.CreatedAt = now
		product.UpdatedAt = now
		st.nextProductID++
		st.products[product.ID] = copyProduct(product)
		return nil
	})
}

func (r *ProductRepository) Modify(ctx context.Context, id int, fn func(p *entity.Product) error) (*entity.Product, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	var product *entity.Product
	err := r.s.write(func(st *state) error {
		current, ok := st.products[id]
		if !ok {
			return entity.ErrNotFound
		}
		next := copyProduct(current)
		if err := fn(next); err != nil {
			return err
		}
		if st.productNameTaken(next.Name, id) {
			return fmt.Errorf("%w: product name %q already exists", entity.ErrConflict, next.Name)
		}
		next.ID = id
		next.CreatedAt = current.CreatedAt
		next.UpdatedAt = r.s.now()
		st.products[id] = next
		product = copyProduct(next)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	return r.s.write(func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return entity.ErrNotFound
		}
		for _, o := range st.orders {
			for _, item := range o.Items {
				if item.ProductID == id {
					return fmt.Errorf("%w: product %d is referenced by order %d", entity.ErrConflict, id, o.ID)
				}
			}
		}
		delete(st.products, id)
		return nil
	})
}

func (st *state) productNameTaken(name string, exceptID int) bool {
	for _, p := range st.products {
		if p.Name == name && p.ID != exceptID {
			return true
		}
	}
	return false
}
