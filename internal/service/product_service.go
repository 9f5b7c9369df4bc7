package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"storefront-service/internal/entity"
	"storefront-service/internal/port"
)

type NewProduct struct {
	Name            string
	Description     string
	Price           decimal.Decimal
	QuantityInStock int
}

// ProductUpdate is a partial update; nil fields keep their value.
type ProductUpdate struct {
	Name            *string
	Description     *string
	Price           *decimal.Decimal
	QuantityInStock *int
}

type ProductService struct {
	repo  port.ProductRepository
	cache port.ProductCache
}

// NewProductService creates a new instance of ProductService.
func NewProductService(repo port.ProductRepository, cache port.ProductCache) *ProductService {
	return &ProductService{repo: repo, cache: cache}
}

func (p *ProductService) ListProducts(ctx context.Context) ([]*entity.Product, error) {
	products, err := p.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error listing products")
		return nil, err
	}
	return nonNil(products), nil
}

// GetProduct reads through the product cache.
func (p *ProductService) GetProduct(ctx context.Context, id int) (*entity.Product, error) {
	cached, err := p.cache.Get(ctx, id)
	if err != nil {
		log.Warn().Err(err).Msgf("Error getting product %d from cache", id)
	}
	if cached != nil {
		return cached, nil
	}

	product, err := p.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %d", entity.ErrNotFound, id)
		}
		log.Error().Err(err).Msgf("Error getting product by ID %d", id)
		return nil, err
	}

	if err := p.cache.Set(ctx, product); err != nil {
		log.Warn().Err(err).Msgf("Error setting product %d in cache", id)
	}
	return product, nil
}

func (p *ProductService) CreateProduct(ctx context.Context, caller entity.Principal, req NewProduct) (*entity.Product, error) {
	if err := requireAdmin(caller, "creating products"); err != nil {
		return nil, err
	}
	if err := validateProduct(req.Name, req.Description, req.Price, req.QuantityInStock); err != nil {
		return nil, err
	}

	product := &entity.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	}
	product.SetStock(req.QuantityInStock)

	if err := p.repo.Create(ctx, product); err != nil {
		if !errors.Is(err, entity.ErrConflict) {
			log.Error().Err(err).Msgf("Error creating product %s", req.Name)
		}
		return nil, err
	}
	return product, nil
}

func (p *ProductService) UpdateProduct(ctx context.Context, caller entity.Principal, id int, upd ProductUpdate) (*entity.Product, error) {
	if err := requireAdmin(caller, "updating products"); err != nil {
		return nil, err
	}

	product, err := p.repo.Modify(ctx, id, func(product *entity.Product) error {
		if upd.Name != nil {
			product.Name = *upd.Name
		}
		if upd.Description != nil {
			product.Description = *upd.Description
		}
		if upd.Price != nil {
			product.Price = *upd.Price
		}
		if upd.QuantityInStock != nil {
			product.SetStock(*upd.QuantityInStock)
		}
		return validateProduct(product.Name, product.Description, product.Price, product.QuantityInStock)
	})
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %d", entity.ErrNotFound, id)
		}
		return nil, err
	}
	p.invalidate(ctx, id)
	return product, nil
}

// ArchiveProduct takes a product off sale by zeroing its stock.
func (p *ProductService) ArchiveProduct(ctx context.Context, caller entity.Principal, id int) (*entity.Product, error) {
	zero := 0
	return p.UpdateProduct(ctx, caller, id, ProductUpdate{QuantityInStock: &zero})
}

// DeleteProduct removes a product that no order references.
func (p *ProductService) DeleteProduct(ctx context.Context, caller entity.Principal, id int) error {
	if err := requireAdmin(caller, "deleting products"); err != nil {
		return err
	}
	if err := p.repo.Delete(ctx, id); err != nil {
		return err
	}
	p.invalidate(ctx, id)
	return nil
}

func (p *ProductService) invalidate(ctx context.Context, id int) {
	if err := p.cache.Invalidate(ctx, id); err != nil {
		log.Error().Err(err).Msgf("Error deleting product %d from cache", id)
	}
}

func validateProduct(name, description string, price decimal.Decimal, stock int) error {
	if len(name) < 3 {
		return fmt.Errorf("%w: product name must be at least 3 characters", entity.ErrValidation)
	}
	if len(description) < 3 || len(description) > 1000 {
		return fmt.Errorf("%w: description must be between 3 and 1000 characters", entity.ErrValidation)
	}
	if !price.IsPositive() {
		return fmt.Errorf("%w: price must be greater than 0", entity.ErrValidation)
	}
	if stock < 0 {
		return fmt.Errorf("%w: quantity in stock cannot be negative", entity.ErrValidation)
	}
	return nil
}
