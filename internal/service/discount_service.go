package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"storefront-service/internal/entity"
	"storefront-service/internal/port"
)

type NewDiscount struct {
	Code               string
	DiscountPercentage int
	ExpiryDate         *time.Time
}

// DiscountUpdate changes percentage, activity or expiry. The code itself cannot change.
type DiscountUpdate struct {
	DiscountPercentage *int
	IsActive           *bool
	ExpiryDate         *time.Time
}

type DiscountService struct {
	repo port.DiscountRepository
}

func NewDiscountService(repo port.DiscountRepository) *DiscountService {
	return &DiscountService{repo: repo}
}

func (s *DiscountService) GetDiscount(ctx context.Context, caller entity.Principal, id int) (*entity.DiscountCode, error) {
	if err := requireAdmin(caller, "reading discount codes"); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *DiscountService) CreateDiscount(ctx context.Context, caller entity.Principal, req NewDiscount) (*entity.DiscountCode, error) {
	if err := requireAdmin(caller, "creating discount codes"); err != nil {
		return nil, err
	}
	if len(req.Code) < 3 || len(req.Code) > 20 {
		return nil, fmt.Errorf("%w: code must be between 3 and 20 characters", entity.ErrValidation)
	}
	if !entity.ValidPercentage(req.DiscountPercentage) {
		return nil, fmt.Errorf("%w: discount percentage must be between 1 and 99", entity.ErrValidation)
	}

	code := &entity.DiscountCode{
		Code:               req.Code,
		DiscountPercentage: req.DiscountPercentage,
		IsActive:           true,
		ExpiryDate:         req.ExpiryDate,
	}
	if err := s.repo.Create(ctx, code); err != nil {
		if !errors.Is(err, entity.ErrConflict) {
			log.Error().Err(err).Msgf("Error creating discount code %s", req.Code)
		}
		return nil, err
	}
	return code, nil
}

func (s *DiscountService) UpdateDiscount(ctx context.Context, caller entity.Principal, id int, upd DiscountUpdate) (*entity.DiscountCode, error) {
	if err := requireAdmin(caller, "updating discount codes"); err != nil {
		return nil, err
	}
	if upd.DiscountPercentage != nil && !entity.ValidPercentage(*upd.DiscountPercentage) {
		return nil, fmt.Errorf("%w: discount percentage must be between 1 and 99", entity.ErrValidation)
	}

	code, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.DiscountPercentage != nil {
		code.DiscountPercentage = *upd.DiscountPercentage
	}
	if upd.IsActive != nil {
		code.IsActive = *upd.IsActive
	}
	if upd.ExpiryDate != nil {
		code.ExpiryDate = upd.ExpiryDate
	}

	if err := s.repo.Update(ctx, code); err != nil {
		log.Error().Err(err).Msgf("Error updating discount code %d", id)
		return nil, err
	}
	return code, nil
}

// DeactivateDiscount is the soft delete: the code stays but no longer applies to new orders.
func (s *DiscountService) DeactivateDiscount(ctx context.Context, caller entity.Principal, id int) (*entity.DiscountCode, error) {
	inactive := false
	return s.UpdateDiscount(ctx, caller, id, DiscountUpdate{IsActive: &inactive})
}

// DeleteDiscount removes the code. Orders that used it keep their totals and lose the reference.
func (s *DiscountService) DeleteDiscount(ctx context.Context, caller entity.Principal, id int) error {
	if err := requireAdmin(caller, "deleting discount codes"); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
