package service

import (
	"context"
	"fmt"

	"campus-market-api/internal/apperr"
	"campus-market-api/internal/dto"
	"campus-market-api/internal/repository"
)

type CartService interface {
	Get(ctx context.Context, userID uint) ([]*dto.CartItem, error)
	Save(ctx context.Context, userID uint, items []*dto.CartItem) ([]*dto.CartItem, error)
	// Merge folds a client-side cart into the server copy. Quantities
	// add up for items present in both.
	Merge(ctx context.Context, userID uint, localItems []*dto.CartItem) ([]*dto.CartItem, error)
	Clear(ctx context.Context, userID uint) error
}

type cartServiceImpl struct {
	cartRepo repository.CartRepository
}

func NewCartService(cartRepo repository.CartRepository) CartService {
	return &cartServiceImpl{cartRepo: cartRepo}
}

func (s *cartServiceImpl) Get(ctx context.Context, userID uint) ([]*dto.CartItem, error) {
	return s.cartRepo.Get(ctx, userID)
}

func (s *cartServiceImpl) Save(ctx context.Context, userID uint, items []*dto.CartItem) ([]*dto.CartItem, error) {
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item quantity must be positive", apperr.ErrInvalidInput)
		}
	}

	if err := s.cartRepo.Save(ctx, userID, items); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	return items, nil
}

func (s *cartServiceImpl) Merge(ctx context.Context, userID uint, localItems []*dto.CartItem) ([]*dto.CartItem, error) {
	serverItems, err := s.cartRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := make([]*dto.CartItem, 0, len(serverItems)+len(localItems))
	index := make(map[uint]*dto.CartItem)
	for _, item := range serverItems {
		copied := *item
		index[item.ProductID] = &copied
		merged = append(merged, &copied)
	}

	for _, local := range localItems {
		if local.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item quantity must be positive", apperr.ErrInvalidInput)
		}
		if existing, ok := index[local.ProductID]; ok {
			existing.Quantity += local.Quantity
			continue
		}
		copied := *local
		index[local.ProductID] = &copied
		merged = append(merged, &copied)
	}

	if err := s.cartRepo.Save(ctx, userID, merged); err != nil {
		return nil, fmt.Errorf("save merged cart: %w", err)
	}

	return merged, nil
}

func (s *cartServiceImpl) Clear(ctx context.Context, userID uint) error {
	return s.cartRepo.Clear(ctx, userID)
}
