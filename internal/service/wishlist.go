package service

import (
	"context"
	"errors"
	"fmt"

	"campus-market-api/internal/apperr"
	"campus-market-api/internal/model"
	"campus-market-api/internal/repository"

	"gorm.io/gorm"
)

type WishlistService interface {
	List(ctx context.Context, userID uint) ([]*model.Product, error)
	Add(ctx context.Context, userID, productID uint) error
	Remove(ctx context.Context, userID, productID uint) error
	Contains(ctx context.Context, userID, productID uint) (bool, error)
	Clear(ctx context.Context, userID uint) error
}

type wishlistServiceImpl struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository) WishlistService {
	return &wishlistServiceImpl{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
	}
}

func (s *wishlistServiceImpl) List(ctx context.Context, userID uint) ([]*model.Product, error) {
	return s.wishlistRepo.ListProducts(ctx, userID)
}

func (s *wishlistServiceImpl) Add(ctx context.Context, userID, productID uint) error {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product %d", apperr.ErrNotFound, productID)
		}
		return fmt.Errorf("load product: %w", err)
	}

	already, err := s.wishlistRepo.Contains(ctx, userID, productID)
	if err != nil {
		return fmt.Errorf("check wishlist: %w", err)
	}
	if already {
		return fmt.Errorf("%w: product already in wishlist", apperr.ErrConflict)
	}

	return s.wishlistRepo.Add(ctx, &model.WishlistItem{
		UserID:    userID,
		ProductID: productID,
	})
}

func (s *wishlistServiceImpl) Remove(ctx context.Context, userID, productID uint) error {
	err := s.wishlistRepo.Remove(ctx, userID, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: product not in wishlist", apperr.ErrNotFound)
	}

	return err
}

func (s *wishlistServiceImpl) Contains(ctx context.Context, userID, productID uint) (bool, error) {
	return s.wishlistRepo.Contains(ctx, userID, productID)
}

func (s *wishlistServiceImpl) Clear(ctx context.Context, userID uint) error {
	return s.wishlistRepo.Clear(ctx, userID)
}
