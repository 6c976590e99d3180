package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"campus-market-api/internal/apperr"
	"campus-market-api/internal/dto"
	"campus-market-api/internal/model"
	"campus-market-api/internal/repository"

	"gorm.io/gorm"
)

type ProductService interface {
	Create(ctx context.Context, sellerID uint, req *dto.ProductRequest) (*model.Product, error)
	GetByID(ctx context.Context, id uint) (*model.Product, error)
	List(ctx context.Context, filter *dto.ProductFilter) (*dto.ProductList, error)
	Update(ctx context.Context, userID uint, isAdmin bool, id uint, req *dto.ProductRequest) (*model.Product, error)
	Delete(ctx context.Context, userID uint, isAdmin bool, id uint) error
}

type productServiceImpl struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productServiceImpl{productRepo: productRepo}
}

func (s *productServiceImpl) Create(ctx context.Context, sellerID uint, req *dto.ProductRequest) (*model.Product, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: product name is required", apperr.ErrInvalidInput)
	}
	if req.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", apperr.ErrInvalidInput)
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", apperr.ErrInvalidInput)
	}

	product := &model.Product{
		SellerID:    sellerID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Currency:    "KES",
		Category:    req.Category,
		Condition:   req.Condition,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("store product in db: %w", err)
	}

	return product, nil
}

func (s *productServiceImpl) GetByID(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("load product: %w", err)
	}

	return product, nil
}

func (s *productServiceImpl) List(ctx context.Context, filter *dto.ProductFilter) (*dto.ProductList, error) {
	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	limit := filter.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	return &dto.ProductList{
		Products: products,
		Pagination: dto.Pagination{
			CurrentPage: page,
			TotalPages:  int64(math.Ceil(float64(total) / float64(limit))),
			Total:       total,
		},
	}, nil
}

func (s *productServiceImpl) Update(ctx context.Context, userID uint, isAdmin bool, id uint, req *dto.ProductRequest) (*model.Product, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if product.SellerID != userID && !isAdmin {
		return nil, fmt.Errorf("%w: product belongs to another seller", apperr.ErrForbidden)
	}
	if req.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", apperr.ErrInvalidInput)
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	product.Category = req.Category
	product.Condition = req.Condition
	product.Stock = req.Stock
	product.ImageURL = req.ImageURL

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

func (s *productServiceImpl) Delete(ctx context.Context, userID uint, isAdmin bool, id uint) error {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if product.SellerID != userID && !isAdmin {
		return fmt.Errorf("%w: product belongs to another seller", apperr.ErrForbidden)
	}

	return s.productRepo.Delete(ctx, id)
}
