package service

import (
	"context"
	"errors"
	"fmt"

	"campus-market-api/internal/apperr"
	"campus-market-api/internal/dto"
	"campus-market-api/internal/model"
	"campus-market-api/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService interface {
	Get(ctx context.Context, id uint) (*dto.UserProfile, error)
	UpdateProfile(ctx context.Context, id uint, req *dto.UpdateProfileRequest) (*dto.UserProfile, error)
	ChangePassword(ctx context.Context, id uint, req *dto.ChangePasswordRequest) error
	SellerProfile(ctx context.Context, sellerID uint) (*dto.SellerProfile, error)
	List(ctx context.Context) ([]*dto.UserProfile, error)
	SetActive(ctx context.Context, id uint, active bool) error
	SetRole(ctx context.Context, id uint, role string) error
}

type userServiceImpl struct {
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	reviewRepo  repository.ReviewRepository
}

func NewUserService(
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	reviewRepo repository.ReviewRepository,
) UserService {
	return &userServiceImpl{
		userRepo:    userRepo,
		productRepo: productRepo,
		reviewRepo:  reviewRepo,
	}
}

func (s *userServiceImpl) Get(ctx context.Context, id uint) (*dto.UserProfile, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	return Profile(user), nil
}

func (s *userServiceImpl) UpdateProfile(ctx context.Context, id uint, req *dto.UpdateProfileRequest) (*dto.UserProfile, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Campus != nil {
		user.Campus = *req.Campus
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	return Profile(user), nil
}

func (s *userServiceImpl) ChangePassword(ctx context.Context, id uint, req *dto.ChangePasswordRequest) error {
	if len(req.NewPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", apperr.ErrInvalidInput)
	}

	user, err := s.findUser(ctx, id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return fmt.Errorf("%w: current password incorrect", apperr.ErrUnauthorized)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	return s.userRepo.Update(ctx, user)
}

func (s *userServiceImpl) SellerProfile(ctx context.Context, sellerID uint) (*dto.SellerProfile, error) {
	user, err := s.findUser(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	productCount, err := s.productRepo.CountBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("count seller products: %w", err)
	}

	avg, count, err := s.reviewRepo.SellerRatingSummary(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("seller rating summary: %w", err)
	}

	return &dto.SellerProfile{
		User:          Profile(user),
		ProductCount:  productCount,
		AverageRating: avg,
		ReviewCount:   count,
	}, nil
}

func (s *userServiceImpl) List(ctx context.Context) ([]*dto.UserProfile, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	profiles := make([]*dto.UserProfile, len(users))
	for i, user := range users {
		profiles[i] = Profile(user)
	}

	return profiles, nil
}

func (s *userServiceImpl) SetActive(ctx context.Context, id uint, active bool) error {
	err := s.userRepo.SetActive(ctx, id, active)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: user %d", apperr.ErrNotFound, id)
	}

	return err
}

func (s *userServiceImpl) SetRole(ctx context.Context, id uint, role string) error {
	r := model.UserRole(role)
	if r != model.RoleUser && r != model.RoleAdmin {
		return fmt.Errorf("%w: unknown role %q", apperr.ErrInvalidInput, role)
	}

	err := s.userRepo.SetRole(ctx, id, r)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: user %d", apperr.ErrNotFound, id)
	}

	return err
}

func (s *userServiceImpl) findUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	return user, nil
}
