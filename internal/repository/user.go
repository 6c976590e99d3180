package repository

import (
	"context"

	"campus-market-api/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	Update(ctx context.Context, user *model.User) error
	List(ctx context.Context) ([]*model.User, error)
	SetActive(ctx context.Context, id uint, active bool) error
	SetRole(ctx context.Context, id uint, role model.UserRole) error
}

type userRepoImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepoImpl{db: db}
}

func (r *userRepoImpl) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepoImpl) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepoImpl) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepoImpl) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&count).Error

	return count > 0, err
}

func (r *userRepoImpl) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepoImpl) List(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userRepoImpl) SetActive(ctx context.Context, id uint, active bool) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *userRepoImpl) SetRole(ctx context.Context, id uint, role model.UserRole) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

type SellerBalanceRepository interface {
	AddEarnings(ctx context.Context, tx *gorm.DB, sellerID uint, amount float64, orders int64) error
	Get(ctx context.Context, sellerID uint) (*model.SellerBalance, error)
}

type sellerBalanceRepoImpl struct {
	db *gorm.DB
}

func NewSellerBalanceRepository(db *gorm.DB) SellerBalanceRepository {
	return &sellerBalanceRepoImpl{db: db}
}

func (r *sellerBalanceRepoImpl) AddEarnings(ctx context.Context, tx *gorm.DB, sellerID uint, amount float64, orders int64) error {
	balance := &model.SellerBalance{
		SellerID:       sellerID,
		TotalEarnings:  amount,
		TotalOrders:    orders,
		CurrentBalance: amount,
	}

	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "seller_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_earnings":  gorm.Expr("seller_balances.total_earnings + ?", amount),
			"total_orders":    gorm.Expr("seller_balances.total_orders + ?", orders),
			"current_balance": gorm.Expr("seller_balances.current_balance + ?", amount),
		}),
	}).Create(balance).Error
}

func (r *sellerBalanceRepoImpl) Get(ctx context.Context, sellerID uint) (*model.SellerBalance, error) {
	var balance model.SellerBalance
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		First(&balance).Error
	if err != nil {
		return nil, err
	}

	return &balance, nil
}
