package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"campus-market-api/internal/apperr"
	"campus-market-api/internal/dto"
	"campus-market-api/internal/events"
	"campus-market-api/internal/model"
	"campus-market-api/internal/repository"

	"gorm.io/gorm"
)

type OrderService interface {
	Create(ctx context.Context, userID uint, req *dto.CreateOrderRequest) (*model.Order, error)
	GetByID(ctx context.Context, userID uint, isAdmin bool, orderID uint) (*model.Order, error)
	ListByUser(ctx context.Context, userID uint) ([]*model.Order, error)
	ListAll(ctx context.Context) ([]*model.Order, error)
	UpdateStatus(ctx context.Context, adminID uint, orderID uint, req *dto.UpdateOrderStatusRequest) (*model.Order, error)
	Cancel(ctx context.Context, userID uint, orderID uint) error
}

type orderServiceImpl struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	balanceRepo repository.SellerBalanceRepository
	publisher   events.Publisher
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	balanceRepo repository.SellerBalanceRepository,
	publisher events.Publisher,
) OrderService {
	return &orderServiceImpl{
		db:          db,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		balanceRepo: balanceRepo,
		publisher:   publisher,
	}
}

func (s *orderServiceImpl) Create(ctx context.Context, userID uint, req *dto.CreateOrderRequest) (*model.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain items", apperr.ErrInvalidInput)
	}
	if req.ShippingAddress.Street == "" || req.ShippingAddress.City == "" {
		return nil, fmt.Errorf("%w: shipping address incomplete", apperr.ErrInvalidInput)
	}

	productIDs := make([]uint, len(req.Items))
	quantityByProduct := make(map[uint]int32)
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item quantity must be positive", apperr.ErrInvalidInput)
		}
		productIDs[i] = item.ProductID
		quantityByProduct[item.ProductID] += item.Quantity
	}

	products, err := s.productRepo.FindMany(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	if len(products) != len(quantityByProduct) {
		return nil, fmt.Errorf("%w: some products not found", apperr.ErrNotFound)
	}

	order := &model.Order{
		UserID:          userID,
		ShippingAddress: req.ShippingAddress,
		PaymentStatus:   model.PaymentStatusPending,
		OrderStatus:     model.OrderStatusPending,
		Notes:           req.Notes,
	}
	// Prices are read server-side at purchase time; the client total is
	// never trusted.
	for _, product := range products {
		quantity := quantityByProduct[product.ID]
		order.TotalAmount += product.Price * float64(quantity)
		order.Items = append(order.Items, model.OrderItem{
			ProductID:       product.ID,
			Quantity:        quantity,
			PriceAtPurchase: product.Price,
		})
	}

	// Order insert, stock decrements and seller-balance credit commit
	// or roll back together; a crash can't leave stock half-adjusted.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order in db: %w", err)
		}

		if err := s.orderRepo.SetOrderStatus(ctx, tx, order.ID, model.OrderStatusPending, "order placed", userID); err != nil {
			return fmt.Errorf("record order status: %w", err)
		}

		for _, product := range products {
			quantity := quantityByProduct[product.ID]

			ok, err := s.productRepo.AdjustStock(ctx, tx, product.ID, -quantity)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if !ok {
				return fmt.Errorf("%w: insufficient stock for product %d", apperr.ErrConflict, product.ID)
			}

			earned := product.Price * float64(quantity)
			if err := s.balanceRepo.AddEarnings(ctx, tx, product.SellerID, earned, int64(quantity)); err != nil {
				return fmt.Errorf("update seller balance: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(&dto.OrderEvent{
		Type:      events.EventOrderCreated,
		OrderID:   order.ID,
		UserID:    userID,
		Total:     order.TotalAmount,
		Status:    string(order.OrderStatus),
		Timestamp: time.Now(),
	})

	return s.orderRepo.FindByID(ctx, order.ID)
}

func (s *orderServiceImpl) GetByID(ctx context.Context, userID uint, isAdmin bool, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", apperr.ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("load order: %w", err)
	}

	if order.UserID != userID && !isAdmin {
		return nil, fmt.Errorf("%w: order belongs to another user", apperr.ErrForbidden)
	}

	return order, nil
}

func (s *orderServiceImpl) ListByUser(ctx context.Context, userID uint) ([]*model.Order, error) {
	return s.orderRepo.FindByUser(ctx, userID)
}

func (s *orderServiceImpl) ListAll(ctx context.Context) ([]*model.Order, error) {
	return s.orderRepo.FindAll(ctx)
}

func (s *orderServiceImpl) UpdateStatus(ctx context.Context, adminID uint, orderID uint, req *dto.UpdateOrderStatusRequest) (*model.Order, error) {
	status := model.OrderStatus(req.OrderStatus)
	switch status {
	case model.OrderStatusPending, model.OrderStatusProcessing, model.OrderStatusShipped,
		model.OrderStatusDelivered, model.OrderStatusCancelled:
	default:
		return nil, fmt.Errorf("%w: unknown order status %q", apperr.ErrInvalidInput, req.OrderStatus)
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", apperr.ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("load order: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.SetOrderStatus(ctx, tx, orderID, status, req.Note, adminID); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if req.TrackingNumber != nil {
			if err := s.orderRepo.SetTracking(ctx, tx, orderID, req.TrackingNumber); err != nil {
				return fmt.Errorf("update tracking number: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(&dto.OrderEvent{
		Type:      events.EventOrderStatusChanged,
		OrderID:   orderID,
		UserID:    order.UserID,
		Total:     order.TotalAmount,
		Status:    string(status),
		Timestamp: time.Now(),
	})

	return s.orderRepo.FindByID(ctx, orderID)
}

func (s *orderServiceImpl) Cancel(ctx context.Context, userID uint, orderID uint) error {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: order %d", apperr.ErrNotFound, orderID)
		}
		return fmt.Errorf("load order: %w", err)
	}

	if order.UserID != userID {
		return fmt.Errorf("%w: order belongs to another user", apperr.ErrForbidden)
	}
	if order.OrderStatus == model.OrderStatusCancelled {
		return fmt.Errorf("%w: order already cancelled", apperr.ErrConflict)
	}
	if order.OrderStatus == model.OrderStatusShipped || order.OrderStatus == model.OrderStatusDelivered {
		return fmt.Errorf("%w: order already %s", apperr.ErrConflict, order.OrderStatus)
	}

	// Cancellation restores every line item's stock in the same
	// transaction that flips the status.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			if _, err := s.productRepo.AdjustStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("restore stock: %w", err)
			}
		}

		if err := s.orderRepo.SetOrderStatus(ctx, tx, orderID, model.OrderStatusCancelled, "cancelled by buyer", userID); err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}

		// An unpaid order's payment is cancelled with it; paid orders
		// keep their payment record for the refund path.
		if order.PaymentStatus == model.PaymentStatusPending {
			if _, err := s.orderRepo.SetPaymentStatus(ctx, tx, orderID, model.PaymentStatusCancelled); err != nil {
				return fmt.Errorf("cancel order payment: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.publish(&dto.OrderEvent{
		Type:      events.EventOrderCancelled,
		OrderID:   orderID,
		UserID:    userID,
		Total:     order.TotalAmount,
		Status:    string(model.OrderStatusCancelled),
		Timestamp: time.Now(),
	})

	return nil
}

func (s *orderServiceImpl) publish(event *dto.OrderEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderEvent(event); err != nil {
		log.Printf("publish %s event for order %d: %v", event.Type, event.OrderID, err)
	}
}
