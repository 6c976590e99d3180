package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"campus-market-api/internal/apperr"
	"campus-market-api/internal/client"
	"campus-market-api/internal/dto"
	"campus-market-api/internal/model"
	"campus-market-api/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Every gateway round-trip gets a bounded deadline so a stalled
// provider surfaces as GatewayTimeout instead of hanging the handler.
const gatewayCallTimeout = 30 * time.Second

type PaymentService interface {
	Initiate(ctx context.Context, userID uint, req *dto.InitiatePaymentRequest) (*dto.InitiatePaymentResponse, error)
	Verify(ctx context.Context, transactionRef string) (*dto.VerifyPaymentResponse, error)
	HandleCallback(ctx context.Context, provider string, body []byte) (*dto.CallbackResult, error)
	Status(ctx context.Context, transactionRef string) (*dto.PaymentStatusResponse, error)
	Methods() *dto.PaymentMethodsResponse
}

type paymentServiceImpl struct {
	db               *gorm.DB
	gateways         map[string]client.PaymentGateway
	baseURL          string
	paymentRepo      repository.PaymentRepository
	orderRepo        repository.OrderRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
}

func NewPaymentService(
	db *gorm.DB,
	gateways map[string]client.PaymentGateway,
	baseURL string,
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
) PaymentService {
	return &paymentServiceImpl{
		db:               db,
		gateways:         gateways,
		baseURL:          baseURL,
		paymentRepo:      paymentRepo,
		orderRepo:        orderRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
	}
}

// gatewayFor picks the provider serving a payment method. Card-style
// methods route to flutterwave; mpesa is its own STK-push flow.
func (s *paymentServiceImpl) gatewayFor(method string) (client.PaymentGateway, error) {
	var provider string
	switch method {
	case "card", "account", "ussd":
		provider = client.ProviderFlutterwave
	case "mpesa":
		provider = client.ProviderMpesa
	default:
		return nil, fmt.Errorf("%w: unsupported payment method %q", apperr.ErrInvalidInput, method)
	}

	gw, ok := s.gateways[provider]
	if !ok {
		return nil, fmt.Errorf("%w: provider %s not configured", apperr.ErrGatewayUnavailable, provider)
	}

	return gw, nil
}

func (s *paymentServiceImpl) Initiate(ctx context.Context, userID uint, req *dto.InitiatePaymentRequest) (*dto.InitiatePaymentResponse, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", apperr.ErrInvalidInput)
	}

	method := req.Method
	if method == "" {
		method = "card"
	}
	gateway, err := s.gatewayFor(method)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load payer: %w", err)
	}
	if user.Email == "" {
		return nil, fmt.Errorf("%w: payer email missing", apperr.ErrInvalidInput)
	}

	phone := req.Phone
	if phone == "" {
		phone = user.Phone
	}
	if method == "mpesa" && phone == "" {
		return nil, fmt.Errorf("%w: phone number required for mpesa payments", apperr.ErrInvalidInput)
	}

	order, err := s.orderRepo.FindByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", apperr.ErrNotFound, req.OrderID)
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("%w: order belongs to another user", apperr.ErrForbidden)
	}

	reference := "CMP-" + uuid.NewString()
	payment := &model.Payment{
		UserID:        userID,
		OrderID:       order.ID,
		Amount:        req.Amount,
		Status:        model.PaymentPending,
		Reference:     &reference,
		Provider:      gateway.Name(),
		PaymentMethod: method,
		CustomerEmail: user.Email,
		CustomerPhone: phone,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("store payment in db: %w", err)
	}

	chargeCtx, cancel := context.WithTimeout(ctx, gatewayCallTimeout)
	defer cancel()
	result, err := gateway.Charge(chargeCtx, &client.ChargeRequest{
		Reference:   reference,
		Amount:      req.Amount,
		Currency:    "KES",
		Email:       user.Email,
		Phone:       phone,
		Name:        user.Name,
		Description: fmt.Sprintf("Order payment - %d", order.ID),
		CallbackURL: fmt.Sprintf("%s/api/payments/callback/%s", s.baseURL, gateway.Name()),
		RedirectURL: fmt.Sprintf("%s/payment/success?paymentId=%d", s.baseURL, payment.ID),
	})
	if err != nil {
		// Transport failure, not a decline: the payment stays pending
		// and a later verify can still reconcile it.
		return nil, fmt.Errorf("gateway charge: %w", err)
	}

	if !result.Accepted {
		if _, err := s.paymentRepo.MarkFailed(ctx, s.db, payment.ID, result.DeclineReason); err != nil {
			return nil, fmt.Errorf("mark payment failed: %w", err)
		}
		return nil, fmt.Errorf("%w: %s", apperr.ErrChargeDeclined, result.DeclineReason)
	}

	if err := s.paymentRepo.MarkProcessing(ctx, payment.ID, result.TransactionID); err != nil {
		return nil, fmt.Errorf("mark payment processing: %w", err)
	}

	return &dto.InitiatePaymentResponse{
		Message:         "Payment initialized successfully",
		PaymentID:       payment.ID,
		Reference:       reference,
		TransactionID:   result.TransactionID,
		PaymentURL:      result.PaymentURL,
		CustomerMessage: result.CustomerMessage,
		Amount:          req.Amount,
	}, nil
}

func (s *paymentServiceImpl) Verify(ctx context.Context, transactionRef string) (*dto.VerifyPaymentResponse, error) {
	payment, err := s.paymentRepo.FindByTransactionRef(ctx, transactionRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: payment %s", apperr.ErrNotFound, transactionRef)
		}
		return nil, fmt.Errorf("load payment: %w", err)
	}

	// Idempotent fast path: a completed payment is never re-verified
	// and makes no outbound gateway call.
	if payment.Status == model.PaymentCompleted {
		return &dto.VerifyPaymentResponse{
			Message:       "Payment already verified",
			Status:        string(payment.Status),
			TransactionID: deref(payment.TransactionID),
			Reference:     deref(payment.Reference),
			Amount:        payment.Amount,
			PaymentMethod: payment.PaymentMethod,
		}, nil
	}

	gateway, ok := s.gateways[payment.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: provider %s not configured", apperr.ErrGatewayUnavailable, payment.Provider)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, gatewayCallTimeout)
	defer cancel()
	result, err := gateway.Verify(verifyCtx, gatewayTransactionID(payment, transactionRef))
	if err != nil {
		return nil, fmt.Errorf("gateway verify: %w", err)
	}

	if result.Status == client.TxSuccessful {
		if err := s.completePayment(ctx, payment, &repository.CompletedUpdate{
			TransactionID:   result.TransactionID,
			PaymentMethod:   result.PaymentMethod,
			ReceiptNumber:   result.ReceiptNumber,
			TransactionDate: result.PaidAt,
			PayerPhone:      result.PayerPhone,
		}); err != nil {
			return nil, err
		}

		return &dto.VerifyPaymentResponse{
			Message:       "Payment verified successfully",
			Status:        string(model.PaymentCompleted),
			TransactionID: result.TransactionID,
			Reference:     deref(payment.Reference),
			Amount:        payment.Amount,
			Currency:      result.Currency,
			PaymentMethod: result.PaymentMethod,
		}, nil
	}

	reason := fmt.Sprintf("verification reported %s", result.Status)
	if err := s.failPayment(ctx, payment, reason); err != nil {
		return nil, err
	}

	return &dto.VerifyPaymentResponse{
		Message:       "Payment verification failed",
		Status:        string(model.PaymentFailed),
		TransactionID: deref(payment.TransactionID),
		Reference:     deref(payment.Reference),
		Amount:        payment.Amount,
	}, nil
}

func (s *paymentServiceImpl) HandleCallback(ctx context.Context, provider string, body []byte) (*dto.CallbackResult, error) {
	gateway, ok := s.gateways[provider]
	if !ok {
		log.Printf("callback for unknown provider %q ignored", provider)
		return &dto.CallbackResult{Outcome: dto.CallbackInvalid}, nil
	}

	notification, err := gateway.ParseCallback(body)
	if err != nil {
		// Malformed payloads are acknowledged without state change so
		// the provider stops retrying something it will never fix.
		log.Printf("invalid %s callback: %v", provider, err)
		return &dto.CallbackResult{Outcome: dto.CallbackInvalid}, nil
	}

	payment, err := s.findCallbackPayment(ctx, notification)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("%s callback for unknown transaction %q ignored", provider, notification.TransactionID)
			return &dto.CallbackResult{Outcome: dto.CallbackNotFound}, nil
		}
		return nil, fmt.Errorf("load payment: %w", err)
	}

	// Replays of settled payments are skipped before any gateway call.
	if payment.Status.Terminal() {
		return &dto.CallbackResult{
			Outcome: dto.CallbackNoOp,
			Status:  string(payment.Status),
		}, nil
	}

	if notification.Status != client.TxSuccessful {
		if err := s.failPayment(ctx, payment, notification.Description); err != nil {
			return nil, err
		}
		return &dto.CallbackResult{
			Outcome: dto.CallbackApplied,
			Status:  string(model.PaymentFailed),
		}, nil
	}

	// A callback claiming success is corroborated against the gateway
	// before any state advances; forged or tampered callbacks fail here.
	verifyCtx, cancel := context.WithTimeout(ctx, gatewayCallTimeout)
	defer cancel()
	result, err := gateway.Verify(verifyCtx, gatewayTransactionID(payment, notification.TransactionID))
	if err != nil {
		return nil, fmt.Errorf("corroborate callback: %w", err)
	}

	if result.Status != client.TxSuccessful {
		if err := s.failPayment(ctx, payment, "gateway verification did not corroborate callback"); err != nil {
			return nil, err
		}
		return &dto.CallbackResult{
			Outcome: dto.CallbackApplied,
			Status:  string(model.PaymentFailed),
		}, nil
	}

	upd := &repository.CompletedUpdate{
		TransactionID:   result.TransactionID,
		PaymentMethod:   result.PaymentMethod,
		ReceiptNumber:   notification.ReceiptNumber,
		TransactionDate: notification.TransactionDate,
		PayerPhone:      notification.PayerPhone,
	}
	if upd.ReceiptNumber == "" {
		upd.ReceiptNumber = result.ReceiptNumber
	}
	if upd.TransactionDate == "" {
		upd.TransactionDate = result.PaidAt
	}
	if err := s.completePayment(ctx, payment, upd); err != nil {
		return nil, err
	}

	return &dto.CallbackResult{
		Outcome: dto.CallbackApplied,
		Status:  string(model.PaymentCompleted),
	}, nil
}

func (s *paymentServiceImpl) findCallbackPayment(ctx context.Context, n *client.CallbackNotification) (*model.Payment, error) {
	payment, err := s.paymentRepo.FindByTransactionRef(ctx, n.TransactionID)
	if err == nil {
		return payment, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) || n.Reference == "" {
		return nil, err
	}

	return s.paymentRepo.FindByTransactionRef(ctx, n.Reference)
}

// completePayment runs the guarded terminal transition and the linked
// order update in one transaction. A no-op write (replay, or another
// payment already completed for the order) leaves both records alone.
func (s *paymentServiceImpl) completePayment(ctx context.Context, payment *model.Payment, upd *repository.CompletedUpdate) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applied, err := s.paymentRepo.MarkCompleted(ctx, tx, payment, upd)
		if err != nil {
			return fmt.Errorf("mark payment completed: %w", err)
		}
		if !applied {
			return nil
		}

		var order model.Order
		if err := tx.WithContext(ctx).First(&order, payment.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("integrity violation: payment %d references missing order %d", payment.ID, payment.OrderID)
				return fmt.Errorf("%w: payment %d references missing order %d",
					apperr.ErrInconsistentState, payment.ID, payment.OrderID)
			}
			return fmt.Errorf("load order: %w", err)
		}

		// Money moved for an order whose stock was already restored. The
		// payment record still completes, but the order stays cancelled
		// and the conflict is surfaced for a refund.
		if order.PaymentStatus == model.PaymentStatusCancelled {
			log.Printf("payment %d completed after order %d was cancelled; refund required", payment.ID, payment.OrderID)
			return s.notificationRepo.Create(ctx, tx, &model.Notification{
				UserID:  payment.UserID,
				Type:    "payment",
				Title:   "Payment received for cancelled order",
				Message: fmt.Sprintf("Your payment of %.2f for cancelled order #%d was received and will be refunded.", payment.Amount, payment.OrderID),
				Link:    fmt.Sprintf("/orders/%d", payment.OrderID),
			})
		}

		if _, err := s.orderRepo.SetPaymentStatus(ctx, tx, payment.OrderID, model.PaymentStatusPaid); err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}

		return s.notificationRepo.Create(ctx, tx, &model.Notification{
			UserID:  payment.UserID,
			Type:    "payment",
			Title:   "Payment received",
			Message: fmt.Sprintf("Your payment of %.2f for order #%d was received.", payment.Amount, payment.OrderID),
			Link:    fmt.Sprintf("/orders/%d", payment.OrderID),
		})
	})
}

func (s *paymentServiceImpl) failPayment(ctx context.Context, payment *model.Payment, reason string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applied, err := s.paymentRepo.MarkFailed(ctx, tx, payment.ID, reason)
		if err != nil {
			return fmt.Errorf("mark payment failed: %w", err)
		}
		if !applied {
			return nil
		}

		ok, err := s.orderRepo.SetPaymentStatus(ctx, tx, payment.OrderID, model.PaymentStatusFailed)
		if err != nil {
			return fmt.Errorf("mark order payment failed: %w", err)
		}
		if !ok {
			log.Printf("integrity violation: payment %d references missing order %d", payment.ID, payment.OrderID)
			return fmt.Errorf("%w: payment %d references missing order %d",
				apperr.ErrInconsistentState, payment.ID, payment.OrderID)
		}

		return s.notificationRepo.Create(ctx, tx, &model.Notification{
			UserID:  payment.UserID,
			Type:    "payment",
			Title:   "Payment failed",
			Message: fmt.Sprintf("Your payment for order #%d failed: %s", payment.OrderID, reason),
			Link:    fmt.Sprintf("/orders/%d", payment.OrderID),
		})
	})
}

func (s *paymentServiceImpl) Status(ctx context.Context, transactionRef string) (*dto.PaymentStatusResponse, error) {
	payment, err := s.paymentRepo.FindByTransactionRef(ctx, transactionRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: payment %s", apperr.ErrNotFound, transactionRef)
		}
		return nil, fmt.Errorf("load payment: %w", err)
	}

	orderAmount := payment.Amount
	if order, err := s.orderRepo.FindByID(ctx, payment.OrderID); err == nil {
		orderAmount = order.TotalAmount
	} else if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("integrity violation: payment %d references missing order %d", payment.ID, payment.OrderID)
	}

	return &dto.PaymentStatusResponse{
		Status:          string(payment.Status),
		TransactionID:   deref(payment.TransactionID),
		Reference:       deref(payment.Reference),
		Amount:          payment.Amount,
		OrderAmount:     orderAmount,
		FailureReason:   payment.FailureReason,
		ReceiptNumber:   payment.ReceiptNumber,
		TransactionDate: payment.TransactionDate,
	}, nil
}

func (s *paymentServiceImpl) Methods() *dto.PaymentMethodsResponse {
	return &dto.PaymentMethodsResponse{
		Methods:       []string{"card", "account", "ussd", "mpesa"},
		DefaultMethod: "card",
	}
}

// gatewayTransactionID prefers the stored provider handle; a payment
// looked up by internal reference may not match the provider's id.
func gatewayTransactionID(payment *model.Payment, fallback string) string {
	if payment.TransactionID != nil && *payment.TransactionID != "" {
		return *payment.TransactionID
	}
	return fallback
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
