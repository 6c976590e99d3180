package service

import (
	"context"
	"testing"

	"campus-market-api/internal/apperr"
	"campus-market-api/internal/client"
	"campus-market-api/internal/dto"
	"campus-market-api/internal/model"
	"campus-market-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeGateway struct {
	name         string
	chargeResult *client.ChargeResult
	chargeErr    error
	verifyResult *client.VerifyResult
	verifyErr    error
	notification *client.CallbackNotification
	parseErr     error

	chargeCalls int
	verifyCalls int
}

func (g *fakeGateway) Name() string { return g.name }

func (g *fakeGateway) Charge(ctx context.Context, req *client.ChargeRequest) (*client.ChargeResult, error) {
	g.chargeCalls++
	return g.chargeResult, g.chargeErr
}

func (g *fakeGateway) Verify(ctx context.Context, transactionID string) (*client.VerifyResult, error) {
	g.verifyCalls++
	return g.verifyResult, g.verifyErr
}

func (g *fakeGateway) ParseCallback(body []byte) (*client.CallbackNotification, error) {
	if g.parseErr != nil {
		return nil, g.parseErr
	}
	return g.notification, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, client.Migrate(db))

	return db
}

type paymentEnv struct {
	db       *gorm.DB
	svc      PaymentService
	flw      *fakeGateway
	payments repository.PaymentRepository
	user     *model.User
	order    *model.Order
}

func newPaymentEnv(t *testing.T) *paymentEnv {
	t.Helper()

	db := newTestDB(t)

	user := &model.User{
		Username:     "wanjiku",
		Email:        "wanjiku@students.example.ac.ke",
		PasswordHash: "x",
		Name:         "Wanjiku",
		Phone:        "254711000111",
		Role:         model.RoleUser,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)

	order := &model.Order{
		UserID:      user.ID,
		TotalAmount: 1500,
		ShippingAddress: model.ShippingAddress{
			Street: "Hostel B", City: "Nairobi",
		},
		PaymentStatus: model.PaymentStatusPending,
		OrderStatus:   model.OrderStatusPending,
	}
	require.NoError(t, db.Create(order).Error)

	flw := &fakeGateway{
		name: client.ProviderFlutterwave,
		chargeResult: &client.ChargeResult{
			Accepted:      true,
			TransactionID: "FLW-TX-1",
			PaymentURL:    "https://checkout.example/FLW-TX-1",
		},
		verifyResult: &client.VerifyResult{
			Status:        client.TxSuccessful,
			TransactionID: "FLW-TX-1",
			PaymentMethod: "card",
			Amount:        1500,
			Currency:      "KES",
			PaidAt:        "2025-03-01T10:00:00Z",
		},
	}

	gateways := map[string]client.PaymentGateway{client.ProviderFlutterwave: flw}
	paymentRepo := repository.NewPaymentRepository(db)
	svc := NewPaymentService(
		db, gateways, "http://localhost:8080",
		paymentRepo,
		repository.NewOrderRepository(db),
		repository.NewUserRepository(db),
		repository.NewNotificationRepository(db),
	)

	return &paymentEnv{
		db:       db,
		svc:      svc,
		flw:      flw,
		payments: paymentRepo,
		user:     user,
		order:    order,
	}
}

func (e *paymentEnv) initiate(t *testing.T) *dto.InitiatePaymentResponse {
	t.Helper()

	resp, err := e.svc.Initiate(context.Background(), e.user.ID, &dto.InitiatePaymentRequest{
		OrderID: e.order.ID,
		Amount:  e.order.TotalAmount,
		Method:  "card",
	})
	require.NoError(t, err)

	return resp
}

func (e *paymentEnv) paymentByID(t *testing.T, id uint) *model.Payment {
	t.Helper()

	payment, err := e.payments.FindByID(context.Background(), id)
	require.NoError(t, err)

	return payment
}

func (e *paymentEnv) orderPaymentStatus(t *testing.T) model.PaymentStatus {
	t.Helper()

	var order model.Order
	require.NoError(t, e.db.First(&order, e.order.ID).Error)

	return order.PaymentStatus
}

func TestInitiateRejectsNonPositiveAmount(t *testing.T) {
	env := newPaymentEnv(t)

	_, err := env.svc.Initiate(context.Background(), env.user.ID, &dto.InitiatePaymentRequest{
		OrderID: env.order.ID,
		Amount:  0,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	var count int64
	require.NoError(t, env.db.Model(&model.Payment{}).Count(&count).Error)
	assert.Zero(t, count, "no payment record for a rejected initiation")
	assert.Zero(t, env.flw.chargeCalls)
}

func TestInitiateAcceptedMovesToProcessing(t *testing.T) {
	env := newPaymentEnv(t)

	resp := env.initiate(t)
	assert.Equal(t, "FLW-TX-1", resp.TransactionID)
	assert.NotEmpty(t, resp.Reference)
	assert.Equal(t, "https://checkout.example/FLW-TX-1", resp.PaymentURL)

	payment := env.paymentByID(t, resp.PaymentID)
	assert.Equal(t, model.PaymentProcessing, payment.Status)
	require.NotNil(t, payment.TransactionID)
	assert.Equal(t, "FLW-TX-1", *payment.TransactionID)
}

func TestInitiateDeclineMarksFailed(t *testing.T) {
	env := newPaymentEnv(t)
	env.flw.chargeResult = &client.ChargeResult{
		Accepted:      false,
		DeclineReason: "card declined",
	}

	_, err := env.svc.Initiate(context.Background(), env.user.ID, &dto.InitiatePaymentRequest{
		OrderID: env.order.ID,
		Amount:  1500,
		Method:  "card",
	})
	assert.ErrorIs(t, err, apperr.ErrChargeDeclined)

	var payment model.Payment
	require.NoError(t, env.db.First(&payment).Error)
	assert.Equal(t, model.PaymentFailed, payment.Status)
	assert.Equal(t, "card declined", payment.FailureReason)
}

func TestInitiateTransportErrorLeavesPending(t *testing.T) {
	env := newPaymentEnv(t)
	env.flw.chargeResult = nil
	env.flw.chargeErr = apperr.ErrGatewayTimeout

	_, err := env.svc.Initiate(context.Background(), env.user.ID, &dto.InitiatePaymentRequest{
		OrderID: env.order.ID,
		Amount:  1500,
		Method:  "card",
	})
	assert.ErrorIs(t, err, apperr.ErrGatewayTimeout)

	// The row stays pending so a later verify can still reconcile it.
	var payment model.Payment
	require.NoError(t, env.db.First(&payment).Error)
	assert.Equal(t, model.PaymentPending, payment.Status)
}

func TestInitiateRejectsForeignOrder(t *testing.T) {
	env := newPaymentEnv(t)

	other := &model.User{
		Username: "otieno", Email: "otieno@students.example.ac.ke",
		PasswordHash: "x", Role: model.RoleUser, IsActive: true,
	}
	require.NoError(t, env.db.Create(other).Error)

	_, err := env.svc.Initiate(context.Background(), other.ID, &dto.InitiatePaymentRequest{
		OrderID: env.order.ID,
		Amount:  1500,
		Method:  "card",
	})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestInitiateUnknownMethodRejected(t *testing.T) {
	env := newPaymentEnv(t)

	_, err := env.svc.Initiate(context.Background(), env.user.ID, &dto.InitiatePaymentRequest{
		OrderID: env.order.ID,
		Amount:  1500,
		Method:  "cheque",
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestVerifyCompletesPaymentAndOrder(t *testing.T) {
	env := newPaymentEnv(t)
	resp := env.initiate(t)

	verified, err := env.svc.Verify(context.Background(), resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, string(model.PaymentCompleted), verified.Status)
	assert.Equal(t, 1, env.flw.verifyCalls)

	payment := env.paymentByID(t, resp.PaymentID)
	assert.Equal(t, model.PaymentCompleted, payment.Status)
	assert.Equal(t, model.PaymentStatusPaid, env.orderPaymentStatus(t))

	var notifications int64
	require.NoError(t, env.db.Model(&model.Notification{}).
		Where("user_id = ? AND type = ?", env.user.ID, "payment").
		Count(&notifications).Error)
	assert.EqualValues(t, 1, notifications)
}

func TestVerifyByInternalReference(t *testing.T) {
	env := newPaymentEnv(t)
	resp := env.initiate(t)

	verified, err := env.svc.Verify(context.Background(), resp.Reference)
	require.NoError(t, err)
	assert.Equal(t, string(model.PaymentCompleted), verified.Status)
}

func TestVerifyCompletedMakesNoGatewayCall(t *testing.T) {
	env := newPaymentEnv(t)
	resp := env.initiate(t)

	_, err := env.svc.Verify(context.Background(), resp.TransactionID)
	require.NoError(t, err)
	require.Equal(t, 1, env.flw.verifyCalls)

	again, err := env.svc.Verify(context.Background(), resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, string(model.PaymentCompleted), again.Status)
	assert.Equal(t, 1, env.flw.verifyCalls, "completed payments are never re-verified")
}

func TestVerifyFailureMarksFailed(t *testing.T) {
	env := newPaymentEnv(t)
	resp := env.initiate(t)

	env.flw.verifyResult = &client.VerifyResult{Status: client.TxFailed}

	verified, err := env.svc.Verify(context.Background(), resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, string(model.PaymentFailed), verified.Status)

	payment := env.paymentByID(t, resp.PaymentID)
	assert.Equal(t, model.PaymentFailed, payment.Status)
	assert.Equal(t, model.PaymentStatusFailed, env.orderPaymentStatus(t))
}

func TestVerifyUnknownReference(t *testing.T) {
	env := newPaymentEnv(t)

	_, err := env.svc.Verify(context.Background(), "no-such-ref")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCallbackSuccessIsCorroboratedThenApplied(t *testing.T) {
	env := newPaymentEnv(t)
	resp := env.initiate(t)

	env.flw.notification = &client.CallbackNotification{
		TransactionID: resp.TransactionID,
		Status:        client.TxSuccessful,
	}

	result, err := env.svc.HandleCallback(context.Background(), client.ProviderFlutterwave, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, dto.CallbackApplied, result.Outcome)
	assert.Equal(t, string(model.PaymentCompleted), result.Status)
	assert.Equal(t, 1, env.flw.verifyCalls, "success callbacks require one corroborating verify")

	payment := env.paymentByID(t, resp.PaymentID)
	assert.Equal(t, model.PaymentCompleted, payment.Status)
	assert.Equal(t, model.PaymentStatusPaid, env.orderPaymentStatus(t))
}

func TestCallbackReplayIsNoOp(t *testing.T) {
	env := newPaymentEnv(t)
	resp := env.initiate(t)

	env.flw.notification = &client.CallbackNotification{
		TransactionID: resp.TransactionID,
		Status:        client.TxSuccessful,
	}

	first, err := env.svc.HandleCallback(context.Background(), client.ProviderFlutterwave, []byte(`{}`))
	require.NoError(t, err)
	require.Equal(t, dto.CallbackApplied, first.Outcome)

	second, err := env.svc.HandleCallback(context.Background(), client.ProviderFlutterwave, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, dto.CallbackNoOp, second.Outcome)
	assert.Equal(t, string(model.PaymentCompleted), second.Status)
	assert.Equal(t, 1, env.flw.verifyCalls, "replays skip the gateway entirely")

	var notifications int64
	require.NoError(t, env.db.Model(&model.Notification{}).
		Where("type = ?", "payment").Count(&notifications).Error)
	assert.EqualValues(t, 1, notifications, "no duplicate side effects on replay")
}

func TestCallbackMalformedPayloadIsAcknowledged(t *testing.T) {
	env := newPaymentEnv(t)
	resp := env.initiate(t)

	env.flw.parseErr = apperr.ErrInvalidCallback

	result, err := env.svc.HandleCallback(context.Background(), client.ProviderFlutterwave, []byte(`not json`))
	require.NoError(t, err, "invalid payloads are ACKed, not retried")
	assert.Equal(t, dto.CallbackInvalid, result.Outcome)

	payment := env.paymentByID(t, resp.PaymentID)
	assert.Equal(t, model.PaymentProcessing, payment.Status, "no state change for a malformed callback")
}

func TestCallbackUnknownTransaction(t *testing.T) {
	env := newPaymentEnv(t)
	env.initiate(t)

	env.flw.notification = &client.CallbackNotification{
		TransactionID: "never-issued",
		Status:        client.TxSuccessful,
	}

	result, err := env.svc.HandleCallback(context.Background(), client.ProviderFlutterwave, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, dto.CallbackNotFound, result.Outcome)
	assert.Zero(t, env.flw.verifyCalls)
}

func TestCallbackUnknownProvider(t *testing.T) {
	env := newPaymentEnv(t)

	result, err := env.svc.HandleCallback(context.Background(), "paypal", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, dto.CallbackInvalid, result.Outcome)
}

func TestCallbackFailureAppliedWithoutVerify(t *testing.T) {
	env := newPaymentEnv(t)
	resp := env.initiate(t)

	env.flw.notification = &client.CallbackNotification{
		TransactionID: resp.TransactionID,
		Status:        client.TxFailed,
		Description:   "insufficient funds",
	}

	result, err := env.svc.HandleCallback(context.Background(), client.ProviderFlutterwave, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, dto.CallbackApplied, result.Outcome)
	assert.Equal(t, string(model.PaymentFailed), result.Status)
	assert.Zero(t, env.flw.verifyCalls, "failure callbacks need no corroboration")

	payment := env.paymentByID(t, resp.PaymentID)
	assert.Equal(t, model.PaymentFailed, payment.Status)
	assert.Equal(t, "insufficient funds", payment.FailureReason)
}

func TestCallbackSuccessNotCorroboratedFails(t *testing.T) {
	env := newPaymentEnv(t)
	resp := env.initiate(t)

	env.flw.notification = &client.CallbackNotification{
		TransactionID: resp.TransactionID,
		Status:        client.TxSuccessful,
	}
	env.flw.verifyResult = &client.VerifyResult{Status: client.TxFailed}

	result, err := env.svc.HandleCallback(context.Background(), client.ProviderFlutterwave, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, dto.CallbackApplied, result.Outcome)
	assert.Equal(t, string(model.PaymentFailed), result.Status)

	payment := env.paymentByID(t, resp.PaymentID)
	assert.Equal(t, model.PaymentFailed, payment.Status)
}

func TestCallbackMergesReceiptMetadata(t *testing.T) {
	env := newPaymentEnv(t)
	resp := env.initiate(t)

	env.flw.notification = &client.CallbackNotification{
		TransactionID:   resp.TransactionID,
		Status:          client.TxSuccessful,
		ReceiptNumber:   "RCT123",
		TransactionDate: "20250301100000",
		PayerPhone:      "254711000111",
	}

	_, err := env.svc.HandleCallback(context.Background(), client.ProviderFlutterwave, []byte(`{}`))
	require.NoError(t, err)

	payment := env.paymentByID(t, resp.PaymentID)
	assert.Equal(t, "RCT123", payment.ReceiptNumber)
	assert.Equal(t, "20250301100000", payment.TransactionDate)
}

func TestOnlyOnePaymentCompletesPerOrder(t *testing.T) {
	env := newPaymentEnv(t)

	first := env.initiate(t)

	env.flw.chargeResult = &client.ChargeResult{
		Accepted:      true,
		TransactionID: "FLW-TX-2",
	}
	second := env.initiate(t)
	require.NotEqual(t, first.PaymentID, second.PaymentID)

	_, err := env.svc.Verify(context.Background(), first.TransactionID)
	require.NoError(t, err)

	env.flw.verifyResult = &client.VerifyResult{
		Status:        client.TxSuccessful,
		TransactionID: "FLW-TX-2",
		PaymentMethod: "card",
	}
	_, err = env.svc.Verify(context.Background(), second.TransactionID)
	require.NoError(t, err)

	var completed int64
	require.NoError(t, env.db.Model(&model.Payment{}).
		Where("order_id = ? AND status = ?", env.order.ID, model.PaymentCompleted).
		Count(&completed).Error)
	assert.EqualValues(t, 1, completed, "an order never carries two completed payments")

	payment := env.paymentByID(t, second.PaymentID)
	assert.Equal(t, model.PaymentProcessing, payment.Status)
}

func TestStatusReportsStoredState(t *testing.T) {
	env := newPaymentEnv(t)
	resp := env.initiate(t)

	status, err := env.svc.Status(context.Background(), resp.Reference)
	require.NoError(t, err)
	assert.Equal(t, string(model.PaymentProcessing), status.Status)
	assert.Equal(t, env.order.TotalAmount, status.OrderAmount)
	assert.Zero(t, env.flw.verifyCalls, "status lookups never hit the gateway")
}

// A second attempt's failure callback finds the order already marked
// failed by the first attempt; the same-value order write must not be
// mistaken for a missing order.
func TestFailureCallbackAfterEarlierFailedPayment(t *testing.T) {
	env := newPaymentEnv(t)

	first := env.initiate(t)
	env.flw.notification = &client.CallbackNotification{
		TransactionID: first.TransactionID,
		Status:        client.TxFailed,
		Description:   "insufficient funds",
	}
	result, err := env.svc.HandleCallback(context.Background(), client.ProviderFlutterwave, []byte(`{}`))
	require.NoError(t, err)
	require.Equal(t, dto.CallbackApplied, result.Outcome)
	require.Equal(t, model.PaymentStatusFailed, env.orderPaymentStatus(t))

	env.flw.chargeResult = &client.ChargeResult{
		Accepted:      true,
		TransactionID: "FLW-TX-2",
	}
	second := env.initiate(t)

	env.flw.notification = &client.CallbackNotification{
		TransactionID: "FLW-TX-2",
		Status:        client.TxFailed,
		Description:   "card declined",
	}
	result, err = env.svc.HandleCallback(context.Background(), client.ProviderFlutterwave, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, dto.CallbackApplied, result.Outcome)
	assert.Equal(t, string(model.PaymentFailed), result.Status)

	payment := env.paymentByID(t, second.PaymentID)
	assert.Equal(t, model.PaymentFailed, payment.Status)
	assert.Equal(t, "card declined", payment.FailureReason)
	assert.Equal(t, model.PaymentStatusFailed, env.orderPaymentStatus(t))
}

func TestCallbackSuccessAfterOrderCancelled(t *testing.T) {
	env := newPaymentEnv(t)
	resp := env.initiate(t)

	require.NoError(t, env.db.Model(&model.Order{}).
		Where("id = ?", env.order.ID).
		Updates(map[string]interface{}{
			"order_status":   model.OrderStatusCancelled,
			"payment_status": model.PaymentStatusCancelled,
		}).Error)

	env.flw.notification = &client.CallbackNotification{
		TransactionID: resp.TransactionID,
		Status:        client.TxSuccessful,
	}
	result, err := env.svc.HandleCallback(context.Background(), client.ProviderFlutterwave, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, dto.CallbackApplied, result.Outcome)
	assert.Equal(t, string(model.PaymentCompleted), result.Status)

	payment := env.paymentByID(t, resp.PaymentID)
	assert.Equal(t, model.PaymentCompleted, payment.Status)
	assert.Equal(t, model.PaymentStatusCancelled, env.orderPaymentStatus(t),
		"a cancelled order is never flipped to paid")

	var refundNotices int64
	require.NoError(t, env.db.Model(&model.Notification{}).
		Where("user_id = ? AND title = ?", env.user.ID, "Payment received for cancelled order").
		Count(&refundNotices).Error)
	assert.EqualValues(t, 1, refundNotices)
}
