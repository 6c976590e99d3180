package dto

import (
	"time"

	"campus-market-api/internal/model"
)

// ---- auth / users ----

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Campus   string `json:"campus"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *UserProfile `json:"user"`
}

type UserProfile struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Campus   string `json:"campus"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

type UpdateProfileRequest struct {
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
	Campus *string `json:"campus"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type SellerProfile struct {
	User          *UserProfile `json:"user"`
	ProductCount  int64        `json:"product_count"`
	AverageRating float64      `json:"average_rating"`
	ReviewCount   int64        `json:"review_count"`
}

// ---- products ----

type ProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Condition   string  `json:"condition"`
	Stock       int32   `json:"stock"`
	ImageURL    string  `json:"image_url"`
}

type ProductFilter struct {
	Category string  `query:"category"`
	Query    string  `query:"q"`
	MinPrice float64 `query:"min_price"`
	MaxPrice float64 `query:"max_price"`
	Page     int     `query:"page"`
	Limit    int     `query:"limit"`
}

type ProductList struct {
	Products   []*model.Product `json:"products"`
	Pagination Pagination       `json:"pagination"`
}

type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int64 `json:"total_pages"`
	Total       int64 `json:"total"`
}

// ---- orders ----

type OrderItemRequest struct {
	ProductID uint  `json:"product_id"`
	Quantity  int32 `json:"quantity"`
}

type CreateOrderRequest struct {
	Items           []*OrderItemRequest   `json:"items"`
	ShippingAddress model.ShippingAddress `json:"shipping_address"`
	Notes           string                `json:"notes"`
}

type UpdateOrderStatusRequest struct {
	OrderStatus    string  `json:"order_status"`
	Note           string  `json:"note"`
	TrackingNumber *string `json:"tracking_number"`
}

// ---- payments ----

type InitiatePaymentRequest struct {
	OrderID uint    `json:"order_id"`
	Amount  float64 `json:"amount"`
	Method  string  `json:"method"` // card, account, ussd, mpesa
	Phone   string  `json:"phone"`
}

type InitiatePaymentResponse struct {
	Message         string  `json:"message"`
	PaymentID       uint    `json:"payment_id"`
	Reference       string  `json:"reference"`
	TransactionID   string  `json:"transaction_id,omitempty"`
	PaymentURL      string  `json:"payment_url,omitempty"`
	CustomerMessage string  `json:"customer_message,omitempty"`
	Amount          float64 `json:"amount"`
}

type VerifyPaymentResponse struct {
	Message       string  `json:"message"`
	Status        string  `json:"status"`
	TransactionID string  `json:"transaction_id,omitempty"`
	Reference     string  `json:"reference,omitempty"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency,omitempty"`
	PaymentMethod string  `json:"payment_method,omitempty"`
}

// Callback outcomes reported back to the HTTP layer. The provider
// always receives a 200 so it stops retrying payloads we can never fix.
const (
	CallbackApplied  = "applied"
	CallbackNoOp     = "no_op"
	CallbackInvalid  = "invalid"
	CallbackNotFound = "not_found"
)

type CallbackResult struct {
	Outcome string `json:"outcome"`
	Status  string `json:"status,omitempty"`
}

type PaymentStatusResponse struct {
	Status          string  `json:"status"`
	TransactionID   string  `json:"transaction_id,omitempty"`
	Reference       string  `json:"reference,omitempty"`
	Amount          float64 `json:"amount"`
	OrderAmount     float64 `json:"order_amount"`
	FailureReason   string  `json:"failure_reason,omitempty"`
	ReceiptNumber   string  `json:"receipt_number,omitempty"`
	TransactionDate string  `json:"transaction_date,omitempty"`
}

type PaymentMethodsResponse struct {
	Methods       []string `json:"methods"`
	DefaultMethod string   `json:"default_method"`
}

// ---- cart ----

type CartItem struct {
	ProductID uint  `json:"product_id"`
	Quantity  int32 `json:"quantity"`
}

type SaveCartRequest struct {
	Cart []*CartItem `json:"cart"`
}

type MergeCartRequest struct {
	LocalCart []*CartItem `json:"local_cart"`
}

type CartResponse struct {
	Cart []*CartItem `json:"cart"`
}

// ---- reviews ----

type ReviewRequest struct {
	ProductID uint   `json:"product_id"`
	Rating    int32  `json:"rating"`
	Comment   string `json:"comment"`
}

type ProductReviews struct {
	Reviews       []*model.Review `json:"reviews"`
	AverageRating float64         `json:"average_rating"`
	ReviewCount   int64           `json:"review_count"`
}

// ---- messaging ----

type StartConversationRequest struct {
	RecipientID uint   `json:"recipient_id"`
	ProductID   *uint  `json:"product_id"`
	Body        string `json:"body"`
}

type SendMessageRequest struct {
	Body string `json:"body"`
}

type UnreadCount struct {
	Unread int64 `json:"unread"`
}

// ---- notifications ----

type NotificationList struct {
	Notifications []*model.Notification `json:"notifications"`
	Pagination    Pagination            `json:"pagination"`
	UnreadCount   int64                 `json:"unread_count"`
}

// ---- events ----

type OrderEvent struct {
	Type      string    `json:"type"` // order.created, order.cancelled, order.status_changed
	OrderID   uint      `json:"order_id"`
	UserID    uint      `json:"user_id"`
	Total     float64   `json:"total"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
