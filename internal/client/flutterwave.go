package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"campus-market-api/internal/apperr"
	"campus-market-api/internal/config"
)

const ProviderFlutterwave = "flutterwave"

type flutterwaveClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	secretKey  string
}

func NewFlutterwaveClient(cfg *config.Flutterwave) PaymentGateway {
	return &flutterwaveClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL: cfg.BaseApiURL,
		secretKey:  cfg.SecretKey,
	}
}

func (c *flutterwaveClientImpl) Name() string {
	return ProviderFlutterwave
}

type flwChargeResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID     int64  `json:"id"`
		TxRef  string `json:"tx_ref"`
		FlwRef string `json:"flw_ref"`
		Link   string `json:"link"`
	} `json:"data"`
}

type flwVerifyResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID            int64   `json:"id"`
		TxRef         string  `json:"tx_ref"`
		FlwRef        string  `json:"flw_ref"`
		Status        string  `json:"status"`
		Amount        float64 `json:"amount"`
		Currency      string  `json:"currency"`
		PaymentMethod string  `json:"payment_method"`
		CreatedAt     string  `json:"created_at"`
		Customer      struct {
			Email       string `json:"email"`
			PhoneNumber string `json:"phone_number"`
		} `json:"customer"`
	} `json:"data"`
}

func (c *flutterwaveClientImpl) Charge(ctx context.Context, chargeReq *ChargeRequest) (*ChargeResult, error) {
	payload := map[string]interface{}{
		"tx_ref":         chargeReq.Reference,
		"amount":         chargeReq.Amount,
		"currency":       chargeReq.Currency,
		"payment_method": "card",
		"redirect_url":   chargeReq.RedirectURL,
		"customer": map[string]string{
			"email":        chargeReq.Email,
			"phone_number": chargeReq.Phone,
			"name":         chargeReq.Name,
		},
		"customizations": map[string]string{
			"title":       "Campus Market Payment",
			"description": chargeReq.Description,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/charges/initialize",
		bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, gatewayErr(ProviderFlutterwave, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &ChargeResult{
			Accepted:      false,
			DeclineReason: fmt.Sprintf("flutterwave error %d: %s", resp.StatusCode, string(b)),
		}, nil
	}

	var result flwChargeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode flutterwave response: %w", err)
	}

	if result.Status != "success" {
		return &ChargeResult{
			Accepted:      false,
			DeclineReason: result.Message,
		}, nil
	}

	return &ChargeResult{
		Accepted:      true,
		TransactionID: result.Data.TxRef,
		PaymentURL:    result.Data.Link,
	}, nil
}

func (c *flutterwaveClientImpl) Verify(ctx context.Context, transactionID string) (*VerifyResult, error) {
	url := fmt.Sprintf("%s/transactions/%s/verify", c.baseApiURL, transactionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, gatewayErr(ProviderFlutterwave, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, gatewayErr(ProviderFlutterwave,
			fmt.Errorf("verify returned %d: %s", resp.StatusCode, string(b)))
	}

	var result flwVerifyResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode flutterwave verify response: %w", err)
	}

	status := TxFailed
	switch {
	case result.Status == "success" && result.Data.Status == "successful":
		status = TxSuccessful
	case result.Data.Status == "pending":
		status = TxPending
	}

	return &VerifyResult{
		Status:        status,
		TransactionID: result.Data.FlwRef,
		PaymentMethod: result.Data.PaymentMethod,
		Amount:        result.Data.Amount,
		Currency:      result.Data.Currency,
		PaidAt:        result.Data.CreatedAt,
		PayerPhone:    result.Data.Customer.PhoneNumber,
	}, nil
}

// flwCallback is the flat notification body Flutterwave posts to the
// callback URL.
type flwCallback struct {
	TransactionID        string `json:"transaction_id"`
	TransactionReference string `json:"transaction_reference"`
	Status               string `json:"status"`
	Message              string `json:"message"`
}

func (c *flutterwaveClientImpl) ParseCallback(body []byte) (*CallbackNotification, error) {
	var cb flwCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidCallback, err)
	}

	if cb.TransactionID == "" || cb.Status == "" {
		return nil, fmt.Errorf("%w: missing transaction_id or status", apperr.ErrInvalidCallback)
	}

	status := TxFailed
	switch cb.Status {
	case "successful":
		status = TxSuccessful
	case "pending":
		status = TxPending
	}

	return &CallbackNotification{
		TransactionID: cb.TransactionID,
		Reference:     cb.TransactionReference,
		Status:        status,
		Description:   cb.Message,
	}, nil
}
