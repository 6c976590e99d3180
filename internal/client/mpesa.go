package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"campus-market-api/internal/apperr"
	"campus-market-api/internal/config"
)

const ProviderMpesa = "mpesa"

type mpesaClientImpl struct {
	httpClient     *http.Client
	baseApiURL     string
	consumerKey    string
	consumerSecret string
	shortCode      string
	passkey        string
}

func NewMpesaClient(cfg *config.Mpesa) PaymentGateway {
	return &mpesaClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:     cfg.BaseApiURL,
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		shortCode:      cfg.ShortCode,
		passkey:        cfg.Passkey,
	}
}

func (c *mpesaClientImpl) Name() string {
	return ProviderMpesa
}

func (c *mpesaClientImpl) getAccessToken(ctx context.Context) (string, error) {
	auth := base64.StdEncoding.EncodeToString(
		[]byte(c.consumerKey + ":" + c.consumerSecret),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseApiURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+auth)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", gatewayErr(ProviderMpesa, err)
	}
	defer resp.Body.Close()

	var res struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if res.AccessToken == "" {
		return "", gatewayErr(ProviderMpesa, fmt.Errorf("empty access token, status %d", resp.StatusCode))
	}

	return res.AccessToken, nil
}

// stkPassword derives the Lipa Na M-Pesa password for a request
// timestamp: base64(shortcode + passkey + timestamp).
func (c *mpesaClientImpl) stkPassword(timestamp string) string {
	return base64.StdEncoding.EncodeToString(
		[]byte(c.shortCode + c.passkey + timestamp),
	)
}

func (c *mpesaClientImpl) Charge(ctx context.Context, chargeReq *ChargeRequest) (*ChargeResult, error) {
	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get mpesa access token: %w", err)
	}

	timestamp := time.Now().Format("20060102150405")
	payload := map[string]interface{}{
		"BusinessShortCode": c.shortCode,
		"Password":          c.stkPassword(timestamp),
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            int64(chargeReq.Amount),
		"PartyA":            chargeReq.Phone,
		"PartyB":            c.shortCode,
		"PhoneNumber":       chargeReq.Phone,
		"CallBackURL":       chargeReq.CallbackURL,
		"AccountReference":  chargeReq.Reference,
		"TransactionDesc":   chargeReq.Description,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/mpesa/stkpush/v1/processrequest",
		bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, gatewayErr(ProviderMpesa, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &ChargeResult{
			Accepted:      false,
			DeclineReason: fmt.Sprintf("mpesa error %d: %s", resp.StatusCode, string(b)),
		}, nil
	}

	var result struct {
		MerchantRequestID   string `json:"MerchantRequestID"`
		CheckoutRequestID   string `json:"CheckoutRequestID"`
		ResponseCode        string `json:"ResponseCode"`
		ResponseDescription string `json:"ResponseDescription"`
		CustomerMessage     string `json:"CustomerMessage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode stk push response: %w", err)
	}

	if result.ResponseCode != "0" {
		return &ChargeResult{
			Accepted:      false,
			DeclineReason: result.ResponseDescription,
		}, nil
	}

	return &ChargeResult{
		Accepted:        true,
		TransactionID:   result.CheckoutRequestID,
		CustomerMessage: result.CustomerMessage,
	}, nil
}

func (c *mpesaClientImpl) Verify(ctx context.Context, transactionID string) (*VerifyResult, error) {
	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get mpesa access token: %w", err)
	}

	timestamp := time.Now().Format("20060102150405")
	payload := map[string]string{
		"BusinessShortCode": c.shortCode,
		"Password":          c.stkPassword(timestamp),
		"Timestamp":         timestamp,
		"CheckoutRequestID": transactionID,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/mpesa/stkpushquery/v1/query",
		bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, gatewayErr(ProviderMpesa, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, gatewayErr(ProviderMpesa,
			fmt.Errorf("stk query returned %d: %s", resp.StatusCode, string(b)))
	}

	var result struct {
		ResponseCode      string `json:"ResponseCode"`
		ResultCode        string `json:"ResultCode"`
		ResultDesc        string `json:"ResultDesc"`
		CheckoutRequestID string `json:"CheckoutRequestID"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode stk query response: %w", err)
	}

	// ResultCode 0 means the payer confirmed; 1032 is an explicit
	// cancel on the handset; anything else is treated as failed.
	status := TxFailed
	if result.ResultCode == "0" {
		status = TxSuccessful
	}

	return &VerifyResult{
		Status:        status,
		TransactionID: result.CheckoutRequestID,
		PaymentMethod: ProviderMpesa,
	}, nil
}

// Daraja STK callback wraps everything in Body.stkCallback, with
// receipt details as a name/value item list.
type mpesaCallback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string      `json:"Name"`
					Value interface{} `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

func (c *mpesaClientImpl) ParseCallback(body []byte) (*CallbackNotification, error) {
	var cb mpesaCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidCallback, err)
	}

	stk := cb.Body.StkCallback
	if stk.CheckoutRequestID == "" {
		return nil, fmt.Errorf("%w: missing CheckoutRequestID", apperr.ErrInvalidCallback)
	}

	notification := &CallbackNotification{
		TransactionID: stk.CheckoutRequestID,
		Reference:     stk.MerchantRequestID,
		Status:        TxFailed,
		Description:   stk.ResultDesc,
	}
	if stk.ResultCode == 0 {
		notification.Status = TxSuccessful
	}

	for _, item := range stk.CallbackMetadata.Item {
		switch item.Name {
		case "MpesaReceiptNumber":
			if v, ok := item.Value.(string); ok {
				notification.ReceiptNumber = v
			}
		case "TransactionDate":
			notification.TransactionDate = numericString(item.Value)
		case "PhoneNumber":
			notification.PayerPhone = numericString(item.Value)
		}
	}

	return notification, nil
}

// Daraja sends dates and phone numbers as JSON numbers; render them
// without scientific notation.
func numericString(v interface{}) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case string:
		return n
	default:
		return fmt.Sprintf("%v", v)
	}
}
