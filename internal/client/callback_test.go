package client

import (
	"testing"

	"campus-market-api/internal/apperr"
	"campus-market-api/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlutterwaveParseCallback(t *testing.T) {
	gw := NewFlutterwaveClient(&config.Flutterwave{})

	body := []byte(`{
		"transaction_id": "FLW-TX-9",
		"transaction_reference": "CMP-abc",
		"status": "successful",
		"message": "Approved"
	}`)

	n, err := gw.ParseCallback(body)
	require.NoError(t, err)
	assert.Equal(t, "FLW-TX-9", n.TransactionID)
	assert.Equal(t, "CMP-abc", n.Reference)
	assert.Equal(t, TxSuccessful, n.Status)
	assert.Equal(t, "Approved", n.Description)
}

func TestFlutterwaveParseCallbackStatuses(t *testing.T) {
	gw := NewFlutterwaveClient(&config.Flutterwave{})

	for raw, want := range map[string]string{
		"successful": TxSuccessful,
		"pending":    TxPending,
		"failed":     TxFailed,
		"chargeback": TxFailed,
	} {
		n, err := gw.ParseCallback([]byte(`{"transaction_id":"t1","status":"` + raw + `"}`))
		require.NoError(t, err)
		assert.Equal(t, want, n.Status, "raw status %q", raw)
	}
}

func TestFlutterwaveParseCallbackMissingFields(t *testing.T) {
	gw := NewFlutterwaveClient(&config.Flutterwave{})

	_, err := gw.ParseCallback([]byte(`{"status":"successful"}`))
	assert.ErrorIs(t, err, apperr.ErrInvalidCallback)

	_, err = gw.ParseCallback([]byte(`{"transaction_id":"t1"}`))
	assert.ErrorIs(t, err, apperr.ErrInvalidCallback)

	_, err = gw.ParseCallback([]byte(`not json`))
	assert.ErrorIs(t, err, apperr.ErrInvalidCallback)
}

func TestMpesaParseCallbackSuccess(t *testing.T) {
	gw := NewMpesaClient(&config.Mpesa{})

	body := []byte(`{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": "ws_CO_191220191020363925",
				"ResultCode": 0,
				"ResultDesc": "The service request is processed successfully.",
				"CallbackMetadata": {
					"Item": [
						{"Name": "Amount", "Value": 1500.00},
						{"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
						{"Name": "TransactionDate", "Value": 20191219102115},
						{"Name": "PhoneNumber", "Value": 254708374149}
					]
				}
			}
		}
	}`)

	n, err := gw.ParseCallback(body)
	require.NoError(t, err)
	assert.Equal(t, "ws_CO_191220191020363925", n.TransactionID)
	assert.Equal(t, TxSuccessful, n.Status)
	assert.Equal(t, "NLJ7RT61SV", n.ReceiptNumber)
	// JSON numbers must not come out in scientific notation
	assert.Equal(t, "20191219102115", n.TransactionDate)
	assert.Equal(t, "254708374149", n.PayerPhone)
}

func TestMpesaParseCallbackUserCancelled(t *testing.T) {
	gw := NewMpesaClient(&config.Mpesa{})

	body := []byte(`{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": "ws_CO_191220191020363925",
				"ResultCode": 1032,
				"ResultDesc": "Request cancelled by user"
			}
		}
	}`)

	n, err := gw.ParseCallback(body)
	require.NoError(t, err)
	assert.Equal(t, TxFailed, n.Status)
	assert.Equal(t, "Request cancelled by user", n.Description)
}

func TestMpesaParseCallbackMissingCheckoutID(t *testing.T) {
	gw := NewMpesaClient(&config.Mpesa{})

	_, err := gw.ParseCallback([]byte(`{"Body":{"stkCallback":{"ResultCode":0}}}`))
	assert.ErrorIs(t, err, apperr.ErrInvalidCallback)
}
