package client

import (
	"context"
	"errors"
	"testing"

	"campus-market-api/internal/apperr"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestGatewayErrClassification(t *testing.T) {
	err := gatewayErr(ProviderMpesa, context.DeadlineExceeded)
	assert.ErrorIs(t, err, apperr.ErrGatewayTimeout)

	err = gatewayErr(ProviderFlutterwave, timeoutErr{})
	assert.ErrorIs(t, err, apperr.ErrGatewayTimeout)

	err = gatewayErr(ProviderFlutterwave, errors.New("connection refused"))
	assert.ErrorIs(t, err, apperr.ErrGatewayUnavailable)
	assert.NotErrorIs(t, err, apperr.ErrGatewayTimeout)
}
