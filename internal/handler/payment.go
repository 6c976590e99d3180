package handler

import (
	"io"
	"net/http"

	"campus-market-api/internal/dto"
	"campus-market-api/internal/middleware"
	"campus-market-api/internal/service"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) Initiate(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.InitiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	resp, err := h.paymentService.Initiate(ctx, middleware.UserID(c), &req)
	middleware.RecordPaymentOperation("initiate", err == nil)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, resp)
}

func (h *PaymentHandler) Verify(c echo.Context) error {
	ctx := c.Request().Context()

	ref := c.Param("ref")
	if ref == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing transaction reference")
	}

	resp, err := h.paymentService.Verify(ctx, ref)
	middleware.RecordPaymentOperation("verify", err == nil)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

// Callback acknowledges provider pushes. Invalid and unknown payloads
// still get a 200 so the provider stops retrying them; only transport
// or database failures bubble up as a 5xx worth retrying.
func (h *PaymentHandler) Callback(c echo.Context) error {
	ctx := c.Request().Context()

	provider := c.Param("provider")
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	result, err := h.paymentService.HandleCallback(ctx, provider, body)
	middleware.RecordPaymentOperation("callback", err == nil)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) Status(c echo.Context) error {
	ctx := c.Request().Context()

	ref := c.Param("ref")
	if ref == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing transaction reference")
	}

	resp, err := h.paymentService.Status(ctx, ref)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) Methods(c echo.Context) error {
	return c.JSON(http.StatusOK, h.paymentService.Methods())
}
