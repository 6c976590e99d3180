package handler

import (
	"net/http"

	"campus-market-api/internal/dto"
	"campus-market-api/internal/middleware"
	"campus-market-api/internal/service"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	cartService service.CartService
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

func (h *CartHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	items, err := h.cartService.Get(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.CartResponse{Cart: items})
}

func (h *CartHandler) Save(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SaveCartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	items, err := h.cartService.Save(ctx, middleware.UserID(c), req.Cart)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.CartResponse{Cart: items})
}

func (h *CartHandler) Merge(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.MergeCartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	items, err := h.cartService.Merge(ctx, middleware.UserID(c), req.LocalCart)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.CartResponse{Cart: items})
}

func (h *CartHandler) Clear(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.cartService.Clear(ctx, middleware.UserID(c)); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
