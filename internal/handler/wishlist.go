package handler

import (
	"net/http"

	"campus-market-api/internal/middleware"
	"campus-market-api/internal/service"

	"github.com/labstack/echo/v4"
)

type WishlistHandler struct {
	wishlistService service.WishlistService
}

func NewWishlistHandler(wishlistService service.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlistService: wishlistService}
}

func (h *WishlistHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	products, err := h.wishlistService.List(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, products)
}

func (h *WishlistHandler) Add(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := idParam(c, "productId")
	if err != nil {
		return err
	}

	if err := h.wishlistService.Add(ctx, middleware.UserID(c), productID); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]string{"message": "added to wishlist"})
}

func (h *WishlistHandler) Remove(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := idParam(c, "productId")
	if err != nil {
		return err
	}

	if err := h.wishlistService.Remove(ctx, middleware.UserID(c), productID); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *WishlistHandler) Contains(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := idParam(c, "productId")
	if err != nil {
		return err
	}

	in, err := h.wishlistService.Contains(ctx, middleware.UserID(c), productID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]bool{"in_wishlist": in})
}

func (h *WishlistHandler) Clear(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.wishlistService.Clear(ctx, middleware.UserID(c)); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
