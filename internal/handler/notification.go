package handler

import (
	"net/http"
	"strconv"

	"campus-market-api/internal/dto"
	"campus-market-api/internal/middleware"
	"campus-market-api/internal/service"

	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	unreadOnly := c.QueryParam("unread") == "true"

	list, err := h.notificationService.List(ctx, middleware.UserID(c), unreadOnly, page, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, list)
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	ctx := c.Request().Context()

	count, err := h.notificationService.UnreadCount(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.UnreadCount{Unread: count})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.notificationService.MarkRead(ctx, middleware.UserID(c), id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "notification marked read"})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.notificationService.MarkAllRead(ctx, middleware.UserID(c)); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "all notifications marked read"})
}

func (h *NotificationHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.notificationService.Delete(ctx, middleware.UserID(c), id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *NotificationHandler) ClearRead(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.notificationService.ClearRead(ctx, middleware.UserID(c)); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
