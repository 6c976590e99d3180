package handler

import (
	"net/http"

	"campus-market-api/internal/dto"
	"campus-market-api/internal/middleware"
	"campus-market-api/internal/service"

	"github.com/labstack/echo/v4"
)

type MessageHandler struct {
	messageService service.MessageService
}

func NewMessageHandler(messageService service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func (h *MessageHandler) StartConversation(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.StartConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	conv, err := h.messageService.StartConversation(ctx, middleware.UserID(c), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, conv)
}

func (h *MessageHandler) ListConversations(c echo.Context) error {
	ctx := c.Request().Context()

	convs, err := h.messageService.ListConversations(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, convs)
}

func (h *MessageHandler) DeleteConversation(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.messageService.DeleteConversation(ctx, middleware.UserID(c), id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *MessageHandler) Send(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	msg, err := h.messageService.Send(ctx, middleware.UserID(c), id, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) Messages(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	msgs, err := h.messageService.Messages(ctx, middleware.UserID(c), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, msgs)
}

func (h *MessageHandler) UnreadCount(c echo.Context) error {
	ctx := c.Request().Context()

	count, err := h.messageService.UnreadCount(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.UnreadCount{Unread: count})
}

func (h *MessageHandler) MarkRead(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.messageService.MarkRead(ctx, middleware.UserID(c), id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "conversation marked read"})
}
