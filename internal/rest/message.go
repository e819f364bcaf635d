package rest

import (
	"context"
	"net/http"
	"time"

	"techshop/domain"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type MessageService interface {
	SendToSupport(ctx context.Context, senderID uint, body string) (domain.Message, error)
	Send(ctx context.Context, senderID, recipientID uint, body string) (domain.Message, error)
	GetConversation(ctx context.Context, accountID, peerID uint, page, pageSize int) ([]domain.Message, int64, error)
	GetSupportConversation(ctx context.Context, accountID uint, page, pageSize int) ([]domain.Message, int64, error)
	ListPartners(ctx context.Context, accountID uint) ([]domain.Account, error)
	Poll(ctx context.Context, accountID uint, since time.Time) ([]domain.Message, error)
}

type MessageHandler struct {
	messageService MessageService
	validator      *validator.Validate
	timeout        time.Duration
}

func NewMessageHandler(messageService MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		validator:      validator.New(),
		timeout:        10 * time.Second,
	}
}

type SendMessageRequest struct {
	Body string `json:"body" validate:"required"`
}

// SendToSupport is the customer path; the recipient is implicit.
func (h *MessageHandler) SendToSupport(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "message body is required", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	sent, err := h.messageService.SendToSupport(ctx, id, req.Body)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusCreated, "message sent", sent)
}

func (h *MessageHandler) GetSupportConversation(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	page, pageSize := pagination(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	messages, total, err := h.messageService.GetSupportConversation(ctx, id, page, pageSize)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "conversation", paged(messages, total, page, pageSize))
}

// Poll returns messages received since the given RFC3339 timestamp.
func (h *MessageHandler) Poll(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	since := time.Now().Add(-time.Minute)
	if raw := c.QueryParam("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fail(c, domain.NewError(domain.KindInvalidInput, "invalid since timestamp"))
		}
		since = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	messages, err := h.messageService.Poll(ctx, id, since)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "new messages", messages)
}

// Admin endpoints.

type AdminSendMessageRequest struct {
	RecipientID uint   `json:"recipient_id" validate:"required"`
	Body        string `json:"body" validate:"required"`
}

func (h *MessageHandler) Send(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	var req AdminSendMessageRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "invalid message", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	sent, err := h.messageService.Send(ctx, id, req.RecipientID, req.Body)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusCreated, "message sent", sent)
}

func (h *MessageHandler) GetConversation(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	peerID, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	page, pageSize := pagination(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	messages, total, err := h.messageService.GetConversation(ctx, id, peerID, page, pageSize)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "conversation", paged(messages, total, page, pageSize))
}

func (h *MessageHandler) ListPartners(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	partners, err := h.messageService.ListPartners(ctx, id)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "conversation partners", partners)
}
