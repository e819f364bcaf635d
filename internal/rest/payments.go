package rest

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"techshop/domain"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type PaymentsService interface {
	CreatePayment(ctx context.Context, accountID, orderID uint, rawMethod, clientIP string) (domain.PaymentWithURL, error)
	HandleCallback(ctx context.Context, params url.Values) (domain.Payment, error)
	ConfirmPayment(ctx context.Context, paymentID uint) (domain.Payment, error)
	GetOrderPayment(ctx context.Context, accountID, orderID uint) (domain.Payment, error)
	ListPayments(ctx context.Context, accountID uint) ([]domain.Payment, error)
}

type PaymentsHandler struct {
	paymentsService PaymentsService
	validator       *validator.Validate
	timeout         time.Duration
}

func NewPaymentsHandler(paymentsService PaymentsService) *PaymentsHandler {
	return &PaymentsHandler{
		paymentsService: paymentsService,
		validator:       validator.New(),
		timeout:         15 * time.Second,
	}
}

type CreatePaymentRequest struct {
	OrderID uint   `json:"order_id" validate:"required"`
	Method  string `json:"method" validate:"required"`
}

func (h *PaymentsHandler) CreatePayment(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	var req CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "invalid payment", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.paymentsService.CreatePayment(ctx, id, req.OrderID, req.Method, c.RealIP())
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusCreated, "payment created", result)
}

// Callback receives the gateway's redirect after the shopper pays. It is
// unauthenticated; trust comes from the signature inside the parameters.
func (h *PaymentsHandler) Callback(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	payment, err := h.paymentsService.HandleCallback(ctx, c.QueryParams())
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "payment confirmed", payment)
}

func (h *PaymentsHandler) GetOrderPayment(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	orderID, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	payment, err := h.paymentsService.GetOrderPayment(ctx, id, orderID)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "payment", payment)
}

func (h *PaymentsHandler) ListPayments(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	payments, err := h.paymentsService.ListPayments(ctx, id)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "payments", payments)
}

// ConfirmPayment settles offline methods from the back office.
func (h *PaymentsHandler) ConfirmPayment(c echo.Context) error {
	paymentID, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	payment, err := h.paymentsService.ConfirmPayment(ctx, paymentID)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "payment settled", payment)
}
