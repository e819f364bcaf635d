package rest

import (
	"context"
	"net/http"
	"time"

	"techshop/business/orders"
	"techshop/domain"
	"techshop/pkg/logger"
	"techshop/pkg/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type OrdersService interface {
	CreateOrder(ctx context.Context, input orders.CreateOrderInput) (orders.CreateOrderResult, error)
	GetOrder(ctx context.Context, orderID, accountID uint) (domain.Order, error)
	ListOrders(ctx context.Context, accountID uint, page, pageSize int) ([]domain.Order, int64, error)
	ConfirmOrder(ctx context.Context, orderID, accountID uint) error
	CancelOrder(ctx context.Context, orderID uint) error
	ListAllOrders(ctx context.Context, page, pageSize int, status string) ([]domain.Order, int64, error)
	UpdateOrderStatus(ctx context.Context, orderID uint, status string) error
}

type OrdersHandler struct {
	ordersService OrdersService
	validator     *validator.Validate
	timeout       time.Duration
}

func NewOrdersHandler(ordersService OrdersService) *OrdersHandler {
	return &OrdersHandler{
		ordersService: ordersService,
		validator:     validator.New(),
		timeout:       15 * time.Second,
	}
}

type CreateOrderRequest struct {
	RecipientName    string `json:"recipient_name" validate:"required"`
	RecipientAddress string `json:"recipient_address" validate:"required"`
	RecipientPhone   string `json:"recipient_phone" validate:"required"`
	ShippingFee      int64  `json:"shipping_fee" validate:"gte=0"`
	PaymentMethod    string `json:"payment_method"`
}

func (h *OrdersHandler) CreateOrder(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "invalid order", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	start := time.Now()
	result, err := h.ordersService.CreateOrder(ctx, orders.CreateOrderInput{
		AccountID:        id,
		RecipientName:    req.RecipientName,
		RecipientAddress: req.RecipientAddress,
		RecipientPhone:   req.RecipientPhone,
		ShippingFee:      req.ShippingFee,
		PaymentMethod:    req.PaymentMethod,
		ClientIP:         c.RealIP(),
	})
	metrics.OrderCreateLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return fail(c, err)
	}

	metrics.OrdersCreated.Inc()
	logger.Info("order placed", "order_id", result.Order.ID, "account_id", id, "total", result.Order.Total)
	return ok(c, http.StatusCreated, "order placed", result)
}

func (h *OrdersHandler) GetOrder(c echo.Context) error {
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

	order, err := h.ordersService.GetOrder(ctx, orderID, id)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "order", order)
}

func (h *OrdersHandler) ListOrders(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	page, pageSize := pagination(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	list, total, err := h.ordersService.ListOrders(ctx, id, page, pageSize)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "orders", paged(list, total, page, pageSize))
}

func (h *OrdersHandler) ConfirmOrder(c echo.Context) error {
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

	if err := h.ordersService.ConfirmOrder(ctx, orderID, id); err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "order confirmed", nil)
}

// Admin endpoints.

func (h *OrdersHandler) ListAllOrders(c echo.Context) error {
	page, pageSize := pagination(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	list, total, err := h.ordersService.ListAllOrders(ctx, page, pageSize, c.QueryParam("status"))
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "orders", paged(list, total, page, pageSize))
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *OrdersHandler) UpdateOrderStatus(c echo.Context) error {
	orderID, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var req UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "status is required", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.ordersService.UpdateOrderStatus(ctx, orderID, req.Status); err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "status updated", nil)
}

func (h *OrdersHandler) CancelOrder(c echo.Context) error {
	orderID, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.ordersService.CancelOrder(ctx, orderID); err != nil {
		return fail(c, err)
	}

	logger.Info("order cancelled", "order_id", orderID)
	return ok(c, http.StatusOK, "order cancelled", nil)
}
