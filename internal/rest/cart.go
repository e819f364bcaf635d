package rest

import (
	"context"
	"net/http"
	"time"

	"techshop/business/cart"
	"techshop/domain"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type CartService interface {
	GetCart(ctx context.Context, accountID uint) (cart.CartView, error)
	AddItem(ctx context.Context, accountID, productID uint, quantity int) error
	UpdateItem(ctx context.Context, accountID, itemID uint, quantity int) error
	RemoveItem(ctx context.Context, accountID, itemID uint) error
}

type CartHandler struct {
	cartService CartService
	validator   *validator.Validate
	timeout     time.Duration
}

func NewCartHandler(cartService CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		validator:   validator.New(),
		timeout:     10 * time.Second,
	}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	view, err := h.cartService.GetCart(ctx, id)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "cart", view)
}

type AddItemRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,gt=0"`
}

func (h *CartHandler) AddItem(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	var req AddItemRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "invalid cart item", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.cartService.AddItem(ctx, id, req.ProductID, req.Quantity); err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusCreated, "item added", nil)
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	itemID, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var req UpdateItemRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "invalid quantity", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.cartService.UpdateItem(ctx, id, itemID, req.Quantity); err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "item updated", nil)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	itemID, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.cartService.RemoveItem(ctx, id, itemID); err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "item removed", nil)
}
