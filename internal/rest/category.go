package rest

import (
	"context"
	"net/http"
	"time"

	"techshop/domain"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type CategoryService interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id uint) (domain.Category, error)
	CreateCategory(ctx context.Context, name string) (domain.Category, error)
	UpdateCategory(ctx context.Context, id uint, name string) (domain.Category, error)
	DeleteCategory(ctx context.Context, id uint) error
}

type CategoryHandler struct {
	categoryService CategoryService
	validator       *validator.Validate
	timeout         time.Duration
}

func NewCategoryHandler(categoryService CategoryService) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		validator:       validator.New(),
		timeout:         10 * time.Second,
	}
}

func (h *CategoryHandler) ListCategories(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	categories, err := h.categoryService.ListCategories(ctx)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "categories", categories)
}

func (h *CategoryHandler) GetCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	category, err := h.categoryService.GetCategory(ctx, id)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "category", category)
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required"`
}

func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "category name is required", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	created, err := h.categoryService.CreateCategory(ctx, req.Name)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusCreated, "category created", created)
}

func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "category name is required", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	updated, err := h.categoryService.UpdateCategory(ctx, id, req.Name)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "category updated", updated)
}

func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.categoryService.DeleteCategory(ctx, id); err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "category removed", nil)
}
