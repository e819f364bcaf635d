package rest

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"techshop/business/product"
	"techshop/domain"
	"techshop/internal/repository/postgres"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type ProductService interface {
	GetProduct(ctx context.Context, id uint) (product.ProductDetail, error)
	GetNewest(ctx context.Context) ([]domain.Product, error)
	GetByCategory(ctx context.Context, categoryID uint) ([]domain.Product, error)
	Search(ctx context.Context, name string) ([]domain.Product, error)
	Browse(ctx context.Context, filter postgres.ProductFilter) ([]domain.Product, int64, error)
	CreateProduct(ctx context.Context, input product.UpsertProductInput) (domain.Product, error)
	UpdateProduct(ctx context.Context, id uint, input product.UpsertProductInput) (domain.Product, error)
	UpdateImage(ctx context.Context, id uint, data io.Reader, filename string) (domain.Product, error)
	SetListed(ctx context.Context, id uint, listed bool) error
	DeleteProduct(ctx context.Context, id uint) error
}

type ProductHandler struct {
	productService ProductService
	validator      *validator.Validate
	timeout        time.Duration
}

func NewProductHandler(productService ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		validator:      validator.New(),
		timeout:        10 * time.Second,
	}
}

// Browse handles the storefront listing with optional category, name, price
// range and stock filters.
func (h *ProductHandler) Browse(c echo.Context) error {
	page, pageSize := pagination(c)
	filter := postgres.ProductFilter{
		Name:     c.QueryParam("name"),
		InStock:  c.QueryParam("in_stock") == "true",
		Page:     page,
		PageSize: pageSize,
	}

	if raw := c.QueryParam("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fail(c, domain.NewError(domain.KindInvalidInput, "invalid category_id"))
		}
		categoryID := uint(id)
		filter.CategoryID = &categoryID
	}
	if raw := c.QueryParam("price_min"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fail(c, domain.NewError(domain.KindInvalidInput, "invalid price_min"))
		}
		filter.PriceMin = &v
	}
	if raw := c.QueryParam("price_max"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fail(c, domain.NewError(domain.KindInvalidInput, "invalid price_max"))
		}
		filter.PriceMax = &v
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	products, total, err := h.productService.Browse(ctx, filter)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "products", paged(products, total, page, pageSize))
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	detail, err := h.productService.GetProduct(ctx, id)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "product", detail)
}

func (h *ProductHandler) GetNewest(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	products, err := h.productService.GetNewest(ctx)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "newest products", products)
}

func (h *ProductHandler) GetByCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	products, err := h.productService.GetByCategory(ctx, id)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "products", products)
}

func (h *ProductHandler) Search(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	products, err := h.productService.Search(ctx, c.QueryParam("q"))
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "search results", products)
}

type UpsertProductRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Price       int64  `json:"price" validate:"required,gt=0"`
	Stock       int    `json:"stock" validate:"gte=0"`
	CategoryID  *uint  `json:"category_id"`
	Brand       string `json:"brand"`
	Promo       string `json:"promo"`
	IsListed    bool   `json:"is_listed"`
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req UpsertProductRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "invalid product", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	created, err := h.productService.CreateProduct(ctx, product.UpsertProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		Brand:       req.Brand,
		Promo:       req.Promo,
		IsListed:    req.IsListed,
	})
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusCreated, "product created", created)
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var req UpsertProductRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "invalid product", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	updated, err := h.productService.UpdateProduct(ctx, id, product.UpsertProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		Brand:       req.Brand,
		Promo:       req.Promo,
		IsListed:    req.IsListed,
	})
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "product updated", updated)
}

func (h *ProductHandler) UpdateImage(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	file, err := c.FormFile("image")
	if err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "image file is required"))
	}

	src, err := file.Open()
	if err != nil {
		return fail(c, err)
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	updated, err := h.productService.UpdateImage(ctx, id, src, file.Filename)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "image updated", updated)
}

type SetListedRequest struct {
	Listed *bool `json:"listed" validate:"required"`
}

func (h *ProductHandler) SetListed(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var req SetListedRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "listed flag is required", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.productService.SetListed(ctx, id, *req.Listed); err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "product updated", nil)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.productService.DeleteProduct(ctx, id); err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "product removed", nil)
}
