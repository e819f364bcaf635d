package rest

import (
	"context"
	"net/http"
	"time"

	"techshop/domain"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type ReviewService interface {
	CreateReview(ctx context.Context, accountID, productID uint, score int, body string) (domain.Review, error)
	GetMine(ctx context.Context, accountID, productID uint) (domain.Review, error)
	UpdateReview(ctx context.Context, accountID, reviewID uint, score int, body string) (domain.Review, error)
	DeleteReview(ctx context.Context, accountID, reviewID uint) error
	DeleteAnyReview(ctx context.Context, reviewID uint) error
	ListByProduct(ctx context.Context, productID uint, page, pageSize int) ([]domain.Review, int64, error)
}

type ReviewHandler struct {
	reviewService ReviewService
	validator     *validator.Validate
	timeout       time.Duration
}

func NewReviewHandler(reviewService ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		validator:     validator.New(),
		timeout:       10 * time.Second,
	}
}

func (h *ReviewHandler) ListByProduct(c echo.Context) error {
	productID, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	page, pageSize := pagination(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	reviews, total, err := h.reviewService.ListByProduct(ctx, productID, page, pageSize)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "reviews", paged(reviews, total, page, pageSize))
}

type CreateReviewRequest struct {
	ProductID uint   `json:"product_id" validate:"required"`
	Score     int    `json:"score" validate:"required,min=1,max=5"`
	Body      string `json:"body"`
}

func (h *ReviewHandler) CreateReview(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	var req CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "invalid review", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	created, err := h.reviewService.CreateReview(ctx, id, req.ProductID, req.Score, req.Body)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusCreated, "review posted", created)
}

// GetMine returns the caller's own review of a product, if any.
func (h *ReviewHandler) GetMine(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	productID := queryInt(c, "product_id", 0)
	if productID == 0 {
		return fail(c, domain.NewError(domain.KindInvalidInput, "product_id is required"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	review, err := h.reviewService.GetMine(ctx, id, uint(productID))
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "review", review)
}

type UpdateReviewRequest struct {
	Score int    `json:"score" validate:"required,min=1,max=5"`
	Body  string `json:"body"`
}

func (h *ReviewHandler) UpdateReview(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	reviewID, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var req UpdateReviewRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "invalid review", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	updated, err := h.reviewService.UpdateReview(ctx, id, reviewID, req.Score, req.Body)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "review updated", updated)
}

func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	reviewID, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.reviewService.DeleteReview(ctx, id, reviewID); err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "review removed", nil)
}

// DeleteAnyReview is the moderation endpoint.
func (h *ReviewHandler) DeleteAnyReview(c echo.Context) error {
	reviewID, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.reviewService.DeleteAnyReview(ctx, reviewID); err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "review removed", nil)
}
