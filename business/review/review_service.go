package review

import (
	"context"
	"time"

	"techshop/domain"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	FindByAccountAndProduct(ctx context.Context, accountID, productID uint) (domain.Review, error)
	FindOwned(ctx context.Context, reviewID, accountID uint) (domain.Review, error)
	FindByProduct(ctx context.Context, productID uint, page, pageSize int) ([]domain.Review, int64, error)
	Update(ctx context.Context, review *domain.Review) error
	Delete(ctx context.Context, reviewID uint) error
}

type ProductRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Product, error)
}

type ReviewService struct {
	reviewRepo  ReviewRepository
	productRepo ProductRepository
}

func NewReviewService(reviewRepo ReviewRepository, productRepo ProductRepository) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
	}
}

// CreateReview enforces one review per account and product; a second attempt
// is a conflict, the caller should update the existing review instead.
func (s *ReviewService) CreateReview(ctx context.Context, accountID, productID uint, score int, body string) (domain.Review, error) {
	if score < 1 || score > 5 {
		return domain.Review{}, domain.NewError(domain.KindInvalidInput, "score must be between 1 and 5")
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return domain.Review{}, err
	}

	_, err := s.reviewRepo.FindByAccountAndProduct(ctx, accountID, productID)
	switch {
	case err == nil:
		return domain.Review{}, domain.NewError(domain.KindConflict, "you have already reviewed this product")
	case domain.KindOf(err) != domain.KindNotFound:
		return domain.Review{}, err
	}

	review := domain.Review{
		AccountID: accountID,
		ProductID: productID,
		Score:     score,
		Body:      body,
		CreatedAt: time.Now(),
	}

	if err := s.reviewRepo.Create(ctx, &review); err != nil {
		return domain.Review{}, err
	}

	return review, nil
}

// GetMine returns the caller's review of the product, so the storefront can
// offer edit instead of create.
func (s *ReviewService) GetMine(ctx context.Context, accountID, productID uint) (domain.Review, error) {
	return s.reviewRepo.FindByAccountAndProduct(ctx, accountID, productID)
}

func (s *ReviewService) UpdateReview(ctx context.Context, accountID, reviewID uint, score int, body string) (domain.Review, error) {
	if score < 1 || score > 5 {
		return domain.Review{}, domain.NewError(domain.KindInvalidInput, "score must be between 1 and 5")
	}

	review, err := s.reviewRepo.FindOwned(ctx, reviewID, accountID)
	if err != nil {
		return domain.Review{}, err
	}

	review.Score = score
	review.Body = body
	review.CreatedAt = time.Now()

	if err := s.reviewRepo.Update(ctx, &review); err != nil {
		return domain.Review{}, err
	}

	return review, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, accountID, reviewID uint) error {
	review, err := s.reviewRepo.FindOwned(ctx, reviewID, accountID)
	if err != nil {
		return err
	}

	return s.reviewRepo.Delete(ctx, review.ID)
}

// DeleteAnyReview is the moderation path; ownership is not checked.
func (s *ReviewService) DeleteAnyReview(ctx context.Context, reviewID uint) error {
	return s.reviewRepo.Delete(ctx, reviewID)
}

func (s *ReviewService) ListByProduct(ctx context.Context, productID uint, page, pageSize int) ([]domain.Review, int64, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, 0, err
	}

	return s.reviewRepo.FindByProduct(ctx, productID, page, pageSize)
}
