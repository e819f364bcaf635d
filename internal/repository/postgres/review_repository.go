package postgres

import (
	"context"
	"errors"

	"techshop/domain"

	"gorm.io/gorm"
)

type ReviewRepository struct {
	DB *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{
		DB: db,
	}
}

func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	if err := r.DB.WithContext(ctx).Create(review).Error; err != nil {
		return err
	}

	return nil
}

// FindByAccountAndProduct backs the one-review-per-(account, product) rule,
// which is enforced in the service rather than by a unique constraint.
func (r *ReviewRepository) FindByAccountAndProduct(ctx context.Context, accountID, productID uint) (domain.Review, error) {
	var review domain.Review

	err := r.DB.WithContext(ctx).
		Where("account_id = ? AND product_id = ?", accountID, productID).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Review{}, domain.NewError(domain.KindNotFound, "review not found")
		}
		return domain.Review{}, err
	}

	return review, nil
}

func (r *ReviewRepository) FindOwned(ctx context.Context, reviewID, accountID uint) (domain.Review, error) {
	var review domain.Review

	err := r.DB.WithContext(ctx).
		Where("id = ? AND account_id = ?", reviewID, accountID).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Review{}, domain.NewError(domain.KindNotFound, "review not found")
		}
		return domain.Review{}, err
	}

	return review, nil
}

func (r *ReviewRepository) FindByProduct(ctx context.Context, productID uint, page, pageSize int) ([]domain.Review, int64, error) {
	var (
		reviews []domain.Review
		total   int64
	)

	query := r.DB.WithContext(ctx).Model(&domain.Review{}).Where("product_id = ?", productID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Account").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	result := r.DB.WithContext(ctx).Model(&domain.Review{}).
		Where("id = ?", review.ID).
		Updates(map[string]any{
			"score":      review.Score,
			"body":       review.Body,
			"created_at": review.CreatedAt,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return domain.NewError(domain.KindNotFound, "review not found")
	}

	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, reviewID uint) error {
	result := r.DB.WithContext(ctx).Delete(&domain.Review{}, reviewID)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return domain.NewError(domain.KindNotFound, "review not found")
	}

	return nil
}
