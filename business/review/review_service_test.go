package review_test

import (
	"context"
	"testing"

	"techshop/business/review"
	"techshop/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReviewRepo struct {
	reviews map[uint]domain.Review
	nextID  uint
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: map[uint]domain.Review{}, nextID: 1}
}

func (f *fakeReviewRepo) Create(_ context.Context, r *domain.Review) error {
	r.ID = f.nextID
	f.nextID++
	f.reviews[r.ID] = *r
	return nil
}

func (f *fakeReviewRepo) FindByAccountAndProduct(_ context.Context, accountID, productID uint) (domain.Review, error) {
	for _, r := range f.reviews {
		if r.AccountID == accountID && r.ProductID == productID {
			return r, nil
		}
	}
	return domain.Review{}, domain.NewError(domain.KindNotFound, "review not found")
}

func (f *fakeReviewRepo) FindOwned(_ context.Context, reviewID, accountID uint) (domain.Review, error) {
	r, ok := f.reviews[reviewID]
	if !ok || r.AccountID != accountID {
		return domain.Review{}, domain.NewError(domain.KindNotFound, "review not found")
	}
	return r, nil
}

func (f *fakeReviewRepo) FindByProduct(_ context.Context, productID uint, _, _ int) ([]domain.Review, int64, error) {
	var out []domain.Review
	for _, r := range f.reviews {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeReviewRepo) Update(_ context.Context, r *domain.Review) error {
	if _, ok := f.reviews[r.ID]; !ok {
		return domain.NewError(domain.KindNotFound, "review not found")
	}
	f.reviews[r.ID] = *r
	return nil
}

func (f *fakeReviewRepo) Delete(_ context.Context, reviewID uint) error {
	if _, ok := f.reviews[reviewID]; !ok {
		return domain.NewError(domain.KindNotFound, "review not found")
	}
	delete(f.reviews, reviewID)
	return nil
}

type fakeProductRepo struct {
	products map[uint]domain.Product
}

func (f *fakeProductRepo) FindByID(_ context.Context, id uint) (domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return domain.Product{}, domain.NewError(domain.KindNotFound, "product not found")
	}
	return p, nil
}

func fixtures() (*fakeReviewRepo, *review.ReviewService) {
	reviewRepo := newFakeReviewRepo()
	productRepo := &fakeProductRepo{products: map[uint]domain.Product{
		10: {ID: 10, Name: "phone", IsListed: true},
	}}
	return reviewRepo, review.NewReviewService(reviewRepo, productRepo)
}

func TestCreateReviewOncePerProduct(t *testing.T) {
	_, service := fixtures()

	first, err := service.CreateReview(context.Background(), 7, 10, 5, "great phone")
	require.NoError(t, err)
	assert.Equal(t, 5, first.Score)

	_, err = service.CreateReview(context.Background(), 7, 10, 3, "changed my mind")
	require.Error(t, err)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	// A different account still can review the same product.
	_, err = service.CreateReview(context.Background(), 8, 10, 4, "solid")
	require.NoError(t, err)
}

func TestCreateReviewValidatesScoreAndProduct(t *testing.T) {
	_, service := fixtures()

	_, err := service.CreateReview(context.Background(), 7, 10, 0, "")
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))

	_, err = service.CreateReview(context.Background(), 7, 10, 6, "")
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))

	_, err = service.CreateReview(context.Background(), 7, 99, 4, "")
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestUpdateReviewOwnershipEnforced(t *testing.T) {
	reviewRepo, service := fixtures()
	created, err := service.CreateReview(context.Background(), 7, 10, 5, "great")
	require.NoError(t, err)

	_, err = service.UpdateReview(context.Background(), 8, created.ID, 1, "not mine")
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	updated, err := service.UpdateReview(context.Background(), 7, created.ID, 2, "broke after a week")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Score)
	assert.Equal(t, 2, reviewRepo.reviews[created.ID].Score)
}

func TestDeleteReviewOwnershipEnforced(t *testing.T) {
	reviewRepo, service := fixtures()
	created, err := service.CreateReview(context.Background(), 7, 10, 5, "great")
	require.NoError(t, err)

	err = service.DeleteReview(context.Background(), 8, created.ID)
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	require.NoError(t, service.DeleteReview(context.Background(), 7, created.ID))
	assert.Empty(t, reviewRepo.reviews)
}
