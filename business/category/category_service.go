package category

import (
	"context"

	"techshop/domain"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	FindByID(ctx context.Context, id uint) (domain.Category, error)
	FindByName(ctx context.Context, name string) (domain.Category, error)
	FindAll(ctx context.Context) ([]domain.Category, error)
	Update(ctx context.Context, category *domain.Category) error
	HasProducts(ctx context.Context, id uint) (bool, error)
	Delete(ctx context.Context, id uint) error
}

type CategoryService struct {
	categoryRepo CategoryRepository
}

func NewCategoryService(categoryRepo CategoryRepository) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
	}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categoryRepo.FindAll(ctx)
}

func (s *CategoryService) GetCategory(ctx context.Context, id uint) (domain.Category, error) {
	return s.categoryRepo.FindByID(ctx, id)
}

func (s *CategoryService) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	if err := s.ensureNameFree(ctx, name, 0); err != nil {
		return domain.Category{}, err
	}

	category := domain.Category{Name: name}
	if err := s.categoryRepo.Create(ctx, &category); err != nil {
		return domain.Category{}, err
	}

	return category, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id uint, name string) (domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return domain.Category{}, err
	}

	if err := s.ensureNameFree(ctx, name, id); err != nil {
		return domain.Category{}, err
	}

	category.Name = name
	if err := s.categoryRepo.Update(ctx, &category); err != nil {
		return domain.Category{}, err
	}

	return category, nil
}

// DeleteCategory refuses to remove a category that still has products; they
// must be moved or deleted first.
func (s *CategoryService) DeleteCategory(ctx context.Context, id uint) error {
	hasProducts, err := s.categoryRepo.HasProducts(ctx, id)
	if err != nil {
		return err
	}

	if hasProducts {
		return domain.NewError(domain.KindConflict, "category still has products")
	}

	return s.categoryRepo.Delete(ctx, id)
}

func (s *CategoryService) ensureNameFree(ctx context.Context, name string, selfID uint) error {
	existing, err := s.categoryRepo.FindByName(ctx, name)
	switch {
	case err == nil:
		if existing.ID != selfID {
			return domain.NewError(domain.KindConflict, "category name is already taken")
		}
		return nil
	case domain.KindOf(err) == domain.KindNotFound:
		return nil
	default:
		return err
	}
}
