package postgres

import (
	"context"
	"errors"
	"fmt"

	"techshop/domain"

	"gorm.io/gorm"
)

type ProductRepository struct {
	DB *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{
		DB: db,
	}
}

// ProductFilter mirrors the catalog filter form; nil fields are not applied.
type ProductFilter struct {
	CategoryID *uint
	Name       string
	PriceMin   *int64
	PriceMax   *int64
	Listed     *bool
	InStock    bool
	Page       int
	PageSize   int
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := r.DB.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id uint) (domain.Product, error) {
	var product domain.Product

	err := r.DB.WithContext(ctx).Preload("Category").First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Product{}, domain.NewError(domain.KindNotFound, "product not found")
		}
		return domain.Product{}, fmt.Errorf("failed to find product: %w", err)
	}

	return product, nil
}

func (r *ProductRepository) FindNewest(ctx context.Context, limit int) ([]domain.Product, error) {
	var products []domain.Product

	err := r.DB.WithContext(ctx).
		Where("is_listed = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}

	return products, nil
}

func (r *ProductRepository) FindByCategory(ctx context.Context, categoryID uint) ([]domain.Product, error) {
	var products []domain.Product

	err := r.DB.WithContext(ctx).
		Where("category_id = ? AND is_listed = ?", categoryID, true).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}

	return products, nil
}

func (r *ProductRepository) SearchByName(ctx context.Context, name string) ([]domain.Product, error) {
	var products []domain.Product

	err := r.DB.WithContext(ctx).
		Where("name ILIKE ? AND is_listed = ?", "%"+name+"%", true).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	return products, nil
}

func (r *ProductRepository) Filter(ctx context.Context, filter ProductFilter) ([]domain.Product, int64, error) {
	query := r.DB.WithContext(ctx).Model(&domain.Product{})

	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Name != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.PriceMin != nil {
		query = query.Where("price >= ?", *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		query = query.Where("price <= ?", *filter.PriceMax)
	}
	if filter.Listed != nil {
		query = query.Where("is_listed = ?", *filter.Listed)
	}
	if filter.InStock {
		query = query.Where("stock > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var products []domain.Product
	err := query.Preload("Category").
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to filter products: %w", err)
	}

	return products, total, nil
}

// FindRelated returns listed products sharing the category, the product
// itself excluded.
func (r *ProductRepository) FindRelated(ctx context.Context, product domain.Product, limit int) ([]domain.Product, error) {
	if product.CategoryID == nil {
		return []domain.Product{}, nil
	}

	var products []domain.Product
	err := r.DB.WithContext(ctx).
		Where("category_id = ? AND id <> ? AND is_listed = ?", *product.CategoryID, product.ID, true).
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find related products: %w", err)
	}

	return products, nil
}

func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	updateData := map[string]any{
		"name":        product.Name,
		"description": product.Description,
		"price":       product.Price,
		"stock":       product.Stock,
		"category_id": product.CategoryID,
		"is_listed":   product.IsListed,
		"brand":       product.Brand,
		"promo":       product.Promo,
		"image_url":   product.ImageURL,
	}

	result := r.DB.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", product.ID).Updates(updateData)
	if result.Error != nil {
		return fmt.Errorf("failed to update product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewError(domain.KindNotFound, "product not found")
	}

	return nil
}

func (r *ProductRepository) SetListed(ctx context.Context, id uint, listed bool) error {
	result := r.DB.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", id).Update("is_listed", listed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewError(domain.KindNotFound, "product not found")
	}

	return nil
}

// IsOrdered reports whether any order item references the product. Ordered
// products are delisted instead of deleted so price snapshots keep resolving.
func (r *ProductRepository) IsOrdered(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&domain.OrderItem{}).Where("product_id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	result := r.DB.WithContext(ctx).Delete(&domain.Product{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewError(domain.KindNotFound, "product not found or already deleted")
	}

	return nil
}
