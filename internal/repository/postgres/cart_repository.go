package postgres

import (
	"context"
	"errors"
	"time"

	"techshop/domain"

	"gorm.io/gorm"
)

type CartRepository struct {
	DB *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{
		DB: db,
	}
}

// FindOrCreate returns the account's cart, creating the row lazily on first
// use.
func (r *CartRepository) FindOrCreate(ctx context.Context, accountID uint) (domain.Cart, error) {
	var cart domain.Cart

	err := r.DB.WithContext(ctx).Where("account_id = ?", accountID).First(&cart).Error
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Cart{}, err
	}

	cart = domain.Cart{AccountID: accountID, UpdatedAt: time.Now()}
	if err := r.DB.WithContext(ctx).Create(&cart).Error; err != nil {
		return domain.Cart{}, err
	}

	return cart, nil
}

// FindWithItems loads the cart and its items with products attached; a
// missing cart comes back as an empty one.
func (r *CartRepository) FindWithItems(ctx context.Context, accountID uint) (domain.Cart, error) {
	var cart domain.Cart

	err := r.DB.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Where("account_id = ?", accountID).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Cart{AccountID: accountID}, nil
		}
		return domain.Cart{}, err
	}

	return cart, nil
}

func (r *CartRepository) FindItem(ctx context.Context, cartID, productID uint) (domain.CartItem, error) {
	var item domain.CartItem

	err := r.DB.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.CartItem{}, domain.NewError(domain.KindNotFound, "cart item not found")
		}
		return domain.CartItem{}, err
	}

	return item, nil
}

func (r *CartRepository) FindItemByID(ctx context.Context, itemID uint) (domain.CartItem, error) {
	var item domain.CartItem

	err := r.DB.WithContext(ctx).First(&item, itemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.CartItem{}, domain.NewError(domain.KindNotFound, "cart item not found")
		}
		return domain.CartItem{}, err
	}

	return item, nil
}

func (r *CartRepository) CreateItem(ctx context.Context, item *domain.CartItem) error {
	if err := r.DB.WithContext(ctx).Create(item).Error; err != nil {
		return err
	}

	return r.touch(ctx, item.CartID)
}

func (r *CartRepository) UpdateItemQuantity(ctx context.Context, itemID uint, quantity int) error {
	result := r.DB.WithContext(ctx).Model(&domain.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return domain.NewError(domain.KindNotFound, "cart item not found")
	}

	return nil
}

func (r *CartRepository) DeleteItem(ctx context.Context, itemID uint) error {
	result := r.DB.WithContext(ctx).Delete(&domain.CartItem{}, itemID)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return domain.NewError(domain.KindNotFound, "cart item not found")
	}

	return nil
}

func (r *CartRepository) touch(ctx context.Context, cartID uint) error {
	return r.DB.WithContext(ctx).Model(&domain.Cart{}).
		Where("id = ?", cartID).
		Update("updated_at", time.Now()).Error
}
