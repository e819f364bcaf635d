package postgres

import (
	"context"
	"errors"
	"time"

	"techshop/domain"

	"gorm.io/gorm"
)

type OrdersRepository struct {
	DB *gorm.DB
}

func NewOrdersRepository(db *gorm.DB) *OrdersRepository {
	return &OrdersRepository{
		DB: db,
	}
}

// CreateOrder commits the whole order write in one transaction: the order
// header with its items, a conditional stock decrement per item, the cart
// clear, and the optional payment row. Any failure rolls everything back.
//
// The decrement is guarded by `stock >= quantity` inside the UPDATE itself,
// so two concurrent orders racing over the same product cannot drive stock
// negative; the loser fails the whole transaction.
func (r *OrdersRepository) CreateOrder(ctx context.Context, order *domain.Order, cartID uint, payment *domain.Payment) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		for _, item := range order.Items {
			result := tx.Model(&domain.Product{}).
				Where("id = ? AND stock >= ?", item.ProductID, item.Quantity).
				Update("stock", gorm.Expr("stock - ?", item.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return domain.NewError(domain.KindInsufficientStock, "insufficient stock for product")
			}
		}

		if err := tx.Where("cart_id = ?", cartID).Delete(&domain.CartItem{}).Error; err != nil {
			return err
		}

		if payment != nil {
			payment.OrderID = order.ID
			if payment.TransactionRef == nil && payment.NeedsSyntheticRef() {
				ref := domain.TransactionRef(order.ID, time.Now())
				payment.TransactionRef = &ref
			}
			if err := tx.Create(payment).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// CancelOrder restores each item's quantity onto product stock, then removes
// items, payments and the order itself, all in one transaction.
func (r *OrdersRepository) CancelOrder(ctx context.Context, order domain.Order) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			err := tx.Model(&domain.Product{}).
				Where("id = ?", item.ProductID).
				Update("stock", gorm.Expr("stock + ?", item.Quantity)).Error
			if err != nil {
				return err
			}
		}

		if err := tx.Where("order_id = ?", order.ID).Delete(&domain.OrderItem{}).Error; err != nil {
			return err
		}

		if err := tx.Where("order_id = ?", order.ID).Delete(&domain.Payment{}).Error; err != nil {
			return err
		}

		return tx.Delete(&domain.Order{}, order.ID).Error
	})
}

func (r *OrdersRepository) FindByID(ctx context.Context, orderID uint) (domain.Order, error) {
	var order domain.Order

	err := r.DB.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Order{}, domain.NewError(domain.KindNotFound, "order not found")
		}
		return domain.Order{}, err
	}

	return order, nil
}

// FindOwned is the owner-scoped lookup: the order must belong to accountID.
func (r *OrdersRepository) FindOwned(ctx context.Context, orderID, accountID uint) (domain.Order, error) {
	var order domain.Order

	err := r.DB.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Where("id = ? AND account_id = ?", orderID, accountID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Order{}, domain.NewError(domain.KindNotFound, "order not found")
		}
		return domain.Order{}, err
	}

	return order, nil
}

func (r *OrdersRepository) FindByAccount(ctx context.Context, accountID uint, page, pageSize int) ([]domain.Order, int64, error) {
	var (
		orders []domain.Order
		total  int64
	)

	query := r.DB.WithContext(ctx).Model(&domain.Order{}).Where("account_id = ?", accountID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Items").
		Preload("Items.Product").
		Order("placed_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *OrdersRepository) FindAll(ctx context.Context, page, pageSize int, status string) ([]domain.Order, int64, error) {
	var (
		orders []domain.Order
		total  int64
	)

	query := r.DB.WithContext(ctx).Model(&domain.Order{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Items").
		Order("placed_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *OrdersRepository) UpdateStatus(ctx context.Context, orderID uint, status string) error {
	result := r.DB.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ?", orderID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return domain.NewError(domain.KindNotFound, "order not found")
	}

	return nil
}
