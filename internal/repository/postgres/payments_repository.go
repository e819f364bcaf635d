package postgres

import (
	"context"
	"errors"
	"time"

	"techshop/domain"

	"gorm.io/gorm"
)

type PaymentsRepository struct {
	DB *gorm.DB
}

func NewPaymentsRepository(db *gorm.DB) *PaymentsRepository {
	return &PaymentsRepository{
		DB: db,
	}
}

func (r *PaymentsRepository) Create(ctx context.Context, payment *domain.Payment) error {
	if err := r.DB.WithContext(ctx).Create(payment).Error; err != nil {
		return err
	}

	return nil
}

func (r *PaymentsRepository) FindByID(ctx context.Context, paymentID uint) (domain.Payment, error) {
	var payment domain.Payment

	err := r.DB.WithContext(ctx).First(&payment, paymentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Payment{}, domain.NewError(domain.KindNotFound, "payment not found")
		}
		return domain.Payment{}, err
	}

	return payment, nil
}

func (r *PaymentsRepository) FindByOrderID(ctx context.Context, orderID uint) (domain.Payment, error) {
	var payment domain.Payment

	err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Payment{}, domain.NewError(domain.KindNotFound, "payment not found")
		}
		return domain.Payment{}, err
	}

	return payment, nil
}

func (r *PaymentsRepository) FindPaidByOrderID(ctx context.Context, orderID uint) (domain.Payment, error) {
	var payment domain.Payment

	err := r.DB.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, domain.PaymentStatusPaid).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Payment{}, domain.NewError(domain.KindNotFound, "payment not found")
		}
		return domain.Payment{}, err
	}

	return payment, nil
}

func (r *PaymentsRepository) FindByAccount(ctx context.Context, accountID uint) ([]domain.Payment, error) {
	var payments []domain.Payment

	err := r.DB.WithContext(ctx).
		Joins("JOIN orders o ON o.id = payments.order_id").
		Where("o.account_id = ?", accountID).
		Order("payments.created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}

	return payments, nil
}

// MarkPaid sets the payment paid with its gateway transaction reference and,
// in the same transaction, advances the order status when it is still
// Pending or Confirmed.
func (r *PaymentsRepository) MarkPaid(ctx context.Context, paymentID uint, transactionRef *string, gateway *string, paidAt time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment domain.Payment
		if err := tx.First(&payment, paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewError(domain.KindNotFound, "payment not found")
			}
			return err
		}

		updates := map[string]any{
			"status":  domain.PaymentStatusPaid,
			"paid_at": paidAt,
		}
		if transactionRef != nil {
			updates["transaction_ref"] = transactionRef
		}
		if gateway != nil {
			updates["gateway"] = gateway
		}

		if err := tx.Model(&domain.Payment{}).Where("id = ?", paymentID).Updates(updates).Error; err != nil {
			return err
		}

		return tx.Model(&domain.Order{}).
			Where("id = ? AND status IN ?", payment.OrderID,
				[]string{domain.OrderStatusPending, domain.OrderStatusConfirmed}).
			Update("status", domain.OrderStatusPaid).Error
	})
}
