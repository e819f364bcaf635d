package postgres

import (
	"context"
	"errors"
	"time"

	"techshop/domain"

	"gorm.io/gorm"
)

type AccountRepository struct {
	DB *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{
		DB: db,
	}
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if err := r.DB.WithContext(ctx).Create(account).Error; err != nil {
		return err
	}

	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id uint) (domain.Account, error) {
	var account domain.Account

	err := r.DB.WithContext(ctx).First(&account, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Account{}, domain.NewError(domain.KindNotFound, "account not found")
		}
		return domain.Account{}, err
	}

	return account, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	var account domain.Account

	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Account{}, domain.NewError(domain.KindNotFound, "account not found")
		}
		return domain.Account{}, err
	}

	return account, nil
}

func (r *AccountRepository) FindAll(ctx context.Context, page, pageSize int, search string) ([]domain.Account, int64, error) {
	var (
		accounts []domain.Account
		total    int64
	)

	query := r.DB.WithContext(ctx).Model(&domain.Account{})
	if search != "" {
		query = query.Where("full_name ILIKE ? OR email ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&accounts).Error
	if err != nil {
		return nil, 0, err
	}

	return accounts, total, nil
}

func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) error {
	account.UpdatedAt = time.Now()

	result := r.DB.WithContext(ctx).Model(&domain.Account{}).Where("id = ?", account.ID).
		Select("full_name", "email", "password", "phone", "address", "avatar_url", "is_active", "role", "updated_at").
		Updates(account)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return domain.NewError(domain.KindNotFound, "account not found")
	}

	return nil
}

// UpdateCode stores or clears the one-time verification code.
func (r *AccountRepository) UpdateCode(ctx context.Context, id uint, code *string) error {
	result := r.DB.WithContext(ctx).Model(&domain.Account{}).Where("id = ?", id).Update("code", code)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return domain.NewError(domain.KindNotFound, "account not found")
	}

	return nil
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	result := r.DB.WithContext(ctx).Model(&domain.Account{}).Where("id = ?", id).
		Updates(map[string]any{"password": passwordHash, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return domain.NewError(domain.KindNotFound, "account not found")
	}

	return nil
}

func (r *AccountRepository) SetActive(ctx context.Context, id uint, active bool) error {
	result := r.DB.WithContext(ctx).Model(&domain.Account{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return domain.NewError(domain.KindNotFound, "account not found")
	}

	return nil
}

// HasOrders reports whether any order references the account. Accounts that
// own orders are soft-disabled instead of deleted.
func (r *AccountRepository) HasOrders(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&domain.Order{}).Where("account_id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id uint) error {
	result := r.DB.WithContext(ctx).Delete(&domain.Account{}, id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return domain.NewError(domain.KindNotFound, "account not found or already deleted")
	}

	return nil
}
