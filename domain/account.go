package domain

import (
	"time"

	"gorm.io/gorm"
)

type Account struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	FullName  string         `gorm:"column:full_name;not null" json:"full_name"`
	Email     string         `gorm:"column:email;unique;not null" json:"email"`
	Password  string         `gorm:"column:password;not null" json:"-"`
	Phone     string         `gorm:"column:phone" json:"phone"`
	Address   string         `gorm:"column:address" json:"address"`
	AvatarURL string         `gorm:"column:avatar_url" json:"avatar_url"`
	IsActive  bool           `gorm:"column:is_active;default:true" json:"is_active"`
	Code      *string        `gorm:"column:code" json:"-"`
	Role      string         `gorm:"column:role;default:customer" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Account) TableName() string {
	return "accounts"
}
