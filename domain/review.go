package domain

import "time"

type Review struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID uint      `gorm:"column:account_id;not null;index" json:"account_id"`
	ProductID uint      `gorm:"column:product_id;not null;index" json:"product_id"`
	Score     int       `gorm:"column:score;not null" json:"score"`
	Body      string    `gorm:"column:body;type:text" json:"body"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`

	Account *Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}

func (Review) TableName() string {
	return "reviews"
}
