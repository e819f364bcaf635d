package domain

import "time"

type Cart struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID uint      `gorm:"column:account_id;not null;index" json:"account_id"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`

	Items []CartItem `gorm:"foreignKey:CartID" json:"items"`
}

func (Cart) TableName() string {
	return "carts"
}

type CartItem struct {
	ID        uint `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    uint `gorm:"column:cart_id;not null;index" json:"cart_id"`
	ProductID uint `gorm:"column:product_id;not null" json:"product_id"`
	Quantity  int  `gorm:"column:quantity;not null" json:"quantity"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
