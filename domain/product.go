package domain

import (
	"time"
)

// Price is in whole VND. VND has no minor unit, so int64 keeps order totals
// exact; the payment gateway's x100 convention is applied at the adapter.
type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"column:name;type:text;not null" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Price       int64     `gorm:"column:price;not null" json:"price"`
	Stock       int       `gorm:"column:stock;not null;default:0" json:"stock"`
	CategoryID  *uint     `gorm:"column:category_id" json:"category_id"`
	IsListed    bool      `gorm:"column:is_listed;default:true" json:"is_listed"`
	Brand       string    `gorm:"column:brand;type:text" json:"brand"`
	Promo       string    `gorm:"column:promo;type:text" json:"promo"`
	ImageURL    string    `gorm:"column:image_url;type:text" json:"image_url"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (Product) TableName() string {
	return "products"
}
