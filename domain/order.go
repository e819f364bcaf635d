package domain

import "time"

const (
	OrderStatusPending   = "Pending"
	OrderStatusConfirmed = "Confirmed"
	OrderStatusPaid      = "Paid"
	OrderStatusShipped   = "Shipped"
	OrderStatusDelivered = "Delivered"
	OrderStatusCompleted = "Completed"
)

type Order struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID        uint      `gorm:"column:account_id;not null;index" json:"account_id"`
	PlacedAt         time.Time `gorm:"column:placed_at" json:"placed_at"`
	Total            int64     `gorm:"column:total;not null" json:"total"`
	ShippingFee      int64     `gorm:"column:shipping_fee;not null;default:0" json:"shipping_fee"`
	Status           string    `gorm:"column:status;not null" json:"status"`
	RecipientName    string    `gorm:"column:recipient_name;not null" json:"recipient_name"`
	RecipientAddress string    `gorm:"column:recipient_address;not null" json:"recipient_address"`
	RecipientPhone   string    `gorm:"column:recipient_phone;not null" json:"recipient_phone"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

func (Order) TableName() string {
	return "orders"
}

// UnitPrice is the product price frozen at order time. It is intentionally
// decoupled from later Product price changes.
type OrderItem struct {
	ID        uint  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uint  `gorm:"column:order_id;not null;index" json:"order_id"`
	ProductID uint  `gorm:"column:product_id;not null" json:"product_id"`
	Quantity  int   `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice int64 `gorm:"column:unit_price;not null" json:"unit_price"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// IsTerminal reports whether the order reached a state that cancellation
// must not undo.
func (o Order) IsTerminal() bool {
	return o.Status == OrderStatusDelivered || o.Status == OrderStatusCompleted
}
