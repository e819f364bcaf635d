package domain

import (
	"fmt"
	"time"
)

// PaymentMethod is a closed set; anything else is rejected before a payment
// row is written.
type PaymentMethod string

const (
	MethodCOD          PaymentMethod = "COD"
	MethodBankTransfer PaymentMethod = "BankTransfer"
	MethodEWallet      PaymentMethod = "EWallet"
	MethodVnpay        PaymentMethod = "VnPay"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case MethodCOD, MethodBankTransfer, MethodEWallet, MethodVnpay:
		return PaymentMethod(s), nil
	}
	return "", NewError(KindInvalidInput, "invalid payment method: "+s)
}

const (
	PaymentStatusUnpaid  = "Unpaid"
	PaymentStatusPending = "Pending"
	PaymentStatusPaid    = "Paid"
)

type Payment struct {
	ID             uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID        uint          `gorm:"column:order_id;not null;index" json:"order_id"`
	Method         PaymentMethod `gorm:"column:method;not null" json:"method"`
	Amount         int64         `gorm:"column:amount;not null" json:"amount"`
	Status         string        `gorm:"column:status;not null" json:"status"`
	TransactionRef *string       `gorm:"column:transaction_ref" json:"transaction_ref"`
	Gateway        *string       `gorm:"column:gateway" json:"gateway"`
	PaidAt         *time.Time    `gorm:"column:paid_at" json:"paid_at"`
	CreatedAt      time.Time     `gorm:"column:created_at" json:"created_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// NeedsSyntheticRef reports whether the row should carry a locally generated
// transaction reference. Gateway payments get theirs from the callback, COD
// gets none.
func (p Payment) NeedsSyntheticRef() bool {
	return p.Method == MethodBankTransfer || p.Method == MethodEWallet
}

// TransactionRef composes the reference stored for non-gateway payments,
// e.g. GD20250601103000042 for order 42.
func TransactionRef(orderID uint, t time.Time) string {
	return fmt.Sprintf("GD%s%d", t.Format("20060102150405"), orderID)
}

// PaymentWithURL is returned when the chosen method needs a hosted payment
// page; URL is where the client must be redirected.
type PaymentWithURL struct {
	Payment
	URL string `json:"url,omitempty"`
}
