package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order represents the sale of one vehicle unit to a customer. Creating an
// order reserves the unit; the unit is marked sold when the order is fully
// paid.
type Order struct {
	ID          int64           `json:"id"`
	OrderNo     string          `json:"order_no"`
	DealerID    int64           `json:"dealer_id"`
	CustomerID  int64           `json:"customer_id"`
	UnitID      int64           `json:"unit_id"`
	PromotionID *int64          `json:"promotion_id,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Joined fields (not always populated).
	CustomerName string          `json:"customer_name,omitempty"`
	DealerName   string          `json:"dealer_name,omitempty"`
	VIN          string          `json:"vin,omitempty"`
	Paid         decimal.Decimal `json:"paid"`
	Outstanding  decimal.Decimal `json:"outstanding"`
}

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
)

// Payment represents one payment recorded against an order.
type Payment struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"order_id"`
	Reference  string          `json:"reference"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	PaidAt     time.Time       `json:"paid_at"`
	RecordedBy *int64          `json:"recorded_by,omitempty"`
}

// Payment methods.
const (
	PaymentMethodCash      = "cash"
	PaymentMethodCard      = "card"
	PaymentMethodTransfer  = "transfer"
	PaymentMethodFinancing = "financing"
)

// ValidPaymentMethod reports whether m is a known payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer, PaymentMethodFinancing:
		return true
	}
	return false
}
