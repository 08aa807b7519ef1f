package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Variant represents a sellable trim/configuration of a vehicle model.
type Variant struct {
	ID         int64           `json:"id"`
	ModelName  string          `json:"model_name"`
	Trim       string          `json:"trim"`
	BatteryKWh float64         `json:"battery_kwh"`
	RangeKm    int             `json:"range_km"`
	BasePrice  decimal.Decimal `json:"base_price"`
	PhotoMime  string          `json:"photo_mime,omitempty"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  *time.Time      `json:"deleted_at,omitempty"`
}

// Variant statuses.
const (
	VariantStatusActive       = "active"
	VariantStatusDiscontinued = "discontinued"
)
