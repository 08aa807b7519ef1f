package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Promotion represents a coded percentage discount with a validity window.
type Promotion struct {
	ID          int64           `json:"id"`
	Code        string          `json:"code"`
	Description string          `json:"description,omitempty"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	StartsAt    time.Time       `json:"starts_at"`
	EndsAt      time.Time       `json:"ends_at"`
	CreatedAt   time.Time       `json:"created_at"`
	DeletedAt   *time.Time      `json:"deleted_at,omitempty"`
}

// ActiveAt reports whether the promotion is inside its validity window at t.
func (p Promotion) ActiveAt(t time.Time) bool {
	return !t.Before(p.StartsAt) && !t.After(p.EndsAt)
}
