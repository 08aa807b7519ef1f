package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesSummary aggregates a dealer's order activity over a period.
type SalesSummary struct {
	DealerID    int64           `json:"dealer_id"`
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	OrderCount  int             `json:"order_count"`
	UnitsSold   int             `json:"units_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
	Collected   decimal.Decimal `json:"collected"`
	Outstanding decimal.Decimal `json:"outstanding"`
}
