package model

import "time"

// Feedback represents a customer rating left with a dealer, optionally
// linked to an order.
type Feedback struct {
	ID         int64     `json:"id"`
	DealerID   int64     `json:"dealer_id"`
	CustomerID int64     `json:"customer_id"`
	OrderID    *int64    `json:"order_id,omitempty"`
	Rating     int       `json:"rating"`
	Comments   string    `json:"comments,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	// Joined fields (not always populated).
	CustomerName string `json:"customer_name,omitempty"`
}
