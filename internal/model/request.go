package model

import "time"

// DealerRequest represents a dealer's stock request to the manufacturer.
type DealerRequest struct {
	ID        int64         `json:"id"`
	DealerID  int64         `json:"dealer_id"`
	Status    string        `json:"status"`
	Notes     string        `json:"notes,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Items     []RequestItem `json:"items,omitempty"`

	// Joined fields (not always populated).
	DealerName string `json:"dealer_name,omitempty"`
}

// RequestItem is one (variant, color, quantity) line of a dealer request.
type RequestItem struct {
	ID                int64  `json:"id"`
	RequestID         int64  `json:"request_id"`
	VariantID         int64  `json:"variant_id"`
	Color             string `json:"color"`
	Quantity          int    `json:"quantity"`
	FulfilledQuantity int    `json:"fulfilled_quantity"`
}

// Fulfilled reports whether the line's full requested quantity has been
// allocated. Partial allocations leave the line open.
func (i RequestItem) Fulfilled() bool {
	return i.FulfilledQuantity >= i.Quantity
}

// Dealer request statuses.
const (
	RequestStatusPending   = "pending"
	RequestStatusApproved  = "approved"
	RequestStatusRejected  = "rejected"
	RequestStatusDelivered = "delivered"
	RequestStatusRecalled  = "recalled"
)
