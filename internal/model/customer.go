package model

import "time"

// Customer represents a customer record owned by a dealer.
type Customer struct {
	ID        int64      `json:"id"`
	DealerID  int64      `json:"dealer_id"`
	FullName  string     `json:"full_name"`
	Email     string     `json:"email,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
