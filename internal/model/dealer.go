package model

import "time"

// Dealer represents one dealership in the sales network.
type Dealer struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Region    string     `json:"region,omitempty"`
	Address   string     `json:"address,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Dealer statuses.
const (
	DealerStatusActive    = "active"
	DealerStatusSuspended = "suspended"
	DealerStatusClosed    = "closed"
)

// ValidDealerStatus reports whether s is a known dealer status.
func ValidDealerStatus(s string) bool {
	switch s {
	case DealerStatusActive, DealerStatusSuspended, DealerStatusClosed:
		return true
	}
	return false
}
