package model

import "time"

// TestDrive represents a scheduled customer test drive of a variant.
type TestDrive struct {
	ID          int64     `json:"id"`
	DealerID    int64     `json:"dealer_id"`
	CustomerID  int64     `json:"customer_id"`
	VariantID   int64     `json:"variant_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	// Joined fields (not always populated).
	CustomerName string `json:"customer_name,omitempty"`
	ModelName    string `json:"model_name,omitempty"`
}

// Test drive statuses.
const (
	TestDriveStatusScheduled = "scheduled"
	TestDriveStatusCompleted = "completed"
	TestDriveStatusCancelled = "cancelled"
	TestDriveStatusNoShow    = "no_show"
)

// ValidTestDriveStatus reports whether s is a known test drive status.
func ValidTestDriveStatus(s string) bool {
	switch s {
	case TestDriveStatusScheduled, TestDriveStatusCompleted, TestDriveStatusCancelled, TestDriveStatusNoShow:
		return true
	}
	return false
}
