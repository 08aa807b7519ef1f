package model

import "time"

// VehicleUnit represents one physical car. A unit is at exactly one location
// at a time; allocation and recall only ever reassign it, never copy or
// destroy it.
type VehicleUnit struct {
	ID        int64     `json:"id"`
	VIN       string    `json:"vin"`
	VariantID int64     `json:"variant_id"`
	Color     string    `json:"color"`
	Location  string    `json:"location"`
	DealerID  *int64    `json:"dealer_id,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	ModelName  string `json:"model_name,omitempty"`
	Trim       string `json:"trim,omitempty"`
	DealerName string `json:"dealer_name,omitempty"`
}

// Unit locations.
const (
	LocationManufacturer = "manufacturer"
	LocationDealer       = "dealer"
)

// Unit statuses. A sold unit stays assigned to its dealer; the status is
// terminal and excludes the unit from picks and recalls.
const (
	UnitStatusAvailable = "available"
	UnitStatusReserved  = "reserved"
	UnitStatusSold      = "sold"
)
