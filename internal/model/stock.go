package model

// AllocationItem is one requested (variant, color, quantity) line of an
// allocation call.
type AllocationItem struct {
	VariantID int64  `json:"variant_id"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

// AllocationItemResult reports the outcome of a single allocation line.
// A line either moves its full quantity or nothing; Error carries the
// failure reason for lines that moved nothing.
type AllocationItemResult struct {
	VariantID int64   `json:"variant_id"`
	Color     string  `json:"color"`
	Requested int     `json:"requested"`
	Moved     int     `json:"moved"`
	UnitIDs   []int64 `json:"unit_ids,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// AllocationResult aggregates the outcome of one allocation call.
type AllocationResult struct {
	Message      string                 `json:"message"`
	RequestID    int64                  `json:"request_id"`
	DealerID     int64                  `json:"dealer_id"`
	TotalMoved   int                    `json:"total_moved"`
	MovedUnitIDs []int64                `json:"moved_unit_ids,omitempty"`
	Items        []AllocationItemResult `json:"items"`
	FailedItems  int                    `json:"failed_items"`
}

// RecallResult aggregates the outcome of one recall call.
type RecallResult struct {
	Message         string  `json:"message"`
	RequestID       int64   `json:"request_id,omitempty"`
	DealerID        int64   `json:"dealer_id"`
	RecalledCount   int     `json:"recalled_count"`
	RecalledUnitIDs []int64 `json:"recalled_unit_ids,omitempty"`
}

// StockCount is one row of a grouped stock report: how many units of a
// (variant, color, status) group sit at a location.
type StockCount struct {
	Location  string `json:"location"`
	DealerID  *int64 `json:"dealer_id,omitempty"`
	VariantID int64  `json:"variant_id"`
	Color     string `json:"color"`
	Status    string `json:"status"`
	Count     int    `json:"count"`

	// Joined fields (not always populated).
	ModelName  string `json:"model_name,omitempty"`
	Trim       string `json:"trim,omitempty"`
	DealerName string `json:"dealer_name,omitempty"`
}
