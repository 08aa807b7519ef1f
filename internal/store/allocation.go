package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/evmotors/evdms/internal/model"
)

// Allocate moves the requested line items from the manufacturer warehouse to
// a dealer, against an approved dealer request. Each line item runs in its
// own transaction and either moves its full quantity or nothing; a failed
// line is recorded in the result and does not abort its siblings. Only
// invalid dealer/request references fail the whole call.
func Allocate(ctx context.Context, db *sql.DB, requestID, dealerID int64, items []model.AllocationItem) (*model.AllocationResult, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("at least one line item required")
	}

	dealer, err := GetDealer(ctx, db, dealerID)
	if err != nil {
		return nil, err
	}
	if dealer == nil || dealer.DeletedAt != nil {
		return nil, fmt.Errorf("dealer %d: %w", dealerID, ErrNotFound)
	}
	if dealer.Status != model.DealerStatusActive {
		return nil, fmt.Errorf("dealer %d is %s, cannot receive stock", dealerID, dealer.Status)
	}

	request, err := GetRequest(ctx, db, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, fmt.Errorf("request %d: %w", requestID, ErrNotFound)
	}
	if request.DealerID != dealerID {
		return nil, fmt.Errorf("request %d does not belong to dealer %d", requestID, dealerID)
	}
	if request.Status != model.RequestStatusApproved {
		return nil, fmt.Errorf("request %d is %s, must be approved for allocation", requestID, request.Status)
	}

	result := &model.AllocationResult{
		RequestID: requestID,
		DealerID:  dealerID,
	}

	var requestedTotal int
	for _, item := range items {
		requestedTotal += item.Quantity
		itemResult := allocateItem(ctx, db, requestID, dealerID, item)
		if itemResult.Error != "" {
			result.FailedItems++
		} else {
			result.TotalMoved += itemResult.Moved
			result.MovedUnitIDs = append(result.MovedUnitIDs, itemResult.UnitIDs...)
		}
		result.Items = append(result.Items, itemResult)
	}

	result.Message = fmt.Sprintf("allocated %d of %d requested units to dealer %d",
		result.TotalMoved, requestedTotal, dealerID)

	// The request is delivered once every line has its full quantity.
	if result.TotalMoved > 0 {
		if err := markDeliveredIfComplete(ctx, db, requestID); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// allocateItem moves one line item in a single transaction. The pick and the
// move share the transaction so concurrent allocations cannot claim the same
// units. Any failure rolls the item back whole.
func allocateItem(ctx context.Context, db *sql.DB, requestID, dealerID int64, item model.AllocationItem) model.AllocationItemResult {
	itemResult := model.AllocationItemResult{
		VariantID: item.VariantID,
		Color:     item.Color,
		Requested: item.Quantity,
	}

	if item.Quantity <= 0 || item.VariantID <= 0 || item.Color == "" {
		itemResult.Error = "variant_id, color, and positive quantity required"
		return itemResult
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		itemResult.Error = fmt.Sprintf("beginning transaction: %v", err)
		return itemResult
	}
	defer tx.Rollback()

	// Every item must map to a request line with enough quantity left; stock
	// never leaves the warehouse without a fulfillment trace on the request.
	var requested, fulfilled int
	err = tx.QueryRowContext(ctx,
		`SELECT quantity, fulfilled_quantity FROM request_items
		 WHERE request_id = ? AND variant_id = ? AND color = ?`,
		requestID, item.VariantID, item.Color,
	).Scan(&requested, &fulfilled)
	if err == sql.ErrNoRows {
		itemResult.Error = fmt.Sprintf("request %d has no line for variant %d color %s", requestID, item.VariantID, item.Color)
		return itemResult
	}
	if err != nil {
		itemResult.Error = fmt.Sprintf("checking request line: %v", err)
		return itemResult
	}
	if remaining := requested - fulfilled; item.Quantity > remaining {
		itemResult.Error = fmt.Sprintf("line has %d of %d units left to fulfill, %d requested", remaining, requested, item.Quantity)
		return itemResult
	}

	ids, err := pickUnits(ctx, tx, model.LocationManufacturer, 0, item.VariantID, item.Color, item.Quantity)
	if err != nil {
		itemResult.Error = err.Error()
		return itemResult
	}

	if err := moveUnits(ctx, tx, ids, model.LocationDealer, &dealerID); err != nil {
		itemResult.Error = err.Error()
		return itemResult
	}

	// Bump the matching request line's fulfilled count; the line only counts
	// as fulfilled once the cumulative total reaches the requested quantity.
	_, err = tx.ExecContext(ctx,
		`UPDATE request_items SET fulfilled_quantity = fulfilled_quantity + ?
		 WHERE request_id = ? AND variant_id = ? AND color = ?`,
		item.Quantity, requestID, item.VariantID, item.Color,
	)
	if err != nil {
		itemResult.Error = fmt.Sprintf("updating request line: %v", err)
		return itemResult
	}

	if err := tx.Commit(); err != nil {
		itemResult.Error = fmt.Sprintf("committing allocation: %v", err)
		return itemResult
	}

	itemResult.Moved = item.Quantity
	itemResult.UnitIDs = ids
	return itemResult
}

// markDeliveredIfComplete transitions an approved request to delivered when
// no line is short of its requested quantity.
func markDeliveredIfComplete(ctx context.Context, db *sql.DB, requestID int64) error {
	var open int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM request_items
		 WHERE request_id = ? AND fulfilled_quantity < quantity`,
		requestID,
	).Scan(&open)
	if err != nil {
		return fmt.Errorf("checking open request lines: %w", err)
	}
	if open > 0 {
		return nil
	}

	_, err = db.ExecContext(ctx,
		`UPDATE dealer_requests SET status = 'delivered', updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'approved'`,
		requestID,
	)
	if err != nil {
		return fmt.Errorf("marking request delivered: %w", err)
	}
	return nil
}
