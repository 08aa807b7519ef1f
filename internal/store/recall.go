package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/evmotors/evdms/internal/model"
)

// Recall moves vehicle units from a dealer back to the manufacturer
// warehouse in one transaction. Sold units are never recalled. With
// requestID zero the recall covers everything available at the dealer;
// otherwise it is scoped to the request's (variant, color) lines and the
// request is marked recalled. Zero matching units is a zero-effect success.
func Recall(ctx context.Context, db *sql.DB, requestID, dealerID int64) (*model.RecallResult, error) {
	dealer, err := GetDealer(ctx, db, dealerID)
	if err != nil {
		return nil, err
	}
	if dealer == nil {
		return nil, fmt.Errorf("dealer %d: %w", dealerID, ErrNotFound)
	}

	var request *model.DealerRequest
	if requestID > 0 {
		request, err = GetRequest(ctx, db, requestID)
		if err != nil {
			return nil, err
		}
		if request == nil {
			return nil, fmt.Errorf("request %d: %w", requestID, ErrNotFound)
		}
		if request.DealerID != dealerID {
			return nil, fmt.Errorf("request %d does not belong to dealer %d", requestID, dealerID)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	units, err := selectRecallable(ctx, tx, dealerID, request)
	if err != nil {
		return nil, err
	}

	result := &model.RecallResult{
		RequestID: requestID,
		DealerID:  dealerID,
	}

	if len(units) == 0 {
		result.Message = ErrNoUnitsToRecall.Error()
		return result, nil
	}

	ids := make([]int64, len(units))
	for i, u := range units {
		ids[i] = u.ID
	}

	if err := moveUnits(ctx, tx, ids, model.LocationManufacturer, nil); err != nil {
		return nil, err
	}

	if request != nil {
		if err := unwindFulfilled(ctx, tx, request.ID, units); err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE dealer_requests SET status = 'recalled', updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			request.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("marking request recalled: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing recall: %w", err)
	}

	result.RecalledCount = len(ids)
	result.RecalledUnitIDs = ids
	result.Message = fmt.Sprintf("recalled %d units from dealer %d", len(ids), dealerID)
	return result, nil
}

// recallableUnit is the slice of a vehicle unit the recall needs.
type recallableUnit struct {
	ID        int64
	VariantID int64
	Color     string
}

// selectRecallable returns the available units at the dealer that the recall
// covers, in ascending ID order. With a request, only units matching one of
// the request's (variant, color) lines qualify.
func selectRecallable(ctx context.Context, tx *sql.Tx, dealerID int64, request *model.DealerRequest) ([]recallableUnit, error) {
	query := `SELECT id, variant_id, color FROM vehicle_units
	          WHERE location = 'dealer' AND dealer_id = ? AND status = 'available'`
	args := []any{dealerID}

	if request != nil {
		if len(request.Items) == 0 {
			return nil, nil
		}
		query += ` AND (`
		for i, item := range request.Items {
			if i > 0 {
				query += ` OR `
			}
			query += `(variant_id = ? AND color = ?)`
			args = append(args, item.VariantID, item.Color)
		}
		query += `)`
	}

	query += ` ORDER BY id`

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("selecting recallable units: %w", err)
	}
	defer rows.Close()

	var units []recallableUnit
	for rows.Next() {
		var u recallableUnit
		if err := rows.Scan(&u.ID, &u.VariantID, &u.Color); err != nil {
			return nil, fmt.Errorf("scanning recallable unit: %w", err)
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// unwindFulfilled decrements the request lines' fulfilled quantities by the
// number of units recalled per (variant, color), floored at zero.
func unwindFulfilled(ctx context.Context, tx *sql.Tx, requestID int64, units []recallableUnit) error {
	type line struct {
		variantID int64
		color     string
	}
	counts := make(map[line]int)
	for _, u := range units {
		counts[line{u.VariantID, u.Color}]++
	}

	for l, n := range counts {
		_, err := tx.ExecContext(ctx,
			`UPDATE request_items SET fulfilled_quantity = MAX(fulfilled_quantity - ?, 0)
			 WHERE request_id = ? AND variant_id = ? AND color = ?`,
			n, requestID, l.variantID, l.color,
		)
		if err != nil {
			return fmt.Errorf("unwinding fulfilled quantity: %w", err)
		}
	}
	return nil
}
