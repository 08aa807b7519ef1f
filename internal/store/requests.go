package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/evmotors/evdms/internal/model"
)

// CreateRequest creates a dealer stock request with its line items in a
// single transaction.
func CreateRequest(ctx context.Context, db *sql.DB, dealerID int64, notes string, items []model.RequestItem) (*model.DealerRequest, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("at least one line item required")
	}
	for _, item := range items {
		if item.VariantID <= 0 || item.Color == "" || item.Quantity <= 0 {
			return nil, fmt.Errorf("each line needs variant_id, color, and positive quantity")
		}
	}

	dealer, err := GetDealer(ctx, db, dealerID)
	if err != nil {
		return nil, err
	}
	if dealer == nil || dealer.DeletedAt != nil {
		return nil, fmt.Errorf("dealer %d: %w", dealerID, ErrNotFound)
	}
	if dealer.Status != model.DealerStatusActive {
		return nil, fmt.Errorf("dealer %d is %s, cannot request stock", dealerID, dealer.Status)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO dealer_requests (dealer_id, notes) VALUES (?, ?)`,
		dealerID, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	requestID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting request id: %w", err)
	}

	for _, item := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO request_items (request_id, variant_id, color, quantity) VALUES (?, ?, ?, ?)`,
			requestID, item.VariantID, item.Color, item.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("creating request line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing request: %w", err)
	}

	return GetRequest(ctx, db, requestID)
}

// GetRequest returns a dealer request with its line items.
func GetRequest(ctx context.Context, db *sql.DB, id int64) (*model.DealerRequest, error) {
	r := &model.DealerRequest{}
	var notes sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT r.id, r.dealer_id, r.status, r.notes, r.created_at, r.updated_at, d.name
		 FROM dealer_requests r
		 JOIN dealers d ON d.id = r.dealer_id
		 WHERE r.id = ?`, id,
	).Scan(&r.ID, &r.DealerID, &r.Status, &notes, &r.CreatedAt, &r.UpdatedAt, &r.DealerName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting request: %w", err)
	}
	r.Notes = notes.String

	rows, err := db.QueryContext(ctx,
		`SELECT id, request_id, variant_id, color, quantity, fulfilled_quantity
		 FROM request_items WHERE request_id = ? ORDER BY id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("getting request lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.RequestItem
		if err := rows.Scan(&item.ID, &item.RequestID, &item.VariantID, &item.Color, &item.Quantity, &item.FulfilledQuantity); err != nil {
			return nil, fmt.Errorf("scanning request line: %w", err)
		}
		r.Items = append(r.Items, item)
	}
	return r, rows.Err()
}

// ListRequests returns dealer requests, optionally filtered by dealer or
// status. Line items are not populated.
func ListRequests(ctx context.Context, db *sql.DB, dealerID int64, status string) ([]model.DealerRequest, error) {
	query := `SELECT r.id, r.dealer_id, r.status, r.notes, r.created_at, r.updated_at, d.name
	          FROM dealer_requests r
	          JOIN dealers d ON d.id = r.dealer_id
	          WHERE 1=1`
	var args []any

	if dealerID > 0 {
		query += ` AND r.dealer_id = ?`
		args = append(args, dealerID)
	}
	if status != "" {
		query += ` AND r.status = ?`
		args = append(args, status)
	}

	query += ` ORDER BY r.created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer rows.Close()

	var requests []model.DealerRequest
	for rows.Next() {
		var r model.DealerRequest
		var notes sql.NullString
		if err := rows.Scan(&r.ID, &r.DealerID, &r.Status, &notes, &r.CreatedAt, &r.UpdatedAt, &r.DealerName); err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}
		r.Notes = notes.String
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// ReviewRequest approves or rejects a pending request.
func ReviewRequest(ctx context.Context, db *sql.DB, id int64, status string) error {
	if status != model.RequestStatusApproved && status != model.RequestStatusRejected {
		return fmt.Errorf("review status must be approved or rejected")
	}

	result, err := db.ExecContext(ctx,
		`UPDATE dealer_requests SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'pending'`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("reviewing request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking request review: %w", err)
	}
	if affected == 0 {
		request, err := GetRequest(ctx, db, id)
		if err != nil {
			return err
		}
		if request == nil {
			return fmt.Errorf("request %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("request %d is %s, only pending requests can be reviewed", id, request.Status)
	}
	return nil
}
