package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/evmotors/evdms/internal/model"
)

// CreateDealer creates a new dealer.
func CreateDealer(ctx context.Context, db *sql.DB, name, region, address string) (*model.Dealer, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO dealers (name, region, address) VALUES (?, ?, ?)`,
		name, region, address,
	)
	if err != nil {
		return nil, fmt.Errorf("creating dealer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting dealer id: %w", err)
	}

	return GetDealer(ctx, db, id)
}

// GetDealer returns a dealer by ID.
func GetDealer(ctx context.Context, db *sql.DB, id int64) (*model.Dealer, error) {
	d := &model.Dealer{}
	var region, address sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, region, address, status, created_at, deleted_at
		 FROM dealers WHERE id = ?`, id,
	).Scan(&d.ID, &d.Name, &region, &address, &d.Status, &d.CreatedAt, &d.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting dealer: %w", err)
	}
	d.Region = region.String
	d.Address = address.String
	return d, nil
}

// ListDealers returns all non-deleted dealers, optionally filtered by status.
func ListDealers(ctx context.Context, db *sql.DB, status string) ([]model.Dealer, error) {
	query := `SELECT id, name, region, address, status, created_at, deleted_at
	          FROM dealers WHERE deleted_at IS NULL`
	var args []any

	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}

	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing dealers: %w", err)
	}
	defer rows.Close()

	var dealers []model.Dealer
	for rows.Next() {
		var d model.Dealer
		var region, address sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &region, &address, &d.Status, &d.CreatedAt, &d.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning dealer: %w", err)
		}
		d.Region = region.String
		d.Address = address.String
		dealers = append(dealers, d)
	}
	return dealers, rows.Err()
}

// UpdateDealer updates a dealer's details and status.
func UpdateDealer(ctx context.Context, db *sql.DB, id int64, name, region, address, status string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE dealers SET name = ?, region = ?, address = ?, status = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		name, region, address, status, id,
	)
	if err != nil {
		return fmt.Errorf("updating dealer: %w", err)
	}
	return nil
}

// DeleteDealer soft-deletes a dealer. Fails while the dealer still holds
// vehicle units; those must be recalled or sold first.
func DeleteDealer(ctx context.Context, db *sql.DB, id int64) error {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vehicle_units WHERE dealer_id = ? AND status != 'sold'`, id,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking dealer stock: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("cannot delete dealer: still holds %d vehicle units", count)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE dealers SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting dealer: %w", err)
	}
	return nil
}
