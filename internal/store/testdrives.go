package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/evmotors/evdms/internal/model"
)

// ScheduleTestDrive books a customer test drive of a variant at a dealer.
func ScheduleTestDrive(ctx context.Context, db *sql.DB, dealerID, customerID, variantID int64, scheduledAt time.Time, notes string) (*model.TestDrive, error) {
	customer, err := GetCustomer(ctx, db, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil || customer.DeletedAt != nil {
		return nil, fmt.Errorf("customer %d: %w", customerID, ErrNotFound)
	}
	if customer.DealerID != dealerID {
		return nil, fmt.Errorf("customer %d does not belong to dealer %d", customerID, dealerID)
	}

	variant, err := GetVariant(ctx, db, variantID)
	if err != nil {
		return nil, err
	}
	if variant == nil || variant.DeletedAt != nil {
		return nil, fmt.Errorf("variant %d: %w", variantID, ErrNotFound)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO test_drives (dealer_id, customer_id, variant_id, scheduled_at, notes)
		 VALUES (?, ?, ?, ?, ?)`,
		dealerID, customerID, variantID, scheduledAt, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("scheduling test drive: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting test drive id: %w", err)
	}

	return GetTestDrive(ctx, db, id)
}

// GetTestDrive returns a test drive by ID.
func GetTestDrive(ctx context.Context, db *sql.DB, id int64) (*model.TestDrive, error) {
	td := &model.TestDrive{}
	var notes sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT t.id, t.dealer_id, t.customer_id, t.variant_id, t.scheduled_at, t.status, t.notes,
		        t.created_at, c.full_name, v.model_name
		 FROM test_drives t
		 JOIN customers c ON c.id = t.customer_id
		 JOIN variants v ON v.id = t.variant_id
		 WHERE t.id = ?`, id,
	).Scan(&td.ID, &td.DealerID, &td.CustomerID, &td.VariantID, &td.ScheduledAt, &td.Status, &notes,
		&td.CreatedAt, &td.CustomerName, &td.ModelName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting test drive: %w", err)
	}
	td.Notes = notes.String
	return td, nil
}

// ListTestDrives returns test drives, optionally filtered by dealer or status.
func ListTestDrives(ctx context.Context, db *sql.DB, dealerID int64, status string) ([]model.TestDrive, error) {
	query := `SELECT t.id, t.dealer_id, t.customer_id, t.variant_id, t.scheduled_at, t.status, t.notes,
	                 t.created_at, c.full_name, v.model_name
	          FROM test_drives t
	          JOIN customers c ON c.id = t.customer_id
	          JOIN variants v ON v.id = t.variant_id
	          WHERE 1=1`
	var args []any

	if dealerID > 0 {
		query += ` AND t.dealer_id = ?`
		args = append(args, dealerID)
	}
	if status != "" {
		query += ` AND t.status = ?`
		args = append(args, status)
	}

	query += ` ORDER BY t.scheduled_at`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing test drives: %w", err)
	}
	defer rows.Close()

	var drives []model.TestDrive
	for rows.Next() {
		var td model.TestDrive
		var notes sql.NullString
		if err := rows.Scan(&td.ID, &td.DealerID, &td.CustomerID, &td.VariantID, &td.ScheduledAt, &td.Status, &notes,
			&td.CreatedAt, &td.CustomerName, &td.ModelName); err != nil {
			return nil, fmt.Errorf("scanning test drive: %w", err)
		}
		td.Notes = notes.String
		drives = append(drives, td)
	}
	return drives, rows.Err()
}

// UpdateTestDriveStatus moves a test drive to a new status. Only scheduled
// test drives can change status.
func UpdateTestDriveStatus(ctx context.Context, db *sql.DB, id int64, status string) error {
	if !model.ValidTestDriveStatus(status) {
		return fmt.Errorf("unknown test drive status %q", status)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE test_drives SET status = ? WHERE id = ? AND status = 'scheduled'`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("updating test drive: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking test drive update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("test drive %d is not scheduled: %w", id, ErrInvalidStateTransition)
	}
	return nil
}
