package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/evmotors/evdms/internal/model"
)

// RegisterUnits registers quantity factory-fresh units of (variant, color)
// at the manufacturer warehouse, generating a unique VIN serial for each.
// Returns the created units in insertion order.
func RegisterUnits(ctx context.Context, db *sql.DB, variantID int64, color string, quantity int) ([]model.VehicleUnit, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	if color == "" {
		return nil, fmt.Errorf("color is required")
	}

	variant, err := GetVariant(ctx, db, variantID)
	if err != nil {
		return nil, err
	}
	if variant == nil || variant.DeletedAt != nil {
		return nil, fmt.Errorf("variant %d: %w", variantID, ErrNotFound)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var ids []int64
	for i := 0; i < quantity; i++ {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO vehicle_units (vin, variant_id, color) VALUES (?, ?, ?)`,
			newVIN(), variantID, color,
		)
		if err != nil {
			return nil, fmt.Errorf("registering unit: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting unit id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing unit registration: %w", err)
	}

	var units []model.VehicleUnit
	for _, id := range ids {
		u, err := GetUnit(ctx, db, id)
		if err != nil {
			return nil, err
		}
		if u != nil {
			units = append(units, *u)
		}
	}
	return units, nil
}

// newVIN generates a VIN-style serial (17 characters) from a random UUID.
func newVIN() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "EV" + raw[:15]
}

// GetUnit returns a vehicle unit by ID.
func GetUnit(ctx context.Context, db *sql.DB, id int64) (*model.VehicleUnit, error) {
	u := &model.VehicleUnit{}
	err := db.QueryRowContext(ctx,
		`SELECT u.id, u.vin, u.variant_id, u.color, u.location, u.dealer_id, u.status,
		        u.created_at, u.updated_at, v.model_name, v.trim
		 FROM vehicle_units u
		 JOIN variants v ON v.id = u.variant_id
		 WHERE u.id = ?`, id,
	).Scan(&u.ID, &u.VIN, &u.VariantID, &u.Color, &u.Location, &u.DealerID, &u.Status,
		&u.CreatedAt, &u.UpdatedAt, &u.ModelName, &u.Trim)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting unit: %w", err)
	}
	return u, nil
}

// ListUnits returns vehicle units, optionally filtered by location, dealer,
// variant, or status.
func ListUnits(ctx context.Context, db *sql.DB, location string, dealerID, variantID int64, status string) ([]model.VehicleUnit, error) {
	query := `SELECT u.id, u.vin, u.variant_id, u.color, u.location, u.dealer_id, u.status,
	                 u.created_at, u.updated_at, v.model_name, v.trim
	          FROM vehicle_units u
	          JOIN variants v ON v.id = u.variant_id
	          WHERE 1=1`
	var args []any

	if location != "" {
		query += ` AND u.location = ?`
		args = append(args, location)
	}
	if dealerID > 0 {
		query += ` AND u.dealer_id = ?`
		args = append(args, dealerID)
	}
	if variantID > 0 {
		query += ` AND u.variant_id = ?`
		args = append(args, variantID)
	}
	if status != "" {
		query += ` AND u.status = ?`
		args = append(args, status)
	}

	query += ` ORDER BY u.id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing units: %w", err)
	}
	defer rows.Close()

	var units []model.VehicleUnit
	for rows.Next() {
		var u model.VehicleUnit
		if err := rows.Scan(&u.ID, &u.VIN, &u.VariantID, &u.Color, &u.Location, &u.DealerID, &u.Status,
			&u.CreatedAt, &u.UpdatedAt, &u.ModelName, &u.Trim); err != nil {
			return nil, fmt.Errorf("scanning unit: %w", err)
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// CountAvailable returns the number of available units of (variant, color)
// at a location. The count is always derived from unit rows, never cached.
// dealerID is ignored for the manufacturer warehouse.
func CountAvailable(ctx context.Context, db *sql.DB, location string, dealerID, variantID int64, color string) (int, error) {
	var count int
	var err error
	if location == model.LocationManufacturer {
		err = db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM vehicle_units
			 WHERE location = 'manufacturer' AND variant_id = ? AND color = ? AND status = 'available'`,
			variantID, color,
		).Scan(&count)
	} else {
		err = db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM vehicle_units
			 WHERE location = 'dealer' AND dealer_id = ? AND variant_id = ? AND color = ? AND status = 'available'`,
			dealerID, variantID, color,
		).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("counting available units: %w", err)
	}
	return count, nil
}

// pickUnits selects quantity available unit IDs of (variant, color) at a
// location, in ascending ID order so picks are deterministic. Runs inside
// the caller's transaction: the pick and the subsequent move must share one
// transaction so two concurrent calls cannot pick the same unit.
func pickUnits(ctx context.Context, tx *sql.Tx, location string, dealerID, variantID int64, color string, quantity int) ([]int64, error) {
	query := `SELECT id FROM vehicle_units
	          WHERE location = ? AND variant_id = ? AND color = ? AND status = 'available'`
	args := []any{location, variantID, color}
	if location == model.LocationDealer {
		query += ` AND dealer_id = ?`
		args = append(args, dealerID)
	}
	query += ` ORDER BY id LIMIT ?`
	args = append(args, quantity)

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("picking units: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning unit id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("picking units: %w", err)
	}

	if len(ids) < quantity {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientStock, len(ids), quantity)
	}
	return ids, nil
}

// moveUnits reassigns the given units to a new location inside the caller's
// transaction. Sold units are never moved; a shortfall in affected rows
// means a concurrent change and fails the move.
func moveUnits(ctx context.Context, tx *sql.Tx, ids []int64, location string, dealerID *int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(
		`UPDATE vehicle_units
		 SET location = ?, dealer_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id IN (%s) AND status != 'sold'`,
		placeholders(len(ids)),
	)
	args := make([]any, 0, len(ids)+2)
	args = append(args, location, dealerID)
	for _, id := range ids {
		args = append(args, id)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("moving units: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking moved units: %w", err)
	}
	if affected != int64(len(ids)) {
		return fmt.Errorf("%w: moved %d of %d units", ErrInvalidStateTransition, affected, len(ids))
	}
	return nil
}

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
