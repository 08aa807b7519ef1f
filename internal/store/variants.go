package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/evmotors/evdms/internal/model"
)

// CreateVariant creates a new vehicle variant.
func CreateVariant(ctx context.Context, db *sql.DB, modelName, trim string, batteryKWh float64, rangeKm int, basePrice decimal.Decimal) (*model.Variant, error) {
	if modelName == "" || trim == "" {
		return nil, fmt.Errorf("model name and trim are required")
	}
	if basePrice.IsNegative() {
		return nil, fmt.Errorf("base price cannot be negative")
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO variants (model_name, trim, battery_kwh, range_km, base_price) VALUES (?, ?, ?, ?, ?)`,
		modelName, trim, batteryKWh, rangeKm, basePrice.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating variant: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting variant id: %w", err)
	}

	return GetVariant(ctx, db, id)
}

// GetVariant returns a variant by ID.
func GetVariant(ctx context.Context, db *sql.DB, id int64) (*model.Variant, error) {
	v := &model.Variant{}
	var photoMime sql.NullString
	var basePrice string
	err := db.QueryRowContext(ctx,
		`SELECT id, model_name, trim, battery_kwh, range_km, base_price, photo_mime, status,
		        created_at, updated_at, deleted_at
		 FROM variants WHERE id = ?`, id,
	).Scan(&v.ID, &v.ModelName, &v.Trim, &v.BatteryKWh, &v.RangeKm, &basePrice, &photoMime, &v.Status,
		&v.CreatedAt, &v.UpdatedAt, &v.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting variant: %w", err)
	}
	v.PhotoMime = photoMime.String
	v.BasePrice, err = decimal.NewFromString(basePrice)
	if err != nil {
		return nil, fmt.Errorf("parsing variant price: %w", err)
	}
	return v, nil
}

// ListVariants returns all non-deleted variants, optionally filtered by status.
func ListVariants(ctx context.Context, db *sql.DB, status string) ([]model.Variant, error) {
	query := `SELECT id, model_name, trim, battery_kwh, range_km, base_price, photo_mime, status,
	                 created_at, updated_at, deleted_at
	          FROM variants WHERE deleted_at IS NULL`
	var args []any

	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}

	query += ` ORDER BY model_name, trim`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing variants: %w", err)
	}
	defer rows.Close()

	var variants []model.Variant
	for rows.Next() {
		var v model.Variant
		var photoMime sql.NullString
		var basePrice string
		if err := rows.Scan(&v.ID, &v.ModelName, &v.Trim, &v.BatteryKWh, &v.RangeKm, &basePrice, &photoMime, &v.Status,
			&v.CreatedAt, &v.UpdatedAt, &v.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning variant: %w", err)
		}
		v.PhotoMime = photoMime.String
		v.BasePrice, err = decimal.NewFromString(basePrice)
		if err != nil {
			return nil, fmt.Errorf("parsing variant price: %w", err)
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

// UpdateVariant updates a variant's metadata and price.
func UpdateVariant(ctx context.Context, db *sql.DB, id int64, modelName, trim string, batteryKWh float64, rangeKm int, basePrice decimal.Decimal, status string) error {
	if basePrice.IsNegative() {
		return fmt.Errorf("base price cannot be negative")
	}

	_, err := db.ExecContext(ctx,
		`UPDATE variants SET model_name = ?, trim = ?, battery_kwh = ?, range_km = ?,
		        base_price = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		modelName, trim, batteryKWh, rangeKm, basePrice.String(), status, id,
	)
	if err != nil {
		return fmt.Errorf("updating variant: %w", err)
	}
	return nil
}

// DeleteVariant soft-deletes a variant.
func DeleteVariant(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE variants SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting variant: %w", err)
	}
	return nil
}

// SetVariantPhoto stores a variant's processed photo.
func SetVariantPhoto(ctx context.Context, db *sql.DB, id int64, photo []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE variants SET photo = ?, photo_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		photo, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting variant photo: %w", err)
	}
	return nil
}

// GetVariantPhoto returns a variant's photo data and MIME type.
func GetVariantPhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM variants WHERE id = ?`, id,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting variant photo: %w", err)
	}
	return photo, mime.String, nil
}
