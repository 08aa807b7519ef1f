package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/evmotors/evdms/internal/model"
)

// CreatePromotion creates a coded percentage discount with a validity window.
func CreatePromotion(ctx context.Context, db *sql.DB, code, description string, discountPct decimal.Decimal, startsAt, endsAt time.Time) (*model.Promotion, error) {
	if code == "" {
		return nil, fmt.Errorf("code is required")
	}
	if discountPct.IsNegative() || discountPct.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("discount must be between 0 and 100 percent")
	}
	if !endsAt.After(startsAt) {
		return nil, fmt.Errorf("promotion window must end after it starts")
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO promotions (code, description, discount_pct, starts_at, ends_at)
		 VALUES (?, ?, ?, ?, ?)`,
		code, description, discountPct.String(), startsAt, endsAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating promotion: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting promotion id: %w", err)
	}

	return GetPromotion(ctx, db, id)
}

// GetPromotion returns a promotion by ID.
func GetPromotion(ctx context.Context, db *sql.DB, id int64) (*model.Promotion, error) {
	return getPromotion(ctx, db, `WHERE id = ?`, id)
}

// GetPromotionByCode returns a promotion by its code.
func GetPromotionByCode(ctx context.Context, db *sql.DB, code string) (*model.Promotion, error) {
	return getPromotion(ctx, db, `WHERE code = ?`, code)
}

func getPromotion(ctx context.Context, db *sql.DB, where string, arg any) (*model.Promotion, error) {
	p := &model.Promotion{}
	var description sql.NullString
	var discountPct string
	err := db.QueryRowContext(ctx,
		`SELECT id, code, description, discount_pct, starts_at, ends_at, created_at, deleted_at
		 FROM promotions `+where, arg,
	).Scan(&p.ID, &p.Code, &description, &discountPct, &p.StartsAt, &p.EndsAt, &p.CreatedAt, &p.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting promotion: %w", err)
	}
	p.Description = description.String
	p.DiscountPct, err = decimal.NewFromString(discountPct)
	if err != nil {
		return nil, fmt.Errorf("parsing promotion discount: %w", err)
	}
	return p, nil
}

// ListPromotions returns all non-deleted promotions, newest first.
func ListPromotions(ctx context.Context, db *sql.DB) ([]model.Promotion, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, code, description, discount_pct, starts_at, ends_at, created_at, deleted_at
		 FROM promotions WHERE deleted_at IS NULL ORDER BY starts_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing promotions: %w", err)
	}
	defer rows.Close()

	var promotions []model.Promotion
	for rows.Next() {
		var p model.Promotion
		var description sql.NullString
		var discountPct string
		if err := rows.Scan(&p.ID, &p.Code, &description, &discountPct, &p.StartsAt, &p.EndsAt, &p.CreatedAt, &p.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning promotion: %w", err)
		}
		p.Description = description.String
		p.DiscountPct, err = decimal.NewFromString(discountPct)
		if err != nil {
			return nil, fmt.Errorf("parsing promotion discount: %w", err)
		}
		promotions = append(promotions, p)
	}
	return promotions, rows.Err()
}

// DeletePromotion soft-deletes a promotion. Existing orders keep their
// discount; only future use is blocked.
func DeletePromotion(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE promotions SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting promotion: %w", err)
	}
	return nil
}
