package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/evmotors/evdms/internal/model"
)

// StockSummary returns grouped unit counts by (variant, color, status) for
// one location: the manufacturer warehouse or a single dealer. The query
// runs in a read-only transaction so concurrent allocations cannot produce
// a partial count across groups.
func StockSummary(ctx context.Context, db *sql.DB, location string, dealerID int64) ([]model.StockCount, error) {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("beginning report transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT u.location, u.dealer_id, u.variant_id, u.color, u.status, COUNT(*),
	                 v.model_name, v.trim
	          FROM vehicle_units u
	          JOIN variants v ON v.id = u.variant_id
	          WHERE u.location = ?`
	args := []any{location}
	if location == model.LocationDealer {
		query += ` AND u.dealer_id = ?`
		args = append(args, dealerID)
	}
	query += ` GROUP BY u.variant_id, u.color, u.status
	           ORDER BY v.model_name, v.trim, u.color, u.status`

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying stock summary: %w", err)
	}
	defer rows.Close()

	counts, err := scanStockCounts(rows, false)
	if err != nil {
		return nil, err
	}
	return counts, tx.Commit()
}

// NetworkStock returns grouped unit counts for the whole network: the
// manufacturer warehouse and every dealer, one row per (location, variant,
// color, status) group, from a single consistent snapshot.
func NetworkStock(ctx context.Context, db *sql.DB) ([]model.StockCount, error) {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("beginning report transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT u.location, u.dealer_id, u.variant_id, u.color, u.status, COUNT(*),
		        v.model_name, v.trim, COALESCE(d.name, '')
		 FROM vehicle_units u
		 JOIN variants v ON v.id = u.variant_id
		 LEFT JOIN dealers d ON d.id = u.dealer_id
		 GROUP BY u.location, u.dealer_id, u.variant_id, u.color, u.status
		 ORDER BY u.location, u.dealer_id, v.model_name, v.trim, u.color, u.status`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying network stock: %w", err)
	}
	defer rows.Close()

	counts, err := scanStockCounts(rows, true)
	if err != nil {
		return nil, err
	}
	return counts, tx.Commit()
}

func scanStockCounts(rows *sql.Rows, withDealerName bool) ([]model.StockCount, error) {
	var counts []model.StockCount
	for rows.Next() {
		var c model.StockCount
		var err error
		if withDealerName {
			err = rows.Scan(&c.Location, &c.DealerID, &c.VariantID, &c.Color, &c.Status, &c.Count,
				&c.ModelName, &c.Trim, &c.DealerName)
		} else {
			err = rows.Scan(&c.Location, &c.DealerID, &c.VariantID, &c.Color, &c.Status, &c.Count,
				&c.ModelName, &c.Trim)
		}
		if err != nil {
			return nil, fmt.Errorf("scanning stock count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// SalesSummary aggregates a dealer's non-cancelled orders within [from, to].
// Money sums are computed in Go with decimal arithmetic rather than SQL
// floats.
func SalesSummary(ctx context.Context, db *sql.DB, dealerID int64, from, to time.Time) (*model.SalesSummary, error) {
	dealer, err := GetDealer(ctx, db, dealerID)
	if err != nil {
		return nil, err
	}
	if dealer == nil {
		return nil, fmt.Errorf("dealer %d: %w", dealerID, ErrNotFound)
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("beginning report transaction: %w", err)
	}
	defer tx.Rollback()

	summary := &model.SalesSummary{
		DealerID:    dealerID,
		From:        from,
		To:          to,
		Revenue:     decimal.Zero,
		Collected:   decimal.Zero,
		Outstanding: decimal.Zero,
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT total, status FROM orders
		 WHERE dealer_id = ? AND status != 'cancelled'
		   AND created_at >= ? AND created_at <= ?`,
		dealerID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sales summary: %w", err)
	}
	for rows.Next() {
		var total, status string
		if err := rows.Scan(&total, &status); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning sales row: %w", err)
		}
		orderTotal, err := decimal.NewFromString(total)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("parsing order total: %w", err)
		}
		summary.OrderCount++
		if status == model.OrderStatusPaid {
			summary.UnitsSold++
		}
		summary.Revenue = summary.Revenue.Add(orderTotal)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("reading sales summary: %w", err)
	}
	rows.Close()

	payRows, err := tx.QueryContext(ctx,
		`SELECT p.amount FROM payments p
		 JOIN orders o ON o.id = p.order_id
		 WHERE o.dealer_id = ? AND o.status != 'cancelled'
		   AND o.created_at >= ? AND o.created_at <= ?`,
		dealerID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("querying payments: %w", err)
	}
	defer payRows.Close()

	for payRows.Next() {
		var amount string
		if err := payRows.Scan(&amount); err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}
		paid, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parsing payment amount: %w", err)
		}
		summary.Collected = summary.Collected.Add(paid)
	}
	if err := payRows.Err(); err != nil {
		return nil, fmt.Errorf("reading payments: %w", err)
	}

	summary.Outstanding = summary.Revenue.Sub(summary.Collected)
	return summary, tx.Commit()
}
