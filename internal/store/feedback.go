package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/evmotors/evdms/internal/model"
)

// CreateFeedback records a customer rating with a dealer, optionally linked
// to an order.
func CreateFeedback(ctx context.Context, db *sql.DB, dealerID, customerID int64, orderID *int64, rating int, comments string) (*model.Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5")
	}

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

	if orderID != nil {
		order, err := GetOrder(ctx, db, *orderID)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, fmt.Errorf("order %d: %w", *orderID, ErrNotFound)
		}
		if order.CustomerID != customerID {
			return nil, fmt.Errorf("order %d does not belong to customer %d", *orderID, customerID)
		}
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO feedback (dealer_id, customer_id, order_id, rating, comments)
		 VALUES (?, ?, ?, ?, ?)`,
		dealerID, customerID, orderID, rating, comments,
	)
	if err != nil {
		return nil, fmt.Errorf("creating feedback: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting feedback id: %w", err)
	}

	return GetFeedback(ctx, db, id)
}

// GetFeedback returns a feedback entry by ID.
func GetFeedback(ctx context.Context, db *sql.DB, id int64) (*model.Feedback, error) {
	f := &model.Feedback{}
	var comments sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT f.id, f.dealer_id, f.customer_id, f.order_id, f.rating, f.comments, f.created_at,
		        c.full_name
		 FROM feedback f
		 JOIN customers c ON c.id = f.customer_id
		 WHERE f.id = ?`, id,
	).Scan(&f.ID, &f.DealerID, &f.CustomerID, &f.OrderID, &f.Rating, &comments, &f.CreatedAt,
		&f.CustomerName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting feedback: %w", err)
	}
	f.Comments = comments.String
	return f, nil
}

// ListFeedback returns feedback entries, optionally filtered by dealer.
func ListFeedback(ctx context.Context, db *sql.DB, dealerID int64) ([]model.Feedback, error) {
	query := `SELECT f.id, f.dealer_id, f.customer_id, f.order_id, f.rating, f.comments, f.created_at,
	                 c.full_name
	          FROM feedback f
	          JOIN customers c ON c.id = f.customer_id
	          WHERE 1=1`
	var args []any

	if dealerID > 0 {
		query += ` AND f.dealer_id = ?`
		args = append(args, dealerID)
	}

	query += ` ORDER BY f.created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}
	defer rows.Close()

	var entries []model.Feedback
	for rows.Next() {
		var f model.Feedback
		var comments sql.NullString
		if err := rows.Scan(&f.ID, &f.DealerID, &f.CustomerID, &f.OrderID, &f.Rating, &comments, &f.CreatedAt,
			&f.CustomerName); err != nil {
			return nil, fmt.Errorf("scanning feedback: %w", err)
		}
		f.Comments = comments.String
		entries = append(entries, f)
	}
	return entries, rows.Err()
}
