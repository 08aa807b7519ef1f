package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/evmotors/evdms/internal/model"
)

// CreateCustomer creates a customer record for a dealer.
func CreateCustomer(ctx context.Context, db *sql.DB, dealerID int64, fullName, email, phone string) (*model.Customer, error) {
	if fullName == "" {
		return nil, fmt.Errorf("full name is required")
	}

	dealer, err := GetDealer(ctx, db, dealerID)
	if err != nil {
		return nil, err
	}
	if dealer == nil || dealer.DeletedAt != nil {
		return nil, fmt.Errorf("dealer %d: %w", dealerID, ErrNotFound)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO customers (dealer_id, full_name, email, phone) VALUES (?, ?, ?, ?)`,
		dealerID, fullName, email, phone,
	)
	if err != nil {
		return nil, fmt.Errorf("creating customer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting customer id: %w", err)
	}

	return GetCustomer(ctx, db, id)
}

// GetCustomer returns a customer by ID.
func GetCustomer(ctx context.Context, db *sql.DB, id int64) (*model.Customer, error) {
	c := &model.Customer{}
	var email, phone sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, dealer_id, full_name, email, phone, created_at, deleted_at
		 FROM customers WHERE id = ?`, id,
	).Scan(&c.ID, &c.DealerID, &c.FullName, &email, &phone, &c.CreatedAt, &c.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting customer: %w", err)
	}
	c.Email = email.String
	c.Phone = phone.String
	return c, nil
}

// ListCustomers returns non-deleted customers, optionally filtered by dealer.
func ListCustomers(ctx context.Context, db *sql.DB, dealerID int64) ([]model.Customer, error) {
	query := `SELECT id, dealer_id, full_name, email, phone, created_at, deleted_at
	          FROM customers WHERE deleted_at IS NULL`
	var args []any

	if dealerID > 0 {
		query += ` AND dealer_id = ?`
		args = append(args, dealerID)
	}

	query += ` ORDER BY full_name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		var c model.Customer
		var email, phone sql.NullString
		if err := rows.Scan(&c.ID, &c.DealerID, &c.FullName, &email, &phone, &c.CreatedAt, &c.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning customer: %w", err)
		}
		c.Email = email.String
		c.Phone = phone.String
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// UpdateCustomer updates a customer's contact details.
func UpdateCustomer(ctx context.Context, db *sql.DB, id int64, fullName, email, phone string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE customers SET full_name = ?, email = ?, phone = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		fullName, email, phone, id,
	)
	if err != nil {
		return fmt.Errorf("updating customer: %w", err)
	}
	return nil
}

// DeleteCustomer soft-deletes a customer.
func DeleteCustomer(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE customers SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting customer: %w", err)
	}
	return nil
}
