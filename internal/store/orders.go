package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/evmotors/evdms/internal/model"
)

// CreateOrder sells one vehicle unit at a dealer to a customer. The unit is
// reserved (available -> reserved) inside the same transaction that creates
// the order, so two orders can never claim the same unit. An optional
// promotion code applies a percentage discount if inside its window.
func CreateOrder(ctx context.Context, db *sql.DB, dealerID, customerID, unitID int64, promoCode string) (*model.Order, error) {
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

	var promo *model.Promotion
	if promoCode != "" {
		promo, err = GetPromotionByCode(ctx, db, promoCode)
		if err != nil {
			return nil, err
		}
		if promo == nil || promo.DeletedAt != nil {
			return nil, fmt.Errorf("promotion %q: %w", promoCode, ErrNotFound)
		}
		if !promo.ActiveAt(time.Now()) {
			return nil, fmt.Errorf("promotion %q is outside its validity window", promoCode)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var variantID int64
	var location, status string
	var unitDealerID sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT variant_id, location, dealer_id, status FROM vehicle_units WHERE id = ?`,
		unitID,
	).Scan(&variantID, &location, &unitDealerID, &status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("unit %d: %w", unitID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking unit: %w", err)
	}
	if location != model.LocationDealer || !unitDealerID.Valid || unitDealerID.Int64 != dealerID {
		return nil, fmt.Errorf("unit %d is not at dealer %d: %w", unitID, dealerID, ErrInvalidStateTransition)
	}
	if status != model.UnitStatusAvailable {
		return nil, fmt.Errorf("unit %d is %s: %w", unitID, status, ErrInvalidStateTransition)
	}

	var priceStr string
	err = tx.QueryRowContext(ctx,
		`SELECT base_price FROM variants WHERE id = ?`, variantID,
	).Scan(&priceStr)
	if err != nil {
		return nil, fmt.Errorf("getting variant price: %w", err)
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("parsing variant price: %w", err)
	}

	discount := decimal.Zero
	var promotionID *int64
	if promo != nil {
		discount = price.Mul(promo.DiscountPct).Div(decimal.NewFromInt(100)).Round(2)
		promotionID = &promo.ID
	}
	total := price.Sub(discount)

	// Reserve the unit; the guard catches a concurrent reservation.
	result, err := tx.ExecContext(ctx,
		`UPDATE vehicle_units SET status = 'reserved', updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'available'`,
		unitID,
	)
	if err != nil {
		return nil, fmt.Errorf("reserving unit: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking reservation: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("unit %d was reserved concurrently: %w", unitID, ErrInvalidStateTransition)
	}

	orderNo := "ORD-" + uuid.NewString()
	insert, err := tx.ExecContext(ctx,
		`INSERT INTO orders (order_no, dealer_id, customer_id, unit_id, promotion_id, price, discount, total)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		orderNo, dealerID, customerID, unitID, promotionID, price.String(), discount.String(), total.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}
	orderID, err := insert.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting order id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing order: %w", err)
	}

	return GetOrder(ctx, db, orderID)
}

// GetOrder returns an order with its payment totals.
func GetOrder(ctx context.Context, db *sql.DB, id int64) (*model.Order, error) {
	o := &model.Order{}
	var price, discount, total string
	err := db.QueryRowContext(ctx,
		`SELECT o.id, o.order_no, o.dealer_id, o.customer_id, o.unit_id, o.promotion_id,
		        o.price, o.discount, o.total, o.status, o.created_at, o.updated_at,
		        c.full_name, d.name, u.vin
		 FROM orders o
		 JOIN customers c ON c.id = o.customer_id
		 JOIN dealers d ON d.id = o.dealer_id
		 JOIN vehicle_units u ON u.id = o.unit_id
		 WHERE o.id = ?`, id,
	).Scan(&o.ID, &o.OrderNo, &o.DealerID, &o.CustomerID, &o.UnitID, &o.PromotionID,
		&price, &discount, &total, &o.Status, &o.CreatedAt, &o.UpdatedAt,
		&o.CustomerName, &o.DealerName, &o.VIN)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}

	if o.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parsing order price: %w", err)
	}
	if o.Discount, err = decimal.NewFromString(discount); err != nil {
		return nil, fmt.Errorf("parsing order discount: %w", err)
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parsing order total: %w", err)
	}

	o.Paid, err = sumPayments(ctx, db, id)
	if err != nil {
		return nil, err
	}
	o.Outstanding = o.Total.Sub(o.Paid)
	return o, nil
}

// ListOrders returns orders, optionally filtered by dealer or status.
// Payment totals are not populated.
func ListOrders(ctx context.Context, db *sql.DB, dealerID int64, status string) ([]model.Order, error) {
	query := `SELECT o.id, o.order_no, o.dealer_id, o.customer_id, o.unit_id, o.promotion_id,
	                 o.price, o.discount, o.total, o.status, o.created_at, o.updated_at,
	                 c.full_name, d.name, u.vin
	          FROM orders o
	          JOIN customers c ON c.id = o.customer_id
	          JOIN dealers d ON d.id = o.dealer_id
	          JOIN vehicle_units u ON u.id = o.unit_id
	          WHERE 1=1`
	var args []any

	if dealerID > 0 {
		query += ` AND o.dealer_id = ?`
		args = append(args, dealerID)
	}
	if status != "" {
		query += ` AND o.status = ?`
		args = append(args, status)
	}

	query += ` ORDER BY o.created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		var price, discount, total string
		if err := rows.Scan(&o.ID, &o.OrderNo, &o.DealerID, &o.CustomerID, &o.UnitID, &o.PromotionID,
			&price, &discount, &total, &o.Status, &o.CreatedAt, &o.UpdatedAt,
			&o.CustomerName, &o.DealerName, &o.VIN); err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		if o.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parsing order price: %w", err)
		}
		if o.Discount, err = decimal.NewFromString(discount); err != nil {
			return nil, fmt.Errorf("parsing order discount: %w", err)
		}
		if o.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("parsing order total: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// RecordPayment records a payment against a pending order. When the
// cumulative amount reaches the order total, the order flips to paid and
// the unit to sold, in the same transaction. Payments exceeding the
// outstanding balance are rejected.
func RecordPayment(ctx context.Context, db *sql.DB, orderID int64, amount decimal.Decimal, method string, recordedBy *int64) (*model.Payment, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("payment amount must be positive")
	}
	if !model.ValidPaymentMethod(method) {
		return nil, fmt.Errorf("unknown payment method %q", method)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var totalStr, status string
	var unitID int64
	err = tx.QueryRowContext(ctx,
		`SELECT total, status, unit_id FROM orders WHERE id = ?`, orderID,
	).Scan(&totalStr, &status, &unitID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking order: %w", err)
	}
	if status != model.OrderStatusPending {
		return nil, fmt.Errorf("order %d is %s, payments only apply to pending orders", orderID, status)
	}

	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return nil, fmt.Errorf("parsing order total: %w", err)
	}

	paid, err := sumPaymentsTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	outstanding := total.Sub(paid)
	if amount.GreaterThan(outstanding) {
		return nil, fmt.Errorf("payment %s exceeds outstanding balance %s", amount, outstanding)
	}

	reference := "PAY-" + uuid.NewString()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO payments (order_id, reference, amount, method, recorded_by)
		 VALUES (?, ?, ?, ?, ?)`,
		orderID, reference, amount.String(), method, recordedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("recording payment: %w", err)
	}
	paymentID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting payment id: %w", err)
	}

	// Fully paid: settle the order and mark the unit sold.
	if paid.Add(amount).Equal(total) {
		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET status = 'paid', updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			orderID,
		)
		if err != nil {
			return nil, fmt.Errorf("settling order: %w", err)
		}
		settle, err := tx.ExecContext(ctx,
			`UPDATE vehicle_units SET status = 'sold', updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND status = 'reserved'`,
			unitID,
		)
		if err != nil {
			return nil, fmt.Errorf("marking unit sold: %w", err)
		}
		affected, err := settle.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("checking unit sale: %w", err)
		}
		if affected == 0 {
			return nil, fmt.Errorf("unit %d not reserved: %w", unitID, ErrInvalidStateTransition)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing payment: %w", err)
	}

	return getPayment(ctx, db, paymentID)
}

// CancelOrder cancels a pending order and releases its unit back to
// available dealer stock.
func CancelOrder(ctx context.Context, db *sql.DB, orderID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	var unitID int64
	err = tx.QueryRowContext(ctx,
		`SELECT status, unit_id FROM orders WHERE id = ?`, orderID,
	).Scan(&status, &unitID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking order: %w", err)
	}
	if status != model.OrderStatusPending {
		return fmt.Errorf("order %d is %s, only pending orders can be cancelled", orderID, status)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE orders SET status = 'cancelled', updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		orderID,
	)
	if err != nil {
		return fmt.Errorf("cancelling order: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE vehicle_units SET status = 'available', updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'reserved'`,
		unitID,
	)
	if err != nil {
		return fmt.Errorf("releasing unit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cancellation: %w", err)
	}
	return nil
}

// ListPayments returns an order's payments in chronological order.
func ListPayments(ctx context.Context, db *sql.DB, orderID int64) ([]model.Payment, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, order_id, reference, amount, method, paid_at, recorded_by
		 FROM payments WHERE order_id = ? ORDER BY id`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		var p model.Payment
		var amount string
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Reference, &amount, &p.Method, &p.PaidAt, &p.RecordedBy); err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parsing payment amount: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func getPayment(ctx context.Context, db *sql.DB, id int64) (*model.Payment, error) {
	p := &model.Payment{}
	var amount string
	err := db.QueryRowContext(ctx,
		`SELECT id, order_id, reference, amount, method, paid_at, recorded_by
		 FROM payments WHERE id = ?`, id,
	).Scan(&p.ID, &p.OrderID, &p.Reference, &amount, &p.Method, &p.PaidAt, &p.RecordedBy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting payment: %w", err)
	}
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parsing payment amount: %w", err)
	}
	return p, nil
}

// sumPayments totals an order's payments with decimal arithmetic.
func sumPayments(ctx context.Context, db *sql.DB, orderID int64) (decimal.Decimal, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT amount FROM payments WHERE order_id = ?`, orderID,
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing payments: %w", err)
	}
	defer rows.Close()
	return sumAmountRows(rows)
}

func sumPaymentsTx(ctx context.Context, tx *sql.Tx, orderID int64) (decimal.Decimal, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT amount FROM payments WHERE order_id = ?`, orderID,
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing payments: %w", err)
	}
	defer rows.Close()
	return sumAmountRows(rows)
}

func sumAmountRows(rows *sql.Rows) (decimal.Decimal, error) {
	sum := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("scanning payment amount: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parsing payment amount: %w", err)
		}
		sum = sum.Add(d)
	}
	return sum, rows.Err()
}
