package store

import (
	"context"
	"testing"

	"github.com/evmotors/evdms/internal/db"
)

func TestCreateFeedback(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	dealer := seedDealer(t, database, "Northern Motors")
	customer := seedCustomer(t, database, dealer.ID)

	fb, err := CreateFeedback(ctx, database, dealer.ID, customer.ID, nil, 4, "smooth delivery")
	if err != nil {
		t.Fatalf("CreateFeedback: %v", err)
	}
	if fb.Rating != 4 || fb.Comments != "smooth delivery" {
		t.Errorf("unexpected feedback: %+v", fb)
	}
}

func TestCreateFeedbackValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	dealer := seedDealer(t, database, "Northern Motors")
	other := seedDealer(t, database, "Southern Motors")
	customer := seedCustomer(t, database, dealer.ID)

	if _, err := CreateFeedback(ctx, database, dealer.ID, customer.ID, nil, 0, ""); err == nil {
		t.Error("expected error for rating below 1")
	}
	if _, err := CreateFeedback(ctx, database, dealer.ID, customer.ID, nil, 6, ""); err == nil {
		t.Error("expected error for rating above 5")
	}
	if _, err := CreateFeedback(ctx, database, other.ID, customer.ID, nil, 3, ""); err == nil {
		t.Error("expected error for another dealer's customer")
	}

	unknown := int64(999)
	if _, err := CreateFeedback(ctx, database, dealer.ID, customer.ID, &unknown, 3, ""); err == nil {
		t.Error("expected error for unknown order")
	}
}

func TestFeedbackLinkedToOrder(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	variant := seedVariant(t, database)
	dealer := seedDealer(t, database, "Northern Motors")
	customer := seedCustomer(t, database, dealer.ID)
	unitID := seedDealerUnit(t, database, variant.ID, dealer.ID, "red")
	order, _ := CreateOrder(ctx, database, dealer.ID, customer.ID, unitID, "")

	fb, err := CreateFeedback(ctx, database, dealer.ID, customer.ID, &order.ID, 5, "")
	if err != nil {
		t.Fatalf("CreateFeedback: %v", err)
	}
	if fb.OrderID == nil || *fb.OrderID != order.ID {
		t.Errorf("expected feedback linked to order %d, got %+v", order.ID, fb.OrderID)
	}

	items, _ := ListFeedback(ctx, database, dealer.ID)
	if len(items) != 1 {
		t.Errorf("expected 1 feedback entry, got %d", len(items))
	}
}
