package store

import (
	"context"
	"errors"
	"testing"

	"github.com/evmotors/evdms/internal/db"
	"github.com/evmotors/evdms/internal/model"
)

func TestRecallReturnsUnits(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	variant := seedVariant(t, database)
	dealer := seedDealer(t, database, "Northern Motors")
	RegisterUnits(ctx, database, variant.ID, "red", 5)
	req := seedApprovedRequest(t, database, dealer.ID, []model.RequestItem{
		{VariantID: variant.ID, Color: "red", Quantity: 3},
	})
	if _, err := Allocate(ctx, database, req.ID, dealer.ID, []model.AllocationItem{
		{VariantID: variant.ID, Color: "red", Quantity: 3},
	}); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	result, err := Recall(ctx, database, req.ID, dealer.ID)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if result.RecalledCount != 3 {
		t.Errorf("expected 3 recalled, got %d", result.RecalledCount)
	}

	atFactory, _ := CountAvailable(ctx, database, model.LocationManufacturer, 0, variant.ID, "red")
	atDealer, _ := CountAvailable(ctx, database, model.LocationDealer, dealer.ID, variant.ID, "red")
	if atFactory != 5 || atDealer != 0 {
		t.Errorf("expected all 5 back at factory, got factory=%d dealer=%d", atFactory, atDealer)
	}

	req, _ = GetRequest(ctx, database, req.ID)
	if req.Status != model.RequestStatusRecalled {
		t.Errorf("expected request recalled, got %s", req.Status)
	}
	if req.Items[0].FulfilledQuantity != 0 {
		t.Errorf("expected fulfilled quantity unwound to 0, got %d", req.Items[0].FulfilledQuantity)
	}
}

func TestRecallSkipsSoldUnits(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	variant := seedVariant(t, database)
	dealer := seedDealer(t, database, "Northern Motors")
	RegisterUnits(ctx, database, variant.ID, "red", 3)
	req := seedApprovedRequest(t, database, dealer.ID, []model.RequestItem{
		{VariantID: variant.ID, Color: "red", Quantity: 3},
	})
	result, err := Allocate(ctx, database, req.ID, dealer.ID, []model.AllocationItem{
		{VariantID: variant.ID, Color: "red", Quantity: 3},
	})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	// One unit is sold at the dealer; it must stay there.
	soldID := result.MovedUnitIDs[0]
	if _, err := database.Exec(`UPDATE vehicle_units SET status = 'sold' WHERE id = ?`, soldID); err != nil {
		t.Fatalf("marking unit sold: %v", err)
	}

	recall, err := Recall(ctx, database, req.ID, dealer.ID)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if recall.RecalledCount != 2 {
		t.Errorf("expected 2 recalled, got %d", recall.RecalledCount)
	}

	sold, _ := GetUnit(ctx, database, soldID)
	if sold.Location != model.LocationDealer || sold.DealerID == nil || *sold.DealerID != dealer.ID {
		t.Errorf("expected sold unit to remain at dealer, got location=%s", sold.Location)
	}
}

func TestRecallNothingToRecall(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	dealer := seedDealer(t, database, "Northern Motors")

	// Zero matching units is a success, not an error.
	result, err := Recall(ctx, database, 0, dealer.ID)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if result.RecalledCount != 0 {
		t.Errorf("expected 0 recalled, got %d", result.RecalledCount)
	}
	if result.Message != ErrNoUnitsToRecall.Error() {
		t.Errorf("expected message %q, got %q", ErrNoUnitsToRecall.Error(), result.Message)
	}
}

func TestRecallWholeDealer(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	variant := seedVariant(t, database)
	dealer := seedDealer(t, database, "Northern Motors")
	RegisterUnits(ctx, database, variant.ID, "red", 2)
	RegisterUnits(ctx, database, variant.ID, "blue", 2)
	req := seedApprovedRequest(t, database, dealer.ID, []model.RequestItem{
		{VariantID: variant.ID, Color: "red", Quantity: 2},
		{VariantID: variant.ID, Color: "blue", Quantity: 2},
	})
	if _, err := Allocate(ctx, database, req.ID, dealer.ID, []model.AllocationItem{
		{VariantID: variant.ID, Color: "red", Quantity: 2},
		{VariantID: variant.ID, Color: "blue", Quantity: 2},
	}); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	// Request id 0: everything available at the dealer comes back.
	result, err := Recall(ctx, database, 0, dealer.ID)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if result.RecalledCount != 4 {
		t.Errorf("expected 4 recalled, got %d", result.RecalledCount)
	}

	units, _ := ListUnits(ctx, database, model.LocationDealer, dealer.ID, 0, "")
	if len(units) != 0 {
		t.Errorf("expected no units left at dealer, got %d", len(units))
	}
}

func TestRecallUnknownDealer(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := Recall(context.Background(), database, 0, 999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecallRequestOfAnotherDealer(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	variant := seedVariant(t, database)
	owner := seedDealer(t, database, "Northern Motors")
	other := seedDealer(t, database, "Southern Motors")
	RegisterUnits(ctx, database, variant.ID, "red", 1)
	req := seedApprovedRequest(t, database, owner.ID, []model.RequestItem{
		{VariantID: variant.ID, Color: "red", Quantity: 1},
	})

	_, err := Recall(ctx, database, req.ID, other.ID)
	if err == nil {
		t.Error("expected error recalling another dealer's request")
	}
}

func TestRecallFromSuspendedDealer(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	variant := seedVariant(t, database)
	dealer := seedDealer(t, database, "Northern Motors")
	RegisterUnits(ctx, database, variant.ID, "red", 2)
	req := seedApprovedRequest(t, database, dealer.ID, []model.RequestItem{
		{VariantID: variant.ID, Color: "red", Quantity: 2},
	})
	if _, err := Allocate(ctx, database, req.ID, dealer.ID, []model.AllocationItem{
		{VariantID: variant.ID, Color: "red", Quantity: 2},
	}); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	// Suspension blocks new allocations but never blocks getting stock back.
	if err := UpdateDealer(ctx, database, dealer.ID, dealer.Name, dealer.Region, dealer.Address, model.DealerStatusSuspended); err != nil {
		t.Fatalf("UpdateDealer: %v", err)
	}

	result, err := Recall(ctx, database, req.ID, dealer.ID)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if result.RecalledCount != 2 {
		t.Errorf("expected 2 recalled from suspended dealer, got %d", result.RecalledCount)
	}
}
