package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/evmotors/evdms/internal/db"
	"github.com/evmotors/evdms/internal/model"
)

// seedVariant creates an active variant for tests.
func seedVariant(t *testing.T, database *sql.DB) *model.Variant {
	t.Helper()
	v, err := CreateVariant(context.Background(), database, "Aurora", "Long Range", 82.5, 520, decimal.NewFromInt(45000))
	if err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}
	return v
}

// seedDealer creates an active dealer for tests.
func seedDealer(t *testing.T, database *sql.DB, name string) *model.Dealer {
	t.Helper()
	d, err := CreateDealer(context.Background(), database, name, "North", "1 Main St")
	if err != nil {
		t.Fatalf("CreateDealer: %v", err)
	}
	return d
}

// seedApprovedRequest files a dealer request for the given items and approves it.
func seedApprovedRequest(t *testing.T, database *sql.DB, dealerID int64, items []model.RequestItem) *model.DealerRequest {
	t.Helper()
	ctx := context.Background()
	req, err := CreateRequest(ctx, database, dealerID, "", items)
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if err := ReviewRequest(ctx, database, req.ID, model.RequestStatusApproved); err != nil {
		t.Fatalf("ReviewRequest: %v", err)
	}
	req, err = GetRequest(ctx, database, req.ID)
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	return req
}

func TestAllocateMovesRequestedUnits(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	variant := seedVariant(t, database)
	dealer := seedDealer(t, database, "Northern Motors")

	// 5 red units at the factory, dealer asks for 3.
	if _, err := RegisterUnits(ctx, database, variant.ID, "red", 5); err != nil {
		t.Fatalf("RegisterUnits: %v", err)
	}
	req := seedApprovedRequest(t, database, dealer.ID, []model.RequestItem{
		{VariantID: variant.ID, Color: "red", Quantity: 3},
	})

	result, err := Allocate(ctx, database, req.ID, dealer.ID, []model.AllocationItem{
		{VariantID: variant.ID, Color: "red", Quantity: 3},
	})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if result.TotalMoved != 3 || result.FailedItems != 0 {
		t.Errorf("expected 3 moved with no failures, got moved=%d failed=%d", result.TotalMoved, result.FailedItems)
	}

	atFactory, _ := CountAvailable(ctx, database, model.LocationManufacturer, 0, variant.ID, "red")
	atDealer, _ := CountAvailable(ctx, database, model.LocationDealer, dealer.ID, variant.ID, "red")
	if atFactory != 2 || atDealer != 3 {
		t.Errorf("expected 2 at factory and 3 at dealer, got %d and %d", atFactory, atDealer)
	}

	// Fully fulfilled request flips to delivered.
	req, _ = GetRequest(ctx, database, req.ID)
	if req.Status != model.RequestStatusDelivered {
		t.Errorf("expected request delivered, got %s", req.Status)
	}
	if len(req.Items) != 1 || !req.Items[0].Fulfilled() {
		t.Errorf("expected request line fulfilled, got %+v", req.Items)
	}
}

func TestAllocateInsufficientStock(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	variant := seedVariant(t, database)
	dealer := seedDealer(t, database, "Northern Motors")

	// Only 2 available; asking for 3 must move nothing.
	if _, err := RegisterUnits(ctx, database, variant.ID, "blue", 2); err != nil {
		t.Fatalf("RegisterUnits: %v", err)
	}
	req := seedApprovedRequest(t, database, dealer.ID, []model.RequestItem{
		{VariantID: variant.ID, Color: "blue", Quantity: 3},
	})

	result, err := Allocate(ctx, database, req.ID, dealer.ID, []model.AllocationItem{
		{VariantID: variant.ID, Color: "blue", Quantity: 3},
	})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if result.TotalMoved != 0 || result.FailedItems != 1 {
		t.Errorf("expected 0 moved and 1 failed item, got moved=%d failed=%d", result.TotalMoved, result.FailedItems)
	}
	if !strings.Contains(result.Items[0].Error, ErrInsufficientStock.Error()) {
		t.Errorf("expected insufficient stock error, got %q", result.Items[0].Error)
	}

	atFactory, _ := CountAvailable(ctx, database, model.LocationManufacturer, 0, variant.ID, "blue")
	atDealer, _ := CountAvailable(ctx, database, model.LocationDealer, dealer.ID, variant.ID, "blue")
	if atFactory != 2 || atDealer != 0 {
		t.Errorf("expected stock untouched (2 at factory, 0 at dealer), got %d and %d", atFactory, atDealer)
	}

	req, _ = GetRequest(ctx, database, req.ID)
	if req.Status != model.RequestStatusApproved {
		t.Errorf("expected request to stay approved, got %s", req.Status)
	}
}

func TestAllocateMixedItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	variant := seedVariant(t, database)
	dealer := seedDealer(t, database, "Northern Motors")

	// Red is covered, blue is short: red moves, blue fails, the call succeeds.
	RegisterUnits(ctx, database, variant.ID, "red", 4)
	RegisterUnits(ctx, database, variant.ID, "blue", 1)
	req := seedApprovedRequest(t, database, dealer.ID, []model.RequestItem{
		{VariantID: variant.ID, Color: "red", Quantity: 2},
		{VariantID: variant.ID, Color: "blue", Quantity: 3},
	})

	result, err := Allocate(ctx, database, req.ID, dealer.ID, []model.AllocationItem{
		{VariantID: variant.ID, Color: "red", Quantity: 2},
		{VariantID: variant.ID, Color: "blue", Quantity: 3},
	})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if result.TotalMoved != 2 || result.FailedItems != 1 {
		t.Errorf("expected 2 moved and 1 failed item, got moved=%d failed=%d", result.TotalMoved, result.FailedItems)
	}

	redAtDealer, _ := CountAvailable(ctx, database, model.LocationDealer, dealer.ID, variant.ID, "red")
	blueAtDealer, _ := CountAvailable(ctx, database, model.LocationDealer, dealer.ID, variant.ID, "blue")
	if redAtDealer != 2 || blueAtDealer != 0 {
		t.Errorf("expected 2 red and 0 blue at dealer, got %d and %d", redAtDealer, blueAtDealer)
	}

	// The short line keeps the request open.
	req, _ = GetRequest(ctx, database, req.ID)
	if req.Status != model.RequestStatusApproved {
		t.Errorf("expected request to stay approved, got %s", req.Status)
	}
}

func TestAllocateItemNotOnRequest(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	variant := seedVariant(t, database)
	dealer := seedDealer(t, database, "Northern Motors")
	RegisterUnits(ctx, database, variant.ID, "red", 3)
	RegisterUnits(ctx, database, variant.ID, "blue", 3)
	req := seedApprovedRequest(t, database, dealer.ID, []model.RequestItem{
		{VariantID: variant.ID, Color: "red", Quantity: 2},
	})

	// Blue is not on the request; no stock may move for it.
	result, err := Allocate(ctx, database, req.ID, dealer.ID, []model.AllocationItem{
		{VariantID: variant.ID, Color: "blue", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if result.TotalMoved != 0 || result.FailedItems != 1 {
		t.Errorf("expected 0 moved and 1 failed item, got moved=%d failed=%d", result.TotalMoved, result.FailedItems)
	}
	if !strings.Contains(result.Items[0].Error, "no line") {
		t.Errorf("expected missing line error, got %q", result.Items[0].Error)
	}

	blueAtFactory, _ := CountAvailable(ctx, database, model.LocationManufacturer, 0, variant.ID, "blue")
	if blueAtFactory != 3 {
		t.Errorf("expected blue stock untouched, got %d at factory", blueAtFactory)
	}
}

func TestAllocateBeyondRequestedQuantity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	variant := seedVariant(t, database)
	dealer := seedDealer(t, database, "Northern Motors")
	RegisterUnits(ctx, database, variant.ID, "red", 10)
	req := seedApprovedRequest(t, database, dealer.ID, []model.RequestItem{
		{VariantID: variant.ID, Color: "red", Quantity: 3},
	})

	// More than the line asks for fails even with stock on hand.
	result, err := Allocate(ctx, database, req.ID, dealer.ID, []model.AllocationItem{
		{VariantID: variant.ID, Color: "red", Quantity: 5},
	})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if result.TotalMoved != 0 || result.FailedItems != 1 {
		t.Errorf("expected 0 moved and 1 failed item, got moved=%d failed=%d", result.TotalMoved, result.FailedItems)
	}

	// Partial fulfillment, then overshooting the remainder.
	result, err = Allocate(ctx, database, req.ID, dealer.ID, []model.AllocationItem{
		{VariantID: variant.ID, Color: "red", Quantity: 2},
	})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if result.TotalMoved != 2 {
		t.Fatalf("expected 2 moved, got %d", result.TotalMoved)
	}

	result, err = Allocate(ctx, database, req.ID, dealer.ID, []model.AllocationItem{
		{VariantID: variant.ID, Color: "red", Quantity: 2},
	})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if result.TotalMoved != 0 || result.FailedItems != 1 {
		t.Errorf("expected overshoot of the remaining line to fail, got moved=%d failed=%d", result.TotalMoved, result.FailedItems)
	}

	atFactory, _ := CountAvailable(ctx, database, model.LocationManufacturer, 0, variant.ID, "red")
	if atFactory != 8 {
		t.Errorf("expected 8 at factory after a single 2-unit move, got %d", atFactory)
	}
}

func TestAllocateRequiresApprovedRequest(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	variant := seedVariant(t, database)
	dealer := seedDealer(t, database, "Northern Motors")
	RegisterUnits(ctx, database, variant.ID, "red", 3)

	req, err := CreateRequest(ctx, database, dealer.ID, "", []model.RequestItem{
		{VariantID: variant.ID, Color: "red", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	_, err = Allocate(ctx, database, req.ID, dealer.ID, []model.AllocationItem{
		{VariantID: variant.ID, Color: "red", Quantity: 1},
	})
	if err == nil {
		t.Error("expected error allocating against a pending request")
	}
}

func TestAllocateUnknownDealer(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := Allocate(ctx, database, 1, 999, []model.AllocationItem{
		{VariantID: 1, Color: "red", Quantity: 1},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAllocateRequestOfAnotherDealer(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	variant := seedVariant(t, database)
	owner := seedDealer(t, database, "Northern Motors")
	other := seedDealer(t, database, "Southern Motors")
	RegisterUnits(ctx, database, variant.ID, "red", 3)

	req := seedApprovedRequest(t, database, owner.ID, []model.RequestItem{
		{VariantID: variant.ID, Color: "red", Quantity: 1},
	})

	_, err := Allocate(ctx, database, req.ID, other.ID, []model.AllocationItem{
		{VariantID: variant.ID, Color: "red", Quantity: 1},
	})
	if err == nil {
		t.Error("expected error allocating another dealer's request")
	}
}

func TestAllocateSuspendedDealer(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	variant := seedVariant(t, database)
	dealer := seedDealer(t, database, "Northern Motors")
	RegisterUnits(ctx, database, variant.ID, "red", 3)
	req := seedApprovedRequest(t, database, dealer.ID, []model.RequestItem{
		{VariantID: variant.ID, Color: "red", Quantity: 1},
	})

	if err := UpdateDealer(ctx, database, dealer.ID, dealer.Name, dealer.Region, dealer.Address, model.DealerStatusSuspended); err != nil {
		t.Fatalf("UpdateDealer: %v", err)
	}

	_, err := Allocate(ctx, database, req.ID, dealer.ID, []model.AllocationItem{
		{VariantID: variant.ID, Color: "red", Quantity: 1},
	})
	if err == nil {
		t.Error("expected error allocating to a suspended dealer")
	}
}
