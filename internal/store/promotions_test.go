package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/evmotors/evdms/internal/db"
)

func TestCreatePromotionValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()

	if _, err := CreatePromotion(ctx, database, "", "no code", decimal.NewFromInt(10),
		now, now.Add(time.Hour)); err == nil {
		t.Error("expected error for missing code")
	}
	if _, err := CreatePromotion(ctx, database, "BIG", "too big", decimal.NewFromInt(150),
		now, now.Add(time.Hour)); err == nil {
		t.Error("expected error for discount above 100")
	}
	if _, err := CreatePromotion(ctx, database, "NEG", "negative", decimal.NewFromInt(-5),
		now, now.Add(time.Hour)); err == nil {
		t.Error("expected error for negative discount")
	}
	if _, err := CreatePromotion(ctx, database, "BACK", "backwards window", decimal.NewFromInt(10),
		now.Add(time.Hour), now); err == nil {
		t.Error("expected error for inverted window")
	}
}

func TestGetPromotionByCode(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()

	created, err := CreatePromotion(ctx, database, "SPRING10", "Spring sale", decimal.NewFromInt(10),
		now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("CreatePromotion: %v", err)
	}

	promo, _ := GetPromotionByCode(ctx, database, "SPRING10")
	if promo == nil || promo.ID != created.ID {
		t.Fatalf("expected promotion by code, got %+v", promo)
	}
	if !promo.DiscountPct.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected 10 percent, got %s", promo.DiscountPct)
	}
	if !promo.ActiveAt(now) {
		t.Error("expected promotion active now")
	}
	if promo.ActiveAt(now.Add(2 * time.Hour)) {
		t.Error("expected promotion inactive after its window")
	}

	missing, _ := GetPromotionByCode(ctx, database, "NOPE")
	if missing != nil {
		t.Error("expected nil for unknown code")
	}
}

func TestDeletePromotion(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()

	promo, _ := CreatePromotion(ctx, database, "GONE", "", decimal.NewFromInt(5),
		now, now.Add(time.Hour))

	if err := DeletePromotion(ctx, database, promo.ID); err != nil {
		t.Fatalf("DeletePromotion: %v", err)
	}

	promos, _ := ListPromotions(ctx, database)
	if len(promos) != 0 {
		t.Errorf("expected deleted promotion hidden from listing, got %d", len(promos))
	}
}
