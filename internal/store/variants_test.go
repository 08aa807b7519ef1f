package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/evmotors/evdms/internal/db"
	"github.com/evmotors/evdms/internal/model"
)

func TestCreateAndGetVariant(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	variant, err := CreateVariant(ctx, database, "Aurora", "Long Range", 82.5, 520, decimal.NewFromInt(45000))
	if err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}
	if variant.Status != model.VariantStatusActive {
		t.Errorf("expected new variant active, got %s", variant.Status)
	}
	if !variant.BasePrice.Equal(decimal.NewFromInt(45000)) {
		t.Errorf("expected price 45000, got %s", variant.BasePrice)
	}

	got, _ := GetVariant(ctx, database, variant.ID)
	if got == nil || got.ModelName != "Aurora" || got.Trim != "Long Range" {
		t.Errorf("unexpected variant: %+v", got)
	}
}

func TestUpdateVariant(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	variant := seedVariant(t, database)

	err := UpdateVariant(ctx, database, variant.ID, "Aurora", "Performance", 95, 480,
		decimal.NewFromInt(52000), model.VariantStatusDiscontinued)
	if err != nil {
		t.Fatalf("UpdateVariant: %v", err)
	}

	got, _ := GetVariant(ctx, database, variant.ID)
	if got.Trim != "Performance" || got.Status != model.VariantStatusDiscontinued {
		t.Errorf("unexpected variant after update: %+v", got)
	}
	if !got.BasePrice.Equal(decimal.NewFromInt(52000)) {
		t.Errorf("expected price 52000, got %s", got.BasePrice)
	}
}

func TestVariantPhotoRoundTrip(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	variant := seedVariant(t, database)

	data := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}
	if err := SetVariantPhoto(ctx, database, variant.ID, data, "image/jpeg"); err != nil {
		t.Fatalf("SetVariantPhoto: %v", err)
	}

	got, mime, err := GetVariantPhoto(ctx, database, variant.ID)
	if err != nil {
		t.Fatalf("GetVariantPhoto: %v", err)
	}
	if mime != "image/jpeg" || len(got) != len(data) {
		t.Errorf("unexpected photo: mime=%q len=%d", mime, len(got))
	}
}
