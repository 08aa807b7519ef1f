package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/evmotors/evdms/internal/model"
	"github.com/evmotors/evdms/internal/store"
)

// InventoryHandler handles vehicle unit inventory endpoints.
type InventoryHandler struct {
	DB *sql.DB
}

type intakeRequest struct {
	VariantID int64  `json:"variant_id"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

// Intake handles POST /api/inventory/intake: registers factory-fresh units
// at the manufacturer warehouse.
func (h *InventoryHandler) Intake(w http.ResponseWriter, r *http.Request) {
	var req intakeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.VariantID <= 0 || req.Color == "" || req.Quantity <= 0 {
		jsonError(w, http.StatusBadRequest, "variant_id, color, and positive quantity required")
		return
	}

	units, err := store.RegisterUnits(r.Context(), h.DB, req.VariantID, req.Color, req.Quantity)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		jsonError(w, status, err.Error())
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("units registered", "user", claims.Username,
		"variant", req.VariantID, "color", req.Color, "quantity", req.Quantity)
	jsonResponse(w, http.StatusCreated, units)
}

// ListUnits handles GET /api/inventory/units with optional location,
// dealer_id, variant_id, and status filters.
func (h *InventoryHandler) ListUnits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var dealerID, variantID int64
	if v := q.Get("dealer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid dealer_id")
			return
		}
		dealerID = id
	}
	if v := q.Get("variant_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid variant_id")
			return
		}
		variantID = id
	}

	units, err := store.ListUnits(r.Context(), h.DB, q.Get("location"), dealerID, variantID, q.Get("status"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list units")
		return
	}
	if units == nil {
		units = []model.VehicleUnit{}
	}
	jsonResponse(w, http.StatusOK, units)
}

// CountAvailable handles GET /api/inventory/available?location=&dealer_id=&variant_id=&color=.
func (h *InventoryHandler) CountAvailable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	location := q.Get("location")
	if location != model.LocationManufacturer && location != model.LocationDealer {
		jsonError(w, http.StatusBadRequest, "location must be manufacturer or dealer")
		return
	}

	variantID, err := strconv.ParseInt(q.Get("variant_id"), 10, 64)
	if err != nil || variantID <= 0 {
		jsonError(w, http.StatusBadRequest, "invalid variant_id")
		return
	}

	color := q.Get("color")
	if color == "" {
		jsonError(w, http.StatusBadRequest, "color required")
		return
	}

	var dealerID int64
	if location == model.LocationDealer {
		dealerID, err = strconv.ParseInt(q.Get("dealer_id"), 10, 64)
		if err != nil || dealerID <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid dealer_id")
			return
		}
	}

	count, err := store.CountAvailable(r.Context(), h.DB, location, dealerID, variantID, color)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to count units")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int{"available": count})
}
