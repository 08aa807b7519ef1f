package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/evmotors/evdms/internal/model"
	"github.com/evmotors/evdms/internal/store"
)

// ReportsHandler handles stock and sales reporting endpoints.
type ReportsHandler struct {
	DB *sql.DB
}

// StockSummary handles GET /api/reports/stock?location=&dealer_id=.
// Dealer staff are pinned to their own dealer's stock.
func (h *ReportsHandler) StockSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	location := q.Get("location")
	if location == "" {
		location = model.LocationManufacturer
	}
	if location != model.LocationManufacturer && location != model.LocationDealer {
		jsonError(w, http.StatusBadRequest, "location must be manufacturer or dealer")
		return
	}

	var dealerID int64
	if v := q.Get("dealer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid dealer_id")
			return
		}
		dealerID = id
	}

	claims := GetClaims(r.Context())
	if !model.RoleAtLeast(claims.Role, model.RoleEVMStaff) {
		if claims.DealerID == nil {
			jsonError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		location = model.LocationDealer
		dealerID = *claims.DealerID
	}

	if location == model.LocationDealer && dealerID <= 0 {
		jsonError(w, http.StatusBadRequest, "dealer_id required for dealer stock")
		return
	}

	counts, err := store.StockSummary(r.Context(), h.DB, location, dealerID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to build stock summary")
		return
	}
	if counts == nil {
		counts = []model.StockCount{}
	}
	jsonResponse(w, http.StatusOK, counts)
}

// NetworkStock handles GET /api/reports/network: one consistent snapshot
// of every unit in the network, grouped by location and variant.
func (h *ReportsHandler) NetworkStock(w http.ResponseWriter, r *http.Request) {
	counts, err := store.NetworkStock(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to build network stock report")
		return
	}
	if counts == nil {
		counts = []model.StockCount{}
	}
	jsonResponse(w, http.StatusOK, counts)
}

// SalesSummary handles GET /api/reports/sales?dealer_id=&from=&to= with
// RFC 3339 date-times. Defaults to the trailing 30 days.
func (h *ReportsHandler) SalesSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var dealerID int64
	if v := q.Get("dealer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid dealer_id")
			return
		}
		dealerID = id
	}

	claims := GetClaims(r.Context())
	if !model.RoleAtLeast(claims.Role, model.RoleEVMStaff) {
		if claims.DealerID == nil {
			jsonError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		dealerID = *claims.DealerID
	}

	to := time.Now()
	from := to.AddDate(0, 0, -30)
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid from timestamp")
			return
		}
		from = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid to timestamp")
			return
		}
		to = t
	}
	if to.Before(from) {
		jsonError(w, http.StatusBadRequest, "to must not be before from")
		return
	}

	summary, err := store.SalesSummary(r.Context(), h.DB, dealerID, from, to)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to build sales summary")
		return
	}
	jsonResponse(w, http.StatusOK, summary)
}
