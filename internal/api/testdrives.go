package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/evmotors/evdms/internal/model"
	"github.com/evmotors/evdms/internal/store"
)

// TestDrivesHandler handles test drive scheduling endpoints.
type TestDrivesHandler struct {
	DB *sql.DB
}

type scheduleTestDriveRequest struct {
	DealerID    int64     `json:"dealer_id"`
	CustomerID  int64     `json:"customer_id"`
	VariantID   int64     `json:"variant_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Notes       string    `json:"notes"`
}

type testDriveStatusRequest struct {
	Status string `json:"status"`
}

// Schedule handles POST /api/testdrives.
func (h *TestDrivesHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleTestDriveRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DealerID <= 0 || req.CustomerID <= 0 || req.VariantID <= 0 || req.ScheduledAt.IsZero() {
		jsonError(w, http.StatusBadRequest, "dealer_id, customer_id, variant_id, and scheduled_at required")
		return
	}

	if !canAccessDealer(GetClaims(r.Context()), req.DealerID) {
		jsonError(w, http.StatusForbidden, "cannot schedule test drives for another dealer")
		return
	}

	drive, err := store.ScheduleTestDrive(r.Context(), h.DB, req.DealerID, req.CustomerID, req.VariantID, req.ScheduledAt, req.Notes)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		jsonError(w, status, err.Error())
		return
	}
	jsonResponse(w, http.StatusCreated, drive)
}

// Get handles GET /api/testdrives/{id}.
func (h *TestDrivesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid test drive id")
		return
	}

	drive, err := store.GetTestDrive(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get test drive")
		return
	}
	if drive == nil {
		jsonError(w, http.StatusNotFound, "test drive not found")
		return
	}

	if !canAccessDealer(GetClaims(r.Context()), drive.DealerID) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}
	jsonResponse(w, http.StatusOK, drive)
}

// List handles GET /api/testdrives with optional dealer_id and status filters.
func (h *TestDrivesHandler) List(w http.ResponseWriter, r *http.Request) {
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

	drives, err := store.ListTestDrives(r.Context(), h.DB, dealerID, q.Get("status"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list test drives")
		return
	}
	if drives == nil {
		drives = []model.TestDrive{}
	}
	jsonResponse(w, http.StatusOK, drives)
}

// UpdateStatus handles PUT /api/testdrives/{id}/status.
func (h *TestDrivesHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid test drive id")
		return
	}

	var req testDriveStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !model.ValidTestDriveStatus(req.Status) {
		jsonError(w, http.StatusBadRequest, "invalid test drive status")
		return
	}

	drive, err := store.GetTestDrive(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get test drive")
		return
	}
	if drive == nil {
		jsonError(w, http.StatusNotFound, "test drive not found")
		return
	}
	if !canAccessDealer(GetClaims(r.Context()), drive.DealerID) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	if err := store.UpdateTestDriveStatus(r.Context(), h.DB, id, req.Status); err != nil {
		jsonError(w, http.StatusConflict, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "test drive " + req.Status})
}
