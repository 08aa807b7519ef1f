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

// RequestsHandler handles dealer stock request endpoints.
type RequestsHandler struct {
	DB *sql.DB
}

type createRequestRequest struct {
	DealerID int64               `json:"dealer_id"`
	Notes    string              `json:"notes"`
	Items    []model.RequestItem `json:"items"`
}

type reviewRequestRequest struct {
	Status string `json:"status"`
}

// Create handles POST /api/requests. Dealer staff may only file requests
// for their own dealer.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DealerID <= 0 || len(req.Items) == 0 {
		jsonError(w, http.StatusBadRequest, "dealer_id and at least one line item required")
		return
	}
	for _, item := range req.Items {
		if item.VariantID <= 0 || item.Color == "" || item.Quantity <= 0 {
			jsonError(w, http.StatusBadRequest, "each item needs variant_id, color, and positive quantity")
			return
		}
	}

	claims := GetClaims(r.Context())
	if !canAccessDealer(claims, req.DealerID) {
		jsonError(w, http.StatusForbidden, "cannot file requests for another dealer")
		return
	}

	request, err := store.CreateRequest(r.Context(), h.DB, req.DealerID, req.Notes, req.Items)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		jsonError(w, status, err.Error())
		return
	}

	slog.Info("stock request filed", "user", claims.Username, "request", request.ID, "dealer", req.DealerID)
	jsonResponse(w, http.StatusCreated, request)
}

// Get handles GET /api/requests/{id}.
func (h *RequestsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	request, err := store.GetRequest(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get request")
		return
	}
	if request == nil {
		jsonError(w, http.StatusNotFound, "request not found")
		return
	}

	if !canAccessDealer(GetClaims(r.Context()), request.DealerID) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}
	jsonResponse(w, http.StatusOK, request)
}

// List handles GET /api/requests with optional dealer_id and status filters.
// Dealer staff only ever see their own dealer's requests.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
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

	requests, err := store.ListRequests(r.Context(), h.DB, dealerID, q.Get("status"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}
	if requests == nil {
		requests = []model.DealerRequest{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

// Review handles PUT /api/requests/{id}/review: approves or rejects a
// pending request.
func (h *RequestsHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var req reviewRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != model.RequestStatusApproved && req.Status != model.RequestStatusRejected {
		jsonError(w, http.StatusBadRequest, "status must be approved or rejected")
		return
	}

	if err := store.ReviewRequest(r.Context(), h.DB, id, req.Status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "request not found")
			return
		}
		jsonError(w, http.StatusConflict, err.Error())
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("stock request reviewed", "user", claims.Username, "request", id, "status", req.Status)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "request " + req.Status})
}
