package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/evmotors/evdms/internal/model"
	"github.com/evmotors/evdms/internal/store"
)

// AllocationsHandler handles stock allocation and recall endpoints.
type AllocationsHandler struct {
	DB *sql.DB
}

type allocateRequest struct {
	DealerID int64                  `json:"dealer_id"`
	Items    []model.AllocationItem `json:"items"`
}

type recallRequest struct {
	DealerID int64 `json:"dealer_id"`
}

// Allocate handles POST /api/allocate/{requestId}. Call-level failures
// (unknown dealer or request, wrong request state) are 4xx; per-item
// failures ride inside a 200 body so the caller can see partial results.
func (h *AllocationsHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "requestId")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var req allocateRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DealerID <= 0 || len(req.Items) == 0 {
		jsonError(w, http.StatusBadRequest, "dealer_id and at least one line item required")
		return
	}

	result, err := store.Allocate(r.Context(), h.DB, requestID, req.DealerID, req.Items)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		jsonError(w, status, err.Error())
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("stock allocated", "user", claims.Username, "request", requestID,
		"dealer", req.DealerID, "moved", result.TotalMoved, "failed_items", result.FailedItems)
	jsonResponse(w, http.StatusOK, result)
}

// Recall handles POST /api/recall/{requestId}. A request id of 0 recalls
// everything available at the dealer.
func (h *AllocationsHandler) Recall(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "requestId")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var req recallRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DealerID <= 0 {
		jsonError(w, http.StatusBadRequest, "dealer_id required")
		return
	}

	result, err := store.Recall(r.Context(), h.DB, requestID, req.DealerID)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		jsonError(w, status, err.Error())
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("stock recalled", "user", claims.Username, "request", requestID,
		"dealer", req.DealerID, "recalled", result.RecalledCount)
	jsonResponse(w, http.StatusOK, result)
}
