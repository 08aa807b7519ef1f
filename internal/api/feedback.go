package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/evmotors/evdms/internal/model"
	"github.com/evmotors/evdms/internal/store"
)

// FeedbackHandler handles customer feedback endpoints.
type FeedbackHandler struct {
	DB *sql.DB
}

type createFeedbackRequest struct {
	DealerID   int64  `json:"dealer_id"`
	CustomerID int64  `json:"customer_id"`
	OrderID    *int64 `json:"order_id"`
	Rating     int    `json:"rating"`
	Comments   string `json:"comments"`
}

// Create handles POST /api/feedback.
func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFeedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DealerID <= 0 || req.CustomerID <= 0 {
		jsonError(w, http.StatusBadRequest, "dealer_id and customer_id required")
		return
	}

	if !canAccessDealer(GetClaims(r.Context()), req.DealerID) {
		jsonError(w, http.StatusForbidden, "cannot record feedback for another dealer")
		return
	}

	fb, err := store.CreateFeedback(r.Context(), h.DB, req.DealerID, req.CustomerID, req.OrderID, req.Rating, req.Comments)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		jsonError(w, status, err.Error())
		return
	}
	jsonResponse(w, http.StatusCreated, fb)
}

// Get handles GET /api/feedback/{id}.
func (h *FeedbackHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid feedback id")
		return
	}

	fb, err := store.GetFeedback(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get feedback")
		return
	}
	if fb == nil {
		jsonError(w, http.StatusNotFound, "feedback not found")
		return
	}

	if !canAccessDealer(GetClaims(r.Context()), fb.DealerID) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}
	jsonResponse(w, http.StatusOK, fb)
}

// List handles GET /api/feedback with an optional dealer_id filter.
func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	var dealerID int64
	if v := r.URL.Query().Get("dealer_id"); v != "" {
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

	items, err := store.ListFeedback(r.Context(), h.DB, dealerID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list feedback")
		return
	}
	if items == nil {
		items = []model.Feedback{}
	}
	jsonResponse(w, http.StatusOK, items)
}
