package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/evmotors/evdms/internal/model"
	"github.com/evmotors/evdms/internal/store"
)

// DealersHandler handles dealer management endpoints.
type DealersHandler struct {
	DB *sql.DB
}

type dealerRequest struct {
	Name    string `json:"name"`
	Region  string `json:"region"`
	Address string `json:"address"`
	Status  string `json:"status"`
}

// Create handles POST /api/dealers.
func (h *DealersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dealerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Region == "" {
		jsonError(w, http.StatusBadRequest, "name and region required")
		return
	}

	dealer, err := store.CreateDealer(r.Context(), h.DB, req.Name, req.Region, req.Address)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create dealer")
		return
	}

	slog.Info("dealer created", "dealer", dealer.ID, "name", dealer.Name)
	jsonResponse(w, http.StatusCreated, dealer)
}

// Get handles GET /api/dealers/{id}.
func (h *DealersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid dealer id")
		return
	}

	dealer, err := store.GetDealer(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get dealer")
		return
	}
	if dealer == nil {
		jsonError(w, http.StatusNotFound, "dealer not found")
		return
	}
	jsonResponse(w, http.StatusOK, dealer)
}

// List handles GET /api/dealers with an optional status filter.
func (h *DealersHandler) List(w http.ResponseWriter, r *http.Request) {
	dealers, err := store.ListDealers(r.Context(), h.DB, r.URL.Query().Get("status"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list dealers")
		return
	}
	if dealers == nil {
		dealers = []model.Dealer{}
	}
	jsonResponse(w, http.StatusOK, dealers)
}

// Update handles PUT /api/dealers/{id}.
func (h *DealersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid dealer id")
		return
	}

	var req dealerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Region == "" {
		jsonError(w, http.StatusBadRequest, "name and region required")
		return
	}
	if req.Status == "" {
		req.Status = model.DealerStatusActive
	}
	if !model.ValidDealerStatus(req.Status) {
		jsonError(w, http.StatusBadRequest, "invalid dealer status")
		return
	}

	dealer, err := store.GetDealer(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get dealer")
		return
	}
	if dealer == nil || dealer.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "dealer not found")
		return
	}

	if err := store.UpdateDealer(r.Context(), h.DB, id, req.Name, req.Region, req.Address, req.Status); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update dealer")
		return
	}

	dealer, _ = store.GetDealer(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, dealer)
}

// Delete handles DELETE /api/dealers/{id}. Dealers still holding unsold
// units cannot be deleted; recall their stock first.
func (h *DealersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid dealer id")
		return
	}

	dealer, err := store.GetDealer(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get dealer")
		return
	}
	if dealer == nil || dealer.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "dealer not found")
		return
	}

	if err := store.DeleteDealer(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusConflict, err.Error())
		return
	}

	slog.Info("dealer deleted", "dealer", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "dealer deleted"})
}
