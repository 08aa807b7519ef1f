package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/evmotors/evdms/internal/model"
	"github.com/evmotors/evdms/internal/store"
)

// CustomersHandler handles customer record endpoints.
type CustomersHandler struct {
	DB *sql.DB
}

type customerRequest struct {
	DealerID int64  `json:"dealer_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Create handles POST /api/customers.
func (h *CustomersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DealerID <= 0 || req.FullName == "" {
		jsonError(w, http.StatusBadRequest, "dealer_id and full_name required")
		return
	}

	if !canAccessDealer(GetClaims(r.Context()), req.DealerID) {
		jsonError(w, http.StatusForbidden, "cannot manage customers of another dealer")
		return
	}

	customer, err := store.CreateCustomer(r.Context(), h.DB, req.DealerID, req.FullName, req.Email, req.Phone)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		jsonError(w, status, err.Error())
		return
	}
	jsonResponse(w, http.StatusCreated, customer)
}

// Get handles GET /api/customers/{id}.
func (h *CustomersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	customer, err := store.GetCustomer(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get customer")
		return
	}
	if customer == nil {
		jsonError(w, http.StatusNotFound, "customer not found")
		return
	}

	if !canAccessDealer(GetClaims(r.Context()), customer.DealerID) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}
	jsonResponse(w, http.StatusOK, customer)
}

// List handles GET /api/customers. Dealer staff only see their own
// dealer's customers.
func (h *CustomersHandler) List(w http.ResponseWriter, r *http.Request) {
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

	customers, err := store.ListCustomers(r.Context(), h.DB, dealerID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list customers")
		return
	}
	if customers == nil {
		customers = []model.Customer{}
	}
	jsonResponse(w, http.StatusOK, customers)
}

// Update handles PUT /api/customers/{id}.
func (h *CustomersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FullName == "" {
		jsonError(w, http.StatusBadRequest, "full_name required")
		return
	}

	customer, err := store.GetCustomer(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get customer")
		return
	}
	if customer == nil {
		jsonError(w, http.StatusNotFound, "customer not found")
		return
	}
	if !canAccessDealer(GetClaims(r.Context()), customer.DealerID) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	if err := store.UpdateCustomer(r.Context(), h.DB, id, req.FullName, req.Email, req.Phone); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update customer")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "customer updated"})
}

// Delete handles DELETE /api/customers/{id}.
func (h *CustomersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	customer, err := store.GetCustomer(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get customer")
		return
	}
	if customer == nil {
		jsonError(w, http.StatusNotFound, "customer not found")
		return
	}
	if !canAccessDealer(GetClaims(r.Context()), customer.DealerID) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	if err := store.DeleteCustomer(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete customer")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "customer deleted"})
}
