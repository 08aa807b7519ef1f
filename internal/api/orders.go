package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/evmotors/evdms/internal/model"
	"github.com/evmotors/evdms/internal/store"
)

// OrdersHandler handles sales order and payment endpoints.
type OrdersHandler struct {
	DB *sql.DB
}

type createOrderRequest struct {
	DealerID   int64  `json:"dealer_id"`
	CustomerID int64  `json:"customer_id"`
	UnitID     int64  `json:"unit_id"`
	PromoCode  string `json:"promo_code"`
}

type paymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
}

// Create handles POST /api/orders: reserves the unit and opens a pending
// order at the variant's current price, minus any active promotion.
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DealerID <= 0 || req.CustomerID <= 0 || req.UnitID <= 0 {
		jsonError(w, http.StatusBadRequest, "dealer_id, customer_id, and unit_id required")
		return
	}

	claims := GetClaims(r.Context())
	if !canAccessDealer(claims, req.DealerID) {
		jsonError(w, http.StatusForbidden, "cannot create orders for another dealer")
		return
	}

	order, err := store.CreateOrder(r.Context(), h.DB, req.DealerID, req.CustomerID, req.UnitID, req.PromoCode)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, store.ErrInvalidStateTransition) {
			status = http.StatusConflict
		}
		jsonError(w, status, err.Error())
		return
	}

	slog.Info("order created", "user", claims.Username, "order", order.ID,
		"dealer", req.DealerID, "unit", req.UnitID, "total", order.Total)
	jsonResponse(w, http.StatusCreated, order)
}

// Get handles GET /api/orders/{id}.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := store.GetOrder(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get order")
		return
	}
	if order == nil {
		jsonError(w, http.StatusNotFound, "order not found")
		return
	}

	if !canAccessDealer(GetClaims(r.Context()), order.DealerID) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}
	jsonResponse(w, http.StatusOK, order)
}

// List handles GET /api/orders with optional dealer_id and status filters.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
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

	orders, err := store.ListOrders(r.Context(), h.DB, dealerID, q.Get("status"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	jsonResponse(w, http.StatusOK, orders)
}

// RecordPayment handles POST /api/orders/{id}/payments. When the payment
// settles the remaining balance the order closes and the unit is sold.
func (h *OrdersHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Amount.IsPositive() {
		jsonError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	if !model.ValidPaymentMethod(req.Method) {
		jsonError(w, http.StatusBadRequest, "invalid payment method")
		return
	}

	order, err := store.GetOrder(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get order")
		return
	}
	if order == nil {
		jsonError(w, http.StatusNotFound, "order not found")
		return
	}

	claims := GetClaims(r.Context())
	if !canAccessDealer(claims, order.DealerID) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	recordedBy := &claims.UserID
	payment, err := store.RecordPayment(r.Context(), h.DB, id, req.Amount, req.Method, recordedBy)
	if err != nil {
		jsonError(w, http.StatusConflict, err.Error())
		return
	}

	slog.Info("payment recorded", "user", claims.Username, "order", id,
		"amount", req.Amount, "method", req.Method)
	jsonResponse(w, http.StatusCreated, payment)
}

// ListPayments handles GET /api/orders/{id}/payments.
func (h *OrdersHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := store.GetOrder(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get order")
		return
	}
	if order == nil {
		jsonError(w, http.StatusNotFound, "order not found")
		return
	}
	if !canAccessDealer(GetClaims(r.Context()), order.DealerID) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	payments, err := store.ListPayments(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list payments")
		return
	}
	if payments == nil {
		payments = []model.Payment{}
	}
	jsonResponse(w, http.StatusOK, payments)
}

// Cancel handles POST /api/orders/{id}/cancel: voids a pending order and
// releases the reserved unit.
func (h *OrdersHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := store.GetOrder(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get order")
		return
	}
	if order == nil {
		jsonError(w, http.StatusNotFound, "order not found")
		return
	}

	claims := GetClaims(r.Context())
	if !canAccessDealer(claims, order.DealerID) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	if err := store.CancelOrder(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusConflict, err.Error())
		return
	}

	slog.Info("order cancelled", "user", claims.Username, "order", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "order cancelled"})
}
