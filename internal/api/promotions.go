package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/evmotors/evdms/internal/model"
	"github.com/evmotors/evdms/internal/store"
)

// PromotionsHandler handles promotion campaign endpoints.
type PromotionsHandler struct {
	DB *sql.DB
}

type promotionRequest struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	StartsAt    time.Time       `json:"starts_at"`
	EndsAt      time.Time       `json:"ends_at"`
}

// Create handles POST /api/promotions.
func (h *PromotionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req promotionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		jsonError(w, http.StatusBadRequest, "code required")
		return
	}

	promo, err := store.CreatePromotion(r.Context(), h.DB, req.Code, req.Description, req.DiscountPct, req.StartsAt, req.EndsAt)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("promotion created", "user", claims.Username, "promotion", promo.ID, "code", promo.Code)
	jsonResponse(w, http.StatusCreated, promo)
}

// Get handles GET /api/promotions/{id}.
func (h *PromotionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid promotion id")
		return
	}

	promo, err := store.GetPromotion(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get promotion")
		return
	}
	if promo == nil {
		jsonError(w, http.StatusNotFound, "promotion not found")
		return
	}
	jsonResponse(w, http.StatusOK, promo)
}

// List handles GET /api/promotions.
func (h *PromotionsHandler) List(w http.ResponseWriter, r *http.Request) {
	promos, err := store.ListPromotions(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list promotions")
		return
	}
	if promos == nil {
		promos = []model.Promotion{}
	}
	jsonResponse(w, http.StatusOK, promos)
}

// Delete handles DELETE /api/promotions/{id}.
func (h *PromotionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid promotion id")
		return
	}

	promo, err := store.GetPromotion(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get promotion")
		return
	}
	if promo == nil || promo.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "promotion not found")
		return
	}

	if err := store.DeletePromotion(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete promotion")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "promotion deleted"})
}
