package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/evmotors/evdms/internal/imaging"
	"github.com/evmotors/evdms/internal/model"
	"github.com/evmotors/evdms/internal/store"
)

// Photo uploads are capped well above the post-processing size so that
// oversized camera originals can still be submitted and downscaled.
const maxPhotoUpload = 20 << 20

// VariantsHandler handles vehicle variant catalog endpoints.
type VariantsHandler struct {
	DB *sql.DB
}

type variantRequest struct {
	ModelName  string          `json:"model_name"`
	Trim       string          `json:"trim"`
	BatteryKWh float64         `json:"battery_kwh"`
	RangeKm    int             `json:"range_km"`
	BasePrice  decimal.Decimal `json:"base_price"`
	Status     string          `json:"status"`
}

func (req *variantRequest) validate() string {
	if req.ModelName == "" || req.Trim == "" {
		return "model_name and trim required"
	}
	if req.BatteryKWh <= 0 || req.RangeKm <= 0 {
		return "battery_kwh and range_km must be positive"
	}
	if req.BasePrice.IsNegative() || req.BasePrice.IsZero() {
		return "base_price must be positive"
	}
	return ""
}

// Create handles POST /api/variants.
func (h *VariantsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req variantRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	variant, err := store.CreateVariant(r.Context(), h.DB, req.ModelName, req.Trim, req.BatteryKWh, req.RangeKm, req.BasePrice)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create variant")
		return
	}

	slog.Info("variant created", "variant", variant.ID, "model", variant.ModelName, "trim", variant.Trim)
	jsonResponse(w, http.StatusCreated, variant)
}

// Get handles GET /api/variants/{id}.
func (h *VariantsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid variant id")
		return
	}

	variant, err := store.GetVariant(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get variant")
		return
	}
	if variant == nil {
		jsonError(w, http.StatusNotFound, "variant not found")
		return
	}
	jsonResponse(w, http.StatusOK, variant)
}

// List handles GET /api/variants with an optional status filter.
func (h *VariantsHandler) List(w http.ResponseWriter, r *http.Request) {
	variants, err := store.ListVariants(r.Context(), h.DB, r.URL.Query().Get("status"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list variants")
		return
	}
	if variants == nil {
		variants = []model.Variant{}
	}
	jsonResponse(w, http.StatusOK, variants)
}

// Update handles PUT /api/variants/{id}.
func (h *VariantsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid variant id")
		return
	}

	var req variantRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}
	if req.Status == "" {
		req.Status = model.VariantStatusActive
	}
	if req.Status != model.VariantStatusActive && req.Status != model.VariantStatusDiscontinued {
		jsonError(w, http.StatusBadRequest, "invalid variant status")
		return
	}

	variant, err := store.GetVariant(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get variant")
		return
	}
	if variant == nil || variant.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "variant not found")
		return
	}

	err = store.UpdateVariant(r.Context(), h.DB, id, req.ModelName, req.Trim, req.BatteryKWh, req.RangeKm, req.BasePrice, req.Status)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update variant")
		return
	}

	variant, _ = store.GetVariant(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, variant)
}

// Delete handles DELETE /api/variants/{id}.
func (h *VariantsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid variant id")
		return
	}

	variant, err := store.GetVariant(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get variant")
		return
	}
	if variant == nil || variant.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "variant not found")
		return
	}

	if err := store.DeleteVariant(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete variant")
		return
	}

	slog.Info("variant deleted", "variant", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "variant deleted"})
}

// UploadPhoto handles PUT /api/variants/{id}/photo. The image is validated,
// downscaled, and re-encoded before storage.
func (h *VariantsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid variant id")
		return
	}

	variant, err := store.GetVariant(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get variant")
		return
	}
	if variant == nil || variant.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "variant not found")
		return
	}

	photo, err := imaging.ProcessPhoto(http.MaxBytesReader(w, r.Body, maxPhotoUpload))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetVariantPhoto(r.Context(), h.DB, id, photo.Data, photo.MIME); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to store photo")
		return
	}

	slog.Info("variant photo updated", "variant", id, "bytes", len(photo.Data),
		"width", photo.Width, "height", photo.Height)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo updated"})
}

// GetPhoto handles GET /api/variants/{id}/photo.
func (h *VariantsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid variant id")
		return
	}

	data, mime, err := store.GetVariantPhoto(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to load photo")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "variant has no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
