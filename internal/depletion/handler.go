package depletion

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/simplepos/simplepos/internal/platform/httpx"
)

// Handler wires HTTP endpoints for mapping editing and availability.
type Handler struct {
	logger   *slog.Logger
	repo     *Repository
	engine   *Engine
	validate *validator.Validate
}

// NewHandler constructs depletion handler.
func NewHandler(logger *slog.Logger, repo *Repository, engine *Engine) *Handler {
	return &Handler{logger: logger, repo: repo, engine: engine, validate: validator.New()}
}

// MappingForm is one row of a product's mapping set.
type MappingForm struct {
	StockItemID       string  `json:"stockItemId" validate:"required"`
	DepletionQuantity float64 `json:"depletionQuantity" validate:"gt=0"`
}

// ReplaceMappingsRequest replaces a product's whole mapping set.
type ReplaceMappingsRequest struct {
	Mappings []MappingForm `json:"mappings" validate:"dive"`
}

type availabilityResponse struct {
	ProductID   string             `json:"productId"`
	MaxSellable int                `json:"maxSellable"`
	Lines       []AvailabilityLine `json:"lines"`
}

// MountRoutes registers mapping routes under the catalog tree.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products/{id}/depletions", h.list)
	r.Put("/products/{id}/depletions", h.replace)
	r.Delete("/products/{id}/depletions/{stockItemID}", h.remove)
	r.Get("/products/{id}/stock", h.availability)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	deps, err := h.repo.ListByProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("list depletions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if deps == nil {
		deps = []Depletion{}
	}
	httpx.JSON(w, http.StatusOK, deps)
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	var req ReplaceMappingsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	productID := chi.URLParam(r, "id")
	deps := make([]Depletion, 0, len(req.Mappings))
	for _, m := range req.Mappings {
		deps = append(deps, Depletion{
			ProductID:         productID,
			StockItemID:       m.StockItemID,
			DepletionQuantity: m.DepletionQuantity,
		})
	}
	if err := h.repo.ReplaceForProduct(r.Context(), productID, deps); err != nil {
		h.logger.Error("replace depletions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, deps)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	err := h.repo.Delete(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "stockItemID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) availability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := chi.URLParam(r, "id")
	max, err := h.engine.MaxSellable(ctx, productID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	lines, err := h.engine.Availability(ctx, productID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if lines == nil {
		lines = []AvailabilityLine{}
	}
	httpx.JSON(w, http.StatusOK, availabilityResponse{
		ProductID:   productID,
		MaxSellable: max,
		Lines:       lines,
	})
}
