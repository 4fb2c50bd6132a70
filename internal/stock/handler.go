package stock

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/simplepos/simplepos/internal/platform/httpx"
)

// Handler wires HTTP endpoints for stock items.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs stock handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// StockItemForm is the create/update request payload. Quantity is not
// accepted; it is derived from totalUnits.
type StockItemForm struct {
	ItemID       string  `json:"itemId" validate:"required"`
	Description  string  `json:"description"`
	UnitName     string  `json:"unitName"`
	SubUnitCount float64 `json:"subUnitCount" validate:"gte=1"`
	TotalUnits   float64 `json:"totalUnits" validate:"gte=0"`
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/items", h.list)
	r.Post("/items", h.save)
	r.Get("/items/export", h.export)
	r.Post("/items/import", h.importBatch)
	r.Post("/items/clear", h.clear)
	r.Get("/items/{itemID}", h.show)
	r.Put("/items/{itemID}", h.save)
	r.Delete("/items/{itemID}", h.remove)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("list stock items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Get(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	var form StockItemForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if pathID := chi.URLParam(r, "itemID"); pathID != "" {
		form.ItemID = pathID
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	item, err := h.service.Save(r.Context(), StockItem{
		ItemID:       form.ItemID,
		Description:  form.Description,
		UnitName:     form.UnitName,
		SubUnitCount: form.SubUnitCount,
		TotalUnits:   form.TotalUnits,
	})
	if err != nil {
		h.logger.Error("save stock item", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "itemID")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), "")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	switch r.URL.Query().Get("format") {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="stock-items.csv"`)
		_, _ = w.Write([]byte(ToCSV(items)))
	default:
		data, err := ToJSON(items)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="stock-items.json"`)
		_, _ = w.Write(data)
	}
}

func (h *Handler) importBatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "cannot read body")
		return
	}
	var items []StockItem
	switch r.URL.Query().Get("format") {
	case "csv":
		items, err = FromCSV(string(body))
	default:
		items, err = FromJSON(body)
	}
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	summary := h.service.Import(r.Context(), items)
	h.logger.Info("imported stock items",
		slog.Int("imported", summary.Imported),
		slog.Int("skipped", summary.Skipped))
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context()); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
