package sale

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/simplepos/simplepos/internal/catalog"
	"github.com/simplepos/simplepos/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the sale flow.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate

	// availability is recomputed on every keystroke of the sale search
	// box; coalesce concurrent lookups per product.
	availGroup singleflight.Group
}

// NewHandler constructs sale handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// AddItemRequest puts a product into a cart.
type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

type saleProduct struct {
	catalog.Product
	MaxSellable int `json:"maxSellable"`
}

type availability struct {
	ProductID   string `json:"productId"`
	MaxSellable int    `json:"maxSellable"`
}

// MountRoutes registers sale routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/carts", h.createCart)
	r.Get("/carts/{id}", h.showCart)
	r.Delete("/carts/{id}", h.deleteCart)
	r.Post("/carts/{id}/items", h.addItem)
	r.Delete("/carts/{id}/items/{productID}", h.removeItem)
	r.Post("/carts/{id}/checkout", h.checkout)
	r.Get("/products", h.searchProducts)
	r.Get("/availability", h.availability)
}

func (h *Handler) createCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.CreateCart(r.Context())
	if err != nil {
		h.logger.Error("create cart", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, cart)
}

func (h *Handler) showCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cart)
}

func (h *Handler) deleteCart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCart(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	cart, err := h.service.AddItem(r.Context(), chi.URLParam(r, "id"), req.ProductID, req.Quantity)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cart)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.RemoveItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "productID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cart)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.service.CompleteSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("complete sale", slog.String("cart", chi.URLParam(r, "id")), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, receipt)
}

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	products, err := h.service.products.List(ctx, r.URL.Query().Get("q"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	results := make([]saleProduct, 0, len(products))
	for _, p := range products {
		max, err := h.maxSellable(ctx, p.ID)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		results = append(results, saleProduct{Product: p, MaxSellable: max})
	}
	httpx.JSON(w, http.StatusOK, results)
}

func (h *Handler) availability(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "product_id is required")
		return
	}
	max, err := h.maxSellable(r.Context(), productID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, availability{ProductID: productID, MaxSellable: max})
}

func (h *Handler) maxSellable(ctx context.Context, productID string) (int, error) {
	v, err, _ := h.availGroup.Do(productID, func() (any, error) {
		return h.service.engine.MaxSellable(ctx, productID)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}
