package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pesansayur/storefront/internal/domain"
)

const maxQuantity = 99

type CartService interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	AddItem(ctx context.Context, sessionID string, item domain.CartItem) (*domain.Cart, error)
	RemoveItem(ctx context.Context, sessionID string, key domain.ItemKey) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, sessionID string, key domain.ItemKey, quantity int) (*domain.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

// Pricer turns a product reference into a priced cart line.
type Pricer interface {
	LineItem(productID string, quantity int, variant, note string) (domain.CartItem, error)
}

type CartHandler struct {
	carts   CartService
	pricer  Pricer
	timeout time.Duration
}

func NewCartHandler(carts CartService, pricer Pricer, timeout time.Duration) *CartHandler {
	return &CartHandler{carts: carts, pricer: pricer, timeout: timeout}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Variant   string `json:"variant,omitempty"`
	Note      string `json:"note,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int    `json:"quantity"`
	Variant  string `json:"variant,omitempty"`
}

type CartResponse struct {
	*domain.Cart
	Total     int64 `json:"total"`
	ItemCount int   `json:"item_count"`
}

func newCartResponse(c *domain.Cart) CartResponse {
	return CartResponse{Cart: c, Total: c.Total(), ItemCount: c.ItemCount()}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.carts.GetCart(ctx, getSessionID(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, newCartResponse(c))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > maxQuantity {
		respondError(w, r, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	item, err := h.pricer.LineItem(req.ProductID, req.Quantity, req.Variant, req.Note)
	if err != nil {
		handleError(w, r, err)
		return
	}

	c, err := h.carts.AddItem(ctx, getSessionID(r.Context()), item)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, newCartResponse(c))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > maxQuantity {
		respondError(w, r, http.StatusBadRequest, "invalid_quantity", "quantity must be at most 99")
		return
	}

	key := domain.ItemKey{ProductID: chi.URLParam(r, "product_id"), Variant: req.Variant}
	if key.Variant == "" {
		key.Variant = r.URL.Query().Get("variant")
	}

	c, err := h.carts.UpdateQuantity(ctx, getSessionID(r.Context()), key, req.Quantity)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, newCartResponse(c))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	key := domain.ItemKey{
		ProductID: chi.URLParam(r, "product_id"),
		Variant:   r.URL.Query().Get("variant"),
	}

	c, err := h.carts.RemoveItem(ctx, getSessionID(r.Context()), key)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, newCartResponse(c))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.carts.Clear(ctx, getSessionID(r.Context())); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
