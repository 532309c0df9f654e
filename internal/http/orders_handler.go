package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pesansayur/storefront/internal/domain"
	"github.com/pesansayur/storefront/internal/recovery"
)

type HistoryStore interface {
	List(ctx context.Context, sessionID string) ([]domain.Order, error)
	Get(ctx context.Context, sessionID, orderID string) (domain.Order, error)
	Clear(ctx context.Context, sessionID string) error
}

type RecoveryService interface {
	ByID(ctx context.Context, sessionID, orderID string) (recovery.Result, error)
	ByPhone(ctx context.Context, sessionID, phone string) (recovery.Result, error)
	Reorder(ctx context.Context, sessionID, orderID string) (*domain.Cart, error)
}

type OrdersHandler struct {
	history  HistoryStore
	recovery RecoveryService
	timeout  time.Duration
}

func NewOrdersHandler(history HistoryStore, recovery RecoveryService, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{history: history, recovery: recovery, timeout: timeout}
}

type HistoryResponse struct {
	Orders []domain.Order `json:"orders"`
}

func (h *OrdersHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.history.List(ctx, getSessionID(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, HistoryResponse{Orders: orders})
}

func (h *OrdersHandler) GetHistoryOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, err := h.history.Get(ctx, getSessionID(r.Context()), chi.URLParam(r, "order_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, o)
}

func (h *OrdersHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.history.Clear(ctx, getSessionID(r.Context())); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrdersHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.recovery.Reorder(ctx, getSessionID(r.Context()), chi.URLParam(r, "order_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, newCartResponse(c))
}

// RecoverByID answers misses with 200 and an empty list; the reason tells the
// shopper what happened.
func (h *OrdersHandler) RecoverByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.recovery.ByID(ctx, getSessionID(r.Context()), chi.URLParam(r, "order_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, res)
}

func (h *OrdersHandler) RecoverByPhone(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.recovery.ByPhone(ctx, getSessionID(r.Context()), r.URL.Query().Get("phone"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, res)
}
