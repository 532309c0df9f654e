package http

import (
	"context"
	"net/http"
	"time"

	"github.com/pesansayur/storefront/internal/domain"
	"github.com/pesansayur/storefront/internal/session"
)

type CouponValidator interface {
	Validate(ctx context.Context, code string, subtotal int64) (domain.Coupon, error)
}

type SessionStore interface {
	Get(ctx context.Context, sessionID string) (session.State, error)
	SetCoupon(ctx context.Context, sessionID string, c domain.Coupon) error
	ClearCoupon(ctx context.Context, sessionID string) error
}

type CouponHandler struct {
	coupons  CouponValidator
	carts    CartService
	sessions SessionStore
	timeout  time.Duration
}

func NewCouponHandler(coupons CouponValidator, carts CartService, sessions SessionStore, timeout time.Duration) *CouponHandler {
	return &CouponHandler{coupons: coupons, carts: carts, sessions: sessions, timeout: timeout}
}

type ApplyCouponRequestDTO struct {
	Code string `json:"code"`
}

type CouponResponse struct {
	Coupon  domain.Coupon `json:"coupon"`
	Message string        `json:"message"`
}

// ApplyCoupon validates a code against the current cart subtotal and keeps it
// for checkout. A rejected code leaves the previously applied one in place.
func (h *CouponHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ApplyCouponRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sessionID := getSessionID(r.Context())
	c, err := h.carts.GetCart(ctx, sessionID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	applied, err := h.coupons.Validate(ctx, req.Code, c.Total())
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.sessions.SetCoupon(ctx, sessionID, applied); err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, CouponResponse{
		Coupon:  applied,
		Message: "Kupon " + applied.Code + " berhasil dipakai",
	})
}

func (h *CouponHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.sessions.ClearCoupon(ctx, getSessionID(r.Context())); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
