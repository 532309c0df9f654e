package orderbackend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pesansayur/storefront/internal/backend"
	"github.com/pesansayur/storefront/internal/catalog"
	"github.com/pesansayur/storefront/internal/recovery"
	"github.com/pesansayur/storefront/pkg/logger"
)

const maxPayload = 1 << 20

// Handler serves the single-endpoint order backend. Requests pick their
// operation with an action field; failures the caller should show are answered
// with 200 and success=false, like the spreadsheet backend it stands in for.
type Handler struct {
	store   Store
	dataDir string
	timeout time.Duration
	now     func() time.Time
}

func NewHandler(store Store, dataDir string, timeout time.Duration) *Handler {
	return &Handler{store: store, dataDir: dataDir, timeout: timeout, now: time.Now}
}

type postRequest struct {
	Action   string          `json:"action"`
	Data     json.RawMessage `json:"data"`
	Code     string          `json:"kode"`
	Subtotal int64           `json:"subtotal"`
}

// Post accepts JSON sent as text/plain.
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayload))
	if err != nil {
		fail(w, r, http.StatusBadRequest, "cannot read body")
		return
	}
	var req postRequest
	if err := json.Unmarshal(body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	switch req.Action {
	case backend.ActionOrder:
		h.createOrder(ctx, w, r, req.Data)
	case backend.ActionValidateCoupon:
		h.trackCoupon(ctx, w, r, req.Code)
	default:
		fail(w, r, http.StatusBadRequest, fmt.Sprintf("%s: %q", ErrUnknownAction, req.Action))
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	switch q.Get("action") {
	case backend.ActionGetOrder:
		h.getOrder(ctx, w, r, q.Get("id"))
	case backend.ActionSearchOrders:
		h.searchOrders(ctx, w, r, q.Get("telepon"))
	case backend.ActionAll:
		h.all(ctx, w, r)
	default:
		fail(w, r, http.StatusBadRequest, fmt.Sprintf("%s: %q", ErrUnknownAction, q.Get("action")))
	}
}

func (h *Handler) createOrder(ctx context.Context, w http.ResponseWriter, r *http.Request, data json.RawMessage) {
	var sub backend.SubmissionData
	if err := json.Unmarshal(data, &sub); err != nil {
		fail(w, r, http.StatusBadRequest, "invalid order data")
		return
	}
	if strings.TrimSpace(sub.OrderID) == "" {
		fail(w, r, http.StatusBadRequest, fmt.Sprintf("%s: orderId", ErrMissingField))
		return
	}

	order := backend.FromSubmission(sub, h.now().UTC())
	err := h.store.CreateOrder(ctx, order)
	switch {
	case errors.Is(err, ErrDuplicateOrder):
		l := logger.FromContext(r.Context())
		l.Info().Str("order_id", order.ID).Msg("order already stored, skipping")
	case err != nil:
		internalError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, backend.Response{Success: true, OrderID: order.ID})
}

func (h *Handler) trackCoupon(ctx context.Context, w http.ResponseWriter, r *http.Request, code string) {
	if strings.TrimSpace(code) == "" {
		fail(w, r, http.StatusBadRequest, fmt.Sprintf("%s: kode", ErrMissingField))
		return
	}
	if err := h.store.IncrementCoupon(ctx, code); err != nil {
		internalError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, backend.Response{Success: true})
}

func (h *Handler) getOrder(ctx context.Context, w http.ResponseWriter, r *http.Request, id string) {
	if strings.TrimSpace(id) == "" {
		respond(w, r, http.StatusOK, backend.Response{Error: "ID order wajib diisi"})
		return
	}
	rec, err := h.store.GetOrder(ctx, strings.TrimSpace(id))
	if errors.Is(err, ErrOrderNotFound) {
		respond(w, r, http.StatusOK, backend.Response{Error: "Order tidak ditemukan"})
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	remote := backend.FromOrder(rec.Order, rec.Status)
	respond(w, r, http.StatusOK, backend.Response{Success: true, Order: &remote})
}

func (h *Handler) searchOrders(ctx context.Context, w http.ResponseWriter, r *http.Request, phone string) {
	if len(recovery.Digits(phone)) < recovery.MinPhoneDigits {
		respond(w, r, http.StatusOK, backend.Response{Error: "Nomor HP terlalu pendek"})
		return
	}
	records, err := h.store.SearchByPhone(ctx, phone)
	if err != nil {
		internalError(w, r, err)
		return
	}
	orders := make([]backend.RemoteOrder, 0, len(records))
	for _, rec := range records {
		orders = append(orders, backend.FromOrder(rec.Order, rec.Status))
	}
	respond(w, r, http.StatusOK, backend.Response{Success: true, Orders: orders})
}

// all publishes the catalog snapshot with the live coupon usage counters.
func (h *Handler) all(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	snapshot, err := catalog.ReadRaw(h.dataDir)
	if err != nil {
		internalError(w, r, err)
		return
	}
	usage, err := h.store.CouponUsage(ctx)
	if err != nil {
		internalError(w, r, err)
		return
	}
	if raw, ok := snapshot["coupons"]; ok {
		merged, err := mergeUsage(raw, usage)
		if err != nil {
			internalError(w, r, err)
			return
		}
		snapshot["coupons"] = merged
	}
	respond(w, r, http.StatusOK, snapshot)
}

// mergeUsage adds the recorded usage to each coupon's published counter and
// keeps every other field as published.
func mergeUsage(raw json.RawMessage, usage map[string]int64) (json.RawMessage, error) {
	var coupons []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &coupons); err != nil {
		return nil, fmt.Errorf("decode coupons: %w", err)
	}
	for _, c := range coupons {
		var code string
		_ = json.Unmarshal(c["kode"], &code)
		used, ok := usage[normalizeCode(code)]
		if !ok {
			continue
		}
		var published backend.Amount
		if v, ok := c["sudah_dipakai"]; ok {
			_ = json.Unmarshal(v, &published)
		}
		total, err := json.Marshal(int64(published) + used)
		if err != nil {
			return nil, err
		}
		c["sudah_dipakai"] = total
	}
	return json.Marshal(coupons)
}

func respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		l := logger.FromContext(r.Context())
		l.Error().Err(err).Msg("failed to encode response")
	}
}

func fail(w http.ResponseWriter, r *http.Request, status int, message string) {
	respond(w, r, status, backend.Response{Error: message})
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	l := logger.FromContext(r.Context())
	l.Error().Err(err).Str("action", actionOf(r)).Msg("request failed")
	fail(w, r, http.StatusInternalServerError, "internal server error")
}

func actionOf(r *http.Request) string {
	if a := r.URL.Query().Get("action"); a != "" {
		return a
	}
	return r.Method
}
