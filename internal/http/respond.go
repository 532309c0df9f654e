package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/pesansayur/storefront/internal/cart"
	"github.com/pesansayur/storefront/internal/catalog"
	"github.com/pesansayur/storefront/internal/checkout"
	"github.com/pesansayur/storefront/internal/coupon"
	"github.com/pesansayur/storefront/internal/history"
	"github.com/pesansayur/storefront/internal/recovery"
	"github.com/pesansayur/storefront/pkg/logger"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		l := logger.FromContext(r.Context())
		l.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, ErrorResponse{Error: message, Code: code})
}

func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return errEmptyBody
	}
	return err
}

var errEmptyBody = errors.New("empty body")

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

// Messages are shown to shoppers as-is, so they follow the storefront's
// language.
var errorMappings = []errorMapping{
	{cart.ErrInvalidItem, http.StatusBadRequest, "invalid_item", "Produk dan jumlah wajib diisi"},
	{cart.ErrItemNotFound, http.StatusNotFound, "item_not_found", "Produk tidak ada di keranjang"},
	{catalog.ErrProductNotFound, http.StatusNotFound, "product_not_found", "Produk tidak ditemukan"},
	{catalog.ErrProductInactive, http.StatusUnprocessableEntity, "product_inactive", "Produk sedang tidak tersedia"},
	{catalog.ErrUnknownVariant, http.StatusUnprocessableEntity, "unknown_variant", "Variasi produk tidak dikenal"},
	{catalog.ErrNoStore, http.StatusServiceUnavailable, "no_store", "Toko sedang tidak tersedia"},
	{checkout.ErrEmptyCart, http.StatusUnprocessableEntity, "empty_cart", "Keranjang masih kosong"},
	{checkout.ErrMissingCustomerFields, http.StatusBadRequest, "missing_customer_fields", "Mohon lengkapi nama, telepon, dan alamat."},
	{checkout.ErrNoLocation, http.StatusUnprocessableEntity, "no_location", "Mohon pilih lokasi pengiriman di peta."},
	{checkout.ErrOutOfRange, http.StatusUnprocessableEntity, "out_of_range", "Lokasi terlalu jauh dari toko"},
	{checkout.ErrInvalidSchedule, http.StatusBadRequest, "invalid_schedule", "Jadwal pengiriman tidak valid"},
	{checkout.ErrInvalidPayment, http.StatusBadRequest, "invalid_payment", "Metode pembayaran tidak valid"},
	{history.ErrNotFound, http.StatusNotFound, "order_not_found", "Order tidak ditemukan"},
	{recovery.ErrPhoneTooShort, http.StatusBadRequest, "phone_too_short", "Masukkan nomor HP minimal 8 digit"},
	{recovery.ErrMissingOrderID, http.StatusBadRequest, "missing_order_id", "Masukkan ID pesanan"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout", "Permintaan terlalu lama, coba lagi"},
}

// handleError maps domain errors to HTTP responses in one place.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var rejection *coupon.RejectionError
	if errors.As(err, &rejection) {
		respondJSON(w, r, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   rejection.Message,
			Code:    rejection.Code(),
			Details: rejection.Reason.Error(),
		})
		return
	}

	for _, m := range errorMappings {
		if !errors.Is(err, m.err) {
			continue
		}
		respondJSON(w, r, m.status, ErrorResponse{Error: m.message, Code: m.code, Details: err.Error()})
		return
	}

	l := logger.FromContext(r.Context())
	l.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
}
