package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pesansayur/storefront/internal/domain"
)

type LocationSelector interface {
	Select(ctx context.Context, sessionID string, p domain.Point) (domain.DeliveryLocation, bool, error)
}

type DeliveryHandler struct {
	store    domain.Store
	selector LocationSelector
	sessions SessionStore
	timeout  time.Duration
}

func NewDeliveryHandler(store domain.Store, selector LocationSelector, sessions SessionStore, timeout time.Duration) *DeliveryHandler {
	return &DeliveryHandler{store: store.WithDefaults(), selector: selector, sessions: sessions, timeout: timeout}
}

type LocationResponse struct {
	Location *domain.DeliveryLocation `json:"location"`
	Applied  bool                     `json:"applied"`
	Message  string                   `json:"message,omitempty"`
}

type StoreResponse struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Address           string       `json:"address"`
	Origin            domain.Point `json:"origin"`
	WhatsApp          string       `json:"whatsapp,omitempty"`
	OpeningHours      string       `json:"opening_hours,omitempty"`
	RatePerKm         int64        `json:"rate_per_km"`
	MinOrder          int64        `json:"min_order"`
	MaxRadiusKm       float64      `json:"max_radius_km"`
	FreeShippingAbove int64        `json:"free_shipping_above"`
}

func (h *DeliveryHandler) GetStore(w http.ResponseWriter, r *http.Request) {
	s := h.store
	respondJSON(w, r, http.StatusOK, StoreResponse{
		ID:                s.ID,
		Name:              s.Name,
		Address:           s.Address,
		Origin:            s.Origin(),
		WhatsApp:          s.WhatsApp,
		OpeningHours:      s.OpeningHours,
		RatePerKm:         s.RatePerKm,
		MinOrder:          s.MinOrder,
		MaxRadiusKm:       s.MaxRadiusKm,
		FreeShippingAbove: s.FreeShippingAbove,
	})
}

// SelectLocation resolves a point picked on the map. Only the latest pick of a
// session is stored; an older pick that resolves late is returned with
// applied=false.
func (h *DeliveryHandler) SelectLocation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var p domain.Point
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if !p.Valid() {
		respondError(w, r, http.StatusBadRequest, "invalid_location", "lat must be within ±90 and lng within ±180")
		return
	}

	loc, applied, err := h.selector.Select(ctx, getSessionID(r.Context()), p)
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := LocationResponse{Location: &loc, Applied: applied}
	if !loc.Eligible {
		resp.Message = fmt.Sprintf("Lokasi terlalu jauh. Maksimal %s km dari toko.",
			strconv.FormatFloat(h.store.MaxRadiusKm, 'f', -1, 64))
	}
	respondJSON(w, r, http.StatusOK, resp)
}

func (h *DeliveryHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	st, err := h.sessions.Get(ctx, getSessionID(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, LocationResponse{Location: st.Location, Applied: st.Location != nil})
}
