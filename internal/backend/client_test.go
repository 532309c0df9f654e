package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesansayur/storefront/internal/domain"
	"github.com/pesansayur/storefront/internal/notify"
	"github.com/pesansayur/storefront/pkg/circuitbreaker"
)

type recordedRequest struct {
	method      string
	query       string
	contentType string
	body        []byte
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  http.HandlerFunc
}

func newFakeBackend(t *testing.T, handler http.HandlerFunc) (*fakeBackend, *httptest.Server) {
	t.Helper()
	f := &fakeBackend{handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			method:      r.Method,
			query:       r.URL.RawQuery,
			contentType: r.Header.Get("Content-Type"),
			body:        body,
		})
		f.mu.Unlock()
		f.handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeBackend) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func testOrder() domain.Order {
	return domain.Order{
		ID:           "ORD-ABC123",
		CustomerName: "Siti",
		Phone:        "0812",
		Address:      "Jl. Melati",
		Items: []domain.CartItem{
			{ProductID: "PRD002", Name: "Cabai", UnitPrice: 10000, Surcharge: 8000, Variant: "500g", Quantity: 2, Subtotal: 36000},
		},
		Subtotal:      36000,
		ShippingCost:  6000,
		Discount:      3600,
		CouponCode:    "HEMAT10",
		Total:         38400,
		Schedule:      "Hari Ini",
		PaymentMethod: "QRIS",
		MapLink:       "https://maps.google.com/?q=-6.3,106.8",
	}
}

func TestClient_SubmitOrder(t *testing.T) {
	fake, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, Response{Success: true, OrderID: "ORD-ABC123"})
	})
	c := NewClient(srv.URL, time.Second, nil)

	require.NoError(t, c.SubmitOrder(context.Background(), testOrder()))

	req := fake.last()
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "text/plain", req.contentType)

	var got map[string]any
	require.NoError(t, json.Unmarshal(req.body, &got))
	assert.Equal(t, "order", got["action"])
	data := got["data"].(map[string]any)
	assert.Equal(t, "ORD-ABC123", data["orderId"])
	assert.Equal(t, "Siti", data["nama"])
	assert.Equal(t, "QRIS", data["metodeBayar"])
	assert.Equal(t, float64(3600), data["diskon"])
	assert.Equal(t, "HEMAT10", data["kupon"])
	assert.Equal(t, "https://maps.google.com/?q=-6.3,106.8", data["linkMaps"])

	items := data["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "PRD002", item["id"])
	assert.Equal(t, float64(10000), item["harga"])
	assert.Equal(t, float64(8000), item["tambahan"])
	assert.Equal(t, float64(2), item["qty"])
}

func TestClient_SubmitOrderToleratesNonJSONReply(t *testing.T) {
	_, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>Moved</html>"))
	})
	c := NewClient(srv.URL, time.Second, nil)

	assert.NoError(t, c.SubmitOrder(context.Background(), testOrder()))
}

func TestClient_TrackCouponUsage(t *testing.T) {
	fake, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, Response{Success: true})
	})
	c := NewClient(srv.URL, time.Second, nil)

	require.NoError(t, c.TrackCouponUsage(context.Background(), "HEMAT10", 75000))
	assert.JSONEq(t, `{"action":"validate_coupon","kode":"HEMAT10","subtotal":75000}`, string(fake.last().body))
}

func TestClient_GetOrder(t *testing.T) {
	fake, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "ORD-ABC123" {
			writeJSON(w, Response{Success: false, Error: "Order tidak ditemukan"})
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"order":{
			"id_order":"ORD-ABC123","tanggal":"2026-10-15T03:00:00.000Z","nama":"Siti",
			"telepon":"0812","alamat":"Jl. Melati",
			"items_json":"[{\"nama\":\"Bayam\",\"harga\":5000,\"qty\":2}]",
			"subtotal":"10000","ongkir":3000,"total":13000,"diskon":"",
			"jadwal":"Besok Pagi","metode_bayar":"COD","status":"baru","catatan":"","kupon":"","link_maps":""}}`))
	})
	c := NewClient(srv.URL, time.Second, nil)

	got, err := c.GetOrder(context.Background(), "ORD-ABC123")
	require.NoError(t, err)
	assert.Equal(t, "action=get_order&id=ORD-ABC123", fake.last().query)
	assert.Equal(t, "ORD-ABC123", got.ID)
	assert.Equal(t, Amount(10000), got.Subtotal)
	assert.Equal(t, Amount(0), got.Discount)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Bayam", got.Items[0].Name)

	_, err = c.GetOrder(context.Background(), "ORD-NOPE")
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "Order tidak ditemukan", remote.Message)
}

func TestClient_SearchOrders(t *testing.T) {
	fake, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": true, "orders": []map[string]any{
			{"id_order": "ORD-1", "items_json": []any{}},
			{"id_order": "ORD-2", "items_json": []any{}},
		}})
	})
	c := NewClient(srv.URL, time.Second, nil)

	orders, err := c.SearchOrders(context.Background(), "081234567890")
	require.NoError(t, err)
	assert.Equal(t, "action=search_orders&telepon=081234567890", fake.last().query)
	require.Len(t, orders, 2)
	assert.Equal(t, "ORD-2", orders[1].ID)
}

func TestClient_SearchOrdersEmpty(t *testing.T) {
	_, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, Response{Success: true})
	})
	c := NewClient(srv.URL, time.Second, nil)

	orders, err := c.SearchOrders(context.Background(), "0812345678")
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)
}

func TestClient_FetchAll(t *testing.T) {
	_, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "all", r.URL.Query().Get("action"))
		_, _ = w.Write([]byte(`{"products":[{"id":"PRD001"}],"stores":[],"coupons":null}`))
	})
	c := NewClient(srv.URL+"/", time.Second, nil)

	all, err := c.FetchAll(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"PRD001"}]`, string(all["products"]))
	assert.Contains(t, all, "stores")
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient("  ", time.Second, nil)

	assert.False(t, c.Configured())
	assert.ErrorIs(t, c.SubmitOrder(context.Background(), testOrder()), ErrNotConfigured)
	_, err := c.SearchOrders(context.Background(), "0812345678")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_ServerErrorTripsBreaker(t *testing.T) {
	fake, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := NewClient(srv.URL, time.Second, circuitbreaker.New(2, time.Hour))

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, c.SubmitOrder(context.Background(), testOrder()), ErrUnavailable)
	}
	err := c.SubmitOrder(context.Background(), testOrder())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Len(t, fake.requests, 2)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	_, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })
	c := NewClient(srv.URL, 50*time.Millisecond, nil)

	_, err := c.GetOrder(context.Background(), "ORD-1")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_DeliverRoutesEvents(t *testing.T) {
	fake, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, Response{Success: true})
	})
	c := NewClient(srv.URL, time.Second, nil)
	ctx := context.Background()

	require.NoError(t, c.Deliver(ctx, notify.OrderPlaced(testOrder())))
	assert.Contains(t, string(fake.last().body), `"action":"order"`)

	require.NoError(t, c.Deliver(ctx, notify.CouponApplied("HEMAT10", 50000)))
	assert.Contains(t, string(fake.last().body), `"action":"validate_coupon"`)

	assert.Error(t, c.Deliver(ctx, notify.Event{Type: notify.EventOrderPlaced, Payload: "oops"}))
	assert.NoError(t, c.Deliver(ctx, notify.Event{Type: "something.else"}))
}
