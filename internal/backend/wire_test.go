package backend

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount_Unmarshal(t *testing.T) {
	tests := []struct {
		raw  string
		want Amount
	}{
		{`15000`, 15000},
		{`"15000"`, 15000},
		{`"  2500 "`, 2500},
		{`1234.6`, 1235},
		{`""`, 0},
		{`null`, 0},
		{`"abc"`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var a Amount
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &a))
			assert.Equal(t, tt.want, a)
		})
	}
}

func TestRemoteItems_Unmarshal(t *testing.T) {
	var fromArray, fromString, blank RemoteItems
	require.NoError(t, json.Unmarshal([]byte(`[{"nama":"Bayam","harga":5000,"qty":1}]`), &fromArray))
	require.NoError(t, json.Unmarshal([]byte(`"[{\"nama\":\"Bayam\",\"harga\":5000,\"qty\":1}]"`), &fromString))
	require.NoError(t, json.Unmarshal([]byte(`""`), &blank))

	assert.Equal(t, fromArray, fromString)
	assert.Empty(t, blank)

	var bad RemoteItems
	assert.Error(t, json.Unmarshal([]byte(`"not json"`), &bad))
}

func TestRemoteOrder_ToOrder(t *testing.T) {
	r := RemoteOrder{
		ID:    "ORD-1",
		Date:  "2026-10-15T03:00:00.000Z",
		Name:  "Siti",
		Phone: "0812",
		Items: RemoteItems{
			{Name: "Bayam", Price: 5000, Quantity: 2},
			{ID: "PRD002", Name: "Cabai", Price: 10000, Surcharge: 8000, Quantity: 1, Variant: "500g", Note: "pedas"},
		},
		Subtotal: 28000,
		Shipping: 3000,
		Discount: 2800,
		Coupon:   "HEMAT10",
		Total:    28200,
		Schedule: "Hari Ini",
		Payment:  "COD",
		MapLink:  "https://maps.google.com/?q=1,2",
	}

	o := r.ToOrder()

	assert.Equal(t, "ORD-1", o.ID)
	assert.Equal(t, time.Date(2026, 10, 15, 3, 0, 0, 0, time.UTC), o.CreatedAt.UTC())
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Bayam", o.Items[0].ProductID, "missing id falls back to the name")
	assert.Equal(t, int64(10000), o.Items[0].Subtotal)
	assert.Equal(t, int64(18000), o.Items[1].Subtotal)
	assert.Equal(t, "500g", o.Items[1].Variant)
	assert.Equal(t, int64(2800), o.Discount)
	assert.Equal(t, "HEMAT10", o.CouponCode)
	assert.Equal(t, "COD", o.PaymentMethod)
	assert.NoError(t, o.Validate())
}

func TestRemoteOrder_ToOrderUnparseableDate(t *testing.T) {
	o := RemoteOrder{ID: "ORD-1", Date: "kemarin"}.ToOrder()
	assert.True(t, o.CreatedAt.IsZero())
	assert.NotNil(t, o.Items)
}

func TestSubmissionRoundTrip(t *testing.T) {
	o := testOrder()
	created := time.Date(2026, 10, 15, 3, 0, 0, 0, time.UTC)
	o.CreatedAt = created

	back := FromSubmission(ToSubmission(o).Data, created)

	assert.Equal(t, o, back)
}

func TestFromOrder_ToOrder(t *testing.T) {
	o := testOrder()
	o.CreatedAt = time.Date(2026, 10, 15, 3, 0, 0, 0, time.UTC)

	back := FromOrder(o, "baru").ToOrder()

	assert.Equal(t, o.ID, back.ID)
	assert.Equal(t, o.CreatedAt, back.CreatedAt)
	assert.Equal(t, o.Items, back.Items)
	assert.Equal(t, o.Total, back.Total)
}

func TestToSubmission_OmitsZeroDiscount(t *testing.T) {
	o := testOrder()
	o.Discount = 0
	o.CouponCode = ""

	data, err := json.Marshal(ToSubmission(o))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "diskon")
	assert.NotContains(t, string(data), "kupon")
}
