package backend

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pesansayur/storefront/internal/domain"
)

const (
	ActionOrder          = "order"
	ActionValidateCoupon = "validate_coupon"
	ActionGetOrder       = "get_order"
	ActionSearchOrders   = "search_orders"
	ActionAll            = "all"
)

type OrderSubmission struct {
	Action string         `json:"action"`
	Data   SubmissionData `json:"data"`
}

type SubmissionData struct {
	OrderID  string           `json:"orderId"`
	Name     string           `json:"nama"`
	Phone    string           `json:"telepon"`
	Address  string           `json:"alamat"`
	Note     string           `json:"catatan,omitempty"`
	Schedule string           `json:"jadwal"`
	Payment  string           `json:"metodeBayar"`
	Items    []SubmissionItem `json:"items"`
	Subtotal int64            `json:"subtotal"`
	Shipping int64            `json:"ongkir"`
	Total    int64            `json:"total"`
	Discount int64            `json:"diskon,omitempty"`
	Coupon   string           `json:"kupon,omitempty"`
	MapLink  string           `json:"linkMaps,omitempty"`
}

type SubmissionItem struct {
	ID        string `json:"id"`
	Name      string `json:"nama"`
	Price     int64  `json:"harga"`
	Quantity  int    `json:"qty"`
	Variant   string `json:"variasi,omitempty"`
	Surcharge int64  `json:"tambahan,omitempty"`
	Note      string `json:"catatan,omitempty"`
}

type CouponUsageRequest struct {
	Action   string `json:"action"`
	Code     string `json:"kode"`
	Subtotal int64  `json:"subtotal"`
}

// Response is the envelope every backend action answers with.
type Response struct {
	Success bool          `json:"success"`
	OrderID string        `json:"orderId,omitempty"`
	Error   string        `json:"error,omitempty"`
	Order   *RemoteOrder  `json:"order,omitempty"`
	Orders  []RemoteOrder `json:"orders,omitempty"`
}

// RemoteOrder is an order row as stored by the backend spreadsheet.
type RemoteOrder struct {
	ID       string      `json:"id_order"`
	Date     string      `json:"tanggal"`
	Name     string      `json:"nama"`
	Phone    string      `json:"telepon"`
	Address  string      `json:"alamat"`
	Items    RemoteItems `json:"items_json"`
	Subtotal Amount      `json:"subtotal"`
	Shipping Amount      `json:"ongkir"`
	Total    Amount      `json:"total"`
	Schedule string      `json:"jadwal"`
	Payment  string      `json:"metode_bayar"`
	Status   string      `json:"status"`
	Note     string      `json:"catatan"`
	Discount Amount      `json:"diskon"`
	Coupon   string      `json:"kupon"`
	MapLink  string      `json:"link_maps"`
}

type RemoteItem struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"nama"`
	Price     Amount `json:"harga"`
	Quantity  Amount `json:"qty"`
	Variant   string `json:"variasi,omitempty"`
	Surcharge Amount `json:"tambahan,omitempty"`
	Note      string `json:"catatan,omitempty"`
}

// RemoteItems accepts the item list either as a JSON array or as a string
// holding one, which is how spreadsheet cells come back.
type RemoteItems []RemoteItem

func (r *RemoteItems) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*r = nil
			return nil
		}
		b = []byte(s)
	}
	var items []RemoteItem
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	*r = items
	return nil
}

// Amount is a rupiah value that may arrive as a number, a numeric string or
// blank. Anything unparseable reads as zero.
type Amount int64

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*a = 0
		return nil
	}
	*a = Amount(math.Round(f))
	return nil
}

func ToSubmission(o domain.Order) OrderSubmission {
	items := make([]SubmissionItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, SubmissionItem{
			ID:        it.ProductID,
			Name:      it.Name,
			Price:     it.UnitPrice,
			Quantity:  it.Quantity,
			Variant:   it.Variant,
			Surcharge: it.Surcharge,
			Note:      it.Note,
		})
	}
	return OrderSubmission{
		Action: ActionOrder,
		Data: SubmissionData{
			OrderID:  o.ID,
			Name:     o.CustomerName,
			Phone:    o.Phone,
			Address:  o.Address,
			Note:     o.Note,
			Schedule: o.Schedule,
			Payment:  o.PaymentMethod,
			Items:    items,
			Subtotal: o.Subtotal,
			Shipping: o.ShippingCost,
			Total:    o.Total,
			Discount: max(o.Discount, 0),
			Coupon:   o.CouponCode,
			MapLink:  o.MapLink,
		},
	}
}

// ToOrder converts a stored row back into an order snapshot. Line subtotals are
// recomputed from price, surcharge and quantity.
func (r RemoteOrder) ToOrder() domain.Order {
	items := make([]domain.CartItem, 0, len(r.Items))
	for _, it := range r.Items {
		id := it.ID
		if id == "" {
			id = it.Name
		}
		item := domain.CartItem{
			ProductID: id,
			Name:      it.Name,
			UnitPrice: int64(it.Price),
			Quantity:  int(it.Quantity),
			Variant:   it.Variant,
			Surcharge: int64(it.Surcharge),
			Note:      it.Note,
		}
		item.Recompute()
		items = append(items, item)
	}

	return domain.Order{
		ID:            r.ID,
		CreatedAt:     parseDate(r.Date),
		CustomerName:  r.Name,
		Phone:         r.Phone,
		Address:       r.Address,
		Items:         items,
		Subtotal:      int64(r.Subtotal),
		ShippingCost:  int64(r.Shipping),
		Discount:      int64(r.Discount),
		CouponCode:    r.Coupon,
		Total:         int64(r.Total),
		Schedule:      r.Schedule,
		PaymentMethod: r.Payment,
		Note:          r.Note,
		MapLink:       r.MapLink,
	}
}

func FromOrder(o domain.Order, status string) RemoteOrder {
	items := make(RemoteItems, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, RemoteItem{
			ID:        it.ProductID,
			Name:      it.Name,
			Price:     Amount(it.UnitPrice),
			Quantity:  Amount(it.Quantity),
			Variant:   it.Variant,
			Surcharge: Amount(it.Surcharge),
			Note:      it.Note,
		})
	}
	return RemoteOrder{
		ID:       o.ID,
		Date:     o.CreatedAt.UTC().Format(time.RFC3339),
		Name:     o.CustomerName,
		Phone:    o.Phone,
		Address:  o.Address,
		Items:    items,
		Subtotal: Amount(o.Subtotal),
		Shipping: Amount(o.ShippingCost),
		Total:    Amount(o.Total),
		Schedule: o.Schedule,
		Payment:  o.PaymentMethod,
		Status:   status,
		Note:     o.Note,
		Discount: Amount(o.Discount),
		Coupon:   o.CouponCode,
		MapLink:  o.MapLink,
	}
}

// FromSubmission is the inverse of ToSubmission, used by the backend side of
// the contract. The creation time is not part of the payload.
func FromSubmission(d SubmissionData, createdAt time.Time) domain.Order {
	items := make([]domain.CartItem, 0, len(d.Items))
	for _, it := range d.Items {
		item := domain.CartItem{
			ProductID: it.ID,
			Name:      it.Name,
			UnitPrice: it.Price,
			Quantity:  it.Quantity,
			Variant:   it.Variant,
			Surcharge: it.Surcharge,
			Note:      it.Note,
		}
		item.Recompute()
		items = append(items, item)
	}
	return domain.Order{
		ID:            d.OrderID,
		CreatedAt:     createdAt,
		CustomerName:  d.Name,
		Phone:         d.Phone,
		Address:       d.Address,
		Items:         items,
		Subtotal:      d.Subtotal,
		ShippingCost:  d.Shipping,
		Discount:      d.Discount,
		CouponCode:    d.Coupon,
		Total:         d.Total,
		Schedule:      d.Schedule,
		PaymentMethod: d.Payment,
		Note:          d.Note,
		MapLink:       d.MapLink,
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
