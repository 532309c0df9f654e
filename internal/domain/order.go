package domain

import (
	"errors"
	"time"
)

var ErrInconsistentTotals = errors.New("order total does not match subtotal - discount + shipping")

type ScheduleOption string

const (
	ScheduleToday    ScheduleOption = "hari-ini"
	ScheduleTomorrow ScheduleOption = "besok"
	SchedulePick     ScheduleOption = "pilih"
)

type PaymentMethod string

const (
	PaymentTransfer PaymentMethod = "transfer"
	PaymentQRIS     PaymentMethod = "qris"
	PaymentCOD      PaymentMethod = "cod"
)

func (p PaymentMethod) Label() (string, bool) {
	switch p {
	case PaymentTransfer:
		return "Transfer Bank", true
	case PaymentQRIS:
		return "QRIS", true
	case PaymentCOD:
		return "Bayar di Tempat (COD)", true
	default:
		return "", false
	}
}

// Order is the finalized, fully priced snapshot produced by checkout. Items are
// copied, never shared with the cart.
type Order struct {
	ID               string     `json:"order_id"`
	CreatedAt        time.Time  `json:"created_at"`
	CustomerName     string     `json:"customer_name"`
	Phone            string     `json:"phone"`
	Address          string     `json:"address"`
	Items            []CartItem `json:"items"`
	Subtotal         int64      `json:"subtotal"`
	ShippingCost     int64      `json:"shipping_cost"`
	ShippingDiscount int64      `json:"shipping_discount,omitempty"`
	Discount         int64      `json:"discount"`
	CouponCode       string     `json:"coupon_code,omitempty"`
	Total            int64      `json:"total"`
	Schedule         string     `json:"schedule"`
	PaymentMethod    string     `json:"payment_method"`
	Note             string     `json:"note,omitempty"`
	MapLink          string     `json:"map_link,omitempty"`
	Location         *Point     `json:"location,omitempty"`
	DistanceKm       float64    `json:"distance_km,omitempty"`
}

// Validate checks the pricing invariant of a snapshot.
func (o *Order) Validate() error {
	if o.Subtotal < 0 || o.Discount < 0 || o.ShippingCost < 0 || o.Total < 0 {
		return ErrInconsistentTotals
	}
	if o.Total != o.Subtotal-o.Discount+o.ShippingCost {
		return ErrInconsistentTotals
	}
	return nil
}

func (o *Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}
