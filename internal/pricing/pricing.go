package pricing

import "math"

// Breakdown is the priced composition of a checkout, in the order it is derived:
// shipping base, coupon discounts, net shipping, total.
type Breakdown struct {
	Subtotal         int64 `json:"subtotal"`
	ShippingBase     int64 `json:"shipping_base"`
	ShippingDiscount int64 `json:"shipping_discount"`
	Shipping         int64 `json:"shipping"`
	Discount         int64 `json:"discount"`
	Total            int64 `json:"total"`
}

// ShippingBase charges every started kilometre at ratePerKm, unless the subtotal
// reaches the free-shipping threshold.
func ShippingBase(distanceKm float64, ratePerKm, subtotal, freeAbove int64) int64 {
	if freeAbove > 0 && subtotal >= freeAbove {
		return 0
	}
	if distanceKm <= 0 {
		return 0
	}
	return int64(math.Ceil(distanceKm)) * ratePerKm
}

func Compose(subtotal, shippingBase, discount, shippingDiscount int64) Breakdown {
	shipping := shippingBase - shippingDiscount
	if shipping < 0 {
		shipping = 0
	}
	return Breakdown{
		Subtotal:         subtotal,
		ShippingBase:     shippingBase,
		ShippingDiscount: shippingDiscount,
		Shipping:         shipping,
		Discount:         discount,
		Total:            subtotal - discount + shipping,
	}
}
