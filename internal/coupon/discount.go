package coupon

import (
	"github.com/pesansayur/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// Discount is what a coupon takes off the items and off the shipping.
type Discount struct {
	Amount   int64 `json:"discount"`
	Shipping int64 `json:"shipping_discount"`
}

// CalculateDiscount never returns a negative amount or more than subtotal, even
// for catalog rows with percentages outside 0..100.
func CalculateDiscount(c domain.Coupon, subtotal, shippingBase int64) Discount {
	switch c.Kind {
	case domain.CouponPercentage:
		percent := min(max(c.Value, 0), 100)
		amount := decimal.NewFromInt(subtotal).
			Mul(decimal.NewFromInt(percent)).
			Div(decimal.NewFromInt(100)).
			Round(0).
			IntPart()
		if c.MaxDiscount > 0 && amount > c.MaxDiscount {
			amount = c.MaxDiscount
		}
		return Discount{Amount: min(amount, subtotal)}
	case domain.CouponFixedAmount:
		return Discount{Amount: max(min(c.Value, subtotal), 0)}
	case domain.CouponFreeShipping:
		return Discount{Shipping: shippingBase}
	default:
		return Discount{}
	}
}
