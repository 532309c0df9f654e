package domain

type CouponKind string

const (
	CouponPercentage   CouponKind = "persen"
	CouponFixedAmount  CouponKind = "nominal"
	CouponFreeShipping CouponKind = "gratis_ongkir"
)

// Coupon is the sanitized view of a catalog coupon, without usage counters.
type Coupon struct {
	Code        string     `json:"kode"`
	Kind        CouponKind `json:"tipe"`
	Value       int64      `json:"nilai"`
	MinOrder    int64      `json:"min_order"`
	MaxDiscount int64      `json:"max_diskon"`
	Active      bool       `json:"aktif"`
}
