package coupon

import (
	"strings"
	"time"

	"github.com/pesansayur/storefront/internal/domain"
)

// Record is a coupon as published in coupons.json, usage counters included.
type Record struct {
	Code        string `json:"kode"`
	Kind        string `json:"tipe"`
	Value       int64  `json:"nilai"`
	MinOrder    int64  `json:"min_order"`
	MaxDiscount int64  `json:"max_diskon"`
	UsageLimit  int64  `json:"batas_pakai"`
	UsageCount  int64  `json:"sudah_dipakai"`
	ValidFrom   string `json:"berlaku_dari"`
	ValidUntil  string `json:"berlaku_sampai"`
	Active      bool   `json:"aktif"`
}

// Coupon strips the usage counters and validity window.
func (r Record) Coupon() domain.Coupon {
	return domain.Coupon{
		Code:        r.Code,
		Kind:        domain.CouponKind(r.Kind),
		Value:       r.Value,
		MinOrder:    r.MinOrder,
		MaxDiscount: r.MaxDiscount,
		Active:      r.Active,
	}
}

// Catalog is a read-only coupon snapshot.
type Catalog interface {
	Coupons() ([]Record, error)
}

type StaticCatalog []Record

func (c StaticCatalog) Coupons() ([]Record, error) {
	return c, nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseBound reads a validity bound. Blank or unparseable bounds are open.
func parseBound(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
