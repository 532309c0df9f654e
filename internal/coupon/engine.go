package coupon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pesansayur/storefront/internal/domain"
	"github.com/pesansayur/storefront/internal/notify"
	"github.com/pesansayur/storefront/internal/pricing"
)

type Engine struct {
	catalog  Catalog
	notifier notify.Notifier
	now      func() time.Time
}

func NewEngine(catalog Catalog, notifier notify.Notifier) *Engine {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Engine{catalog: catalog, notifier: notifier, now: time.Now}
}

// Validate checks code against the catalog for an order of the given subtotal.
// The first failing check wins. On success the usage is reported to the
// notifier without waiting for it.
func (e *Engine) Validate(ctx context.Context, code string, subtotal int64) (domain.Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return domain.Coupon{}, reject(ErrEmptyCode, "Masukkan kode kupon")
	}

	records, err := e.catalog.Coupons()
	if err != nil {
		return domain.Coupon{}, &RejectionError{
			Reason:  ErrCatalogUnavailable,
			Message: "Data kupon tidak tersedia",
		}
	}

	rec, ok := find(records, code)
	if !ok {
		return domain.Coupon{}, reject(ErrNotFound, "Kode kupon tidak ditemukan")
	}
	if !rec.Active {
		return domain.Coupon{}, reject(ErrInactive, "Kupon sudah tidak aktif")
	}

	now := e.now()
	if until, ok := parseBound(rec.ValidUntil); ok && until.Before(now) {
		return domain.Coupon{}, reject(ErrExpired, "Kupon sudah kadaluarsa")
	}
	if from, ok := parseBound(rec.ValidFrom); ok && from.After(now) {
		return domain.Coupon{}, reject(ErrNotYetValid, "Kupon belum berlaku")
	}

	if rec.UsageLimit > 0 && rec.UsageCount >= rec.UsageLimit {
		return domain.Coupon{}, reject(ErrLimitReached, "Kupon sudah habis dipakai")
	}
	if rec.MinOrder > 0 && subtotal < rec.MinOrder {
		return domain.Coupon{}, &RejectionError{
			Reason:  fmt.Errorf("%w: minimum %s", ErrBelowMinimum, pricing.FormatRupiah(rec.MinOrder)),
			Message: "Minimum belanja " + pricing.FormatRupiah(rec.MinOrder),
		}
	}

	e.notifier.Notify(ctx, notify.CouponApplied(code, subtotal))
	return rec.Coupon(), nil
}

func find(records []Record, code string) (Record, bool) {
	for _, r := range records {
		if strings.ToUpper(strings.TrimSpace(r.Code)) == code {
			return r, true
		}
	}
	return Record{}, false
}
