package pricing

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestFormatRupiah(t *testing.T) {
	cases := []struct {
		amount int64
		want   string
	}{
		{0, "Rp 0"},
		{500, "Rp 500"},
		{15000, "Rp 15.000"},
		{1250000, "Rp 1.250.000"},
		{-5000, "-Rp 5.000"},
	}
	for _, tc := range cases {
		assert.Equal(t, FormatRupiah(tc.amount), tc.want)
	}
}

func TestFormatDates(t *testing.T) {
	ts := time.Date(2026, time.October, 15, 14, 30, 0, 0, WIB)

	assert.Equal(t, FormatDate(ts), "15 Oktober 2026 14.30")
	assert.Equal(t, FormatShortDate(ts), "15 Okt 2026")
	assert.Equal(t, FormatLongDay(ts), "Kamis, 15 Oktober 2026")
	assert.Equal(t, FormatDayMonth(ts), "Kamis, 15 Oktober")
}

func TestDiscountPercent(t *testing.T) {
	assert.Equal(t, DiscountPercent(10000, 8500), 15)
	assert.Equal(t, DiscountPercent(3000, 2000), 33)
	assert.Equal(t, DiscountPercent(3000, 1000), 67)
	assert.Equal(t, DiscountPercent(10000, 10000), 0)
	assert.Equal(t, DiscountPercent(10000, 0), 0)
	assert.Equal(t, DiscountPercent(0, 100), 0)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, Slug("Bayam Hijau Segar"), "bayam-hijau-segar")
	assert.Equal(t, Slug("  Cabai (Rawit) 250g! "), "cabai-rawit-250g")
}
