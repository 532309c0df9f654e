package pricing

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// WIB is Western Indonesia Time, the storefront's display zone.
var WIB = time.FixedZone("WIB", 7*60*60)

var printer = message.NewPrinter(language.Indonesian)

var months = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var shortMonths = [...]string{
	"Jan", "Feb", "Mar", "Apr", "Mei", "Jun",
	"Jul", "Agu", "Sep", "Okt", "Nov", "Des",
}

var weekdays = [...]string{
	"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu",
}

// FormatRupiah renders an amount as "Rp 15.000".
func FormatRupiah(amount int64) string {
	if amount < 0 {
		return "-" + FormatRupiah(-amount)
	}
	return "Rp " + printer.Sprintf("%d", amount)
}

// FormatDate renders "15 Oktober 2026 14.30".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d %02d.%02d",
		t.Day(), months[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

// FormatShortDate renders "15 Okt 2026".
func FormatShortDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), shortMonths[t.Month()-1], t.Year())
}

// FormatLongDay renders "Kamis, 15 Oktober 2026".
func FormatLongDay(t time.Time) string {
	return fmt.Sprintf("%s, %d %s %d",
		weekdays[t.Weekday()], t.Day(), months[t.Month()-1], t.Year())
}

// FormatDayMonth renders "Kamis, 15 Oktober".
func FormatDayMonth(t time.Time) string {
	return fmt.Sprintf("%s, %d %s", weekdays[t.Weekday()], t.Day(), months[t.Month()-1])
}

// DiscountPercent returns the rounded percentage saved by selling at discounted
// instead of price, or 0 when discounted is not an actual discount.
func DiscountPercent(price, discounted int64) int {
	if price <= 0 || discounted <= 0 || discounted >= price {
		return 0
	}
	return int((200*(price-discounted) + price) / (2 * price))
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func Slug(text string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(text), "-")
	return strings.Trim(s, "-")
}
