package checkout

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pesansayur/storefront/internal/domain"
	"github.com/pesansayur/storefront/internal/pricing"
)

// ScheduleWindowDays bounds how far ahead a delivery date may be picked.
const ScheduleWindowDays = 7

// ScheduleLabel returns the human label of a delivery schedule. A picked date
// (YYYY-MM-DD, Jakarta time) must fall between today and ScheduleWindowDays
// days from now. An empty option means today.
func ScheduleLabel(opt domain.ScheduleOption, date string, now time.Time) (string, error) {
	switch opt {
	case domain.ScheduleToday, "":
		return "Hari Ini", nil
	case domain.ScheduleTomorrow:
		return "Besok Pagi", nil
	case domain.SchedulePick:
		day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), pricing.WIB)
		if err != nil {
			return "", fmt.Errorf("%w: date %q", ErrInvalidSchedule, date)
		}
		y, m, d := now.In(pricing.WIB).Date()
		today := time.Date(y, m, d, 0, 0, 0, 0, pricing.WIB)
		last := today.AddDate(0, 0, ScheduleWindowDays)
		if day.Before(today) || day.After(last) {
			return "", fmt.Errorf("%w: date must be within %d days", ErrInvalidSchedule, ScheduleWindowDays)
		}
		return pricing.FormatDayMonth(day), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSchedule, opt)
	}
}

// PaymentLabel returns the label of a payment method. An empty method means
// bank transfer.
func PaymentLabel(method domain.PaymentMethod) (string, error) {
	if method == "" {
		method = domain.PaymentTransfer
	}
	label, ok := method.Label()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPayment, method)
	}
	return label, nil
}

// NewOrderID derives an order id from the current time in milliseconds plus a
// random suffix, so sessions checking out in the same millisecond still differ.
func NewOrderID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return "ORD-" + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)+"-"+suffix)
}
