package coupon

import "errors"

var (
	ErrEmptyCode          = errors.New("empty coupon code")
	ErrNotFound           = errors.New("coupon not found")
	ErrInactive           = errors.New("coupon inactive")
	ErrExpired            = errors.New("coupon expired")
	ErrNotYetValid        = errors.New("coupon not yet valid")
	ErrLimitReached       = errors.New("coupon usage limit reached")
	ErrBelowMinimum       = errors.New("subtotal below coupon minimum")
	ErrCatalogUnavailable = errors.New("coupon catalog unavailable")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrEmptyCode, "empty_code"},
	{ErrNotFound, "not_found"},
	{ErrInactive, "inactive"},
	{ErrExpired, "expired"},
	{ErrNotYetValid, "not_yet_valid"},
	{ErrLimitReached, "limit_reached"},
	{ErrBelowMinimum, "below_minimum"},
	{ErrCatalogUnavailable, "catalog_unavailable"},
}

// RejectionError carries the reason a code was refused and the message shown
// to the shopper.
type RejectionError struct {
	Reason  error
	Message string
}

func (e *RejectionError) Error() string {
	return e.Message
}

func (e *RejectionError) Unwrap() error {
	return e.Reason
}

// Code is the machine-readable reason.
func (e *RejectionError) Code() string {
	for _, c := range codes {
		if errors.Is(e.Reason, c.err) {
			return c.code
		}
	}
	return "rejected"
}

func reject(reason error, message string) error {
	return &RejectionError{Reason: reason, Message: message}
}
