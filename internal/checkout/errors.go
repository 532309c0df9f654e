package checkout

import "errors"

var (
	ErrEmptyCart             = errors.New("cart is empty, nothing to checkout")
	ErrMissingCustomerFields = errors.New("name, phone and address are required")
	ErrNoLocation            = errors.New("delivery location has not been picked")
	ErrOutOfRange            = errors.New("delivery location is outside the delivery radius")
	ErrInvalidSchedule       = errors.New("invalid delivery schedule")
	ErrInvalidPayment        = errors.New("invalid payment method")
)
