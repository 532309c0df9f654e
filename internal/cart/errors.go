package cart

import "errors"

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("item not found in cart")
	ErrCacheMiss    = errors.New("cache miss")
	ErrInvalidItem  = errors.New("invalid cart item")
)
