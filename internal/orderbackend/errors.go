package orderbackend

import "errors"

var (
	ErrDuplicateOrder = errors.New("order already exists")
	ErrOrderNotFound  = errors.New("order not found")
	ErrUnknownAction  = errors.New("unknown action")
	ErrMissingField   = errors.New("missing field")
)
