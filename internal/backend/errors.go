package backend

import "errors"

var (
	ErrNotConfigured = errors.New("backend: url not configured")
	ErrUnavailable   = errors.New("backend: unavailable")
)

// RemoteError is a well-formed response with success=false, e.g. an unknown
// order id. It carries the backend's own message.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return "backend: request rejected"
	}
	return "backend: " + e.Message
}
