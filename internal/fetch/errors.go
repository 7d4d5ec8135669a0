package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrTimeout    = errors.New("request timed out")
	ErrNetwork    = errors.New("network error")
	ErrHTTPStatus = errors.New("unexpected HTTP status")
)

// StatusError is returned when the server responds with anything but 200 OK.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("the server returned an error: %d %s", e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// IsTemporary reports whether the failure is likely to go away on its own: timeouts, network
// faults and 5xx responses.
func IsTemporary(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrNetwork) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 && statusErr.Code < 600
	}

	return false
}
