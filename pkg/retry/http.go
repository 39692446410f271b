package retry

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrStatus is wrapped by every StatusError.
var ErrStatus = errors.New("retry: unexpected HTTP status")

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d", ErrStatus.Error(), e.Code)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// HTTPStatus classifies a response status for Do: nil for 2xx, a retryable
// *StatusError for 5xx and 429, and a stopping *StatusError otherwise.
func HTTPStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code >= 500, code == http.StatusTooManyRequests:
		return &StatusError{Code: code}
	default:
		return Stop(&StatusError{Code: code})
	}
}
