package delivery

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is a provider call failure. RateLimited marks failures caused by the
// provider's rate ceiling, which the dispatch engine treats as retryable.
type Error struct {
	StatusCode  int
	Message     string
	RateLimited bool
	Err         error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("delivery provider: status %d: %s", e.StatusCode, e.Message)
	}
	return "delivery provider: " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// newStatusError classifies a non-2xx provider response. 429 is always
// rate-limit-shaped; some providers signal the ceiling only in the body.
func newStatusError(statusCode int, body string) *Error {
	lower := strings.ToLower(body)
	rateLimited := statusCode == http.StatusTooManyRequests ||
		strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "too many requests")

	return &Error{
		StatusCode:  statusCode,
		Message:     body,
		RateLimited: rateLimited,
	}
}

// IsRateLimited reports whether err is a rate-limit-shaped provider failure.
func IsRateLimited(err error) bool {
	var provErr *Error
	if errors.As(err, &provErr) {
		return provErr.RateLimited
	}
	return false
}
