package engine

import (
	"fmt"
	"time"
)

// HTTPError is a non-2xx answer from an upstream provider.
type HTTPError struct {
	StatusCode int
	Body       string

	// RetryAfter is the provider's Retry-After hint, if any.
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "upstream http error"
	}
	if e.Body == "" {
		return fmt.Sprintf("upstream http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("upstream http error: status=%d body=%s", e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int { return e.StatusCode }
