package integration

import (
	"errors"
	"fmt"
)

// APIError is the distinguished error raised by external service clients on
// a non-2xx response. Status 0 means the request never produced a response
// (network error, timeout).
//
// The dispatcher uses Retryable to classify failures: 5xx and network
// failures are worth retrying, 4xx means the request itself is wrong and
// retrying cannot help.
type APIError struct {
	Platform string
	Status   int
	Body     string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: request failed: %s", e.Platform, e.Body)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Platform, e.Status, e.Body)
}

// Retryable reports whether the failure is transient.
func (e *APIError) Retryable() bool {
	return e.Status == 0 || e.Status >= 500
}

// AsAPIError extracts an APIError from an error chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
