package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

// detailLimit bounds how much of an error body is echoed in messages.
const detailLimit = 120

// APIError is a non-2xx response from the catalog service.
type APIError struct {
	StatusCode int
	Resource   string // what was being loaded, e.g. "offer ABC-123"
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog api error %d: could not load %s. detail: %s",
		e.StatusCode, e.Resource, truncate(string(e.Body), detailLimit))
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// IsNotFound reports a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// ContentTypeError is a 2xx response whose body could not be decoded as JSON.
type ContentTypeError struct {
	ContentType string
	Err         error
}

func (e *ContentTypeError) Error() string {
	return fmt.Sprintf("decode %q response: %v", e.ContentType, e.Err)
}

func (e *ContentTypeError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err wraps a 404 APIError.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsNotFound()
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
