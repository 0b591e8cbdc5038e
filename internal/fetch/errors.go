package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoURL marks a resource with neither url nor official_site.
var ErrNoURL = errors.New("resource has no url")

// StatusError is a non-2xx reply from the resolve endpoint.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Retryable is false for 404, which means the endpoint knows no icon.
func (e *StatusError) Retryable() bool {
	return e.StatusCode != http.StatusNotFound
}

// NetworkError indicates a transport failure or timeout. Always retryable.
type NetworkError struct {
	URL     string
	Wrapped error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request %s: %v", e.URL, e.Wrapped)
}

func (e *NetworkError) Unwrap() error { return e.Wrapped }

func (e *NetworkError) Retryable() bool { return true }

// ResponseError is a 2xx reply whose body is not a resolve response.
type ResponseError struct {
	URL    string
	Reason string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s: unexpected response: %s", e.URL, e.Reason)
}

// IsRetryable reports whether another attempt could succeed.
func IsRetryable(err error) bool {
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}

// IsNotFound reports whether err is a 404 from the endpoint.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}
