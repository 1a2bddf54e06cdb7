package http

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors matched through APIError.Unwrap.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("authentication failed")
	ErrForbidden    = errors.New("permission denied")
	ErrNotFound     = errors.New("resource not found")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrServerError  = errors.New("server error")
)

// APIError is a non-2xx response from an integration API.
type APIError struct {
	Service    string // "jira", "github", ...
	StatusCode int
	Endpoint   string
	Message    string

	// Fields holds per-field validation messages when the API reports them.
	Fields map[string]string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s API error (%d) at %s: %s", e.Service, e.StatusCode, e.Endpoint, e.Message)

	if len(e.Fields) > 0 {
		names := make([]string, 0, len(e.Fields))
		for name := range e.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "; %s: %s", name, e.Fields[name])
		}
	}
	return b.String()
}

// Unwrap maps the status code onto a sentinel error.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == 400:
		return ErrBadRequest
	case e.StatusCode == 401:
		return ErrUnauthorized
	case e.StatusCode == 403:
		return ErrForbidden
	case e.StatusCode == 404:
		return ErrNotFound
	case e.StatusCode == 429:
		return ErrRateLimited
	case e.StatusCode >= 500:
		return ErrServerError
	default:
		return nil
	}
}

// IsNotFound reports whether err is a 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized reports whether err is a 401.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsRetryable reports whether err is transient.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServerError)
}
