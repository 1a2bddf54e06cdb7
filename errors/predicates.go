package errors

import (
	"errors"
	"strings"

	agdthttp "github.com/randalmurphal/agdt/http"
)

// Sentinels joined into CLIErrors so callers can test the category with
// errors.Is after wrapping.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrPermissionDenied = errors.New("permission denied")
	ErrConnectionFailed = errors.New("connection failed")
	ErrNotInGitRepo     = errors.New("not in a git repository")
)

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, agdthttp.ErrUnauthorized) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unauthorized") || strings.Contains(msg, "401")
}

// IsPermissionError reports whether err is an authorisation failure.
func IsPermissionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPermissionDenied) || errors.Is(err, agdthttp.ErrForbidden) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "forbidden") || strings.Contains(msg, "403")
}

// IsConnectionError reports network, TLS and timeout failures.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConnectionFailed) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"dial tcp",
		"x509",
		"tls:",
		"timeout",
		"deadline exceeded",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
