package testutil

import (
	"context"
	"testing"
	"time"
)

// TestContext returns the test's own context. It is canceled before
// cleanup functions run, so background goroutines see Done in time.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	return t.Context()
}

// TestContextWithTimeout bounds TestContext by timeout.
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), timeout)
	t.Cleanup(cancel)
	return ctx
}
