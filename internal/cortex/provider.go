// Package cortex routes completion requests to hosted AI models. The
// default model is tried first, then each configured fallback in order,
// so a rate-limited or unreachable backend degrades to the next model
// instead of failing the task.
package cortex

import (
	"context"
	"errors"
	"strings"
)

// ErrRateLimited is returned when a model backend throttles the request.
// The router skips the provider for a cooldown period.
var ErrRateLimited = errors.New("cortex: rate limited")

// ErrNoProvider is returned when no configured provider can serve a model.
var ErrNoProvider = errors.New("cortex: no provider available")

// Request is a single completion request.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Response is a completed model invocation.
type Response struct {
	Model   string
	Content string
}

// Provider is one model backend. Implementations must be safe for
// concurrent use.
type Provider interface {
	// Name identifies the backend in logs and task records.
	Name() string

	// Serves reports whether this backend can serve the named model.
	Serves(model string) bool

	// Complete invokes the model.
	Complete(ctx context.Context, model string, req Request) (*Response, error)

	// Available reports whether the backend is configured and reachable
	// enough to attempt a call. Cheap; used by health probes.
	Available() bool
}

// cleanContent strips markdown fences some models wrap around output.
func cleanContent(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
