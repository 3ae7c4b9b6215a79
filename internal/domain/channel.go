package domain

import "context"

// Request is one HTTP-style operation descriptor. Body is held as bytes so a
// request can be replayed against multiple endpoint candidates.
type Request struct {
	Method      string
	URL         string
	ContentType string // empty for bodyless requests
	Body        []byte
}

// RequestChannel executes requests under an established account session
// identity. Implementations attach whatever credentials the session carries;
// callers must not assume any particular transport or execution environment.
//
// Execute returns the response body on 2xx and an error on connection
// failure or a non-2xx status. A 401/403 error wraps
// ErrAuthenticationFailed.
type RequestChannel interface {
	Execute(ctx context.Context, req Request) ([]byte, error)

	// Warm performs presentation-layer session preparation (for example
	// suppressing first-visit tutorial prompts). Failures are non-fatal.
	Warm(ctx context.Context) error

	Close() error
}
