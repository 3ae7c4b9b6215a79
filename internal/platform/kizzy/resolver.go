package kizzy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alanyoungcy/kizzybot/internal/domain"
)

// resolve attempts an ordered list of endpoint candidates for one logical
// operation. The result is the decoded payload of the first candidate whose
// request succeeds at the transport level AND whose body decodes as a T.
// Candidates after the first success are never attempted, and a failed
// candidate is abandoned immediately rather than retried; the platform's
// API surface drifts across versions, so redundancy over historically valid
// paths is cheaper than strict versioning.
//
// When every candidate fails the error wraps domain.ErrAllEndpointsFailed.
// Context cancellation is surfaced as-is so a worker shutdown is not
// mistaken for endpoint drift, and a rejected session stops the loop at
// once: every candidate rides the same session, so trying more paths
// cannot help.
func resolve[T any](ctx context.Context, ch domain.RequestChannel, candidates []domain.Request) (T, error) {
	var zero T

	if len(candidates) == 0 {
		return zero, fmt.Errorf("kizzy: resolve: %w: no candidates", domain.ErrAllEndpointsFailed)
	}

	var lastErr error
	for _, cand := range candidates {
		body, err := ch.Execute(ctx, cand)
		if err != nil {
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
			if errors.Is(err, domain.ErrAuthenticationFailed) {
				return zero, fmt.Errorf("%s %s: %w", cand.Method, cand.URL, err)
			}
			lastErr = fmt.Errorf("%s %s: %w: %v", cand.Method, cand.URL, domain.ErrTransport, err)
			continue
		}

		// Decode into a fresh value per candidate so a partially matching
		// body from one endpoint cannot leak into the next attempt.
		var out T
		if err := json.Unmarshal(body, &out); err != nil {
			lastErr = fmt.Errorf("%s %s: %w: %v", cand.Method, cand.URL, domain.ErrDecode, err)
			continue
		}
		return out, nil
	}

	return zero, fmt.Errorf("kizzy: resolve: %w: %v", domain.ErrAllEndpointsFailed, lastErr)
}
