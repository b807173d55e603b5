// Package fallback provides an ordered-fallback combinator for ranked
// provider chains. Providers are tried in priority order with uniform
// error handling: an individual failure is logged and swallowed, and the
// next provider is tried. Only total exhaustion surfaces an error.
package fallback

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ErrExhausted is returned when every provider in the chain failed or
// was unavailable.
var ErrExhausted = errors.New("all providers exhausted")

// Provider is the minimal contract a chain member must satisfy.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Available reports whether the provider is configured and usable.
	// Unavailable providers are skipped without counting as failures.
	Available() bool
}

// Run tries each provider in order and returns the first successful
// result together with the name of the provider that produced it.
func Run[P Provider, T any](ctx context.Context, kind string, providers []P, op func(context.Context, P) (T, error)) (T, string, error) {
	var zero T
	var lastErr error

	for _, p := range providers {
		if !p.Available() {
			continue
		}

		result, err := op(ctx, p)
		if err != nil {
			log.Warn().
				Err(err).
				Str("kind", kind).
				Str("provider", p.Name()).
				Msg("Provider failed, trying next in chain")
			lastErr = err
			continue
		}

		return result, p.Name(), nil
	}

	if lastErr != nil {
		return zero, "", fmt.Errorf("%w: last error: %w", ErrExhausted, lastErr)
	}
	return zero, "", ErrExhausted
}
