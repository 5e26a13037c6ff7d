package ai

import (
	"context"
	"errors"
)

// Generator produces free-text narratives from a system instruction and a
// user prompt.
type Generator interface {
	Enabled() bool
	Generate(ctx context.Context, system, prompt string) (string, error)
}

var (
	// ErrDisabled reports a generator with no credential configured.
	ErrDisabled = errors.New("ai generator disabled: no API key configured")
	// ErrUnauthorized reports a credential rejected by the provider.
	ErrUnauthorized = errors.New("ai provider rejected the credential")
	// ErrRateLimited reports a provider throttling response.
	ErrRateLimited = errors.New("ai provider rate limited the request")
	// ErrEmptyResponse reports a completion with no text.
	ErrEmptyResponse = errors.New("ai provider returned an empty narrative")
)

// Unavailable reports whether err means no generator could be reached
// because of configuration rather than an upstream failure.
func Unavailable(err error) bool {
	return errors.Is(err, ErrDisabled)
}
