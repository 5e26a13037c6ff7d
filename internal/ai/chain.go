package ai

import (
	"context"
	"errors"
)

type generatorChain struct {
	primary  Generator
	fallback Generator
}

// WithFallback returns a generator that first tries the primary implementation
// and falls back to the provided generator when the primary is unavailable or
// fails.
func WithFallback(primary, fallback Generator) Generator {
	if primary == nil {
		return fallback
	}
	if fallback == nil {
		return primary
	}
	return &generatorChain{primary: primary, fallback: fallback}
}

func (c *generatorChain) Enabled() bool {
	if c == nil {
		return false
	}
	if c.primary != nil && c.primary.Enabled() {
		return true
	}
	if c.fallback != nil && c.fallback.Enabled() {
		return true
	}
	return false
}

// Generate returns the primary's text, or the fallback's when the primary is
// disabled or errors. When both fail the two errors are joined.
func (c *generatorChain) Generate(ctx context.Context, system, prompt string) (string, error) {
	if c == nil {
		return "", ErrDisabled
	}
	var primaryErr error
	if c.primary != nil && c.primary.Enabled() {
		text, err := c.primary.Generate(ctx, system, prompt)
		if err == nil {
			return text, nil
		}
		primaryErr = err
	}
	if c.fallback != nil && c.fallback.Enabled() {
		text, err := c.fallback.Generate(ctx, system, prompt)
		if err == nil {
			return text, nil
		}
		if primaryErr != nil {
			return "", errors.Join(primaryErr, err)
		}
		return "", err
	}
	if primaryErr != nil {
		return "", primaryErr
	}
	return "", ErrDisabled
}

// Disabled is a Generator that always reports ErrDisabled.
type Disabled struct{}

func (Disabled) Enabled() bool { return false }

func (Disabled) Generate(context.Context, string, string) (string, error) {
	return "", ErrDisabled
}
