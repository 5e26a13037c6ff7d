package ai

import (
	"context"
	"errors"
	"testing"
)

type stubGenerator struct {
	enabled bool
	text    string
	err     error
	calls   int
}

func (s *stubGenerator) Enabled() bool { return s.enabled }

func (s *stubGenerator) Generate(context.Context, string, string) (string, error) {
	s.calls++
	return s.text, s.err
}

func TestWithFallback(t *testing.T) {
	upstream := errors.New("upstream down")
	tests := []struct {
		name          string
		primary       *stubGenerator
		fallback      *stubGenerator
		want          string
		wantErr       error
		fallbackCalls int
	}{
		{"primary ok", &stubGenerator{enabled: true, text: "primary"}, &stubGenerator{enabled: true, text: "fallback"}, "primary", nil, 0},
		{"primary disabled", &stubGenerator{}, &stubGenerator{enabled: true, text: "fallback"}, "fallback", nil, 1},
		{"primary fails", &stubGenerator{enabled: true, err: upstream}, &stubGenerator{enabled: true, text: "fallback"}, "fallback", nil, 1},
		{"both fail", &stubGenerator{enabled: true, err: upstream}, &stubGenerator{enabled: true, err: ErrRateLimited}, "", upstream, 1},
		{"primary fails fallback disabled", &stubGenerator{enabled: true, err: upstream}, &stubGenerator{}, "", upstream, 0},
		{"both disabled", &stubGenerator{}, &stubGenerator{}, "", ErrDisabled, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := WithFallback(tc.primary, tc.fallback)
			text, err := g.Generate(context.Background(), "sys", "prompt")
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v got %v", tc.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if text != tc.want {
				t.Fatalf("expected %q got %q", tc.want, text)
			}
			if tc.fallback.calls != tc.fallbackCalls {
				t.Fatalf("fallback called %d times, want %d", tc.fallback.calls, tc.fallbackCalls)
			}
		})
	}
}

func TestWithFallbackNil(t *testing.T) {
	only := &stubGenerator{enabled: true, text: "x"}
	if WithFallback(nil, only) != Generator(only) {
		t.Fatalf("nil primary should return fallback")
	}
	if WithFallback(only, nil) != Generator(only) {
		t.Fatalf("nil fallback should return primary")
	}
	if (Disabled{}).Enabled() {
		t.Fatalf("Disabled reports enabled")
	}
	if !Unavailable(func() error { _, err := (Disabled{}).Generate(context.Background(), "", ""); return err }()) {
		t.Fatalf("Disabled should be unavailable")
	}
}
