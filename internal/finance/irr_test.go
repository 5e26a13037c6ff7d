package finance

import (
	"errors"
	"math"
	"testing"
)

func TestIRRKnownValues(t *testing.T) {
	tests := []struct {
		name  string
		flows []float64
		want  float64
	}{
		{"single period", []float64{-100, 110}, 0.10},
		{"two periods", []float64{-100, 0, 121}, 0.10},
		{"annuity", []float64{-100, 39, 59, 55, 20}, 0.2809484211599611},
		{"loss", []float64{-100, 50, 40}, -0.0699264746},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := IRR(tc.flows)
			if err != nil {
				t.Fatalf("irr: %v", err)
			}
			if math.Abs(got-tc.want) > 1e-6 {
				t.Fatalf("expected %.7f got %.7f", tc.want, got)
			}
			if npv := NPV(got, tc.flows); math.Abs(npv) > 1e-6 {
				t.Fatalf("npv at solution should be ~0, got %v", npv)
			}
		})
	}
}

func TestIRRNoSolution(t *testing.T) {
	tests := []struct {
		name  string
		flows []float64
	}{
		{"all negative", []float64{-200, -5, -5}},
		{"all positive", []float64{10, 10}},
		{"too short", []float64{-100}},
		{"nan flow", []float64{-100, math.NaN()}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := IRR(tc.flows)
			if !errors.Is(err, ErrNoIRR) {
				t.Fatalf("expected ErrNoIRR got %v", err)
			}
			if !math.IsNaN(got) {
				t.Fatalf("expected NaN rate got %v", got)
			}
		})
	}
}

func TestIRRDeepLossStaysInBracket(t *testing.T) {
	tests := []struct {
		name  string
		flows []float64
	}{
		{"near wipeout", []float64{-200, 1, 1, 1, 1, 5}},
		{"late recovery", []float64{-100, -20, 0, 0, 0, 30}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := IRR(tc.flows)
			if err != nil {
				t.Fatalf("irr: %v", err)
			}
			if got <= -1 || got >= 0 {
				t.Fatalf("expected a loss rate in (-1, 0), got %v", got)
			}
			if npv := NPV(got, tc.flows); math.Abs(npv) > 1e-6 {
				t.Fatalf("npv at solution should be ~0, got %v", npv)
			}
		})
	}
}

func TestMOIC(t *testing.T) {
	if got := MOIC([]float64{10, 20, 30}, 340, 200); got != 2 {
		t.Fatalf("expected 2.0x got %v", got)
	}
	if got := MOIC(nil, 1, 0); !math.IsNaN(got) {
		t.Fatalf("zero outlay should be NaN, got %v", got)
	}
}
