package montecarlo

import (
	"errors"
	"math"
	"testing"
)

type testRule int

const (
	ruleLow testRule = iota
	ruleHigh
)

func (r testRule) String() string {
	switch r {
	case ruleLow:
		return "low draw"
	case ruleHigh:
		return "high draw"
	}
	return "unknown"
}

type normalSampler struct {
	mean, sd float64
	nanEvery int
	calls    int
}

func (s *normalSampler) Metrics() []string { return []string{"value", "double"} }

func (s *normalSampler) Sample(d *Draw) Run[testRule] {
	s.calls++
	v := d.Normal(s.mean, s.sd)
	if s.nanEvery > 0 && s.calls%s.nanEvery == 0 {
		v = math.NaN()
	}
	run := Run[testRule]{
		Inputs:  map[string]float64{"mean": s.mean},
		Outputs: map[string]float64{"value": v, "double": 2 * v},
	}
	if v < s.mean {
		run.Fired = append(run.Fired, ruleLow)
	} else {
		run.Fired = append(run.Fired, ruleHigh)
	}
	return run
}

func seed(v uint64) *uint64 { return &v }

func TestSimulateDropsNonFiniteRuns(t *testing.T) {
	sampler := &normalSampler{mean: 10, sd: 1, nanEvery: 4}
	batch, err := Simulate[testRule](sampler, 400, NewSource(seed(7)))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if batch.Requested != 400 {
		t.Fatalf("expected requested 400 got %d", batch.Requested)
	}
	if batch.Retained() != 300 {
		t.Fatalf("expected 300 retained runs got %d", batch.Retained())
	}
	for _, m := range batch.Metrics {
		if len(batch.Series[m]) != batch.Retained() {
			t.Fatalf("series %s has %d values, want %d", m, len(batch.Series[m]), batch.Retained())
		}
		band := batch.Summary[m]
		if !(band.P25 <= band.P50 && band.P50 <= band.P75) {
			t.Fatalf("percentiles out of order for %s: %+v", m, band)
		}
	}
}

func TestSimulateEmptyBatch(t *testing.T) {
	sampler := &normalSampler{mean: 1, sd: 1, nanEvery: 1}
	_, err := Simulate[testRule](sampler, 500, NewSource(seed(1)))
	if !errors.Is(err, ErrNoValidRuns) {
		t.Fatalf("expected ErrNoValidRuns got %v", err)
	}
	if sampler.calls != 500 {
		t.Fatalf("expected 500 draws got %d", sampler.calls)
	}
}

func TestSimulateRejectsZeroRuns(t *testing.T) {
	if _, err := Simulate[testRule](&normalSampler{sd: 1}, 0, nil); !errors.Is(err, ErrInvalidRunCount) {
		t.Fatalf("expected ErrInvalidRunCount got %v", err)
	}
}

func TestSimulateDeterministicWithSeed(t *testing.T) {
	a, err := Simulate[testRule](&normalSampler{mean: 5, sd: 2}, 50, NewSource(seed(42)))
	if err != nil {
		t.Fatalf("simulate a: %v", err)
	}
	b, err := Simulate[testRule](&normalSampler{mean: 5, sd: 2}, 50, NewSource(seed(42)))
	if err != nil {
		t.Fatalf("simulate b: %v", err)
	}
	for i := range a.Runs {
		if a.Runs[i].Outputs["value"] != b.Runs[i].Outputs["value"] {
			t.Fatalf("run %d differs: %v vs %v", i, a.Runs[i].Outputs["value"], b.Runs[i].Outputs["value"])
		}
	}
}

func TestFiredRulesDeduplicated(t *testing.T) {
	batch, err := Simulate[testRule](&normalSampler{mean: 0, sd: 1}, 1000, NewSource(seed(3)))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if batch.Fired.Len() != 2 {
		t.Fatalf("expected 2 distinct rules got %d (%v)", batch.Fired.Len(), batch.Fired.Strings())
	}
	got := batch.Fired.Strings()
	if got[0] != "low draw" || got[1] != "high draw" {
		t.Fatalf("unexpected rule order %v", got)
	}
}

func TestProbabilityAtLeast(t *testing.T) {
	batch := &Batch[testRule]{
		Metrics: []string{"irr"},
		Runs:    make([]Run[testRule], 3),
		Series:  map[string][]float64{"irr": {10, 20, 30}},
	}
	got, err := batch.ProbabilityAtLeast("irr", 20)
	if err != nil {
		t.Fatalf("probability: %v", err)
	}
	if got != 66 {
		t.Fatalf("expected truncated 66 got %d", got)
	}
	if _, err := (&Batch[testRule]{}).ProbabilityAtLeast("irr", 20); !errors.Is(err, ErrNoValidRuns) {
		t.Fatalf("expected ErrNoValidRuns for empty batch got %v", err)
	}
	if _, err := batch.ProbabilityAtLeast("moic", 1); err == nil {
		t.Fatalf("expected error for unknown metric")
	}
}
