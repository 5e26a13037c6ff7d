// Package montecarlo runs the repeated draw/aggregate loop shared by every
// scenario tool. Tools supply a Sampler; the engine owns filtering of
// non-finite runs, percentile bands and the fired-rule set.
package montecarlo

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

var (
	// ErrNoValidRuns is returned when every draw produced a non-finite headline metric.
	ErrNoValidRuns = errors.New("no valid runs")
	// ErrInvalidRunCount is returned for a requested run count below one.
	ErrInvalidRunCount = errors.New("run count must be at least 1")
)

// Run is one sampled draw.
type Run[R Label] struct {
	Inputs  map[string]float64 `json:"inputs"`
	Outputs map[string]float64 `json:"outputs"`
	Fired   []R                `json:"-"`
}

// Sampler produces one Run per call. Metrics lists the output names, the
// first one being the headline metric used for filtering.
type Sampler[R Label] interface {
	Metrics() []string
	Sample(d *Draw) Run[R]
}

// Batch is the retained runs of one simulation request.
type Batch[R Label] struct {
	Requested int
	Metrics   []string
	Runs      []Run[R]
	Series    map[string][]float64
	Summary   map[string]Percentiles
	Fired     *RuleSet[R]
}

// Simulate draws n runs from sampler, drops runs whose headline metric is not
// finite and summarises what is left.
func Simulate[R Label](sampler Sampler[R], n int, src rand.Source) (*Batch[R], error) {
	if n < 1 {
		return nil, ErrInvalidRunCount
	}
	metrics := sampler.Metrics()
	if len(metrics) == 0 {
		return nil, errors.New("sampler declares no metrics")
	}
	headline := metrics[0]
	draw := NewDraw(src)

	batch := &Batch[R]{
		Requested: n,
		Metrics:   metrics,
		Runs:      make([]Run[R], 0, n),
		Series:    make(map[string][]float64, len(metrics)),
		Summary:   make(map[string]Percentiles, len(metrics)),
		Fired:     NewRuleSet[R](),
	}
	for i := 0; i < n; i++ {
		run := sampler.Sample(draw)
		if !finite(run.Outputs[headline]) {
			continue
		}
		batch.Runs = append(batch.Runs, run)
		for _, m := range metrics {
			batch.Series[m] = append(batch.Series[m], run.Outputs[m])
		}
		batch.Fired.Add(run.Fired...)
	}
	if len(batch.Runs) == 0 {
		return nil, ErrNoValidRuns
	}
	for _, m := range metrics {
		band, err := Summarize(batch.Series[m])
		if err != nil {
			return nil, fmt.Errorf("summarise %s: %w", m, err)
		}
		batch.Summary[m] = band
	}
	return batch, nil
}

// Retained returns the number of runs that survived filtering.
func (b *Batch[R]) Retained() int {
	if b == nil {
		return 0
	}
	return len(b.Runs)
}

// Headline returns the name of the filtering metric.
func (b *Batch[R]) Headline() string {
	if b == nil || len(b.Metrics) == 0 {
		return ""
	}
	return b.Metrics[0]
}

// ProbabilityAtLeast returns the truncated percentage of retained runs whose
// metric is at least bar.
func (b *Batch[R]) ProbabilityAtLeast(metric string, bar float64) (int, error) {
	if b == nil || len(b.Runs) == 0 {
		return 0, ErrNoValidRuns
	}
	series, ok := b.Series[metric]
	if !ok {
		return 0, fmt.Errorf("unknown metric %q", metric)
	}
	hits := 0
	for _, v := range series {
		if v >= bar {
			hits++
		}
	}
	return 100 * hits / len(series), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
