package montecarlo

import (
	"math"
	"slices"
)

// Percentiles is the 25/50/75 band reported for every metric.
type Percentiles struct {
	P25 float64 `json:"p25" yaml:"p25"`
	P50 float64 `json:"p50" yaml:"p50"`
	P75 float64 `json:"p75" yaml:"p75"`
}

// Percentile returns the p-th percentile (0-100) of sorted values using linear
// interpolation between the closest ranks. It returns NaN for an empty slice.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	p = math.Max(0, math.Min(100, p))
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Summarize computes the quartile band of values. The input is not modified.
func Summarize(values []float64) (Percentiles, error) {
	if len(values) == 0 {
		return Percentiles{}, ErrNoValidRuns
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return Percentiles{
		P25: Percentile(sorted, 25),
		P50: Percentile(sorted, 50),
		P75: Percentile(sorted, 75),
	}, nil
}

// Bin is one equal-width histogram bucket, closed on the left.
type Bin struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
	Count int     `json:"count" yaml:"count"`
}

// Histogram buckets values into bins equal-width bins spanning their range.
// The last bin is closed on both sides so the maximum is counted.
func Histogram(values []float64, bins int) []Bin {
	if len(values) == 0 || bins <= 0 {
		return nil
	}
	lo, hi := slices.Min(values), slices.Max(values)
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		out[idx].Count++
	}
	return out
}
