package montecarlo

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Draw hands out random variates for a single batch. Every run in the batch
// shares the same source, so a seeded source reproduces the whole sequence.
type Draw struct {
	src rand.Source
}

// NewDraw wraps src. A nil src falls back to a randomly seeded PCG.
func NewDraw(src rand.Source) *Draw {
	if src == nil {
		src = NewSource(nil)
	}
	return &Draw{src: src}
}

// NewSource returns a PCG source seeded from seed, or from the global
// generator when seed is nil.
func NewSource(seed *uint64) rand.Source {
	if seed == nil {
		return rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15)
}

// Normal draws from N(mean, sd).
func (d *Draw) Normal(mean, sd float64) float64 {
	return distuv.Normal{Mu: mean, Sigma: sd, Src: d.src}.Rand()
}

// Uniform draws from U[lo, hi).
func (d *Draw) Uniform(lo, hi float64) float64 {
	return distuv.Uniform{Min: lo, Max: hi, Src: d.src}.Rand()
}
