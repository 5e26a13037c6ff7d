package montecarlo

import (
	"math"
	"testing"
)

func TestDrawSeededSequenceRepeats(t *testing.T) {
	a := NewDraw(NewSource(seed(11)))
	b := NewDraw(NewSource(seed(11)))
	for i := 0; i < 50; i++ {
		na, nb := a.Normal(5, 2), b.Normal(5, 2)
		if na != nb {
			t.Fatalf("normal draw %d differs: %v vs %v", i, na, nb)
		}
		ua, ub := a.Uniform(2, 4), b.Uniform(2, 4)
		if ua != ub {
			t.Fatalf("uniform draw %d differs: %v vs %v", i, ua, ub)
		}
		if ua < 2 || ua >= 4 {
			t.Fatalf("uniform draw %v outside [2, 4)", ua)
		}
	}
}

func TestDrawNilSourceStillDraws(t *testing.T) {
	d := NewDraw(nil)
	if v := d.Normal(0, 1); math.IsNaN(v) || math.IsInf(v, 0) {
		t.Fatalf("expected finite draw got %v", v)
	}
}
