package engine

import (
	"math"
	"testing"
)

func TestNorm(t *testing.T) {
	if got := Norm([]float64{3, 4}); math.Abs(got-5) > 1e-12 {
		t.Fatalf("norm mismatch: got %v want 5", got)
	}
	if got := Norm(nil); got != 0 {
		t.Fatalf("norm of empty vector: got %v want 0", got)
	}
}

func TestSumCoordsStable(t *testing.T) {
	v := make([]float64, 500)
	for i := range v {
		v[i] = 0.1
	}
	if got := SumCoords(v); math.Abs(got-50) > 1e-9 {
		t.Fatalf("compensated sum drifted: got %v want 50", got)
	}
}

func TestAlpha(t *testing.T) {
	// Balanced point of a radius-10 tick in 3 dims projects to the radius.
	r := 10.0
	v := []float64{r / math.Sqrt(3), r / math.Sqrt(3), r / math.Sqrt(3)}
	if got := Alpha(v); math.Abs(got-r) > 1e-12 {
		t.Fatalf("alpha mismatch: got %v want %v", got, r)
	}
}

func TestDotDimensionMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on dimension mismatch")
		}
	}()
	Dot([]float64{1, 2}, []float64{1})
}

func TestDistFromPeg(t *testing.T) {
	// Balanced point sits exactly radius away from the peg point.
	r := 7.5
	n := 5
	c := pegCenter(r, n)
	v := make([]float64, n)
	for i := range v {
		v[i] = r / math.Sqrt(float64(n))
	}
	if got := distFromPeg(v, c); math.Abs(got-r) > 1e-12 {
		t.Fatalf("peg distance mismatch: got %v want %v", got, r)
	}
}
