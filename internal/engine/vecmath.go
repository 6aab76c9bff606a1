package engine

import "math"

// Vector helpers for points in N-dimensional reserve space. All functions are
// pure. Dimension mismatches are programmer errors and panic; callers are
// expected to pass vectors sized by the owning pool.

// SumCoords returns the coordinate sum of v using compensated (Kahan)
// accumulation so the result stays stable for a few hundred tokens.
func SumCoords(v []float64) float64 {
	var sum, comp float64
	for _, x := range v {
		y := x - comp
		t := sum + y
		comp = (t - sum) - y
		sum = t
	}
	return sum
}

// Norm returns the Euclidean norm of v.
func Norm(v []float64) float64 {
	var sum, comp float64
	for _, x := range v {
		y := x*x - comp
		t := sum + y
		comp = (t - sum) - y
		sum = t
	}
	return math.Sqrt(sum)
}

// Dot returns the inner product of a and b.
func Dot(a, b []float64) float64 {
	if len(a) != len(b) {
		panic("engine: dot product dimension mismatch")
	}
	var sum, comp float64
	for i, x := range a {
		y := x*b[i] - comp
		t := sum + y
		comp = (t - sum) - y
		sum = t
	}
	return sum
}

// Alpha returns the projection of v onto the equal-price diagonal,
// sum(v)/sqrt(n). It is the coordinate a tick's state machine is driven by.
func Alpha(v []float64) float64 {
	if len(v) == 0 {
		panic("engine: alpha of empty vector")
	}
	return SumCoords(v) / math.Sqrt(float64(len(v)))
}

// distFromPeg returns the distance of v from the peg point c*(1,...,1).
func distFromPeg(v []float64, c float64) float64 {
	var sum, comp float64
	for _, x := range v {
		d := x - c
		y := d*d - comp
		t := sum + y
		comp = (t - sum) - y
		sum = t
	}
	return math.Sqrt(sum)
}
