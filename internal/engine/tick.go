package engine

import "math"

// TickState is the closed set of liquidity-position states.
type TickState int

const (
	// TickInterior marks a position that still trades on every token.
	TickInterior TickState = iota
	// TickBoundary marks a position whose depeg-tolerance plane has been
	// reached; its capital is fully exposed to the most-drained token.
	TickBoundary
)

func (s TickState) String() string {
	switch s {
	case TickInterior:
		return "interior"
	case TickBoundary:
		return "boundary"
	default:
		return "unknown"
	}
}

// Tick is one liquidity provider's position: a point on a sphere of radius
// Radius in N-dimensional reserve space, capped by the plane offset K.
//
// The sphere is centered on the peg point (2*Radius/sqrt(n))*(1,...,1); at
// creation the balanced point Radius/sqrt(n) per token lies on it and also
// satisfies norm(reserves) == Radius. Radius and K are fixed for the life of
// the position and only rescale under partial withdrawal; trading moves
// Reserves along the sphere and flips State.
type Tick struct {
	ID        int64
	Owner     string
	Reserves  []float64
	Radius    float64
	K         float64
	Liquidity float64
	FeeBps    uint32
	State     TickState
}

// KBounds returns the valid plane-offset range [kMin, kMax] for a tick of
// radius r in an n-token pool: r*(sqrt(n)-1) up to r*(n-1)/sqrt(n), the alpha
// reached with one token fully drained.
func KBounds(r float64, n int) (kMin, kMax float64) {
	sqrtN := math.Sqrt(float64(n))
	kMin = r * (sqrtN - 1)
	kMax = r * float64(n-1) / sqrtN
	return kMin, kMax
}

// kFromTolerance maps a depeg tolerance in (0,1] linearly into [kMin, kMax].
// Tolerance 1 ("never want boundary exposure") yields the maximal offset;
// lower tolerance accepts boundary exposure sooner via a lower offset. The
// mapping is monotonically increasing in the tolerance.
func kFromTolerance(r float64, n int, tolerance float64) float64 {
	kMin, kMax := KBounds(r, n)
	return kMin + tolerance*(kMax-kMin)
}

// pegCenter returns the per-coordinate center of the sphere a tick of radius
// r lives on in n dimensions.
func pegCenter(r float64, n int) float64 {
	return 2 * r / math.Sqrt(float64(n))
}

// reserveFloor returns the minimum reachable per-token reserve for radius r,
// clamped at zero. Reserves below the floor are not reachable on the sphere,
// which is what lets a bounded position quote as if it had deeper virtual
// reserves.
func reserveFloor(r float64, n int) float64 {
	floor := pegCenter(r, n) - r
	if floor < 0 {
		return 0
	}
	return floor
}

// Alpha returns the tick's current diagonal projection.
func (t *Tick) Alpha() float64 {
	return Alpha(t.Reserves)
}

// evalState derives the state from the current reserves: the position is on
// its boundary once alpha has reached the committed plane offset.
func (t *Tick) evalState() TickState {
	if t.Alpha() >= t.K {
		return TickBoundary
	}
	return TickInterior
}

// renormalize rescales v around its peg center so it sits exactly on the
// sphere of the given radius. A no-op for a point already on the sphere.
func renormalize(v []float64, radius float64) {
	c := pegCenter(radius, len(v))
	dist := distFromPeg(v, c)
	if dist == 0 {
		return
	}
	scale := radius / dist
	for j := range v {
		v[j] = c + (v[j]-c)*scale
	}
}

// sphereDeviation returns |dist(reserves, peg center) - radius|, the residual
// against the tick's own sphere constraint.
func (t *Tick) sphereDeviation() float64 {
	c := pegCenter(t.Radius, len(t.Reserves))
	return math.Abs(distFromPeg(t.Reserves, c) - t.Radius)
}
