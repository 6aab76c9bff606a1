package engine

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

const (
	// aggregateEps bounds the drift between total reserves and the per-tick
	// sums, relative to the aggregate magnitude.
	aggregateEps = 1e-6
	// sphereEps bounds a tick's residual against its own sphere constraint.
	sphereEps = 1e-9
)

// Pool is the ledger consolidating every liquidity position of one N-token
// pegged pool. It owns all Tick entities and the aggregate counters derived
// from them, and serializes every public operation behind a single lock.
type Pool struct {
	mu sync.RWMutex

	tokenSymbols []string
	tokenIndex   map[string]int
	baseRate     float64

	ticks    map[int64]*Tick
	interior map[int64]struct{}
	boundary map[int64]struct{}

	totalReserves  []float64
	totalLiquidity float64
	totalRadius    float64

	nextTickID  int64
	transitions []TransitionEvent

	// corrupted is set when an invariant check fails; every later mutation
	// fails with ErrInternalInconsistency instead of compounding the damage.
	corrupted bool
}

// New creates an empty pool over the given token symbols. baseRate converts
// committed capital into sphere radii and is fixed for the pool's lifetime.
func New(tokenSymbols []string, baseRate float64) (*Pool, error) {
	if len(tokenSymbols) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 tokens, got %d", ErrInvalidConfiguration, len(tokenSymbols))
	}
	if baseRate <= 0 || math.IsNaN(baseRate) || math.IsInf(baseRate, 0) {
		return nil, fmt.Errorf("%w: base rate must be positive, got %v", ErrInvalidConfiguration, baseRate)
	}

	index := make(map[string]int, len(tokenSymbols))
	symbols := make([]string, len(tokenSymbols))
	for i, symbol := range tokenSymbols {
		if symbol == "" {
			return nil, fmt.Errorf("%w: empty token symbol at position %d", ErrInvalidConfiguration, i)
		}
		if _, dup := index[symbol]; dup {
			return nil, fmt.Errorf("%w: duplicate token symbol %q", ErrInvalidConfiguration, symbol)
		}
		index[symbol] = i
		symbols[i] = symbol
	}

	return &Pool{
		tokenSymbols:  symbols,
		tokenIndex:    index,
		baseRate:      baseRate,
		ticks:         make(map[int64]*Tick),
		interior:      make(map[int64]struct{}),
		boundary:      make(map[int64]struct{}),
		totalReserves: make([]float64, len(symbols)),
		nextTickID:    1,
	}, nil
}

// TokenSymbols returns the pool's token symbols in construction order.
func (p *Pool) TokenSymbols() []string {
	out := make([]string, len(p.tokenSymbols))
	copy(out, p.tokenSymbols)
	return out
}

// BaseRate returns the capital-to-radius conversion rate.
func (p *Pool) BaseRate() float64 {
	return p.baseRate
}

// LiquidityResult reports the outcome of an AddLiquidity call.
type LiquidityResult struct {
	TickID            int64     `json:"tick_id"`
	KValue            float64   `json:"k_value"`
	Radius            float64   `json:"radius"`
	CapitalEfficiency float64   `json:"capital_efficiency"`
	VirtualReserves   float64   `json:"virtual_reserves"`
	InitialReserves   []float64 `json:"initial_reserves"`
	Success           bool      `json:"success"`
	Message           string    `json:"message"`
}

// AddLiquidity converts (capital, depeg tolerance) into a fresh tick and
// folds it into the ledger. The new position starts balanced: every token at
// radius/sqrt(n), which is the only configuration below every valid plane
// offset, so the initial state is always Interior.
//
// A fresh tick needs k above the balanced alpha (= radius). In two dimensions
// even the maximal offset radius/sqrt(2) sits below it, so no 2-token tick is
// valid and every add fails with ErrInvalidTickParameters; a useful pool has
// at least 3 tokens.
func (p *Pool) AddLiquidity(owner string, capital, depegTolerance float64, feeBps uint32) (LiquidityResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.corrupted {
		return failedLiquidity("pool halted after internal inconsistency"),
			fmt.Errorf("add liquidity: %w", ErrInternalInconsistency)
	}
	if capital <= 0 || math.IsNaN(capital) || math.IsInf(capital, 0) {
		return failedLiquidity(fmt.Sprintf("capital must be positive, got %v", capital)),
			fmt.Errorf("%w: capital %v", ErrInvalidTickParameters, capital)
	}
	if depegTolerance <= 0 || depegTolerance > 1 || math.IsNaN(depegTolerance) {
		return failedLiquidity(fmt.Sprintf("depeg tolerance must be in (0,1], got %v", depegTolerance)),
			fmt.Errorf("%w: depeg tolerance %v", ErrInvalidTickParameters, depegTolerance)
	}

	n := len(p.tokenSymbols)
	radius := capital * p.baseRate
	kMin, kMax := KBounds(radius, n)
	k := kFromTolerance(radius, n, depegTolerance)
	alpha0 := radius // alpha of the balanced point

	if k < kMin || k > kMax {
		return failedLiquidity(fmt.Sprintf("k %.6g outside [%.6g, %.6g]", k, kMin, kMax)),
			fmt.Errorf("%w: k %v outside [%v, %v]", ErrInvalidTickParameters, k, kMin, kMax)
	}
	if k <= alpha0 {
		return failedLiquidity(fmt.Sprintf("tolerance %.4g yields k %.6g <= initial alpha %.6g; position would start at its boundary", depegTolerance, k, alpha0)),
			fmt.Errorf("%w: k %v <= alpha %v", ErrInvalidTickParameters, k, alpha0)
	}

	reserves := make([]float64, n)
	perToken := radius / math.Sqrt(float64(n))
	for i := range reserves {
		reserves[i] = perToken
	}

	tick := &Tick{
		ID:        p.nextTickID,
		Owner:     owner,
		Reserves:  reserves,
		Radius:    radius,
		K:         k,
		Liquidity: capital,
		FeeBps:    feeBps,
		State:     TickInterior,
	}
	if tick.evalState() != TickInterior {
		return failedLiquidity("fresh tick not interior"),
			fmt.Errorf("%w: fresh tick not interior", ErrInvalidTickParameters)
	}

	p.nextTickID++
	p.ticks[tick.ID] = tick
	p.interior[tick.ID] = struct{}{}
	for i, amount := range reserves {
		p.totalReserves[i] += amount
	}
	p.totalLiquidity += capital
	p.totalRadius += radius

	if err := p.checkInvariants(); err != nil {
		return failedLiquidity(err.Error()), fmt.Errorf("add liquidity: %w", err)
	}

	virtual := perToken - reserveFloor(radius, n)
	initial := make([]float64, n)
	copy(initial, reserves)

	return LiquidityResult{
		TickID:            tick.ID,
		KValue:            k,
		Radius:            radius,
		CapitalEfficiency: capitalEfficiency(k, kMin, kMax),
		VirtualReserves:   virtual,
		InitialReserves:   initial,
		Success:           true,
		Message:           "liquidity added",
	}, nil
}

// capitalEfficiency compares the position to a full-range one (k == kMax,
// boundary never reached): the tighter the committed band, the more of the
// position's depth concentrates near the peg. Summary metric only; capped to
// stay finite as k approaches kMin.
func capitalEfficiency(k, kMin, kMax float64) float64 {
	span := kMax - kMin
	if span <= 0 {
		return 1
	}
	band := k - kMin
	if floor := span * 1e-9; band < floor {
		band = floor
	}
	return span / band
}

func failedLiquidity(message string) LiquidityResult {
	return LiquidityResult{Success: false, Message: message}
}

// RemoveLiquidity withdraws a fraction of a position by uniform scaling:
// the withdrawn amounts are fraction*reserves per token, and the remaining
// reserves, radius, plane offset, and liquidity all scale by (1-fraction),
// which preserves the sphere constraint exactly. fraction == 1 deletes the
// tick. The returned fees slice is zero-valued: fee accrual to positions is
// not part of this engine.
func (p *Pool) RemoveLiquidity(tickID int64, fraction float64) (withdrawn []float64, fees []float64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.corrupted {
		return nil, nil, fmt.Errorf("remove liquidity: %w", ErrInternalInconsistency)
	}
	if fraction <= 0 || fraction > 1 || math.IsNaN(fraction) {
		return nil, nil, fmt.Errorf("%w: fraction %v not in (0,1]", ErrInvalidFraction, fraction)
	}
	tick, ok := p.ticks[tickID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: tick %d", ErrTickNotFound, tickID)
	}

	n := len(p.tokenSymbols)
	withdrawn = make([]float64, n)
	fees = make([]float64, n)
	for i, amount := range tick.Reserves {
		withdrawn[i] = amount * fraction
	}

	if fraction == 1 {
		for i, amount := range tick.Reserves {
			p.totalReserves[i] -= amount
		}
		p.totalLiquidity -= tick.Liquidity
		p.totalRadius -= tick.Radius
		delete(p.ticks, tickID)
		delete(p.interior, tickID)
		delete(p.boundary, tickID)
	} else {
		keep := 1 - fraction
		for i := range tick.Reserves {
			p.totalReserves[i] -= withdrawn[i]
			tick.Reserves[i] *= keep
		}
		p.totalLiquidity -= tick.Liquidity * fraction
		p.totalRadius -= tick.Radius * fraction
		tick.Radius *= keep
		tick.K *= keep
		tick.Liquidity *= keep
		p.refreshStates()
	}

	if err := p.checkInvariants(); err != nil {
		return nil, nil, fmt.Errorf("remove liquidity: %w", err)
	}
	return withdrawn, fees, nil
}

// Stats is a read-only projection of the ledger.
type Stats struct {
	TokenSymbols   []string           `json:"token_symbols"`
	TotalTicks     int                `json:"total_ticks"`
	InteriorTicks  int                `json:"interior_ticks"`
	BoundaryTicks  int                `json:"boundary_ticks"`
	TotalReserves  []float64          `json:"total_reserves"`
	TotalLiquidity float64            `json:"total_liquidity"`
	CurrentPrices  map[string]float64 `json:"current_prices"`
}

// Stats returns the consolidated pool statistics. Prices are implied from the
// consolidated reserves: each token's depth below the aggregate peg point
// relative to the mean depth, so a drained (scarce) token quotes above par.
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	reserves := make([]float64, len(p.totalReserves))
	copy(reserves, p.totalReserves)

	prices := make(map[string]float64, len(p.tokenSymbols))
	n := len(p.tokenSymbols)
	c := pegCenter(p.totalRadius, n)
	var meanDepth float64
	for _, x := range reserves {
		meanDepth += (c - x) / float64(n)
	}
	for i, symbol := range p.tokenSymbols {
		if meanDepth <= 0 {
			prices[symbol] = 1
			continue
		}
		prices[symbol] = (c - reserves[i]) / meanDepth
	}

	return Stats{
		TokenSymbols:   p.TokenSymbols(),
		TotalTicks:     len(p.ticks),
		InteriorTicks:  len(p.interior),
		BoundaryTicks:  len(p.boundary),
		TotalReserves:  reserves,
		TotalLiquidity: p.totalLiquidity,
		CurrentPrices:  prices,
	}
}

// Tick returns a copy of the identified position.
func (p *Pool) Tick(tickID int64) (Tick, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	tick, ok := p.ticks[tickID]
	if !ok {
		return Tick{}, fmt.Errorf("%w: tick %d", ErrTickNotFound, tickID)
	}
	return copyTick(tick), nil
}

// Ticks returns copies of all positions ordered by id.
func (p *Pool) Ticks() []Tick {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Tick, 0, len(p.ticks))
	for _, id := range p.sortedTickIDs() {
		out = append(out, copyTick(p.ticks[id]))
	}
	return out
}

// Transitions returns all state-transition events recorded so far.
func (p *Pool) Transitions() []TransitionEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]TransitionEvent, len(p.transitions))
	copy(out, p.transitions)
	return out
}

func copyTick(t *Tick) Tick {
	clone := *t
	clone.Reserves = make([]float64, len(t.Reserves))
	copy(clone.Reserves, t.Reserves)
	return clone
}

func (p *Pool) sortedTickIDs() []int64 {
	ids := make([]int64, 0, len(p.ticks))
	for id := range p.ticks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// refreshStates re-evaluates every tick against its plane offset and records
// one event per transition. Must be called with the lock held after any
// reserve mutation.
func (p *Pool) refreshStates() []TransitionEvent {
	var events []TransitionEvent
	for _, id := range p.sortedTickIDs() {
		tick := p.ticks[id]
		next := tick.evalState()
		if next == tick.State {
			continue
		}
		event := TransitionEvent{
			TickID: id,
			From:   tick.State,
			To:     next,
			Alpha:  tick.Alpha(),
			K:      tick.K,
		}
		tick.State = next
		switch next {
		case TickBoundary:
			delete(p.interior, id)
			p.boundary[id] = struct{}{}
		case TickInterior:
			delete(p.boundary, id)
			p.interior[id] = struct{}{}
		}
		events = append(events, event)
		p.transitions = append(p.transitions, event)
	}
	return events
}

// checkInvariants verifies the cross-tick invariants: aggregate reserves
// equal the per-tick sums, the state indices partition the tick set and match
// each tick's alpha/k relation, and every tick sits on its own sphere. A
// violation indicates a defect, never a runtime condition: the pool is
// poisoned and the error is returned for loud propagation.
func (p *Pool) checkInvariants() error {
	if len(p.interior)+len(p.boundary) != len(p.ticks) {
		p.corrupted = true
		return fmt.Errorf("%w: state index sizes %d+%d != %d ticks",
			ErrInternalInconsistency, len(p.interior), len(p.boundary), len(p.ticks))
	}

	sums := make([]float64, len(p.tokenSymbols))
	comps := make([]float64, len(p.tokenSymbols))
	for id, tick := range p.ticks {
		_, inInterior := p.interior[id]
		_, inBoundary := p.boundary[id]
		if inInterior == inBoundary {
			p.corrupted = true
			return fmt.Errorf("%w: tick %d state index membership interior=%v boundary=%v",
				ErrInternalInconsistency, id, inInterior, inBoundary)
		}
		if want := tick.evalState(); (want == TickInterior) != inInterior {
			p.corrupted = true
			return fmt.Errorf("%w: tick %d indexed as interior=%v but alpha %v vs k %v",
				ErrInternalInconsistency, id, inInterior, tick.Alpha(), tick.K)
		}
		if dev := tick.sphereDeviation(); dev > sphereEps*math.Max(1, tick.Radius) {
			p.corrupted = true
			return fmt.Errorf("%w: tick %d off its sphere by %v (radius %v)",
				ErrInternalInconsistency, id, dev, tick.Radius)
		}
		for i, amount := range tick.Reserves {
			y := amount - comps[i]
			t := sums[i] + y
			comps[i] = (t - sums[i]) - y
			sums[i] = t
		}
	}

	for i, sum := range sums {
		if diff := math.Abs(sum - p.totalReserves[i]); diff > aggregateEps*math.Max(1, math.Abs(sum)) {
			p.corrupted = true
			return fmt.Errorf("%w: token %s aggregate %v != tick sum %v",
				ErrInternalInconsistency, p.tokenSymbols[i], p.totalReserves[i], sum)
		}
	}
	return nil
}
