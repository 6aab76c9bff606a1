package engine

import (
	"fmt"
	"math"
)

// TradeResult reports the outcome of an ExecuteTrade call. Input and output
// amounts are in capital units; InputAmountNet is the gross input minus the
// liquidity-weighted fee. Segments is reserved for a future multi-segment
// solver and is always 1.
type TradeResult struct {
	TokenIn        string            `json:"token_in"`
	TokenOut       string            `json:"token_out"`
	InputAmount    float64           `json:"input_amount"`
	InputAmountNet float64           `json:"input_amount_net"`
	OutputAmount   float64           `json:"output_amount"`
	FeePaid        float64           `json:"fee_paid"`
	EffectivePrice float64           `json:"effective_price"`
	Segments       int               `json:"segments"`
	Transitions    []TransitionEvent `json:"transitions,omitempty"`
	Success        bool              `json:"success"`
	Message        string            `json:"message"`
}

// ExecuteTrade swaps amountIn of tokenIn for tokenOut against the
// consolidated invariant: the output is solved from holding the aggregate
// sphere constant, then the net reserve delta is applied to every tick
// proportionally to its pre-trade share of the two tokens. Single-segment
// model: boundary crossings inside the trade are not detected or segmented;
// states are re-evaluated once after the full delta lands.
func (p *Pool) ExecuteTrade(amountIn float64, tokenIn, tokenOut string) (TradeResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.corrupted {
		return failedTrade(tokenIn, tokenOut, amountIn, "pool halted after internal inconsistency"),
			fmt.Errorf("execute trade: %w", ErrInternalInconsistency)
	}

	quote, err := p.quoteLocked(tokenIn, tokenOut, amountIn)
	if err != nil {
		return failedTrade(tokenIn, tokenOut, amountIn, err.Error()), err
	}

	inIdx := p.tokenIndex[tokenIn]
	outIdx := p.tokenIndex[tokenOut]

	// Scratch application: per-tick deltas weighted by pre-trade share of
	// each token, renormalized back onto each tick's own sphere. Aligned
	// ticks make the renormalization residual vanish up to rounding; any
	// remainder against the solved aggregate delta is folded into the
	// largest tick, which is then renormalized once more so the sphere
	// constraints stay exact. Totals are recomputed from the tick sums, so
	// aggregate conservation holds by construction.
	totalIn := p.totalReserves[inIdx]
	totalOut := p.totalReserves[outIdx]

	ids := p.sortedTickIDs()
	scratch := make([][]float64, len(ids))
	var largest int
	for i, id := range ids {
		tick := p.ticks[id]
		next := make([]float64, len(tick.Reserves))
		copy(next, tick.Reserves)
		next[inIdx] += quote.deltaIn * (tick.Reserves[inIdx] / totalIn)
		next[outIdx] -= quote.deltaOut * (tick.Reserves[outIdx] / totalOut)
		renormalize(next, tick.Radius)
		scratch[i] = next
		if tick.Radius > p.ticks[ids[largest]].Radius {
			largest = i
		}
	}

	target := make([]float64, len(p.totalReserves))
	copy(target, p.totalReserves)
	target[inIdx] += quote.deltaIn
	target[outIdx] -= quote.deltaOut

	for j := range target {
		var sum, comp float64
		for _, next := range scratch {
			y := next[j] - comp
			t := sum + y
			comp = (t - sum) - y
			sum = t
		}
		scratch[largest][j] += target[j] - sum
	}
	renormalize(scratch[largest], p.ticks[ids[largest]].Radius)

	// Commit.
	for i, id := range ids {
		p.ticks[id].Reserves = scratch[i]
	}
	for j := range p.totalReserves {
		var sum, comp float64
		for _, next := range scratch {
			y := next[j] - comp
			t := sum + y
			comp = (t - sum) - y
			sum = t
		}
		p.totalReserves[j] = sum
	}
	events := p.refreshStates()

	if err := p.checkInvariants(); err != nil {
		return failedTrade(tokenIn, tokenOut, amountIn, err.Error()),
			fmt.Errorf("execute trade: %w", err)
	}

	return TradeResult{
		TokenIn:        tokenIn,
		TokenOut:       tokenOut,
		InputAmount:    amountIn,
		InputAmountNet: quote.netIn,
		OutputAmount:   quote.amountOut,
		FeePaid:        quote.fee,
		EffectivePrice: quote.amountOut / amountIn,
		Segments:       1,
		Transitions:    events,
		Success:        true,
		Message:        "trade executed",
	}, nil
}

// Quote previews a trade with the exact formula ExecuteTrade uses, without
// mutating state.
func (p *Pool) Quote(tokenIn, tokenOut string, amountIn float64) (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.corrupted {
		return 0, fmt.Errorf("quote: %w", ErrInternalInconsistency)
	}
	quote, err := p.quoteLocked(tokenIn, tokenOut, amountIn)
	if err != nil {
		return 0, err
	}
	return quote.amountOut, nil
}

type swapQuote struct {
	netIn     float64 // capital units after fee
	fee       float64 // capital units
	amountOut float64 // capital units
	deltaIn   float64 // reserve units
	deltaOut  float64 // reserve units
}

func (p *Pool) quoteLocked(tokenIn, tokenOut string, amountIn float64) (swapQuote, error) {
	if tokenIn == tokenOut {
		return swapQuote{}, fmt.Errorf("%w: token in equals token out %q", ErrInvalidTrade, tokenIn)
	}
	inIdx, ok := p.tokenIndex[tokenIn]
	if !ok {
		return swapQuote{}, fmt.Errorf("%w: %q", ErrUnknownToken, tokenIn)
	}
	outIdx, ok := p.tokenIndex[tokenOut]
	if !ok {
		return swapQuote{}, fmt.Errorf("%w: %q", ErrUnknownToken, tokenOut)
	}
	if amountIn <= 0 || math.IsNaN(amountIn) || math.IsInf(amountIn, 0) {
		return swapQuote{}, fmt.Errorf("%w: amount %v", ErrInvalidTrade, amountIn)
	}
	if len(p.ticks) == 0 {
		return swapQuote{}, fmt.Errorf("%w: pool has no liquidity", ErrInsufficientLiquidity)
	}

	fee := amountIn * p.weightedFeeRate()
	netIn := amountIn - fee
	deltaIn := netIn * p.baseRate

	deltaOut, err := solveSwapDelta(p.totalReserves, p.totalRadius, inIdx, outIdx, deltaIn)
	if err != nil {
		return swapQuote{}, err
	}

	return swapQuote{
		netIn:     netIn,
		fee:       fee,
		amountOut: deltaOut / p.baseRate,
		deltaIn:   deltaIn,
		deltaOut:  deltaOut,
	}, nil
}

// weightedFeeRate is the liquidity-weighted mean of the tick fee rates, as a
// fraction of the input amount.
func (p *Pool) weightedFeeRate() float64 {
	if p.totalLiquidity <= 0 {
		return 0
	}
	var weighted float64
	for _, tick := range p.ticks {
		weighted += tick.Liquidity * float64(tick.FeeBps)
	}
	return weighted / p.totalLiquidity / 10_000
}

// solveSwapDelta solves the output reserve delta that keeps the aggregate
// invariant level constant: with center C = 2R/sqrt(n) per coordinate and
// level D^2 the current squared distance from the peg point, the new
// out-reserve is C - sqrt(D^2 - sum_{j!=out}(x'_j - C)^2) on the lower
// (reserve) branch. D equals R exactly while all ticks are aligned; using
// the live level instead of R keeps a zero-input trade a no-op even when
// they have drifted apart. No real solution, or a solution draining the out
// token below zero, is insufficient liquidity.
func solveSwapDelta(reserves []float64, radius float64, inIdx, outIdx int, deltaIn float64) (float64, error) {
	c := pegCenter(radius, len(reserves))
	if reserves[inIdx]+deltaIn >= c {
		// Past the center the curve turns back and the marginal price of the
		// in token goes negative; a single segment cannot absorb this much.
		return 0, fmt.Errorf("%w: input exceeds single-segment capacity", ErrInsufficientLiquidity)
	}
	level := distFromPeg(reserves, c)

	var acc, comp float64
	for j, x := range reserves {
		if j == outIdx {
			continue
		}
		if j == inIdx {
			x += deltaIn
		}
		d := x - c
		y := d*d - comp
		t := acc + y
		comp = (t - acc) - y
		acc = t
	}

	disc := level*level - acc
	if disc <= 0 {
		return 0, fmt.Errorf("%w: trade would leave the invariant surface", ErrInsufficientLiquidity)
	}
	newOut := c - math.Sqrt(disc)
	if newOut < 0 {
		return 0, fmt.Errorf("%w: out-token reserves would be overdrawn", ErrInsufficientLiquidity)
	}
	deltaOut := reserves[outIdx] - newOut
	if deltaOut <= 0 {
		return 0, fmt.Errorf("%w: no positive output for this input", ErrInsufficientLiquidity)
	}
	return deltaOut, nil
}

func failedTrade(tokenIn, tokenOut string, amountIn float64, message string) TradeResult {
	return TradeResult{
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		InputAmount: amountIn,
		Segments:    1,
		Success:     false,
		Message:     message,
	}
}
