package engine

import (
	"errors"
	"math"
	"testing"
)

func newTestPool(t *testing.T) *Pool {
	t.Helper()
	pool, err := New([]string{"USDC", "USDT", "DAI"}, 0.001)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	return pool
}

func TestNewValidation(t *testing.T) {
	if _, err := New([]string{"USDC"}, 0.001); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration for one token, got %v", err)
	}
	if _, err := New([]string{"USDC", "USDC"}, 0.001); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration for duplicate token, got %v", err)
	}
	if _, err := New([]string{"USDC", "USDT"}, 0); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration for zero base rate, got %v", err)
	}
	if _, err := New([]string{"USDC", "USDT", ""}, 0.001); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration for empty symbol, got %v", err)
	}
}

func TestAddLiquidity(t *testing.T) {
	pool := newTestPool(t)

	result, err := pool.AddLiquidity("alice", 10000, 0.98, 0)
	if err != nil {
		t.Fatalf("add liquidity: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got message %q", result.Message)
	}
	if result.TickID != 1 {
		t.Fatalf("first tick id: got %d want 1", result.TickID)
	}
	if math.Abs(result.Radius-10) > 1e-12 {
		t.Fatalf("radius: got %v want 10", result.Radius)
	}
	for i, amount := range result.InitialReserves {
		if math.Abs(amount-5.7735) > 1e-4 {
			t.Fatalf("initial reserve %d: got %v want ~5.7735", i, amount)
		}
	}
	kMin, kMax := KBounds(10, 3)
	if result.KValue <= kMin || result.KValue > kMax {
		t.Fatalf("k %v outside (%v, %v]", result.KValue, kMin, kMax)
	}

	tick, err := pool.Tick(result.TickID)
	if err != nil {
		t.Fatalf("lookup tick: %v", err)
	}
	if tick.State != TickInterior {
		t.Fatalf("fresh tick state: got %v want interior", tick.State)
	}
	if math.Abs(Norm(tick.Reserves)-tick.Radius) > 1e-9 {
		t.Fatalf("fresh tick off origin sphere: norm %v radius %v", Norm(tick.Reserves), tick.Radius)
	}

	stats := pool.Stats()
	if stats.TotalTicks != 1 || stats.InteriorTicks != 1 || stats.BoundaryTicks != 0 {
		t.Fatalf("stats counts: %+v", stats)
	}
	if math.Abs(stats.TotalLiquidity-10000) > 1e-9 {
		t.Fatalf("total liquidity: got %v want 10000", stats.TotalLiquidity)
	}
	for _, symbol := range stats.TokenSymbols {
		if math.Abs(stats.CurrentPrices[symbol]-1) > 1e-9 {
			t.Fatalf("balanced pool price for %s: got %v want 1", symbol, stats.CurrentPrices[symbol])
		}
	}
}

func TestAddLiquidityRejectsBadParameters(t *testing.T) {
	pool := newTestPool(t)

	if _, err := pool.AddLiquidity("a", 0, 0.9, 0); !errors.Is(err, ErrInvalidTickParameters) {
		t.Fatalf("zero capital: got %v", err)
	}
	if _, err := pool.AddLiquidity("a", 1000, 0, 0); !errors.Is(err, ErrInvalidTickParameters) {
		t.Fatalf("zero tolerance: got %v", err)
	}
	if _, err := pool.AddLiquidity("a", 1000, 1.5, 0); !errors.Is(err, ErrInvalidTickParameters) {
		t.Fatalf("tolerance above one: got %v", err)
	}

	// In 3 dims a low tolerance lands k at or below the balanced alpha.
	result, err := pool.AddLiquidity("a", 1000, 0.5, 0)
	if !errors.Is(err, ErrInvalidTickParameters) {
		t.Fatalf("low tolerance: got %v", err)
	}
	if result.Success {
		t.Fatalf("failed add should not report success")
	}
	if result.Message == "" {
		t.Fatalf("failed add should carry a message")
	}

	// Rejected adds must not touch the ledger.
	stats := pool.Stats()
	if stats.TotalTicks != 0 || stats.TotalLiquidity != 0 {
		t.Fatalf("rejected add mutated pool: %+v", stats)
	}
}

func TestAddLiquidityTwoTokenPoolAlwaysRejects(t *testing.T) {
	pool, err := New([]string{"USDC", "USDT"}, 0.001)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}

	// In 2 dims kMax = r/sqrt(2) is below the balanced alpha = r, so no
	// tolerance produces a valid plane offset.
	for _, tol := range []float64{0.5, 0.9, 0.99, 0.999999, 1} {
		if _, err := pool.AddLiquidity("a", 1000, tol, 0); !errors.Is(err, ErrInvalidTickParameters) {
			t.Fatalf("tolerance %v on 2-token pool: got %v", tol, err)
		}
	}

	if stats := pool.Stats(); stats.TotalTicks != 0 || stats.TotalLiquidity != 0 {
		t.Fatalf("rejected adds mutated pool: %+v", stats)
	}
}

func TestTickIDsMonotonic(t *testing.T) {
	pool := newTestPool(t)

	first, err := pool.AddLiquidity("a", 10000, 0.95, 0)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	second, err := pool.AddLiquidity("b", 20000, 0.9, 0)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if second.TickID <= first.TickID {
		t.Fatalf("ids not increasing: %d then %d", first.TickID, second.TickID)
	}

	if _, _, err := pool.RemoveLiquidity(first.TickID, 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	third, err := pool.AddLiquidity("c", 5000, 0.95, 0)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if third.TickID <= second.TickID {
		t.Fatalf("id reused after removal: %d then %d", second.TickID, third.TickID)
	}
}

func TestRemoveLiquidityFull(t *testing.T) {
	pool := newTestPool(t)

	if _, err := pool.AddLiquidity("base", 40000, 0.9, 0); err != nil {
		t.Fatalf("add base: %v", err)
	}
	before := pool.Stats()

	added, err := pool.AddLiquidity("alice", 10000, 0.98, 0)
	if err != nil {
		t.Fatalf("add alice: %v", err)
	}
	withdrawn, fees, err := pool.RemoveLiquidity(added.TickID, 1)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	for i, amount := range withdrawn {
		if math.Abs(amount-added.InitialReserves[i]) > 1e-9 {
			t.Fatalf("withdrawn %d: got %v want %v", i, amount, added.InitialReserves[i])
		}
	}
	for i, fee := range fees {
		if fee != 0 {
			t.Fatalf("fee %d: got %v want 0", i, fee)
		}
	}

	after := pool.Stats()
	if after.TotalTicks != before.TotalTicks {
		t.Fatalf("tick count not restored: %d vs %d", after.TotalTicks, before.TotalTicks)
	}
	if math.Abs(after.TotalLiquidity-before.TotalLiquidity) > 1e-9 {
		t.Fatalf("liquidity not restored: %v vs %v", after.TotalLiquidity, before.TotalLiquidity)
	}
	for i := range after.TotalReserves {
		if math.Abs(after.TotalReserves[i]-before.TotalReserves[i]) > 1e-9 {
			t.Fatalf("reserves not restored at %d: %v vs %v", i, after.TotalReserves[i], before.TotalReserves[i])
		}
	}

	if _, err := pool.Tick(added.TickID); !errors.Is(err, ErrTickNotFound) {
		t.Fatalf("removed tick still present: %v", err)
	}
}

func TestRemoveLiquidityPartial(t *testing.T) {
	pool := newTestPool(t)

	added, err := pool.AddLiquidity("alice", 10000, 0.98, 0)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	withdrawn, _, err := pool.RemoveLiquidity(added.TickID, 0.5)
	if err != nil {
		t.Fatalf("remove half: %v", err)
	}
	for i, amount := range withdrawn {
		if math.Abs(amount-added.InitialReserves[i]/2) > 1e-9 {
			t.Fatalf("half withdrawal %d: got %v want %v", i, amount, added.InitialReserves[i]/2)
		}
	}

	tick, err := pool.Tick(added.TickID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if math.Abs(tick.Radius-added.Radius/2) > 1e-9 {
		t.Fatalf("radius after half removal: got %v want %v", tick.Radius, added.Radius/2)
	}
	// Uniform scaling keeps the position exactly on its (shrunken) sphere.
	if math.Abs(Norm(tick.Reserves)-tick.Radius) > 1e-9 {
		t.Fatalf("sphere constraint broken: norm %v radius %v", Norm(tick.Reserves), tick.Radius)
	}
	if math.Abs(tick.Liquidity-5000) > 1e-9 {
		t.Fatalf("liquidity after half removal: got %v want 5000", tick.Liquidity)
	}
}

func TestRemoveLiquidityErrors(t *testing.T) {
	pool := newTestPool(t)

	if _, _, err := pool.RemoveLiquidity(99, 1); !errors.Is(err, ErrTickNotFound) {
		t.Fatalf("missing tick: got %v", err)
	}

	added, err := pool.AddLiquidity("alice", 10000, 0.98, 0)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, _, err := pool.RemoveLiquidity(added.TickID, 0); !errors.Is(err, ErrInvalidFraction) {
		t.Fatalf("zero fraction: got %v", err)
	}
	if _, _, err := pool.RemoveLiquidity(added.TickID, 1.5); !errors.Is(err, ErrInvalidFraction) {
		t.Fatalf("fraction above one: got %v", err)
	}
}

func TestInternalInconsistencyPoisonsPool(t *testing.T) {
	pool := newTestPool(t)

	if _, err := pool.AddLiquidity("alice", 10000, 0.98, 0); err != nil {
		t.Fatalf("add: %v", err)
	}

	// Corrupt an aggregate counter behind the ledger's back; the next
	// mutation must detect it, refuse, and halt the pool for good.
	pool.totalReserves[0] += 1

	if _, err := pool.AddLiquidity("bob", 20000, 0.9, 0); !errors.Is(err, ErrInternalInconsistency) {
		t.Fatalf("expected internal inconsistency, got %v", err)
	}
	if _, err := pool.AddLiquidity("carol", 20000, 0.9, 0); !errors.Is(err, ErrInternalInconsistency) {
		t.Fatalf("poisoned pool accepted a mutation: %v", err)
	}
	if _, err := pool.Quote("USDC", "DAI", 100); !errors.Is(err, ErrInternalInconsistency) {
		t.Fatalf("poisoned pool served a quote: %v", err)
	}
}
