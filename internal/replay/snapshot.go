package replay

import (
	"time"

	"orbitalPool/internal/engine"
	"orbitalPool/internal/model"
)

// BuildSnapshot projects the pool's consolidated state into a journal record.
func BuildSnapshot(run string, sequence uint64, pool *engine.Pool, takenAt time.Time) model.PoolSnapshot {
	stats := pool.Stats()
	ticks := pool.Ticks()

	reserves := make([]string, len(stats.TotalReserves))
	for i, amount := range stats.TotalReserves {
		reserves[i] = model.FormatAmount(amount)
	}

	tickSnaps := make([]model.TickSnapshot, 0, len(ticks))
	for _, tick := range ticks {
		tickReserves := make([]string, len(tick.Reserves))
		for i, amount := range tick.Reserves {
			tickReserves[i] = model.FormatAmount(amount)
		}
		tickSnaps = append(tickSnaps, model.TickSnapshot{
			TickID:    tick.ID,
			Owner:     tick.Owner,
			State:     tick.State.String(),
			Radius:    model.FormatAmount(tick.Radius),
			K:         model.FormatAmount(tick.K),
			Alpha:     model.FormatAmount(tick.Alpha()),
			Liquidity: model.FormatAmount(tick.Liquidity),
			FeeBps:    tick.FeeBps,
			Reserves:  tickReserves,
		})
	}

	return model.PoolSnapshot{
		Run:            run,
		Sequence:       sequence,
		TokenSymbols:   stats.TokenSymbols,
		TotalTicks:     stats.TotalTicks,
		InteriorTicks:  stats.InteriorTicks,
		BoundaryTicks:  stats.BoundaryTicks,
		TotalReserves:  reserves,
		TotalLiquidity: model.FormatAmount(stats.TotalLiquidity),
		Ticks:          tickSnaps,
		TakenAt:        takenAt.Format(time.RFC3339),
	}
}
