package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"orbitalPool/internal/config"
	"orbitalPool/internal/engine"
	"orbitalPool/internal/model"
	"orbitalPool/internal/replay"
	"orbitalPool/internal/storage"
)

// runDemo walks one pool through its whole lifecycle: three providers with
// different depeg tolerances, a ladder of swaps large enough to push the
// widest position onto its boundary, and a partial withdrawal.
func runDemo(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDemo(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if len(cfg.Tokens) < 2 {
		return fmt.Errorf("at least 2 tokens required")
	}

	pool, err := engine.New(cfg.Tokens, cfg.BaseRate)
	if err != nil {
		return err
	}

	journal := storage.NewJsonlJournal(cfg.TradesOut, cfg.SnapshotsOut)

	logger.Info("pool created",
		zap.Strings("tokens", cfg.Tokens),
		zap.Float64("base_rate", cfg.BaseRate),
	)

	providers := []struct {
		owner     string
		capital   float64
		tolerance float64
		feeBps    uint32
	}{
		{"alice", 10_000, 0.98, 30},
		{"bob", 25_000, 0.95, 30},
		{"carol", 50_000, 0.85, 30},
	}

	for _, lp := range providers {
		result, err := pool.AddLiquidity(lp.owner, lp.capital, lp.tolerance, lp.feeBps)
		if err != nil {
			return err
		}
		logger.Info("liquidity added",
			zap.String("owner", lp.owner),
			zap.Int64("tick_id", result.TickID),
			zap.Float64("capital", lp.capital),
			zap.Float64("depeg_tolerance", lp.tolerance),
			zap.Float64("k", result.KValue),
			zap.Float64("radius", result.Radius),
			zap.Float64("capital_efficiency", result.CapitalEfficiency),
			zap.Float64("virtual_reserves", result.VirtualReserves),
		)
	}

	logStats(logger, pool, "after deposits")

	in, out := cfg.Tokens[0], cfg.Tokens[len(cfg.Tokens)-1]
	sequence := uint64(len(providers))
	trades := make([]model.TradeRecord, 0, 3)
	for _, amount := range []float64{2_000, 8_000, 25_000} {
		sequence++
		result, err := pool.ExecuteTrade(amount, in, out)
		if err != nil {
			logger.Warn("swap rejected", zap.Float64("amount_in", amount), zap.Error(err))
			continue
		}
		logger.Info("swap executed",
			zap.String("token_in", in),
			zap.String("token_out", out),
			zap.Float64("amount_in", result.InputAmount),
			zap.Float64("amount_out", result.OutputAmount),
			zap.Float64("fee_paid", result.FeePaid),
			zap.Float64("effective_price", result.EffectivePrice),
			zap.Int("transitions", len(result.Transitions)),
		)
		for _, event := range result.Transitions {
			logger.Info("tick transition",
				zap.Int64("tick_id", event.TickID),
				zap.String("from", event.From.String()),
				zap.String("to", event.To.String()),
				zap.Float64("alpha", event.Alpha),
				zap.Float64("k", event.K),
			)
		}
		trades = append(trades, demoTradeRecord(sequence, result))
	}
	if err := journal.PutTradeBatch(trades); err != nil {
		return err
	}

	logStats(logger, pool, "after swaps")
	logTicks(logger, pool)

	withdrawn, _, err := pool.RemoveLiquidity(1, 0.5)
	if err != nil {
		return err
	}
	sequence++
	logger.Info("liquidity removed",
		zap.Int64("tick_id", 1),
		zap.Float64("fraction", 0.5),
		zap.Float64s("withdrawn", withdrawn),
	)

	logStats(logger, pool, "after withdrawal")

	snap := replay.BuildSnapshot("demo", sequence, pool, time.Now().UTC())
	if err := journal.PutSnapshot(snap); err != nil {
		return err
	}

	return nil
}

func demoTradeRecord(sequence uint64, result engine.TradeResult) model.TradeRecord {
	return model.TradeRecord{
		Run:            "demo",
		Sequence:       sequence,
		TokenIn:        result.TokenIn,
		TokenOut:       result.TokenOut,
		InputAmount:    model.FormatAmount(result.InputAmount),
		InputAmountNet: model.FormatAmount(result.InputAmountNet),
		OutputAmount:   model.FormatAmount(result.OutputAmount),
		FeePaid:        model.FormatAmount(result.FeePaid),
		EffectivePrice: model.FormatAmount(result.EffectivePrice),
		Segments:       result.Segments,
		Transitions:    len(result.Transitions),
		Success:        result.Success,
		Message:        result.Message,
		ExecutedAt:     time.Now().UTC().Format(time.RFC3339),
	}
}

func logStats(logger *zap.Logger, pool *engine.Pool, stage string) {
	stats := pool.Stats()
	fields := []zap.Field{
		zap.String("stage", stage),
		zap.Int("total_ticks", stats.TotalTicks),
		zap.Int("interior_ticks", stats.InteriorTicks),
		zap.Int("boundary_ticks", stats.BoundaryTicks),
		zap.Float64s("total_reserves", stats.TotalReserves),
		zap.Float64("total_liquidity", stats.TotalLiquidity),
	}
	for _, symbol := range stats.TokenSymbols {
		fields = append(fields, zap.Float64("price_"+symbol, stats.CurrentPrices[symbol]))
	}
	logger.Info("pool stats", fields...)
}

func logTicks(logger *zap.Logger, pool *engine.Pool) {
	for _, tick := range pool.Ticks() {
		logger.Info("tick state",
			zap.Int64("tick_id", tick.ID),
			zap.String("owner", tick.Owner),
			zap.String("state", tick.State.String()),
			zap.Float64("alpha", tick.Alpha()),
			zap.Float64("k", tick.K),
			zap.Float64("radius", tick.Radius),
		)
	}
}
