package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"orbitalPool/internal/engine"
	"orbitalPool/internal/model"
	"orbitalPool/internal/storage"
	"orbitalPool/internal/storage/postgres"
)

// Config controls replay behavior.
type Config struct {
	Run          string
	BatchSize    int
	SnapshotEach bool
}

// Runner replays a JSONL operation script against a pool, journaling trade
// records and snapshots as it goes.
type Runner struct {
	cfg      Config
	pool     *engine.Pool
	journal  storage.Journal
	store    *postgres.Store
	logger   *zap.Logger
	sequence uint64
	now      func() time.Time
}

// NewRunner builds a runner. journal is required; store is optional and adds
// Postgres persistence alongside the JSONL journal.
func NewRunner(cfg Config, pool *engine.Pool, journal storage.Journal, store *postgres.Store, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}

	return &Runner{
		cfg:     cfg,
		pool:    pool,
		journal: journal,
		store:   store,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run executes every operation in the input JSONL file in order. Rejected
// operations (bad parameters, insufficient liquidity) are recorded and the
// replay continues; an internal inconsistency aborts the run.
func (r *Runner) Run(ctx context.Context, inputPath string) error {
	if r.pool == nil {
		return fmt.Errorf("pool is nil")
	}
	if r.journal == nil {
		return fmt.Errorf("journal is nil")
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	batch := make([]model.TradeRecord, 0, r.cfg.BatchSize)
	var total, applied, rejected, failed int

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var op model.OpRecord
		if err := json.Unmarshal(line, &op); err != nil {
			failed++
			r.logger.Warn("decode op", zap.Error(err))
			continue
		}
		r.sequence++

		ok, err := r.applyOp(op, &batch)
		if err != nil {
			return err
		}
		if ok {
			applied++
		} else {
			rejected++
		}

		if len(batch) >= r.cfg.BatchSize {
			if err := r.flushTrades(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}

		if r.cfg.SnapshotEach {
			if err := r.putSnapshot(ctx); err != nil {
				return err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	if len(batch) > 0 {
		if err := r.flushTrades(ctx, batch); err != nil {
			return err
		}
	}
	if !r.cfg.SnapshotEach {
		if err := r.putSnapshot(ctx); err != nil {
			return err
		}
	}

	r.logger.Info("replay complete",
		zap.String("run", r.cfg.Run),
		zap.Int("total", total),
		zap.Int("applied", applied),
		zap.Int("rejected", rejected),
		zap.Int("failed", failed),
	)

	return nil
}

// applyOp dispatches one operation. The bool reports whether the pool
// accepted it; a returned error aborts the replay.
func (r *Runner) applyOp(op model.OpRecord, batch *[]model.TradeRecord) (bool, error) {
	switch op.Op {
	case model.OpAddLiquidity:
		result, err := r.pool.AddLiquidity(op.Owner, op.Capital, op.DepegTolerance, op.FeeBps)
		if err != nil {
			if errors.Is(err, engine.ErrInternalInconsistency) {
				return false, err
			}
			r.logger.Warn("add liquidity rejected",
				zap.Uint64("sequence", r.sequence),
				zap.String("owner", op.Owner),
				zap.Error(err),
			)
			return false, nil
		}
		r.logger.Info("liquidity added",
			zap.Uint64("sequence", r.sequence),
			zap.Int64("tick_id", result.TickID),
			zap.String("owner", op.Owner),
			zap.Float64("capital", op.Capital),
			zap.Float64("k", result.KValue),
			zap.Float64("capital_efficiency", result.CapitalEfficiency),
		)
		return true, nil

	case model.OpRemoveLiquidity:
		withdrawn, _, err := r.pool.RemoveLiquidity(op.TickID, op.Fraction)
		if err != nil {
			if errors.Is(err, engine.ErrInternalInconsistency) {
				return false, err
			}
			r.logger.Warn("remove liquidity rejected",
				zap.Uint64("sequence", r.sequence),
				zap.Int64("tick_id", op.TickID),
				zap.Error(err),
			)
			return false, nil
		}
		r.logger.Info("liquidity removed",
			zap.Uint64("sequence", r.sequence),
			zap.Int64("tick_id", op.TickID),
			zap.Float64("fraction", op.Fraction),
			zap.Float64s("withdrawn", withdrawn),
		)
		return true, nil

	case model.OpSwap:
		result, err := r.pool.ExecuteTrade(op.AmountIn, op.TokenIn, op.TokenOut)
		if err != nil && errors.Is(err, engine.ErrInternalInconsistency) {
			return false, err
		}
		*batch = append(*batch, r.tradeRecord(result))
		if err != nil {
			r.logger.Warn("swap rejected",
				zap.Uint64("sequence", r.sequence),
				zap.String("token_in", op.TokenIn),
				zap.String("token_out", op.TokenOut),
				zap.Error(err),
			)
			return false, nil
		}
		r.logger.Info("swap executed",
			zap.Uint64("sequence", r.sequence),
			zap.String("token_in", op.TokenIn),
			zap.String("token_out", op.TokenOut),
			zap.Float64("amount_in", result.InputAmount),
			zap.Float64("amount_out", result.OutputAmount),
			zap.Int("transitions", len(result.Transitions)),
		)
		return true, nil

	default:
		r.logger.Warn("unknown op", zap.Uint64("sequence", r.sequence), zap.String("op", op.Op))
		return false, nil
	}
}

func (r *Runner) tradeRecord(result engine.TradeResult) model.TradeRecord {
	return model.TradeRecord{
		Run:            r.cfg.Run,
		Sequence:       r.sequence,
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
		ExecutedAt:     r.now().Format(time.RFC3339),
	}
}

func (r *Runner) flushTrades(ctx context.Context, batch []model.TradeRecord) error {
	trades := make([]model.TradeRecord, len(batch))
	copy(trades, batch)
	if err := r.journal.PutTradeBatch(trades); err != nil {
		return fmt.Errorf("journal trades: %w", err)
	}
	if r.store != nil {
		if err := r.store.InsertTradeBatch(ctx, trades); err != nil {
			return fmt.Errorf("store trades: %w", err)
		}
	}
	return nil
}

func (r *Runner) putSnapshot(ctx context.Context) error {
	snap := BuildSnapshot(r.cfg.Run, r.sequence, r.pool, r.now())
	if err := r.journal.PutSnapshot(snap); err != nil {
		return fmt.Errorf("journal snapshot: %w", err)
	}
	if r.store != nil {
		if err := r.store.UpsertSnapshots(ctx, []model.PoolSnapshot{snap}); err != nil {
			return fmt.Errorf("store snapshot: %w", err)
		}
	}
	return nil
}
