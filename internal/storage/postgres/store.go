package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"orbitalPool/internal/model"
)

// Store provides Postgres persistence for replay artifacts.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InsertTradeBatch inserts trade records, skipping duplicates by (run, sequence).
func (s *Store) InsertTradeBatch(ctx context.Context, trades []model.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, trade := range trades {
		batch.Queue(`
			INSERT INTO pool_trades (
				run, sequence, token_in, token_out, input_amount, input_amount_net,
				output_amount, fee_paid, effective_price, segments, transitions,
				success, message, executed_at, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,now())
			ON CONFLICT (run, sequence) DO NOTHING
		`,
			trade.Run,
			int64(trade.Sequence),
			trade.TokenIn,
			trade.TokenOut,
			trade.InputAmount,
			trade.InputAmountNet,
			trade.OutputAmount,
			trade.FeePaid,
			trade.EffectivePrice,
			trade.Segments,
			trade.Transitions,
			trade.Success,
			trade.Message,
			trade.ExecutedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range trades {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertSnapshots inserts or updates pool snapshots keyed by (run, sequence).
func (s *Store) UpsertSnapshots(ctx context.Context, snapshots []model.PoolSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		batch.Queue(`
			INSERT INTO pool_snapshots (
				run, sequence, token_symbols, total_ticks, interior_ticks, boundary_ticks,
				total_reserves, total_liquidity, taken_at, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now(),now())
			ON CONFLICT (run, sequence)
			DO UPDATE SET
				token_symbols = EXCLUDED.token_symbols,
				total_ticks = EXCLUDED.total_ticks,
				interior_ticks = EXCLUDED.interior_ticks,
				boundary_ticks = EXCLUDED.boundary_ticks,
				total_reserves = EXCLUDED.total_reserves,
				total_liquidity = EXCLUDED.total_liquidity,
				taken_at = EXCLUDED.taken_at,
				updated_at = now()
		`,
			snap.Run,
			int64(snap.Sequence),
			snap.TokenSymbols,
			snap.TotalTicks,
			snap.InteriorTicks,
			snap.BoundaryTicks,
			snap.TotalReserves,
			snap.TotalLiquidity,
			snap.TakenAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snapshots {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
