package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"orbitalPool/internal/config"
	"orbitalPool/internal/engine"
	"orbitalPool/internal/replay"
	"orbitalPool/internal/storage"
	"orbitalPool/internal/storage/postgres"
)

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input file is required")
	}
	if len(cfg.Tokens) < 2 {
		return fmt.Errorf("at least 2 tokens required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := engine.New(cfg.Tokens, cfg.BaseRate)
	if err != nil {
		return err
	}

	journal := storage.NewJsonlJournal(cfg.TradesOut, cfg.SnapshotsOut)

	var store *postgres.Store
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
	}

	runner := replay.NewRunner(replay.Config{
		Run:          cfg.Run,
		BatchSize:    cfg.BatchSize,
		SnapshotEach: cfg.SnapshotEach,
	}, pool, journal, store, logger)

	logger.Info("replay start",
		zap.String("run", cfg.Run),
		zap.String("in", cfg.Input),
		zap.Strings("tokens", cfg.Tokens),
		zap.Float64("base_rate", cfg.BaseRate),
		zap.String("trades_out", cfg.TradesOut),
		zap.String("snapshots_out", cfg.SnapshotsOut),
		zap.Bool("postgres", store != nil),
	)

	return runner.Run(ctx, cfg.Input)
}
