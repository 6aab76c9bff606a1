package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "orbital",
		Short:        "N-token pegged pool engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted pool lifecycle walkthrough",
		RunE:  runDemo,
	}

	demoCmd.Flags().StringSlice("tokens", nil, "token symbols (comma-separated)")
	demoCmd.Flags().Float64("base-rate", 0.001, "capital-to-radius conversion rate")
	demoCmd.Flags().String("trades-out", "", "optional trades JSONL path")
	demoCmd.Flags().String("snapshots-out", "", "optional snapshots JSONL path")
	demoCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(demoCmd)

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a JSONL operation script against a fresh pool",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("in", "", "input operations JSONL")
	replayCmd.Flags().String("run", "replay", "run name for journaled records")
	replayCmd.Flags().StringSlice("tokens", nil, "token symbols (comma-separated)")
	replayCmd.Flags().Float64("base-rate", 0.001, "capital-to-radius conversion rate")
	replayCmd.Flags().String("trades-out", "./data/trades.jsonl", "output trades JSONL path")
	replayCmd.Flags().String("snapshots-out", "./data/snapshots.jsonl", "output snapshots JSONL path")
	replayCmd.Flags().String("pg-dsn", "", "optional Postgres DSN")
	replayCmd.Flags().Int("batch-size", 1000, "batch size for journal writes")
	replayCmd.Flags().Bool("snapshot-each", false, "snapshot after every operation instead of once at the end")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	pricesCmd := &cobra.Command{
		Use:   "prices",
		Short: "Read oracle prices for the pool tokens",
		RunE:  runPrices,
	}

	pricesCmd.Flags().String("rpc", "", "EVM RPC URL")
	pricesCmd.Flags().String("ftso-address", "", "FTSO contract address")
	pricesCmd.Flags().StringSlice("symbols", nil, "token symbols (comma-separated)")
	pricesCmd.Flags().Duration("cache-ttl", 30*time.Second, "price cache TTL")
	pricesCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(pricesCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
