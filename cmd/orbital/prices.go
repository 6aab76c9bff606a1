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
	"orbitalPool/internal/oracle"
)

func runPrices(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPrices(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if len(cfg.Symbols) == 0 {
		return fmt.Errorf("symbol list is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := oracle.NewClient(ctx, cfg.RPCURL, cfg.FTSOAddress, cfg.CacheTTL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	for _, symbol := range cfg.Symbols {
		quote, err := client.PriceUSD(ctx, symbol)
		if err != nil {
			logger.Warn("price fetch failed", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		logger.Info("oracle price",
			zap.String("symbol", quote.Symbol),
			zap.Float64("price_usd", quote.PriceUSD),
			zap.Time("feed_ts", quote.Timestamp),
		)
	}

	return nil
}
