package config

import (
	"github.com/spf13/pflag"
)

// ReplayConfig holds configuration for replaying a scripted operation file.
type ReplayConfig struct {
	Input        string
	Run          string
	Tokens       []string
	BaseRate     float64
	TradesOut    string
	SnapshotsOut string
	PGDSN        string
	BatchSize    int
	SnapshotEach bool
	LogLevel     string
}

// LoadReplay merges config file, environment variables, and flags into ReplayConfig.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return ReplayConfig{}, err
	}

	v.SetDefault("run", "replay")
	v.SetDefault("tokens", "USDC,USDT,DAI")
	v.SetDefault("base-rate", 0.001)
	v.SetDefault("trades-out", "./data/trades.jsonl")
	v.SetDefault("snapshots-out", "./data/snapshots.jsonl")
	v.SetDefault("batch-size", 1000)
	v.SetDefault("log-level", "info")

	cfg := ReplayConfig{
		Input:        v.GetString("in"),
		Run:          v.GetString("run"),
		Tokens:       getStringSlice(v, "tokens"),
		BaseRate:     v.GetFloat64("base-rate"),
		TradesOut:    v.GetString("trades-out"),
		SnapshotsOut: v.GetString("snapshots-out"),
		PGDSN:        v.GetString("pg-dsn"),
		BatchSize:    v.GetInt("batch-size"),
		SnapshotEach: v.GetBool("snapshot-each"),
		LogLevel:     v.GetString("log-level"),
	}

	return cfg, nil
}
