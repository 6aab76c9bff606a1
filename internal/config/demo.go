package config

import (
	"github.com/spf13/pflag"
)

// DemoConfig holds configuration for the scripted demo run.
type DemoConfig struct {
	Tokens       []string
	BaseRate     float64
	TradesOut    string
	SnapshotsOut string
	LogLevel     string
}

// LoadDemo merges config file, environment variables, and flags into DemoConfig.
func LoadDemo(cfgFile string, flags *pflag.FlagSet) (DemoConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return DemoConfig{}, err
	}

	v.SetDefault("tokens", "USDC,USDT,DAI")
	v.SetDefault("base-rate", 0.001)
	v.SetDefault("log-level", "info")

	cfg := DemoConfig{
		Tokens:       getStringSlice(v, "tokens"),
		BaseRate:     v.GetFloat64("base-rate"),
		TradesOut:    v.GetString("trades-out"),
		SnapshotsOut: v.GetString("snapshots-out"),
		LogLevel:     v.GetString("log-level"),
	}

	return cfg, nil
}
