package config

import (
	"time"

	"github.com/spf13/pflag"
)

// PricesConfig holds configuration for the oracle price check.
type PricesConfig struct {
	RPCURL      string
	FTSOAddress string
	Symbols     []string
	CacheTTL    time.Duration
	LogLevel    string
}

// LoadPrices merges config file, environment variables, and flags into PricesConfig.
func LoadPrices(cfgFile string, flags *pflag.FlagSet) (PricesConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return PricesConfig{}, err
	}

	v.SetDefault("symbols", "USDC,USDT,DAI")
	v.SetDefault("cache-ttl", 30*time.Second)
	v.SetDefault("log-level", "info")

	cfg := PricesConfig{
		RPCURL:      v.GetString("rpc"),
		FTSOAddress: v.GetString("ftso-address"),
		Symbols:     getStringSlice(v, "symbols"),
		CacheTTL:    v.GetDuration("cache-ttl"),
		LogLevel:    v.GetString("log-level"),
	}

	return cfg, nil
}
