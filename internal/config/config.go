package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// LaunchConfig holds a full launch scenario loaded from flags, env, or a
// config file. Amounts are decimal strings in raw token units; prices are
// human-readable decimal tokens-per-currency.
type LaunchConfig struct {
	TokenName        string
	TokenSymbol      string
	TokenDecimals    uint8
	CurrencyDecimals uint8
	TotalSupply      string
	Salt             string

	SplitBps    uint32
	MaxSplitBps uint32
	Fee         uint32
	TickSpacing int32

	Recipient string
	Operator  string

	MigrationAllowedAt uint64
	SweepAllowedAt     uint64
	CurrencyCap        string
	OneSidedPolicy     string

	// ClearingPrice closes the auction at a fixed price when set; otherwise
	// the clearing price is derived from the bids.
	ClearingPrice string
	// Bids is the simulated schedule, one "amount@limitPrice" entry per bid.
	Bids []string

	Sweep bool

	Out      string
	PgDSN    string
	LogLevel string
}

// Load merges config file, environment variables, and flags into LaunchConfig.
func Load(cfgFile string, flags *pflag.FlagSet) (LaunchConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("LAUNCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("token-decimals", 18)
	v.SetDefault("currency-decimals", 18)
	v.SetDefault("split-bps", uint32(5000))
	v.SetDefault("fee", uint32(3000))
	v.SetDefault("tick-spacing", int32(60))
	v.SetDefault("one-sided-policy", "auto")
	v.SetDefault("migration-allowed-at", uint64(100))
	v.SetDefault("sweep-allowed-at", uint64(200))
	v.SetDefault("sweep", true)
	v.SetDefault("out", "./data/launch.jsonl")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return LaunchConfig{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return LaunchConfig{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return LaunchConfig{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := LaunchConfig{
		TokenName:          v.GetString("token-name"),
		TokenSymbol:        v.GetString("token-symbol"),
		TokenDecimals:      uint8(v.GetUint("token-decimals")),
		CurrencyDecimals:   uint8(v.GetUint("currency-decimals")),
		TotalSupply:        v.GetString("total-supply"),
		Salt:               v.GetString("salt"),
		SplitBps:           uint32(v.GetUint("split-bps")),
		MaxSplitBps:        uint32(v.GetUint("max-split-bps")),
		Fee:                uint32(v.GetUint("fee")),
		TickSpacing:        int32(v.GetInt("tick-spacing")),
		Recipient:          v.GetString("recipient"),
		Operator:           v.GetString("operator"),
		MigrationAllowedAt: v.GetUint64("migration-allowed-at"),
		SweepAllowedAt:     v.GetUint64("sweep-allowed-at"),
		CurrencyCap:        v.GetString("currency-cap"),
		OneSidedPolicy:     v.GetString("one-sided-policy"),
		ClearingPrice:      v.GetString("clearing-price"),
		Bids:               getStringSlice(v, "bid"),
		Sweep:              v.GetBool("sweep"),
		Out:                v.GetString("out"),
		PgDSN:              v.GetString("pg-dsn"),
		LogLevel:           v.GetString("log-level"),
	}

	return cfg, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
