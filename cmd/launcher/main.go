package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "launcher",
		Short:        "Liquidity launch engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a full launch scenario",
		RunE:  runLaunch,
	}

	runCmd.Flags().String("token-name", "", "token name")
	runCmd.Flags().String("token-symbol", "", "token symbol")
	runCmd.Flags().Uint("token-decimals", 18, "token decimals")
	runCmd.Flags().Uint("currency-decimals", 18, "currency decimals")
	runCmd.Flags().String("total-supply", "", "total token supply in raw units")
	runCmd.Flags().String("salt", "", "token deployment salt (32-byte hex)")
	runCmd.Flags().Uint32("split-bps", 5000, "auction share of the supply in basis points")
	runCmd.Flags().Uint32("max-split-bps", 0, "maximum allowed split, 0 means the full denominator")
	runCmd.Flags().Uint32("fee", 3000, "pool fee in hundredths of a bip")
	runCmd.Flags().Int32("tick-spacing", 60, "pool tick spacing")
	runCmd.Flags().String("recipient", "", "migration dust recipient address")
	runCmd.Flags().String("operator", "", "sweep operator address")
	runCmd.Flags().Uint64("migration-allowed-at", 100, "earliest migration time")
	runCmd.Flags().Uint64("sweep-allowed-at", 200, "earliest sweep time")
	runCmd.Flags().String("currency-cap", "", "maximum raised currency committed to liquidity")
	runCmd.Flags().String("one-sided-policy", "auto", "one-sided position policy (auto, token-only, currency-only, off)")
	runCmd.Flags().String("clearing-price", "", "close the auction at this price instead of deriving one")
	runCmd.Flags().StringSlice("bid", nil, "simulated bids, amount@limitPrice (comma-separated)")
	runCmd.Flags().Bool("sweep", true, "run the post-migration sweeps")
	runCmd.Flags().String("out", "./data/launch.jsonl", "output JSONL path")
	runCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for record storage")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Preview migration numbers and the operation batch without executing",
		RunE:  runPlan,
	}

	planCmd.Flags().String("price", "", "clearing price, tokens per currency")
	planCmd.Flags().String("raised", "", "raised currency in raw units")
	planCmd.Flags().String("reserve", "", "token reserve ceiling in raw units")
	planCmd.Flags().Uint("token-decimals", 18, "token decimals")
	planCmd.Flags().Uint("currency-decimals", 18, "currency decimals")
	planCmd.Flags().Uint32("fee", 3000, "pool fee in hundredths of a bip")
	planCmd.Flags().Int32("tick-spacing", 60, "pool tick spacing")
	planCmd.Flags().Bool("token-first", false, "place the token in the currency0 slot")
	planCmd.Flags().String("one-sided-policy", "auto", "one-sided position policy (auto, token-only, currency-only, off)")

	root.AddCommand(planCmd)

	mineCmd := &cobra.Command{
		Use:   "mine-salt",
		Short: "Mine a CREATE2 salt matching a flag mask and vanity prefix",
		RunE:  runMineSalt,
	}

	mineCmd.Flags().String("deployer", "", "deployer address")
	mineCmd.Flags().String("init-code-hash", "", "init code hash (32-byte hex)")
	mineCmd.Flags().String("flag-mask", "", "address bits that must be set (20-byte hex)")
	mineCmd.Flags().String("prefix", "", "vanity hex prefix for the derived address")
	mineCmd.Flags().Int("workers", 4, "mining goroutines")
	mineCmd.Flags().Duration("timeout", 0, "abort after this duration, 0 means no limit")
	mineCmd.Flags().String("sender", "", "optional sender to chain the mined salt with")

	root.AddCommand(mineCmd)

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
