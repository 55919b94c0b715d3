package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/config"
	"github.com/Uniswap/liquidity-launcher-sub001/internal/launcher"
	"github.com/Uniswap/liquidity-launcher-sub001/internal/storage"
	"github.com/Uniswap/liquidity-launcher-sub001/internal/storage/postgres"
)

func runLaunch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks := storage.Multi{storage.NewJsonlStorage(cfg.Out)}
	if cfg.PgDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PgDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, store)
	}

	logger.Info("launch start",
		zap.String("token_symbol", cfg.TokenSymbol),
		zap.String("total_supply", cfg.TotalSupply),
		zap.Uint32("split_bps", cfg.SplitBps),
		zap.Int("bids", len(cfg.Bids)),
		zap.String("out", cfg.Out),
	)

	result, err := launcher.New(cfg, sinks, logger).Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("launch complete",
		zap.String("token", result.Token.Hex()),
		zap.String("pool", result.Migration.PoolID),
		zap.String("liquidity", result.Migration.Liquidity),
		zap.Int("plan_ops", result.Migration.PlanOps),
		zap.Int("sweeps", len(result.Sweeps)),
	)
	return nil
}
