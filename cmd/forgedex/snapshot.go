package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"forgedex/internal/chain"
	"forgedex/internal/config"
	"forgedex/internal/indexer"
	"forgedex/internal/pools"
	"forgedex/internal/pricing"
	"forgedex/internal/refprice"
	"forgedex/internal/storage"
	"forgedex/internal/storage/postgres"
)

const checkpointName = "forgedex:refresh"

func runSnapshot(cmd *cobra.Command, _ []string) error {
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

	runner, cleanup, err := buildRunner(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("snapshot start",
		zap.String("node", cfg.Node),
		zap.String("router", cfg.Router),
		zap.Bool("hop_pricing", cfg.HopPricing),
		zap.Duration("interval", cfg.Interval),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	err = runner.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// buildRunner connects the daemon, price feed and sinks. cleanup releases them.
func buildRunner(ctx context.Context, cfg config.Config, logger *zap.Logger) (*indexer.Runner, func(), error) {
	if cfg.Node == "" {
		return nil, nil, fmt.Errorf("node url is required")
	}
	if cfg.Router == "" {
		return nil, nil, fmt.Errorf("router contract is required")
	}
	router, err := chain.ParseHash(cfg.Router)
	if err != nil {
		return nil, nil, fmt.Errorf("router contract: %w", err)
	}
	native, err := chain.ParseHash(cfg.NativeAsset)
	if err != nil {
		return nil, nil, fmt.Errorf("native asset: %w", err)
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	daemon, err := chain.NewClient(ctx, cfg.Node)
	if err != nil {
		return nil, nil, fmt.Errorf("connect node: %w", err)
	}
	closers = append(closers, func() { _ = daemon.Close() })

	loader := pools.NewLoader(pools.LoaderConfig{
		Router:      router,
		NativeAsset: native,
		BatchSize:   cfg.BatchSize,
		Concurrency: cfg.Concurrency,
	}, daemon, logger.Named("pools"))

	fetcher := refprice.NewFetcher(cfg.PriceURL, cfg.PriceRate, &http.Client{Timeout: 10 * time.Second})

	cache, err := pricing.NewCache(cfg.CacheSize)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var sinks storage.Multi
	if cfg.Out != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.Out))
	}

	var checkpoint indexer.CheckpointStore = indexer.NewFileCheckpointStore(cfg.Checkpoint, cfg.CheckpointEnabled)
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, store.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
		sinks = append(sinks, store)
		if cfg.CheckpointEnabled {
			checkpoint = &indexer.DBCheckpointStore{Backend: store, Name: checkpointName}
		}
	}

	runner := indexer.NewRunner(indexer.RunConfig{
		NativeAsset:  native,
		HopPricing:   cfg.HopPricing,
		Interval:     cfg.Interval,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, indexer.Dependencies{
		Pools:      loader,
		Prices:     fetcher,
		Storage:    sinks,
		Checkpoint: checkpoint,
		Cache:      cache,
	}, logger.Named("runner"))

	return runner, cleanup, nil
}
