package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"forgedex/internal/api"
	"forgedex/internal/config"
)

const defaultServeInterval = time.Minute

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultServeInterval
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

	server, err := api.NewServer(api.ServerConfig{
		Address:        cfg.Listen,
		AllowedOrigins: cfg.AllowedOrigins,
		RatePerMinute:  cfg.RateLimit,
		RouterContract: cfg.Router,
		MaxGas:         cfg.MaxGas,
	}, runner, logger.Named("api"))
	if err != nil {
		return err
	}

	logger.Info("serve start",
		zap.String("node", cfg.Node),
		zap.String("router", cfg.Router),
		zap.String("listen", cfg.Listen),
		zap.Duration("interval", cfg.Interval),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runner.Run(gctx)
	})
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
