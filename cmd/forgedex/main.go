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
		Use:          "forgedex",
		Short:        "XELIS DEX price discovery and swap calculator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Load pools, derive USD prices and store snapshots",
		RunE:  runSnapshot,
	}
	addRefreshFlags(snapshotCmd)
	root.AddCommand(snapshotCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Refresh snapshots continuously and serve the dex JSON-RPC API",
		RunE:  runServe,
	}
	addRefreshFlags(serveCmd)
	serveCmd.Flags().String("listen", ":8545", "API listen address")
	serveCmd.Flags().StringSlice("allowed-origins", nil, "CORS origins (comma-separated), empty allows all")
	serveCmd.Flags().Int("rate-limit", 0, "requests per minute per IP, 0 disables")
	serveCmd.Flags().Uint64("max-gas", 200000000, "max gas for invocation payloads")
	root.AddCommand(serveCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap offline from atomic reserves",
		RunE:  runQuote,
	}
	quoteCmd.Flags().String("reserve-in", "", "input asset reserve (atomic)")
	quoteCmd.Flags().String("reserve-out", "", "output asset reserve (atomic)")
	quoteCmd.Flags().String("amount-in", "", "exact input amount (atomic)")
	quoteCmd.Flags().String("amount-out", "", "desired output amount (atomic), solves for the input")
	quoteCmd.Flags().String("slippage", "0.5", "slippage tolerance in percent")
	addInvokeFlags(quoteCmd)
	quoteCmd.Flags().String("token-in", "", "input asset hash")
	quoteCmd.Flags().String("token-out", "", "output asset hash")
	root.AddCommand(quoteCmd)

	liquidityCmd := &cobra.Command{
		Use:   "liquidity",
		Short: "Estimate liquidity provision offline",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Estimate LP tokens minted by a deposit",
		RunE:  runLiquidityAdd,
	}
	addPoolFlags(addCmd)
	addCmd.Flags().String("amount-a", "", "deposit of asset A (atomic)")
	addCmd.Flags().String("amount-b", "", "deposit of asset B (atomic)")
	addCmd.Flags().String("token-a", "", "asset A hash")
	addCmd.Flags().String("token-b", "", "asset B hash")
	addInvokeFlags(addCmd)
	liquidityCmd.AddCommand(addCmd)

	removeCmd := &cobra.Command{
		Use:   "remove",
		Short: "Estimate assets returned by burning LP tokens",
		RunE:  runLiquidityRemove,
	}
	addPoolFlags(removeCmd)
	removeCmd.Flags().String("lp-balance", "", "LP balance (atomic)")
	removeCmd.Flags().String("percentage", "100", "share of the balance to withdraw, in percent")
	removeCmd.Flags().String("lp-asset", "", "LP asset hash")
	addInvokeFlags(removeCmd)
	liquidityCmd.AddCommand(removeCmd)

	root.AddCommand(liquidityCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode typed contract values",
		RunE:  runDecode,
	}
	decodeCmd.Flags().String("node", "ws://127.0.0.1:8080/json_rpc", "daemon WebSocket RPC URL")
	decodeCmd.Flags().String("in", "", "input typed values JSONL")
	decodeCmd.Flags().String("out", "./data/decoded.jsonl", "output JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("contract", "", "read storage of this contract from the daemon instead of --in")
	decodeCmd.Flags().StringSlice("key", nil, "storage keys to read with --contract (comma-separated)")
	decodeCmd.Flags().Bool("preserve-types", false, "keep {type, value} wrappers in the output")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(decodeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRefreshFlags(cmd *cobra.Command) {
	cmd.Flags().String("node", "ws://127.0.0.1:8080/json_rpc", "daemon WebSocket RPC URL")
	cmd.Flags().String("router", "", "router contract hash")
	cmd.Flags().String("native-asset", "0000000000000000000000000000000000000000000000000000000000000000", "native asset hash")
	cmd.Flags().String("price-url", "https://api.coinpaprika.com/v1/tickers/xel-xelis?quotes=USD", "reference price endpoint")
	cmd.Flags().Float64("price-rate", 1, "reference price requests per second")
	cmd.Flags().Bool("hop-pricing", true, "price assets through intermediate pools")
	cmd.Flags().Duration("interval", 0, "refresh interval, 0 runs once")
	cmd.Flags().Int("batch-size", 16, "LP assets per loader batch")
	cmd.Flags().Int("concurrency", 4, "concurrent LP reads per batch")
	cmd.Flags().String("out", "./data/snapshots.jsonl", "output JSONL path, empty disables")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	cmd.Flags().Bool("checkpoint-enabled", true, "skip storing unchanged snapshots")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().Int("cache-size", 64, "price result cache entries")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func addPoolFlags(cmd *cobra.Command) {
	cmd.Flags().String("reserve-a", "", "pool reserve of asset A (atomic), empty for a new pool")
	cmd.Flags().String("reserve-b", "", "pool reserve of asset B (atomic)")
	cmd.Flags().String("total-supply", "", "pool LP supply (atomic)")
}

func addInvokeFlags(cmd *cobra.Command) {
	cmd.Flags().String("router", "", "router contract hash, prints the invocation payload when set")
	cmd.Flags().Uint64("max-gas", 200000000, "max gas for the invocation payload")
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

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
