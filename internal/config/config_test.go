package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into dir so no config.* from the working tree is picked up.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.True(t, cfg.HopPricing)
	assert.Equal(t, time.Duration(0), cfg.Interval)
	assert.Equal(t, 16, cfg.BatchSize)
	assert.Equal(t, 64, cfg.CacheSize)
	assert.Equal(t, uint64(200000000), cfg.MaxGas)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Nil(t, cfg.AllowedOrigins)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "forgedex.yaml")
	require.NoError(t, os.WriteFile(file, []byte("router: file-router\nbatch-size: 8\ninterval: 30s\nallowed-origins:\n  - https://a.example\n  - https://b.example\n"), 0o644))

	t.Setenv("FORGEDEX_BATCH_SIZE", "12")
	t.Setenv("FORGEDEX_HOP_PRICING", "false")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("router", "", "")
	flags.Int("batch-size", 16, "")
	require.NoError(t, flags.Parse([]string{"--router", "flag-router"}))

	cfg, err := Load(file, flags)
	require.NoError(t, err)

	assert.Equal(t, "flag-router", cfg.Router)
	assert.Equal(t, 12, cfg.BatchSize, "env beats file when the flag is unchanged")
	assert.False(t, cfg.HopPricing)
	assert.Equal(t, 30*time.Second, cfg.Interval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}

func TestStringSliceFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FORGEDEX_ALLOWED_ORIGINS", " https://a.example, ,https://b.example ")
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadQuote(t *testing.T) {
	chdir(t, t.TempDir())
	flags := pflag.NewFlagSet("quote", pflag.ContinueOnError)
	flags.String("amount-in", "", "")
	flags.String("reserve-in", "", "")
	flags.String("slippage", "0.5", "")
	require.NoError(t, flags.Parse([]string{"--amount-in", "1000000000", "--reserve-in", "100000000000"}))

	cfg, err := LoadQuote("", flags)
	require.NoError(t, err)
	assert.Equal(t, "1000000000", cfg.AmountIn.String())
	assert.Equal(t, "100000000000", cfg.ReserveIn.String())
	assert.Equal(t, "0.5", cfg.Slippage.String())
	assert.True(t, cfg.ReserveOut.IsZero())
}

func TestLoadQuoteRejectsMalformedAmount(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FORGEDEX_AMOUNT_IN", "12abc")
	_, err := LoadQuote("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount-in")
}

func TestLoadDecode(t *testing.T) {
	chdir(t, t.TempDir())
	flags := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	flags.StringSlice("key", nil, "")
	flags.Bool("preserve-types", false, "")
	require.NoError(t, flags.Parse([]string{"--key", "a,b", "--preserve-types"}))

	cfg, err := LoadDecode("", flags)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cfg.Keys)
	assert.True(t, cfg.PreserveTypes)
	assert.Equal(t, "./data/decode_errors.jsonl", cfg.Errors)
}
