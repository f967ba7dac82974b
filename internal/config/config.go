package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "FORGEDEX"

// Config holds settings shared by the snapshot and serve commands.
type Config struct {
	Node              string
	Router            string
	NativeAsset       string
	PriceURL          string
	PriceRate         float64
	HopPricing        bool
	Interval          time.Duration
	BatchSize         int
	Concurrency       int
	Out               string
	PGDSN             string
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	Listen            string
	AllowedOrigins    []string
	RateLimit         int
	CacheSize         int
	MaxGas            uint64
	LogLevel          string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"node":               "ws://127.0.0.1:8080/json_rpc",
		"native-asset":       "0000000000000000000000000000000000000000000000000000000000000000",
		"price-url":          "https://api.coinpaprika.com/v1/tickers/xel-xelis?quotes=USD",
		"price-rate":         1.0,
		"hop-pricing":        true,
		"interval":           time.Duration(0),
		"batch-size":         16,
		"concurrency":        4,
		"out":                "./data/snapshots.jsonl",
		"checkpoint":         "./data/checkpoint.json",
		"checkpoint-enabled": true,
		"max-retries":        5,
		"retry-backoff":      500 * time.Millisecond,
		"listen":             ":8545",
		"rate-limit":         0,
		"cache-size":         64,
		"max-gas":            uint64(200000000),
		"log-level":          "info",
	})
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Node:              v.GetString("node"),
		Router:            v.GetString("router"),
		NativeAsset:       v.GetString("native-asset"),
		PriceURL:          v.GetString("price-url"),
		PriceRate:         v.GetFloat64("price-rate"),
		HopPricing:        v.GetBool("hop-pricing"),
		Interval:          v.GetDuration("interval"),
		BatchSize:         v.GetInt("batch-size"),
		Concurrency:       v.GetInt("concurrency"),
		Out:               v.GetString("out"),
		PGDSN:             v.GetString("pg-dsn"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		Listen:            v.GetString("listen"),
		AllowedOrigins:    getStringSlice(v, "allowed-origins"),
		RateLimit:         v.GetInt("rate-limit"),
		CacheSize:         v.GetInt("cache-size"),
		MaxGas:            v.GetUint64("max-gas"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}

// newViper layers defaults, config file, env and flags. Lookups resolve
// flag > env > file > default.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]any) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
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
