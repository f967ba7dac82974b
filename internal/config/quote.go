package config

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// QuoteConfig holds offline calculator inputs for the quote and liquidity
// commands. Amounts and reserves are atomic units.
type QuoteConfig struct {
	ReserveIn   decimal.Decimal
	ReserveOut  decimal.Decimal
	AmountIn    decimal.Decimal
	AmountOut   decimal.Decimal
	Slippage    decimal.Decimal
	TokenIn     string
	TokenOut    string
	ReserveA    decimal.Decimal
	ReserveB    decimal.Decimal
	TotalSupply decimal.Decimal
	AmountA     decimal.Decimal
	AmountB     decimal.Decimal
	LPBalance   decimal.Decimal
	Percentage  decimal.Decimal
	TokenA      string
	TokenB      string
	LPAsset     string
	Router      string
	MaxGas      uint64
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"slippage": "0.5",
		"max-gas":  uint64(200000000),
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	cfg := QuoteConfig{
		TokenIn:  v.GetString("token-in"),
		TokenOut: v.GetString("token-out"),
		TokenA:   v.GetString("token-a"),
		TokenB:   v.GetString("token-b"),
		LPAsset:  v.GetString("lp-asset"),
		Router:   v.GetString("router"),
		MaxGas:   v.GetUint64("max-gas"),
	}

	amounts := []struct {
		key string
		dst *decimal.Decimal
	}{
		{"reserve-in", &cfg.ReserveIn},
		{"reserve-out", &cfg.ReserveOut},
		{"amount-in", &cfg.AmountIn},
		{"amount-out", &cfg.AmountOut},
		{"slippage", &cfg.Slippage},
		{"reserve-a", &cfg.ReserveA},
		{"reserve-b", &cfg.ReserveB},
		{"total-supply", &cfg.TotalSupply},
		{"amount-a", &cfg.AmountA},
		{"amount-b", &cfg.AmountB},
		{"lp-balance", &cfg.LPBalance},
		{"percentage", &cfg.Percentage},
	}
	for _, a := range amounts {
		d, err := getDecimal(v, a.key)
		if err != nil {
			return QuoteConfig{}, err
		}
		*a.dst = d
	}

	return cfg, nil
}

// getDecimal reads key as a decimal. Unset or empty is zero.
func getDecimal(v *viper.Viper, key string) (decimal.Decimal, error) {
	raw := v.GetString(key)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}
