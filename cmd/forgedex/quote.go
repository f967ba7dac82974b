package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"forgedex/internal/amm"
	"forgedex/internal/config"
	"forgedex/internal/router"
)

type swapOutput struct {
	Mode         string              `json:"mode"`
	AmountIn     decimal.Decimal     `json:"amount_in"`
	AmountOut    decimal.Decimal     `json:"amount_out"`
	AmountOutMin *decimal.Decimal    `json:"amount_out_min,omitempty"`
	PriceImpact  *decimal.Decimal    `json:"price_impact,omitempty"`
	Transaction  *router.Transaction `json:"transaction,omitempty"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	out, err := quoteSwap(cfg)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

// quoteSwap solves for the input when an output amount is given, otherwise
// quotes the exact input.
func quoteSwap(cfg config.QuoteConfig) (swapOutput, error) {
	if !cfg.ReserveIn.IsPositive() || !cfg.ReserveOut.IsPositive() {
		return swapOutput{}, fmt.Errorf("reserve-in and reserve-out must be positive")
	}

	if cfg.AmountOut.IsPositive() {
		in := amm.CalculateSwapInput(cfg.AmountOut, cfg.ReserveIn, cfg.ReserveOut)
		if in.IsZero() {
			return swapOutput{}, fmt.Errorf("amount-out %s cannot be filled by reserve %s", cfg.AmountOut, cfg.ReserveOut)
		}
		return swapOutput{Mode: "exact_out", AmountIn: in, AmountOut: cfg.AmountOut}, nil
	}

	quote := amm.CalculateSwapOutput(cfg.AmountIn, cfg.ReserveIn, cfg.ReserveOut, cfg.Slippage)
	out := swapOutput{
		Mode:         "exact_in",
		AmountIn:     cfg.AmountIn,
		AmountOut:    quote.AmountOut,
		AmountOutMin: &quote.AmountOutMin,
		PriceImpact:  &quote.PriceImpact,
	}
	if cfg.Router != "" && cfg.TokenIn != "" && cfg.TokenOut != "" && !quote.IsZero() {
		tx, err := router.NewBuilder(cfg.Router, cfg.MaxGas).Swap(cfg.TokenIn, cfg.TokenOut, cfg.AmountIn, quote.AmountOutMin)
		if err != nil {
			return swapOutput{}, err
		}
		out.Transaction = &tx
	}
	return out, nil
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
