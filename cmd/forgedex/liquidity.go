package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"forgedex/internal/amm"
	"forgedex/internal/config"
	"forgedex/internal/router"
)

type addOutput struct {
	amm.AddLiquidityEstimate
	PoolShare   string              `json:"pool_share"`
	Transaction *router.Transaction `json:"transaction,omitempty"`
}

type removeOutput struct {
	amm.RemoveLiquidityEstimate
	Transaction *router.Transaction `json:"transaction,omitempty"`
}

func runLiquidityAdd(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	out, err := estimateAdd(cfg)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

// estimateAdd treats a pool without reserves or supply as a first deposit.
func estimateAdd(cfg config.QuoteConfig) (addOutput, error) {
	var pool *amm.PoolReserves
	newPool := cfg.ReserveA.IsZero() && cfg.ReserveB.IsZero() && cfg.TotalSupply.IsZero()
	if !newPool {
		pool = &amm.PoolReserves{ReserveA: cfg.ReserveA, ReserveB: cfg.ReserveB, TotalLPSupply: cfg.TotalSupply}
	}
	est := amm.EstimateAddLiquidity(cfg.AmountA, cfg.AmountB, pool)

	out := addOutput{AddLiquidityEstimate: est}
	if newPool {
		out.PoolShare = "100.000"
	} else {
		out.PoolShare = amm.PoolShare(est.LPTokens, cfg.TotalSupply.Add(est.LPTokens))
	}

	if cfg.Router != "" && cfg.TokenA != "" && cfg.TokenB != "" && est.LPTokens.IsPositive() {
		tx, err := router.NewBuilder(cfg.Router, cfg.MaxGas).AddLiquidity(cfg.TokenA, cfg.TokenB, cfg.AmountA, cfg.AmountB)
		if err != nil {
			return addOutput{}, err
		}
		out.Transaction = &tx
	}
	return out, nil
}

func runLiquidityRemove(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	out, err := estimateRemove(cfg)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

func estimateRemove(cfg config.QuoteConfig) (removeOutput, error) {
	if !cfg.LPBalance.IsPositive() {
		return removeOutput{}, fmt.Errorf("lp-balance must be positive")
	}
	if cfg.LPBalance.GreaterThan(cfg.TotalSupply) && cfg.TotalSupply.IsPositive() {
		return removeOutput{}, fmt.Errorf("lp-balance %s exceeds total supply %s", cfg.LPBalance, cfg.TotalSupply)
	}
	est := amm.EstimateRemoveLiquidity(cfg.LPBalance, cfg.Percentage,
		[2]decimal.Decimal{cfg.ReserveA, cfg.ReserveB}, cfg.TotalSupply)

	out := removeOutput{RemoveLiquidityEstimate: est}
	if cfg.Router != "" && cfg.LPAsset != "" && est.LPToBurn.IsPositive() {
		tx, err := router.NewBuilder(cfg.Router, cfg.MaxGas).RemoveLiquidity(cfg.LPAsset, est.LPToBurn)
		if err != nil {
			return removeOutput{}, err
		}
		out.Transaction = &tx
	}
	return out, nil
}
