package amm

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// MinimumLiquidity is the LP amount locked forever by the first deposit.
const MinimumLiquidity = 1000

// LPDecimals is the precision of router LP tokens.
const LPDecimals uint8 = 8

var minimumLiquidity = decimal.NewFromInt(MinimumLiquidity)

// PoolReserves is the state an add-liquidity estimate needs. Amounts are atomic.
type PoolReserves struct {
	ReserveA      decimal.Decimal
	ReserveB      decimal.Decimal
	TotalLPSupply decimal.Decimal
}

// AddLiquidityEstimate is the LP outcome of a deposit.
type AddLiquidityEstimate struct {
	LPTokens   decimal.Decimal `json:"lp_tokens"`
	ShareRatio decimal.Decimal `json:"share_ratio"`
	NewPool    bool            `json:"new_pool"`
}

// EstimateAddLiquidity estimates minted LP tokens for atomic deposits. A nil
// pool means first provision: sqrt(a*b) - MinimumLiquidity. Otherwise the
// smaller deposit/reserve ratio scales the current LP supply; a zero reserve
// divides as 1. Results are floored to whole LP units and never negative.
func EstimateAddLiquidity(depositA, depositB decimal.Decimal, pool *PoolReserves) AddLiquidityEstimate {
	if pool == nil {
		return AddLiquidityEstimate{
			LPTokens:   initialLiquidity(depositA, depositB),
			ShareRatio: one,
			NewPool:    true,
		}
	}

	if depositA.IsNegative() || depositB.IsNegative() {
		return AddLiquidityEstimate{LPTokens: decimal.Zero, ShareRatio: decimal.Zero}
	}

	ratioA := depositA.DivRound(nonZero(pool.ReserveA), DivisionScale)
	ratioB := depositB.DivRound(nonZero(pool.ReserveB), DivisionScale)
	share := decimal.Min(ratioA, ratioB)

	lp := pool.TotalLPSupply.Mul(share).Floor()
	if lp.IsNegative() {
		lp = decimal.Zero
	}
	return AddLiquidityEstimate{LPTokens: lp, ShareRatio: share}
}

func initialLiquidity(depositA, depositB decimal.Decimal) decimal.Decimal {
	if !depositA.IsPositive() || !depositB.IsPositive() {
		return decimal.Zero
	}
	product := new(big.Int).Mul(depositA.BigInt(), depositB.BigInt())
	root := decimal.NewFromBigInt(new(big.Int).Sqrt(product), 0)
	lp := root.Sub(minimumLiquidity)
	if lp.IsNegative() {
		return decimal.Zero
	}
	return lp
}

func nonZero(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return one
	}
	return d
}

// RemoveLiquidityEstimate is the outcome of burning part of an LP balance.
type RemoveLiquidityEstimate struct {
	Percentage decimal.Decimal    `json:"percentage"`
	LPToBurn   decimal.Decimal    `json:"lp_to_burn"`
	Amounts    [2]decimal.Decimal `json:"amounts"`
}

// EstimateRemoveLiquidity computes the LP amount to burn for a withdrawal
// percentage of lpBalance (atomic) and the resulting per-asset amounts
// reserve_i * lpToBurn / totalLPSupply. The percentage is clamped to [0, 100]
// and the burn amount rounds down.
func EstimateRemoveLiquidity(lpBalance, percentage decimal.Decimal, reserves [2]decimal.Decimal, totalLPSupply decimal.Decimal) RemoveLiquidityEstimate {
	pct := ClampPercentage(percentage)
	out := RemoveLiquidityEstimate{
		Percentage: pct,
		LPToBurn:   decimal.Zero,
		Amounts:    [2]decimal.Decimal{decimal.Zero, decimal.Zero},
	}
	if !lpBalance.IsPositive() {
		return out
	}

	out.LPToBurn = lpBalance.Mul(pct).Shift(-2).Floor()
	if !totalLPSupply.IsPositive() {
		return out
	}

	for i, reserve := range reserves {
		if !reserve.IsPositive() {
			continue
		}
		out.Amounts[i] = reserve.Mul(out.LPToBurn).DivRound(totalLPSupply, DivisionScale)
	}
	return out
}

// ClampPercentage bounds a percentage to [0, 100].
func ClampPercentage(percent decimal.Decimal) decimal.Decimal {
	if percent.IsNegative() {
		return decimal.Zero
	}
	if percent.GreaterThan(hundred) {
		return hundred
	}
	return percent
}

// PoolShare returns userLP/totalLP as a percentage with three decimals.
func PoolShare(userLP, totalLP decimal.Decimal) string {
	if !totalLP.IsPositive() || userLP.IsNegative() {
		return "0.000"
	}
	return userLP.Mul(hundred).DivRound(totalLP, DivisionScale).StringFixed(3)
}
