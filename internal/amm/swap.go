package amm

import (
	"github.com/shopspring/decimal"

	"forgedex/internal/model"
)

// Fee schedule of the router contract. The dev fee is applied first as
// 9997/10000, then the LP fee multiplier 9978 whose /10000 is folded into the
// reserve scale of the denominator.
const (
	devFeeNumerator = 9997
	lpFeeNumerator  = 9978
	feeDenominator  = 10000
)

// MaxSlippagePercent bounds user slippage tolerance.
const MaxSlippagePercent = 50

// DefaultSlippagePercent is used when a caller gives no tolerance.
var DefaultSlippagePercent = decimal.RequireFromString("0.5")

// DivisionScale is the number of decimal places kept by non-terminating divisions.
const DivisionScale int32 = 18

var (
	devFee     = decimal.NewFromInt(devFeeNumerator)
	lpFee      = decimal.NewFromInt(lpFeeNumerator)
	feeScale   = decimal.NewFromInt(feeDenominator)
	one        = decimal.NewFromInt(1)
	hundred    = decimal.NewFromInt(100)
	maxSlipDec = decimal.NewFromInt(MaxSlippagePercent)
)

// CalculateSwapOutput quotes an exact-in swap. All amounts are atomic units and
// slippagePercent is a percentage (0.5 means 0.5%). Degenerate input yields the
// zero quote.
func CalculateSwapOutput(amountIn, reserveIn, reserveOut, slippagePercent decimal.Decimal) model.SwapQuote {
	if !amountIn.IsPositive() || !reserveIn.IsPositive() || !reserveOut.IsPositive() {
		return model.SwapQuote{AmountOut: decimal.Zero, AmountOutMin: decimal.Zero, PriceImpact: decimal.Zero}
	}

	amountInWithDevFee := amountIn.Mul(devFee).Shift(-4)
	amountInWithLPFee := amountInWithDevFee.Mul(lpFee)

	numerator := amountInWithLPFee.Mul(reserveOut)
	denominator := reserveIn.Mul(feeScale).Add(amountInWithLPFee)
	amountOut := numerator.DivRound(denominator, DivisionScale)

	slippage := ClampSlippage(slippagePercent)
	amountOutMin := amountOut.Mul(one.Sub(slippage.Shift(-2)))

	return model.SwapQuote{
		AmountOut:    amountOut,
		AmountOutMin: amountOutMin,
		PriceImpact:  priceImpact(amountIn, amountOut, reserveIn, reserveOut),
	}
}

// priceImpact is |(before - after) / before| * 100 with before = rOut/rIn and
// after = (rOut-out)/(rIn+in). after/before is computed as one fraction.
func priceImpact(amountIn, amountOut, reserveIn, reserveOut decimal.Decimal) decimal.Decimal {
	ratio := reserveOut.Sub(amountOut).Mul(reserveIn).
		DivRound(reserveIn.Add(amountIn).Mul(reserveOut), DivisionScale)
	return one.Sub(ratio).Abs().Mul(hundred)
}

// CalculateSwapInput returns the atomic input needed to receive amountOut. The
// result is rounded up by one unit so the forward quote never falls short.
// Degenerate input, including amountOut >= reserveOut, yields zero.
func CalculateSwapInput(amountOut, reserveIn, reserveOut decimal.Decimal) decimal.Decimal {
	if !amountOut.IsPositive() || !reserveIn.IsPositive() || !reserveOut.IsPositive() {
		return decimal.Zero
	}
	if amountOut.GreaterThanOrEqual(reserveOut) {
		return decimal.Zero
	}

	numerator := reserveIn.Mul(amountOut).Mul(feeScale)
	denominator := reserveOut.Sub(amountOut).Mul(lpFee).Mul(devFee).Shift(-4)

	quotient, _ := numerator.QuoRem(denominator, 0)
	return quotient.Add(one)
}

// ClampSlippage bounds a slippage percentage to [0, MaxSlippagePercent].
func ClampSlippage(percent decimal.Decimal) decimal.Decimal {
	if percent.IsNegative() {
		return decimal.Zero
	}
	if percent.GreaterThan(maxSlipDec) {
		return maxSlipDec
	}
	return percent
}
