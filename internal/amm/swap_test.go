package amm

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculateSwapOutputFeeChain(t *testing.T) {
	quote := CalculateSwapOutput(d("1000000000"), d("100000000000"), d("50000000000"), d("0.5"))

	// 1e9 * 9997/10000 = 999700000; * 9978 = 9975006600000
	// out = 9975006600000 * 5e10 / (1e11 * 10000 + 9975006600000)
	assert.True(t, quote.AmountOut.Equal(d("493824428.07075301342412447")), "amount out %s", quote.AmountOut)
	assert.True(t, quote.AmountOutMin.Equal(d("491355305.93039924835700384765")), "amount out min %s", quote.AmountOutMin)
	assert.True(t, quote.PriceImpact.Equal(d("1.9679691644965406")), "price impact %s", quote.PriceImpact)
}

func TestCalculateSwapOutputDegenerate(t *testing.T) {
	tests := []struct {
		name       string
		amountIn   string
		reserveIn  string
		reserveOut string
	}{
		{name: "zero amount", amountIn: "0", reserveIn: "1000", reserveOut: "1000"},
		{name: "negative amount", amountIn: "-5", reserveIn: "1000", reserveOut: "1000"},
		{name: "zero reserve in", amountIn: "10", reserveIn: "0", reserveOut: "1000"},
		{name: "zero reserve out", amountIn: "10", reserveIn: "1000", reserveOut: "0"},
		{name: "negative reserve", amountIn: "10", reserveIn: "-1", reserveOut: "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote := CalculateSwapOutput(d(tt.amountIn), d(tt.reserveIn), d(tt.reserveOut), d("0.5"))
			assert.True(t, quote.IsZero(), "expected zero quote, got %+v", quote)
		})
	}
}

func TestCalculateSwapOutputSlippageClamp(t *testing.T) {
	base := CalculateSwapOutput(d("1000"), d("1000000"), d("1000000"), d("50"))
	over := CalculateSwapOutput(d("1000"), d("1000000"), d("1000000"), d("90"))
	assert.True(t, base.AmountOutMin.Equal(over.AmountOutMin))

	negative := CalculateSwapOutput(d("1000"), d("1000000"), d("1000000"), d("-3"))
	assert.True(t, negative.AmountOutMin.Equal(negative.AmountOut))
}

func TestCalculateSwapInput(t *testing.T) {
	got := CalculateSwapInput(d("493824428.07075301342412447"), d("100000000000"), d("50000000000"))
	assert.True(t, got.Equal(d("1000000001")), "got %s", got)

	assert.True(t, CalculateSwapInput(d("0"), d("10"), d("10")).IsZero())
	assert.True(t, CalculateSwapInput(d("5"), d("0"), d("10")).IsZero())
	assert.True(t, CalculateSwapInput(d("10"), d("10"), d("10")).IsZero())
	assert.True(t, CalculateSwapInput(d("11"), d("10"), d("10")).IsZero())
}

func TestSwapRoundTripNeverUnderquotes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		reserveIn := decimal.NewFromInt(rapid.Int64Range(1_000, 1_000_000_000_000_000).Draw(t, "reserveIn"))
		reserveOut := decimal.NewFromInt(rapid.Int64Range(1_000, 1_000_000_000_000_000).Draw(t, "reserveOut"))
		amountIn := decimal.NewFromInt(rapid.Int64Range(1, 100_000_000_000).Draw(t, "amountIn"))

		quote := CalculateSwapOutput(amountIn, reserveIn, reserveOut, decimal.Zero)
		if !quote.AmountOut.IsPositive() {
			return
		}
		back := CalculateSwapInput(quote.AmountOut, reserveIn, reserveOut)
		if back.LessThan(amountIn) {
			t.Fatalf("round trip underquoted: in=%s out=%s back=%s", amountIn, quote.AmountOut, back)
		}
	})
}

func TestSwapOutputNeverDrainsReserve(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		reserveIn := decimal.NewFromInt(rapid.Int64Range(1, 1_000_000_000_000).Draw(t, "reserveIn"))
		reserveOut := decimal.NewFromInt(rapid.Int64Range(1, 1_000_000_000_000).Draw(t, "reserveOut"))
		amountIn := decimal.NewFromInt(rapid.Int64Range(1, 1_000_000_000_000_000).Draw(t, "amountIn"))
		slippage := decimal.NewFromInt(rapid.Int64Range(0, 50).Draw(t, "slippage"))

		quote := CalculateSwapOutput(amountIn, reserveIn, reserveOut, slippage)
		if !quote.AmountOut.LessThan(reserveOut) {
			t.Fatalf("output %s reaches reserve %s", quote.AmountOut, reserveOut)
		}
		if quote.AmountOutMin.GreaterThan(quote.AmountOut) {
			t.Fatalf("min %s above out %s", quote.AmountOutMin, quote.AmountOut)
		}
	})
}

func TestClampSlippage(t *testing.T) {
	require.True(t, ClampSlippage(d("0.1")).Equal(d("0.1")))
	require.True(t, ClampSlippage(d("-1")).IsZero())
	require.True(t, ClampSlippage(d("51")).Equal(d("50")))
}
