package amm

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateAddLiquidityNewPool(t *testing.T) {
	est := EstimateAddLiquidity(d("4000000"), d("1000000"), nil)

	// sqrt(4e12) = 2e6, minus the locked minimum
	assert.True(t, est.NewPool)
	assert.True(t, est.LPTokens.Equal(d("1999000")), "lp %s", est.LPTokens)
	assert.True(t, est.ShareRatio.Equal(decimal.NewFromInt(1)))
}

func TestEstimateAddLiquidityDustFirstDeposit(t *testing.T) {
	est := EstimateAddLiquidity(d("100"), d("100"), nil)
	assert.True(t, est.LPTokens.IsZero())

	est = EstimateAddLiquidity(d("0"), d("100"), nil)
	assert.True(t, est.LPTokens.IsZero())
}

func TestEstimateAddLiquidityExistingPool(t *testing.T) {
	pool := &PoolReserves{
		ReserveA:      d("1000000"),
		ReserveB:      d("2000000"),
		TotalLPSupply: d("500000"),
	}

	// A contributes 10%, B only 5%: the smaller ratio wins.
	est := EstimateAddLiquidity(d("100000"), d("100000"), pool)
	require.False(t, est.NewPool)
	assert.True(t, est.ShareRatio.Equal(d("0.05")), "share %s", est.ShareRatio)
	assert.True(t, est.LPTokens.Equal(d("25000")), "lp %s", est.LPTokens)
}

func TestEstimateAddLiquidityZeroReserveDividesAsOne(t *testing.T) {
	pool := &PoolReserves{
		ReserveA:      d("0"),
		ReserveB:      d("10"),
		TotalLPSupply: d("100"),
	}

	est := EstimateAddLiquidity(d("3"), d("5"), pool)
	// min(3/1, 5/10) = 0.5
	assert.True(t, est.ShareRatio.Equal(d("0.5")))
	assert.True(t, est.LPTokens.Equal(d("50")))
}

func TestEstimateRemoveLiquidityHalf(t *testing.T) {
	reserves := [2]decimal.Decimal{d("3000000000"), d("1500000000")}
	est := EstimateRemoveLiquidity(d("1000000000"), d("50"), reserves, d("4000000000"))

	assert.True(t, est.LPToBurn.Equal(d("500000000")), "burn %s", est.LPToBurn)
	assert.True(t, est.Amounts[0].Equal(d("375000000")), "amount0 %s", est.Amounts[0])
	assert.True(t, est.Amounts[1].Equal(d("187500000")), "amount1 %s", est.Amounts[1])
}

func TestEstimateRemoveLiquidityRoundsDownAndClamps(t *testing.T) {
	reserves := [2]decimal.Decimal{d("100"), d("100")}

	est := EstimateRemoveLiquidity(d("333"), d("33.3333"), reserves, d("1000"))
	// 333 * 0.333333 = 110.999889
	assert.True(t, est.LPToBurn.Equal(d("110")), "burn %s", est.LPToBurn)

	est = EstimateRemoveLiquidity(d("333"), d("150"), reserves, d("1000"))
	assert.True(t, est.Percentage.Equal(d("100")))
	assert.True(t, est.LPToBurn.Equal(d("333")))

	est = EstimateRemoveLiquidity(d("333"), d("-10"), reserves, d("1000"))
	assert.True(t, est.LPToBurn.IsZero())
	assert.True(t, est.Amounts[0].IsZero())
}

func TestEstimateRemoveLiquidityScalesLinearly(t *testing.T) {
	reserves := [2]decimal.Decimal{d("7000000"), d("900000")}
	total := d("4000000")

	quarter := EstimateRemoveLiquidity(d("2000000"), d("25"), reserves, total)
	half := EstimateRemoveLiquidity(d("2000000"), d("50"), reserves, total)

	for i := range reserves {
		assert.True(t, half.Amounts[i].Equal(quarter.Amounts[i].Mul(decimal.NewFromInt(2))),
			"asset %d: %s vs %s", i, half.Amounts[i], quarter.Amounts[i])
	}
}

func TestEstimateRemoveLiquidityNoSupply(t *testing.T) {
	est := EstimateRemoveLiquidity(d("100"), d("50"), [2]decimal.Decimal{d("10"), d("10")}, decimal.Zero)
	assert.True(t, est.LPToBurn.Equal(d("50")))
	assert.True(t, est.Amounts[0].IsZero())
	assert.True(t, est.Amounts[1].IsZero())
}

func TestPoolShare(t *testing.T) {
	assert.Equal(t, "25.000", PoolShare(d("250"), d("1000")))
	assert.Equal(t, "33.333", PoolShare(d("1"), d("3")))
	assert.Equal(t, "0.000", PoolShare(d("1"), d("0")))
}

func TestUnits(t *testing.T) {
	assert.True(t, ToAtomic(d("1.23456789"), 8).Equal(d("123456789")))
	assert.True(t, ToAtomic(d("0.000000019"), 8).Equal(d("1")))
	assert.True(t, FromAtomic(d("150000000"), 8).Equal(d("1.5")))
	assert.Equal(t, "1.50000000", FormatAtomic(d("150000000"), 8))
	assert.True(t, ParseAmount("").IsZero())
	assert.True(t, ParseAmount("2.5").Equal(d("2.5")))
	assert.True(t, ParseAmount("abc").IsZero())
}
