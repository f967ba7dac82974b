package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forgedex/internal/model"
)

const native = model.NativeAssetHash

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ref(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func pool(a, b, reserveA, reserveB string) model.Pool {
	return model.Pool{
		Key:      model.PoolKey(a, b),
		Hashes:   [2]string{a, b},
		Tickers:  [2]string{a, b},
		Decimals: [2]uint8{8, 8},
		Reserves: [2]decimal.Decimal{d(reserveA), d(reserveB)},
	}
}

func assertPrice(t *testing.T, res Result, asset, want string) {
	t.Helper()
	got, ok := res.Prices[asset]
	require.True(t, ok, "no price for %s", asset)
	assert.True(t, got.Equal(d(want)), "%s: got %s want %s", asset, got, want)
}

func TestDiscoverDirect(t *testing.T) {
	res := Discover([]model.Pool{pool(native, "A", "10", "5")}, ref("2"), Options{HopPricing: true})

	assertPrice(t, res, native, "2")
	assertPrice(t, res, "A", "4")
	assert.Equal(t, model.PriceMethodDirect, res.Sources["A"].Method)
	assert.Equal(t, 0, res.Sources["A"].Hops)
}

func TestDiscoverMultiHop(t *testing.T) {
	pools := []model.Pool{
		pool(native, "A", "10", "5"),
		pool("A", "B", "5", "20"),
		pool("B", "C", "1", "2"),
	}
	res := Discover(pools, ref("2"), Options{HopPricing: true})

	assertPrice(t, res, "B", "1")
	assert.Equal(t, model.PriceMethodHop, res.Sources["B"].Method)
	assert.Equal(t, 1, res.Sources["B"].Hops)

	assertPrice(t, res, "C", "0.5")
	assert.Equal(t, 2, res.Sources["C"].Hops)
}

func TestDiscoverHopDisabled(t *testing.T) {
	pools := []model.Pool{
		pool(native, "A", "10", "5"),
		pool("A", "B", "5", "20"),
	}
	res := Discover(pools, ref("2"), Options{HopPricing: false})

	assertPrice(t, res, "A", "4")
	_, ok := res.Prices["B"]
	assert.False(t, ok)

	tvl := res.TVL[model.PoolKey("A", "B")]
	assert.False(t, tvl.Priced)
	assert.True(t, tvl.Value.IsZero())
}

func TestDiscoverFirstDirectPoolWins(t *testing.T) {
	pools := []model.Pool{
		pool(native, "A", "10", "5"),
		pool("A", native, "10", "10"),
	}
	res := Discover(pools, ref("2"), Options{HopPricing: true})
	assertPrice(t, res, "A", "4")
}

func TestDiscoverDirectPriceNotOverriddenByHop(t *testing.T) {
	pools := []model.Pool{
		pool(native, "A", "1", "1"),
		pool(native, "B", "1", "1"),
		pool("A", "B", "1", "50"),
	}
	res := Discover(pools, ref("3"), Options{HopPricing: true})

	assertPrice(t, res, "B", "3")
	assert.Equal(t, model.PriceMethodDirect, res.Sources["B"].Method)
}

func TestDiscoverCollectsCandidatesAtSameDepth(t *testing.T) {
	pools := []model.Pool{
		pool(native, "A1", "1", "1"),
		pool(native, "A2", "1", "2"),
		pool("A1", "B", "1", "1"),
		pool("A2", "B", "1", "1"),
	}
	res := Discover(pools, ref("1"), Options{HopPricing: true})

	src := res.Sources["B"]
	require.Len(t, src.RawValues, 2)
	assert.True(t, src.RawValues[0].Equal(d("1")))
	assert.True(t, src.RawValues[1].Equal(d("0.5")))
	assertPrice(t, res, "B", "0.75")
}

func TestDiscoverRejectsOutlierCandidate(t *testing.T) {
	pools := []model.Pool{
		pool(native, "A1", "1", "1"),
		pool(native, "A2", "1", "1"),
		pool(native, "A3", "1", "1"),
		pool(native, "A4", "1", "1"),
		pool(native, "A5", "1", "1"),
		pool("A1", "X", "1", "1"),
		pool("A2", "X", "1", "1"),
		pool("A3", "X", "1", "100"),
		pool("A4", "X", "1", "1"),
		pool("A5", "X", "1", "1"),
	}
	res := Discover(pools, ref("1"), Options{HopPricing: true})

	src := res.Sources["X"]
	assert.Len(t, src.RawValues, 5)
	assert.Less(t, len(src.FilteredValues), len(src.RawValues))
	assertPrice(t, res, "X", "1")
}

func TestDiscoverSkipsZeroReservePools(t *testing.T) {
	pools := []model.Pool{
		pool(native, "A", "0", "5"),
		pool(native, "B", "4", "2"),
	}
	res := Discover(pools, ref("1"), Options{HopPricing: true})

	_, ok := res.Prices["A"]
	assert.False(t, ok)
	assertPrice(t, res, "B", "2")

	tvl := res.TVL[model.PoolKey(native, "A")]
	assert.False(t, tvl.Priced)
}

func TestDiscoverZeroReservePoolHasNoTVL(t *testing.T) {
	drained := pool(native, "A", "0", "7")
	drained.Key = "drained"
	pools := []model.Pool{
		pool(native, "A", "10", "5"),
		drained,
	}
	res := Discover(pools, ref("2"), Options{HopPricing: true})
	assertPrice(t, res, "A", "4")

	tvl := res.TVL["drained"]
	assert.False(t, tvl.Priced)
	assert.True(t, tvl.Value.IsZero(), "tvl %s", tvl.Value)

	tvl = res.TVL[model.PoolKey(native, "A")]
	assert.True(t, tvl.Priced)
	assert.True(t, tvl.Value.Equal(d("40")), "tvl %s", tvl.Value)
}

func TestDiscoverWithoutReferencePrice(t *testing.T) {
	pools := []model.Pool{pool(native, "A", "10", "5")}

	for _, price := range []*decimal.Decimal{nil, ref("0"), ref("-1")} {
		res := Discover(pools, price, Options{HopPricing: true})
		assert.Empty(t, res.Prices)
		assert.Empty(t, res.Sources)
		assert.Empty(t, res.TVL)
		assert.NotNil(t, res.Prices)
	}
}

func TestDiscoverIsIdempotent(t *testing.T) {
	pools := []model.Pool{
		pool(native, "A", "10", "5"),
		pool("A", "B", "5", "20"),
		pool("B", "C", "7", "3"),
	}
	first := Discover(pools, ref("2.5"), Options{HopPricing: true})
	second := Discover(pools, ref("2.5"), Options{HopPricing: true})
	assert.Equal(t, first, second)
}

func TestDiscoverTVL(t *testing.T) {
	pools := []model.Pool{
		pool(native, "A", "10", "5"),
		pool("A", "B", "5", "20"),
	}
	res := Discover(pools, ref("2"), Options{HopPricing: true})

	tvl := res.TVL[model.PoolKey(native, "A")]
	assert.True(t, tvl.Priced)
	assert.True(t, tvl.Value.Equal(d("40")), "tvl %s", tvl.Value)

	tvl = res.TVL[model.PoolKey("A", "B")]
	assert.True(t, tvl.Priced)
	assert.True(t, tvl.Value.Equal(d("40")), "tvl %s", tvl.Value)
}

func TestDiscoverCustomNativeAsset(t *testing.T) {
	res := Discover([]model.Pool{pool("N", "A", "10", "5")}, ref("2"), Options{NativeAsset: "N"})
	assertPrice(t, res, "A", "4")
}

func TestAmountForUSD(t *testing.T) {
	assert.True(t, AmountForUSD(d("10"), d("4")).Equal(d("2.5")))
	assert.True(t, AmountForUSD(d("10"), decimal.Zero).IsZero())
	assert.True(t, AmountForUSD(d("-1"), d("4")).IsZero())
	assert.True(t, USDValue(d("2.5"), d("4")).Equal(d("10")))
}
