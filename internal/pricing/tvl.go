package pricing

import (
	"github.com/shopspring/decimal"

	"forgedex/internal/model"
)

// PoolTVLs values every pool in USD from display reserves. A pool missing a
// price for either asset, or with an empty reserve, is reported as an unpriced
// zero.
func PoolTVLs(pools []model.Pool, prices map[string]decimal.Decimal) map[string]model.PoolTVL {
	out := make(map[string]model.PoolTVL, len(pools))
	for _, p := range pools {
		out[p.Key] = poolTVL(p, prices)
	}
	return out
}

func poolTVL(p model.Pool, prices map[string]decimal.Decimal) model.PoolTVL {
	if !p.HasPositiveReserves() {
		return model.PoolTVL{Value: decimal.Zero}
	}
	priceA, okA := prices[p.Hashes[0]]
	priceB, okB := prices[p.Hashes[1]]
	if !okA || !okB {
		return model.PoolTVL{Value: decimal.Zero}
	}
	value := p.Reserves[0].Mul(priceA).Add(p.Reserves[1].Mul(priceB))
	return model.PoolTVL{Value: value, Priced: true}
}

// AmountForUSD converts a USD amount into asset display units at price. An
// unknown or non-positive price yields zero.
func AmountForUSD(usd decimal.Decimal, price decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() || !usd.IsPositive() {
		return decimal.Zero
	}
	return usd.DivRound(price, Scale)
}

// USDValue converts a display amount into USD at price.
func USDValue(amount decimal.Decimal, price decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	return amount.Mul(price)
}
