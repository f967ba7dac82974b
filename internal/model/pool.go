package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Pool is a two-asset liquidity pool as read from the router contract.
// Hashes, Tickers, Names and both reserve pairs are index-aligned and keep
// the on-chain discovery order.
type Pool struct {
	Key            string             `json:"key"`
	LPAsset        string             `json:"lp_asset"`
	Hashes         [2]string          `json:"hashes"`
	Tickers        [2]string          `json:"tickers"`
	Names          [2]string          `json:"names"`
	Decimals       [2]uint8           `json:"decimals"`
	Reserves       [2]decimal.Decimal `json:"reserves"`
	ReservesAtomic [2]decimal.Decimal `json:"reserves_atomic"`
	TotalLPSupply  decimal.Decimal    `json:"total_lp_supply"`
	UserShare      *string            `json:"user_share,omitempty"`
}

// PoolKey builds the composite key for an ordered asset pair.
func PoolKey(hashA, hashB string) string {
	return hashA + "_" + hashB
}

// Name returns the display name "A - B".
func (p Pool) Name() string {
	return fmt.Sprintf("%s - %s", p.Tickers[0], p.Tickers[1])
}

// Index returns the position of hash within the pool, or -1.
func (p Pool) Index(hash string) int {
	switch hash {
	case p.Hashes[0]:
		return 0
	case p.Hashes[1]:
		return 1
	default:
		return -1
	}
}

// HasPositiveReserves reports whether both display reserves are above zero.
func (p Pool) HasPositiveReserves() bool {
	return p.Reserves[0].IsPositive() && p.Reserves[1].IsPositive()
}

// Oriented returns atomic reserves and decimals ordered as (in, out) for a swap
// from tokenIn. ok is false when tokenIn is not part of the pool.
func (p Pool) Oriented(tokenIn string) (reserveIn, reserveOut decimal.Decimal, decimalsIn, decimalsOut uint8, ok bool) {
	i := p.Index(tokenIn)
	if i < 0 {
		return decimal.Zero, decimal.Zero, 0, 0, false
	}
	o := 1 - i
	return p.ReservesAtomic[i], p.ReservesAtomic[o], p.Decimals[i], p.Decimals[o], true
}

// PoolIndex looks pools up by key. Keys are not canonicalized, so pair lookups
// probe both orderings.
type PoolIndex map[string]Pool

// NewPoolIndex indexes pools by their key.
func NewPoolIndex(pools []Pool) PoolIndex {
	idx := make(PoolIndex, len(pools))
	for _, p := range pools {
		idx[p.Key] = p
	}
	return idx
}

// Lookup finds the pool for an unordered pair.
func (idx PoolIndex) Lookup(hashA, hashB string) (Pool, bool) {
	if p, ok := idx[PoolKey(hashA, hashB)]; ok {
		return p, true
	}
	p, ok := idx[PoolKey(hashB, hashA)]
	return p, ok
}
