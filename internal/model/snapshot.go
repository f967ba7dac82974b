package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is one refresh result: the pool set, the reference price and every
// price derived from them.
type Snapshot struct {
	ID         string                     `json:"id"`
	Version    string                     `json:"version"`
	TakenAt    time.Time                  `json:"taken_at"`
	RefPrice   *decimal.Decimal           `json:"ref_price"`
	HopPricing bool                       `json:"hop_pricing"`
	Assets     map[string]Asset           `json:"assets"`
	Pools      []Pool                     `json:"pools"`
	Prices     map[string]decimal.Decimal `json:"prices"`
	Sources    map[string]PriceSource     `json:"sources"`
	TVL        map[string]PoolTVL         `json:"tvl"`
}

// Index returns a pool index over the snapshot's pools.
func (s *Snapshot) Index() PoolIndex {
	if s == nil {
		return PoolIndex{}
	}
	return NewPoolIndex(s.Pools)
}

// Asset returns metadata for hash, defaulting decimals when unknown.
func (s *Snapshot) Asset(hash string) Asset {
	if s != nil {
		if a, ok := s.Assets[hash]; ok {
			return a
		}
	}
	return Asset{Hash: hash, Decimals: DefaultDecimals}
}
