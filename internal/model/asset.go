package model

import "github.com/shopspring/decimal"

// NativeAssetHash identifies the chain's native asset, the price anchor.
const NativeAssetHash = "0000000000000000000000000000000000000000000000000000000000000000"

// DefaultDecimals is assumed when an asset's precision is unknown.
const DefaultDecimals uint8 = 8

// Asset captures on-chain asset metadata.
type Asset struct {
	Hash     string           `json:"hash"`
	Ticker   string           `json:"ticker"`
	Name     string           `json:"name"`
	Decimals uint8            `json:"decimals"`
	Balance  *decimal.Decimal `json:"balance,omitempty"`
}

// IsNative reports whether the asset is the native asset.
func (a Asset) IsNative() bool {
	return a.Hash == NativeAssetHash
}
