package model

import "github.com/shopspring/decimal"

// PriceMethod records how an asset price was derived.
type PriceMethod string

const (
	PriceMethodDirect PriceMethod = "direct"
	PriceMethodHop    PriceMethod = "hop"
)

// PriceSource is the provenance of a derived USD price.
type PriceSource struct {
	Method         PriceMethod       `json:"method"`
	Hops           int               `json:"hops"`
	RawValues      []decimal.Decimal `json:"raw_values,omitempty"`
	FilteredValues []decimal.Decimal `json:"filtered_values,omitempty"`
	FinalPrice     decimal.Decimal   `json:"final_price"`
}

// PoolTVL is a pool's USD value. Priced is false when either asset lacks a
// price, in which case Value is zero and must be shown as insufficient data.
type PoolTVL struct {
	Value  decimal.Decimal `json:"value"`
	Priced bool            `json:"priced"`
}
