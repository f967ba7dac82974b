package model

import "github.com/shopspring/decimal"

// SwapQuote is an exact-in swap quote in atomic units.
type SwapQuote struct {
	AmountOut    decimal.Decimal `json:"amount_out"`
	AmountOutMin decimal.Decimal `json:"amount_out_min"`
	PriceImpact  decimal.Decimal `json:"price_impact"`
}

// IsZero reports whether the quote is the neutral zero quote.
func (q SwapQuote) IsZero() bool {
	return q.AmountOut.IsZero() && q.AmountOutMin.IsZero() && q.PriceImpact.IsZero()
}
