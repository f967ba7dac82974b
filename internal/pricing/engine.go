// Package pricing derives USD prices for pool assets from a single reference
// price by walking the pool graph.
package pricing

import (
	"github.com/shopspring/decimal"

	"forgedex/internal/model"
)

// Scale is the number of decimal places kept by non-terminating divisions.
const Scale int32 = 18

// Options controls a discovery pass.
type Options struct {
	// HopPricing enables propagation beyond assets paired with the native asset.
	HopPricing bool
	// NativeAsset is the anchor asset; empty means model.NativeAssetHash.
	NativeAsset string
}

// Result holds every price derived in one pass. All maps are freshly built and
// safe for the caller to keep.
type Result struct {
	Prices  map[string]decimal.Decimal   `json:"prices"`
	Sources map[string]model.PriceSource `json:"sources"`
	TVL     map[string]model.PoolTVL     `json:"tvl"`
}

func emptyResult() Result {
	return Result{
		Prices:  map[string]decimal.Decimal{},
		Sources: map[string]model.PriceSource{},
		TVL:     map[string]model.PoolTVL{},
	}
}

type queued struct {
	asset string
	price decimal.Decimal
	hops  int
}

// Discover prices every asset reachable from the native asset. A nil or
// non-positive reference price yields an empty result. Pools with a zero
// reserve take no part in pricing.
func Discover(pools []model.Pool, refPrice *decimal.Decimal, opts Options) Result {
	out := emptyResult()
	if refPrice == nil || !refPrice.IsPositive() {
		return out
	}
	native := opts.NativeAsset
	if native == "" {
		native = model.NativeAssetHash
	}

	g := buildGraph(pools)

	// direct prices, in discovery order
	directOrder := []string{native}
	direct := map[string]decimal.Decimal{native: *refPrice}
	for _, e := range g.edges(native) {
		if _, ok := direct[e.peer]; ok {
			continue
		}
		direct[e.peer] = e.derive(*refPrice)
		directOrder = append(directOrder, e.peer)
	}

	for _, asset := range directOrder {
		price := direct[asset]
		out.Prices[asset] = price
		out.Sources[asset] = model.PriceSource{
			Method:         model.PriceMethodDirect,
			Hops:           0,
			RawValues:      []decimal.Decimal{price},
			FilteredValues: []decimal.Decimal{price},
			FinalPrice:     price,
		}
	}

	if opts.HopPricing {
		propagate(g, direct, directOrder, &out)
	}

	out.TVL = PoolTVLs(pools, out.Prices)
	return out
}

// propagate walks the graph breadth first from the directly priced assets.
// An asset's hop distance is fixed when first reached; it keeps collecting
// candidates from neighbors at the same or a lower distance. The price passed
// on to its own neighbors is the first candidate it received.
func propagate(g *graph, direct map[string]decimal.Decimal, seeds []string, out *Result) {
	hops := make(map[string]int)
	raw := make(map[string][]decimal.Decimal)
	var order []string

	queue := make([]queued, 0, len(seeds))
	for _, asset := range seeds {
		hops[asset] = 0
		queue = append(queue, queued{asset: asset, price: direct[asset], hops: 0})
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, e := range g.edges(cur.asset) {
			if _, ok := direct[e.peer]; ok {
				continue
			}
			settled, seen := hops[e.peer]
			if seen && settled < cur.hops {
				continue
			}
			candidate := e.derive(cur.price)
			raw[e.peer] = append(raw[e.peer], candidate)
			if seen {
				continue
			}
			hops[e.peer] = cur.hops + 1
			order = append(order, e.peer)
			queue = append(queue, queued{asset: e.peer, price: candidate, hops: cur.hops + 1})
		}
	}

	for _, asset := range order {
		values := raw[asset]
		filtered := FilterOutliers(values)
		final := Mean(filtered)
		out.Prices[asset] = final
		out.Sources[asset] = model.PriceSource{
			Method:         model.PriceMethodHop,
			Hops:           hops[asset],
			RawValues:      values,
			FilteredValues: filtered,
			FinalPrice:     final,
		}
	}
}
