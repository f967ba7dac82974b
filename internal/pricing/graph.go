package pricing

import (
	"github.com/shopspring/decimal"

	"forgedex/internal/model"
)

type edge struct {
	peer    string
	poolKey string
	// price(peer) = price(self) * from / to
	from decimal.Decimal
	to   decimal.Decimal
}

// graph is an undirected asset graph with one edge per pool. Adjacency lists
// keep pool order so traversal is deterministic.
type graph struct {
	adj map[string][]edge
}

func buildGraph(pools []model.Pool) *graph {
	g := &graph{adj: make(map[string][]edge)}
	for _, p := range pools {
		if !p.HasPositiveReserves() {
			continue
		}
		a, b := p.Hashes[0], p.Hashes[1]
		if a == b {
			continue
		}
		g.adj[a] = append(g.adj[a], edge{peer: b, poolKey: p.Key, from: p.Reserves[0], to: p.Reserves[1]})
		g.adj[b] = append(g.adj[b], edge{peer: a, poolKey: p.Key, from: p.Reserves[1], to: p.Reserves[0]})
	}
	return g
}

func (g *graph) edges(asset string) []edge {
	return g.adj[asset]
}

// derive prices the edge's peer from the price of its origin.
func (e edge) derive(price decimal.Decimal) decimal.Decimal {
	return price.Mul(e.from).DivRound(e.to, Scale)
}
