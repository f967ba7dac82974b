package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"forgedex/internal/amm"
	"forgedex/internal/model"
	"forgedex/internal/pricing"
	"forgedex/internal/router"
)

var (
	ErrNoSnapshot   = errors.New("no snapshot available yet")
	ErrPoolNotFound = errors.New("pool not found")
)

// SnapshotSource returns the latest published snapshot, or nil.
type SnapshotSource interface {
	Latest() *model.Snapshot
}

// Service implements the dex JSON-RPC namespace over the latest snapshot.
// Amounts in arguments and results are display units unless a field name says
// otherwise.
type Service struct {
	source  SnapshotSource
	builder *router.Builder
}

// NewService builds the dex service. A non-empty routerContract attaches
// invocation payloads to quotes.
func NewService(source SnapshotSource, routerContract string, maxGas uint64) *Service {
	svc := &Service{source: source}
	if routerContract != "" {
		b := router.NewBuilder(routerContract, maxGas)
		svc.builder = &b
	}
	return svc
}

func (s *Service) latest() (*model.Snapshot, error) {
	if s.source == nil {
		return nil, ErrNoSnapshot
	}
	snap := s.source.Latest()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

type PricesResult struct {
	SnapshotID string                       `json:"snapshot_id"`
	Version    string                       `json:"version"`
	TakenAt    time.Time                    `json:"taken_at"`
	RefPrice   *decimal.Decimal             `json:"ref_price"`
	HopPricing bool                         `json:"hop_pricing"`
	Prices     map[string]decimal.Decimal   `json:"prices"`
	Sources    map[string]model.PriceSource `json:"sources"`
}

// Prices is dex_prices.
func (s *Service) Prices(ctx context.Context) (PricesResult, error) {
	snap, err := s.latest()
	if err != nil {
		return PricesResult{}, err
	}
	return PricesResult{
		SnapshotID: snap.ID,
		Version:    snap.Version,
		TakenAt:    snap.TakenAt,
		RefPrice:   snap.RefPrice,
		HopPricing: snap.HopPricing,
		Prices:     snap.Prices,
		Sources:    snap.Sources,
	}, nil
}

type PoolView struct {
	model.Pool
	Name string        `json:"name"`
	TVL  model.PoolTVL `json:"tvl"`
}

// Pools is dex_pools. lpBalances maps LP asset hashes to the caller's atomic
// LP balance and fills each pool's user share.
func (s *Service) Pools(ctx context.Context, lpBalances *map[string]decimal.Decimal) ([]PoolView, error) {
	snap, err := s.latest()
	if err != nil {
		return nil, err
	}
	out := make([]PoolView, 0, len(snap.Pools))
	for _, p := range snap.Pools {
		view := PoolView{Pool: p, Name: p.Name(), TVL: snap.TVL[p.Key]}
		if lpBalances != nil {
			if bal, ok := (*lpBalances)[p.LPAsset]; ok {
				share := amm.PoolShare(bal, p.TotalLPSupply)
				view.UserShare = &share
			}
		}
		out = append(out, view)
	}
	return out, nil
}

type SwapQuoteArgs struct {
	TokenIn  string           `json:"token_in"`
	TokenOut string           `json:"token_out"`
	AmountIn decimal.Decimal  `json:"amount_in"`
	Slippage *decimal.Decimal `json:"slippage,omitempty"`
}

type SwapQuoteResult struct {
	PoolKey         string              `json:"pool_key"`
	AmountIn        decimal.Decimal     `json:"amount_in"`
	AmountOut       decimal.Decimal     `json:"amount_out"`
	AmountOutMin    decimal.Decimal     `json:"amount_out_min"`
	PriceImpact     decimal.Decimal     `json:"price_impact"`
	AmountInAtomic  decimal.Decimal     `json:"amount_in_atomic"`
	AmountOutAtomic decimal.Decimal     `json:"amount_out_atomic"`
	Transaction     *router.Transaction `json:"transaction,omitempty"`
}

// SwapQuote is dex_swapQuote.
func (s *Service) SwapQuote(ctx context.Context, args SwapQuoteArgs) (SwapQuoteResult, error) {
	snap, err := s.latest()
	if err != nil {
		return SwapQuoteResult{}, err
	}
	pool, err := findPool(snap, args.TokenIn, args.TokenOut)
	if err != nil {
		return SwapQuoteResult{}, err
	}
	reserveIn, reserveOut, decIn, decOut, _ := pool.Oriented(args.TokenIn)

	slippage := amm.DefaultSlippagePercent
	if args.Slippage != nil {
		slippage = *args.Slippage
	}
	amountIn := amm.ToAtomic(args.AmountIn, decIn)
	quote := amm.CalculateSwapOutput(amountIn, reserveIn, reserveOut, slippage)

	res := SwapQuoteResult{
		PoolKey:         pool.Key,
		AmountIn:        amm.FromAtomic(amountIn, decIn),
		AmountOut:       amm.FromAtomic(quote.AmountOut.Floor(), decOut),
		AmountOutMin:    amm.FromAtomic(quote.AmountOutMin.Floor(), decOut),
		PriceImpact:     quote.PriceImpact,
		AmountInAtomic:  amountIn,
		AmountOutAtomic: quote.AmountOut.Floor(),
	}
	if s.builder != nil && !quote.IsZero() {
		tx, err := s.builder.Swap(args.TokenIn, args.TokenOut, amountIn, quote.AmountOutMin)
		if err != nil {
			return SwapQuoteResult{}, err
		}
		res.Transaction = &tx
	}
	return res, nil
}

type SwapInputArgs struct {
	TokenIn   string          `json:"token_in"`
	TokenOut  string          `json:"token_out"`
	AmountOut decimal.Decimal `json:"amount_out"`
}

type SwapInputResult struct {
	PoolKey        string          `json:"pool_key"`
	AmountIn       decimal.Decimal `json:"amount_in"`
	AmountInAtomic decimal.Decimal `json:"amount_in_atomic"`
}

// SwapInput is dex_swapInput.
func (s *Service) SwapInput(ctx context.Context, args SwapInputArgs) (SwapInputResult, error) {
	snap, err := s.latest()
	if err != nil {
		return SwapInputResult{}, err
	}
	pool, err := findPool(snap, args.TokenIn, args.TokenOut)
	if err != nil {
		return SwapInputResult{}, err
	}
	reserveIn, reserveOut, decIn, decOut, _ := pool.Oriented(args.TokenIn)

	amountIn := amm.CalculateSwapInput(amm.ToAtomic(args.AmountOut, decOut), reserveIn, reserveOut)
	return SwapInputResult{
		PoolKey:        pool.Key,
		AmountIn:       amm.FromAtomic(amountIn, decIn),
		AmountInAtomic: amountIn,
	}, nil
}

type AddLiquidityArgs struct {
	TokenA  string          `json:"token_a"`
	TokenB  string          `json:"token_b"`
	AmountA decimal.Decimal `json:"amount_a"`
	AmountB decimal.Decimal `json:"amount_b"`
}

type AddLiquidityResult struct {
	PoolKey     string                   `json:"pool_key,omitempty"`
	Estimate    amm.AddLiquidityEstimate `json:"estimate"`
	LPTokens    decimal.Decimal          `json:"lp_tokens"`
	Transaction *router.Transaction      `json:"transaction,omitempty"`
}

// AddLiquidity is dex_addLiquidity. A pair without a pool is estimated as a
// first deposit.
func (s *Service) AddLiquidity(ctx context.Context, args AddLiquidityArgs) (AddLiquidityResult, error) {
	snap, err := s.latest()
	if err != nil {
		return AddLiquidityResult{}, err
	}
	if args.TokenA == args.TokenB {
		return AddLiquidityResult{}, fmt.Errorf("add liquidity: identical assets %s", args.TokenA)
	}
	depositA := amm.ToAtomic(args.AmountA, snap.Asset(args.TokenA).Decimals)
	depositB := amm.ToAtomic(args.AmountB, snap.Asset(args.TokenB).Decimals)

	var res AddLiquidityResult
	pool, ok := snap.Index().Lookup(args.TokenA, args.TokenB)
	if ok {
		reserveA, reserveB, _, _, _ := pool.Oriented(args.TokenA)
		res.PoolKey = pool.Key
		res.Estimate = amm.EstimateAddLiquidity(depositA, depositB, &amm.PoolReserves{
			ReserveA:      reserveA,
			ReserveB:      reserveB,
			TotalLPSupply: pool.TotalLPSupply,
		})
	} else {
		res.Estimate = amm.EstimateAddLiquidity(depositA, depositB, nil)
	}
	res.LPTokens = amm.FromAtomic(res.Estimate.LPTokens, amm.LPDecimals)

	if s.builder != nil && res.Estimate.LPTokens.IsPositive() {
		tx, err := s.builder.AddLiquidity(args.TokenA, args.TokenB, depositA, depositB)
		if err != nil {
			return AddLiquidityResult{}, err
		}
		res.Transaction = &tx
	}
	return res, nil
}

type RemoveLiquidityArgs struct {
	TokenA     string          `json:"token_a"`
	TokenB     string          `json:"token_b"`
	LPBalance  decimal.Decimal `json:"lp_balance"`
	Percentage decimal.Decimal `json:"percentage"`
}

type RemoveLiquidityResult struct {
	PoolKey     string              `json:"pool_key"`
	Percentage  decimal.Decimal     `json:"percentage"`
	LPToBurn    decimal.Decimal     `json:"lp_to_burn"`
	AmountA     decimal.Decimal     `json:"amount_a"`
	AmountB     decimal.Decimal     `json:"amount_b"`
	Transaction *router.Transaction `json:"transaction,omitempty"`
}

// RemoveLiquidity is dex_removeLiquidity. Amounts follow the argument order,
// not the pool's.
func (s *Service) RemoveLiquidity(ctx context.Context, args RemoveLiquidityArgs) (RemoveLiquidityResult, error) {
	snap, err := s.latest()
	if err != nil {
		return RemoveLiquidityResult{}, err
	}
	pool, err := findPool(snap, args.TokenA, args.TokenB)
	if err != nil {
		return RemoveLiquidityResult{}, err
	}
	reserveA, reserveB, decA, decB, _ := pool.Oriented(args.TokenA)

	lpBalance := amm.ToAtomic(args.LPBalance, amm.LPDecimals)
	est := amm.EstimateRemoveLiquidity(lpBalance, args.Percentage, [2]decimal.Decimal{reserveA, reserveB}, pool.TotalLPSupply)

	res := RemoveLiquidityResult{
		PoolKey:    pool.Key,
		Percentage: est.Percentage,
		LPToBurn:   amm.FromAtomic(est.LPToBurn, amm.LPDecimals),
		AmountA:    amm.FromAtomic(est.Amounts[0].Floor(), decA),
		AmountB:    amm.FromAtomic(est.Amounts[1].Floor(), decB),
	}
	if s.builder != nil && est.LPToBurn.IsPositive() {
		tx, err := s.builder.RemoveLiquidity(pool.LPAsset, est.LPToBurn)
		if err != nil {
			return RemoveLiquidityResult{}, err
		}
		res.Transaction = &tx
	}
	return res, nil
}

type UsdToAmountResult struct {
	Asset  string          `json:"asset"`
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
	Priced bool            `json:"priced"`
}

// UsdToAmount is dex_usdToAmount. An unpriced asset yields a zero amount.
func (s *Service) UsdToAmount(ctx context.Context, asset string, usd decimal.Decimal) (UsdToAmountResult, error) {
	snap, err := s.latest()
	if err != nil {
		return UsdToAmountResult{}, err
	}
	price, ok := snap.Prices[asset]
	if !ok {
		return UsdToAmountResult{Asset: asset, Price: decimal.Zero, Amount: decimal.Zero}, nil
	}
	decimals := int32(snap.Asset(asset).Decimals)
	return UsdToAmountResult{
		Asset:  asset,
		Price:  price,
		Amount: pricing.AmountForUSD(usd, price).Truncate(decimals),
		Priced: true,
	}, nil
}

func findPool(snap *model.Snapshot, a, b string) (model.Pool, error) {
	if a == b {
		return model.Pool{}, fmt.Errorf("%w: identical assets %s", ErrPoolNotFound, a)
	}
	pool, ok := snap.Index().Lookup(a, b)
	if !ok {
		return model.Pool{}, fmt.Errorf("%w: %s/%s", ErrPoolNotFound, a, b)
	}
	return pool, nil
}
