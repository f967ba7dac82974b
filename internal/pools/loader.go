// Package pools rebuilds the router's pool set from contract storage.
package pools

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"forgedex/internal/amm"
	"forgedex/internal/chain"
	"forgedex/internal/model"
	"forgedex/internal/xvm"
)

const (
	DefaultBatchSize   = 16
	DefaultConcurrency = 4
)

// Daemon is the subset of the daemon API the loader reads.
type Daemon interface {
	GetContractAssets(ctx context.Context, contract string) ([]string, error)
	GetContractData(ctx context.Context, contract string, key any) (chain.ContractData, error)
	GetAsset(ctx context.Context, hash string) (model.Asset, error)
	GetAssetSupply(ctx context.Context, hash string) (decimal.Decimal, error)
}

// Set is one full scan of the router.
type Set struct {
	Pools  []model.Pool
	Assets map[string]model.Asset
}

// LoaderConfig holds loader settings.
type LoaderConfig struct {
	Router      string
	NativeAsset string
	BatchSize   int
	Concurrency int
}

// Loader scans the router contract for pools.
type Loader struct {
	cfg    LoaderConfig
	daemon Daemon
	logger *zap.Logger
}

func NewLoader(cfg LoaderConfig, daemon Daemon, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NativeAsset == "" {
		cfg.NativeAsset = model.NativeAssetHash
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Loader{cfg: cfg, daemon: daemon, logger: logger}
}

// LoadPools reads every pool the router holds an LP asset for. Pools keep the
// contract's asset order. A pool that cannot be read is logged and skipped.
func (l *Loader) LoadPools(ctx context.Context) (Set, error) {
	if l.daemon == nil {
		return Set{}, fmt.Errorf("daemon client is nil")
	}
	if l.cfg.Router == "" {
		return Set{}, fmt.Errorf("router contract is required")
	}

	all, err := l.daemon.GetContractAssets(ctx, l.cfg.Router)
	if err != nil {
		return Set{}, fmt.Errorf("get router assets: %w", err)
	}
	lpIDs := make([]string, 0, len(all))
	for _, id := range all {
		if id == l.cfg.NativeAsset {
			continue
		}
		lpIDs = append(lpIDs, id)
	}

	batches, err := SplitBatches(len(lpIDs), l.cfg.BatchSize)
	if err != nil {
		return Set{}, err
	}

	loaded := make([]*model.Pool, len(lpIDs))
	for _, batch := range batches {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(l.cfg.Concurrency)
		for i := batch.From; i <= batch.To; i++ {
			g.Go(func() error {
				pool, err := l.loadPool(gctx, lpIDs[i])
				if err != nil {
					if ctxErr := gctx.Err(); ctxErr != nil {
						return ctxErr
					}
					l.logger.Warn("skip pool", zap.String("lp_asset", lpIDs[i]), zap.Error(err))
					return nil
				}
				loaded[i] = &pool
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Set{}, fmt.Errorf("load pools: %w", err)
		}
		l.logger.Debug("pool batch loaded", zap.Int("from", batch.From), zap.Int("to", batch.To))
	}

	set := Set{Pools: make([]model.Pool, 0, len(loaded)), Assets: make(map[string]model.Asset)}
	for _, p := range loaded {
		if p == nil {
			continue
		}
		set.Pools = append(set.Pools, *p)
		for i, hash := range p.Hashes {
			set.Assets[hash] = model.Asset{
				Hash:     hash,
				Ticker:   p.Tickers[i],
				Name:     p.Names[i],
				Decimals: p.Decimals[i],
			}
		}
	}
	l.logger.Info("pools loaded", zap.Int("lp_assets", len(lpIDs)), zap.Int("pools", len(set.Pools)))
	return set, nil
}

func (l *Loader) loadPool(ctx context.Context, lpID string) (model.Pool, error) {
	data, err := l.daemon.GetContractData(ctx, l.cfg.Router, xvm.HashParam(lpID))
	if err != nil {
		return model.Pool{}, fmt.Errorf("get pool data: %w", err)
	}
	reserves, err := xvm.ReserveMap(data.Data)
	if err != nil {
		return model.Pool{}, err
	}
	if len(reserves) != 2 {
		return model.Pool{}, fmt.Errorf("pool holds %d assets, want 2", len(reserves))
	}

	pool := model.Pool{
		Key:     model.PoolKey(reserves[0].Asset, reserves[1].Asset),
		LPAsset: lpID,
	}
	for i, r := range reserves {
		asset, err := l.daemon.GetAsset(ctx, r.Asset)
		if err != nil {
			return model.Pool{}, fmt.Errorf("get asset %s: %w", r.Asset, err)
		}
		atomic := decimal.NewFromBigInt(r.Amount.ToBig(), 0)
		pool.Hashes[i] = r.Asset
		pool.Tickers[i] = asset.Ticker
		pool.Names[i] = asset.Name
		pool.Decimals[i] = asset.Decimals
		pool.ReservesAtomic[i] = atomic
		pool.Reserves[i] = amm.FromAtomic(atomic, asset.Decimals)
	}

	supply, err := l.daemon.GetAssetSupply(ctx, lpID)
	if err != nil {
		return model.Pool{}, fmt.Errorf("get lp supply: %w", err)
	}
	pool.TotalLPSupply = supply
	return pool, nil
}
