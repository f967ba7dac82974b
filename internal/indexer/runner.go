package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"forgedex/internal/model"
	"forgedex/internal/pools"
	"forgedex/internal/pricing"
	"forgedex/internal/refprice"
	"forgedex/internal/storage"
)

// PoolSource provides a full pool set.
type PoolSource interface {
	LoadPools(ctx context.Context) (pools.Set, error)
}

// PriceSource provides the native asset's USD price.
type PriceSource interface {
	Fetch(ctx context.Context) (decimal.Decimal, error)
}

// RunConfig holds runtime settings for the refresh runner.
type RunConfig struct {
	NativeAsset  string
	HopPricing   bool
	Interval     time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// Dependencies are the runner's collaborators. Prices, Storage, Checkpoint
// and Cache are optional.
type Dependencies struct {
	Pools      PoolSource
	Prices     PriceSource
	Storage    storage.Storage
	Checkpoint CheckpointStore
	Cache      *pricing.Cache
}

// Runner periodically rebuilds the pool set, prices it and persists the
// resulting snapshot.
type Runner struct {
	cfg    RunConfig
	deps   Dependencies
	logger *zap.Logger
	latest atomic.Pointer[model.Snapshot]
	now    func() time.Time
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, deps Dependencies, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NativeAsset == "" {
		cfg.NativeAsset = model.NativeAssetHash
	}
	return &Runner{cfg: cfg, deps: deps, logger: logger, now: time.Now}
}

// Latest returns the most recent snapshot, or nil before the first refresh.
func (r *Runner) Latest() *model.Snapshot {
	return r.latest.Load()
}

// Run refreshes once when no interval is configured, otherwise on every tick
// until ctx ends. Failed refreshes inside the loop are logged and retried on
// the next tick.
func (r *Runner) Run(ctx context.Context) error {
	if r.deps.Pools == nil {
		return fmt.Errorf("pool source is nil")
	}
	if r.cfg.Interval <= 0 {
		_, err := r.RefreshOnce(ctx)
		return err
	}

	if _, err := r.RefreshOnce(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Error("refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if _, err := r.RefreshOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Error("refresh failed", zap.Error(err))
		}
	}
}

// RefreshOnce loads pools and the reference price, derives prices and stores
// a snapshot unless the checkpoint shows identical inputs. The snapshot is
// published as Latest either way.
func (r *Runner) RefreshOnce(ctx context.Context) (model.Snapshot, error) {
	if r.deps.Pools == nil {
		return model.Snapshot{}, fmt.Errorf("pool source is nil")
	}
	start := time.Now()
	defer func() { refreshDuration.Observe(time.Since(start).Seconds()) }()

	snap, err := r.refresh(ctx)
	if err != nil {
		refreshTotal.WithLabelValues("failed").Inc()
		return model.Snapshot{}, err
	}
	return snap, nil
}

func (r *Runner) refresh(ctx context.Context) (model.Snapshot, error) {
	set, err := r.loadPoolsWithRetry(ctx)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("load pools: %w", err)
	}

	ref, err := r.fetchPriceWithRetry(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return model.Snapshot{}, ctx.Err()
		}
		r.logger.Warn("reference price unavailable, prices left empty", zap.Error(err))
	}

	version := pools.Version(set.Pools)
	opts := pricing.Options{HopPricing: r.cfg.HopPricing, NativeAsset: r.cfg.NativeAsset}
	res, hit := r.deps.Cache.Discover(version, set.Pools, ref, opts)
	if hit {
		priceCacheHits.Inc()
	}

	snap := model.Snapshot{
		ID:         uuid.NewString(),
		Version:    version,
		TakenAt:    r.now().UTC(),
		RefPrice:   ref,
		HopPricing: r.cfg.HopPricing,
		Assets:     set.Assets,
		Pools:      set.Pools,
		Prices:     res.Prices,
		Sources:    res.Sources,
		TVL:        res.TVL,
	}
	cp := Checkpoint{
		Version:    version,
		RefPrice:   refString(ref),
		HopPricing: r.cfg.HopPricing,
		SnapshotID: snap.ID,
	}

	stored, err := r.persist(ctx, snap, cp)
	if err != nil {
		return model.Snapshot{}, err
	}

	r.latest.Store(&snap)
	pricedAssets.Set(float64(len(snap.Prices)))
	poolCount.Set(float64(len(snap.Pools)))

	status := "unchanged"
	if stored {
		status = "stored"
	}
	refreshTotal.WithLabelValues(status).Inc()
	r.logger.Info("refresh complete",
		zap.String("status", status),
		zap.String("snapshot_id", snap.ID),
		zap.String("version", version),
		zap.String("ref_price", cp.RefPrice),
		zap.Int("pools", len(snap.Pools)),
		zap.Int("priced_assets", len(snap.Prices)),
	)
	return snap, nil
}

func (r *Runner) persist(ctx context.Context, snap model.Snapshot, cp Checkpoint) (bool, error) {
	if r.deps.Checkpoint != nil {
		prev, ok, err := r.deps.Checkpoint.Load(ctx)
		if err != nil {
			return false, err
		}
		if ok && prev.Same(cp) {
			return false, nil
		}
	}

	if r.deps.Storage != nil {
		if err := r.deps.Storage.PutSnapshot(ctx, snap); err != nil {
			return false, fmt.Errorf("store snapshot: %w", err)
		}
	}
	if r.deps.Checkpoint != nil {
		if err := r.deps.Checkpoint.Save(ctx, cp); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (r *Runner) retry(source string) retryPolicy {
	return retryPolicy{
		maxRetries: r.cfg.MaxRetries,
		baseDelay:  r.cfg.RetryBackoff,
		onRetry: func(attempt int, delay time.Duration, err error) {
			retryTotal.WithLabelValues(source).Inc()
			r.logger.Warn("retrying", zap.String("source", source), zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))
		},
	}
}

func (r *Runner) loadPoolsWithRetry(ctx context.Context) (pools.Set, error) {
	var set pools.Set
	err := r.retry("pools").do(ctx, func(ctx context.Context) error {
		var err error
		set, err = r.deps.Pools.LoadPools(ctx)
		return err
	})
	return set, err
}

func (r *Runner) fetchPriceWithRetry(ctx context.Context) (*decimal.Decimal, error) {
	if r.deps.Prices == nil {
		return nil, errors.New("no reference price source")
	}
	var price decimal.Decimal
	err := r.retry("ref_price").do(ctx, func(ctx context.Context) error {
		var err error
		price, err = r.deps.Prices.Fetch(ctx)
		if errors.Is(err, refprice.ErrPriceUnavailable) {
			return permanent(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &price, nil
}

func refString(ref *decimal.Decimal) string {
	if ref == nil {
		return ""
	}
	return ref.String()
}
