package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"forgedex/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS assets (
	hash       TEXT PRIMARY KEY,
	ticker     TEXT NOT NULL,
	name       TEXT NOT NULL,
	decimals   SMALLINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS pools (
	pool_key        TEXT PRIMARY KEY,
	lp_asset        TEXT NOT NULL,
	asset_a         TEXT NOT NULL,
	asset_b         TEXT NOT NULL,
	reserve_a       NUMERIC NOT NULL,
	reserve_b       NUMERIC NOT NULL,
	total_lp_supply NUMERIC NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS snapshots (
	id          UUID PRIMARY KEY,
	version     TEXT NOT NULL,
	taken_at    TIMESTAMPTZ NOT NULL,
	ref_price   NUMERIC,
	hop_pricing BOOLEAN NOT NULL
);
CREATE TABLE IF NOT EXISTS asset_prices (
	snapshot_id    UUID NOT NULL REFERENCES snapshots (id) ON DELETE CASCADE,
	asset          TEXT NOT NULL,
	price          NUMERIC NOT NULL,
	method         TEXT NOT NULL,
	hops           INTEGER NOT NULL,
	raw_count      INTEGER NOT NULL,
	filtered_count INTEGER NOT NULL,
	PRIMARY KEY (snapshot_id, asset)
);
CREATE TABLE IF NOT EXISTS pool_tvls (
	snapshot_id UUID NOT NULL REFERENCES snapshots (id) ON DELETE CASCADE,
	pool_key    TEXT NOT NULL,
	tvl_usd     NUMERIC NOT NULL,
	priced      BOOLEAN NOT NULL,
	PRIMARY KEY (snapshot_id, pool_key)
);
CREATE TABLE IF NOT EXISTS runner_state (
	name       TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for pools, prices and runner state.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutSnapshot stores the snapshot's assets, pools, prices and TVLs in one
// transaction.
func (s *Store) PutSnapshot(ctx context.Context, snapshot model.Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	queueAssets(batch, snapshot.Assets)
	queuePools(batch, snapshot.Pools)
	queueSnapshot(batch, snapshot)
	if err := sendBatch(ctx, tx, batch); err != nil {
		return fmt.Errorf("store snapshot %s: %w", snapshot.ID, err)
	}
	return tx.Commit(ctx)
}

// UpsertAssets inserts or updates asset metadata.
func (s *Store) UpsertAssets(ctx context.Context, assets map[string]model.Asset) error {
	batch := &pgx.Batch{}
	queueAssets(batch, assets)
	return sendBatch(ctx, s.pool, batch)
}

// UpsertPools inserts or updates pool state.
func (s *Store) UpsertPools(ctx context.Context, pools []model.Pool) error {
	batch := &pgx.Batch{}
	queuePools(batch, pools)
	return sendBatch(ctx, s.pool, batch)
}

// InsertSnapshot stores a snapshot row with its prices and TVLs.
func (s *Store) InsertSnapshot(ctx context.Context, snapshot model.Snapshot) error {
	batch := &pgx.Batch{}
	queueSnapshot(batch, snapshot)
	return sendBatch(ctx, s.pool, batch)
}

type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func sendBatch(ctx context.Context, conn batchSender, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	br := conn.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return br.Close()
}

func queueAssets(batch *pgx.Batch, assets map[string]model.Asset) {
	for _, asset := range assets {
		batch.Queue(`
			INSERT INTO assets (hash, ticker, name, decimals, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
			ON CONFLICT (hash)
			DO UPDATE SET
				ticker = EXCLUDED.ticker,
				name = EXCLUDED.name,
				decimals = EXCLUDED.decimals,
				updated_at = now()
		`,
			asset.Hash,
			asset.Ticker,
			asset.Name,
			int16(asset.Decimals),
		)
	}
}

func queuePools(batch *pgx.Batch, pools []model.Pool) {
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (
				pool_key, lp_asset, asset_a, asset_b, reserve_a, reserve_b, total_lp_supply, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
			ON CONFLICT (pool_key)
			DO UPDATE SET
				lp_asset = EXCLUDED.lp_asset,
				reserve_a = EXCLUDED.reserve_a,
				reserve_b = EXCLUDED.reserve_b,
				total_lp_supply = EXCLUDED.total_lp_supply,
				updated_at = now()
		`,
			pool.Key,
			pool.LPAsset,
			pool.Hashes[0],
			pool.Hashes[1],
			pool.ReservesAtomic[0],
			pool.ReservesAtomic[1],
			pool.TotalLPSupply,
		)
	}
}

func queueSnapshot(batch *pgx.Batch, snapshot model.Snapshot) {
	var refPrice any
	if snapshot.RefPrice != nil {
		refPrice = *snapshot.RefPrice
	}
	batch.Queue(`
		INSERT INTO snapshots (id, version, taken_at, ref_price, hop_pricing)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`,
		snapshot.ID,
		snapshot.Version,
		snapshot.TakenAt,
		refPrice,
		snapshot.HopPricing,
	)

	for asset, price := range snapshot.Prices {
		src := snapshot.Sources[asset]
		batch.Queue(`
			INSERT INTO asset_prices (snapshot_id, asset, price, method, hops, raw_count, filtered_count)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (snapshot_id, asset)
			DO UPDATE SET
				price = EXCLUDED.price,
				method = EXCLUDED.method,
				hops = EXCLUDED.hops,
				raw_count = EXCLUDED.raw_count,
				filtered_count = EXCLUDED.filtered_count
		`,
			snapshot.ID,
			asset,
			price,
			string(src.Method),
			src.Hops,
			len(src.RawValues),
			len(src.FilteredValues),
		)
	}

	for key, tvl := range snapshot.TVL {
		batch.Queue(`
			INSERT INTO pool_tvls (snapshot_id, pool_key, tvl_usd, priced)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (snapshot_id, pool_key)
			DO UPDATE SET tvl_usd = EXCLUDED.tvl_usd, priced = EXCLUDED.priced
		`,
			snapshot.ID,
			key,
			tvl.Value,
			tvl.Priced,
		)
	}
}

// LoadState returns the stored value for a runner state name.
func (s *Store) LoadState(ctx context.Context, name string) (string, bool, error) {
	if name == "" {
		return "", false, fmt.Errorf("state name required")
	}
	var value string
	row := s.pool.QueryRow(ctx, `SELECT value FROM runner_state WHERE name=$1`, name)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// SaveState upserts the value for a runner state name.
func (s *Store) SaveState(ctx context.Context, name string, value string) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO runner_state (name, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET value = EXCLUDED.value, updated_at = now()
	`, name, value)
	return err
}
