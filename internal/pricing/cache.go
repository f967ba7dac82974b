package pricing

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shopspring/decimal"

	"forgedex/internal/model"
)

const DefaultCacheSize = 64

// Cache memoizes Discover results by (pool-set version, reference price, hop
// flag). It is owned by the caller and invalidated explicitly with Purge.
// Cached results are shared and must not be mutated.
type Cache struct {
	entries *lru.Cache[string, Result]
}

func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, Result](size)
	if err != nil {
		return nil, fmt.Errorf("create price cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Discover returns the cached result for the key or computes and stores it.
// hit reports whether the result came from the cache.
func (c *Cache) Discover(version string, pools []model.Pool, refPrice *decimal.Decimal, opts Options) (res Result, hit bool) {
	if c == nil || version == "" {
		return Discover(pools, refPrice, opts), false
	}
	key := cacheKey(version, refPrice, opts)
	if res, ok := c.entries.Get(key); ok {
		return res, true
	}
	res = Discover(pools, refPrice, opts)
	c.entries.Add(key, res)
	return res, false
}

func (c *Cache) Purge() {
	if c == nil {
		return
	}
	c.entries.Purge()
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

func cacheKey(version string, refPrice *decimal.Decimal, opts Options) string {
	ref := "nil"
	if refPrice != nil {
		ref = refPrice.String()
	}
	return fmt.Sprintf("%s|%s|%t|%s", version, ref, opts.HopPricing, opts.NativeAsset)
}
