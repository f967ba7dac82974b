package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forgedex/internal/model"
)

func TestCacheKeyedByVersionAndPrice(t *testing.T) {
	cache, err := NewCache(4)
	require.NoError(t, err)

	pools := []model.Pool{pool(native, "A", "10", "5")}
	opts := Options{HopPricing: true}

	first, hit := cache.Discover("v1", pools, ref("2"), opts)
	assert.False(t, hit)
	assertPrice(t, first, "A", "4")

	_, hit = cache.Discover("v1", pools, ref("2.00"), opts)
	assert.True(t, hit, "equal prices share a key")

	moved, hit := cache.Discover("v1", pools, ref("2.01"), opts)
	assert.False(t, hit)
	assertPrice(t, moved, "A", "4.02")

	again, hit := cache.Discover("v1", pools, ref("2"), opts)
	assert.True(t, hit)
	assert.Equal(t, first, again)

	_, hit = cache.Discover("v1", pools, ref("2"), Options{HopPricing: false})
	assert.False(t, hit)

	_, hit = cache.Discover("v2", pools, ref("2"), opts)
	assert.False(t, hit)
	assert.Equal(t, 4, cache.Len())

	cache.Purge()
	assert.Equal(t, 0, cache.Len())
	_, hit = cache.Discover("v1", pools, ref("2"), opts)
	assert.False(t, hit)
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache, err := NewCache(1)
	require.NoError(t, err)
	pools := []model.Pool{pool(native, "A", "10", "5")}

	cache.Discover("v1", pools, ref("1"), Options{})
	cache.Discover("v2", pools, ref("1"), Options{})
	_, hit := cache.Discover("v1", pools, ref("1"), Options{})
	assert.False(t, hit)
}

func TestNilCacheComputes(t *testing.T) {
	var cache *Cache
	res, hit := cache.Discover("v1", []model.Pool{pool(native, "A", "10", "5")}, ref("2"), Options{})
	assert.False(t, hit)
	assertPrice(t, res, "A", "4")
	assert.Equal(t, 0, cache.Len())
}
