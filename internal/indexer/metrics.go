package indexer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forgedex_refresh_total",
			Help: "Snapshot refreshes by status",
		},
		[]string{"status"}, // stored, unchanged, failed
	)

	refreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forgedex_refresh_duration_seconds",
			Help:    "Duration of a snapshot refresh",
			Buckets: prometheus.DefBuckets,
		},
	)

	retryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forgedex_refresh_retries_total",
			Help: "Retried collaborator calls by source",
		},
		[]string{"source"}, // pools, ref_price
	)

	pricedAssets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "forgedex_priced_assets",
			Help: "Assets with a USD price in the latest snapshot",
		},
	)

	poolCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "forgedex_pools",
			Help: "Pools in the latest snapshot",
		},
	)

	priceCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forgedex_price_cache_hits_total",
			Help: "Price discoveries served from the result cache",
		},
	)
)
