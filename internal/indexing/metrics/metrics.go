package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RPCCallsTotal tracks upstream RPC calls per provider and method
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_rpc_calls_total",
			Help: "Total number of upstream RPC calls",
		},
		[]string{"provider", "method"},
	)

	// RPCErrorsTotal tracks upstream RPC errors per provider and error class
	RPCErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_rpc_errors_total",
			Help: "Total number of upstream RPC errors",
		},
		[]string{"provider", "error_type"},
	)

	// RPCLatency tracks upstream RPC call latency
	RPCLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oracle_rpc_latency_seconds",
			Help:    "Upstream RPC call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "method"},
	)

	// CacheLookups tracks block stats cache lookups by result (hit, miss)
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_cache_lookups_total",
			Help: "Total number of block stats cache lookups",
		},
		[]string{"result"},
	)

	// CacheEntries tracks the number of entries held by the block stats cache
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "oracle_cache_entries",
			Help: "Number of entries in the block stats cache",
		},
	)

	// CacheEvictions tracks entries dropped to stay within capacity
	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "oracle_cache_evictions_total",
			Help: "Total number of evicted cache entries",
		},
	)

	// CacheFlushes tracks backend flushes by result (ok, error)
	CacheFlushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_cache_flushes_total",
			Help: "Total number of cache flushes to the backend",
		},
		[]string{"backend", "result"},
	)

	// JobRuns tracks job runs by outcome (success, failure)
	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_job_runs_total",
			Help: "Total number of oracle update job runs",
		},
		[]string{"outcome"},
	)

	// JobDuration tracks the wall time of a job run
	JobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "oracle_job_duration_seconds",
			Help:    "Oracle update job duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	// OnchainUpdates tracks oracle writes by oracle and result (updated, skipped)
	OnchainUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_onchain_updates_total",
			Help: "Total number of on-chain oracle update decisions",
		},
		[]string{"oracle", "result"},
	)

	// ChainLatestBlock tracks the Bitcoin tip height seen by the last run
	ChainLatestBlock = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "oracle_bitcoin_latest_block",
			Help: "Latest Bitcoin block height used for the index",
		},
	)

	// HashesForBTC tracks the last computed hashes-for-BTC value (lossy float)
	HashesForBTC = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "oracle_hashes_for_btc",
			Help: "Last computed number of hashes required to earn one BTC",
		},
	)
)
