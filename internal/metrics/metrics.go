package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Quote metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_engine_quote_requests_total",
			Help: "Total number of quote requests",
		},
		[]string{"side", "status"},
	)

	QuoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quote_engine_quote_duration_seconds",
			Help:    "Quote request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"side"},
	)

	// Liquidity collection metrics
	SamplerDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quote_engine_sampler_duration_seconds",
		Help:    "Batched liquidity sampling duration in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	ZeroConversionRate = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_engine_zero_conversion_rate_total",
			Help: "Requests where a token-per-ETH conversion rate came back zero",
		},
		[]string{"token_side"},
	)

	DexSourcesSampled = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quote_engine_dex_sources_sampled",
		Help:    "Number of dex sources sampled per request",
		Buckets: []float64{1, 2, 5, 10, 20, 40, 70},
	})

	// Optimizer metrics
	OptimizerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quote_engine_optimizer_duration_seconds",
			Help:    "Path optimization duration in seconds",
			Buckets: []float64{0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.25},
		},
		[]string{"phase"},
	)

	OptimizerNoPath = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_engine_optimizer_no_path_total",
			Help: "Optimization rounds that produced no viable path",
		},
		[]string{"phase"},
	)

	PathFillCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quote_engine_path_fill_count",
		Help:    "Number of fills in the winning path",
		Buckets: []float64{1, 2, 3, 4, 5, 7, 10, 15},
	})

	// RFQ metrics
	RfqRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_engine_rfq_requests_total",
			Help: "Total number of RFQ round trips",
		},
		[]string{"kind", "status"},
	)

	RfqQuotesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_engine_rfq_quotes_received_total",
			Help: "Total number of RFQ quotes received from makers",
		},
		[]string{"kind"},
	)

	RfqQuotesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_engine_rfq_quotes_rejected_total",
			Help: "Firm RFQ quotes dropped by validation",
		},
		[]string{"reason"},
	)

	// Pool cache metrics
	PoolCacheRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_engine_pool_cache_refreshes_total",
			Help: "Background pool cache refresh attempts",
		},
		[]string{"source", "status"},
	)

	PoolCacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "quote_engine_pool_cache_size",
			Help: "Current number of cached pools per source",
		},
		[]string{"source"},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_engine_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quote_engine_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
