package metrics

import (
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type MarketMetrics struct {
	calls       *prometheus.CounterVec
	callLatency *prometheus.HistogramVec
	settled     *prometheus.CounterVec
	sales       *prometheus.CounterVec
	bidsPlaced  prometheus.Counter
	collections prometheus.Counter
}

var (
	marketOnce     sync.Once
	marketRegistry *MarketMetrics
)

var weiPerEther = new(big.Float).SetFloat64(1e18)

func Market() *MarketMetrics {
	marketOnce.Do(func() {
		marketRegistry = &MarketMetrics{
			calls: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "nftmarket_calls_total",
				Help: "Count of executed calls by module, method and outcome.",
			}, []string{"module", "method", "outcome"}),
			callLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "nftmarket_call_duration_seconds",
				Help:    "Time spent executing a call, including commit.",
				Buckets: prometheus.DefBuckets,
			}, []string{"module"}),
			settled: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "nftmarket_settled_volume_ether",
				Help: "Gross value settled by completed sales, in ether.",
			}, []string{"module"}),
			sales: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "nftmarket_sales_total",
				Help: "Count of completed sales by module and kind.",
			}, []string{"module", "kind"}),
			bidsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "nftmarket_bids_placed_total",
				Help: "Count of accepted auction bids.",
			}),
			collections: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "nftmarket_collections_created_total",
				Help: "Count of collections created through the factory.",
			}),
		}
		prometheus.MustRegister(
			marketRegistry.calls,
			marketRegistry.callLatency,
			marketRegistry.settled,
			marketRegistry.sales,
			marketRegistry.bidsPlaced,
			marketRegistry.collections,
		)
	})
	return marketRegistry
}

func (m *MarketMetrics) ObserveCall(module, method string, err error, d time.Duration) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "committed"
	if err != nil {
		outcome = "reverted"
	}
	m.calls.WithLabelValues(module, method, outcome).Inc()
	m.callLatency.WithLabelValues(module).Observe(d.Seconds())
}

// RecordSale adds a settled gross amount for module. kind distinguishes
// fixed price buys, accepted offers and auction results.
func (m *MarketMetrics) RecordSale(module, kind string, gross *big.Int) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.sales.WithLabelValues(module, kind).Inc()
	if v := weiToEther(gross); v > 0 {
		m.settled.WithLabelValues(module).Add(v)
	}
}

func (m *MarketMetrics) RecordBid() {
	if m == nil {
		return
	}
	m.bidsPlaced.Inc()
}

func (m *MarketMetrics) RecordCollectionCreated() {
	if m == nil {
		return
	}
	m.collections.Inc()
}

func weiToEther(value *big.Int) float64 {
	if value == nil || value.Sign() <= 0 {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(value), weiPerEther).Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
