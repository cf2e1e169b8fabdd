package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type eventMetrics struct {
	emitted *prometheus.CounterVec
	dropped prometheus.Counter
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking committed module events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nftmarket",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Count of committed events segmented by module.",
			}, []string{"module"}),
			dropped: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "nftmarket",
				Subsystem: "events",
				Name:      "stream_dropped_total",
				Help:      "Events dropped because a stream subscriber fell behind.",
			}),
		}
		prometheus.MustRegister(eventRegistry.emitted, eventRegistry.dropped)
	})
	return eventRegistry
}

// RecordEvent counts an event by the module prefix of its type
// ("marketplace.item_bought" counts under "marketplace").
func (m *eventMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	module := strings.TrimSpace(eventType)
	if idx := strings.IndexByte(module, '.'); idx > 0 {
		module = module[:idx]
	}
	if module == "" {
		module = "unknown"
	}
	m.emitted.WithLabelValues(module).Inc()
}

// RecordDropped counts events a slow stream subscriber never received.
func (m *eventMetrics) RecordDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.dropped.Add(float64(n))
}
