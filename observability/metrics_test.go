package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveClassifiesOutcomes(t *testing.T) {
	m := ModuleMetrics()

	m.Observe("marketplace", "buyItem", 0, time.Millisecond)
	m.Observe("marketplace", "buyItem", -32033, time.Millisecond)
	m.Observe("marketplace", "buyItem", -32602, time.Millisecond)

	require.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("marketplace", "buyItem", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("marketplace", "buyItem", "revert")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("marketplace", "buyItem", "error")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.reverts.WithLabelValues("marketplace", "buyItem", "value")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("marketplace", "buyItem", "-32602")))
}

func TestRecordThrottleDefaults(t *testing.T) {
	m := ModuleMetrics()
	before := testutil.ToFloat64(m.throttles.WithLabelValues("unknown", "unspecified"))
	m.RecordThrottle("", "")
	require.Equal(t, before+1, testutil.ToFloat64(m.throttles.WithLabelValues("unknown", "unspecified")))
}

func TestRecordEventUsesModulePrefix(t *testing.T) {
	e := Events()
	before := testutil.ToFloat64(e.emitted.WithLabelValues("auction"))
	e.RecordEvent("auction.bid_placed")
	require.Equal(t, before+1, testutil.ToFloat64(e.emitted.WithLabelValues("auction")))

	dropped := testutil.ToFloat64(e.dropped)
	e.RecordDropped(0)
	e.RecordDropped(3)
	require.Equal(t, dropped+3, testutil.ToFloat64(e.dropped))
}
