package rabbitclient

import (
	"github.com/jwillmer/easynetq/metric"
)

// connectionMetrics records connection lifecycle activity into the shared
// metric registry. All methods are nil-safe so instrumentation stays optional.
type connectionMetrics struct {
	metrics *metric.Metrics
}

// newConnectionMetrics binds a recorder to the registry's core metrics.
func newConnectionMetrics(registry *metric.MetricsRegistry) *connectionMetrics {
	if registry == nil {
		return nil
	}
	return &connectionMetrics{metrics: registry.CoreMetrics()}
}

func (m *connectionMetrics) recordCreated() {
	if m == nil {
		return
	}
	m.metrics.ConnectionsCreated.Inc()
	m.metrics.Connected.Set(1)
}

func (m *connectionMetrics) recordRecovered() {
	if m == nil {
		return
	}
	m.metrics.Recoveries.Inc()
	m.metrics.Connected.Set(1)
}

func (m *connectionMetrics) recordDisconnect() {
	if m == nil {
		return
	}
	m.metrics.Disconnects.Inc()
	m.metrics.Connected.Set(0)
}

func (m *connectionMetrics) recordBlocked(blocked bool) {
	if m == nil {
		return
	}
	if blocked {
		m.metrics.Blocked.Set(1)
	} else {
		m.metrics.Blocked.Set(0)
	}
}

func (m *connectionMetrics) recordClosed() {
	if m == nil {
		return
	}
	m.metrics.Connected.Set(0)
	m.metrics.ChannelsOpen.Set(0)
}

func (m *connectionMetrics) recordChannelCount(n int) {
	if m == nil {
		return
	}
	m.metrics.ChannelsOpen.Set(float64(n))
}

func (m *connectionMetrics) recordChannelReuse() {
	if m == nil {
		return
	}
	m.metrics.ChannelReuse.Inc()
}

func (m *connectionMetrics) recordError(operation string) {
	if m == nil {
		return
	}
	m.metrics.ErrorsTotal.WithLabelValues(operation).Inc()
}
