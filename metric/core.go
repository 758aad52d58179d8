package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the client-level metrics every consumer of the library
// gets for free once it wires a registry in.
type Metrics struct {
	// Connection lifecycle
	Connected          prometheus.Gauge
	ConnectionsCreated prometheus.Counter
	Recoveries         prometheus.Counter
	Disconnects        prometheus.Counter
	Blocked            prometheus.Gauge

	// Channel pool
	ChannelsOpen prometheus.Gauge
	ChannelReuse prometheus.Counter

	// Failures by operation
	ErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all client metrics
func NewMetrics() *Metrics {
	return &Metrics{
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "easynetq",
			Subsystem: "connection",
			Name:      "connected",
			Help:      "Whether the broker connection is currently open (1) or not (0)",
		}),

		ConnectionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "easynetq",
			Subsystem: "connection",
			Name:      "created_total",
			Help:      "Total number of broker connections created",
		}),

		Recoveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "easynetq",
			Subsystem: "connection",
			Name:      "recoveries_total",
			Help:      "Total number of automatic connection recoveries",
		}),

		Disconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "easynetq",
			Subsystem: "connection",
			Name:      "disconnects_total",
			Help:      "Total number of connection shutdown notifications",
		}),

		Blocked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "easynetq",
			Subsystem: "connection",
			Name:      "blocked",
			Help:      "Whether the broker currently applies flow control (1) or not (0)",
		}),

		ChannelsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "easynetq",
			Subsystem: "channels",
			Name:      "open",
			Help:      "Number of channels currently tracked by the pool",
		}),

		ChannelReuse: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "easynetq",
			Subsystem: "channels",
			Name:      "reuse_total",
			Help:      "Times an existing channel was handed out because the pool was at capacity",
		}),

		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "easynetq",
			Subsystem: "client",
			Name:      "errors_total",
			Help:      "Total number of client operation errors",
		}, []string{"operation"}),
	}
}
