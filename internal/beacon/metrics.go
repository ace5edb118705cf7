package beacon

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks repository-beacon activity.
type Metrics struct {
	TicksTotal    prometheus.Counter
	HostsReported prometheus.Gauge
}

// NewMetrics registers beacon metrics against reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TicksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "clustercore",
			Subsystem: "beacon",
			Name:      "ticks_total",
			Help:      "Total repository-beacon ticks published.",
		}),
		HostsReported: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "clustercore",
			Subsystem: "beacon",
			Name:      "hosts_reported",
			Help:      "Number of hosts included in the last beacon tick.",
		}),
	}
}
