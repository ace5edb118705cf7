package outbound

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks outbound relay activity.
type Metrics struct {
	MessagesSent *prometheus.CounterVec
}

// NewMetrics registers outbound metrics against reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MessagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clustercore",
			Subsystem: "outbound",
			Name:      "messages_sent_total",
			Help:      "Total relayed messages, by wire method.",
		}, []string{"method"}),
	}
}
