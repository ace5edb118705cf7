package inbound

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks inbound dispatch activity.
type Metrics struct {
	MessagesHandled  *prometheus.CounterVec
	MessagesRejected *prometheus.CounterVec
}

// NewMetrics registers inbound metrics against reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MessagesHandled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clustercore",
			Subsystem: "inbound",
			Name:      "messages_handled_total",
			Help:      "Total inbound messages applied, by wire method.",
		}, []string{"method"}),
		MessagesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clustercore",
			Subsystem: "inbound",
			Name:      "messages_rejected_total",
			Help:      "Total inbound messages rejected, by wire method and reason.",
		}, []string{"method", "reason"}),
	}
}
