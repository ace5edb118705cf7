package objectconfig

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks object-config create/delete activity.
type Metrics struct {
	CreatesTotal     *prometheus.CounterVec
	DeletesTotal     *prometheus.CounterVec
	PipelineFailures prometheus.Counter
}

// NewMetrics registers objectconfig metrics against reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CreatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clustercore",
			Subsystem: "objectconfig",
			Name:      "creates_total",
			Help:      "Total CreateObject calls, by outcome.",
		}, []string{"outcome"}),
		DeletesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clustercore",
			Subsystem: "objectconfig",
			Name:      "deletes_total",
			Help:      "Total DeleteObject calls, by outcome.",
		}, []string{"outcome"}),
		PipelineFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "clustercore",
			Subsystem: "objectconfig",
			Name:      "pipeline_failures_total",
			Help:      "Total compile/evaluate/commit/activate pipeline failures.",
		}),
	}
}
