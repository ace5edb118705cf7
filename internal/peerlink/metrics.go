package peerlink

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks peer-link transport activity.
type Metrics struct {
	FramesReceived *prometheus.CounterVec
	FramesSent     *prometheus.CounterVec
}

// NewMetrics registers peer-link metrics against reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FramesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clustercore",
			Subsystem: "peerlink",
			Name:      "frames_received_total",
			Help:      "Total JSON-RPC frames received, by sending endpoint.",
		}, []string{"endpoint"}),
		FramesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clustercore",
			Subsystem: "peerlink",
			Name:      "frames_sent_total",
			Help:      "Total JSON-RPC frames sent, by wire method.",
		}, []string{"method"}),
	}
}
