package snapshot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks snapshot dump/restore activity.
type Metrics struct {
	DumpsTotal     prometheus.Counter
	RestoresTotal  prometheus.Counter
	RecordsWritten prometheus.Counter
	RecordsRead    prometheus.Counter
}

// NewMetrics registers snapshot metrics against reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DumpsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "clustercore",
			Subsystem: "snapshot",
			Name:      "dumps_total",
			Help:      "Total number of DumpObjects runs.",
		}),
		RestoresTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "clustercore",
			Subsystem: "snapshot",
			Name:      "restores_total",
			Help:      "Total number of RestoreObjects runs.",
		}),
		RecordsWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "clustercore",
			Subsystem: "snapshot",
			Name:      "records_written_total",
			Help:      "Total number of object records written across all dumps.",
		}),
		RecordsRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "clustercore",
			Subsystem: "snapshot",
			Name:      "records_read_total",
			Help:      "Total number of object records read across all restores.",
		}),
	}
}
