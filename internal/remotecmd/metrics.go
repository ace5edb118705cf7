package remotecmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the runner's counter set, registered against an explicit
// prometheus.Registry (promauto.With) rather than the global default.
type Metrics struct {
	CommandsExecuted *prometheus.CounterVec
	CommandsRefused  *prometheus.CounterVec
}

// NewMetrics builds and registers Metrics against reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		CommandsExecuted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clustercore",
			Subsystem: "remotecmd",
			Name:      "commands_executed_total",
			Help:      "Remote commands that ran against the check engine, by command type.",
		}, []string{"type"}),
		CommandsRefused: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clustercore",
			Subsystem: "remotecmd",
			Name:      "commands_refused_total",
			Help:      "ExecuteCommand requests answered with a synthetic result, by reason.",
		}, []string{"reason"}),
	}
}
