package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks type-registry activity.
type Metrics struct {
	// TypesRegistered is the total number of type descriptors registered.
	TypesRegistered prometheus.Counter

	// ObjectsRegistered is the current number of live instances, by type.
	ObjectsRegistered *prometheus.GaugeVec

	// ValidateCacheHits/Misses track the name-validation LRU's hit rate.
	ValidateCacheHits   prometheus.Counter
	ValidateCacheMisses prometheus.Counter
}

// NewMetrics registers a fresh set of registry metrics against reg. Pass a
// dedicated prometheus.Registry in tests so repeated construction within a
// process does not collide with the global default registerer.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TypesRegistered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "clustercore",
			Subsystem: "registry",
			Name:      "types_registered_total",
			Help:      "Total number of object type descriptors registered.",
		}),

		ObjectsRegistered: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "clustercore",
			Subsystem: "registry",
			Name:      "objects_registered",
			Help:      "Current number of registered object instances, by type.",
		}, []string{"type"}),

		ValidateCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "clustercore",
			Subsystem: "registry",
			Name:      "validate_cache_hits_total",
			Help:      "Total number of ValidateName calls served from the LRU cache.",
		}),

		ValidateCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "clustercore",
			Subsystem: "registry",
			Name:      "validate_cache_misses_total",
			Help:      "Total number of ValidateName calls that missed the LRU cache.",
		}),
	}
}
