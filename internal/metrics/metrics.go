// Package metrics holds the Prometheus registration helpers shared by
// every component's own metrics.go (registry, snapshot, outbound, inbound,
// beacon, remotecmd, peerlink, objectconfig): a single namespace constant
// and a constructor for the process-wide registerer, so every
// promauto.With(reg) call in the module points at the same registry
// instead of the global default one.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Namespace prefixes every metric this module registers.
const Namespace = "clustercore"

// NewRegistry constructs a fresh Prometheus registerer for production use.
// Tests should construct their own prometheus.NewRegistry() directly to
// avoid collecting metrics across unrelated test cases.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}
