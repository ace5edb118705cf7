package domain

import (
	"sync"
	"time"
)

// Endpoint is a named peer process within a zone. The core tracks only the
// identity and connectivity state it needs to route and authorize
// messages; the transport connection itself is external.
type Endpoint struct {
	mu sync.RWMutex

	name      string
	zone      *Zone
	connected bool
	lastSeen  time.Time
}

// NewEndpoint constructs an Endpoint belonging to zone.
func NewEndpoint(name string, zone *Zone) *Endpoint {
	return &Endpoint{name: name, zone: zone}
}

// Name returns the endpoint's name.
func (e *Endpoint) Name() string { return e.name }

// Zone returns the endpoint's home zone.
func (e *Endpoint) Zone() *Zone { return e.zone }

// Connected reports whether the transport currently has a live connection
// to this endpoint.
func (e *Endpoint) Connected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connected
}

// LastSeen returns the timestamp of the endpoint's last observed activity.
func (e *Endpoint) LastSeen() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastSeen
}

// SetConnected updates connectivity state and bumps LastSeen when
// transitioning to connected.
func (e *Endpoint) SetConnected(connected bool, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connected = connected
	if connected {
		e.lastSeen = now
	}
}
