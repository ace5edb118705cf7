// Package beacon implements the repository heartbeat: on a fixed
// cadence it publishes the local endpoint's host/service inventory to its
// parent zone so siblings and the parent learn which objects this endpoint
// owns.
package beacon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/icinga-cluster/clustercore/internal/domain"
	"github.com/icinga-cluster/clustercore/internal/registry"
)

// Relayer is the outbound seam the beacon publishes through: a
// zone-scoped, unlogged relay, exactly the shape internal/replication/outbound.Relay
// exposes via RelayLocal.
type Relayer interface {
	RelayLocal(method string, params map[string]any)
}

// Clock abstracts time so tests can control tick cadence without sleeping.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is the subset of time.Ticker the beacon needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Beacon owns no goroutine until Start is called, and its tick
// loop exits cleanly on Stop.
type Beacon struct {
	reg      *registry.Registry
	relay    Relayer
	self     *domain.Endpoint
	zone     *domain.Zone
	parent   *domain.Zone
	clock    Clock
	interval time.Duration
	logger   *slog.Logger
	metrics  *Metrics

	mu     sync.Mutex
	ticker Ticker
	done   chan struct{}
}

// Config bundles Beacon's construction-time dependencies.
type Config struct {
	Registry       *registry.Registry
	Relay          Relayer
	Self           *domain.Endpoint
	Zone           *domain.Zone
	Interval       time.Duration
	Clock          Clock
	Logger         *slog.Logger
	Metrics        *Metrics
}

// New constructs a Beacon. A nil Clock uses the real wall clock.
func New(cfg Config) *Beacon {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	var parent *domain.Zone
	if cfg.Zone != nil {
		parent = cfg.Zone.Parent()
	}
	return &Beacon{
		reg:      cfg.Registry,
		relay:    cfg.Relay,
		self:     cfg.Self,
		zone:     cfg.Zone,
		parent:   parent,
		clock:    clock,
		interval: interval,
		logger:   logger.With("component", "beacon"),
		metrics:  cfg.Metrics,
	}
}

// Start fires one tick immediately, then continues on Interval until Stop
// is called. Start must not be called twice without an intervening Stop.
func (b *Beacon) Start() {
	b.mu.Lock()
	if b.ticker != nil {
		b.mu.Unlock()
		panic("beacon: Start called while already running")
	}
	b.ticker = b.clock.NewTicker(b.interval)
	b.done = make(chan struct{})
	ticker := b.ticker
	done := b.done
	b.mu.Unlock()

	go func() {
		b.tick()
		for {
			select {
			case <-ticker.C():
				b.tick()
			case <-done:
				return
			}
		}
	}()
}

// Stop halts the tick loop. Safe to call once; a second call is a no-op.
func (b *Beacon) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ticker == nil {
		return
	}
	b.ticker.Stop()
	close(b.done)
	b.ticker = nil
}

// tick gathers the local inventory and relays it as event::UpdateRepository
// scoped to the local zone. Best-effort: logged=false, no
// replay.
func (b *Beacon) tick() {
	if b.relay == nil {
		return
	}
	hosts, err := b.reg.Objects(domain.HostTypeName)
	if err != nil {
		b.logger.Warn("beacon: host type not registered", "error", err)
		return
	}

	inventory := make(map[string]any, len(hosts))
	for _, inst := range hosts {
		host, ok := inst.(*domain.Host)
		if !ok {
			continue
		}
		inventory[host.Name()] = host.ServiceShortNames()
	}

	params := map[string]any{
		"hosts":    inventory,
		"seen":     b.clock.Now().Unix(),
		"endpoint": b.endpointName(),
	}
	if b.zone != nil {
		params["zone"] = b.zone.Name()
	}
	if b.parent != nil {
		params["parent_zone"] = b.parent.Name()
	}

	b.relay.RelayLocal("event::UpdateRepository", params)
	if b.metrics != nil {
		b.metrics.TicksTotal.Inc()
		b.metrics.HostsReported.Set(float64(len(inventory)))
	}
}

func (b *Beacon) endpointName() string {
	if b.self == nil {
		return ""
	}
	return b.self.Name()
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }
