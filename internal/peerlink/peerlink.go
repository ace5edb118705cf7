// Package peerlink gives outbound.PeerListener and remotecmd.Sender a
// concrete, swappable websocket-backed implementation so RelayMessage and
// SyncSendMessage have a body to route through, while leaving the real
// TLS/authentication handshake to whatever deployment wraps this module.
package peerlink

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/icinga-cluster/clustercore/internal/domain"
	"github.com/icinga-cluster/clustercore/internal/registry"
	"github.com/icinga-cluster/clustercore/internal/replication/inbound"
	"github.com/icinga-cluster/clustercore/internal/replication/outbound"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

// zoned is the narrow surface a resolved Host or Service exposes for
// scope-to-zone resolution.
type zoned interface {
	ZoneName() string
}

// Dispatcher is the seam peerlink hands decoded inbound messages to.
type Dispatcher interface {
	Dispatch(origin *signal.Origin, msg inbound.Message) error
}

// conn wraps one peer's websocket connection with the write mutex
// gorilla/websocket requires (only one concurrent writer per connection).
type conn struct {
	endpoint string
	zone     string
	ws       *websocket.Conn
	mu       sync.Mutex
}

func (c *conn) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

// Link is the process-wide peer connection table. It implements
// outbound.PeerListener and remotecmd.Sender directly, and owns the
// websocket upgrade handler that accepts inbound peer connections.
type Link struct {
	reg        *registry.Registry
	zones      *domain.ZoneTable
	endpoints  *domain.EndpointTable
	localZone  *domain.Zone
	dispatcher Dispatcher
	logger     *slog.Logger
	metrics    *Metrics

	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]*conn // keyed by endpoint name
}

// Config bundles Link's construction-time dependencies.
type Config struct {
	Registry   *registry.Registry
	Zones      *domain.ZoneTable
	Endpoints  *domain.EndpointTable
	LocalZone  *domain.Zone
	Dispatcher Dispatcher
	Logger     *slog.Logger
	Metrics    *Metrics
}

// New constructs a Link. It accepts connections but dials none; dialing
// out to configured peers is a deployment concern layered on top (see
// cmd/clustercore).
func New(cfg Config) *Link {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Link{
		reg:        cfg.Registry,
		zones:      cfg.Zones,
		endpoints:  cfg.Endpoints,
		localZone:  cfg.LocalZone,
		dispatcher: cfg.Dispatcher,
		logger:     logger.With("component", "peerlink"),
		metrics:    cfg.Metrics,
		upgrader:   websocket.Upgrader{HandshakeTimeout: 10 * time.Second},
		conns:      make(map[string]*conn),
	}
}

// ServeHTTP upgrades the connection and identifies the peer from the
// "X-Endpoint-Name" header (the TLS client-certificate identity extraction
// this stands in for is the out-of-scope collaborator). It blocks reading
// frames until the connection closes.
func (l *Link) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	endpointName := r.Header.Get("X-Endpoint-Name")
	if endpointName == "" {
		http.Error(w, "missing endpoint identity", http.StatusUnauthorized)
		return
	}
	ep, ok := l.endpoints.Endpoint(endpointName)
	if !ok {
		http.Error(w, "unknown endpoint", http.StatusForbidden)
		return
	}

	ws, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.logger.Warn("websocket upgrade failed", "endpoint", endpointName, "error", err)
		return
	}

	c := &conn{endpoint: endpointName, zone: ep.Zone().Name(), ws: ws}
	l.register(c)
	ep.SetConnected(true, time.Now())
	l.logger.Info("peer connected", "endpoint", endpointName, "zone", c.zone)

	defer func() {
		l.unregister(endpointName)
		ep.SetConnected(false, time.Now())
		ws.Close()
		l.logger.Info("peer disconnected", "endpoint", endpointName)
	}()

	l.readLoop(c)
}

func (l *Link) register(c *conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.conns[c.endpoint] = c
}

func (l *Link) unregister(endpoint string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.conns, endpoint)
}

// readLoop decodes each inbound frame and hands it to the dispatcher,
// tagging the message with an Origin built from the connection's known
// identity. Runs until the connection errors or closes.
func (l *Link) readLoop(c *conn) {
	origin := &signal.Origin{EndpointName: c.endpoint, ZoneName: c.zone}
	for {
		var msg inbound.Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				l.logger.Warn("peer read error", "endpoint", c.endpoint, "error", err)
			}
			return
		}
		if l.metrics != nil {
			l.metrics.FramesReceived.WithLabelValues(c.endpoint).Inc()
		}
		if err := l.dispatcher.Dispatch(origin, msg); err != nil {
			l.logger.Warn("dispatch failed", "endpoint", c.endpoint, "method", msg.Method, "error", err)
		}
	}
}

// RelayMessage implements outbound.PeerListener. scope is either a
// "Type!Name" checkable key (resolved to the checkable's owning zone) or
// "zone:<name>" (resolved directly), matching the two forms
// outbound.Relay produces. Every endpoint whose own zone is the target
// zone or one of its ancestors' descendants per CanAccessObject gets the
// message; unreachable peers are silently skipped (best-effort).
func (l *Link) RelayMessage(origin *signal.Origin, scope any, msg outbound.Message, logged bool) {
	zoneName, ok := l.resolveScopeZone(scope)
	if !ok {
		return
	}
	targetZone, ok := l.zones.Zone(zoneName)
	if !ok {
		return
	}

	l.mu.RLock()
	conns := make([]*conn, 0, len(l.conns))
	for _, c := range l.conns {
		conns = append(conns, c)
	}
	l.mu.RUnlock()

	sent := 0
	for _, c := range conns {
		if origin != nil && c.endpoint == origin.EndpointName {
			continue // never echo back to the endpoint a message originated from
		}
		peerZone, ok := l.zones.Zone(c.zone)
		if !ok || !peerZone.CanAccessObject(targetZone) {
			continue
		}
		if err := c.send(msg); err != nil {
			l.logger.Warn("relay send failed", "endpoint", c.endpoint, "error", err)
			continue
		}
		sent++
	}
	if l.metrics != nil {
		l.metrics.FramesSent.WithLabelValues(msg.Method).Add(float64(sent))
	}
}

// SyncSendMessage implements outbound.PeerListener and remotecmd.Sender:
// a direct point-to-point send to dest, bypassing zone-scoped routing.
func (l *Link) SyncSendMessage(dest string, msg outbound.Message) error {
	l.mu.RLock()
	c, ok := l.conns[dest]
	l.mu.RUnlock()
	if !ok {
		return fmt.Errorf("peerlink: endpoint %q not connected", dest)
	}
	if err := c.send(msg); err != nil {
		return fmt.Errorf("peerlink: send to %q: %w", dest, err)
	}
	if l.metrics != nil {
		l.metrics.FramesSent.WithLabelValues(msg.Method).Inc()
	}
	return nil
}

func (l *Link) resolveScopeZone(scope any) (string, bool) {
	s, ok := scope.(string)
	if !ok {
		return "", false
	}
	if zoneName, ok := strings.CutPrefix(s, "zone:"); ok {
		return zoneName, true
	}
	// "Type!Name" checkable scope: resolve through the host/service tree.
	parts := strings.SplitN(s, "!", 2)
	if len(parts) != 2 {
		return "", false
	}
	typeName, name := parts[0], parts[1]
	return l.resolveCheckableZone(typeName, name)
}

// resolveCheckableZone looks up the registered Host or Service named name
// and returns its owning zone. Both expose ZoneName() via their embedded
// checkableBase.
func (l *Link) resolveCheckableZone(typeName, name string) (string, bool) {
	if l.reg == nil {
		return "", false
	}
	inst, err := l.reg.Lookup(typeName, name)
	if err != nil {
		return "", false
	}
	z, ok := inst.(zoned)
	if !ok {
		return "", false
	}
	return z.ZoneName(), true
}
