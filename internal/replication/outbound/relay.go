package outbound

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/icinga-cluster/clustercore/internal/domain"
	"github.com/icinga-cluster/clustercore/internal/object"
	"github.com/icinga-cluster/clustercore/internal/registry"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

// attrRelaySpec maps one Config-class scalar field to its wire method name
// and the params key its new value is carried under.
type attrRelaySpec struct {
	method string
	param  string
}

var attrRelaySpecs = map[string]attrRelaySpec{
	"check_interval":        {"SetCheckInterval", "interval"},
	"retry_interval":        {"SetRetryInterval", "interval"},
	"max_check_attempts":    {"SetMaxCheckAttempts", "max_check_attempts"},
	"check_command":         {"SetCheckCommand", "command"},
	"check_period":          {"SetCheckPeriod", "period"},
	"event_command":         {"SetEventCommand", "command"},
	"enable_active_checks":  {"EnableActiveChecks", "enabled"},
	"enable_passive_checks": {"EnablePassiveChecks", "enabled"},
	"enable_notifications":  {"EnableNotifications", "enabled"},
	"enable_perfdata":       {"EnablePerfdata", "enabled"},
	"enable_flapping":       {"EnableFlapping", "enabled"},
	"enable_event_handler":  {"EnableEventHandler", "enabled"},
}

// Relay subscribes to the checkable/notification signal kinds at
// Start and turns each into a peer message. With no PeerListener configured
// it runs in standalone mode and every handler is a silent no-op.
type Relay struct {
	reg       *registry.Registry
	logger    *slog.Logger
	metrics   *Metrics
	replay    *ReplayLog
	localZone string

	mu          sync.RWMutex
	peer        PeerListener
	unsubscribe []func()
}

// NewRelay constructs a Relay bound to reg. peer may be nil; set it later
// with SetPeerListener once the peer link comes up.
func NewRelay(reg *registry.Registry, peer PeerListener, logger *slog.Logger, metrics *Metrics) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		reg:     reg,
		peer:    peer,
		logger:  logger.With("component", "outbound"),
		metrics: metrics,
		replay:  NewReplayLog(),
	}
}

// SetPeerListener swaps the peer listener, e.g. once the peer link
// connects after this Relay was constructed in standalone mode.
func (r *Relay) SetPeerListener(p PeerListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peer = p
}

// SetLocalZone records the zone name raw (unscoped) relays are sent under,
// e.g. the repository beacon and inbound's UpdateRepository re-relay.
func (r *Relay) SetLocalZone(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.localZone = name
}

// RelayLocal sends a message scoped to the local zone rather than to a
// single object, with logged=false: the repository beacon and
// inbound's UpdateRepository re-relay both use this instead of the
// per-signal handler path, since neither is triggered by a domain signal.
func (r *Relay) RelayLocal(method string, params map[string]any) {
	r.mu.RLock()
	zone := r.localZone
	r.mu.RUnlock()
	r.send(nil, "zone:"+zone, method, params, false)
}

func (r *Relay) currentPeer() PeerListener {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.peer
}

// Start subscribes every handler to bus and returns once subscribed;
// unsubscription happens on Stop.
func (r *Relay) Start(bus *signal.Bus) {
	subs := []struct {
		kind    signal.Kind
		handler signal.Handler
	}{
		{object.KindOriginalAttributesChanged, r.handleAttributeChanged},
		{domain.KindCheckResult, r.handleCheckResult},
		{domain.KindNextCheckChanged, r.handleScalar("SetNextCheck", "next_check", unixSeconds)},
		{domain.KindForceNextCheckChanged, r.handleScalar("SetForceNextCheck", "forced", identityValue)},
		{domain.KindForceNextNotifChanged, r.handleScalar("SetForceNextNotification", "forced", identityValue)},
		{domain.KindCommentAdded, r.handleScalar("AddComment", "comment", identityValue)},
		{domain.KindCommentRemoved, r.handleRemoved("RemoveComment", "id")},
		{domain.KindDowntimeAdded, r.handleScalar("AddDowntime", "downtime", identityValue)},
		{domain.KindDowntimeRemoved, r.handleRemoved("RemoveDowntime", "id")},
		{domain.KindAcknowledgementSet, r.handleScalar("SetAcknowledgement", "type", identityValue)},
		{domain.KindAcknowledgementCleared, r.handleScalar("ClearAcknowledgement", "", identityValue)},
		{domain.KindNextNotificationChanged, r.handleNotificationScalar("SetNextNotification", "next_notification", unixSeconds)},
	}
	for _, s := range subs {
		r.unsubscribe = append(r.unsubscribe, bus.Subscribe(s.kind, s.handler))
	}
}

// ReplaySince returns every logged message retained for scope, for a
// reconnecting endpoint to catch up on.
func (r *Relay) ReplaySince(scope string) []Message {
	return r.replay.Since(scope)
}

// Stop removes every subscription Start registered.
func (r *Relay) Stop() {
	for _, unsub := range r.unsubscribe {
		unsub()
	}
	r.unsubscribe = nil
}

func unixSeconds(v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	return t.Unix()
}

func identityValue(v any) any { return v }

// handleScalar returns a Handler that relays a checkable signal carrying
// its new value under paramKey, transformed by convert.
func (r *Relay) handleScalar(method, paramKey string, convert func(any) any) signal.Handler {
	return func(e signal.Event) {
		params, ok := r.checkableParams(e)
		if !ok {
			return
		}
		if paramKey != "" {
			params[paramKey] = convert(e.New)
		}
		r.send(e.Origin, e.Type+"!"+e.Name, "event::"+method, params, true)
	}
}

// handleNotificationScalar returns a Handler for a Notification-scoped
// signal. Notification isn't a checkable (no host/service pair), so its
// wire identity is just its own name rather than the {host, service?}
// shape every other handler builds.
func (r *Relay) handleNotificationScalar(method, paramKey string, convert func(any) any) signal.Handler {
	return func(e signal.Event) {
		params := map[string]any{"name": e.Name, paramKey: convert(e.New)}
		r.send(e.Origin, e.Type+"!"+e.Name, "event::"+method, params, true)
	}
}

// handleRemoved returns a Handler for a *Removed signal, whose identifier
// travels in Event.Old.
func (r *Relay) handleRemoved(method, paramKey string) signal.Handler {
	return func(e signal.Event) {
		params, ok := r.checkableParams(e)
		if !ok {
			return
		}
		params[paramKey] = e.Old
		r.send(e.Origin, e.Type+"!"+e.Name, "event::"+method, params, true)
	}
}

// handleCheckResult relays a check result with performance_data inlined as
// already-serialized values rather than re-encoding them.
func (r *Relay) handleCheckResult(e signal.Event) {
	params, ok := r.checkableParams(e)
	if !ok {
		return
	}
	cr, _ := e.New.(*domain.CheckResult)
	if cr == nil {
		return
	}
	params["cr"] = checkResultPayload(cr)
	r.send(e.Origin, e.Type+"!"+e.Name, "event::CheckResult", params, true)
}

// handleAttributeChanged relays a generic ModifyAttribute mutation. Vars
// paths dispatch through the polymorphic "Vars" wire method (not
// host/service-scoped, since Users/Commands also carry vars); every other
// tracked top-level field goes through attrRelaySpecs.
func (r *Relay) handleAttributeChanged(e signal.Event) {
	head := strings.SplitN(e.Path, ".", 2)[0]
	if head == "vars" {
		r.relayVars(e)
		return
	}
	spec, ok := attrRelaySpecs[head]
	if !ok {
		return
	}
	params, ok := r.checkableParams(e)
	if !ok {
		return
	}
	params[spec.param] = e.New
	r.send(e.Origin, e.Type+"!"+e.Name, "event::"+spec.method, params, true)
}

func (r *Relay) relayVars(e signal.Event) {
	params := map[string]any{
		"object_type": e.Type,
		"name":        e.Name,
		"vars":        e.New,
	}
	r.send(e.Origin, e.Type+"!"+e.Name, "event::Vars", params, true)
}

// checkableParams builds the {host, service?} identity prefix for a
// checkable-scoped event. ok is false when the event's object can't be
// resolved to a host/service identity (e.g. it raced unregistration).
func (r *Relay) checkableParams(e signal.Event) (map[string]any, bool) {
	host, service, hasService, ok := r.resolveIdentity(e.Type, e.Name)
	if !ok {
		return nil, false
	}
	params := map[string]any{"host": host}
	if hasService {
		params["service"] = service
	}
	return params, true
}

// send builds the envelope and hands it to the peer listener, recording it
// in the replay log when logged. A non-nil origin means the mutation being
// relayed was itself caused by an inbound replicated message; relaying it
// back out would re-emit a message for the same method+object the
// dispatcher just applied, so send drops it entirely rather than relaying
// it to anyone, including peers other than the one it came from. In
// standalone mode (no peer configured) this is also a silent no-op.
func (r *Relay) send(origin *signal.Origin, scopeKey string, method string, params map[string]any, logged bool) {
	if origin != nil {
		return
	}
	peer := r.currentPeer()
	if peer == nil {
		return
	}
	msg := NewMessage(method, params)
	peer.RelayMessage(origin, scopeKey, msg, logged)
	if logged {
		r.replay.Record(scopeKey, msg)
	}
	if r.metrics != nil {
		r.metrics.MessagesSent.WithLabelValues(method).Inc()
	}
}
