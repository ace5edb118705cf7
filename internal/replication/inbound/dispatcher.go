package inbound

import (
	"log/slog"
	"time"

	"github.com/icinga-cluster/clustercore/internal/domain"
	"github.com/icinga-cluster/clustercore/internal/object"
	"github.com/icinga-cluster/clustercore/internal/registry"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

// checkableTarget is the surface the generic handler table needs from a
// resolved Host or Service. Both satisfy it through the promoted methods
// of their embedded checkableBase.
type checkableTarget interface {
	Name() string
	ZoneName() string
	CommandEndpoint() string
	ProcessCheckResult(cr domain.CheckResult, origin *signal.Origin)
	SetNextCheck(t time.Time, origin *signal.Origin)
	SetForceNextCheck(force bool, origin *signal.Origin)
	SetForceNextNotification(force bool, origin *signal.Origin)
	SetCheckInterval(d time.Duration, origin *signal.Origin) error
	SetRetryInterval(d time.Duration, origin *signal.Origin) error
	SetMaxCheckAttempts(n int, origin *signal.Origin) error
	SetCheckCommand(name string, origin *signal.Origin, resolver object.NameResolver) error
	SetCheckPeriod(name string, origin *signal.Origin, resolver object.NameResolver) error
	SetEventCommand(name string, origin *signal.Origin, resolver object.NameResolver) error
	SetEnableActiveChecks(enabled bool, origin *signal.Origin) error
	SetEnablePassiveChecks(enabled bool, origin *signal.Origin) error
	SetEnableNotifications(enabled bool, origin *signal.Origin) error
	SetEnablePerfdata(enabled bool, origin *signal.Origin) error
	SetEnableFlapping(enabled bool, origin *signal.Origin) error
	SetEnableEventHandler(enabled bool, origin *signal.Origin) error
	AddComment(c domain.Comment, origin *signal.Origin)
	RemoveComment(id string, origin *signal.Origin)
	AddDowntime(d domain.Downtime, origin *signal.Origin)
	RemoveDowntime(id string, origin *signal.Origin)
	SetAcknowledgement(ackType domain.AcknowledgementType, origin *signal.Origin)
	ClearAcknowledgement(origin *signal.Origin)
	ModifyAttribute(path string, value any, origin *signal.Origin, resolver object.NameResolver) error
}

// varsTarget is satisfied by every object type the legacy vars fallback
// chain tries: Host, Service, User, and all three Command kinds.
type varsTarget interface {
	ModifyAttribute(path string, value any, origin *signal.Origin, resolver object.NameResolver) error
}

// Dispatcher is a method-name-keyed table that resolves a replicated
// message to a local target and applies it, with endpoint/zone
// authorization ahead of every generic apply.
type Dispatcher struct {
	reg       *registry.Registry
	zones     *domain.ZoneTable
	endpoints *domain.EndpointTable
	localZone *domain.Zone
	relay     Relayer
	runner    CommandRunner

	stateDir string
	product  string

	logger  *slog.Logger
	metrics *Metrics

	generic map[string]func(checkableTarget, map[string]any, *signal.Origin, object.NameResolver) error
}

// Config bundles the Dispatcher's construction-time dependencies.
type Config struct {
	Registry  *registry.Registry
	Zones     *domain.ZoneTable
	Endpoints *domain.EndpointTable
	LocalZone *domain.Zone
	Relay     Relayer
	Runner    CommandRunner
	StateDir  string
	Product   string
	Logger    *slog.Logger
	Metrics   *Metrics
}

// NewDispatcher constructs a Dispatcher from cfg.
func NewDispatcher(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		reg:       cfg.Registry,
		zones:     cfg.Zones,
		endpoints: cfg.Endpoints,
		localZone: cfg.LocalZone,
		relay:     cfg.Relay,
		runner:    cfg.Runner,
		stateDir:  cfg.StateDir,
		product:   cfg.Product,
		logger:    logger.With("component", "inbound"),
		metrics:   cfg.Metrics,
	}
	d.generic = buildGenericHandlers()
	return d
}

// Dispatch routes msg to its handler. Protocol errors
// (invalid origin, unauthorized sender, unknown target) are logged and
// swallowed rather than returned to the caller; Dispatch's error return is
// reserved for ErrUnknownMethod and programming mistakes.
func (d *Dispatcher) Dispatch(origin *signal.Origin, msg Message) error {
	switch msg.Method {
	case "event::CheckResult":
		d.handleCheckResult(origin, msg.Params)
	case "event::Vars":
		d.handleVars(origin, msg.Params)
	case "event::AddComment":
		d.handleAddComment(origin, msg.Params)
	case "event::AddDowntime":
		d.handleAddDowntime(origin, msg.Params)
	case "event::UpdateRepository":
		d.handleUpdateRepository(origin, msg.Params)
	case "event::ExecuteCommand":
		d.handleExecuteCommand(origin, msg.Params)
	default:
		method, ok := stripEventPrefix(msg.Method)
		if !ok {
			return ErrUnknownMethod
		}
		handler, ok := d.generic[method]
		if !ok {
			return ErrUnknownMethod
		}
		d.applyGeneric(handler, origin, msg.Params, msg.Method)
	}
	return nil
}

func stripEventPrefix(method string) (string, bool) {
	const prefix = "event::"
	if len(method) <= len(prefix) || method[:len(prefix)] != prefix {
		return "", false
	}
	return method[len(prefix):], true
}

// applyGeneric implements the common dispatch pattern:
// resolve endpoint and target, authorize, apply with suppressReplication.
func (d *Dispatcher) applyGeneric(handler func(checkableTarget, map[string]any, *signal.Origin, object.NameResolver) error, origin *signal.Origin, params map[string]any, method string) {
	target, ok := d.resolveCheckable(origin, params, method)
	if !ok {
		return
	}
	if err := handler(target, params, origin, d.reg); err != nil {
		d.reject(method, "apply_failed")
		d.logger.Warn("generic apply failed", "method", method, "error", err)
		return
	}
	d.accept(method)
}

// resolveCheckable implements the shared endpoint/zone/target resolution
// every handler in this package starts from.
func (d *Dispatcher) resolveCheckable(origin *signal.Origin, params map[string]any, method string) (checkableTarget, bool) {
	if _, ok := clientEndpointName(origin); !ok {
		d.logger.Warn("invalid endpoint origin", "method", method)
		d.reject(method, "invalid_origin")
		return nil, false
	}
	if params == nil {
		d.reject(method, "nil_params")
		return nil, false
	}
	hostName, _ := params["host"].(string)
	if hostName == "" {
		d.reject(method, "no_host")
		return nil, false
	}
	inst, err := d.reg.Lookup(domain.HostTypeName, hostName)
	if err != nil {
		d.reject(method, "unknown_host")
		return nil, false
	}
	host, ok := inst.(*domain.Host)
	if !ok {
		d.reject(method, "unknown_host")
		return nil, false
	}

	var target checkableTarget = host
	if svcName, hasSvc := params["service"].(string); hasSvc && svcName != "" {
		svc := host.ServiceByShortName(svcName)
		if svc == nil {
			d.reject(method, "unknown_service")
			return nil, false
		}
		target = svc
	}

	if !d.authorized(origin, target.ZoneName(), method) {
		return nil, false
	}
	return target, true
}

// authorized implements "if origin.zone is non-null and not
// origin.zone.CanAccessObject(target): reject".
func (d *Dispatcher) authorized(origin *signal.Origin, targetZoneName, method string) bool {
	if origin == nil || origin.ZoneName == "" {
		return true
	}
	senderZone, ok := d.zones.Zone(origin.ZoneName)
	if !ok {
		d.reject(method, "unknown_sender_zone")
		return false
	}
	targetZone, ok := d.zones.Zone(targetZoneName)
	if !ok {
		// An object with no resolvable zone can't be authorization-checked;
		// fail closed.
		d.reject(method, "unknown_target_zone")
		return false
	}
	if !senderZone.CanAccessObject(targetZone) {
		d.logger.Warn("unauthorized", "method", method, "sender_zone", origin.ZoneName)
		d.reject(method, "unauthorized")
		return false
	}
	return true
}

func (d *Dispatcher) accept(method string) {
	if d.metrics != nil {
		d.metrics.MessagesHandled.WithLabelValues(method).Inc()
	}
}

func (d *Dispatcher) reject(method, reason string) {
	if d.metrics != nil {
		d.metrics.MessagesRejected.WithLabelValues(method, reason).Inc()
	}
}
