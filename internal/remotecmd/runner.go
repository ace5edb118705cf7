package remotecmd

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/icinga-cluster/clustercore/internal/domain"
	"github.com/icinga-cluster/clustercore/internal/registry"
	"github.com/icinga-cluster/clustercore/internal/replication/outbound"
)

// Sender is the point-to-point reply path ExecuteCommand's synthetic and
// real results travel over. Its signature matches
// outbound.PeerListener.SyncSendMessage exactly so the same peer-link
// implementation serves both the outbound relay and this runner without an adapter.
type Sender interface {
	SyncSendMessage(dest string, msg outbound.Message) error
}

// Config bundles Runner's construction-time dependencies.
type Config struct {
	Registry       *registry.Registry
	Executor       RemoteCommandExecutor
	Sender         Sender
	SelfEndpoint   string
	AcceptCommands bool
	// Limiter paces repeated command-retry traffic (a flood of
	// ExecuteCommand requests for the same host/service); nil disables
	// pacing.
	Limiter *rate.Limiter
	Logger  *slog.Logger
	Metrics *Metrics
}

// Runner implements inbound.CommandRunner, servicing
// already-authorized ExecuteCommand requests.
type Runner struct {
	reg            *registry.Registry
	executor       RemoteCommandExecutor
	senderMu       sync.RWMutex
	sender         Sender
	selfEndpoint   string
	acceptCommands bool
	limiter        *rate.Limiter
	logger         *slog.Logger
	metrics        *Metrics
}

// NewRunner constructs a Runner from cfg.
func NewRunner(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		reg:            cfg.Registry,
		executor:       cfg.Executor,
		sender:         cfg.Sender,
		selfEndpoint:   cfg.SelfEndpoint,
		acceptCommands: cfg.AcceptCommands,
		limiter:        cfg.Limiter,
		logger:         logger.With("component", "remotecmd"),
		metrics:        cfg.Metrics,
	}
}

// SetSender swaps the reply sender, e.g. once the peer link comes up after
// a Runner was constructed in standalone mode.
func (r *Runner) SetSender(s Sender) {
	r.senderMu.Lock()
	defer r.senderMu.Unlock()
	r.sender = s
}

func (r *Runner) currentSender() Sender {
	r.senderMu.RLock()
	defer r.senderMu.RUnlock()
	return r.sender
}

// RunCommand implements inbound.CommandRunner. Everything here runs after
// The inbound dispatcher has already cleared the ancestor-zone authorization check; this is
// purely about the accept-commands policy and invoking the check engine.
func (r *Runner) RunCommand(requesterEndpoint string, params map[string]any) {
	hostName, _ := params["host"].(string)
	serviceName, _ := params["service"].(string)
	commandName, _ := params["command"].(string)
	commandType, _ := params["type"].(string)
	macros, _ := params["macros"].(map[string]any)

	if !r.acceptCommands {
		r.refuse(requesterEndpoint, hostName, serviceName, "refused",
			fmt.Sprintf("Endpoint '%s' does not accept commands.", r.selfEndpoint))
		return
	}
	if commandName == "" || !r.commandExists(commandType, commandName) {
		r.refuse(requesterEndpoint, hostName, serviceName, "unknown_command",
			fmt.Sprintf("Command '%s' does not exist.", commandName))
		return
	}

	if r.limiter != nil {
		_ = r.limiter.Wait(context.Background())
	}

	host := r.fabricateHost(hostName, commandName, commandType, requesterEndpoint)

	if commandType == "event" {
		if err := r.executor.ExecuteEventHandler(host, macros, true); err != nil {
			r.refuse(requesterEndpoint, hostName, serviceName, "exception", err.Error())
			return
		}
		r.accept(commandType)
		return
	}

	cr, err := r.executor.ExecuteRemoteCheck(host, macros)
	if err != nil {
		r.refuse(requesterEndpoint, hostName, serviceName, "exception", err.Error())
		return
	}
	r.accept(commandType)
	r.reply(requesterEndpoint, hostName, serviceName, cr)
}

// commandExists reports whether the named check or event command is
// registered locally; an unrecognized commandType is treated as "check".
func (r *Runner) commandExists(commandType, commandName string) bool {
	typeName := domain.CheckCommandTypeName
	if commandType == "event" {
		typeName = domain.EventCommandTypeName
	}
	_, err := r.reg.Lookup(typeName, commandName)
	return err == nil
}

// fabricateHost builds a transient Host not inserted into the registry,
// carrying command-type and endpoint metadata as extensions for the check
// engine to read back.
func (r *Runner) fabricateHost(name, commandName, commandType, requesterEndpoint string) *domain.Host {
	desc, err := r.reg.Type(domain.HostTypeName)
	if err != nil {
		// Host is always registered before the replication stack starts;
		// a missing descriptor here is a startup ordering bug.
		panic("remotecmd: Host type not registered: " + err.Error())
	}
	if name == "" {
		name = "remotecmd-" + uuid.NewString()
	}
	host := domain.NewHost(desc, name, r.reg.Bus(), nil)
	host.SetExtension("remotecmd_command", commandName)
	host.SetExtension("remotecmd_command_type", commandType)
	host.SetExtension("remotecmd_requester_endpoint", requesterEndpoint)
	return host
}

// refuse logs, counts, and replies with a synthetic Unknown result
// carrying output as its diagnostic text.
func (r *Runner) refuse(dest, hostName, serviceName, reason, output string) {
	r.logger.Warn("ExecuteCommand refused", "reason", reason, "requester", dest, "host", hostName)
	if r.metrics != nil {
		r.metrics.CommandsRefused.WithLabelValues(reason).Inc()
	}
	r.reply(dest, hostName, serviceName, domain.CheckResult{
		State:  domain.StateUnknown,
		Output: output,
	})
}

func (r *Runner) accept(commandType string) {
	if r.metrics != nil {
		r.metrics.CommandsExecuted.WithLabelValues(commandType).Inc()
	}
}

// reply sends cr back to the requester point-to-point, outside the normal
// relay/authorization path: this is a direct response, not a replicated
// mutation.
func (r *Runner) reply(dest, hostName, serviceName string, cr domain.CheckResult) {
	sender := r.currentSender()
	if sender == nil {
		return
	}
	params := map[string]any{
		"host": hostName,
		"cr":   checkResultPayload(cr),
	}
	if serviceName != "" {
		params["service"] = serviceName
	}
	msg := outbound.NewMessage("event::CheckResult", params)
	if err := sender.SyncSendMessage(dest, msg); err != nil {
		r.logger.Warn("ExecuteCommand reply failed", "requester", dest, "error", err)
	}
}

func checkResultPayload(cr domain.CheckResult) map[string]any {
	payload := map[string]any{
		"state":          int(cr.State),
		"output":         cr.Output,
		"check_source":   cr.CheckSource,
		"execution_start": cr.ExecutionStart.Unix(),
		"execution_end":   cr.ExecutionEnd.Unix(),
	}
	if len(cr.PerformanceData) > 0 {
		payload["performance_data"] = cr.PerformanceData
	}
	return payload
}
