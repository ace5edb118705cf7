// Package inbound implements the event dispatcher: a method-name-keyed
// table applying replicated mutations to local objects with endpoint/zone
// authorization, mirroring the common dispatch pattern with its
// per-method deviations (CheckResult, Vars, AddComment/AddDowntime,
// UpdateRepository, ExecuteCommand).
package inbound

import "github.com/icinga-cluster/clustercore/internal/signal"

// Message is the decoded JSON-RPC 2.0 envelope the outbound relay produces and the peer
// link hands to the dispatcher on receipt.
type Message struct {
	JSONRPC string         `json:"jsonrpc"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

// CommandRunner is internal/remotecmd's Runner: ExecuteCommand's
// ancestor-zone check happens here in the dispatcher, while the
// accept-commands gate, fabricating the transient host, invoking the
// check engine, and replying (real or synthetic) are the runner's job.
type CommandRunner interface {
	RunCommand(requesterEndpoint string, params map[string]any)
}

// Relayer lets UpdateRepository's handler re-relay the repository update to
// the local zone after persisting it, without importing the outbound
// package directly (outbound would otherwise need to import inbound's
// Message type, or vice versa, for no real benefit).
type Relayer interface {
	RelayLocal(method string, params map[string]any)
}

func clientEndpointName(origin *signal.Origin) (string, bool) {
	if origin == nil || origin.EndpointName == "" {
		return "", false
	}
	return origin.EndpointName, true
}
