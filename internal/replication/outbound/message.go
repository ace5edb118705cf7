// Package outbound implements the event relay: it subscribes to
// local object mutation signals and turns them into JSON-RPC 2.0 envelopes
// handed to the peer listener for routing.
package outbound

import "github.com/icinga-cluster/clustercore/internal/signal"

// Message is a JSON-RPC 2.0 envelope carrying one replicated event.
type Message struct {
	JSONRPC string         `json:"jsonrpc"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

// NewMessage builds a Message for method with the given params, stamping
// the fixed jsonrpc version.
func NewMessage(method string, params map[string]any) Message {
	return Message{JSONRPC: "2.0", Method: method, Params: params}
}

// PeerListener is the external transport collaborator: it routes msg to
// whichever peer endpoints scope resolves to (a single object for
// per-object events, a zone for the repository beacon), tagging it with
// origin so the far side's dispatcher can trace provenance. logged tells
// it whether the Relay also records msg in its own replay log; the
// listener keeps no replay log of its own. A nil PeerListener means
// standalone mode: callers must check for it and silently do nothing.
type PeerListener interface {
	RelayMessage(origin *signal.Origin, scope any, msg Message, logged bool)
	SyncSendMessage(dest string, msg Message) error
}
