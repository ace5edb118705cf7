package inbound

import "github.com/icinga-cluster/clustercore/internal/signal"

const methodExecuteCommand = "event::ExecuteCommand"

// handleExecuteCommand implements the stricter ExecuteCommand
// authorization: the sending zone must be an ancestor of the local zone
// (a parent may command a child, never the reverse), which is a different
// check than CanAccessObject's "same subtree" rule the other handlers use.
// Once authorized, execution itself (fabricating the transient host,
// calling the check engine, synthesizing a refusal result) is the runner's job.
func (d *Dispatcher) handleExecuteCommand(origin *signal.Origin, params map[string]any) {
	endpointName, ok := clientEndpointName(origin)
	if !ok {
		d.reject(methodExecuteCommand, "invalid_origin")
		return
	}
	if origin.ZoneName == "" {
		d.reject(methodExecuteCommand, "no_sender_zone")
		return
	}
	senderZone, ok := d.zones.Zone(origin.ZoneName)
	if !ok {
		d.reject(methodExecuteCommand, "unknown_sender_zone")
		return
	}
	if !d.localZone.IsChildOf(senderZone) {
		d.logger.Warn("unauthorized ExecuteCommand: sender zone is not an ancestor of the local zone",
			"sender_zone", origin.ZoneName, "local_zone", d.localZone.Name())
		d.reject(methodExecuteCommand, "unauthorized")
		return
	}
	if d.runner == nil {
		d.reject(methodExecuteCommand, "no_runner")
		return
	}
	d.runner.RunCommand(endpointName, params)
	d.accept(methodExecuteCommand)
}
