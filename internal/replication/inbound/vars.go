package inbound

import (
	"github.com/icinga-cluster/clustercore/internal/domain"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

const methodVars = "event::Vars"

// handleVars resolves the target polymorphically. If object_type is
// given it is used directly; otherwise a legacy fallback tries Host,
// Service, Service again, User, EventCommand, CheckCommand,
// NotificationCommand in that order. The second Service lookup is
// preserved-vestigial legacy behavior rather than silently fixed.
func (d *Dispatcher) handleVars(origin *signal.Origin, params map[string]any) {
	if _, ok := clientEndpointName(origin); !ok {
		d.reject(methodVars, "invalid_origin")
		return
	}
	if params == nil {
		d.reject(methodVars, "nil_params")
		return
	}
	name, _ := params["name"].(string)
	if name == "" {
		d.reject(methodVars, "no_name")
		return
	}
	vars := params["vars"]

	objectType, _ := params["object_type"].(string)
	var typesToTry []string
	if objectType != "" {
		typesToTry = []string{objectType}
	} else {
		typesToTry = []string{
			domain.HostTypeName,
			domain.ServiceTypeName,
			domain.ServiceTypeName,
			domain.UserTypeName,
			domain.EventCommandTypeName,
			domain.CheckCommandTypeName,
			domain.NotificationCommandTypeName,
		}
	}

	for _, typeName := range typesToTry {
		inst, err := d.reg.Lookup(typeName, name)
		if err != nil {
			continue
		}
		target, ok := inst.(varsTarget)
		if !ok {
			continue
		}
		if !d.authorizedForType(origin, typeName, name, methodVars) {
			return
		}
		if err := target.ModifyAttribute("vars", vars, origin, d.reg); err != nil {
			d.reject(methodVars, "apply_failed")
			return
		}
		d.accept(methodVars)
		return
	}
	d.reject(methodVars, "unknown_target")
}

// authorizedForType applies the same zone check applyGeneric's targets
// get, for a target resolved outside the host/service helper (the legacy
// vars fallback may land on a Host, Service, User, or Command).
func (d *Dispatcher) authorizedForType(origin *signal.Origin, typeName, name, method string) bool {
	if origin == nil || origin.ZoneName == "" {
		return true
	}
	inst, err := d.reg.Lookup(typeName, name)
	if err != nil {
		return false
	}
	zoned, ok := inst.(interface{ ZoneName() string })
	if !ok {
		// Types with no zone concept (User, Command) aren't zone-scoped;
		// nothing to authorize against.
		return true
	}
	return d.authorized(origin, zoned.ZoneName(), method)
}
