package main

import (
	"github.com/icinga-cluster/clustercore/internal/configscript"
	"github.com/icinga-cluster/clustercore/internal/domain"
	"github.com/icinga-cluster/clustercore/internal/object"
	"github.com/icinga-cluster/clustercore/internal/registry"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

// domainFactories returns the configscript.Factory map wiring every
// registered domain type to domain.Construct, so the object-config
// pipeline can build a runtime instance from a committed config
// item without configscript importing internal/domain itself.
func domainFactories() map[string]configscript.Factory {
	wrap := func(typeName string) configscript.Factory {
		return func(reg *registry.Registry, bus *signal.Bus, fullName string, attrs map[string]any) (object.Instance, error) {
			return domain.Construct(reg, bus, typeName, fullName, attrs)
		}
	}
	return map[string]configscript.Factory{
		domain.HostTypeName:                wrap(domain.HostTypeName),
		domain.ServiceTypeName:             wrap(domain.ServiceTypeName),
		domain.UserTypeName:                wrap(domain.UserTypeName),
		domain.CheckCommandTypeName:        wrap(domain.CheckCommandTypeName),
		domain.EventCommandTypeName:        wrap(domain.EventCommandTypeName),
		domain.NotificationCommandTypeName: wrap(domain.NotificationCommandTypeName),
		domain.NotificationTypeName:        wrap(domain.NotificationTypeName),
	}
}

// typePlurals returns the lowercase-plural -> registry type name table
// internal/httpapi needs to route PUT /v1/<plural>/<name> requests.
func typePlurals() map[string]string {
	return map[string]string{
		"hosts":                domain.HostTypeName,
		"services":             domain.ServiceTypeName,
		"users":                domain.UserTypeName,
		"checkcommands":        domain.CheckCommandTypeName,
		"eventcommands":        domain.EventCommandTypeName,
		"notificationcommands": domain.NotificationCommandTypeName,
		"notifications":        domain.NotificationTypeName,
	}
}
