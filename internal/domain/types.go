package domain

import "github.com/icinga-cluster/clustercore/internal/registry"

// RegisterTypes registers every domain type descriptor with reg. Called
// once at process startup before any snapshot restore or config
// activation runs.
func RegisterTypes(reg *registry.Registry) error {
	registrars := []func(*registry.Registry) error{
		RegisterHostType,
		RegisterServiceType,
		RegisterUserType,
		RegisterCommandTypes,
		RegisterNotificationType,
	}
	for _, register := range registrars {
		if err := register(reg); err != nil {
			return err
		}
	}
	return nil
}
