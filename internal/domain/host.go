package domain

import (
	"github.com/icinga-cluster/clustercore/internal/object"
	"github.com/icinga-cluster/clustercore/internal/registry"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

// HostTypeName is the registry type name for Host objects.
const HostTypeName = "Host"

// HostFieldSpecs returns Host's field schema: the shared checkable fields
// plus the address the check command resolves against.
func HostFieldSpecs() []object.FieldSpec {
	return append(checkableFieldSpecs(), object.FieldSpec{Name: "address", Class: object.ClassConfig})
}

// Host is a monitored endpoint. It has no parent checkable: its
// fully-qualified name is its short name directly.
type Host struct {
	checkableBase
	addressFieldID int
	services       map[string]*Service
}

// NewHost constructs a Host backed by a freshly built object.Object.
func NewHost(desc object.Descriptor, name string, bus *signal.Bus, validator object.Validator) *Host {
	o := object.New(desc, name, bus, validator)
	return &Host{
		checkableBase:  newCheckableBase(o),
		addressFieldID: mustFieldID(o, "address"),
		services:       make(map[string]*Service),
	}
}

// Address returns the host's configured address.
func (h *Host) Address() string {
	v := h.FieldByID(h.addressFieldID)
	s, _ := v.(string)
	return s
}

// SetAddress is a Config-class scalar, tracked like any other via
// ModifyAttribute.
func (h *Host) SetAddress(addr string, origin *signal.Origin) error {
	return h.ModifyAttribute("address", addr, origin, nil)
}

// AttachService registers svc as one of h's services, keyed by short name.
// Called by the registry glue when a Service's host_name resolves to h.
func (h *Host) AttachService(svc *Service) {
	h.services[svc.ShortName()] = svc
}

// DetachService removes svc from h's service index.
func (h *Host) DetachService(shortName string) {
	delete(h.services, shortName)
}

// ServiceByShortName looks up one of h's services, or nil if absent. This
// is the resolution step the inbound dispatcher uses for
// params.service.
func (h *Host) ServiceByShortName(shortName string) *Service {
	return h.services[shortName]
}

// Services returns every service currently attached to h.
func (h *Host) Services() []*Service {
	out := make([]*Service, 0, len(h.services))
	for _, s := range h.services {
		out = append(out, s)
	}
	return out
}

// ServiceShortNames returns the short names of every attached service,
// the shape the repository beacon advertises per host.
func (h *Host) ServiceShortNames() []string {
	names := make([]string, 0, len(h.services))
	for n := range h.services {
		names = append(names, n)
	}
	return names
}

// RegisterHostType registers Host's type descriptor with reg.
func RegisterHostType(reg *registry.Registry) error {
	return reg.RegisterType(registry.NewTypeDescriptor(HostTypeName, "hosts", HostFieldSpecs(), nil))
}
