package domain

import (
	"strings"

	"github.com/icinga-cluster/clustercore/internal/object"
	"github.com/icinga-cluster/clustercore/internal/registry"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

// ServiceTypeName is the registry type name for Service objects.
const ServiceTypeName = "Service"

// ServiceFieldSpecs returns Service's field schema: the shared checkable
// fields plus the host/short-name pair its fully-qualified name decomposes
// into.
func ServiceFieldSpecs() []object.FieldSpec {
	return append(checkableFieldSpecs(),
		object.FieldSpec{Name: "host_name", Class: object.ClassConfig},
		object.FieldSpec{Name: "short_name", Class: object.ClassConfig},
	)
}

// serviceComposer builds/decomposes the "<host>!<service>" fully-qualified
// name Icinga-style services use.
type serviceComposer struct{}

func (serviceComposer) Compose(shortName string, parents ...string) string {
	if len(parents) == 0 {
		return shortName
	}
	return parents[0] + "!" + shortName
}

// Decompose splits "<host>!<service>" back into host_name and short_name
// attribute values. ok is false for a name with no "!" separator.
func (serviceComposer) Decompose(fullName string) (parts map[string]any, ok bool) {
	idx := strings.IndexByte(fullName, '!')
	if idx < 0 {
		return nil, false
	}
	return map[string]any{
		"host_name":  fullName[:idx],
		"short_name": fullName[idx+1:],
	}, true
}

// Service is a checkable attached to exactly one Host.
type Service struct {
	checkableBase
	hostNameFieldID  int
	shortNameFieldID int
	host             *Host
}

// NewService constructs a Service backed by a freshly built object.Object.
// fullName is expected to already be composed ("<host>!<short>"); host and
// shortName are the decomposed parts the caller (objectconfig, or snapshot
// restore) resolved them from.
func NewService(desc object.Descriptor, fullName, hostName, shortName string, host *Host, bus *signal.Bus, validator object.Validator) *Service {
	o := object.New(desc, fullName, bus, validator)
	svc := &Service{
		checkableBase:    newCheckableBase(o),
		hostNameFieldID:  mustFieldID(o, "host_name"),
		shortNameFieldID: mustFieldID(o, "short_name"),
		host:             host,
	}
	svc.SetField(svc.hostNameFieldID, hostName)
	svc.SetField(svc.shortNameFieldID, shortName)
	return svc
}

// HostName returns the name of the host this service is attached to.
func (s *Service) HostName() string {
	v := s.FieldByID(s.hostNameFieldID)
	v2, _ := v.(string)
	return v2
}

// ShortName returns the service's name segment local to its host.
func (s *Service) ShortName() string {
	v := s.FieldByID(s.shortNameFieldID)
	v2, _ := v.(string)
	return v2
}

// Host returns the Service's owning Host, or nil if not yet resolved.
func (s *Service) Host() *Host { return s.host }

// RegisterServiceType registers Service's type descriptor with reg.
func RegisterServiceType(reg *registry.Registry) error {
	return reg.RegisterType(registry.NewTypeDescriptor(ServiceTypeName, "services", ServiceFieldSpecs(), serviceComposer{}))
}
