package outbound

import "github.com/icinga-cluster/clustercore/internal/domain"

// resolveIdentity looks up (typeName, name) in reg and reports its
// (host, service) wire identity. ok is false if the object can't be found
// or isn't a Host or Service (e.g. a User, Command, or Notification, none
// of which carry a host/service pair). Switching on the concrete domain
// type rather than a structural interface matters here: both Host and
// Service (and everything else registered) satisfy a bare "Name() string"
// shape via the embedded object.Object, so a structural check alone can't
// tell them apart.
func (r *Relay) resolveIdentity(typeName, name string) (host, service string, hasService, ok bool) {
	inst, err := r.reg.Lookup(typeName, name)
	if err != nil {
		return "", "", false, false
	}
	switch v := inst.(type) {
	case *domain.Service:
		return v.HostName(), v.ShortName(), true, true
	case *domain.Host:
		return v.Name(), "", false, true
	default:
		return "", "", false, false
	}
}
