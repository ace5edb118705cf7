package domain

import (
	"fmt"

	"github.com/icinga-cluster/clustercore/internal/object"
	"github.com/icinga-cluster/clustercore/internal/registry"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

// Construct builds, but does not register or activate, a runtime instance
// of typeName under fullName populated from attrs. It is the single
// generic construction path internal/configscript's commit stage and
// internal/snapshot-adjacent tooling use instead of hand-writing a
// per-type switch at every call site. Attribute values not recognized by
// the target type are ignored rather than rejected, matching Deserialize's
// safe-mode behavior for untrusted input (see internal/serialize).
func Construct(reg *registry.Registry, bus *signal.Bus, typeName, fullName string, attrs map[string]any) (object.Instance, error) {
	switch typeName {
	case HostTypeName:
		desc, err := reg.Type(HostTypeName)
		if err != nil {
			return nil, err
		}
		h := NewHost(desc, fullName, bus, nil)
		applyAttrs(h.Object, attrs)
		return h, nil

	case ServiceTypeName:
		desc, err := reg.Type(ServiceTypeName)
		if err != nil {
			return nil, err
		}
		hostName, _ := attrs["host_name"].(string)
		shortName, _ := attrs["short_name"].(string)
		var host *Host
		if hostName != "" {
			if inst, lookupErr := reg.Lookup(HostTypeName, hostName); lookupErr == nil {
				host, _ = inst.(*Host)
			}
		}
		s := NewService(desc, fullName, hostName, shortName, host, bus, nil)
		applyAttrs(s.Object, attrs)
		if host != nil {
			host.AttachService(s)
		}
		return s, nil

	case UserTypeName:
		desc, err := reg.Type(UserTypeName)
		if err != nil {
			return nil, err
		}
		u := NewUser(desc, fullName, bus, nil)
		applyAttrs(u.Object, attrs)
		return u, nil

	case CheckCommandTypeName:
		return constructCommand(reg, bus, CheckCommandKind, CheckCommandTypeName, fullName, attrs)
	case EventCommandTypeName:
		return constructCommand(reg, bus, EventCommandKind, EventCommandTypeName, fullName, attrs)
	case NotificationCommandTypeName:
		return constructCommand(reg, bus, NotificationCommandKind, NotificationCommandTypeName, fullName, attrs)

	case NotificationTypeName:
		desc, err := reg.Type(NotificationTypeName)
		if err != nil {
			return nil, err
		}
		n := NewNotification(desc, fullName, bus, nil)
		applyAttrs(n.Object, attrs)
		return n, nil

	default:
		return nil, fmt.Errorf("domain: no constructor for type %q", typeName)
	}
}

func constructCommand(reg *registry.Registry, bus *signal.Bus, kind CommandKind, typeName, fullName string, attrs map[string]any) (object.Instance, error) {
	desc, err := reg.Type(typeName)
	if err != nil {
		return nil, err
	}
	c := NewCommand(kind, desc, fullName, bus, nil)
	applyAttrs(c.Object, attrs)
	return c, nil
}

// applyAttrs writes every attrs entry whose key names a field of obj's
// type directly into the field table, bypassing ModifyAttribute's
// original-attributes tracking: this is initial construction from a
// config declaration, not a subsequent mutation.
func applyAttrs(obj *object.Object, attrs map[string]any) {
	for k, v := range attrs {
		_, _ = obj.SetFieldByName(k, v)
	}
}
