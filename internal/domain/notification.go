package domain

import (
	"time"

	"github.com/icinga-cluster/clustercore/internal/object"
	"github.com/icinga-cluster/clustercore/internal/registry"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

// NotificationTypeName is the registry type name for Notification objects.
const NotificationTypeName = "Notification"

// NotificationFieldSpecs is Notification's field schema: the command and
// period it runs against, the state/type filters that gate delivery, its
// recipient users, and its own interval/scheduling state.
func NotificationFieldSpecs() []object.FieldSpec {
	return []object.FieldSpec{
		{Name: "host_name", Class: object.ClassConfig},
		{Name: "service_name", Class: object.ClassConfig},
		{Name: "command", Class: object.ClassConfig},
		{Name: "period", Class: object.ClassConfig},
		{Name: "types", Class: object.ClassConfig},
		{Name: "states", Class: object.ClassConfig},
		{Name: "users", Class: object.ClassConfig},
		{Name: "interval", Class: object.ClassConfig},
		{Name: "last_notification", Class: object.ClassState},
		{Name: "next_notification", Class: object.ClassState},
	}
}

// KindNextNotificationChanged is emitted whenever a notification's next
// scheduled delivery time changes, for the outbound relay to pick up.
const KindNextNotificationChanged signal.Kind = "next_notification_changed"

// Notification binds a checkable to a command, a recipient list, and the
// state/type filters under which it fires.
type Notification struct {
	*object.Object
	lastNotificationFieldID int
	nextNotificationFieldID int
}

// NewNotification constructs a Notification backed by a freshly built object.Object.
func NewNotification(desc object.Descriptor, name string, bus *signal.Bus, validator object.Validator) *Notification {
	o := object.New(desc, name, bus, validator)
	return &Notification{
		Object:                   o,
		lastNotificationFieldID:  mustFieldID(o, "last_notification"),
		nextNotificationFieldID:  mustFieldID(o, "next_notification"),
	}
}

// Users returns the recipient user names configured on this notification.
func (n *Notification) Users() []string {
	v, _ := n.Field("users")
	names, _ := v.([]string)
	return names
}

// NextNotification returns the scheduled time of the next delivery attempt.
func (n *Notification) NextNotification() time.Time {
	v := n.FieldByID(n.nextNotificationFieldID)
	t, _ := v.(time.Time)
	return t
}

// SetNextNotification reschedules the notification's next delivery attempt
// and emits KindNextNotificationChanged for the outbound relay to pick up. origin is nil for
// a locally-initiated reschedule, or the inbound peer origin when applying
// a replicated change.
func (n *Notification) SetNextNotification(t time.Time, origin *signal.Origin) {
	old := n.SetField(n.nextNotificationFieldID, t)
	n.Bus().Emit(signal.Event{Kind: KindNextNotificationChanged, Type: n.TypeName(), Name: n.Name(), Old: old, New: t, Origin: origin})
}

// RecordSent marks the notification as delivered at t.
func (n *Notification) RecordSent(t time.Time) {
	n.SetField(n.lastNotificationFieldID, t)
}

// RegisterNotificationType registers Notification's type descriptor with reg.
func RegisterNotificationType(reg *registry.Registry) error {
	return reg.RegisterType(registry.NewTypeDescriptor(NotificationTypeName, "notifications", NotificationFieldSpecs(), nil))
}
