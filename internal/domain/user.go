package domain

import (
	"github.com/icinga-cluster/clustercore/internal/object"
	"github.com/icinga-cluster/clustercore/internal/registry"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

// UserTypeName is the registry type name for User objects.
const UserTypeName = "User"

// UserFieldSpecs is User's field schema: contact details plus the
// notification gate flags Notification consults when fanning out.
func UserFieldSpecs() []object.FieldSpec {
	return []object.FieldSpec{
		{Name: "email", Class: object.ClassConfig},
		{Name: "pager", Class: object.ClassConfig},
		{Name: "vars", Class: object.ClassConfig},
		{Name: "enable_notifications", Class: object.ClassConfig},
	}
}

// User is a notification recipient.
type User struct {
	*object.Object
	enableNotificationsFieldID int
}

// NewUser constructs a User backed by a freshly built object.Object.
func NewUser(desc object.Descriptor, name string, bus *signal.Bus, validator object.Validator) *User {
	o := object.New(desc, name, bus, validator)
	return &User{
		Object:                     o,
		enableNotificationsFieldID: mustFieldID(o, "enable_notifications"),
	}
}

// Email returns the user's configured email address.
func (u *User) Email() string {
	v, _ := u.Field("email")
	s, _ := v.(string)
	return s
}

// EnableNotifications reports whether this user currently accepts
// notifications.
func (u *User) EnableNotifications() bool {
	v := u.FieldByID(u.enableNotificationsFieldID)
	b, _ := v.(bool)
	return b
}

// SetEnableNotifications is Config-class, tracked like any attribute.
func (u *User) SetEnableNotifications(enabled bool, origin *signal.Origin) error {
	return u.ModifyAttribute("enable_notifications", enabled, origin, nil)
}

// RegisterUserType registers User's type descriptor with reg.
func RegisterUserType(reg *registry.Registry) error {
	return reg.RegisterType(registry.NewTypeDescriptor(UserTypeName, "users", UserFieldSpecs(), nil))
}
