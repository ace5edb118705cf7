package domain

import (
	"github.com/icinga-cluster/clustercore/internal/object"
	"github.com/icinga-cluster/clustercore/internal/registry"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

// CommandKind distinguishes the three command object types the remote
// executor and the checkable setters reference by name.
type CommandKind int

const (
	CheckCommandKind CommandKind = iota
	EventCommandKind
	NotificationCommandKind
)

const (
	CheckCommandTypeName        = "CheckCommand"
	EventCommandTypeName        = "EventCommand"
	NotificationCommandTypeName = "NotificationCommand"
)

// CommandFieldSpecs is the field schema shared by all three command kinds:
// the execution path/macro template and its static argument/environment
// macros.
func CommandFieldSpecs() []object.FieldSpec {
	return []object.FieldSpec{
		{Name: "command_line", Class: object.ClassConfig},
		{Name: "arguments", Class: object.ClassConfig},
		{Name: "env", Class: object.ClassConfig},
		{Name: "timeout", Class: object.ClassConfig},
	}
}

// Command is a CheckCommand, EventCommand, or NotificationCommand
// definition: a template for producing a runnable command line from
// macros, resolved at execution time by the (external) check engine.
type Command struct {
	*object.Object
	kind               CommandKind
	commandLineFieldID int
	argumentsFieldID   int
	envFieldID         int
	timeoutFieldID     int
}

// NewCommand constructs a Command of the given kind.
func NewCommand(kind CommandKind, desc object.Descriptor, name string, bus *signal.Bus, validator object.Validator) *Command {
	o := object.New(desc, name, bus, validator)
	return &Command{
		Object:             o,
		kind:               kind,
		commandLineFieldID: mustFieldID(o, "command_line"),
		argumentsFieldID:   mustFieldID(o, "arguments"),
		envFieldID:         mustFieldID(o, "env"),
		timeoutFieldID:     mustFieldID(o, "timeout"),
	}
}

// Kind reports whether this is a check, event, or notification command.
func (c *Command) Kind() CommandKind { return c.kind }

// CommandLine returns the macro-templated command line.
func (c *Command) CommandLine() string {
	v := c.FieldByID(c.commandLineFieldID)
	s, _ := v.(string)
	return s
}

// Arguments returns the static CLI argument macros.
func (c *Command) Arguments() map[string]any {
	v := c.FieldByID(c.argumentsFieldID)
	m, _ := v.(map[string]any)
	return m
}

// Env returns the static environment-variable macros.
func (c *Command) Env() map[string]any {
	v := c.FieldByID(c.envFieldID)
	m, _ := v.(map[string]any)
	return m
}

// RegisterCommandTypes registers all three command type descriptors.
func RegisterCommandTypes(reg *registry.Registry) error {
	for _, t := range []struct {
		name, plural string
	}{
		{CheckCommandTypeName, "checkcommands"},
		{EventCommandTypeName, "eventcommands"},
		{NotificationCommandTypeName, "notificationcommands"},
	} {
		if err := reg.RegisterType(registry.NewTypeDescriptor(t.name, t.plural, CommandFieldSpecs(), nil)); err != nil {
			return err
		}
	}
	return nil
}
