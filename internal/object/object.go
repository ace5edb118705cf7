// Package object implements the base behavior shared by every replicated
// entity in the cluster: reflective field access keyed by a type
// descriptor, per-field modification tracking, and the activation
// lifecycle state machine. It corresponds to the "configurable object"
// component of the cluster core.
package object

import (
	"fmt"
	"sync"

	"github.com/icinga-cluster/clustercore/internal/signal"
)

// FieldClass identifies which concern a field belongs to. A field may
// belong to more than one class.
type FieldClass uint8

const (
	// ClassConfig fields are declared in a source file, survive a full
	// restart via config, and have their mutations tracked.
	ClassConfig FieldClass = 1 << iota
	// ClassState fields are runtime-only but persisted across restarts
	// via the snapshot file.
	ClassState
	// ClassInternal fields are never serialized.
	ClassInternal
)

// Has reports whether c includes every class set in mask.
func (c FieldClass) Has(mask FieldClass) bool { return c&mask == mask }

// Intersects reports whether c and mask share any class.
func (c FieldClass) Intersects(mask FieldClass) bool { return c&mask != 0 }

// FieldSpec describes one field of a type: its name and attribute classes.
type FieldSpec struct {
	Name  string
	Class FieldClass
}

// Descriptor is the read-only field schema a type registration exposes to
// Object. registry.TypeDescriptor is the concrete implementation; Object
// depends only on this narrow interface to avoid an import cycle with the
// registry package that owns type descriptors and per-type object indices.
type Descriptor interface {
	TypeName() string
	FieldSpecs() []FieldSpec
	FieldID(name string) (int, bool)
}

// NameResolver resolves cross-object name references during attribute
// validation (ValidateName(type, name) -> bool).
type NameResolver interface {
	ValidateName(typeName, name string) bool
}

// Instance is the narrow surface the registry's per-type index needs from
// anything it stores: every domain type (Host, Service, ...) satisfies
// this automatically by embedding *Object, so the registry can hold
// concrete domain wrappers rather than bare *Object and callers get their
// type back unchanged from Lookup.
type Instance interface {
	Name() string
	Active() bool
	Deactivate(Lifecycle)
}

// Validator validates a proposed field value before it is committed.
type Validator interface {
	Validate(fieldName string, newValue any, resolver NameResolver) error
}

// Event kinds emitted by every Object regardless of its concrete type.
const (
	KindOriginalAttributesChanged signal.Kind = "original-attributes-changed"
	KindActivated                 signal.Kind = "activated"
	KindDeactivated               signal.Kind = "deactivated"
	KindPaused                    signal.Kind = "paused"
	KindResumed                   signal.Kind = "resumed"
)

// Object is the base type embedded by the registry-backed domain entities
// (Host, Service, User, Command, Notification). It owns the per-instance monitor, the field table, the
// original-attributes map, the extensions bag, and the activation flags.
type Object struct {
	mu sync.Mutex

	desc      Descriptor
	name      string
	fields    []any
	original  map[string]any
	version   uint64
	extension map[string]any
	validator Validator

	active       bool
	paused       bool
	startCalled  bool
	stopCalled   bool
	pauseCalled  bool
	resumeCalled bool
	stateLoaded  bool

	bus *signal.Bus
}

// New constructs an Object with all fields at their zero value, registered
// under name but not yet activated or inserted into any type index.
func New(desc Descriptor, name string, bus *signal.Bus, validator Validator) *Object {
	return &Object{
		desc:      desc,
		name:      name,
		fields:    make([]any, len(desc.FieldSpecs())),
		original:  make(map[string]any),
		extension: make(map[string]any),
		validator: validator,
		paused:    true, // an object starts without authority until SetAuthority(true)
		bus:       bus,
	}
}

// Name returns the object's fully-qualified name.
func (o *Object) Name() string { return o.name }

// TypeName returns the registry type name this object was constructed with.
func (o *Object) TypeName() string { return o.desc.TypeName() }

// Version returns the monotonic modification counter.
func (o *Object) Version() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.version
}

// Field reads the current value of the field named name.
func (o *Object) Field(name string) (any, error) {
	fid, ok := o.desc.FieldID(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fields[fid], nil
}

// FieldByID reads the current value of the field at fid without a name
// lookup; callers that cache field ids at startup to avoid a map lookup on
// hot signal sites use this.
func (o *Object) FieldByID(fid int) any {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fields[fid]
}

// SetField commits value at fid unconditionally, bumping version, and
// returns the field's previous value. It performs no validation and no
// original-attributes bookkeeping; domain setters that need those call
// ModifyAttribute instead, or do their own bookkeeping around SetField when
// the field is State-class and mutated via a typed setter rather than the
// attribute-path API (a local mutation -> setter on the object fires a
// named change signal").
func (o *Object) SetField(fid int, value any) any {
	o.mu.Lock()
	old := o.fields[fid]
	o.fields[fid] = value
	o.version++
	o.mu.Unlock()
	return old
}

// SetFieldByName resolves name to a field id and calls SetField.
func (o *Object) SetFieldByName(name string, value any) (any, error) {
	fid, ok := o.desc.FieldID(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return o.SetField(fid, value), nil
}

// FieldID exposes the descriptor's name->id lookup so domain types can
// cache ids once at construction instead of paying a map lookup per
// mutation on hot signal sites.
func (o *Object) FieldID(name string) (int, bool) { return o.desc.FieldID(name) }

// FieldSpecs exposes the object's field schema, in declaration order, for
// callers (the serializer, the snapshot writer) that need to walk every
// field rather than look one up by name.
func (o *Object) FieldSpecs() []FieldSpec { return o.desc.FieldSpecs() }

// Bus returns the event bus this object emits change notifications on.
func (o *Object) Bus() *signal.Bus { return o.bus }

// SetExtension attaches transient, non-persisted context to the object
// (e.g. "agent_service_name").
func (o *Object) SetExtension(key string, value any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.extension[key] = value
}

// Extension reads a transient extension value.
func (o *Object) Extension(key string) (any, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	v, ok := o.extension[key]
	return v, ok
}

// StateLoaded reports whether OnStateLoaded has run for this object.
func (o *Object) StateLoaded() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stateLoaded
}

// MarkStateLoaded records that the snapshot restore path has finished with
// this object (whether or not a record for it was present).
func (o *Object) MarkStateLoaded() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stateLoaded = true
}

// Active reports whether the object currently holds the Active state.
func (o *Object) Active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// Paused reports whether the object currently lacks authority.
func (o *Object) Paused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paused
}
