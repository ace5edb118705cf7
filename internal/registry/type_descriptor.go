// Package registry owns the type table every object in the cluster is
// constructed against (field schema, name composition) and the per-type
// instance index objects are inserted into once activated.
package registry

import "github.com/icinga-cluster/clustercore/internal/object"

// NameComposer builds and splits an object's fully-qualified name from its
// constituent parts (e.g. Service's "<host>!<service>" composition).
type NameComposer interface {
	// Compose returns the fully-qualified name for the given short name and
	// parent references (e.g. Compose("ping", "host1") -> "host1!ping").
	Compose(shortName string, parents ...string) string
}

// simpleComposer is the default NameComposer for types with no parent
// component: the fully-qualified name is the short name unchanged.
type simpleComposer struct{}

func (simpleComposer) Compose(shortName string, _ ...string) string { return shortName }

// NameDecomposer is an optional capability a NameComposer may implement:
// splitting a fully-qualified name back into its constituent attribute
// fields (e.g. Service's "<host>!<service>" decomposes into host_name and
// short_name). Types with no parent component don't need it.
type NameDecomposer interface {
	Decompose(fullName string) (parts map[string]any, ok bool)
}

// TypeDescriptor is the concrete, corpus-grounded implementation of
// object.Descriptor: it pairs a type's field schema with its plural form
// (used by the HTTP API's URL path segment) and its NameComposer.
type TypeDescriptor struct {
	name     string
	plural   string
	fields   []object.FieldSpec
	byName   map[string]int
	composer NameComposer
}

// NewTypeDescriptor builds a TypeDescriptor. composer may be nil, in which
// case fully-qualified names equal short names.
func NewTypeDescriptor(name, plural string, fields []object.FieldSpec, composer NameComposer) *TypeDescriptor {
	if composer == nil {
		composer = simpleComposer{}
	}
	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		byName[f.Name] = i
	}
	return &TypeDescriptor{
		name:     name,
		plural:   plural,
		fields:   fields,
		byName:   byName,
		composer: composer,
	}
}

func (d *TypeDescriptor) TypeName() string              { return d.name }
func (d *TypeDescriptor) Plural() string                { return d.plural }
func (d *TypeDescriptor) FieldSpecs() []object.FieldSpec { return d.fields }

func (d *TypeDescriptor) FieldID(name string) (int, bool) {
	id, ok := d.byName[name]
	return id, ok
}

// Compose delegates to the configured NameComposer.
func (d *TypeDescriptor) Compose(shortName string, parents ...string) string {
	return d.composer.Compose(shortName, parents...)
}

// Decompose splits fullName via the type's composer, if it implements
// NameDecomposer. ok is false if the composer has no decomposition support;
// callers fall back to treating fullName as an undecomposed short name.
func (d *TypeDescriptor) Decompose(fullName string) (parts map[string]any, ok bool) {
	dec, supported := d.composer.(NameDecomposer)
	if !supported {
		return nil, false
	}
	return dec.Decompose(fullName)
}
