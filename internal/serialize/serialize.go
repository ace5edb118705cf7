// Package serialize converts configurable objects to and from a
// self-describing value tree (map[string]any), filtered by an
// attribute-class mask. It underlies the state snapshot, which serializes
// the masked fields of each object into one net-string record.
package serialize

import "github.com/icinga-cluster/clustercore/internal/object"

// nestedObject is the narrow surface a field value must expose to be
// recursed into as a nested configurable object, rather than copied as an
// opaque leaf value. *object.Object (and anything embedding it) satisfies
// this.
type nestedObject interface {
	FieldSpecs() []object.FieldSpec
	FieldByID(int) any
}

// Serialize walks obj's field schema and returns a tree containing every
// field whose attribute-class intersects mask. A nil or zero mask produces
// an empty tree, matching the snapshot writer's "skip records Serialize
// returns empty for" rule.
func Serialize(obj nestedObject, mask object.FieldClass) map[string]any {
	specs := obj.FieldSpecs()
	out := make(map[string]any, len(specs))
	for i, spec := range specs {
		if !spec.Class.Intersects(mask) {
			continue
		}
		v := obj.FieldByID(i)
		if nested, ok := v.(nestedObject); ok {
			out[spec.Name] = Serialize(nested, mask)
			continue
		}
		out[spec.Name] = v
	}
	return out
}

// fieldSetter is the write-side counterpart: a field-id/name accessor plus
// an unconditional setter. *object.Object satisfies this via FieldID and
// SetField.
type fieldSetter interface {
	FieldSpecs() []object.FieldSpec
	FieldID(name string) (int, bool)
	SetField(fid int, value any) any
}

// Deserialize applies tree to obj's fields, restricted to fields whose
// class intersects mask. If safe is true, tree is treated as untrusted
// input: unknown field names and fields outside mask are silently
// dropped instead of raising. If safe is false, an unknown field name is
// an error (deserializing output the process itself produced, e.g. a
// malformed developer-authored config fixture, should not fail silently).
func Deserialize(obj fieldSetter, tree map[string]any, safe bool, mask object.FieldClass) error {
	specs := obj.FieldSpecs()
	classByName := make(map[string]object.FieldClass, len(specs))
	for _, spec := range specs {
		classByName[spec.Name] = spec.Class
	}

	for name, value := range tree {
		class, known := classByName[name]
		if !known {
			if safe {
				continue
			}
			return &UnknownFieldError{Field: name}
		}
		if !class.Intersects(mask) {
			if safe {
				continue
			}
			return &UnknownFieldError{Field: name}
		}
		fid, ok := obj.FieldID(name)
		if !ok {
			continue
		}
		obj.SetField(fid, value)
	}
	return nil
}

// UnknownFieldError is returned by Deserialize(safe=false) for a tree key
// that does not name a field in the target's schema, or whose class is
// outside the requested mask.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return "serialize: unknown or out-of-mask field: " + e.Field
}
