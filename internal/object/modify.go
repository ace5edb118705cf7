package object

import (
	"fmt"
	"strings"

	"github.com/icinga-cluster/clustercore/internal/signal"
)

// ModifyAttribute implements dotted-path attribute mutation:
//
//  1. split path into tokens, resolve the head to a field id
//  2. read the current field value
//  3. if the field is Config-class and path is not yet tracked, record
//     (path, old) in originalAttributes
//  4. build the new field value, walking nested mappings for tokens[1:]
//  5. validate the proposed value
//  6. commit, bump version, and if step 3 recorded a new entry, emit
//     KindOriginalAttributesChanged so the outbound relay can replicate it
//
// origin is nil for locally-initiated modifications and carries the
// inbound peer/zone when applying a replicated change; it is threaded
// straight onto the emitted event so the outbound relay can tell the two
// cases apart and suppress relaying a change that was itself caused by a
// replicated message, rather than re-emitting it to the mesh.
func (o *Object) ModifyAttribute(path string, value any, origin *signal.Origin, resolver NameResolver) error {
	tokens := strings.Split(path, ".")
	if len(tokens) == 0 || tokens[0] == "" {
		return fmt.Errorf("%w: empty path", ErrUnknownField)
	}

	fid, ok := o.desc.FieldID(tokens[0])
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, tokens[0])
	}
	specs := o.desc.FieldSpecs()
	class := specs[fid].Class

	o.mu.Lock()
	old := o.fields[fid]
	_, alreadyTracked := o.original[path]
	recordNew := class.Intersects(ClassConfig) && !alreadyTracked

	var newVal any
	if len(tokens) == 1 {
		newVal = value
	} else {
		cloned, err := cloneTopLevelMap(old)
		if err != nil {
			o.mu.Unlock()
			return err
		}
		if err := setNestedPath(cloned, tokens[1:], value); err != nil {
			o.mu.Unlock()
			return err
		}
		newVal = cloned
	}

	if o.validator != nil {
		if err := o.validator.Validate(tokens[0], newVal, resolver); err != nil {
			o.mu.Unlock()
			return fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
	}

	if recordNew {
		o.original[path] = old
	}
	o.fields[fid] = newVal
	o.version++
	o.mu.Unlock()

	if recordNew {
		o.bus.Emit(signal.Event{
			Kind:   KindOriginalAttributesChanged,
			Type:   o.desc.TypeName(),
			Name:   o.name,
			Path:   path,
			Old:    old,
			New:    newVal,
			Origin: origin,
		})
	}
	return nil
}

// RestoreAttribute writes the tracked original value back to the path's
// top-level field (not the exact nested sub-path — a known limitation
// carried from the original design, see DESIGN.md) and untracks path.
// Restoring an untracked path is a no-op.
func (o *Object) RestoreAttribute(path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	old, ok := o.original[path]
	if !ok {
		return nil
	}
	head := strings.SplitN(path, ".", 2)[0]
	fid, ok := o.desc.FieldID(head)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, head)
	}
	o.fields[fid] = old
	o.version++
	delete(o.original, path)
	return nil
}

// IsAttributeModified reports whether path is currently tracked in
// originalAttributes.
func (o *Object) IsAttributeModified(path string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.original[path]
	return ok
}

// OriginalAttributePaths returns a snapshot of currently tracked paths,
// used by the serializer / config emitter to know which attrs to re-diff.
func (o *Object) OriginalAttributePaths() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	paths := make([]string, 0, len(o.original))
	for p := range o.original {
		paths = append(paths, p)
	}
	return paths
}

func cloneTopLevelMap(old any) (map[string]any, error) {
	if old == nil {
		return map[string]any{}, nil
	}
	m, ok := old.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: field is not a mapping", ErrInvalidArgument)
	}
	cloned := make(map[string]any, len(m))
	for k, v := range m {
		cloned[k] = v
	}
	return cloned, nil
}

func setNestedPath(m map[string]any, tokens []string, value any) error {
	cur := m
	for i, t := range tokens {
		if i == len(tokens)-1 {
			cur[t] = value
			return nil
		}
		next, exists := cur[t]
		if !exists {
			nm := map[string]any{}
			cur[t] = nm
			cur = nm
			continue
		}
		nm, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %s is not a mapping", ErrInvalidArgument, t)
		}
		cur = nm
	}
	return nil
}
