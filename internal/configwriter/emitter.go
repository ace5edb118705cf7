// Package configwriter renders attribute trees into the text syntax of the
// declarative object configuration dialect. The dialect's compiler and
// evaluator are external collaborators (see internal/objectconfig); this
// package only emits grammar-faithful text for them to parse back in.
package configwriter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reservedKeywords are dialect keywords that can't appear as a bare
// identifier even when they match identifierPattern.
var reservedKeywords = map[string]bool{
	"object": true, "template": true, "apply": true, "import": true,
	"assign": true, "ignore": true, "where": true, "to": true,
	"if": true, "else": true, "for": true, "while": true, "function": true,
	"return": true, "break": true, "continue": true, "var": true, "const": true,
	"true": true, "false": true, "null": true, "in": true, "type": true,
	"library": true, "include": true, "globals": true, "locals": true,
}

// FormatIdentifier renders name as the grammar's identifier production: bare
// if it matches the identifier pattern, @-prefixed if it matches but
// collides with a reserved keyword. A name that doesn't match the pattern
// falls back to a quoted string in assignment position and is rejected
// otherwise (type names, item names can't be arbitrary strings this way).
func FormatIdentifier(name string, assignmentPosition bool) (string, error) {
	if !identifierPattern.MatchString(name) {
		if assignmentPosition {
			return quoteString(name), nil
		}
		return "", fmt.Errorf("configwriter: %q is not a valid identifier", name)
	}
	if reservedKeywords[name] {
		return "@" + name, nil
	}
	return name, nil
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Assignment is one "<key> = <value>" line inside a scope. Key may be a
// dotted path (a.b.c), rendered as a["b"]["c"] on the left-hand side.
type Assignment struct {
	Key   string
	Value any
}

// Scope is a brace-delimited block: optional import lines followed by
// tab-indented assignments, in declaration order. A Scope value is itself
// a valid attribute value, letting nested attribute maps (vars = { ... })
// render recursively.
type Scope struct {
	Imports     []string
	Assignments []Assignment
}

func (s *Scope) render(indent int) (string, error) {
	var b strings.Builder
	b.WriteString("{\n")
	pad := strings.Repeat("\t", indent)
	for _, tmpl := range s.Imports {
		fmt.Fprintf(&b, "%simport %s\n", pad, quoteString(tmpl))
	}
	for _, a := range s.Assignments {
		lhs, err := renderKeyPath(a.Key)
		if err != nil {
			return "", err
		}
		rhs, err := emitValue(a.Value, indent+1)
		if err != nil {
			return "", fmt.Errorf("configwriter: assignment %q: %w", a.Key, err)
		}
		fmt.Fprintf(&b, "%s%s = %s\n", pad, lhs, rhs)
	}
	b.WriteString(strings.Repeat("\t", indent-1))
	b.WriteByte('}')
	return b.String(), nil
}

func renderKeyPath(key string) (string, error) {
	segments := strings.Split(key, ".")
	first, err := FormatIdentifier(segments[0], true)
	if err != nil {
		return "", err
	}
	if len(segments) == 1 {
		return first, nil
	}
	var b strings.Builder
	b.WriteString(first)
	for _, seg := range segments[1:] {
		b.WriteString("[")
		b.WriteString(quoteString(seg))
		b.WriteString("]")
	}
	return b.String(), nil
}

// EmitValue renders v as a grammar value expression: a string, bool, an
// integer or float kind, nil, []any, map[string]any (rendered as an
// unordered scope; prefer *Scope when order matters), or *Scope.
func EmitValue(v any) (string, error) {
	return emitValue(v, 1)
}

func emitValue(v any, indent int) (string, error) {
	switch val := v.(type) {
	case nil:
		return "null", nil
	case bool:
		if val {
			return "true", nil
		}
		return "false", nil
	case string:
		return quoteString(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case []any:
		return emitArray(val, indent)
	case *Scope:
		return val.render(indent)
	case map[string]any:
		return emitMapAsScope(val, indent)
	default:
		return "", fmt.Errorf("configwriter: unsupported value type %T", v)
	}
}

func emitArray(items []any, indent int) (string, error) {
	if len(items) == 0 {
		return "[ ]", nil
	}
	parts := make([]string, len(items))
	for i, it := range items {
		s, err := emitValue(it, indent)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "[ " + strings.Join(parts, ", ") + " ]", nil
}

// emitMapAsScope is a convenience path for callers building attrs from a
// plain map; Go map iteration order is unspecified, so key order in the
// rendered scope is not guaranteed. Callers that need stable output
// (CreateObject) build a *Scope with an explicit Assignments slice instead.
func emitMapAsScope(m map[string]any, indent int) (string, error) {
	assignments := make([]Assignment, 0, len(m))
	for k, v := range m {
		assignments = append(assignments, Assignment{Key: k, Value: v})
	}
	return (&Scope{Assignments: assignments}).render(indent)
}

// ItemKind distinguishes a concrete object declaration from a template.
type ItemKind string

const (
	KindObject   ItemKind = "object"
	KindTemplate ItemKind = "template"
)

// EmitItem renders a full top-level declaration:
// object|template <Type> "<name>" { ... }
func EmitItem(kind ItemKind, typeName, name string, templates []string, assignments []Assignment) (string, error) {
	typeIdent, err := FormatIdentifier(typeName, false)
	if err != nil {
		return "", fmt.Errorf("configwriter: type name: %w", err)
	}
	scope := &Scope{Imports: templates, Assignments: assignments}
	body, err := scope.render(1)
	if err != nil {
		return "", fmt.Errorf("configwriter: render %s %q: %w", typeName, name, err)
	}
	return fmt.Sprintf("%s %s %s %s\n", kind, typeIdent, quoteString(name), body), nil
}
