// Package configscript is a minimal, in-process stand-in for the
// declarative configuration grammar's compiler and evaluator — external
// collaborators objectconfig.Service treats as opaque: it only needs
// something that turns rendered config text into an Expression,
// evaluates it into pending config items, and commits/activates them.
// This package parses exactly the subset of syntax internal/configwriter
// emits (one "object <Type> \"<name>\" { key = value ... }" block per
// file), on commit constructs and registers the real runtime object via a
// per-type Factory, and on activation activates it — enough to exercise the full object-config pipeline
// end to end without implementing a general-purpose configuration
// expression language.
package configscript

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/icinga-cluster/clustercore/internal/object"
	"github.com/icinga-cluster/clustercore/internal/objectconfig"
	"github.com/icinga-cluster/clustercore/internal/registry"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

// activatable is the narrow capability ActivateItems needs beyond
// object.Instance: every domain type built on object.Object exposes it
// through method promotion.
type activatable interface {
	Activate(object.Lifecycle)
}

// Factory constructs and populates one instance of typeName under fullName
// from attrs; it neither registers nor activates it (CommitItems and
// ActivateItems do that). The factory map passed to NewEngine is built in
// cmd/clustercore (domainFactories).
type Factory func(reg *registry.Registry, bus *signal.Bus, fullName string, attrs map[string]any) (object.Instance, error)

// Engine is a Compiler + FrameFactory + ConfigItemSubsystem all in one: the
// three objectconfig seams this package fills.
type Engine struct {
	reg       *registry.Registry
	bus       *signal.Bus
	factories map[string]Factory
}

// NewEngine constructs an Engine bound to reg/bus, with factories keyed by
// registry type name.
func NewEngine(reg *registry.Registry, bus *signal.Bus, factories map[string]Factory) *Engine {
	return &Engine{reg: reg, bus: bus, factories: factories}
}

// item is one parsed "object Type \"name\" { ... }" block.
type item struct {
	typeName string
	fullName string
	attrs    map[string]any
}

// expression is the parsed form of one config file: exactly the items it
// declared, pending commit/activate.
type expression struct {
	items []item
}

func (e *expression) Evaluate(frame objectconfig.ScriptFrame) error {
	f, ok := frame.(*frame)
	if !ok {
		return fmt.Errorf("configscript: frame type mismatch")
	}
	f.pending = append(f.pending, e.items...)
	return nil
}

// frame accumulates items evaluated against it before CommitItems runs,
// then the objects CommitItems constructed for ActivateItems to flip on.
type frame struct {
	pending   []item
	committed []object.Instance
}

// NewScriptFrame implements objectconfig.FrameFactory.
func (e *Engine) NewScriptFrame() objectconfig.ScriptFrame { return &frame{} }

// Compile implements objectconfig.Compiler: parse source into an
// expression holding the declared items. It does not touch the registry;
// construction happens at CommitItems/ActivateItems.
func (e *Engine) Compile(path string, source []byte) (objectconfig.Expression, error) {
	items, err := parseItems(source)
	if err != nil {
		return nil, fmt.Errorf("configscript: parse %s: %w", path, err)
	}
	return &expression{items: items}, nil
}

// CommitItems implements objectconfig.ConfigItemSubsystem: construct every
// pending item's runtime object and register it, without activating it
// yet. A construction failure for one item aborts the whole commit (the
// component's "either returns false, collect queued exceptions" contract).
func (e *Engine) CommitItems(rawFrame objectconfig.ScriptFrame) (bool, []error) {
	f, ok := rawFrame.(*frame)
	if !ok {
		return false, []error{fmt.Errorf("configscript: frame type mismatch")}
	}
	var errs []error
	var committed []object.Instance
	for _, it := range f.pending {
		factory, ok := e.factories[it.typeName]
		if !ok {
			errs = append(errs, fmt.Errorf("configscript: no factory for type %s", it.typeName))
			continue
		}
		inst, err := factory(e.reg, e.bus, it.fullName, it.attrs)
		if err != nil {
			errs = append(errs, fmt.Errorf("configscript: construct %s %q: %w", it.typeName, it.fullName, err))
			continue
		}
		if err := e.reg.RegisterObject(it.typeName, inst); err != nil {
			errs = append(errs, fmt.Errorf("configscript: register %s %q: %w", it.typeName, it.fullName, err))
			continue
		}
		committed = append(committed, inst)
	}
	f.committed = committed
	if len(errs) > 0 {
		return false, errs
	}
	return true, nil
}

// ActivateItems implements objectconfig.ConfigItemSubsystem: activate every
// object CommitItems just registered.
func (e *Engine) ActivateItems(rawFrame objectconfig.ScriptFrame) (bool, []error) {
	f, ok := rawFrame.(*frame)
	if !ok {
		return false, []error{fmt.Errorf("configscript: frame type mismatch")}
	}
	for _, inst := range f.committed {
		if act, ok := inst.(activatable); ok {
			act.Activate(object.NoopLifecycle{})
		}
	}
	return true, nil
}

// parseItems parses configwriter's emitted text: zero or more
// "object Type \"name\" { ... }" blocks, each containing "key = value"
// lines (scalars and double-quoted strings only — nested scopes and
// arrays aren't needed for the objects clustercore's HTTP surface creates).
func parseItems(source []byte) ([]item, error) {
	var items []item
	scanner := bufio.NewScanner(bytes.NewReader(source))
	var cur *item
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "" || line == "}":
			if line == "}" && cur != nil {
				items = append(items, *cur)
				cur = nil
			}
		case strings.HasPrefix(line, "object "):
			typeName, name, err := parseHeader(line, "object")
			if err != nil {
				return nil, err
			}
			cur = &item{typeName: typeName, fullName: name, attrs: map[string]any{}}
		case strings.HasPrefix(line, "template "):
			// Templates aren't materialized as runtime objects by this
			// stand-in; skip their body.
			if _, _, err := parseHeader(line, "template"); err != nil {
				return nil, err
			}
			cur = nil
		case strings.HasPrefix(line, "import "):
			// Template imports aren't resolved by this stand-in.
		default:
			if cur == nil {
				continue
			}
			k, v, ok := parseAssignment(line)
			if ok {
				cur.attrs[k] = v
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func parseHeader(line, keyword string) (typeName, name string, err error) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, keyword))
	rest = strings.TrimSuffix(rest, "{")
	rest = strings.TrimSpace(rest)
	fields := strings.SplitN(rest, " ", 2)
	if len(fields) != 2 {
		return "", "", fmt.Errorf("configscript: malformed header %q", line)
	}
	typeName = fields[0]
	name, err = unquote(strings.TrimSpace(fields[1]))
	return typeName, name, err
}

func parseAssignment(line string) (key string, value any, ok bool) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return "", nil, false
	}
	key = strings.TrimSpace(line[:idx])
	raw := strings.TrimSpace(line[idx+1:])
	return key, parseValue(raw), true
}

func parseValue(raw string) any {
	if raw == "true" {
		return true
	}
	if raw == "false" {
		return false
	}
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		s, err := unquote(raw)
		if err == nil {
			return s
		}
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}

func unquote(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("configscript: expected quoted string, got %q", s)
	}
	inner := s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c == '\\' && i+1 < len(inner) {
			i++
			switch inner[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteByte(inner[i])
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String(), nil
}
