// Package objectconfig implements the object-config service: it
// renders an attribute tree via internal/configwriter, stages it under the
// "_api" config module on disk, and hands it to the declarative config
// grammar's compiler/evaluator to actually create or retire the object.
//
// The grammar, its compiler, and its evaluator are external collaborators
// (spec non-goal); this package only models the narrow seam it needs from
// them.
package objectconfig

import "github.com/icinga-cluster/clustercore/internal/object"

// Expression is the compiled, not-yet-evaluated form of one config file.
// Evaluating it against a ScriptFrame stages zero or more config items for
// the item subsystem to commit and activate.
type Expression interface {
	Evaluate(frame ScriptFrame) error
}

// Compiler turns rendered config text into an Expression.
type Compiler interface {
	Compile(path string, source []byte) (Expression, error)
}

// ScriptFrame is the evaluation context an Expression runs against. Its
// shape is owned by the grammar/evaluator; clustercore only needs to be
// able to construct a fresh one per CreateObject call and pass it through.
type ScriptFrame interface{}

// FrameFactory constructs a fresh ScriptFrame for one CreateObject call.
type FrameFactory interface {
	NewScriptFrame() ScriptFrame
}

// ConfigItemSubsystem commits and activates the config items an Expression
// staged into a ScriptFrame during evaluation. A failed phase returns its
// queued exceptions.
type ConfigItemSubsystem interface {
	CommitItems(frame ScriptFrame) (bool, []error)
	ActivateItems(frame ScriptFrame) (bool, []error)
}

// instanceExtension is the optional capability CreateObject uses to tag a
// freshly activated object with the config module it came from, so
// DeleteObject can later refuse to remove anything not sourced from "_api".
// object.Object satisfies this through SetExtension/Extension.
type instanceExtension interface {
	SetExtension(key string, value any)
	Extension(key string) (any, bool)
}

// Deletable is what DeleteObject needs: the registry's narrow object.Instance
// surface plus the source-module extension tag CreateObject set.
type Deletable interface {
	object.Instance
	instanceExtension
}

// sourceModuleKey is the extension key CreateObject tags an activated
// object with.
const sourceModuleKey = "source_module"

// apiModuleName is the only config module DeleteObject will remove objects
// from.
const apiModuleName = "_api"
