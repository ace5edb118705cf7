package objectconfig

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/icinga-cluster/clustercore/internal/configwriter"
	"github.com/icinga-cluster/clustercore/internal/object"
	"github.com/icinga-cluster/clustercore/internal/registry"
)

// Service implements the object-config pipeline: render, stage to disk
// under the "_api" module, compile, evaluate, commit, activate.
type Service struct {
	reg        *registry.Registry
	compiler   Compiler
	frames     FrameFactory
	items      ConfigItemSubsystem
	moduleRoot string // base directory holding every config module, e.g. <stateDir>/lib/<product>/api
	stage      string // the _api module's single active stage directory name
	logger     *slog.Logger
	metrics    *Metrics

	mu          sync.Mutex
	stageExists bool
}

// NewService constructs a Service. moduleRoot is the directory under which
// config modules live (one subdirectory per module name); stage names the
// _api module's active stage directory (e.g. "1").
func NewService(reg *registry.Registry, compiler Compiler, frames FrameFactory, items ConfigItemSubsystem, moduleRoot, stage string, logger *slog.Logger, metrics *Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if stage == "" {
		stage = "1"
	}
	return &Service{
		reg:        reg,
		compiler:   compiler,
		frames:     frames,
		items:      items,
		moduleRoot: moduleRoot,
		stage:      stage,
		logger:     logger.With("component", "objectconfig"),
		metrics:    metrics,
	}
}

func (s *Service) apiStageDir() string {
	return filepath.Join(s.moduleRoot, apiModuleName, s.stage)
}

// ensureAPIModule creates the _api module's active stage directory on first
// use. Subsequent calls are no-ops.
func (s *Service) ensureAPIModule() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stageExists {
		return nil
	}
	if err := os.MkdirAll(s.apiStageDir(), 0o755); err != nil {
		return fmt.Errorf("objectconfig: create _api module stage: %w", err)
	}
	s.stageExists = true
	return nil
}

// CreateObject renders attrs (merged with fullName's decomposed parts, if
// the type supports decomposition) as a declarative object declaration,
// stages it under the _api module, and runs it through the
// compile/evaluate/commit/activate pipeline. ok reports overall success;
// errs collects every error encountered along the way, regardless of ok.
func (s *Service) CreateObject(typeName, fullName string, templates []string, attrs map[string]any) (ok bool, errs []error) {
	desc, err := s.reg.Type(typeName)
	if err != nil {
		return false, []error{fmt.Errorf("%w: %s", ErrUnknownType, typeName)}
	}

	merged := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if k == "name" {
			continue
		}
		merged[k] = v
	}
	if parts, decomposed := desc.Decompose(fullName); decomposed {
		for k, v := range parts {
			merged[k] = v
		}
	}

	assignments := make([]configwriter.Assignment, 0, len(merged))
	for k, v := range merged {
		assignments = append(assignments, configwriter.Assignment{Key: k, Value: v})
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].Key < assignments[j].Key })

	text, err := configwriter.EmitItem(configwriter.KindObject, typeName, fullName, templates, assignments)
	if err != nil {
		s.countCreate("render_error")
		return false, []error{fmt.Errorf("objectconfig: render %s %q: %w", typeName, fullName, err)}
	}

	if err := s.ensureAPIModule(); err != nil {
		s.countCreate("module_error")
		return false, []error{err}
	}

	fileName := configwriter.EscapeFileName(fullName) + ".conf"
	confDir := filepath.Join(s.apiStageDir(), "conf.d", strings.ToLower(desc.Plural()))
	if err := os.MkdirAll(confDir, 0o755); err != nil {
		s.countCreate("io_error")
		return false, []error{fmt.Errorf("objectconfig: create conf.d directory: %w", err)}
	}
	path := filepath.Join(confDir, fileName)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		s.countCreate("io_error")
		return false, []error{fmt.Errorf("objectconfig: write %s: %w", path, err)}
	}

	ok, errs = s.runPipeline(path, text, typeName, fullName)
	if ok {
		s.countCreate("success")
	} else {
		s.countCreate("pipeline_error")
		if s.metrics != nil {
			s.metrics.PipelineFailures.Inc()
		}
	}
	return ok, errs
}

// runPipeline hands the staged file to the compiler/evaluator/item
// subsystem seam and tags the resulting object, on success, with the
// source-module extension DeleteObject checks.
func (s *Service) runPipeline(path, text, typeName, fullName string) (ok bool, errs []error) {
	defer func() {
		if r := recover(); r != nil {
			errs = append(errs, fmt.Errorf("objectconfig: evaluation panic: %v", r))
			ok = false
		}
	}()

	expr, err := s.compiler.Compile(path, []byte(text))
	if err != nil {
		return false, []error{fmt.Errorf("objectconfig: compile %s: %w", path, err)}
	}

	frame := s.frames.NewScriptFrame()
	if err := expr.Evaluate(frame); err != nil {
		return false, []error{fmt.Errorf("objectconfig: evaluate %s: %w", path, err)}
	}

	if committed, commitErrs := s.items.CommitItems(frame); !committed {
		return false, commitErrs
	}
	activated, activateErrs := s.items.ActivateItems(frame)
	if !activated {
		return false, activateErrs
	}

	if inst, lookupErr := s.reg.Lookup(typeName, fullName); lookupErr == nil {
		if tagged, supports := inst.(instanceExtension); supports {
			tagged.SetExtension(sourceModuleKey, apiModuleName)
		}
	}
	return true, nil
}

// DeleteObject retires obj: refuses if its source module isn't "_api",
// otherwise deactivates it, unregisters it, and unlinks its on-disk file.
func (s *Service) DeleteObject(typeName, fullName string, obj Deletable, lc object.Lifecycle) error {
	module, _ := obj.Extension(sourceModuleKey)
	if module != apiModuleName {
		s.countDelete("refused")
		return ErrNotAPIManaged
	}

	if obj.Active() {
		obj.Deactivate(lc)
	}

	if err := s.reg.Unregister(typeName, fullName); err != nil {
		s.countDelete("unregister_error")
		return fmt.Errorf("objectconfig: unregister %s!%s: %w", typeName, fullName, err)
	}

	desc, err := s.reg.Type(typeName)
	if err == nil {
		fileName := configwriter.EscapeFileName(fullName) + ".conf"
		path := filepath.Join(s.apiStageDir(), "conf.d", strings.ToLower(desc.Plural()), fileName)
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			s.countDelete("io_error")
			return fmt.Errorf("objectconfig: unlink %s: %w", path, rmErr)
		}
	}

	s.countDelete("success")
	return nil
}

func (s *Service) countCreate(outcome string) {
	if s.metrics != nil {
		s.metrics.CreatesTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) countDelete(outcome string) {
	if s.metrics != nil {
		s.metrics.DeletesTotal.WithLabelValues(outcome).Inc()
	}
}
