package main

import (
	"log/slog"

	"github.com/icinga-cluster/clustercore/internal/domain"
)

// loggingExecutor is the check-engine stand-in: running actual plugins is
// an external collaborator this binary does not implement. It logs what it
// would have run and reports Unknown, so ExecuteCommand has an observable
// result without a real plugin runner behind it.
type loggingExecutor struct {
	logger *slog.Logger
}

func newLoggingExecutor(logger *slog.Logger) *loggingExecutor {
	return &loggingExecutor{logger: logger.With("component", "checkengine-stub")}
}

func (e *loggingExecutor) ExecuteRemoteCheck(host *domain.Host, macros map[string]any) (domain.CheckResult, error) {
	e.logger.Info("would execute remote check", "host", host.Name(), "macros", macros)
	return domain.CheckResult{
		State:  domain.StateUnknown,
		Output: "no check engine wired into this binary",
	}, nil
}

func (e *loggingExecutor) ExecuteEventHandler(host *domain.Host, macros map[string]any, notify bool) error {
	e.logger.Info("would execute event handler", "host", host.Name(), "macros", macros, "notify", notify)
	return nil
}
