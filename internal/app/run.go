package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/vk/stepgrid/internal/ctxlog"
	"github.com/vk/stepgrid/internal/executor"
	"github.com/vk/stepgrid/internal/gherkin"
	"github.com/vk/stepgrid/internal/model"
	"github.com/vk/stepgrid/internal/result"
)

// ErrScenariosFailed is returned by Run when at least one selected scenario
// did not pass.
var ErrScenariosFailed = errors.New("one or more scenarios did not pass")

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context) (*executor.Summary, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		srv := a.startHealthcheckServer(ctx, a.config.HealthcheckPort)
		defer a.closeHealthcheckServer(srv)
	}

	scenarios, err := gherkin.LoadFeatures(ctx, a.config.FeaturesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load features: %w", err)
	}
	a.logger.Info("Step definitions registered:", "count", len(a.catalog.Definitions()))

	if len(scenarios) == 0 {
		a.logger.Warn("No scenarios found, execution not required.")
		return &executor.Summary{}, nil
	}

	filter, err := nameFilter(a.config.NameFilter)
	if err != nil {
		return nil, err
	}

	exec := executor.New(a.engine, a.workers, "workers")
	a.executor.Store(exec)

	a.logger.Info("🚀 Starting concurrent execution...", "scenarios", len(scenarios), "workers", a.workers)
	start := time.Now()
	summary, err := exec.Execute(ctx, scenarios, filter)
	if err != nil {
		return summary, fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.",
		"passed", summary.Passed,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"not_run", summary.NotRun,
		"duration", time.Since(start).String(),
	)
	a.reportProblems(summary)

	if summary.Failed > 0 || summary.NotRun > 0 || (a.config.Strict && summary.Skipped > 0) {
		return summary, ErrScenariosFailed
	}
	a.logger.Debug("App.Run method finished.")
	return summary, nil
}

// nameFilter compiles expr into a scenario filter. An empty expression
// selects every scenario.
func nameFilter(expr string) (executor.Filter, error) {
	if expr == "" {
		return nil, nil
	}
	re, err := regexp2.Compile(expr, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("invalid name filter %q: %w", expr, err)
	}
	return func(sc *model.Scenario) bool {
		ok, err := re.MatchString(sc.Name)
		return err == nil && ok
	}, nil
}

// reportProblems logs the first unsuccessful step of every scenario that did
// not pass.
func (a *App) reportProblems(summary *executor.Summary) {
	for _, res := range summary.Results {
		if res == nil || res.Status() == result.Passed {
			continue
		}
		for _, s := range res.Steps {
			if s.Status == result.Passed {
				continue
			}
			attrs := []any{
				"scenario", res.Scenario.Name,
				"location", res.Scenario.Location(),
				"step", s.Step.String(),
				"line", s.Step.Line,
				"status", s.Status.String(),
			}
			if s.Err != nil {
				attrs = append(attrs, "error", s.Err)
			}
			a.logger.Warn("Scenario did not pass.", attrs...)
			break
		}
	}
}
