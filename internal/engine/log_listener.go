package engine

import (
	"context"

	"github.com/vk/stepgrid/internal/ctxlog"
	"github.com/vk/stepgrid/internal/model"
	"github.com/vk/stepgrid/internal/result"
)

// LogListener reports scenario progress through the context logger.
type LogListener struct{}

func (LogListener) BeforeScenario(ctx context.Context, res *result.Scenario) {
	ctxlog.FromContext(ctx).Info("▶️ Starting scenario", "scenario", res.Scenario.Name, "location", res.Scenario.Location(), "steps", len(res.Scenario.Steps))
}

func (LogListener) BeforeStep(ctx context.Context, res *result.Scenario, st model.Step) {
	ctxlog.FromContext(ctx).Debug("Running step.", "step", st.String(), "line", st.Line)
}

func (LogListener) AfterStep(ctx context.Context, res *result.Scenario, sr *result.Step) {
	logger := ctxlog.FromContext(ctx).With("step", sr.Step.String(), "line", sr.Step.Line, "status", sr.Status.String(), "duration", sr.Duration())
	switch {
	case sr.Status == result.Failed:
		logger.Error("Step failed.", "error", sr.Err)
	case sr.Err != nil:
		logger.Warn("Step skipped.", "reason", sr.Err)
	default:
		logger.Debug("Step finished.", "definition", sr.Definition)
	}
}

func (LogListener) AfterScenario(ctx context.Context, res *result.Scenario) {
	logger := ctxlog.FromContext(ctx).With("scenario", res.Scenario.Name, "status", res.Status().String(), "duration", res.Duration())
	if res.Status() == result.Passed {
		logger.Info("✅ Scenario passed")
		return
	}
	logger.Warn("❌ Scenario did not pass", "location", res.Scenario.Location())
}
