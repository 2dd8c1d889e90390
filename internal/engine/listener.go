package engine

import (
	"context"

	"github.com/vk/stepgrid/internal/model"
	"github.com/vk/stepgrid/internal/result"
)

// Listener receives lifecycle notifications for one scenario run. The
// scenario result is owned by the engine and must be treated as read-only.
type Listener interface {
	BeforeScenario(ctx context.Context, res *result.Scenario)
	BeforeStep(ctx context.Context, res *result.Scenario, st model.Step)
	AfterStep(ctx context.Context, res *result.Scenario, sr *result.Step)
	AfterScenario(ctx context.Context, res *result.Scenario)
}

// ListenerFuncs adapts optional functions to the Listener interface.
type ListenerFuncs struct {
	OnBeforeScenario func(ctx context.Context, res *result.Scenario)
	OnBeforeStep     func(ctx context.Context, res *result.Scenario, st model.Step)
	OnAfterStep      func(ctx context.Context, res *result.Scenario, sr *result.Step)
	OnAfterScenario  func(ctx context.Context, res *result.Scenario)
}

func (l ListenerFuncs) BeforeScenario(ctx context.Context, res *result.Scenario) {
	if l.OnBeforeScenario != nil {
		l.OnBeforeScenario(ctx, res)
	}
}

func (l ListenerFuncs) BeforeStep(ctx context.Context, res *result.Scenario, st model.Step) {
	if l.OnBeforeStep != nil {
		l.OnBeforeStep(ctx, res, st)
	}
}

func (l ListenerFuncs) AfterStep(ctx context.Context, res *result.Scenario, sr *result.Step) {
	if l.OnAfterStep != nil {
		l.OnAfterStep(ctx, res, sr)
	}
}

func (l ListenerFuncs) AfterScenario(ctx context.Context, res *result.Scenario) {
	if l.OnAfterScenario != nil {
		l.OnAfterScenario(ctx, res)
	}
}
