package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/vk/stepgrid/internal/catalog"
	"github.com/vk/stepgrid/internal/ctxlog"
	"github.com/vk/stepgrid/internal/gate"
	"github.com/vk/stepgrid/internal/model"
	"github.com/vk/stepgrid/internal/outline"
	"github.com/vk/stepgrid/internal/result"
	"github.com/vk/stepgrid/internal/scope"
)

// Engine executes scenarios. It holds no per-scenario state and may be shared
// by all workers.
type Engine struct {
	catalog   *catalog.Catalog
	binder    *outline.Binder
	scope     *scope.Scope
	gates     *gate.Registry
	owners    OwnerResolver
	listeners []Listener
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithListeners appends lifecycle listeners. They are notified in order.
func WithListeners(ls ...Listener) Option {
	return func(e *Engine) { e.listeners = append(e.listeners, ls...) }
}

// WithOwners replaces the owner resolver.
func WithOwners(o OwnerResolver) Option {
	return func(e *Engine) { e.owners = o }
}

// WithGates makes the gate registry available to step targets through their
// context.
func WithGates(r *gate.Registry) Option {
	return func(e *Engine) { e.gates = r }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine.
func New(cat *catalog.Catalog, binder *outline.Binder, sc *scope.Scope, opts ...Option) *Engine {
	e := &Engine{
		catalog: cat,
		binder:  binder,
		scope:   sc,
		owners:  NewScopedOwners(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes sc on the calling goroutine. The scope key is taken from ctx;
// a fresh one is used when ctx carries none.
//
// A step failure is reported in the returned result, never as an error. The
// error is non-nil only when a panic escaped step handling, such as a
// panicking listener. Cancellation of ctx stops the scenario between steps
// and is not an error either.
func (e *Engine) Run(ctx context.Context, sc *model.Scenario) (res *result.Scenario, err error) {
	key, ok := scope.KeyFromContext(ctx)
	if !ok {
		key = scope.Key{Group: "adhoc", Worker: uuid.NewString()}
	}
	ctx = scope.WithKey(scope.WithScope(ctx, e.scope), key)
	if e.gates != nil {
		ctx = gate.WithRegistry(ctx, e.gates)
	}

	e.scope.Clear(ctx, key)

	res = result.NewScenario(sc)
	res.Start = e.now()
	e.scope.SetScenario(key, res)
	if corr, ok := e.scope.Correlation(key); ok {
		ctx = ctxlog.With(ctx, "correlation", corr)
	}
	logger := ctxlog.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("🔥 Scenario aborted by panic.", "scenario", sc.Name, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("scenario %q aborted: %v", sc.Name, r)
		}
		res.End = e.now()
		if aerr := e.afterScenario(ctx, res); aerr != nil && err == nil {
			err = aerr
		}
		e.scope.Clear(ctx, key)
	}()

	for _, l := range e.listeners {
		l.BeforeScenario(ctx, res)
	}

	for i, st := range sc.Steps {
		// Checked between every pair of steps, so cancellation during a step
		// stops the scenario before the next one starts.
		if ctx.Err() != nil {
			logger.Warn("Scenario interrupted, remaining steps not run.", "scenario", sc.Name, "completed", len(res.Steps), "remaining", len(sc.Steps)-i)
			break
		}

		for _, l := range e.listeners {
			l.BeforeStep(ctx, res, st)
		}

		var sr *result.Step
		if i == 0 || res.Last().Status == result.Passed {
			sr = e.execute(ctx, sc, st)
		} else {
			now := e.now()
			sr = &result.Step{Step: st, Start: now, End: now, Status: result.Skipped}
		}
		res.Steps = append(res.Steps, sr)

		for _, l := range e.listeners {
			l.AfterStep(ctx, res, sr)
		}
	}

	return res, nil
}

// afterScenario emits AfterScenario, converting a listener panic to an error.
func (e *Engine) afterScenario(ctx context.Context, res *result.Scenario) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Error("🔥 AfterScenario listener panicked.", "panic", r)
			err = fmt.Errorf("after-scenario listener panicked: %v", r)
		}
	}()
	for _, l := range e.listeners {
		l.AfterScenario(ctx, res)
	}
	return nil
}

// execute resolves, binds and invokes one step and classifies the outcome.
func (e *Engine) execute(ctx context.Context, sc *model.Scenario, st model.Step) *result.Step {
	sr := &result.Step{Step: st, Start: e.now()}
	defer func() { sr.End = e.now() }()

	resolved, err := e.catalog.Resolve(sc, st)
	if err != nil {
		sr.Status, sr.Err = result.Failed, err
		return sr
	}
	if resolved.Unimplemented() {
		sr.Status, sr.Err = result.Skipped, catalog.NewUnimplementedStepError(sc, st)
		return sr
	}
	sr.Definition = resolved.Definition.Target()

	value, err := e.invoke(ctx, sc, st, resolved)
	switch {
	case err == nil:
		sr.Status = result.Passed
	case errors.Is(err, catalog.ErrUnimplementedStep):
		sr.Status = result.Skipped
	default:
		sr.Status = result.Failed
	}
	sr.Err = err

	a, ok, aerr := result.ArtifactOf(value)
	if aerr != nil {
		ctxlog.FromContext(ctx).Warn("Could not capture step artifact.", "step", st.String(), "error", aerr)
	}
	if ok {
		sr.Artifacts = append(sr.Artifacts, a)
	}
	return sr
}

// invoke binds arguments and calls the target, converting a panic into an
// error.
func (e *Engine) invoke(ctx context.Context, sc *model.Scenario, st model.Step, res *catalog.Resolved) (value any, err error) {
	args, err := e.binder.Bind(sc, st, res)
	if err != nil {
		return nil, err
	}

	var owner reflect.Value
	if t := res.Definition.Owner(); t != nil {
		owner, err = e.owners.Owner(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("resolving owner %s: %w", t, err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Debug("Step target panicked.", "step", st.String(), "panic", r, "stack", string(debug.Stack()))
			value, err = nil, fmt.Errorf("step panicked: %v", r)
		}
	}()
	return res.Definition.Invoke(ctx, owner, args)
}
