// Package gate_steps exposes named admission gates to feature files. A gate
// taken by a scenario is released when the scenario scope is torn down, even
// if the scenario fails before its explicit release step.
package gate_steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/stepgrid/internal/catalog"
	"github.com/vk/stepgrid/internal/ctxlog"
	"github.com/vk/stepgrid/internal/gate"
	"github.com/vk/stepgrid/internal/scope"
)

// ErrGateBusy is returned by the non-blocking take step when no permit is free.
var ErrGateBusy = errors.New("gate has no free permit")

// Module is the step source for this package.
type Module struct{}

// RegisterSteps registers the module's steps with the catalog.
func (m *Module) RegisterSteps(r *catalog.Registrar) {
	r.Given(`^I hold gate "([^"]*)"$`, holdGate)
	r.When(`^I try to take gate "([^"]*)"$`, tryGate)
	r.When(`^I release gate "([^"]*)"$`, releaseGate)
	r.Step(`^gate "([^"]*)" should have (\S+) free permits?$`, expectFree)
}

func lookup(ctx context.Context, name string) (*gate.Gate, gate.Holder, error) {
	reg := gate.FromContext(ctx)
	if reg == nil {
		return nil, "", errors.New("no gate registry in context")
	}
	key, ok := scope.KeyFromContext(ctx)
	if !ok {
		return nil, "", scope.ErrNoScope
	}
	return reg.Gate(name), gate.Holder(key.String()), nil
}

// Hold blocks until the scenario carried by ctx holds a permit of the named
// gate. acquired reports whether this call took the permit; when the scenario
// already held it, release is a no-op and the existing hold stays in place.
// A permit taken here is returned on the first call of release or when the
// scenario scope is cleared, whichever comes first.
func Hold(ctx context.Context, name string) (release func(), acquired bool, err error) {
	g, h, err := lookup(ctx, name)
	if err != nil {
		return nil, false, err
	}
	logger := ctxlog.FromContext(ctx).With("gate", name, "holder", string(h))
	if g.Holds(h) {
		logger.Debug("Gate permit already held.")
		return func() {}, false, nil
	}
	logger.Debug("Waiting for gate permit.", "waiting", g.Waiting())
	if err := g.Wait(ctx, h); err != nil {
		return nil, false, fmt.Errorf("waiting for gate '%s': %w", name, err)
	}
	logger.Debug("Gate permit acquired.")
	if err := track(ctx, g, h); err != nil {
		return nil, false, err
	}
	return func() { releaseHeld(ctx, g, h) }, true, nil
}

// track ties a freshly taken permit to the scenario scope.
func track(ctx context.Context, g *gate.Gate, h gate.Holder) error {
	if err := scope.OnDestroy(ctx, callbackName(g), func() { g.Release(h) }); err != nil {
		g.Release(h)
		return err
	}
	return nil
}

// releaseHeld returns the permit and drops its teardown callback so that a
// later take is not undone by a stale one.
func releaseHeld(ctx context.Context, g *gate.Gate, h gate.Holder) {
	_, _ = scope.Forget(ctx, callbackName(g))
	g.Release(h)
}

func callbackName(g *gate.Gate) string {
	return "gate:" + g.Name()
}

func holdGate(ctx context.Context, name string) error {
	_, _, err := Hold(ctx, name)
	return err
}

func tryGate(ctx context.Context, name string) error {
	g, h, err := lookup(ctx, name)
	if err != nil {
		return err
	}
	if g.Holds(h) {
		return nil
	}
	if !g.Acquire(h) {
		return fmt.Errorf("gate '%s': %w", name, ErrGateBusy)
	}
	return track(ctx, g, h)
}

func releaseGate(ctx context.Context, name string) error {
	g, h, err := lookup(ctx, name)
	if err != nil {
		return err
	}
	releaseHeld(ctx, g, h)
	return nil
}

func expectFree(ctx context.Context, name string, want int) error {
	g, _, err := lookup(ctx, name)
	if err != nil {
		return err
	}
	if got := g.Available(); got != want {
		return fmt.Errorf("gate '%s' has %d free permits, expected %d", name, got, want)
	}
	return nil
}
