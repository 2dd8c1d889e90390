package catalog

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/vk/stepgrid/internal/ctxlog"
	"github.com/vk/stepgrid/internal/model"
)

// Options configures catalog construction and resolution.
type Options struct {
	// UnimplementedFatal makes Resolve return an UnimplementedStepError when no
	// definition matches, instead of the unimplemented sentinel.
	UnimplementedFatal bool
	// MatchTimeout bounds a single pattern evaluation. Zero means no limit.
	MatchTimeout time.Duration
}

// Catalog is the read-only set of step definitions.
type Catalog struct {
	opts Options
	defs []*Definition
}

// Group is one capture group of a match. Matched is false when the group did
// not participate in the match.
type Group struct {
	Value   string
	Matched bool
}

// Resolved is the outcome of resolving a step. Definition is nil for the
// unimplemented sentinel.
type Resolved struct {
	Step       model.Step
	Definition *Definition
	Groups     []Group
}

// Unimplemented reports whether r is the unimplemented sentinel.
func (r *Resolved) Unimplemented() bool {
	return r.Definition == nil
}

type defKey struct {
	keyword model.Keyword
	pattern string
}

// Build runs the registration pass over sources and validates the result.
func Build(ctx context.Context, opts Options, sources ...Source) (*Catalog, error) {
	logger := ctxlog.FromContext(ctx)
	var errs []string
	var defs []*Definition
	seen := make(map[defKey]*Definition)

	for _, src := range sources {
		r := &Registrar{opts: opts, sourceType: reflect.TypeOf(src)}
		src.RegisterSteps(r)
		errs = append(errs, r.errs...)

		for _, d := range r.defs {
			key := defKey{keyword: d.Keyword, pattern: d.Pattern}
			if prev, ok := seen[key]; ok {
				errs = append(errs, fmt.Sprintf("duplicate step definition %s /%s/: %s and %s", d.Keyword, d.Pattern, prev.Target(), d.Target()))
				continue
			}
			seen[key] = d

			if d.GroupCount() != len(d.params) {
				logger.Warn("Step definition can never match: capture group count differs from parameter count.",
					"keyword", d.Keyword.String(), "pattern", d.Pattern, "groups", d.GroupCount(), "params", len(d.params), "target", d.Target())
			}
			defs = append(defs, d)
		}
		logger.Debug("Step source registered.", "source", fmt.Sprintf("%T", src), "definitions", len(r.defs))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("catalog validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	logger.Debug("Step catalog built.", "definitions", len(defs))
	return &Catalog{opts: opts, defs: defs}, nil
}

// Definitions returns the registered definitions in registration order.
func (c *Catalog) Definitions() []*Definition {
	return c.defs
}

// Options returns the options the catalog was built with.
func (c *Catalog) Options() Options {
	return c.opts
}

// Resolve finds the single definition matching st. sc is used for
// diagnostics only and may be nil.
func (c *Catalog) Resolve(sc *model.Scenario, st model.Step) (*Resolved, error) {
	var matches []*Resolved

	for _, d := range c.defs {
		if d.Keyword != model.Any && d.Keyword != st.Keyword {
			continue
		}
		m, err := d.re.FindStringMatch(st.Text)
		if err != nil {
			return nil, fmt.Errorf("evaluating /%s/ against %q: %w", d.Pattern, st.Text, err)
		}
		if m == nil {
			continue
		}
		groups := m.Groups()[1:]
		if len(groups) != len(d.params) {
			continue
		}

		res := &Resolved{Step: st, Definition: d, Groups: make([]Group, len(groups))}
		for i, g := range groups {
			res.Groups[i] = Group{Value: g.String(), Matched: len(g.Captures) > 0}
		}
		matches = append(matches, res)
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		if c.opts.UnimplementedFatal {
			return nil, NewUnimplementedStepError(sc, st)
		}
		return &Resolved{Step: st}, nil
	default:
		candidates := make([]*Definition, len(matches))
		for i, m := range matches {
			candidates[i] = m.Definition
		}
		return nil, &AmbiguousStepError{StepRef: newStepRef(sc, st), Candidates: candidates}
	}
}
