package catalog

import (
	"reflect"

	"github.com/vk/stepgrid/internal/model"
)

// Source is implemented by every step library. It is the explicit
// registration pass that builds the catalog.
type Source interface {
	RegisterSteps(r *Registrar)
}

// Registrar collects definitions from one Source at a time.
type Registrar struct {
	opts       Options
	sourceType reflect.Type
	defs       []*Definition
	errs       []string
}

// Given registers a definition bound to the Given keyword.
func (r *Registrar) Given(pattern string, fn any) { r.add(model.Given, pattern, fn) }

// When registers a definition bound to the When keyword.
func (r *Registrar) When(pattern string, fn any) { r.add(model.When, pattern, fn) }

// Then registers a definition bound to the Then keyword.
func (r *Registrar) Then(pattern string, fn any) { r.add(model.Then, pattern, fn) }

// And registers a definition bound to the And keyword.
func (r *Registrar) And(pattern string, fn any) { r.add(model.And, pattern, fn) }

// But registers a definition bound to the But keyword.
func (r *Registrar) But(pattern string, fn any) { r.add(model.But, pattern, fn) }

// Step registers a definition that matches any keyword.
func (r *Registrar) Step(pattern string, fn any) { r.add(model.Any, pattern, fn) }

func (r *Registrar) add(kw model.Keyword, pattern string, fn any) {
	d, err := newDefinition(kw, pattern, fn, r.sourceType, r.opts)
	if err != nil {
		r.errs = append(r.errs, err.Error())
		return
	}
	r.defs = append(r.defs, d)
}
