package catalog

import (
	"context"
	"fmt"
	"reflect"
	"runtime"

	"github.com/dlclark/regexp2"
	"github.com/vk/stepgrid/internal/model"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Definition is a registered (keyword, pattern, target) triple.
type Definition struct {
	Keyword model.Keyword
	Pattern string

	re     *regexp2.Regexp
	fn     reflect.Value
	owner  reflect.Type
	hasCtx bool
	params []reflect.Type
	name   string
}

// Owner returns the declaring type of a method-expression target, or nil when
// the target is a plain function or a bound method value.
func (d *Definition) Owner() reflect.Type {
	return d.owner
}

// Params returns the declared step parameter types, excluding the owner and a
// leading context.Context.
func (d *Definition) Params() []reflect.Type {
	return d.params
}

// GroupCount returns the number of capture groups in the pattern.
func (d *Definition) GroupCount() int {
	return len(d.re.GetGroupNumbers()) - 1
}

// Target returns the qualified name of the target function.
func (d *Definition) Target() string {
	return d.name
}

// String renders the definition for diagnostics.
func (d *Definition) String() string {
	return fmt.Sprintf("%s /%s/ -> %s %s", d.Keyword, d.Pattern, d.name, d.fn.Type())
}

// Invoke calls the target. owner must be valid when Owner is non-nil. The
// returned value is the target's non-error result, if any.
func (d *Definition) Invoke(ctx context.Context, owner reflect.Value, args []reflect.Value) (any, error) {
	in := make([]reflect.Value, 0, len(args)+2)
	if d.owner != nil {
		if !owner.IsValid() {
			return nil, fmt.Errorf("step target %s requires an instance of %s", d.name, d.owner)
		}
		in = append(in, owner)
	}
	if d.hasCtx {
		in = append(in, reflect.ValueOf(ctx))
	}
	in = append(in, args...)

	out := d.fn.Call(in)

	var value any
	var err error
	for _, o := range out {
		if o.Type() == errorType {
			if !o.IsNil() {
				err = o.Interface().(error)
			}
			continue
		}
		value = o.Interface()
	}
	return value, err
}

// newDefinition inspects fn and compiles pattern. sourceType is the type of
// the registering Source and is used to detect method expressions.
func newDefinition(kw model.Keyword, pattern string, fn any, sourceType reflect.Type, opts Options) (*Definition, error) {
	fv := reflect.ValueOf(fn)
	if !fv.IsValid() || fv.Kind() != reflect.Func || fv.IsNil() {
		return nil, fmt.Errorf("target for %s /%s/ is not a function (got %T)", kw, pattern, fn)
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		return nil, fmt.Errorf("target for %s /%s/ must not be variadic", kw, pattern)
	}

	switch ft.NumOut() {
	case 0, 1:
	case 2:
		if ft.Out(1) != errorType {
			return nil, fmt.Errorf("target for %s /%s/ must return (value, error), got %s", kw, pattern, ft)
		}
	default:
		return nil, fmt.Errorf("target for %s /%s/ returns too many values: %s", kw, pattern, ft)
	}

	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern for %s /%s/: %w", kw, pattern, err)
	}
	if opts.MatchTimeout > 0 {
		re.MatchTimeout = opts.MatchTimeout
	}

	d := &Definition{
		Keyword: kw,
		Pattern: pattern,
		re:      re,
		fn:      fv,
		name:    runtime.FuncForPC(fv.Pointer()).Name(),
	}

	i := 0
	if sourceType != nil && ft.NumIn() > 0 && ft.In(0) == sourceType {
		d.owner = sourceType
		i++
	}
	if ft.NumIn() > i && ft.In(i) == contextType {
		d.hasCtx = true
		i++
	}
	for ; i < ft.NumIn(); i++ {
		d.params = append(d.params, ft.In(i))
	}
	return d, nil
}
