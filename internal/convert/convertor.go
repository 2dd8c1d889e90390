package convert

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/zclconf/go-cty/cty"
	ctyconvert "github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Service converts a captured string into a value of the given type.
type Service interface {
	Convert(raw string, t reflect.Type) (reflect.Value, error)
}

// Converter is the cty-backed implementation of Service.
type Converter struct{}

// NewConverter creates a new cty converter.
func NewConverter() *Converter {
	return &Converter{}
}

var (
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	durationType        = reflect.TypeOf(time.Duration(0))
	ctyValueType        = reflect.TypeOf(cty.Value{})
)

// Convert converts raw into a value assignable to t.
func (c *Converter) Convert(raw string, t reflect.Type) (reflect.Value, error) {
	switch {
	case t.Kind() == reflect.String:
		return reflect.ValueOf(raw).Convert(t), nil
	case t.Kind() == reflect.Interface && reflect.TypeOf(raw).AssignableTo(t):
		return reflect.ValueOf(raw), nil
	case t == ctyValueType:
		return reflect.ValueOf(cty.StringVal(raw)), nil
	case t == durationType:
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return reflect.Value{}, fmt.Errorf("cannot convert %q to %s: %w", raw, t, err)
		}
		return reflect.ValueOf(d), nil
	case reflect.PointerTo(t).Implements(textUnmarshalerType):
		out := reflect.New(t)
		if err := out.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
			return reflect.Value{}, fmt.Errorf("cannot convert %q to %s: %w", raw, t, err)
		}
		return out.Elem(), nil
	}

	ty, err := gocty.ImpliedType(reflect.Zero(t).Interface())
	if err != nil {
		return reflect.Value{}, fmt.Errorf("unable to infer cty.Type for %s: %w", t, err)
	}

	val, err := ctyconvert.Convert(cty.StringVal(strings.TrimSpace(raw)), ty)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("cannot convert %q to %s: %w", raw, t, err)
	}

	out := reflect.New(t)
	if err := gocty.FromCtyValue(val, out.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("cannot convert %q to %s: %w", raw, t, err)
	}
	return out.Elem(), nil
}
