package engine

import (
	"context"
	"reflect"

	"github.com/vk/stepgrid/internal/catalog"
	"github.com/vk/stepgrid/internal/scope"
)

// OwnerResolver looks up the instance that owns a method-expression target.
type OwnerResolver interface {
	Owner(ctx context.Context, t reflect.Type) (reflect.Value, error)
}

// ScopedOwners keeps one owner instance per scenario in the scenario scope.
// Instances of a registered source type start as a shallow copy of the
// registered source, so configuration set at registration carries over.
type ScopedOwners struct {
	prototypes map[reflect.Type]reflect.Value
}

// NewScopedOwners records the registered sources as prototypes.
func NewScopedOwners(sources ...catalog.Source) *ScopedOwners {
	o := &ScopedOwners{prototypes: make(map[reflect.Type]reflect.Value)}
	for _, src := range sources {
		v := reflect.ValueOf(src)
		switch {
		case v.Kind() == reflect.Struct:
			o.prototypes[v.Type()] = v
		case v.Kind() == reflect.Pointer && !v.IsNil() && v.Elem().Kind() == reflect.Struct:
			o.prototypes[v.Type()] = v
		}
	}
	return o
}

func (o *ScopedOwners) Owner(ctx context.Context, t reflect.Type) (reflect.Value, error) {
	v, err := scope.Bean(ctx, "owner:"+t.String(), func() (any, error) {
		return o.newInstance(t).Interface(), nil
	})
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(v), nil
}

func (o *ScopedOwners) newInstance(t reflect.Type) reflect.Value {
	if t.Kind() != reflect.Pointer {
		if proto, ok := o.prototypes[t]; ok {
			return proto
		}
		return reflect.New(t).Elem()
	}
	inst := reflect.New(t.Elem())
	if proto, ok := o.prototypes[t]; ok {
		inst.Elem().Set(proto.Elem())
	}
	return inst
}
