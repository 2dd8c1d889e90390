package scope

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoScope is returned when a context carries no scope or no key.
var ErrNoScope = errors.New("no scenario scope in context")

type scopeCtxKey struct{}
type keyCtxKey struct{}

// WithScope returns a context carrying s.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeCtxKey{}, s)
}

// FromContext returns the scope carried by ctx, or nil.
func FromContext(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeCtxKey{}).(*Scope)
	return s
}

// WithKey returns a context carrying the worker key.
func WithKey(ctx context.Context, key Key) context.Context {
	return context.WithValue(ctx, keyCtxKey{}, key)
}

// KeyFromContext returns the worker key carried by ctx.
func KeyFromContext(ctx context.Context) (Key, bool) {
	k, ok := ctx.Value(keyCtxKey{}).(Key)
	return k, ok
}

func current(ctx context.Context) (*Scope, Key, error) {
	s := FromContext(ctx)
	key, ok := KeyFromContext(ctx)
	if s == nil || !ok {
		return nil, Key{}, ErrNoScope
	}
	return s, key, nil
}

// Bean returns the scenario-local instance called name for the scope and key
// carried by ctx, creating it with factory on first use.
func Bean[T any](ctx context.Context, name string, factory func() (T, error)) (T, error) {
	var zero T
	s, key, err := current(ctx)
	if err != nil {
		return zero, err
	}
	v, err := s.Get(ctx, key, name, func() (any, error) { return factory() })
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("scoped bean '%s' is %T, not %T", name, v, zero)
	}
	return t, nil
}

// OnDestroy registers cb for the scope and key carried by ctx.
func OnDestroy(ctx context.Context, name string, cb func()) error {
	s, key, err := current(ctx)
	if err != nil {
		return err
	}
	s.RegisterDestructionCallback(ctx, key, name, cb)
	return nil
}

// Forget removes the entry called name for the scope and key carried by ctx,
// running its teardown. It reports whether a bean was removed.
func Forget(ctx context.Context, name string) (bool, error) {
	s, key, err := current(ctx)
	if err != nil {
		return false, err
	}
	_, ok := s.Remove(ctx, key, name)
	return ok, nil
}
