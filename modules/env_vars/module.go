// Package env_vars provides steps for reading and overriding environment
// variables. Overrides are scenario-local and never touch the process
// environment, so concurrent scenarios cannot observe each other's values.
package env_vars

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/stepgrid/internal/catalog"
	"github.com/vk/stepgrid/internal/scope"
)

const overlayBean = "env_vars:overlay"

// Module is the step source for this package.
type Module struct{}

// RegisterSteps registers the module's steps with the catalog.
func (m *Module) RegisterSteps(r *catalog.Registrar) {
	r.Given(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, setVar)
	r.Step(`^the environment variable "([^"]*)" is defined$`, requireVar)
	r.Step(`^the environment variable "([^"]*)" should be "([^"]*)"$`, expectVar)
}

func overlay(ctx context.Context) (map[string]string, error) {
	return scope.Bean(ctx, overlayBean, func() (map[string]string, error) {
		return make(map[string]string), nil
	})
}

// Lookup returns the value of name, preferring a scenario-local override over
// the process environment.
func Lookup(ctx context.Context, name string) (string, bool) {
	if env, err := overlay(ctx); err == nil {
		if v, ok := env[name]; ok {
			return v, true
		}
	}
	return os.LookupEnv(name)
}

// Expand replaces ${var} and $var in s using Lookup. Unknown variables expand
// to the empty string.
func Expand(ctx context.Context, s string) string {
	return os.Expand(s, func(name string) string {
		v, _ := Lookup(ctx, name)
		return v
	})
}

func setVar(ctx context.Context, name, value string) error {
	env, err := overlay(ctx)
	if err != nil {
		return err
	}
	env[name] = value
	return nil
}

func requireVar(ctx context.Context, name string) error {
	if _, ok := Lookup(ctx, name); !ok {
		return fmt.Errorf("environment variable '%s' is not defined", name)
	}
	return nil
}

func expectVar(ctx context.Context, name, want string) error {
	got, ok := Lookup(ctx, name)
	if !ok {
		return fmt.Errorf("environment variable '%s' is not defined", name)
	}
	if got != want {
		return fmt.Errorf("environment variable '%s' is %q, expected %q", name, got, want)
	}
	return nil
}
