// Package print provides steps that write values to the log and attach them
// to the step result.
package print

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/stepgrid/internal/catalog"
	"github.com/vk/stepgrid/internal/ctxlog"
	"github.com/vk/stepgrid/internal/result"
	"github.com/vk/stepgrid/modules/env_vars"
)

// Module is the step source for this package.
type Module struct{}

// RegisterSteps registers the module's steps with the catalog.
func (m *Module) RegisterSteps(r *catalog.Registrar) {
	r.Step(`^I print "(.*)"$`, printMessage)
	r.Step(`^I print the variables "([^"]*)"$`, printVariables)
}

func printMessage(ctx context.Context, msg string) result.Artifact {
	msg = env_vars.Expand(ctx, msg)
	ctxlog.FromContext(ctx).Info("Printing message", "message", msg)
	return result.Artifact{Name: "message", MediaType: "text/plain", Data: []byte(msg)}
}

// printVariables prints a comma separated list of variables, sorted by name.
func printVariables(ctx context.Context, names string) result.Artifact {
	var keys []string
	for _, n := range strings.Split(names, ",") {
		if n = strings.TrimSpace(n); n != "" {
			keys = append(keys, n)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v, ok := env_vars.Lookup(ctx, k)
		if !ok {
			fmt.Fprintf(&b, "%s = (null)\n", k)
			continue
		}
		fmt.Fprintf(&b, "%s = %q\n", k, v)
	}
	ctxlog.FromContext(ctx).Info("Printing variables", "count", len(keys))
	return result.Artifact{Name: "variables", MediaType: "text/plain", Data: []byte(b.String())}
}
