// Package testutil provides the shared harness and step libraries used by the
// integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/stepgrid/internal/app"
	"github.com/vk/stepgrid/internal/catalog"
	"github.com/vk/stepgrid/internal/executor"
	"github.com/vk/stepgrid/internal/hcl_adapter"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	Summary   *executor.Summary
	App       *app.App
}

// Options tweak the app configuration used by the harness.
type Options struct {
	Workers    int
	Strict     bool
	NameFilter string
}

// RunIntegrationTest provides a standardized harness for running integration
// tests using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, opts Options, sources ...catalog.Source) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, opts, sources...)
}

// RunIntegrationTestWithContext writes files into a temporary tree and runs
// the app over it. Paths under "features/" are feature files and paths under
// "settings/" are HCL settings. With no sources the core step libraries are
// used.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, opts Options, sources ...catalog.Source) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	featuresDir := filepath.Join(tmpDir, "features")
	settingsDir := filepath.Join(tmpDir, "settings")
	require.NoError(t, os.Mkdir(featuresDir, 0755))
	require.NoError(t, os.Mkdir(settingsDir, 0755))

	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	cfg := &app.Config{
		FeaturesPath: featuresDir,
		SettingsPath: settingsDir,
		LogLevel:     "debug",
		LogFormat:    "text",
		WorkerCount:  opts.Workers,
		Strict:       opts.Strict,
		NameFilter:   opts.NameFilter,
	}

	logBuffer := &app.SafeBuffer{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(logBuffer, cfg, hcl_adapter.NewLoader(), sources...)
	}()

	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
		}
	}

	summary, runErr := testApp.Run(ctx)

	if os.Getenv("STEPGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		Summary:   summary,
		App:       testApp,
	}
}
