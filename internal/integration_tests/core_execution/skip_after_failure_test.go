package integration_tests

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/stepgrid/internal/app"
	"github.com/vk/stepgrid/internal/catalog"
	"github.com/vk/stepgrid/internal/result"
	"github.com/vk/stepgrid/internal/testutil"
)

type flakySteps struct {
	after atomic.Int32
}

func (f *flakySteps) RegisterSteps(r *catalog.Registrar) {
	r.Given(`^a step that passes$`, func() {})
	r.When(`^a step that fails$`, func() error { return errors.New("boom") })
	r.Then(`^a step that must not run$`, func() { f.after.Add(1) })
}

// Test for: Steps after a failed step are skipped and never invoked.
func TestCoreExecution_StepsAfterFailureAreSkipped(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"features/flaky.feature": `
Feature: flaky
  Background:
    Given a step that passes

  Scenario: failing
    When a step that fails
    Then a step that must not run
`,
	}
	steps := &flakySteps{}

	// --- Act ---
	res := testutil.RunIntegrationTest(t, files, testutil.Options{}, steps)

	// --- Assert ---
	require.ErrorIs(t, res.Err, app.ErrScenariosFailed)
	require.Len(t, res.Summary.Results, 1)

	sc := res.Summary.Results[0]
	require.Len(t, sc.Steps, 3, "background steps are prepended")
	require.Equal(t, result.Passed, sc.Steps[0].Status)
	require.Equal(t, result.Failed, sc.Steps[1].Status)
	require.EqualError(t, sc.Steps[1].Err, "boom")
	require.Equal(t, result.Skipped, sc.Steps[2].Status)
	require.Zero(t, steps.after.Load())
}
