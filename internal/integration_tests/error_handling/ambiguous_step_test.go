package integration_tests

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/stepgrid/internal/catalog"
	"github.com/vk/stepgrid/internal/result"
	"github.com/vk/stepgrid/internal/testutil"
)

type overlappingSteps struct{}

func (overlappingSteps) RegisterSteps(r *catalog.Registrar) {
	r.When(`^I pay (\d+) euros$`, func(int) {})
	r.When(`^I pay (.+) euros$`, func(string) {})
}

// Test for: A step matched by two definitions fails with every candidate listed.
func TestErrorHandling_AmbiguousStepFails(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"features/pay.feature": `
Feature: pay
  Scenario: ambiguous
    When I pay 10 euros
`,
	}

	// --- Act ---
	res := testutil.RunIntegrationTest(t, files, testutil.Options{}, overlappingSteps{})

	// --- Assert ---
	require.Error(t, res.Err)
	step := res.Summary.Results[0].Steps[0]
	require.Equal(t, result.Failed, step.Status)

	var ambiguous *catalog.AmbiguousStepError
	require.True(t, errors.As(step.Err, &ambiguous))
	require.ErrorIs(t, step.Err, catalog.ErrAmbiguousStep)
	require.Len(t, ambiguous.Candidates, 2)
	require.Equal(t, 4, ambiguous.Line)
}
