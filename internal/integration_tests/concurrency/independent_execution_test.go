package integration_tests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/stepgrid/internal/testutil"
)

// Test for: Independent scenarios run concurrently on separate workers.
func TestConcurrency_IndependentScenariosOverlap(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"features/sleep.feature": `
Feature: sleepers
  Scenario: A
    Given I sleep as "A"

  Scenario: B
    Given I sleep as "B"
`,
	}
	sleeper := testutil.NewMockSleeperModule(150 * time.Millisecond)

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, testutil.Options{Workers: 2}, sleeper)

	// --- Assert ---
	require.NoError(t, result.Err)
	a, ok := sleeper.Record("A")
	require.True(t, ok)
	b, ok := sleeper.Record("B")
	require.True(t, ok)
	require.True(t, a.Overlaps(b), "scenarios A and B should have run at the same time")
	require.Equal(t, 2, sleeper.Peak())
}

// Test for: A single worker runs scenarios one after another.
func TestConcurrency_SingleWorkerIsSequential(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"features/sleep.feature": `
Feature: sleepers
  Scenario: A
    Given I sleep as "A"

  Scenario: B
    Given I sleep as "B"

  Scenario: C
    Given I sleep as "C"
`,
	}
	sleeper := testutil.NewMockSleeperModule(20 * time.Millisecond)

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, testutil.Options{Workers: 1}, sleeper)

	// --- Assert ---
	require.NoError(t, result.Err)
	require.Equal(t, 3, result.Summary.Passed)
	require.Equal(t, 1, sleeper.Peak())
}
