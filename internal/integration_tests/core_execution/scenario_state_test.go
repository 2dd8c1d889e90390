package integration_tests

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/stepgrid/internal/catalog"
	"github.com/vk/stepgrid/internal/result"
	"github.com/vk/stepgrid/internal/testutil"
)

// basketSteps keeps per-scenario state in the owner instance.
type basketSteps struct {
	items    []string
	disposed *sync.WaitGroup
}

func (b *basketSteps) RegisterSteps(r *catalog.Registrar) {
	r.Given(`^an empty basket$`, (*basketSteps).empty)
	r.When(`^I add "([^"]*)"$`, (*basketSteps).add)
	r.Step(`^the basket holds (\S+) items?$`, (*basketSteps).holds)
}

func (b *basketSteps) empty() error {
	if len(b.items) != 0 {
		return fmt.Errorf("basket starts with %v", b.items)
	}
	return nil
}

func (b *basketSteps) add(item string) { b.items = append(b.items, item) }

func (b *basketSteps) holds(n int) error {
	if len(b.items) != n {
		return fmt.Errorf("basket holds %d items, want %d", len(b.items), n)
	}
	return nil
}

func (b *basketSteps) Dispose() error {
	b.disposed.Done()
	return nil
}

// Test for: Every scenario gets a fresh owner instance that is disposed at
// the end of the scenario, even when scenarios run concurrently.
func TestCoreExecution_OwnerStateIsScenarioLocal(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"features/basket.feature": `
Feature: basket
  Scenario Outline: adding <count> items
    Given an empty basket
    When I add "<first>"
    And the basket holds 1 item
    When I add "<second>"
    Then the basket holds <count> items

    Examples:
      | first | second | count |
      | apple | pear   | 2     |
      | fig   | kiwi   | 2     |
      | plum  | lime   | 2     |
      | date  | lemon  | 2     |
`,
	}
	var disposed sync.WaitGroup
	disposed.Add(4)
	steps := &basketSteps{disposed: &disposed}

	// --- Act ---
	res := testutil.RunIntegrationTest(t, files, testutil.Options{Workers: 4}, steps)

	// --- Assert ---
	require.NoError(t, res.Err)
	require.Equal(t, 4, res.Summary.Passed)
	disposed.Wait()
	require.Empty(t, steps.items, "the registered prototype must not be mutated")
	for _, sc := range res.Summary.Results {
		require.Equal(t, result.Passed, sc.Status(), sc.Scenario.Name)
	}
}
