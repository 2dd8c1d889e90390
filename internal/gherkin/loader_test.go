package gherkin

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/stepgrid/internal/model"
)

const checkoutFeature = `@shop
Feature: Checkout

  Background:
    Given a clean cart

  Scenario: Single item
    When I add 1 item
    Then the total is 10

  @slow
  Scenario Outline: Many items
    When I add <count> items
    But the coupon <coupon> is applied
    Then the total is <total>

    Examples: small
      | count | coupon | total |
      | 2     | none   | 20    |
      | 3     | TEN    | 20    |
`

func TestCompile(t *testing.T) {
	scenarios, err := Compile(strings.NewReader(checkoutFeature), "features/checkout.feature")
	require.NoError(t, err)
	require.Len(t, scenarios, 3)

	single := scenarios[0]
	assert.Equal(t, "Single item", single.Name)
	assert.Equal(t, 7, single.Line)
	assert.Equal(t, []string{"@shop"}, single.Tags)
	assert.False(t, single.IsOutline())
	assert.Equal(t, []model.Step{
		{Keyword: model.Given, Text: "a clean cart", Line: 5},
		{Keyword: model.When, Text: "I add 1 item", Line: 8},
		{Keyword: model.Then, Text: "the total is 10", Line: 9},
	}, single.Steps)

	wantOutline := &model.Outline{
		Name: "Many items",
		Line: 12,
		Examples: []model.ExampleTable{{
			Name:   "small",
			Line:   17,
			Header: []string{"count", "coupon", "total"},
			Rows: []model.ExampleRow{
				{Line: 19, Cells: []string{"2", "none", "20"}},
				{Line: 20, Cells: []string{"3", "TEN", "20"}},
			},
		}},
	}

	for i, line := range []int{19, 20} {
		sc := scenarios[i+1]
		require.True(t, sc.IsOutline())
		assert.Equal(t, line, sc.ExampleLine)
		assert.Equal(t, []string{"@shop", "@slow"}, sc.Tags)
		assert.True(t, sc.HasTag("slow"))
		if diff := cmp.Diff(wantOutline, sc.Outline); diff != "" {
			t.Errorf("outline mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, []model.Step{
			{Keyword: model.Given, Text: "a clean cart", Line: 5},
			{Keyword: model.When, Text: "I add <count> items", Line: 13},
			{Keyword: model.But, Text: "the coupon <coupon> is applied", Line: 14},
			{Keyword: model.Then, Text: "the total is <total>", Line: 15},
		}, sc.Steps, "outline steps keep their template text")
	}

	ids := map[string]bool{}
	for _, sc := range scenarios {
		assert.NotEmpty(t, sc.ID)
		assert.Equal(t, "features/checkout.feature", sc.URI)
		ids[sc.ID] = true
	}
	assert.Len(t, ids, 3)
}

func TestCompile_Rule(t *testing.T) {
	src := `Feature: Rules
  Rule: discounts
    Background:
      Given a member
    Scenario: member price
      Then the price is 9
`
	scenarios, err := Compile(strings.NewReader(src), "rules.feature")
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Equal(t, []string{"a member", "the price is 9"}, texts(scenarios[0]))
}

func TestCompile_Empty(t *testing.T) {
	scenarios, err := Compile(strings.NewReader("# nothing here\n"), "empty.feature")
	require.NoError(t, err)
	assert.Empty(t, scenarios)
}

func TestCompile_SyntaxError(t *testing.T) {
	_, err := Compile(strings.NewReader("Feature: broken\n  Scenario: x\n    | a | b |\n    Given after table\n  Not a keyword here\n"), "broken.feature")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse feature file broken.feature")
}

func TestLoadFeatures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkout.feature"), []byte(checkoutFeature), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "one.feature"), []byte("Feature: One\n  Scenario: only\n    Given a step\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	scenarios, err := LoadFeatures(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 4)

	names := make([]string, len(scenarios))
	for i, sc := range scenarios {
		names[i] = sc.Name
	}
	assert.Empty(t, cmp.Diff([]string{"Single item", "Many items", "Many items", "only"}, names, cmpopts.SortSlices(func(a, b string) bool { return a < b })))

	_, err = LoadFeatures(context.Background(), filepath.Join(dir, "missing"))
	require.Error(t, err)
}

func texts(sc *model.Scenario) []string {
	out := make([]string, len(sc.Steps))
	for i, st := range sc.Steps {
		out[i] = st.Text
	}
	return out
}
