package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/stepgrid/internal/catalog"
	"github.com/vk/stepgrid/internal/executor"
)

// tallySteps records which scenarios ran.
type tallySteps struct {
	mu  *sync.Mutex
	ran map[string]int
}

func newTally() *tallySteps {
	return &tallySteps{mu: &sync.Mutex{}, ran: make(map[string]int)}
}

func (s *tallySteps) RegisterSteps(r *catalog.Registrar) {
	r.Given(`^scenario "([^"]*)" runs$`, s.runs)
	r.Then(`^it fails$`, func() error { return fmt.Errorf("failed on purpose") })
	r.Then(`^it passes$`, func() {})
}

func (s *tallySteps) runs(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ran[name]++
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const mixedFeature = `
Feature: mixed
  Scenario: good one
    Given scenario "good one" runs
    Then it passes

  Scenario: bad one
    Given scenario "bad one" runs
    Then it fails

  Scenario: pending one
    Given scenario "pending one" runs
    Then nobody implemented this
`

func TestNewConfig(t *testing.T) {
	_, err := NewConfig(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FeaturesPath is a required")

	_, err = NewConfig(Config{FeaturesPath: "x", NameFilter: "("})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid name filter")

	_, err = NewConfig(Config{FeaturesPath: "x", WorkerCount: -1})
	require.Error(t, err)

	cfg, err := NewConfig(Config{FeaturesPath: "x", NameFilter: "^smoke"})
	require.NoError(t, err)
	assert.Equal(t, "^smoke", cfg.NameFilter)
}

func TestRun_ReportsFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mixed.feature", mixedFeature)

	tally := newTally()
	a, logs := SetupAppTest(t, &Config{FeaturesPath: dir, WorkerCount: 2}, tally)

	summary, err := a.Run(context.Background())
	require.ErrorIs(t, err, ErrScenariosFailed)
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Passed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, map[string]int{"good one": 1, "bad one": 1, "pending one": 1}, tally.ran)

	out := logs.String()
	assert.Contains(t, out, "Scenario did not pass.")
	assert.Contains(t, out, "failed on purpose")
	assert.Contains(t, out, "Execution finished.")
}

func TestRun_SkippedIsNotAFailureUnlessStrict(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pending.feature", `
Feature: pending
  Scenario: pending one
    Given scenario "pending one" runs
    Then nobody implemented this
`)

	a, _ := SetupAppTest(t, &Config{FeaturesPath: dir}, newTally())
	summary, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)

	strict, _ := SetupAppTest(t, &Config{FeaturesPath: dir, Strict: true}, newTally())
	summary, err = strict.Run(context.Background())
	require.ErrorIs(t, err, ErrScenariosFailed)
	assert.Equal(t, 1, summary.Failed, "strict mode makes unimplemented steps fatal")
}

func TestRun_NameFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mixed.feature", mixedFeature)

	tally := newTally()
	a, _ := SetupAppTest(t, &Config{FeaturesPath: dir, NameFilter: "^good"}, tally)

	summary, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, summary.Results, 1)
	assert.Equal(t, map[string]int{"good one": 1}, tally.ran)
}

func TestRun_NoScenarios(t *testing.T) {
	a, logs := SetupAppTest(t, &Config{FeaturesPath: t.TempDir()}, newTally())
	summary, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summary.Results)
	assert.Contains(t, logs.String(), "No scenarios found")
}

func TestNewApp_Settings(t *testing.T) {
	dir := t.TempDir()
	settings := writeFile(t, dir, "settings/stepgrid.hcl", `
runner {
  suite   = "smoke"
  workers = 3
}

gate "db" {
  permits = 2
}
`)

	a, _ := SetupAppTest(t, &Config{FeaturesPath: dir, SettingsPath: filepath.Dir(settings)}, newTally())
	assert.Equal(t, 3, a.workers)
	assert.Equal(t, "smoke", a.Settings().Runner.Suite)
	assert.Equal(t, 2, a.gates.Gate("db").Permits())

	override, _ := SetupAppTest(t, &Config{FeaturesPath: dir, SettingsPath: filepath.Dir(settings), WorkerCount: 7}, newTally())
	assert.Equal(t, 7, override.workers)
}

func TestNewApp_PanicsOnInvalidGate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.hcl", `
gate "db" {
  permits = 0
}
`)
	assert.PanicsWithError(t, "gate configuration invalid:\n- gate 'db': permits must be at least 1, got 0", func() {
		SetupAppTest(t, &Config{FeaturesPath: dir, SettingsPath: dir}, newTally())
	})
}

func TestNewApp_PanicsOnDuplicateDefinitions(t *testing.T) {
	assert.Panics(t, func() {
		SetupAppTest(t, &Config{FeaturesPath: t.TempDir()}, newTally(), newTally())
	})
}

func TestHealthcheckHandlers(t *testing.T) {
	a, _ := SetupAppTest(t, &Config{FeaturesPath: t.TempDir()}, newTally())
	mux := a.healthMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/progress", nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var p executor.Progress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, executor.Progress{}, p)
}

func TestRun_CoreModulesEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "pong %s", r.URL.Path)
	}))
	defer srv.Close()

	dir := t.TempDir()
	writeFile(t, dir, "settings/http.hcl", fmt.Sprintf(`
http {
  base_url = %q
}

gate "api" {
  permits = 1
}
`, srv.URL))
	writeFile(t, dir, "features/ping.feature", `
Feature: ping
  Scenario Outline: ping <path>
    Given the environment variable "TARGET" is set to "<path>"
    When I send a GET request to "${TARGET}" through gate "api"
    Then the response status should be 200
    And the response body should contain "pong <path>"
    And I print "pinged ${TARGET}"

    Examples:
      | path |
      | /a   |
      | /b   |
      | /c   |
`)

	a, _ := SetupAppTest(t, &Config{
		FeaturesPath: filepath.Join(dir, "features"),
		SettingsPath: filepath.Join(dir, "settings"),
		WorkerCount:  3,
	})
	summary, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Passed)
	assert.Equal(t, 1, a.gates.Gate("api").Available())
}
