package http_client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/stepgrid/internal/catalog"
	"github.com/vk/stepgrid/internal/config"
	"github.com/vk/stepgrid/internal/convert"
	"github.com/vk/stepgrid/internal/engine"
	"github.com/vk/stepgrid/internal/gate"
	"github.com/vk/stepgrid/internal/gherkin"
	"github.com/vk/stepgrid/internal/outline"
	"github.com/vk/stepgrid/internal/result"
	"github.com/vk/stepgrid/internal/scope"
	"github.com/vk/stepgrid/modules/env_vars"
	"github.com/vk/stepgrid/modules/gate_steps"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/hello", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Echo", r.Header.Get("X-Token"))
		fmt.Fprintf(w, "hello %s", r.Method)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, _ := io.ReadAll(r.Body)
		fmt.Fprintf(w, "%s %d %s", r.Header.Get("Content-Type"), r.ContentLength, body)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func runFeature(t *testing.T, mod *Module, src string) []*result.Scenario {
	t.Helper()
	ctx := context.Background()
	cat, err := catalog.Build(ctx, catalog.Options{UnimplementedFatal: true}, mod, &env_vars.Module{}, &gate_steps.Module{})
	require.NoError(t, err)
	gates, err := gate.NewRegistry(map[string]int{"api": 1})
	require.NoError(t, err)

	eng := engine.New(cat, outline.NewBinder(convert.NewConverter()), scope.New("host", "http"),
		engine.WithOwners(engine.NewScopedOwners(mod)),
		engine.WithGates(gates),
	)

	scenarios, err := gherkin.Compile(strings.NewReader(src), "http.feature")
	require.NoError(t, err)

	var out []*result.Scenario
	for _, sc := range scenarios {
		res, err := eng.Run(ctx, sc)
		require.NoError(t, err)
		out = append(out, res)
	}
	return out
}

func TestSteps_RequestAndAssertions(t *testing.T) {
	srv := newServer(t)
	mod := New(config.HTTP{BaseURL: srv.URL})

	results := runFeature(t, mod, `
Feature: http
  Scenario: greeting
    Given the request header "X-Token" is "abc"
    When I send a get request to "/hello"
    Then the response status should be 200
    And the response body should contain "hello GET"
    And the response header "X-Echo" should be "abc"
`)
	require.Len(t, results, 1)
	res := results[0]
	for _, s := range res.Steps {
		require.NoError(t, s.Err, s.Step.Text)
	}
	assert.Equal(t, result.Passed, res.Status())

	send := res.Steps[1]
	require.Len(t, send.Artifacts, 1)
	assert.Contains(t, string(send.Artifacts[0].Data), "hello GET")
}

func TestSteps_StatusMismatchFailsAndSkipsRest(t *testing.T) {
	srv := newServer(t)
	mod := New(config.HTTP{BaseURL: srv.URL})

	res := runFeature(t, mod, `
Feature: http
  Scenario: missing
    When I send a GET request to "/missing"
    Then the response status should be 200
    And the response body should contain "anything"
`)[0]

	assert.Equal(t, result.Failed, res.Status())
	assert.Equal(t, result.Failed, res.Steps[1].Status)
	assert.Contains(t, res.Steps[1].Err.Error(), "response status is 404, expected 200")
	assert.Equal(t, result.Skipped, res.Steps[2].Status)
}

func TestSteps_OutlineAndVariables(t *testing.T) {
	srv := newServer(t)
	t.Setenv("STEPGRID_TEST_BASE", srv.URL)
	mod := New(config.HTTP{})

	results := runFeature(t, mod, `
Feature: http
  Scenario Outline: status by path
    Given the base URL is "${STEPGRID_TEST_BASE}"
    When I send a GET request to "<path>" through gate "api"
    Then the response status should be <status>
    And gate "api" should have 1 free permit

    Examples:
      | path     | status |
      | /hello   | 200    |
      | /missing | 404    |
`)
	require.Len(t, results, 2)
	for _, res := range results {
		for _, s := range res.Steps {
			require.NoError(t, s.Err, s.Step.Text)
		}
	}
}

func TestSteps_SendThroughGateKeepsExplicitHold(t *testing.T) {
	srv := newServer(t)
	mod := New(config.HTTP{BaseURL: srv.URL})

	res := runFeature(t, mod, `
Feature: http
  Scenario: held gate
    Given I hold gate "api"
    When I send a GET request to "/hello" through gate "api"
    Then the response status should be 200
    And gate "api" should have 0 free permits
    When I release gate "api"
    Then gate "api" should have 1 free permit
`)[0]

	for _, s := range res.Steps {
		require.NoError(t, s.Err, s.Step.Text)
	}
	assert.Equal(t, result.Passed, res.Status())
}

func TestSteps_ScenariosDoNotShareState(t *testing.T) {
	srv := newServer(t)
	mod := New(config.HTTP{BaseURL: srv.URL})

	results := runFeature(t, mod, `
Feature: http
  Scenario: first
    When I send a GET request to "/hello"

  Scenario: second
    Then the response status should be 200
`)
	require.Len(t, results, 2)
	assert.Equal(t, result.Passed, results[0].Status())
	assert.Equal(t, result.Failed, results[1].Status())
	assert.Contains(t, results[1].Steps[0].Err.Error(), "no request has been sent")
	assert.Nil(t, mod.client, "the registered prototype must never get a client")
}

func TestResolve(t *testing.T) {
	m := &Module{BaseURL: "http://example.com/api/"}
	ctx := context.Background()

	got, err := m.resolve(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/api/users", got)

	got, err = m.resolve(ctx, "https://other.example.com/x")
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.com/x", got)

	_, err = (&Module{}).resolve(ctx, "/relative")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no base URL is set")
}

func TestSteps_Upload(t *testing.T) {
	srv := newServer(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"ok":true}`), 0o600))
	t.Setenv("STEPGRID_TEST_UPLOAD", src)

	mod := New(config.HTTP{BaseURL: srv.URL})
	res := runFeature(t, mod, `
Feature: http
  Scenario: upload
    When I upload the file "${STEPGRID_TEST_UPLOAD}" to "/upload"
    Then the response body should contain "application/json 11"
`)[0]
	for _, s := range res.Steps {
		require.NoError(t, s.Err, s.Step.Text)
	}
}

func TestSteps_UploadRejected(t *testing.T) {
	srv := newServer(t)
	src := filepath.Join(t.TempDir(), "blob.bin")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))

	m := &Module{BaseURL: srv.URL}
	defer m.Dispose()
	_, err := m.upload(context.Background(), src, "/hello/../missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload failed with status: 404")
}
