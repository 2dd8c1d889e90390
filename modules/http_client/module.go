// Package http_client provides steps that issue HTTP requests and assert on
// the last response. Each scenario gets its own client, which is closed when
// the scenario scope is torn down.
package http_client

import (
	"time"

	"github.com/vk/stepgrid/internal/catalog"
	"github.com/vk/stepgrid/internal/config"
)

// Module is the step source for this package. The exported fields are the
// defaults every scenario starts from.
type Module struct {
	BaseURL string
	Timeout time.Duration

	client *client
	last   *response
}

// New creates the module from the http settings block.
func New(s config.HTTP) *Module {
	return &Module{BaseURL: s.BaseURL, Timeout: s.Timeout}
}

// RegisterSteps registers all of the module's steps with the catalog.
// Assertions match any keyword so they can be chained with And and But.
func (m *Module) RegisterSteps(r *catalog.Registrar) {
	r.Given(`^the base URL is "([^"]*)"$`, (*Module).setBaseURL)
	r.Step(`^the request header "([^"]*)" is "([^"]*)"$`, (*Module).setHeader)
	r.When(`^I send a (\S+) request to "([^"]*)"$`, (*Module).send)
	r.When(`^I send a (\S+) request to "([^"]*)" through gate "([^"]*)"$`, (*Module).sendThroughGate)
	r.When(`^I upload the file "([^"]*)" to "([^"]*)"$`, (*Module).upload)
	r.Step(`^the response status should be (\S+)$`, (*Module).expectStatus)
	r.Step(`^the response body should contain "([^"]*)"$`, (*Module).expectBodyContains)
	r.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, (*Module).expectHeader)
}

// Dispose closes the scenario's idle connections.
func (m *Module) Dispose() error {
	if m.client != nil {
		m.client.close()
		m.client = nil
	}
	return nil
}
