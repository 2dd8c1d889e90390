// Package socketio_client provides steps that talk to a socket.io server.
// Each scenario opens its own connection, which is closed when the scenario
// scope is torn down.
package socketio_client

import (
	"sync"
	"time"

	"github.com/vk/stepgrid/internal/catalog"
	"github.com/vk/stepgrid/internal/config"
	"github.com/zishang520/socket.io-client-go/socket"
)

const defaultConnectTimeout = 15 * time.Second

// Module is the step source for this package. The exported fields are the
// defaults every scenario starts from.
type Module struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration

	conn *socket.Socket
	mu   *sync.Mutex
	// inbox holds one buffered channel per event being listened for.
	inbox map[string]chan any
}

// New creates the module from the socketio settings block.
func New(s config.SocketIO) *Module {
	return &Module{
		URL:                s.URL,
		Namespace:          s.Namespace,
		InsecureSkipVerify: s.InsecureSkipVerify,
		ConnectTimeout:     s.ConnectTimeout,
	}
}

// RegisterSteps registers all of the module's steps with the catalog.
func (m *Module) RegisterSteps(r *catalog.Registrar) {
	r.Given(`^a socket\.io connection$`, (*Module).connectDefault)
	r.Given(`^a socket\.io connection to "([^"]*)"$`, (*Module).connect)
	r.Step(`^I listen for the "([^"]*)" event$`, (*Module).listen)
	r.When(`^I emit "([^"]*)"$`, (*Module).emit)
	r.When(`^I emit "([^"]*)" with '(.*)'$`, (*Module).emitJSON)
	r.Step(`^I should receive the "([^"]*)" event within (\S+)$`, (*Module).receive)
}

// Dispose disconnects the scenario's socket.
func (m *Module) Dispose() error {
	if m.conn != nil {
		m.conn.Disconnect()
		m.conn = nil
	}
	return nil
}
