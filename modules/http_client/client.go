package http_client

import (
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

type client struct {
	http    *http.Client
	headers http.Header
}

func newClient(timeout time.Duration) *client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &client{
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		headers: make(http.Header),
	}
}

func (c *client) close() {
	c.http.CloseIdleConnections()
}

// ensureClient lazily creates the scenario's client.
func (m *Module) ensureClient() *client {
	if m.client == nil {
		m.client = newClient(m.Timeout)
	}
	return m.client
}
