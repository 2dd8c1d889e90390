package http_client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/vk/stepgrid/internal/ctxlog"
	"github.com/vk/stepgrid/modules/env_vars"
	"github.com/vk/stepgrid/modules/gate_steps"
)

type response struct {
	status int
	header http.Header
	body   []byte
}

func (m *Module) setBaseURL(ctx context.Context, base string) error {
	base = env_vars.Expand(ctx, base)
	if _, err := url.Parse(base); err != nil {
		return fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	m.BaseURL = base
	return nil
}

func (m *Module) setHeader(ctx context.Context, name, value string) {
	m.ensureClient().headers.Set(name, env_vars.Expand(ctx, value))
}

// resolve expands variables in target and resolves it against the base URL.
func (m *Module) resolve(ctx context.Context, target string) (string, error) {
	ref, err := url.Parse(env_vars.Expand(ctx, target))
	if err != nil {
		return "", fmt.Errorf("invalid request target %q: %w", target, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	if m.BaseURL == "" {
		return "", fmt.Errorf("request target %q is relative and no base URL is set", target)
	}
	base, err := url.Parse(m.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", m.BaseURL, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// send issues the request. The response is returned so it is attached to the
// step result; its body stays readable.
func (m *Module) send(ctx context.Context, method, target string) (*http.Response, error) {
	method = strings.ToUpper(method)
	target, err := m.resolve(ctx, target)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Making HTTP request.", "method", method, "url", target)

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return m.do(ctx, req)
}

// do sends req with the scenario's default headers and records the response
// as the last one.
func (m *Module) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	c := m.ensureClient()
	for name, values := range c.headers {
		if _, set := req.Header[name]; !set {
			req.Header[name] = append([]string(nil), values...)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	ctxlog.FromContext(ctx).Debug("Received HTTP response.", "method", req.Method, "url", req.URL.String(), "status", resp.Status, "bytes", len(body))

	m.last = &response{status: resp.StatusCode, header: resp.Header.Clone(), body: body}
	return resp, nil
}

func (m *Module) sendThroughGate(ctx context.Context, method, target, gateName string) (*http.Response, error) {
	release, acquired, err := gate_steps.Hold(ctx, gateName)
	if err != nil {
		return nil, err
	}
	if acquired {
		defer release()
	}
	return m.send(ctx, method, target)
}

func (m *Module) lastResponse() (*response, error) {
	if m.last == nil {
		return nil, fmt.Errorf("no request has been sent in this scenario")
	}
	return m.last, nil
}

func (m *Module) expectStatus(want int) error {
	r, err := m.lastResponse()
	if err != nil {
		return err
	}
	if r.status != want {
		return fmt.Errorf("response status is %d, expected %d", r.status, want)
	}
	return nil
}

func (m *Module) expectBodyContains(ctx context.Context, fragment string) error {
	r, err := m.lastResponse()
	if err != nil {
		return err
	}
	fragment = env_vars.Expand(ctx, fragment)
	if !bytes.Contains(r.body, []byte(fragment)) {
		return fmt.Errorf("response body does not contain %q", fragment)
	}
	return nil
}

func (m *Module) expectHeader(name, want string) error {
	r, err := m.lastResponse()
	if err != nil {
		return err
	}
	if got := r.header.Get(name); got != want {
		return fmt.Errorf("response header '%s' is %q, expected %q", name, got, want)
	}
	return nil
}
