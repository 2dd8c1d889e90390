package socketio_client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/vk/stepgrid/internal/ctxlog"
	"github.com/vk/stepgrid/internal/result"
	"github.com/vk/stepgrid/modules/env_vars"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// inboxSize bounds how many unread payloads are kept per event. Older
// payloads are dropped once it is full.
const inboxSize = 64

var errNotConnected = errors.New("no socket.io connection in this scenario")

// endpoint splits a socket.io URL into the manager base URL and the
// engine.io path.
func endpoint(raw string) (base, path string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", "", fmt.Errorf("socket.io URL %q must be absolute", raw)
	}
	return fmt.Sprintf("%s://%s", u.Scheme, u.Host), u.Path, nil
}

func (m *Module) connectDefault(ctx context.Context) error {
	if m.URL == "" {
		return errors.New("no socket.io URL configured")
	}
	return m.connect(ctx, m.URL)
}

func (m *Module) connect(ctx context.Context, target string) error {
	if m.conn != nil {
		return errors.New("socket.io connection already open in this scenario")
	}
	target = env_vars.Expand(ctx, target)
	logger := ctxlog.FromContext(ctx).With("url", target, "namespace", m.Namespace)

	base, path, err := endpoint(target)
	if err != nil {
		return err
	}

	opts := socket.DefaultOptions()
	if path != "" {
		opts.SetPath(path)
	}
	if m.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	namespace := m.Namespace
	if namespace == "" {
		namespace = "/"
	}

	connected := make(chan error, 1)
	manager := socket.NewManager(base, opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		select {
		case connected <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connected <- err:
		default:
		}
	})

	logger.Debug("Initiating connection...")
	io.Connect()

	timeout := m.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-timer.C:
		io.Disconnect()
		return fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}

	logger.Info("Successfully connected", "sid", io.Id())
	m.conn = io
	m.mu = &sync.Mutex{}
	m.inbox = make(map[string]chan any)
	return nil
}

func (m *Module) listen(ctx context.Context, event string) error {
	if m.conn == nil {
		return errNotConnected
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.inbox[event]; ok {
		return nil
	}
	ch := make(chan any, inboxSize)
	m.inbox[event] = ch
	m.conn.On(types.EventName(event), func(data ...any) {
		var payload any
		if len(data) > 0 {
			payload = data[0]
		}
		deliver(ch, payload)
	})
	ctxlog.FromContext(ctx).Debug("Listening for socket.io event.", "event", event)
	return nil
}

// deliver enqueues payload, dropping the oldest entry when ch is full.
func deliver(ch chan any, payload any) {
	for {
		select {
		case ch <- payload:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (m *Module) emit(ctx context.Context, event string) error {
	if m.conn == nil {
		return errNotConnected
	}
	ctxlog.FromContext(ctx).Debug("Emitting event", "event", event)
	m.conn.Emit(event)
	return nil
}

func (m *Module) emitJSON(ctx context.Context, event, raw string) error {
	if m.conn == nil {
		return errNotConnected
	}
	var data any
	if err := json.Unmarshal([]byte(env_vars.Expand(ctx, raw)), &data); err != nil {
		return fmt.Errorf("payload for '%s' is not valid JSON: %w", event, err)
	}
	ctxlog.FromContext(ctx).Debug("Emitting event", "event", event, "data", raw)
	m.conn.Emit(event, data)
	return nil
}

// receive waits for the next payload of event and returns it as a JSON
// artifact.
func (m *Module) receive(ctx context.Context, event string, within time.Duration) (result.Artifact, error) {
	if m.conn == nil {
		return result.Artifact{}, errNotConnected
	}
	m.mu.Lock()
	ch, ok := m.inbox[event]
	m.mu.Unlock()
	if !ok {
		return result.Artifact{}, fmt.Errorf("not listening for the '%s' event", event)
	}

	timer := time.NewTimer(within)
	defer timer.Stop()

	select {
	case payload := <-ch:
		data, err := json.Marshal(payload)
		if err != nil {
			return result.Artifact{}, fmt.Errorf("encoding '%s' payload: %w", event, err)
		}
		return result.Artifact{Name: event, MediaType: "application/json", Data: data}, nil
	case <-ctx.Done():
		return result.Artifact{}, ctx.Err()
	case <-timer.C:
		return result.Artifact{}, fmt.Errorf("timed out after %s waiting for the '%s' event", within, event)
	}
}
