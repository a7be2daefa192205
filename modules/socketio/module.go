// Package socketio provides a notifier plugin that streams job lifecycle
// events to a Socket.IO endpoint.
package socketio

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"reflect"
	"sync"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/plugridgo/internal/capability"
	"github.com/vk/plugridgo/internal/ctxlog"
	"github.com/vk/plugridgo/internal/extpoint"
	"github.com/vk/plugridgo/internal/runtime"
)

// Module implements the runtime.Module interface for this package.
type Module struct{}

// Settings defines the manifest settings for the socketio notifier.
type Settings struct {
	URL                string `hcl:"url"`
	Namespace          string `hcl:"namespace,optional"`
	EmitEvent          string `hcl:"emit_event,optional"`
	Timeout            string `hcl:"timeout,optional"`
	InsecureSkipVerify bool   `hcl:"insecure_skip_verify,optional"`
}

// Notifier emits every job lifecycle event on a Socket.IO connection. The
// connection is established lazily on the first event and reused afterwards.
type Notifier struct {
	capability.Marker

	settings *Settings
	timeout  time.Duration

	mu sync.Mutex
	io *socket.Socket
}

// NewNotifier builds a socketio notifier from decoded settings. The endpoint
// URL is validated eagerly; the connection itself is deferred.
func NewNotifier(ctx context.Context, settings *Settings) (*Notifier, error) {
	if _, err := url.Parse(settings.URL); err != nil || settings.URL == "" {
		return nil, fmt.Errorf("invalid socketio url %q: %w", settings.URL, err)
	}

	timeout := 10 * time.Second
	if settings.Timeout != "" {
		parsed, err := time.ParseDuration(settings.Timeout)
		if err != nil {
			ctxlog.FromContext(ctx).Warn("Failed to parse timeout, using default 10s.", "timeout", settings.Timeout, "error", err)
		} else {
			timeout = parsed
		}
	}

	return &Notifier{settings: settings, timeout: timeout}, nil
}

// Notify implements extpoint.Notifier.
func (n *Notifier) Notify(ctx context.Context, ev extpoint.Event) error {
	io, err := n.connect(ctx)
	if err != nil {
		return err
	}

	event := n.settings.EmitEvent
	if event == "" {
		event = "job_event"
	}
	return io.Emit(event, map[string]any{
		"kind": ev.Kind,
		"job":  ev.Job.ID,
		"name": ev.Job.Name,
		"meta": ev.Job.Metadata,
		"at":   ev.At.Format(time.RFC3339Nano),
	})
}

// connect establishes the Socket.IO connection once, blocking until the
// server acknowledges it or the configured timeout elapses.
func (n *Notifier) connect(ctx context.Context) (*socket.Socket, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.io != nil {
		return n.io, nil
	}
	logger := ctxlog.FromContext(ctx).With("notifier", "socketio", "url", n.settings.URL)

	parsedURL, err := url.Parse(n.settings.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if n.settings.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(n.settings.Namespace, opts)

	connCh := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Socket.IO connected.", "namespace", n.settings.Namespace, "sid", io.Id())
		connCh <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				connCh <- e
				return
			}
		}
		connCh <- fmt.Errorf("socketio connection failed")
	})

	io.Connect()

	opCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	select {
	case err := <-connCh:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socketio connect: %w", err)
		}
	case <-opCtx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("timed out waiting for socketio connection to %s", baseURL)
	}

	n.io = io
	return io, nil
}

// Close implements io.Closer so undeploy and runtime stop drop the
// connection.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.io != nil {
		n.io.Disconnect()
		n.io = nil
	}
	return nil
}

// Register registers the constructor with the runtime.
func (m *Module) Register(r *runtime.FactoryRegistry) {
	r.RegisterConstructor("NewSocketIONotifier", &runtime.Constructor{
		NewSettings:  func() any { return new(Settings) },
		SettingsType: reflect.TypeOf(Settings{}),
		New: func(ctx context.Context, settings any) (any, error) {
			return NewNotifier(ctx, settings.(*Settings))
		},
	})
}
