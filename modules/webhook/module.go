// Package webhook provides a notifier plugin that POSTs job lifecycle
// events to a configured URL as JSON.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/vk/plugridgo/internal/capability"
	"github.com/vk/plugridgo/internal/ctxlog"
	"github.com/vk/plugridgo/internal/extpoint"
	"github.com/vk/plugridgo/internal/runtime"
)

// Module implements the runtime.Module interface for this package.
type Module struct{}

// Settings defines the manifest settings for the webhook notifier.
type Settings struct {
	URL     string `hcl:"url"`
	Timeout string `hcl:"timeout,optional"`
}

// Notifier delivers events over HTTP.
type Notifier struct {
	capability.Marker
	url    string
	client *http.Client
}

// NewNotifier builds a webhook notifier from decoded settings.
func NewNotifier(ctx context.Context, settings *Settings) (*Notifier, error) {
	if settings.URL == "" {
		return nil, fmt.Errorf("url must not be empty")
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

	return &Notifier{
		url:    settings.URL,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Notify implements extpoint.Notifier.
func (n *Notifier) Notify(ctx context.Context, ev extpoint.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Close implements io.Closer so undeploy releases pooled connections.
func (n *Notifier) Close() error {
	n.client.CloseIdleConnections()
	return nil
}

// Register registers the constructor with the runtime.
func (m *Module) Register(r *runtime.FactoryRegistry) {
	r.RegisterConstructor("NewWebhookNotifier", &runtime.Constructor{
		NewSettings:  func() any { return new(Settings) },
		SettingsType: reflect.TypeOf(Settings{}),
		New: func(ctx context.Context, settings any) (any, error) {
			return NewNotifier(ctx, settings.(*Settings))
		},
	})
}
