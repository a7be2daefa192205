package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/vk/plugridgo/internal/capability"
	"github.com/vk/plugridgo/internal/config"
	"github.com/vk/plugridgo/internal/ctxlog"
	"github.com/vk/plugridgo/internal/job"
)

// ErrStopped is returned when starting a runtime that has already been
// stopped. Runtimes are never restarted; the caller must create a new one.
var ErrStopped = errors.New("runtime already stopped")

type hostState int

const (
	stateNew hostState = iota
	stateRunning
	stateStopped
)

// Host is the default Runtime implementation: it deploys plugins from HCL
// manifests in the bootstrap's auto-deploy directory and, when watching is
// enabled, keeps deploying manifest changes while running.
type Host struct {
	mu        sync.RWMutex
	job       *job.Job
	reg       *FactoryRegistry
	loader    config.Loader
	bootstrap *config.Bootstrap

	state    hostState
	services []Service
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
}

// NewHost creates a runtime for one job. Nothing is deployed until Start.
func NewHost(j *job.Job, reg *FactoryRegistry, loader config.Loader, bootstrap *config.Bootstrap) *Host {
	return &Host{
		job:       j,
		reg:       reg,
		loader:    loader,
		bootstrap: bootstrap,
		logger:    slog.Default(),
	}
}

// Start scans the auto-deploy directory and instantiates every declared
// plugin. A manifest or constructor failure is fatal: partially deployed
// services are torn down and the host is left unusable.
func (h *Host) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case stateRunning:
		return nil
	case stateStopped:
		return ErrStopped
	}

	h.logger = ctxlog.FromContext(ctx).With("job", h.job.ID)
	h.logger.Debug("Runtime starting.", "auto_deploy_dir", h.bootstrap.AutoDeployDir, "watch", h.bootstrap.Watch)

	model, err := h.loader.Load(ctx, h.bootstrap.AutoDeployDir)
	if err != nil {
		h.state = stateStopped
		return fmt.Errorf("failed to load plugin manifests: %w", err)
	}

	for _, def := range sortedDefinitions(model.Plugins) {
		if err := h.deployLocked(ctx, def); err != nil {
			h.closeServicesLocked()
			h.state = stateStopped
			return fmt.Errorf("failed to deploy plugin %q: %w", def.Type, err)
		}
	}

	if h.bootstrap.Watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			h.closeServicesLocked()
			h.state = stateStopped
			return fmt.Errorf("failed to create deploy watcher: %w", err)
		}
		if err := watcher.Add(h.bootstrap.AutoDeployDir); err != nil {
			watcher.Close()
			h.closeServicesLocked()
			h.state = stateStopped
			return fmt.Errorf("failed to watch auto-deploy dir: %w", err)
		}
		h.watcher = watcher
		go h.watchLoop(ctxlog.WithLogger(context.Background(), h.logger), watcher)
	}

	h.state = stateRunning
	h.logger.Info("Runtime started.", "services", len(h.services))
	return nil
}

// Stop tears down the watcher and every live service. It is idempotent;
// teardown failures are logged and returned, never swallowed.
func (h *Host) Stop(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == stateStopped {
		return nil
	}
	h.state = stateStopped

	var errs []error
	if h.watcher != nil {
		if err := h.watcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing deploy watcher: %w", err))
		}
		h.watcher = nil
	}
	errs = append(errs, h.closeServicesLocked()...)

	if len(errs) > 0 {
		err := errors.Join(errs...)
		h.logger.Error("Runtime stop finished with errors.", "error", err)
		return err
	}
	h.logger.Info("Runtime stopped.")
	return nil
}

// Services implements Runtime. The result preserves deployment order, so
// "first live implementation" is stable for the lifetime of the runtime.
func (h *Host) Services(point reflect.Type) []any {
	if point == nil || point.Kind() != reflect.Interface {
		return nil
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []any
	for _, s := range h.services {
		if reflect.TypeOf(s.Instance).Implements(point) {
			out = append(out, s.Instance)
		}
	}
	return out
}

// Instances implements Runtime.
func (h *Host) Instances() []Service {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Service, len(h.services))
	copy(out, h.services)
	return out
}

// deployLocked instantiates one plugin definition and records its declared
// capability ancestry. Callers hold h.mu.
func (h *Host) deployLocked(ctx context.Context, def *config.PluginDefinition) error {
	c, ok := h.reg.Constructor(def.Handler)
	if !ok {
		return fmt.Errorf("no constructor registered for handler %q", def.Handler)
	}
	if err := validateDefinition(def, c); err != nil {
		return err
	}

	var settings any
	if c.NewSettings != nil {
		settings = c.NewSettings()
		if def.Settings != nil {
			if diags := gohcl.DecodeBody(def.Settings, nil, settings); diags.HasErrors() {
				return fmt.Errorf("invalid settings: %w", diags)
			}
		}
	}

	instance, err := c.New(ctx, settings)
	if err != nil {
		return err
	}

	decl, err := h.ancestryFor(def)
	if err != nil {
		return err
	}
	if decl.Extends != nil || len(decl.Implements) > 0 {
		h.reg.Graph().Declare(reflect.TypeOf(instance), decl)
	}

	h.services = append(h.services, Service{Name: def.Type, Instance: instance, Source: def.Source})
	h.logger.Debug("Plugin deployed.", "plugin", def.Type, "handler", def.Handler, "source", def.Source)
	return nil
}

// ancestryFor resolves a definition's capability names into a declaration.
func (h *Host) ancestryFor(def *config.PluginDefinition) (capability.Declaration, error) {
	var decl capability.Declaration
	if def.Extends != "" {
		t, ok := h.reg.CapabilityType(def.Extends)
		if !ok {
			return decl, fmt.Errorf("unknown capability %q in extends", def.Extends)
		}
		decl.Extends = t
	}
	for _, name := range def.Implements {
		t, ok := h.reg.CapabilityType(name)
		if !ok {
			return decl, fmt.Errorf("unknown capability %q in implements", name)
		}
		decl.Implements = append(decl.Implements, t)
	}
	return decl, nil
}

// closeServicesLocked closes every service that owns resources.
func (h *Host) closeServicesLocked() []error {
	var errs []error
	for _, s := range h.services {
		if closer, ok := s.Instance.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing plugin %q: %w", s.Name, err))
			}
		}
	}
	h.services = nil
	return errs
}

// watchLoop reacts to manifest changes in the auto-deploy directory. Hot
// deploy failures are logged, not fatal: a broken manifest must not take
// down a running runtime. The watcher is passed in rather than read from
// the struct so the loop never touches fields Stop mutates; the loop exits
// when the watcher is closed.
func (h *Host) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	logger := ctxlog.FromContext(ctx)

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(ev.Name) != ".hcl" {
				continue
			}
			switch {
			case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write):
				if err := h.deployFile(ctx, ev.Name); err != nil {
					logger.Warn("Hot deploy failed.", "file", ev.Name, "error", err)
				}
			case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
				h.removeSource(ev.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Deploy watcher error.", "error", err)
		}
	}
}

// deployFile loads a single manifest file and deploys its plugins,
// replacing any services previously deployed from the same file.
func (h *Host) deployFile(ctx context.Context, path string) error {
	model, err := h.loader.Load(ctx, path)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != stateRunning {
		return nil
	}

	h.removeSourceLocked(path)
	for _, def := range sortedDefinitions(model.Plugins) {
		if err := h.deployLocked(ctx, def); err != nil {
			return err
		}
	}
	return nil
}

// removeSource undeploys every service that came from the given manifest.
func (h *Host) removeSource(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeSourceLocked(path)
}

func (h *Host) removeSourceLocked(path string) {
	kept := h.services[:0]
	for _, s := range h.services {
		if s.Source != path {
			kept = append(kept, s)
			continue
		}
		if closer, ok := s.Instance.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				h.logger.Warn("Failed to close undeployed plugin.", "plugin", s.Name, "error", err)
			}
		}
		h.logger.Debug("Plugin undeployed.", "plugin", s.Name, "source", path)
	}
	h.services = kept
}

// sortedDefinitions returns plugin definitions ordered by type name, so
// deployment order is deterministic regardless of map iteration.
func sortedDefinitions(plugins map[string]*config.PluginDefinition) []*config.PluginDefinition {
	names := make([]string, 0, len(plugins))
	for name := range plugins {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]*config.PluginDefinition, 0, len(names))
	for _, name := range names {
		defs = append(defs, plugins[name])
	}
	return defs
}
