package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/vk/plugridgo/internal/capability"
)

// Module is the interface all compiled-in plugin modules implement to be
// registered.
type Module interface {
	Register(r *FactoryRegistry)
}

// Constructor holds the compiled Go parts of a plugin: a factory for its
// settings struct and the function that builds a live service from it.
type Constructor struct {
	// NewSettings returns a pointer to a fresh settings struct. Manifest
	// settings are decoded into it before construction. Nil means the
	// plugin takes no settings.
	NewSettings func() any

	// SettingsType is the settings struct type, used for manifest parity
	// validation.
	SettingsType reflect.Type

	// New builds the live service instance. The settings argument is the
	// decoded struct returned by NewSettings, or nil.
	New func(ctx context.Context, settings any) (any, error)
}

// FactoryRegistry holds the registered constructors, capability names, and
// the capability graph for a single application instance.
type FactoryRegistry struct {
	constructors map[string]*Constructor
	capabilities map[string]reflect.Type
	graph        *capability.Graph
}

// NewFactoryRegistry creates and initializes a new FactoryRegistry instance.
func NewFactoryRegistry() *FactoryRegistry {
	return &FactoryRegistry{
		constructors: make(map[string]*Constructor),
		capabilities: make(map[string]reflect.Type),
		graph:        capability.NewGraph(),
	}
}

// RegisterConstructor registers a Go constructor under the handler name
// manifests refer to it by.
func (r *FactoryRegistry) RegisterConstructor(name string, c *Constructor) {
	if _, exists := r.constructors[name]; exists {
		panic(fmt.Sprintf("plugin constructor with name '%s' already registered", name))
	}
	slog.Debug("Registering plugin constructor.", "name", name)
	r.constructors[name] = c
}

// Constructor returns the constructor registered under name.
func (r *FactoryRegistry) Constructor(name string) (*Constructor, bool) {
	c, ok := r.constructors[name]
	return c, ok
}

// RegisterCapability registers the Go interface type for a capability name,
// making the name usable in manifest `extends` and `implements` clauses.
func (r *FactoryRegistry) RegisterCapability(name string, iface reflect.Type) {
	if _, exists := r.capabilities[name]; exists {
		panic(fmt.Sprintf("capability with name '%s' already registered", name))
	}
	slog.Debug("Registering capability.", "name", name, "interface", iface.String())
	r.capabilities[name] = iface
}

// CapabilityType resolves a capability name to its Go interface type.
func (r *FactoryRegistry) CapabilityType(name string) (reflect.Type, bool) {
	t, ok := r.capabilities[name]
	return t, ok
}

// Graph returns the capability graph that deployments declare ancestry into.
func (r *FactoryRegistry) Graph() *capability.Graph {
	return r.graph
}
