package config

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of everything the
// extension layer reads from configuration: one bootstrap block plus all
// plugin definitions found so far.
type Model struct {
	Bootstrap *Bootstrap
	Plugins   map[string]*PluginDefinition
}

// Bootstrap holds the runtime startup parameters read once per adapter
// creation.
type Bootstrap struct {
	// AutoDeployDir is the directory scanned for plugin manifests when a
	// runtime starts.
	AutoDeployDir string

	// Watch enables hot deployment: the runtime keeps watching the
	// auto-deploy directory for manifest changes while it is running.
	Watch bool
}

// PluginDefinition is the format-agnostic representation of a plugin
// manifest block.
type PluginDefinition struct {
	Type        string
	Description string

	// Handler names the compiled-in Go constructor for this plugin.
	Handler string

	// Extends and Implements declare the plugin's capability ancestry by
	// registered capability name. Implements order is significant: it is
	// the tie-break order for same-depth detection.
	Extends    string
	Implements []string

	// Properties declares the plugin's typed settings contract.
	Properties map[string]*PropertyDefinition

	// Settings is the raw settings body, decoded into the constructor's
	// config struct at deploy time.
	Settings hcl.Body

	// Source is the manifest file the definition came from. Hot undeploy
	// removes all plugins sharing a source.
	Source string
}

// PropertyDefinition declares a single typed setting for a plugin.
type PropertyDefinition struct {
	Name        string
	Type        cty.Type
	Description string
	Default     *cty.Value
	Optional    bool
}

// Merge folds other into m, failing on duplicate plugin types.
func (m *Model) Merge(other *Model) error {
	if other == nil {
		return nil
	}
	if other.Bootstrap != nil {
		if m.Bootstrap != nil {
			return errors.New("duplicate bootstrap block")
		}
		m.Bootstrap = other.Bootstrap
	}
	for name, def := range other.Plugins {
		if _, exists := m.Plugins[name]; exists {
			return fmt.Errorf("duplicate plugin definition %q", name)
		}
		m.Plugins[name] = def
	}
	return nil
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{Plugins: make(map[string]*PluginDefinition)}
}
