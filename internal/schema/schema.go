// Package schema holds the HCL-specific struct definitions that plugin
// manifests and bootstrap files decode into. The hcl package translates
// these into the format-agnostic config model.
package schema

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Bootstrap represents the `bootstrap` block of a bootstrap configuration
// file: the startup parameters for a plugin runtime.
type Bootstrap struct {
	AutoDeployDir string `hcl:"auto_deploy_dir"`
	Watch         bool   `hcl:"watch,optional"`
}

// SettingsBlock carries the raw attribute body of a plugin's `settings`
// block. It is decoded into the plugin constructor's config struct at deploy
// time, not at parse time.
type SettingsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// PropertyDefinition declares a single typed setting in a plugin manifest.
type PropertyDefinition struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Description string         `hcl:"description,optional"`
	Default     *cty.Value     `hcl:"default,optional"`
}

// PluginDefinition represents a `plugin` block from a manifest file.
type PluginDefinition struct {
	Type        string                `hcl:"type,label"`
	Description string                `hcl:"description,optional"`
	Handler     string                `hcl:"handler"`
	Extends     string                `hcl:"extends,optional"`
	Implements  []string              `hcl:"implements,optional"`
	Properties  []*PropertyDefinition `hcl:"property,block"`
	Settings    *SettingsBlock        `hcl:"settings,block"`
}
