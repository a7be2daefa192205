// This file translates HCL schema structs into the format-agnostic
// configuration model defined in the config package.

package hcl

import (
	"context"
	"fmt"

	"github.com/vk/plugridgo/internal/config"
	"github.com/vk/plugridgo/internal/schema"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// translateBootstrap converts the HCL bootstrap schema into the agnostic model.
func translateBootstrap(b *schema.Bootstrap) *config.Bootstrap {
	return &config.Bootstrap{
		AutoDeployDir: b.AutoDeployDir,
		Watch:         b.Watch,
	}
}

// translatePluginDefinition converts an HCL plugin block into the agnostic
// model, resolving property types and validating defaults against them.
func translatePluginDefinition(ctx context.Context, p *schema.PluginDefinition, source string) (*config.PluginDefinition, error) {
	def := &config.PluginDefinition{
		Type:        p.Type,
		Description: p.Description,
		Handler:     p.Handler,
		Extends:     p.Extends,
		Implements:  p.Implements,
		Properties:  make(map[string]*config.PropertyDefinition),
		Source:      source,
	}
	if p.Settings != nil {
		def.Settings = p.Settings.Body
	}

	for _, prop := range p.Properties {
		translated, err := translatePropertyDefinition(ctx, prop, p.Type)
		if err != nil {
			return nil, err
		}
		if _, dup := def.Properties[translated.Name]; dup {
			return nil, fmt.Errorf("plugin %q declares property %q twice", p.Type, translated.Name)
		}
		def.Properties[translated.Name] = translated
	}
	return def, nil
}

// translatePropertyDefinition processes a single property block, parsing its
// type expression and checking any default value conforms to that type.
func translatePropertyDefinition(ctx context.Context, prop *schema.PropertyDefinition, owner string) (*config.PropertyDefinition, error) {
	parsedType, err := typeExprToCtyType(ctx, prop.Type)
	if err != nil {
		return nil, fmt.Errorf("plugin %q, property %q: %w", owner, prop.Name, err)
	}

	var defaultVal *cty.Value
	var optional bool
	if prop.Default != nil && !prop.Default.IsNull() {
		val := *prop.Default
		if !parsedType.Equals(cty.DynamicPseudoType) {
			converted, err := convert.Convert(val, parsedType)
			if err != nil {
				return nil, fmt.Errorf("plugin %q, property %q: default does not conform to declared type %s: %w",
					owner, prop.Name, parsedType.FriendlyName(), err)
			}
			val = converted
		}
		defaultVal = &val
		optional = true
	}

	return &config.PropertyDefinition{
		Name:        prop.Name,
		Type:        parsedType,
		Description: prop.Description,
		Default:     defaultVal,
		Optional:    optional,
	}, nil
}
