package runtime

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/plugridgo/internal/config"
)

// validateDefinition performs a strict parity check between a plugin
// manifest and the Go constructor it names. It checks both the presence of
// declared properties and the compatibility of their types, so manifests and
// compiled plugins cannot drift apart silently.
func validateDefinition(def *config.PluginDefinition, c *Constructor) error {
	var errs []string

	if c.SettingsType == nil {
		if len(def.Properties) > 0 {
			return fmt.Errorf("manifest declares properties, but handler %q has no settings struct", def.Handler)
		}
		return nil
	}

	goFields := make(map[string]reflect.StructField)
	for i := 0; i < c.SettingsType.NumField(); i++ {
		field := c.SettingsType.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("hcl")
		tagName := strings.Split(tag, ",")[0]
		if tagName != "" && tagName != "-" {
			goFields[tagName] = field
		}
	}

	for name := range goFields {
		if _, ok := def.Properties[name]; !ok {
			errs = append(errs, fmt.Sprintf("settings struct has field for property '%s' which is not declared in manifest", name))
		}
	}
	for name := range def.Properties {
		if _, ok := goFields[name]; !ok {
			errs = append(errs, fmt.Sprintf("manifest declares property '%s' which is not found in settings struct", name))
		}
	}

	for name, prop := range def.Properties {
		goField, ok := goFields[name]
		if !ok {
			continue // already reported above
		}

		if prop.Type.Equals(cty.DynamicPseudoType) {
			// 'type = any' disables static checking for this property.
			continue
		}

		goFieldType, err := gocty.ImpliedType(reflect.Zero(goField.Type).Interface())
		if err != nil {
			errs = append(errs, fmt.Sprintf("property '%s': could not imply cty type from Go field type %s: %v", name, goField.Type, err))
			continue
		}

		if !prop.Type.Equals(goFieldType) {
			errs = append(errs, fmt.Sprintf("property '%s': type mismatch, manifest requires '%s' but Go field '%s' provides '%s'",
				name, prop.Type.FriendlyName(), goField.Name, goFieldType.FriendlyName()))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("manifest validation for plugin %q failed:\n- %s", def.Type, strings.Join(errs, "\n- "))
	}
	return nil
}
