package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/plugridgo/internal/config"
	"github.com/vk/plugridgo/internal/ctxlog"
	"github.com/vk/plugridgo/internal/fsutil"
	"github.com/vk/plugridgo/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot decodes all recognised top-level blocks from any file, so a
// bootstrap block and plugin manifests may share a file or be split apart.
type fileRoot struct {
	Bootstrap *schema.Bootstrap          `hcl:"bootstrap,block"`
	Plugins   []*schema.PluginDefinition `hcl:"plugin,block"`
	Remain    hcl.Body                   `hcl:",remain"`
}

// Load orchestrates the HCL loading process. It is agnostic to the origin of
// the paths: each may be a single .hcl file or a directory searched
// recursively.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := config.NewModel()

	files, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		part := config.NewModel()
		if root.Bootstrap != nil {
			part.Bootstrap = translateBootstrap(root.Bootstrap)
		}
		for _, plugin := range root.Plugins {
			def, err := translatePluginDefinition(ctx, plugin, file)
			if err != nil {
				return nil, err
			}
			part.Plugins[def.Type] = def
		}

		if err := model.Merge(part); err != nil {
			return nil, fmt.Errorf("in %s: %w", file, err)
		}
	}

	logger.Debug("HCL loading complete.", "plugins", len(model.Plugins), "has_bootstrap", model.Bootstrap != nil)
	return model, nil
}

// findAllHCLFiles flattens the given paths into a deduplicated list of .hcl
// files. A missing path is not an error; a configured directory may simply
// not exist yet.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})

	add := func(p string) {
		if _, dup := seen[p]; !dup {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if info.IsDir() {
			found, err := fsutil.FindFilesByExtension(path, ".hcl")
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				add(f)
			}
		} else if filepath.Ext(path) == ".hcl" {
			add(path)
		}
	}
	return allFiles, nil
}
