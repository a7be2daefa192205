package runtime

import (
	"context"
	"fmt"

	"github.com/vk/plugridgo/internal/config"
	"github.com/vk/plugridgo/internal/job"
)

// HostFactory builds a Host per job, re-reading the bootstrap configuration
// source on every adapter creation.
type HostFactory struct {
	reg           *FactoryRegistry
	loader        config.Loader
	bootstrapPath string

	// Defaults apply when the bootstrap file omits a value or does not
	// exist at all (the auto-deploy dir alone is then the configuration).
	Defaults config.Bootstrap
}

// NewHostFactory creates a factory over the given registry and loader. The
// bootstrap path may name a file or a directory of .hcl files.
func NewHostFactory(reg *FactoryRegistry, loader config.Loader, bootstrapPath string) *HostFactory {
	return &HostFactory{reg: reg, loader: loader, bootstrapPath: bootstrapPath}
}

// New implements Factory. A missing or unreadable bootstrap configuration is
// fatal for the adapter being created, unless defaults cover it.
func (f *HostFactory) New(ctx context.Context, j *job.Job) (Runtime, error) {
	bootstrap := f.Defaults

	if f.bootstrapPath != "" {
		model, err := f.loader.Load(ctx, f.bootstrapPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read bootstrap configuration: %w", err)
		}
		if model.Bootstrap != nil {
			bootstrap = *model.Bootstrap
		}
	}

	if bootstrap.AutoDeployDir == "" {
		return nil, fmt.Errorf("bootstrap configuration %q does not define auto_deploy_dir", f.bootstrapPath)
	}

	return NewHost(j, f.reg, f.loader, &bootstrap), nil
}
