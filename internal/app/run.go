package app

import (
	"context"
	"fmt"

	"github.com/vk/plugridgo/internal/ctxlog"
	"github.com/vk/plugridgo/internal/job"
)

// Run executes the main application logic: it starts an extension runtime
// for a probe job, reports the first live implementation of every catalogued
// extension point, and classifies each deployed plugin against the catalog.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.StatusPort > 0 {
		a.startStatusServer(ctx)
	}

	j := job.New(a.config.JobName, nil)
	a.logger.Info("Resolving extensions for job.", "job", j.String())

	ad, err := a.cache.AdapterFor(ctx, j)
	if err != nil {
		return fmt.Errorf("failed to initialize extension runtime: %w", err)
	}

	for _, point := range a.catalog.Points() {
		impls := ad.GetExtensions(point)
		if len(impls) == 0 {
			a.logger.Info("No live implementation.", "point", point.String())
			continue
		}
		chain, _ := a.catalog.ChainFor(point)
		a.logger.Info("Extension point resolved.",
			"point", point.String(),
			"implementations", len(impls),
			"first", fmt.Sprintf("%T", impls[0]),
			"chain", chain.String())
	}

	for _, svc := range ad.Instances() {
		point, ok := a.detector.Detect(svc.Instance)
		if !ok {
			a.logger.Warn("Plugin satisfies no catalogued extension point.",
				"plugin", svc.Name, "type", fmt.Sprintf("%T", svc.Instance))
			continue
		}
		a.logger.Info("Plugin classified.",
			"plugin", svc.Name, "type", fmt.Sprintf("%T", svc.Instance), "point", point.String())
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}
