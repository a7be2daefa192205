// Package app wires the extension layer together: logger, capability
// catalog, factory registry, configuration loader, job-scoped cache, and
// shutdown hooks. It encapsulates application lifecycle so the CLI stays a
// thin argument parser.
package app
