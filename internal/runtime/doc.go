// Package runtime provides the module runtime behind the extension layer:
// a per-job host that scans an auto-deploy directory for plugin manifests,
// instantiates the declared plugins through compiled-in constructors, and
// answers live-service queries by capability type.
//
// The FactoryRegistry is the glue between manifests and Go code: it maps the
// handler names used in manifests to constructor functions, and capability
// names to the Go interface types they stand for. During deployment each
// manifest is validated against its constructor's settings struct, so a
// drift between a manifest and the compiled plugin surfaces as a deploy
// error instead of a silent misconfiguration.
package runtime
