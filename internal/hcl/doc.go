// Package hcl implements the config.Loader interface for HCL bootstrap
// files and plugin manifests.
package hcl
