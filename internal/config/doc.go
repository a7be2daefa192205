// Package config defines the format-agnostic configuration model for the
// extension layer: the bootstrap properties that parameterize a plugin
// runtime, and the plugin definitions discovered in the auto-deploy
// directory. Format-specific parsing lives behind the Loader interface so
// tests can substitute fixtures.
package config
