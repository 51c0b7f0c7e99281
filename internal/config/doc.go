// Package config defines the format-agnostic build description model for the
// orchestrator, along with the Loader interface for reading it from a
// concrete format.
//
// The `config.Model` is the single source of truth for the `discovery`,
// `builder` and `linker` packages. Concrete implementations of the Loader,
// such as for HCL, are provided in separate packages.
package config
