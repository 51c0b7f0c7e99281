// Package discovery enumerates the build's modules from the directory tree.
//
// Modules are defined implicitly by filesystem layout: an explicitly
// configured group directory is itself a module, while a group flagged as
// auto-discoverable contributes one module per immediate subdirectory of its
// `src` path. Discovery runs exactly once per build and produces an
// explicit, sorted list of Module records; later stages never re-scan the
// tree for structural decisions. All reads go through an injected afero.Fs,
// so the engine is testable against an in-memory tree.
package discovery
