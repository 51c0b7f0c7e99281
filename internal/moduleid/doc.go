// Package moduleid defines the typed identifiers used for modules and
// plugins throughout the build.
//
// Module names are derived from directory layout (a top-level group,
// optionally followed by one auto-discovered subdirectory), and the same
// string ends up serving three distinct purposes: a display name for
// diagnostics, a key for uniqueness checks, and a compile-time identity
// token injected into translation units. Keeping the identifier opaque here
// prevents the "token for compiler" and "display name" representations from
// being confused or accidentally colliding.
package moduleid
