// Package toolchain is the boundary to the host compiler and linker. The
// orchestrator decides what to build; the toolchain decides how a single
// compile, archive or shared-link step is carried out.
package toolchain

import "context"

// Define is one preprocessor definition passed to a compile step. Values are
// passed through verbatim, so a string-valued define must already carry its
// quotes.
type Define struct {
	Name  string
	Value string
}

// CompileSpec describes a single source-to-object compilation.
type CompileSpec struct {
	// Source is the translation unit to compile.
	Source string
	// Object is the output artifact path.
	Object string
	// IncludeDirs are added to the preprocessor search path, in order.
	IncludeDirs []string
	// Defines are injected into the translation unit, in order.
	Defines []Define
}

// Toolchain abstracts the host build tools. Implementations must be safe for
// concurrent use; the executor invokes them from parallel workers.
type Toolchain interface {
	// Compile compiles one translation unit into one object artifact.
	Compile(ctx context.Context, spec CompileSpec) error
	// Archive folds object artifacts into a static aggregate library.
	Archive(ctx context.Context, objects []string, out string) error
	// LinkShared links object artifacts into an independently loadable
	// artifact, resolving symbols against the given libraries.
	LinkShared(ctx context.Context, objects []string, libs []string, out string) error
}
