package compile

import "fmt"

// CompileError reports a failed compilation step. It is fatal for the owning
// module and any plugin depending on it, but the executor lets unrelated
// modules finish before the build result is reported.
type CompileError struct {
	// Module is the owning module's display name.
	Module string
	// Source is the translation unit that failed.
	Source string
	// Err is the underlying toolchain error, which carries the compiler
	// diagnostics.
	Err error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("compiling %s (module %s): %v", e.Source, e.Module, e.Err)
}

// Unwrap exposes the underlying toolchain error.
func (e *CompileError) Unwrap() error {
	return e.Err
}
