package discovery

import "github.com/vk/solverforge/internal/moduleid"

// Module is the immutable record of one discovered module: its identity and
// the classified files found in its source directory. All paths are rooted
// at the engine's filesystem, not relative to the module.
type Module struct {
	// ID is the module's unique identifier, derived from its relative path.
	ID moduleid.ModuleID
	// SourceDir is the directory the module's files were classified from.
	SourceDir string
	// Sources are the primary translation units (test sources and files
	// matching the generated-source suffix convention are excluded).
	Sources []string
	// Headers are the .h files to install.
	Headers []string
	// Descriptors are the .def metadata files. If any are present, every
	// installed header and compiled object of this module depends on all
	// of them.
	Descriptors []string
	// TestInputs and TestExpected are the module's test fixture files.
	TestInputs   []string
	TestExpected []string
}

// HasDescriptors reports whether the module carries metadata descriptors.
func (m *Module) HasDescriptors() bool {
	return len(m.Descriptors) > 0
}

// HasFixtures reports whether the module carries any test fixtures.
func (m *Module) HasFixtures() bool {
	return len(m.TestInputs) > 0 || len(m.TestExpected) > 0
}
