package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/vk/solverforge/internal/fsutil"
	"github.com/vk/solverforge/internal/toolchain"
)

// LinkCall records one LinkShared invocation.
type LinkCall struct {
	Objects []string
	Libs    []string
	Out     string
}

// ArchiveCall records one Archive invocation.
type ArchiveCall struct {
	Objects []string
	Out     string
}

// FakeToolchain is an in-memory toolchain for tests. It records every
// invocation and writes deterministic artifact content through fs so a test
// can assert both what was invoked and what was produced.
type FakeToolchain struct {
	fs afero.Fs

	mu       sync.Mutex
	Compiles []toolchain.CompileSpec
	Archives []ArchiveCall
	Links    []LinkCall

	// FailSources maps a source path to the error its compilation returns.
	FailSources map[string]error
}

// NewFakeToolchain creates a fake toolchain writing artifacts through fs.
func NewFakeToolchain(fs afero.Fs) *FakeToolchain {
	return &FakeToolchain{fs: fs, FailSources: make(map[string]error)}
}

// Compile records the spec and writes an object file whose content encodes
// the source and the defines, so a changed define yields changed output.
func (f *FakeToolchain) Compile(_ context.Context, spec toolchain.CompileSpec) error {
	f.mu.Lock()
	f.Compiles = append(f.Compiles, spec)
	f.mu.Unlock()

	if err := f.FailSources[spec.Source]; err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "object of %s\n", spec.Source)
	for _, d := range spec.Defines {
		fmt.Fprintf(&b, "define %s=%s\n", d.Name, d.Value)
	}
	for _, dir := range spec.IncludeDirs {
		fmt.Fprintf(&b, "include %s\n", dir)
	}
	return fsutil.WriteFile(f.fs, spec.Object, []byte(b.String()))
}

// Archive records the call and writes the aggregate artifact.
func (f *FakeToolchain) Archive(_ context.Context, objects []string, out string) error {
	f.mu.Lock()
	f.Archives = append(f.Archives, ArchiveCall{Objects: append([]string(nil), objects...), Out: out})
	f.mu.Unlock()

	return fsutil.WriteFile(f.fs, out, []byte("archive of "+strings.Join(objects, " ")+"\n"))
}

// LinkShared records the call and writes the loadable artifact.
func (f *FakeToolchain) LinkShared(_ context.Context, objects []string, libs []string, out string) error {
	f.mu.Lock()
	f.Links = append(f.Links, LinkCall{
		Objects: append([]string(nil), objects...),
		Libs:    append([]string(nil), libs...),
		Out:     out,
	})
	f.mu.Unlock()

	return fsutil.WriteFile(f.fs, out, []byte("shared of "+strings.Join(objects, " ")+"\n"))
}

// CompiledSources returns the source paths of all recorded compiles.
func (f *FakeToolchain) CompiledSources() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	srcs := make([]string, 0, len(f.Compiles))
	for _, spec := range f.Compiles {
		srcs = append(srcs, spec.Source)
	}
	return srcs
}

// Reset clears the recorded invocations but keeps the failure plan.
func (f *FakeToolchain) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Compiles = nil
	f.Archives = nil
	f.Links = nil
}
