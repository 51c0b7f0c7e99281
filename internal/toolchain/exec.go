package toolchain

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/vk/solverforge/internal/ctxlog"
)

// Exec drives the host C toolchain through subprocesses. It honors the CC
// and AR environment variables and falls back to the conventional tool
// names. Output paths are created on the host filesystem; Exec is only
// meaningful in a build running against the real disk.
type Exec struct {
	CC string
	AR string
}

// NewExec creates a toolchain bound to the host's default tools.
func NewExec() *Exec {
	cc := os.Getenv("CC")
	if cc == "" {
		cc = "cc"
	}
	ar := os.Getenv("AR")
	if ar == "" {
		ar = "ar"
	}
	return &Exec{CC: cc, AR: ar}
}

// CommandError reports a failed toolchain subprocess together with its
// combined output, which is where compilers put their diagnostics.
type CommandError struct {
	Args   []string
	Output string
	Err    error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	return fmt.Sprintf("%v: %v\n%s", e.Args, e.Err, e.Output)
}

// Unwrap exposes the underlying process error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// Compile implements Toolchain.
func (e *Exec) Compile(ctx context.Context, spec CompileSpec) error {
	args := []string{"-c", spec.Source, "-o", spec.Object}
	for _, dir := range spec.IncludeDirs {
		args = append(args, "-I"+dir)
	}
	for _, d := range spec.Defines {
		args = append(args, fmt.Sprintf("-D%s=%s", d.Name, d.Value))
	}
	return e.run(ctx, e.CC, args)
}

// Archive implements Toolchain.
func (e *Exec) Archive(ctx context.Context, objects []string, out string) error {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	args := append([]string{"rcs", out}, objects...)
	return e.run(ctx, e.AR, args)
}

// LinkShared implements Toolchain.
func (e *Exec) LinkShared(ctx context.Context, objects []string, libs []string, out string) error {
	args := []string{"-shared", "-o", out}
	args = append(args, objects...)
	args = append(args, libs...)
	return e.run(ctx, e.CC, args)
}

func (e *Exec) run(ctx context.Context, tool string, args []string) error {
	logger := ctxlog.FromContext(ctx)

	// Output directories are the orchestrator's responsibility in the
	// abstract, but the host tools refuse to create them, so do it here.
	for i, arg := range args {
		if arg == "-o" && i+1 < len(args) {
			if err := os.MkdirAll(filepath.Dir(args[i+1]), 0o755); err != nil {
				return err
			}
		}
	}

	cmd := exec.CommandContext(ctx, tool, args...)
	logger.Debug("Running toolchain command.", "tool", tool, "args", args)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return &CommandError{
			Args:   append([]string{tool}, args...),
			Output: string(out),
			Err:    err,
		}
	}
	return nil
}
