// Package testutil provides the shared integration-test harness: a
// thread-safe log buffer, an in-memory fake toolchain, and a runner that
// drives a full build from an in-memory file tree.
package testutil

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/vk/solverforge/internal/app"
	"github.com/vk/solverforge/internal/fsutil"
	"github.com/vk/solverforge/internal/hcl_adapter"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	Fs        afero.Fs
	Toolchain *FakeToolchain
	App       *app.App
	Config    *app.Config
}

// WriteTree writes a map of relative-path to content into fs.
func WriteTree(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, fsutil.WriteFile(fs, name, []byte(content)))
	}
}

// RunIntegrationTest provides a standardized harness for running a full
// build from an in-memory tree using a default background context. The
// files map must contain the project file at cfg.ConfigPath.
func RunIntegrationTest(t *testing.T, files map[string]string, cfg app.Config) *HarnessResult {
	t.Helper()
	fs := afero.NewMemMapFs()
	WriteTree(t, fs, files)
	return RunBuild(context.Background(), t, fs, NewFakeToolchain(fs), cfg)
}

// RunBuild runs one build against an existing filesystem and toolchain,
// letting a test drive successive incremental builds over the same tree.
func RunBuild(ctx context.Context, t *testing.T, fs afero.Fs, tc *FakeToolchain, cfg app.Config) *HarnessResult {
	t.Helper()

	if cfg.ConfigPath == "" {
		cfg.ConfigPath = "forge.hcl"
	}
	if cfg.RootDir == "" {
		cfg.RootDir = "."
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "out"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 4
	}

	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	out := &SafeBuffer{}
	forgeApp := app.NewApp(out, appConfig, hcl_adapter.NewLoader(fs), fs, tc)
	runErr := forgeApp.Run(ctx, appConfig)

	return &HarnessResult{
		LogOutput: out.String(),
		Err:       runErr,
		Fs:        fs,
		Toolchain: tc,
		App:       forgeApp,
		Config:    appConfig,
	}
}
