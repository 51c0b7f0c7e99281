package testassets_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/solverforge/internal/dag"
	"github.com/vk/solverforge/internal/discovery"
	"github.com/vk/solverforge/internal/moduleid"
	"github.com/vk/solverforge/internal/task"
	"github.com/vk/solverforge/internal/testassets"
	"github.com/vk/solverforge/internal/testutil"
)

func fixtureModule() discovery.Module {
	return discovery.Module{
		ID:           moduleid.NewSub("KSPSolvers", "BSSCR"),
		SourceDir:    "KSPSolvers/src/BSSCR",
		TestExpected: []string{"KSPSolvers/src/BSSCR/expected/residual.dat"},
		TestInputs:   []string{"KSPSolvers/src/BSSCR/input/mesh.dat"},
	}
}

func planAndRun(t *testing.T, fs afero.Fs, m discovery.Module) []string {
	t.Helper()
	g := dag.New()
	set := task.NewSet()
	ids := testassets.New(fs, "Solvers", "out").PlanModule(context.Background(), m, g, set)
	for _, id := range ids {
		require.NoError(t, set.Get(id).Run(context.Background()))
	}
	return ids
}

func TestPlanModuleInstallsFixturesPerModule(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteTree(t, fs, map[string]string{
		"KSPSolvers/src/BSSCR/expected/residual.dat": "1e-9\n",
		"KSPSolvers/src/BSSCR/input/mesh.dat":        "mesh\n",
	})

	ids := planAndRun(t, fs, fixtureModule())
	require.Len(t, ids, 2)

	expected, err := afero.ReadFile(fs, "out/tests/Solvers/KSPSolvers/BSSCR/expected/residual.dat")
	require.NoError(t, err)
	assert.Equal(t, "1e-9\n", string(expected))

	input, err := afero.ReadFile(fs, "out/tests/Solvers/KSPSolvers/BSSCR/input/mesh.dat")
	require.NoError(t, err)
	assert.Equal(t, "mesh\n", string(input))
}

func TestPlanModuleWithoutFixturesPlansNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := discovery.Module{ID: moduleid.New("Assembly"), SourceDir: "Assembly/src"}

	g := dag.New()
	set := task.NewSet()
	ids := testassets.New(fs, "Solvers", "out").PlanModule(context.Background(), m, g, set)
	assert.Empty(t, ids)
	assert.Equal(t, 0, set.Len())
}

func TestPlanModuleReinstallIsIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteTree(t, fs, map[string]string{
		"KSPSolvers/src/BSSCR/expected/residual.dat": "1e-9\n",
		"KSPSolvers/src/BSSCR/input/mesh.dat":        "mesh\n",
	})

	planAndRun(t, fs, fixtureModule())
	planAndRun(t, fs, fixtureModule())

	content, err := afero.ReadFile(fs, "out/tests/Solvers/KSPSolvers/BSSCR/input/mesh.dat")
	require.NoError(t, err)
	assert.Equal(t, "mesh\n", string(content))
}

func TestPlanModuleChangedFixtureIsRefreshed(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteTree(t, fs, map[string]string{
		"KSPSolvers/src/BSSCR/expected/residual.dat": "1e-9\n",
		"KSPSolvers/src/BSSCR/input/mesh.dat":        "mesh\n",
	})

	planAndRun(t, fs, fixtureModule())

	require.NoError(t, afero.WriteFile(fs, "KSPSolvers/src/BSSCR/input/mesh.dat", []byte("mesh v2\n"), 0o644))
	planAndRun(t, fs, fixtureModule())

	content, err := afero.ReadFile(fs, "out/tests/Solvers/KSPSolvers/BSSCR/input/mesh.dat")
	require.NoError(t, err)
	assert.Equal(t, "mesh v2\n", string(content))
}
