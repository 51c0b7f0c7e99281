package app_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/solverforge/internal/app"
	"github.com/vk/solverforge/internal/linker"
	"github.com/vk/solverforge/internal/testutil"
)

// projectTree is a small but complete source tree: a statically configured
// group, an auto-discovered group with one submodule carrying test
// fixtures, and a toolbox module deployed as a plugin.
func projectTree() map[string]string {
	return map[string]string{
		"forge.hcl": `
project "Solvers" {
  mode = "shared"

  group "Assembly" {
    defines = { ASSEMBLY_OPT = "1" }
  }

  group "KSPSolvers" {
    auto_discover = true
  }

  group "Toolbox" {}

  toolbox "Toolbox" {
    modules = ["Toolbox"]
  }
}
`,
		"Assembly/src/Matrix.c":                            "int matrix;\n",
		"Assembly/src/Assembly.h":                          "extern int matrix;\n",
		"Assembly/src/Matrix.def":                          "component Matrix\n",
		"KSPSolvers/src/BSSCR/Solver.c":                    "int solver;\n",
		"KSPSolvers/src/BSSCR/Solver.h":                    "extern int solver;\n",
		"KSPSolvers/src/BSSCR/tests/expected/residual.dat": "1e-9\n",
		"KSPSolvers/src/BSSCR/tests/input/mesh.dat":        "mesh\n",
		"Toolbox/src/Init.c":                               "void init( void ) {}\n",
	}
}

func TestRunDynamicModeProducesAggregateAndPluginArtifact(t *testing.T) {
	res := testutil.RunIntegrationTest(t, projectTree(), app.Config{})
	require.NoError(t, res.Err)

	for _, artifact := range []string{
		"out/lib/libSolvers.a",
		"out/lib/Solvers_Toolboxmodule" + linker.SharedExt(),
		"out/include/Solvers/Assembly/Assembly.h",
		"out/include/Solvers/Assembly/Matrix.def",
		"out/include/Solvers/KSPSolvers/BSSCR/Solver.h",
		"out/tests/Solvers/KSPSolvers/BSSCR/expected/residual.dat",
		"out/tests/Solvers/KSPSolvers/BSSCR/input/mesh.dat",
		app.StatePath("out"),
	} {
		exists, err := afero.Exists(res.Fs, artifact)
		require.NoError(t, err)
		assert.True(t, exists, "expected artifact %s", artifact)
	}

	// The plugin member's objects stay out of the aggregate.
	require.Len(t, res.Toolchain.Archives, 1)
	assert.NotContains(t, res.Toolchain.Archives[0].Objects, "out/obj/Toolbox/Init.o")
	require.Len(t, res.Toolchain.Links, 1)
	assert.Equal(t, []string{"out/obj/Toolbox/Init.o"}, res.Toolchain.Links[0].Objects)
}

func TestRunGroupDefinesReachTheCompiler(t *testing.T) {
	res := testutil.RunIntegrationTest(t, projectTree(), app.Config{})
	require.NoError(t, res.Err)

	var found bool
	for _, spec := range res.Toolchain.Compiles {
		if spec.Source != "Assembly/src/Matrix.c" {
			continue
		}
		found = true
		names := make(map[string]string)
		for _, d := range spec.Defines {
			names[d.Name] = d.Value
		}
		assert.Equal(t, `"Assembly"`, names["MODULE_NAME"])
		assert.Equal(t, "1", names["ASSEMBLY_OPT"])
	}
	assert.True(t, found, "Assembly source was not compiled")
}

func TestRunStaticModeOverrideGeneratesRegistry(t *testing.T) {
	res := testutil.RunIntegrationTest(t, projectTree(), app.Config{ModeOverride: "static"})
	require.NoError(t, res.Err)

	generated, err := afero.ReadFile(res.Fs, "out/generated/Solvers_plugin_registry.c")
	require.NoError(t, err)
	assert.Contains(t, string(generated), "Toolbox_Register")
	assert.Contains(t, string(generated), "SolversPluginRegistryCount")

	assert.Empty(t, res.Toolchain.Links, "static mode must not link shared artifacts")
	require.Len(t, res.Toolchain.Archives, 1)
	assert.Contains(t, res.Toolchain.Archives[0].Objects, "out/obj/Toolbox/Init.o")
	assert.Contains(t, res.Toolchain.Archives[0].Objects, "out/obj/generated/Solvers_plugin_registry.o")
}

func TestRunSecondBuildIsIncremental(t *testing.T) {
	res := testutil.RunIntegrationTest(t, projectTree(), app.Config{})
	require.NoError(t, res.Err)
	require.NotEmpty(t, res.Toolchain.Compiles)

	res.Toolchain.Reset()
	second := testutil.RunBuild(context.Background(), t, res.Fs, res.Toolchain, app.Config{})
	require.NoError(t, second.Err)

	assert.Empty(t, second.Toolchain.Compiles, "unchanged tree must not recompile")
	assert.Empty(t, second.Toolchain.Archives, "unchanged tree must not rearchive")
	assert.Empty(t, second.Toolchain.Links, "unchanged tree must not relink")
}

func TestRunDescriptorEditRebuildsItsModule(t *testing.T) {
	res := testutil.RunIntegrationTest(t, projectTree(), app.Config{})
	require.NoError(t, res.Err)

	require.NoError(t, afero.WriteFile(res.Fs, "Assembly/src/Matrix.def", []byte("component Matrix v2\n"), 0o644))

	res.Toolchain.Reset()
	second := testutil.RunBuild(context.Background(), t, res.Fs, res.Toolchain, app.Config{})
	require.NoError(t, second.Err)

	assert.Equal(t, []string{"Assembly/src/Matrix.c"}, second.Toolchain.CompiledSources())
}

func TestRunPlanOnlyExecutesNothing(t *testing.T) {
	res := testutil.RunIntegrationTest(t, projectTree(), app.Config{PlanOnly: true})
	require.NoError(t, res.Err)

	assert.Empty(t, res.Toolchain.Compiles)
	assert.Empty(t, res.Toolchain.Archives)
	assert.Empty(t, res.Toolchain.Links)
	assert.Contains(t, res.LogOutput, "plan: ")
	assert.Contains(t, res.LogOutput, "compile.Assembly.Matrix.c")
}

func TestRunPartialFailureKeepsIndependentWork(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteTree(t, fs, projectTree())
	tc := testutil.NewFakeToolchain(fs)
	tc.FailSources["Toolbox/src/Init.c"] = assert.AnError

	res := testutil.RunBuild(context.Background(), t, fs, tc, app.Config{})
	require.Error(t, res.Err)

	// The unaffected module's objects were still produced.
	exists, err := afero.Exists(fs, "out/obj/Assembly/Matrix.o")
	require.NoError(t, err)
	assert.True(t, exists)

	// Fixing the failure and rebuilding finishes the plugin artifact
	// without redoing the unaffected module.
	delete(tc.FailSources, "Toolbox/src/Init.c")
	tc.Reset()
	second := testutil.RunBuild(context.Background(), t, fs, tc, app.Config{})
	require.NoError(t, second.Err)
	assert.Equal(t, []string{"Toolbox/src/Init.c"}, second.Toolchain.CompiledSources())

	exists, err = afero.Exists(fs, "out/lib/Solvers_Toolboxmodule"+linker.SharedExt())
	require.NoError(t, err)
	assert.True(t, exists)
}
