package compile_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/solverforge/internal/compile"
	"github.com/vk/solverforge/internal/dag"
	"github.com/vk/solverforge/internal/discovery"
	"github.com/vk/solverforge/internal/executor"
	"github.com/vk/solverforge/internal/moduleid"
	"github.com/vk/solverforge/internal/task"
	"github.com/vk/solverforge/internal/testutil"
)

func assemblyModule() discovery.Module {
	return discovery.Module{
		ID:          moduleid.New("Assembly"),
		SourceDir:   "Assembly/src",
		Sources:     []string{"Assembly/src/Matrix.c", "Assembly/src/Vector.c", "Assembly/src/Stiffness.c"},
		Headers:     []string{"Assembly/src/Assembly.h"},
		Descriptors: []string{"Assembly/src/Matrix.def"},
	}
}

func writeAssemblyTree(t *testing.T, fs afero.Fs) {
	t.Helper()
	testutil.WriteTree(t, fs, map[string]string{
		"Assembly/src/Matrix.c":    "int matrix;\n",
		"Assembly/src/Vector.c":    "int vector;\n",
		"Assembly/src/Stiffness.c": "int stiffness;\n",
		"Assembly/src/Assembly.h":  "extern int matrix;\n",
		"Assembly/src/Matrix.def":  "component Matrix\n",
	})
}

func runPlan(t *testing.T, g *dag.Graph, set *task.Set) {
	t.Helper()
	require.NoError(t, executor.New(g, set, 2).Run(context.Background()))
}

func planAssembly(t *testing.T, fs afero.Fs, tc *testutil.FakeToolchain, state *compile.State, defines map[string]string) (*compile.Unit, *dag.Graph, *task.Set) {
	t.Helper()
	planner := compile.NewPlanner(fs, tc, state, "Solvers", "out")
	g := dag.New()
	set := task.NewSet()
	unit, err := planner.PlanModule(context.Background(), assemblyModule(), defines, g, set)
	require.NoError(t, err)
	return unit, g, set
}

func TestPlanModuleCompilesEverySourceIntoTaggedObject(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeAssemblyTree(t, fs)
	tc := testutil.NewFakeToolchain(fs)

	unit, g, set := planAssembly(t, fs, tc, compile.NewState(), nil)
	runPlan(t, g, set)

	assert.Equal(t, "Assembly", unit.Token)
	require.Equal(t, []string{
		"out/obj/Assembly/Matrix.o",
		"out/obj/Assembly/Vector.o",
		"out/obj/Assembly/Stiffness.o",
	}, unit.Objects)
	for _, obj := range unit.Objects {
		exists, err := afero.Exists(fs, obj)
		require.NoError(t, err)
		assert.True(t, exists, "object %s should exist", obj)
	}

	require.Len(t, tc.Compiles, 3)
	for _, spec := range tc.Compiles {
		assert.Equal(t, []string{"Assembly/src", "out/include"}, spec.IncludeDirs)
		require.NotEmpty(t, spec.Defines)
		assert.Equal(t, "MODULE_NAME", spec.Defines[0].Name)
		assert.Equal(t, `"Assembly"`, spec.Defines[0].Value)
		last := spec.Defines[len(spec.Defines)-1]
		assert.Equal(t, "SOURCE_FILE", last.Name)
	}
}

func TestPlanModuleInstallsHeadersAndDescriptors(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeAssemblyTree(t, fs)
	tc := testutil.NewFakeToolchain(fs)

	_, g, set := planAssembly(t, fs, tc, compile.NewState(), nil)
	runPlan(t, g, set)

	for _, installed := range []string{
		"out/include/Solvers/Assembly/Assembly.h",
		"out/include/Solvers/Assembly/Matrix.def",
	} {
		content, err := afero.ReadFile(fs, installed)
		require.NoError(t, err, "expected %s to be installed", installed)
		assert.NotEmpty(t, content)
	}
}

func TestPlanModuleGroupDefinesAreSortedAfterIdentity(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeAssemblyTree(t, fs)
	tc := testutil.NewFakeToolchain(fs)

	defines := map[string]string{"ZED": "3", "ALPHA": "1"}
	_, g, set := planAssembly(t, fs, tc, compile.NewState(), defines)
	runPlan(t, g, set)

	require.NotEmpty(t, tc.Compiles)
	spec := tc.Compiles[0]
	require.Len(t, spec.Defines, 4)
	assert.Equal(t, "MODULE_NAME", spec.Defines[0].Name)
	assert.Equal(t, "ALPHA", spec.Defines[1].Name)
	assert.Equal(t, "ZED", spec.Defines[2].Name)
	assert.Equal(t, "SOURCE_FILE", spec.Defines[3].Name)
}

func TestPlanModuleSecondRunWithUnchangedInputsDoesNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeAssemblyTree(t, fs)
	tc := testutil.NewFakeToolchain(fs)
	state := compile.NewState()

	_, g, set := planAssembly(t, fs, tc, state, nil)
	runPlan(t, g, set)
	require.Len(t, tc.Compiles, 3)

	tc.Reset()
	_, g, set = planAssembly(t, fs, tc, state, nil)
	runPlan(t, g, set)
	assert.Empty(t, tc.Compiles, "unchanged inputs must not recompile")
}

func TestPlanModuleSourceEditRecompilesOnlyThatSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeAssemblyTree(t, fs)
	tc := testutil.NewFakeToolchain(fs)
	state := compile.NewState()

	_, g, set := planAssembly(t, fs, tc, state, nil)
	runPlan(t, g, set)

	require.NoError(t, afero.WriteFile(fs, "Assembly/src/Vector.c", []byte("int vector = 2;\n"), 0o644))

	tc.Reset()
	_, g, set = planAssembly(t, fs, tc, state, nil)
	runPlan(t, g, set)
	assert.Equal(t, []string{"Assembly/src/Vector.c"}, tc.CompiledSources())
}

func TestPlanModuleDescriptorEditInvalidatesWholeModule(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeAssemblyTree(t, fs)
	tc := testutil.NewFakeToolchain(fs)
	state := compile.NewState()

	_, g, set := planAssembly(t, fs, tc, state, nil)
	runPlan(t, g, set)

	require.NoError(t, afero.WriteFile(fs, "Assembly/src/Matrix.def", []byte("component Matrix v2\n"), 0o644))

	tc.Reset()
	_, g, set = planAssembly(t, fs, tc, state, nil)
	runPlan(t, g, set)
	assert.Len(t, tc.Compiles, 3, "a descriptor change must recompile every source in the module")
}

func TestPlanModuleDeletedArtifactIsRebuilt(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeAssemblyTree(t, fs)
	tc := testutil.NewFakeToolchain(fs)
	state := compile.NewState()

	_, g, set := planAssembly(t, fs, tc, state, nil)
	runPlan(t, g, set)

	require.NoError(t, fs.Remove("out/obj/Assembly/Matrix.o"))

	tc.Reset()
	_, g, set = planAssembly(t, fs, tc, state, nil)
	runPlan(t, g, set)
	assert.Equal(t, []string{"Assembly/src/Matrix.c"}, tc.CompiledSources())
}

func TestPlanModuleCompileFailureIsReportedAndForgotten(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeAssemblyTree(t, fs)
	tc := testutil.NewFakeToolchain(fs)
	tc.FailSources["Assembly/src/Vector.c"] = assert.AnError
	state := compile.NewState()

	_, g, set := planAssembly(t, fs, tc, state, nil)
	err := executor.New(g, set, 2).Run(context.Background())
	require.Error(t, err)

	var cerr *compile.CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "Assembly", cerr.Module)
	assert.Equal(t, "Assembly/src/Vector.c", cerr.Source)

	// The failure is not sticky: fixing the toolchain rebuilds the source.
	delete(tc.FailSources, "Assembly/src/Vector.c")
	tc.Reset()
	_, g, set = planAssembly(t, fs, tc, state, nil)
	runPlan(t, g, set)
	assert.Contains(t, tc.CompiledSources(), "Assembly/src/Vector.c")
}

func TestStateRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	state := compile.NewState()
	state.Record("out/obj/Assembly/Matrix.o", 42)

	require.NoError(t, state.Save(fs, "out/.forge-state.json"))

	loaded := compile.LoadState(fs, "out/.forge-state.json")
	require.NoError(t, afero.WriteFile(fs, "out/obj/Assembly/Matrix.o", []byte("x"), 0o644))
	assert.True(t, loaded.Fresh(fs, "out/obj/Assembly/Matrix.o", 42))
	assert.False(t, loaded.Fresh(fs, "out/obj/Assembly/Matrix.o", 43))
}

func TestLoadStateToleratesMissingAndCorruptFiles(t *testing.T) {
	fs := afero.NewMemMapFs()

	state := compile.LoadState(fs, "out/.forge-state.json")
	require.NotNil(t, state)

	require.NoError(t, afero.WriteFile(fs, "out/.forge-state.json", []byte("{not json"), 0o644))
	state = compile.LoadState(fs, "out/.forge-state.json")
	require.NotNil(t, state)
	assert.False(t, state.Fresh(fs, "anything", 1))
}
