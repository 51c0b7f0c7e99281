// Package linker plans plugin deployment: in dynamic mode each plugin
// becomes an independently loadable artifact, in static mode its objects
// fold into the project aggregate and a registry entry records its
// registration entry point.
package linker

import (
	"context"
	"path"
	"runtime"

	"github.com/spf13/afero"

	"github.com/vk/solverforge/internal/compile"
	"github.com/vk/solverforge/internal/config"
	"github.com/vk/solverforge/internal/ctxlog"
	"github.com/vk/solverforge/internal/dag"
	"github.com/vk/solverforge/internal/registry"
	"github.com/vk/solverforge/internal/task"
	"github.com/vk/solverforge/internal/toolchain"
)

// Linker plans per-plugin link tasks.
type Linker struct {
	fs      afero.Fs
	tc      toolchain.Toolchain
	state   *compile.State
	project string
	outDir  string
}

// New creates a linker writing artifacts under outDir.
func New(fs afero.Fs, tc toolchain.Toolchain, state *compile.State, project, outDir string) *Linker {
	return &Linker{fs: fs, tc: tc, state: state, project: project, outDir: outDir}
}

// SharedExt returns the host's shared library suffix.
func SharedExt() string {
	if runtime.GOOS == "darwin" {
		return ".dylib"
	}
	return ".so"
}

// DynamicArtifact returns the loadable artifact path for a plugin:
// `<Project>_<PluginBaseName>module` under lib/, deliberately without the
// platform's `lib` prefix so the runtime loader can resolve it by its
// well-known name.
func (l *Linker) DynamicArtifact(plugin *config.Plugin) string {
	return path.Join(l.outDir, "lib", l.project+"_"+plugin.Name.Base()+"module"+SharedExt())
}

// PlanDynamic creates the link task for one plugin from its member units.
// The artifact is linked against the project aggregate, so the caller must
// order the aggregate's archive task before the returned task.
func (l *Linker) PlanDynamic(ctx context.Context, plugin *config.Plugin, units []*compile.Unit, aggregate string, g *dag.Graph, set *task.Set) (artifact, taskID string) {
	artifact = l.DynamicArtifact(plugin)
	taskID = "link." + plugin.Name.Base()

	var objects []string
	for _, unit := range units {
		objects = append(objects, unit.Objects...)
	}

	t := task.New(taskID, task.KindLink, "", func(ctx context.Context) error {
		logger := ctxlog.FromContext(ctx)

		// The aggregate is absent when every module belongs to a plugin;
		// the artifact then links from its member objects alone.
		var libs []string
		if exists, err := afero.Exists(l.fs, aggregate); err == nil && exists {
			libs = append(libs, aggregate)
		}

		h, err := l.inputHash(objects, libs)
		if err != nil {
			return err
		}
		if l.state.Fresh(l.fs, artifact, h) {
			logger.Debug("Plugin artifact up to date.", "artifact", artifact)
			return nil
		}
		if err := l.fs.MkdirAll(path.Dir(artifact), 0o755); err != nil {
			return err
		}
		if err := l.tc.LinkShared(ctx, objects, libs, artifact); err != nil {
			l.state.Forget(artifact)
			return err
		}
		l.state.Record(artifact, h)
		logger.Info("Linked plugin artifact.", "plugin", string(plugin.Name), "artifact", artifact)
		return nil
	})

	set.Add(t)
	g.AddNode(taskID)
	return artifact, taskID
}

// PlanStatic records the plugin's registry entry and creates its fold task,
// the per-plugin join marking all member modules compiled. The fold does no
// work itself; the aggregate's archive task consumes the member objects.
func (l *Linker) PlanStatic(ctx context.Context, plugin *config.Plugin, reg *registry.Static, g *dag.Graph, set *task.Set) (taskID string, err error) {
	logger := ctxlog.FromContext(ctx)

	if err := reg.Add(plugin.Name, plugin.EntrySymbol()); err != nil {
		return "", err
	}
	logger.Debug("Recorded static registry entry.", "plugin", string(plugin.Name), "entry", plugin.EntrySymbol())

	taskID = "fold." + plugin.Name.Base()
	set.Add(task.New(taskID, task.KindFold, "", func(ctx context.Context) error {
		return nil
	}))
	g.AddNode(taskID)
	return taskID, nil
}

// inputHash fingerprints a link step from its object and library inputs.
func (l *Linker) inputHash(objects, libs []string) (uint64, error) {
	paths := append(append([]string(nil), objects...), libs...)
	return compile.HashInputs(l.fs, paths)
}
