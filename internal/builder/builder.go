// Package builder assembles the complete build plan: per-module compile and
// install tasks, fixture installs, per-plugin link or fold tasks, registry
// generation, and the aggregate archive, all wired into one dependency
// graph for the executor.
package builder

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/spf13/afero"

	"github.com/vk/solverforge/internal/compile"
	"github.com/vk/solverforge/internal/config"
	"github.com/vk/solverforge/internal/ctxlog"
	"github.com/vk/solverforge/internal/dag"
	"github.com/vk/solverforge/internal/discovery"
	"github.com/vk/solverforge/internal/fsutil"
	"github.com/vk/solverforge/internal/linker"
	"github.com/vk/solverforge/internal/moduleid"
	"github.com/vk/solverforge/internal/registry"
	"github.com/vk/solverforge/internal/task"
	"github.com/vk/solverforge/internal/testassets"
	"github.com/vk/solverforge/internal/toolchain"
)

// includesReadyID is the barrier separating all install tasks from all
// compile tasks: compilation may include any module's installed headers.
const includesReadyID = "includes.ready"

// Input carries everything the builder needs to assemble a plan.
type Input struct {
	Model     *config.Model
	Modules   []discovery.Module
	Fs        afero.Fs
	Toolchain toolchain.Toolchain
	State     *compile.State
	OutDir    string
}

// Plan is the fully assembled build: the task set, its dependency graph,
// and the artifacts the build will produce.
type Plan struct {
	Graph *dag.Graph
	Tasks *task.Set
	// Units indexes compiled units by module display name.
	Units map[string]*compile.Unit
	// Registry holds the static-mode registry entries; empty in dynamic
	// mode.
	Registry *registry.Static
	// RegistryPath is the generated registry translation unit, or "" when
	// no registry is generated.
	RegistryPath string
	// Aggregate is the project's aggregate library path.
	Aggregate string
	// PluginArtifacts maps plugin names to loadable artifacts (dynamic
	// mode only).
	PluginArtifacts map[moduleid.PluginName]string
}

// Build assembles the plan. Plugin membership is resolved here: a toolbox
// referencing an unknown module is a ConfigurationError.
func Build(ctx context.Context, in Input) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting plan assembly.", "modules", len(in.Modules), "plugins", len(in.Model.Plugins), "mode", in.Model.Mode.String())

	g := dag.New()
	set := task.NewSet()
	plan := &Plan{
		Graph:           g,
		Tasks:           set,
		Units:           make(map[string]*compile.Unit),
		Registry:        registry.NewStatic(),
		Aggregate:       path.Join(in.OutDir, "lib", "lib"+in.Model.Project+".a"),
		PluginArtifacts: make(map[moduleid.PluginName]string),
	}

	defines := make(map[string]map[string]string, len(in.Model.Groups))
	for _, group := range in.Model.Groups {
		defines[group.Name] = group.Defines
	}

	planner := compile.NewPlanner(in.Fs, in.Toolchain, in.State, in.Model.Project, in.OutDir)
	fixtures := testassets.New(in.Fs, in.Model.Project, in.OutDir)

	for _, m := range in.Modules {
		unit, err := planner.PlanModule(ctx, m, defines[m.ID.Group()], g, set)
		if err != nil {
			return nil, err
		}
		plan.Units[m.ID.String()] = unit
		fixtures.PlanModule(ctx, m, g, set)
	}

	if err := addIncludesBarrier(g, set, plan.Units); err != nil {
		return nil, err
	}

	memberUnits, err := resolvePlugins(in.Model, plan.Units)
	if err != nil {
		return nil, err
	}

	if err := planPlugins(ctx, in, plan, memberUnits, g, set); err != nil {
		return nil, err
	}

	if err := g.DetectCycles(); err != nil {
		return nil, fmt.Errorf("error validating build graph: %w", err)
	}

	logger.Debug("Build: plan assembly complete.", "tasks", set.Len())
	return plan, nil
}

// addIncludesBarrier wires every install task before every compile task.
func addIncludesBarrier(g *dag.Graph, set *task.Set, units map[string]*compile.Unit) error {
	set.Add(task.New(includesReadyID, task.KindBarrier, "", func(ctx context.Context) error {
		return nil
	}))
	g.AddNode(includesReadyID)

	for _, unit := range units {
		for _, id := range unit.InstallTaskIDs {
			if err := g.AddEdge(id, includesReadyID); err != nil {
				return err
			}
		}
		for _, id := range unit.CompileTaskIDs {
			if err := g.AddEdge(includesReadyID, id); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolvePlugins maps each plugin to its member units.
func resolvePlugins(model *config.Model, units map[string]*compile.Unit) (map[moduleid.PluginName][]*compile.Unit, error) {
	members := make(map[moduleid.PluginName][]*compile.Unit, len(model.Plugins))
	for _, plugin := range model.Plugins {
		for _, name := range plugin.Modules {
			id, err := moduleid.Parse(name)
			if err != nil {
				return nil, &config.ConfigurationError{
					Subject: string(plugin.Name),
					Reason:  fmt.Sprintf("invalid member module name %q: %v", name, err),
				}
			}
			unit, ok := units[id.String()]
			if !ok {
				return nil, &config.ConfigurationError{
					Subject: string(plugin.Name),
					Reason:  fmt.Sprintf("toolbox references unknown module %q", name),
				}
			}
			members[plugin.Name] = append(members[plugin.Name], unit)
		}
	}
	return members, nil
}

// planPlugins creates the mode-dependent back half of the plan: link or
// fold tasks per plugin, registry generation, and the aggregate archive.
func planPlugins(ctx context.Context, in Input, plan *Plan, members map[moduleid.PluginName][]*compile.Unit, g *dag.Graph, set *task.Set) error {
	lk := linker.New(in.Fs, in.Toolchain, in.State, in.Model.Project, in.OutDir)

	// Modules referenced by some plugin; in dynamic mode their objects
	// belong to the plugin artifact, not the aggregate.
	pluginMember := make(map[string]bool)
	for _, units := range members {
		for _, unit := range units {
			pluginMember[unit.Module.ID.String()] = true
		}
	}

	// Collect in discovery order so the archive invocation, and the input
	// hash derived from it, are reproducible.
	var aggregateObjects []string
	var aggregateDeps []string
	for _, m := range in.Modules {
		name := m.ID.String()
		if in.Model.Mode == config.ModeDynamic && pluginMember[name] {
			continue
		}
		unit := plan.Units[name]
		aggregateObjects = append(aggregateObjects, unit.Objects...)
		aggregateDeps = append(aggregateDeps, unit.CompileTaskIDs...)
	}

	var linkTaskIDs []string
	var foldTaskIDs []string
	for _, plugin := range in.Model.Plugins {
		units := members[plugin.Name]
		switch in.Model.Mode {
		case config.ModeDynamic:
			artifact, taskID := lk.PlanDynamic(ctx, plugin, units, plan.Aggregate, g, set)
			plan.PluginArtifacts[plugin.Name] = artifact
			for _, unit := range units {
				for _, dep := range unit.CompileTaskIDs {
					if err := g.AddEdge(dep, taskID); err != nil {
						return err
					}
				}
			}
			linkTaskIDs = append(linkTaskIDs, taskID)

		case config.ModeStatic:
			taskID, err := lk.PlanStatic(ctx, plugin, plan.Registry, g, set)
			if err != nil {
				return err
			}
			for _, unit := range units {
				for _, dep := range unit.CompileTaskIDs {
					if err := g.AddEdge(dep, taskID); err != nil {
						return err
					}
				}
			}
			foldTaskIDs = append(foldTaskIDs, taskID)
		}
	}

	// Registry generation is a global join over all fold tasks: it needs
	// the complete, deduplicated entry set.
	if in.Model.Mode == config.ModeStatic && plan.Registry.Len() > 0 {
		registryObj, err := planRegistry(ctx, in, plan, foldTaskIDs, g, set)
		if err != nil {
			return err
		}
		aggregateObjects = append(aggregateObjects, registryObj)
		aggregateDeps = append(aggregateDeps, "compile.registry")
	}

	if err := planArchive(in, plan, aggregateObjects, aggregateDeps, g, set); err != nil {
		return err
	}

	// Dynamic plugins link against the aggregate.
	for _, linkID := range linkTaskIDs {
		if err := g.AddEdge(archiveTaskID(in.Model.Project), linkID); err != nil {
			return err
		}
	}
	return nil
}

// planRegistry creates the generation task for the registry translation
// unit and the compile task turning it into an object.
func planRegistry(ctx context.Context, in Input, plan *Plan, foldTaskIDs []string, g *dag.Graph, set *task.Set) (string, error) {
	plan.RegistryPath = path.Join(in.OutDir, "generated", in.Model.Project+"_plugin_registry.c")
	registryObj := path.Join(in.OutDir, "obj", "generated", in.Model.Project+"_plugin_registry.o")

	genID := "registry.generate"
	set.Add(task.New(genID, task.KindGenerate, "", func(ctx context.Context) error {
		logger := ctxlog.FromContext(ctx)

		var buf bytes.Buffer
		if err := plan.Registry.Generate(&buf, in.Model.Project); err != nil {
			return err
		}
		// Re-run with unchanged plugins must not touch the file, or it
		// would ripple a rebuild through the registry object.
		if existing, err := afero.ReadFile(in.Fs, plan.RegistryPath); err == nil && bytes.Equal(existing, buf.Bytes()) {
			logger.Debug("Registry translation unit up to date.", "path", plan.RegistryPath)
			return nil
		}
		if err := fsutil.WriteFile(in.Fs, plan.RegistryPath, buf.Bytes()); err != nil {
			return err
		}
		logger.Info("Generated static plugin registry.", "path", plan.RegistryPath, "entries", plan.Registry.Len())
		return nil
	}))
	g.AddNode(genID)
	for _, foldID := range foldTaskIDs {
		if err := g.AddEdge(foldID, genID); err != nil {
			return "", err
		}
	}

	compileID := "compile.registry"
	set.Add(task.New(compileID, task.KindCompile, "", func(ctx context.Context) error {
		logger := ctxlog.FromContext(ctx)

		h, err := compile.HashInputs(in.Fs, []string{plan.RegistryPath})
		if err != nil {
			return err
		}
		if in.State.Fresh(in.Fs, registryObj, h) {
			logger.Debug("Registry object up to date.", "object", registryObj)
			return nil
		}
		if err := in.Fs.MkdirAll(path.Dir(registryObj), 0o755); err != nil {
			return err
		}
		spec := toolchain.CompileSpec{Source: plan.RegistryPath, Object: registryObj}
		if err := in.Toolchain.Compile(ctx, spec); err != nil {
			in.State.Forget(registryObj)
			return &compile.CompileError{Module: "registry", Source: plan.RegistryPath, Err: err}
		}
		in.State.Record(registryObj, h)
		return nil
	}))
	g.AddNode(compileID)
	if err := g.AddEdge(genID, compileID); err != nil {
		return "", err
	}

	return registryObj, nil
}

func archiveTaskID(project string) string {
	return "archive." + project
}

// planArchive creates the aggregate library task.
func planArchive(in Input, plan *Plan, objects, deps []string, g *dag.Graph, set *task.Set) error {
	id := archiveTaskID(in.Model.Project)
	set.Add(task.New(id, task.KindArchive, "", func(ctx context.Context) error {
		logger := ctxlog.FromContext(ctx)

		if len(objects) == 0 {
			logger.Warn("No objects to archive; aggregate not produced.", "aggregate", plan.Aggregate)
			return nil
		}
		h, err := compile.HashInputs(in.Fs, objects)
		if err != nil {
			return err
		}
		if in.State.Fresh(in.Fs, plan.Aggregate, h) {
			logger.Debug("Aggregate up to date.", "aggregate", plan.Aggregate)
			return nil
		}
		if err := in.Fs.MkdirAll(path.Dir(plan.Aggregate), 0o755); err != nil {
			return err
		}
		if err := in.Toolchain.Archive(ctx, objects, plan.Aggregate); err != nil {
			in.State.Forget(plan.Aggregate)
			return err
		}
		in.State.Record(plan.Aggregate, h)
		logger.Info("Archived aggregate library.", "aggregate", plan.Aggregate, "objects", len(objects))
		return nil
	}))
	g.AddNode(id)

	for _, dep := range deps {
		if err := g.AddEdge(dep, id); err != nil {
			return err
		}
	}
	return nil
}
