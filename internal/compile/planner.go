// Package compile plans the per-module compilation and installation work:
// one object artifact per primary source, tagged with the module's identity
// token, and an installed copy of every header and descriptor under the
// project-namespaced include tree.
//
// The planner only creates tasks; execution order and parallelism belong to
// the executor. Staleness is decided per task from a combined input hash, so
// re-running a build with unchanged inputs performs no work.
package compile

import (
	"context"
	"path"
	"sort"
	"strconv"

	"github.com/spf13/afero"

	"github.com/vk/solverforge/internal/ctxlog"
	"github.com/vk/solverforge/internal/dag"
	"github.com/vk/solverforge/internal/discovery"
	"github.com/vk/solverforge/internal/fsutil"
	"github.com/vk/solverforge/internal/task"
	"github.com/vk/solverforge/internal/toolchain"
)

const (
	// moduleNameDefine is the identity token every translation unit of a
	// module is tagged with, for the module's own runtime diagnostics.
	moduleNameDefine = "MODULE_NAME"
	// sourceFileDefine carries the per-source-file name.
	sourceFileDefine = "SOURCE_FILE"
)

// Planner creates compile and install tasks for discovered modules.
type Planner struct {
	fs      afero.Fs
	tc      toolchain.Toolchain
	state   *State
	project string
	outDir  string
}

// NewPlanner creates a planner writing artifacts under outDir.
func NewPlanner(fs afero.Fs, tc toolchain.Toolchain, state *State, project, outDir string) *Planner {
	return &Planner{fs: fs, tc: tc, state: state, project: project, outDir: outDir}
}

// Unit is the compiled representation of one module: the object artifacts it
// contributes and the tasks that produce them.
type Unit struct {
	Module discovery.Module
	// Token is the module's identity token; every object in Objects is
	// compiled with it.
	Token string
	// Objects are the object artifact paths, one per primary source.
	Objects []string
	// CompileTaskIDs and InstallTaskIDs name this unit's tasks in the plan.
	CompileTaskIDs []string
	InstallTaskIDs []string
}

// IncludeRoot returns the root of the installed header tree.
func (p *Planner) IncludeRoot() string {
	return path.Join(p.outDir, "include")
}

// PlanModule creates all compile and install tasks for one module and
// registers them as graph nodes. extraDefines come from the module's group
// configuration and apply to every translation unit.
//
// Every task's input hash folds in the combined hash of all of the module's
// descriptor files: a descriptor change invalidates the whole module's
// artifacts and nothing else.
func (p *Planner) PlanModule(ctx context.Context, m discovery.Module, extraDefines map[string]string, g *dag.Graph, set *task.Set) (*Unit, error) {
	logger := ctxlog.FromContext(ctx)

	token := m.ID.Token()
	unit := &Unit{Module: m, Token: token}

	descHash, err := hashFiles(p.fs, m.Descriptors)
	if err != nil {
		return nil, err
	}
	headersHash, err := hashFiles(p.fs, m.Headers)
	if err != nil {
		return nil, err
	}

	defines := p.moduleDefines(token, extraDefines)
	definesHash := hashDefines(defines)

	includeDir := path.Join(p.IncludeRoot(), p.project, m.ID.String())
	for _, file := range append(append([]string(nil), m.Headers...), m.Descriptors...) {
		p.planInstall(ctx, m, file, includeDir, descHash, g, set, unit)
	}

	for _, src := range m.Sources {
		if err := p.planCompile(ctx, m, src, defines, definesHash, descHash, headersHash, g, set, unit); err != nil {
			return nil, err
		}
	}

	logger.Debug("Planned module.",
		"module", m.ID.String(),
		"compile_tasks", len(unit.CompileTaskIDs),
		"install_tasks", len(unit.InstallTaskIDs),
	)
	return unit, nil
}

// moduleDefines assembles the define list shared by all of a module's
// translation units: the identity token first, then the group's extra
// defines in sorted order so compiler invocations are reproducible.
func (p *Planner) moduleDefines(token string, extra map[string]string) []toolchain.Define {
	defines := []toolchain.Define{
		{Name: moduleNameDefine, Value: strconv.Quote(token)},
	}

	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		defines = append(defines, toolchain.Define{Name: name, Value: extra[name]})
	}
	return defines
}

func (p *Planner) planInstall(ctx context.Context, m discovery.Module, file, includeDir string, descHash uint64, g *dag.Graph, set *task.Set, unit *Unit) {
	dst := path.Join(includeDir, path.Base(file))
	id := "install." + unit.Token + "." + path.Base(file)

	t := task.New(id, task.KindInstall, m.ID.String(), func(ctx context.Context) error {
		logger := ctxlog.FromContext(ctx)

		contentHash, err := fsutil.HashFile(p.fs, file)
		if err != nil {
			return err
		}
		h := combineHashes(contentHash, descHash)

		if p.state.Fresh(p.fs, dst, h) {
			logger.Debug("Install up to date.", "file", dst)
			return nil
		}
		if err := fsutil.CopyFile(p.fs, file, dst); err != nil {
			return err
		}
		p.state.Record(dst, h)
		logger.Debug("Installed file.", "src", file, "dst", dst)
		return nil
	})

	set.Add(t)
	g.AddNode(id)
	unit.InstallTaskIDs = append(unit.InstallTaskIDs, id)
}

func (p *Planner) planCompile(ctx context.Context, m discovery.Module, src string, defines []toolchain.Define, definesHash, descHash, headersHash uint64, g *dag.Graph, set *task.Set, unit *Unit) error {
	base := path.Base(src)
	stem := base[:len(base)-len(path.Ext(base))]
	obj := path.Join(p.outDir, "obj", unit.Token, stem+".o")
	id := "compile." + unit.Token + "." + base

	spec := toolchain.CompileSpec{
		Source:      src,
		Object:      obj,
		IncludeDirs: []string{m.SourceDir, p.IncludeRoot()},
		Defines: append(append([]toolchain.Define(nil), defines...),
			toolchain.Define{Name: sourceFileDefine, Value: strconv.Quote(base)}),
	}

	t := task.New(id, task.KindCompile, m.ID.String(), func(ctx context.Context) error {
		logger := ctxlog.FromContext(ctx)

		srcHash, err := fsutil.HashFile(p.fs, src)
		if err != nil {
			return err
		}
		h := combineHashes(srcHash, descHash, headersHash, definesHash)

		if p.state.Fresh(p.fs, obj, h) {
			logger.Debug("Object up to date.", "object", obj)
			return nil
		}
		if err := p.fs.MkdirAll(path.Dir(obj), 0o755); err != nil {
			return err
		}
		if err := p.tc.Compile(ctx, spec); err != nil {
			p.state.Forget(obj)
			return &CompileError{Module: m.ID.String(), Source: src, Err: err}
		}
		p.state.Record(obj, h)
		logger.Debug("Compiled source.", "source", src, "object", obj)
		return nil
	})

	set.Add(t)
	g.AddNode(id)
	unit.Objects = append(unit.Objects, obj)
	unit.CompileTaskIDs = append(unit.CompileTaskIDs, id)
	return nil
}
