package discovery

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/vk/solverforge/internal/config"
	"github.com/vk/solverforge/internal/ctxlog"
	"github.com/vk/solverforge/internal/fsutil"
	"github.com/vk/solverforge/internal/moduleid"
)

const (
	sourceExt     = ".c"
	headerExt     = ".h"
	descriptorExt = ".def"

	// generatedMarker flags derived sources that must not be compiled as
	// primary translation units.
	generatedMarker = "-meta"

	// testSourceSuffix marks per-module test suites, which are built by the
	// test runner, not by the module's compile step.
	testSourceSuffix = "Suite"

	// archiveDir is excluded from auto-discovery, case-insensitively.
	archiveDir = "archive"
)

// Engine walks the directory tree and produces Module records.
type Engine struct {
	fs   afero.Fs
	root string
}

// New creates a discovery engine reading the tree under root through fs.
func New(fs afero.Fs, root string) *Engine {
	return &Engine{fs: fs, root: root}
}

// Discover enumerates all modules for the configured groups. The result is
// sorted by module identifier. A duplicate module identifier across groups
// is a ConfigurationError naming the identifier, and so is a pair of
// distinct identifiers whose compile-time tokens coincide (a group "FooBar"
// next to an auto-discovered "Foo/Bar").
func (e *Engine) Discover(ctx context.Context, groups []*config.Group) ([]Module, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Discovery started.", "root", e.root, "groups", len(groups))

	var modules []Module
	seen := make(map[string]string)   // identifier -> source dir it came from
	tokens := make(map[string]string) // token -> identifier it came from

	for _, group := range groups {
		found, err := e.discoverGroup(ctx, group)
		if err != nil {
			return nil, err
		}
		for _, m := range found {
			key := m.ID.String()
			if prev, dup := seen[key]; dup {
				return nil, &config.ConfigurationError{
					Subject: key,
					Reason:  fmt.Sprintf("module discovered from both %s and %s", prev, m.SourceDir),
				}
			}
			if prev, dup := tokens[m.ID.Token()]; dup {
				return nil, &config.ConfigurationError{
					Subject: key,
					Reason:  fmt.Sprintf("identity token %s already taken by module %s", m.ID.Token(), prev),
				}
			}
			seen[key] = m.SourceDir
			tokens[m.ID.Token()] = key
			modules = append(modules, m)
		}
	}

	sort.Slice(modules, func(i, j int) bool {
		return modules[i].ID.String() < modules[j].ID.String()
	})

	logger.Info("Discovery complete.", "modules", len(modules))
	return modules, nil
}

// discoverGroup resolves one configured group into zero or more modules.
func (e *Engine) discoverGroup(ctx context.Context, group *config.Group) ([]Module, error) {
	if group.AutoDiscover {
		return e.discoverAuto(ctx, group)
	}
	m, err := e.discoverStatic(ctx, group)
	if err != nil {
		return nil, err
	}
	return []Module{m}, nil
}

// discoverStatic handles a statically-configured group: the directory itself
// is the module, and its absence is a hard failure.
func (e *Engine) discoverStatic(ctx context.Context, group *config.Group) (Module, error) {
	groupDir := path.Join(e.root, group.Name)
	exists, err := afero.DirExists(e.fs, groupDir)
	if err != nil {
		return Module{}, err
	}
	if !exists {
		return Module{}, &config.ConfigurationError{
			Subject: groupDir,
			Reason:  fmt.Sprintf("configured group %s has no directory", group.Name),
		}
	}

	// Sources conventionally live in a src subdirectory; a group without one
	// keeps its files at the top level.
	srcDir := path.Join(groupDir, "src")
	if hasSrc, err := afero.DirExists(e.fs, srcDir); err != nil {
		return Module{}, err
	} else if !hasSrc {
		srcDir = groupDir
	}

	return e.classify(ctx, moduleid.New(group.Name), groupDir, srcDir)
}

// discoverAuto handles an auto-discoverable group: each immediate
// subdirectory of <group>/src becomes one module. An absent src path yields
// an empty set, not an error.
func (e *Engine) discoverAuto(ctx context.Context, group *config.Group) ([]Module, error) {
	logger := ctxlog.FromContext(ctx)

	srcRoot := path.Join(e.root, group.Name, "src")
	subdirs, err := fsutil.ListDirs(e.fs, srcRoot)
	if err != nil {
		return nil, err
	}
	if len(subdirs) == 0 {
		logger.Debug("Auto-discoverable group has no src subdirectories.", "group", group.Name, "path", srcRoot)
		return nil, nil
	}

	var modules []Module
	for _, sub := range subdirs {
		if strings.EqualFold(sub, archiveDir) {
			logger.Debug("Skipping archived directory during auto-discovery.", "group", group.Name, "dir", sub)
			continue
		}
		moduleDir := path.Join(srcRoot, sub)
		m, err := e.classify(ctx, moduleid.NewSub(group.Name, sub), moduleDir, moduleDir)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, nil
}

// classify builds the Module record for one directory: sources, headers and
// descriptors from srcDir, test fixtures from <moduleRoot>/tests.
func (e *Engine) classify(ctx context.Context, id moduleid.ModuleID, moduleRoot, srcDir string) (Module, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.ListFiles(e.fs, srcDir)
	if err != nil {
		return Module{}, err
	}

	m := Module{ID: id, SourceDir: srcDir}
	for _, name := range files {
		full := path.Join(srcDir, name)
		switch {
		case strings.HasSuffix(name, headerExt):
			m.Headers = append(m.Headers, full)
		case strings.HasSuffix(name, descriptorExt):
			m.Descriptors = append(m.Descriptors, full)
		case strings.HasSuffix(name, sourceExt):
			base := strings.TrimSuffix(name, sourceExt)
			if strings.Contains(base, generatedMarker) {
				logger.Debug("Excluding generated source from compilation.", "module", id.String(), "file", name)
				continue
			}
			if strings.HasSuffix(base, testSourceSuffix) {
				logger.Debug("Excluding test suite source from compilation.", "module", id.String(), "file", name)
				continue
			}
			m.Sources = append(m.Sources, full)
		}
	}

	m.TestInputs, err = e.fixtureFiles(path.Join(moduleRoot, "tests", "input"))
	if err != nil {
		return Module{}, err
	}
	m.TestExpected, err = e.fixtureFiles(path.Join(moduleRoot, "tests", "expected"))
	if err != nil {
		return Module{}, err
	}

	logger.Debug("Classified module.",
		"module", id.String(),
		"sources", len(m.Sources),
		"headers", len(m.Headers),
		"descriptors", len(m.Descriptors),
	)
	return m, nil
}

func (e *Engine) fixtureFiles(dir string) ([]string, error) {
	names, err := fsutil.ListFiles(e.fs, dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, name := range names {
		files = append(files, path.Join(dir, name))
	}
	return files, nil
}
