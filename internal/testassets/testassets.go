// Package testassets mirrors each module's test fixtures into a per-module
// path under the shared test-install root:
// `tests/<Project>/<Module>/{expected,input}`. Installation is idempotent:
// a fixture whose installed copy already matches is left untouched.
package testassets

import (
	"context"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/vk/solverforge/internal/ctxlog"
	"github.com/vk/solverforge/internal/dag"
	"github.com/vk/solverforge/internal/discovery"
	"github.com/vk/solverforge/internal/fsutil"
	"github.com/vk/solverforge/internal/task"
)

// Installer plans fixture install tasks.
type Installer struct {
	fs      afero.Fs
	project string
	outDir  string
}

// New creates an installer writing under outDir.
func New(fs afero.Fs, project, outDir string) *Installer {
	return &Installer{fs: fs, project: project, outDir: outDir}
}

// PlanModule creates one task per fixture file. A module without fixtures
// produces no tasks, which is not an error.
func (i *Installer) PlanModule(ctx context.Context, m discovery.Module, g *dag.Graph, set *task.Set) []string {
	logger := ctxlog.FromContext(ctx)

	var taskIDs []string
	destRoot := path.Join(i.outDir, "tests", i.project, m.ID.String())
	for _, fixture := range m.TestExpected {
		taskIDs = append(taskIDs, i.planCopy(m, fixture, path.Join(destRoot, "expected"), g, set))
	}
	for _, fixture := range m.TestInputs {
		taskIDs = append(taskIDs, i.planCopy(m, fixture, path.Join(destRoot, "input"), g, set))
	}

	if len(taskIDs) > 0 {
		logger.Debug("Planned test fixtures.", "module", m.ID.String(), "fixtures", len(taskIDs))
	}
	return taskIDs
}

func (i *Installer) planCopy(m discovery.Module, fixture, destDir string, g *dag.Graph, set *task.Set) string {
	dst := path.Join(destDir, path.Base(fixture))
	kind := path.Base(destDir) // "expected" or "input"
	id := strings.Join([]string{"fixture", m.ID.Token(), kind, path.Base(fixture)}, ".")

	t := task.New(id, task.KindFixture, m.ID.String(), func(ctx context.Context) error {
		logger := ctxlog.FromContext(ctx)

		srcHash, err := fsutil.HashFile(i.fs, fixture)
		if err != nil {
			return err
		}
		if exists, err := afero.Exists(i.fs, dst); err == nil && exists {
			dstHash, err := fsutil.HashFile(i.fs, dst)
			if err == nil && dstHash == srcHash {
				logger.Debug("Fixture up to date.", "fixture", dst)
				return nil
			}
		}
		if err := fsutil.CopyFile(i.fs, fixture, dst); err != nil {
			return err
		}
		logger.Debug("Installed fixture.", "src", fixture, "dst", dst)
		return nil
	})

	set.Add(t)
	g.AddNode(id)
	return id
}
