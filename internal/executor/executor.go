// Package executor runs the build plan: a pool of workers consumes tasks
// whose dependencies have completed, at file-level granularity.
//
// A failed task fails its transitive dependents (they are marked skipped,
// never silently dropped) but does not abort unrelated tasks: independent
// modules keep building, and all failures are aggregated into the build
// result.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vk/solverforge/internal/ctxlog"
	"github.com/vk/solverforge/internal/dag"
	"github.com/vk/solverforge/internal/task"
)

// Executor orchestrates the end-to-end execution of a build plan.
type Executor struct {
	graph   *dag.Graph
	tasks   *task.Set
	workers int

	wg sync.WaitGroup

	mu   sync.Mutex
	errs []error
}

// New creates an executor for the given plan.
func New(graph *dag.Graph, tasks *task.Set, workers int) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{graph: graph, tasks: tasks, workers: workers}
}

// Run executes every task, respecting graph order, and returns the
// aggregated failures, if any.
func (e *Executor) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	all := e.tasks.All()
	ready := make(chan *task.Task, len(all))

	e.wg.Add(len(all))
	for _, t := range all {
		deps, err := e.graph.Dependencies(t.ID)
		if err != nil {
			return err
		}
		t.SetPendingDeps(len(deps))
		if len(deps) == 0 {
			ready <- t
		}
	}

	logger.Debug("Executor starting.", "tasks", len(all), "workers", e.workers)
	for i := 0; i < e.workers; i++ {
		go e.worker(ctx, ready, i)
	}

	e.wg.Wait()
	close(ready)

	e.mu.Lock()
	defer e.mu.Unlock()
	return errors.Join(e.errs...)
}

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, ready chan *task.Task, workerID int) {
	logger := ctxlog.FromContext(ctx)

	for t := range ready {
		workerLogger := logger.With("workerID", workerID, "taskID", t.ID)

		if ctx.Err() != nil {
			if t.CompareAndSetState(task.Pending, task.Skipped) {
				t.SetErr(ctx.Err())
				e.recordErr(fmt.Errorf("%s: %w", t.ID, ctx.Err()))
				e.skipDependents(ctx, t)
				e.wg.Done()
			}
			continue
		}

		workerLogger.Debug("Worker picked up task.")
		t.SetState(task.Running)

		if err := t.Run(ctx); err != nil {
			workerLogger.Error("Task failed.", "error", err)
			t.SetState(task.Failed)
			t.SetErr(err)
			e.recordErr(err)
			e.skipDependents(ctx, t)
			e.wg.Done()
			continue
		}

		t.SetState(task.Done)
		workerLogger.Debug("Task succeeded.")

		dependents, err := e.graph.Dependents(t.ID)
		if err != nil {
			workerLogger.Error("Failed to get dependents for completed task.", "error", err)
			e.wg.Done()
			continue
		}
		for _, depID := range dependents {
			dependent := e.tasks.Get(depID)
			if dependent.DecrementPendingDeps() == 0 && dependent.State() == task.Pending {
				workerLogger.Debug("Unlocking dependent task.", "dependentID", depID)
				ready <- dependent
			}
		}
		e.wg.Done()
	}
}

// skipDependents marks every transitive dependent of a failed task as
// skipped, so the build result names them instead of dropping them.
func (e *Executor) skipDependents(ctx context.Context, failed *task.Task) {
	logger := ctxlog.FromContext(ctx)

	dependents, err := e.graph.Dependents(failed.ID)
	if err != nil {
		logger.Error("Failed to get dependents of failed task.", "taskID", failed.ID, "error", err)
		return
	}
	for _, depID := range dependents {
		dependent := e.tasks.Get(depID)
		if dependent.CompareAndSetState(task.Pending, task.Skipped) {
			dependent.SetErr(fmt.Errorf("skipped: dependency %s failed", failed.ID))
			logger.Debug("Skipping dependent of failed task.", "taskID", depID, "failedID", failed.ID)
			e.wg.Done()
			e.skipDependents(ctx, dependent)
		}
	}
}

func (e *Executor) recordErr(err error) {
	e.mu.Lock()
	e.errs = append(e.errs, err)
	e.mu.Unlock()
}
