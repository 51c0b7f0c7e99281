package app

import (
	"context"
	"fmt"
	"path"

	"github.com/vk/solverforge/internal/builder"
	"github.com/vk/solverforge/internal/compile"
	"github.com/vk/solverforge/internal/ctxlog"
	"github.com/vk/solverforge/internal/discovery"
	"github.com/vk/solverforge/internal/executor"
)

// stateFileName is the incremental-build state file kept under OutDir.
const stateFileName = ".forge-state.json"

// StatePath returns the incremental-state file path for an output tree.
func StatePath(outDir string) string {
	return path.Join(outDir, stateFileName)
}

// Run executes the build based on the provided configuration.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.logger.Debug("Discovering modules...", "root", appConfig.RootDir, "groups", len(a.model.Groups))
	engine := discovery.New(a.fs, appConfig.RootDir)
	modules, err := engine.Discover(ctx, a.model.Groups)
	if err != nil {
		return fmt.Errorf("module discovery failed: %w", err)
	}
	a.logger.Info("Module discovery complete.", "module_count", len(modules))

	state := compile.LoadState(a.fs, StatePath(appConfig.OutDir))

	plan, err := builder.Build(ctx, builder.Input{
		Model:     a.model,
		Modules:   modules,
		Fs:        a.fs,
		Toolchain: a.toolchain,
		State:     state,
		OutDir:    appConfig.OutDir,
	})
	if err != nil {
		return fmt.Errorf("failed to build plan: %w", err)
	}
	a.logger.Debug("Build plan assembled.", "task_count", plan.Tasks.Len())

	if appConfig.PlanOnly {
		a.printPlan(plan)
		return nil
	}

	if plan.Tasks.Len() == 0 {
		a.logger.Warn("No tasks planned, execution not required.")
		return nil
	}

	a.logger.Info("Starting concurrent execution...", "workers", appConfig.WorkerCount)
	exec := executor.New(plan.Graph, plan.Tasks, appConfig.WorkerCount)
	runErr := exec.Run(ctx)

	// Persist what succeeded even on a partial failure so the next run
	// only redoes the failed work.
	if err := state.Save(a.fs, StatePath(appConfig.OutDir)); err != nil {
		a.logger.Warn("Failed to save incremental state.", "error", err)
	}

	if runErr != nil {
		return fmt.Errorf("execution failed: %w", runErr)
	}
	a.logger.Info("Execution finished.", "aggregate", plan.Aggregate)
	return nil
}

// printPlan writes the planned tasks to the output writer without running
// anything.
func (a *App) printPlan(plan *builder.Plan) {
	fmt.Fprintf(a.outW, "plan: %d tasks\n", plan.Tasks.Len())
	for _, t := range plan.Tasks.All() {
		if t.Module != "" {
			fmt.Fprintf(a.outW, "  %-8s %s (%s)\n", t.Kind.String(), t.ID, t.Module)
			continue
		}
		fmt.Fprintf(a.outW, "  %-8s %s\n", t.Kind.String(), t.ID)
	}
}
