// Package task defines the unit of work in the build plan and its execution
// state. Structure (which task blocks which) lives in the dag package; the
// executor drives state transitions.
package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Kind classifies a task for logging and plan output.
type Kind int

const (
	// KindCompile turns one source file into one object artifact.
	KindCompile Kind = iota
	// KindInstall copies a header or descriptor into the include tree.
	KindInstall
	// KindFixture mirrors a test fixture into the test-install tree.
	KindFixture
	// KindFold is the per-plugin join marking all member modules compiled;
	// in static mode it also contributes the plugin's objects to the
	// aggregate.
	KindFold
	// KindLink produces one dynamically loadable plugin artifact.
	KindLink
	// KindGenerate emits the static plugin registry translation unit.
	KindGenerate
	// KindArchive folds accumulated objects into the aggregate library.
	KindArchive
	// KindBarrier is a no-op ordering node joining groups of tasks.
	KindBarrier
)

// String returns the kind's plan-output spelling.
func (k Kind) String() string {
	switch k {
	case KindCompile:
		return "compile"
	case KindInstall:
		return "install"
	case KindFixture:
		return "fixture"
	case KindFold:
		return "fold"
	case KindLink:
		return "link"
	case KindGenerate:
		return "generate"
	case KindArchive:
		return "archive"
	case KindBarrier:
		return "barrier"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// State is the lifecycle state of a task.
type State int32

const (
	Pending State = iota
	Running
	Done
	Failed
	// Skipped marks a task abandoned because one of its transitive
	// dependencies failed.
	Skipped
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Done:
		return "done"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Task is one schedulable unit of work.
type Task struct {
	// ID is the task's unique identifier, also its node ID in the graph.
	ID string
	// Kind classifies the work.
	Kind Kind
	// Module is the owning module's display name; empty for build-global
	// tasks (links, registry generation, archiving).
	Module string
	// Run performs the work. It must be safe to call from any worker.
	Run func(ctx context.Context) error

	state   atomic.Int32
	pending atomic.Int32

	errMu sync.Mutex
	err   error
}

// New creates a pending task.
func New(id string, kind Kind, module string, run func(ctx context.Context) error) *Task {
	return &Task{ID: id, Kind: kind, Module: module, Run: run}
}

// State returns the task's current lifecycle state.
func (t *Task) State() State {
	return State(t.state.Load())
}

// SetState transitions the task to the given state.
func (t *Task) SetState(s State) {
	t.state.Store(int32(s))
}

// CompareAndSetState transitions only if the task is currently in old.
// The executor uses this to make failure skips idempotent.
func (t *Task) CompareAndSetState(old, new State) bool {
	return t.state.CompareAndSwap(int32(old), int32(new))
}

// SetPendingDeps seeds the count of unfinished dependencies.
func (t *Task) SetPendingDeps(n int) {
	t.pending.Store(int32(n))
}

// DecrementPendingDeps records one finished dependency and returns the
// number still outstanding.
func (t *Task) DecrementPendingDeps() int {
	return int(t.pending.Add(-1))
}

// SetErr records the task's failure cause.
func (t *Task) SetErr(err error) {
	t.errMu.Lock()
	defer t.errMu.Unlock()
	t.err = err
}

// Err returns the recorded failure cause, if any.
func (t *Task) Err() error {
	t.errMu.Lock()
	defer t.errMu.Unlock()
	return t.err
}
