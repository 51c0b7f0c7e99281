package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStateTransitions(t *testing.T) {
	tk := New("compile.Assembly.Matrix.c", KindCompile, "Assembly", func(ctx context.Context) error { return nil })

	assert.Equal(t, Pending, tk.State())

	assert.True(t, tk.CompareAndSetState(Pending, Running))
	assert.Equal(t, Running, tk.State())

	// A second CAS from Pending must fail once the task has moved on.
	assert.False(t, tk.CompareAndSetState(Pending, Skipped))
	assert.Equal(t, Running, tk.State())

	tk.SetState(Done)
	assert.Equal(t, Done, tk.State())
}

func TestTaskPendingDepCounting(t *testing.T) {
	tk := New("link.Toolbox", KindLink, "", nil)

	tk.SetPendingDeps(3)
	assert.Equal(t, 2, tk.DecrementPendingDeps())
	assert.Equal(t, 1, tk.DecrementPendingDeps())
	assert.Equal(t, 0, tk.DecrementPendingDeps())
}

func TestTaskErrRecording(t *testing.T) {
	tk := New("compile.Assembly.Matrix.c", KindCompile, "Assembly", nil)

	require.NoError(t, tk.Err())
	tk.SetErr(assert.AnError)
	assert.ErrorIs(t, tk.Err(), assert.AnError)
}

func TestSetPreservesInsertionOrder(t *testing.T) {
	s := NewSet()
	s.Add(New("b", KindInstall, "", nil))
	s.Add(New("a", KindCompile, "", nil))
	s.Add(New("c", KindArchive, "", nil))

	var ids []string
	for _, tk := range s.All() {
		ids = append(ids, tk.ID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
	assert.Equal(t, 3, s.Len())
	require.NotNil(t, s.Get("a"))
	assert.Nil(t, s.Get("missing"))
}

func TestSetDuplicateIDPanics(t *testing.T) {
	s := NewSet()
	s.Add(New("a", KindCompile, "", nil))
	assert.Panics(t, func() {
		s.Add(New("a", KindCompile, "", nil))
	})
}

func TestKindAndStateStrings(t *testing.T) {
	assert.Equal(t, "compile", KindCompile.String())
	assert.Equal(t, "barrier", KindBarrier.String())
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "skipped", Skipped.String())
}
