package task

import "fmt"

// Set is an insertion-ordered collection of tasks keyed by ID.
type Set struct {
	ids  []string
	byID map[string]*Task
}

// NewSet creates an empty task set.
func NewSet() *Set {
	return &Set{byID: make(map[string]*Task)}
}

// Add appends a task. Duplicate IDs are a programmer error in the planner,
// not a user-facing condition, so Add panics.
func (s *Set) Add(t *Task) {
	if _, exists := s.byID[t.ID]; exists {
		panic(fmt.Sprintf("task with ID '%s' already planned", t.ID))
	}
	s.ids = append(s.ids, t.ID)
	s.byID[t.ID] = t
}

// Get returns the task with the given ID, or nil.
func (s *Set) Get(id string) *Task {
	return s.byID[id]
}

// Len returns the number of tasks.
func (s *Set) Len() int {
	return len(s.ids)
}

// All returns the tasks in insertion order.
func (s *Set) All() []*Task {
	tasks := make([]*Task, 0, len(s.ids))
	for _, id := range s.ids {
		tasks = append(tasks, s.byID[id])
	}
	return tasks
}
