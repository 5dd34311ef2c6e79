// Package board holds the in-memory state of one open board.
//
// State is an immutable snapshot. Container owns the current snapshot and is
// the single place it changes: callers describe a change as an Action and
// hand it to Dispatch, which applies it to a copy and publishes the result to
// every listener.
package board

import (
	"slices"
	"sort"

	"github.com/zulandar/studyflow/internal/models"
)

// State is a snapshot of a board. Slices are shared between snapshots and
// must not be mutated by readers.
type State struct {
	Board    models.Board
	Columns  []models.Column
	Tasks    []models.Task
	Subjects []models.Subject
	Role     models.Role
	Version  uint64
}

// Column returns the column with the given ID.
func (s State) Column(id string) (models.Column, bool) {
	for _, c := range s.Columns {
		if c.ID == id {
			return c, true
		}
	}
	return models.Column{}, false
}

// ColumnAt returns the column at the given position.
func (s State) ColumnAt(position int) (models.Column, bool) {
	for _, c := range s.Columns {
		if c.Position == position {
			return c, true
		}
	}
	return models.Column{}, false
}

// ColumnIDs returns the IDs of all columns in position order.
func (s State) ColumnIDs() []string {
	ids := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		ids[i] = c.ID
	}
	return ids
}

// Task returns the task with the given ID.
func (s State) Task(id string) (models.Task, bool) {
	if i := s.taskIndex(id); i >= 0 {
		return s.Tasks[i], true
	}
	return models.Task{}, false
}

// TasksIn returns the tasks of one column in ascending position order. Ties
// keep their order in the snapshot.
func (s State) TasksIn(columnID string) []models.Task {
	var out []models.Task
	for _, t := range s.Tasks {
		if t.ColumnID == columnID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// Subject returns the subject with the given ID.
func (s State) Subject(id string) (models.Subject, bool) {
	for _, sub := range s.Subjects {
		if sub.ID == id {
			return sub, true
		}
	}
	return models.Subject{}, false
}

func (s State) taskIndex(id string) int {
	return slices.IndexFunc(s.Tasks, func(t models.Task) bool { return t.ID == id })
}

func (s State) columnIndex(id string) int {
	return slices.IndexFunc(s.Columns, func(c models.Column) bool { return c.ID == id })
}

func (s State) subjectIndex(id string) int {
	return slices.IndexFunc(s.Subjects, func(sub models.Subject) bool { return sub.ID == id })
}

func sortColumns(cols []models.Column) {
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Position < cols[j].Position })
}
