package board

import (
	"slices"

	"github.com/zulandar/studyflow/internal/models"
)

// Action is one change to a board. apply mutates a private copy of the
// state and reports whether anything changed.
type Action interface {
	apply(s *State) bool
}

// Load replaces the whole snapshot.
type Load struct{ State State }

func (a Load) apply(s *State) bool {
	v := s.Version
	*s = a.State
	s.Version = v
	s.Columns = slices.Clone(s.Columns)
	sortColumns(s.Columns)
	return true
}

// SetRole changes the viewer's role.
type SetRole struct{ Role models.Role }

func (a SetRole) apply(s *State) bool {
	if s.Role == a.Role {
		return false
	}
	s.Role = a.Role
	return true
}

// InsertTask appends a task unless one with the same ID is already present.
type InsertTask struct{ Task models.Task }

func (a InsertTask) apply(s *State) bool {
	if s.taskIndex(a.Task.ID) >= 0 {
		return false
	}
	s.Tasks = append(slices.Clip(s.Tasks), a.Task)
	return true
}

// ReplaceTask swaps in a new version of a known task. Unknown IDs are ignored.
type ReplaceTask struct{ Task models.Task }

func (a ReplaceTask) apply(s *State) bool {
	i := s.taskIndex(a.Task.ID)
	if i < 0 {
		return false
	}
	s.Tasks = slices.Clone(s.Tasks)
	s.Tasks[i] = a.Task
	return true
}

// PatchTask edits a known task in place. Fn receives a copy; pointer fields
// must be replaced, not written through.
type PatchTask struct {
	ID string
	Fn func(t *models.Task)
}

func (a PatchTask) apply(s *State) bool {
	i := s.taskIndex(a.ID)
	if i < 0 {
		return false
	}
	s.Tasks = slices.Clone(s.Tasks)
	a.Fn(&s.Tasks[i])
	return true
}

// PatchTasks edits several tasks in one step.
type PatchTasks struct {
	Fn map[string]func(t *models.Task)
}

func (a PatchTasks) apply(s *State) bool {
	changed := false
	s.Tasks = slices.Clone(s.Tasks)
	for i := range s.Tasks {
		if fn, ok := a.Fn[s.Tasks[i].ID]; ok {
			fn(&s.Tasks[i])
			changed = true
		}
	}
	return changed
}

// RemoveTask drops a task by ID.
type RemoveTask struct{ ID string }

func (a RemoveTask) apply(s *State) bool {
	i := s.taskIndex(a.ID)
	if i < 0 {
		return false
	}
	s.Tasks = slices.Delete(slices.Clone(s.Tasks), i, i+1)
	return true
}

// ReplaceTasks swaps the full task list, as after a resync.
type ReplaceTasks struct{ Tasks []models.Task }

func (a ReplaceTasks) apply(s *State) bool {
	s.Tasks = slices.Clone(a.Tasks)
	return true
}

// InsertColumn adds a column unless its ID is known, keeping position order.
type InsertColumn struct{ Column models.Column }

func (a InsertColumn) apply(s *State) bool {
	if s.columnIndex(a.Column.ID) >= 0 {
		return false
	}
	s.Columns = append(slices.Clone(s.Columns), a.Column)
	sortColumns(s.Columns)
	return true
}

// ReplaceColumn swaps in a new version of a known column and re-sorts.
type ReplaceColumn struct{ Column models.Column }

func (a ReplaceColumn) apply(s *State) bool {
	i := s.columnIndex(a.Column.ID)
	if i < 0 {
		return false
	}
	s.Columns = slices.Clone(s.Columns)
	s.Columns[i] = a.Column
	sortColumns(s.Columns)
	return true
}

// RemoveColumn drops a column together with the tasks it held.
type RemoveColumn struct{ ID string }

func (a RemoveColumn) apply(s *State) bool {
	i := s.columnIndex(a.ID)
	if i < 0 {
		return false
	}
	s.Columns = slices.Delete(slices.Clone(s.Columns), i, i+1)
	s.Tasks = slices.DeleteFunc(slices.Clone(s.Tasks), func(t models.Task) bool { return t.ColumnID == a.ID })
	return true
}

// InsertSubject adds a subject unless its ID is known.
type InsertSubject struct{ Subject models.Subject }

func (a InsertSubject) apply(s *State) bool {
	if s.subjectIndex(a.Subject.ID) >= 0 {
		return false
	}
	s.Subjects = append(slices.Clip(s.Subjects), a.Subject)
	return true
}

// ReplaceSubject swaps in a new version of a known subject.
type ReplaceSubject struct{ Subject models.Subject }

func (a ReplaceSubject) apply(s *State) bool {
	i := s.subjectIndex(a.Subject.ID)
	if i < 0 {
		return false
	}
	s.Subjects = slices.Clone(s.Subjects)
	s.Subjects[i] = a.Subject
	return true
}

// RemoveSubject drops a subject and clears it from every task that used it.
type RemoveSubject struct{ ID string }

func (a RemoveSubject) apply(s *State) bool {
	i := s.subjectIndex(a.ID)
	if i < 0 {
		return false
	}
	s.Subjects = slices.Delete(slices.Clone(s.Subjects), i, i+1)
	s.Tasks = slices.Clone(s.Tasks)
	for j := range s.Tasks {
		if s.Tasks[j].SubjectID != nil && *s.Tasks[j].SubjectID == a.ID {
			s.Tasks[j].SubjectID = nil
		}
	}
	return true
}

// Reposition places a task at Index of ColumnID in render order without
// touching any other task. The task takes Position = Index and is moved in
// the task list just ahead of the task currently rendered at that index, so
// it renders there even when positions tie.
type Reposition struct {
	ID       string
	ColumnID string
	Index    int
}

func (a Reposition) apply(s *State) bool {
	i := s.taskIndex(a.ID)
	if i < 0 {
		return false
	}
	moved := s.Tasks[i]
	moved.ColumnID = a.ColumnID
	moved.Position = a.Index

	tasks := slices.Delete(slices.Clone(s.Tasks), i, i+1)
	insertAt := len(tasks)
	if inCol := (State{Tasks: tasks}).TasksIn(a.ColumnID); a.Index < len(inCol) {
		anchor := inCol[a.Index].ID
		insertAt = slices.IndexFunc(tasks, func(t models.Task) bool { return t.ID == anchor })
	}
	if insertAt == i && s.Tasks[i] == moved {
		return false
	}
	s.Tasks = slices.Insert(tasks, insertAt, moved)
	return true
}
