package ordering

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/zulandar/studyflow/internal/access"
	"github.com/zulandar/studyflow/internal/board"
	"github.com/zulandar/studyflow/internal/models"
)

// Drag is one drag gesture on a task. Targets are computed against the board
// as it was when the drag started; hovering over another column previews the
// move locally. Drop rolls the preview back and commits the final move;
// Cancel only rolls back.
type Drag struct {
	engine *Engine
	active string
	origin board.State
	task   models.Task

	mu       sync.Mutex
	preview  *Target
	finished bool
}

// StartDrag begins dragging taskID.
func (e *Engine) StartDrag(taskID string) (*Drag, error) {
	s := e.board.Snapshot()
	if !access.CanEdit(s.Role) {
		return nil, ErrReadOnly
	}
	t, ok := s.Task(taskID)
	if !ok {
		return nil, fmt.Errorf("ordering: start drag: unknown task %s", taskID)
	}
	return &Drag{engine: e, active: taskID, origin: s, task: t}, nil
}

// Active returns the dragged task as it was when the drag started.
func (d *Drag) Active() models.Task { return d.task }

// Over reports the pointer hovering overID and returns the proposed target.
// A target in another column is previewed; hovering back over the origin
// column removes the preview.
func (d *Drag) Over(overID string) (Target, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.finished {
		return Target{}, false
	}
	target, ok := ComputeDropTarget(d.origin, d.active, overID)
	if !ok || overID == d.active {
		return target, ok
	}
	if target.ColumnID == d.task.ColumnID {
		d.rollbackLocked()
		return target, true
	}
	d.engine.PreviewMove(d.active, target.ColumnID, target.Index)
	d.preview = &target
	return target, true
}

// Drop ends the drag over overID. An empty overID is a drop outside any
// target and changes nothing. Dropping within the origin column reorders it;
// dropping elsewhere moves the task.
func (d *Drag) Drop(ctx context.Context, overID string) error {
	d.mu.Lock()
	if d.finished {
		d.mu.Unlock()
		return nil
	}
	d.finished = true
	preview := d.preview
	d.rollbackLocked()
	d.mu.Unlock()

	var (
		target Target
		ok     bool
	)
	switch {
	case overID == "":
		return nil
	case overID == d.active:
		// The dragged card sits under the pointer; fall back to the last
		// previewed location, if any.
		if preview == nil {
			return nil
		}
		target, ok = *preview, true
	default:
		target, ok = ComputeDropTarget(d.origin, d.active, overID)
	}
	if !ok {
		return nil
	}

	if target.ColumnID != d.task.ColumnID {
		return d.engine.CommitMove(ctx, d.active, target.ColumnID, target.Index)
	}

	ids := taskIDs(d.origin.TasksIn(target.ColumnID))
	from := slices.Index(ids, d.active)
	to := min(target.Index, len(ids)-1)
	if from < 0 || from == to {
		return nil
	}
	return d.engine.ReorderWithinColumn(ctx, target.ColumnID, ArrayMove(ids, from, to))
}

// Cancel ends the drag and removes any preview.
func (d *Drag) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finished = true
	d.rollbackLocked()
}

// rollbackLocked puts the dragged task back where it was at drag start.
// Changes to other tasks made meanwhile are kept.
func (d *Drag) rollbackLocked() {
	if d.preview == nil {
		return
	}
	d.preview = nil
	orig := d.task
	d.engine.board.Dispatch(board.PatchTask{ID: d.active, Fn: func(t *models.Task) {
		t.ColumnID = orig.ColumnID
		t.Position = orig.Position
		t.CompletedAt = orig.CompletedAt
	}})
}

// ArrayMove returns a copy of ids with the element at from moved to to.
func ArrayMove(ids []string, from, to int) []string {
	out := slices.Clone(ids)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) {
		return out
	}
	v := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, v)
}

func taskIDs(tasks []models.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}
