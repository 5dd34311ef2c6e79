// Package ordering moves and reorders tasks on an open board.
//
// Every mutation is an Operation: the local change is applied to the board
// container first so the UI reacts at once, then persisted. When a move
// fails to persist, the board's tasks are reloaded from the store. The
// store's realtime echo of a successful write is reconciled idempotently by
// package reconcile.
package ordering

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/zulandar/studyflow/internal/access"
	"github.com/zulandar/studyflow/internal/board"
	"github.com/zulandar/studyflow/internal/logging"
	"github.com/zulandar/studyflow/internal/models"
	"github.com/zulandar/studyflow/internal/store"
)

// ErrReadOnly is returned when the viewer's role does not allow editing.
var ErrReadOnly = errors.New("ordering: board is read-only for this role")

// Store is the persistence the engine needs.
type Store interface {
	UpdateTask(ctx context.Context, id string, patch store.TaskPatch) (models.Task, error)
	UpdateTaskPositions(ctx context.Context, updates []store.PositionUpdate) []error
	GetBoardTasks(ctx context.Context, columnIDs []string) ([]models.Task, error)
}

// Target is a proposed drop location: a column and a 0-based index in it.
type Target struct {
	ColumnID string
	Index    int
}

// Engine applies ordering operations to one board container.
//
// Every mutating operation checks the container's Role, and the zero Role
// is read-only. States from store.LoadBoard and store.OpenBoard carry the
// resolved role; a hand-built State must set Role (or dispatch board.SetRole)
// before anything can be moved.
type Engine struct {
	board *board.Container
	store Store
	log   log.FieldLogger
	now   func() time.Time
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for completion stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an engine for c persisting through st.
func New(c *board.Container, st Store, logger log.FieldLogger, opts ...Option) *Engine {
	e := &Engine{
		board: c,
		store: st,
		log:   logging.OrDiscard(logger),
		now:   time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Board returns the container the engine operates on.
func (e *Engine) Board() *board.Container { return e.board }

// ComputeDropTarget proposes where the active task lands when released over
// overID on the current board.
func (e *Engine) ComputeDropTarget(activeTaskID, overID string) (Target, bool) {
	return ComputeDropTarget(e.board.Snapshot(), activeTaskID, overID)
}

// ComputeDropTarget proposes a drop location on s. Over a task the target is
// that task's column at the task's index in render order. Over a column the
// target is the end of that column. Anything else yields no proposal.
func ComputeDropTarget(s board.State, activeTaskID, overID string) (Target, bool) {
	if _, ok := s.Task(activeTaskID); !ok || overID == "" {
		return Target{}, false
	}
	if over, ok := s.Task(overID); ok {
		for i, t := range s.TasksIn(over.ColumnID) {
			if t.ID == overID {
				return Target{ColumnID: over.ColumnID, Index: i}, true
			}
		}
	}
	if col, ok := s.Column(overID); ok {
		return Target{ColumnID: col.ID, Index: len(s.TasksIn(col.ID))}, true
	}
	return Target{}, false
}

// PreviewMove shows the task at (columnID, index) without persisting it and
// without applying completion or repeat rules. Calling it again with the
// same arguments changes nothing.
func (e *Engine) PreviewMove(taskID, columnID string, index int) {
	e.board.Dispatch(board.Reposition{ID: taskID, ColumnID: columnID, Index: index})
}

// CommitMove moves a task and persists the move. A repeat task dropped on
// the done column goes to the end of the repeat column instead. Entering the
// done column stamps CompletedAt; leaving it clears the stamp. A task or
// column that vanished in the meantime makes the move a no-op.
func (e *Engine) CommitMove(ctx context.Context, taskID, columnID string, index int) error {
	s := e.board.Snapshot()
	if !access.CanEdit(s.Role) {
		return ErrReadOnly
	}
	task, ok := s.Task(taskID)
	if !ok {
		e.log.WithField("task_id", taskID).Debug("ordering: move of unknown task ignored")
		return nil
	}
	dest, ok := s.Column(columnID)
	if !ok {
		e.log.WithFields(log.Fields{"task_id": taskID, "column_id": columnID}).Debug("ordering: move into unknown column ignored")
		return nil
	}

	if task.IsRepeat && IsDone(dest) {
		if repeat, ok := s.ColumnAt(SlotRepeat.Position()); ok {
			dest = repeat
			index = 0
			for _, t := range s.TasksIn(repeat.ID) {
				if t.ID != taskID {
					index++
				}
			}
			e.log.WithFields(log.Fields{"task_id": taskID, "column_id": repeat.ID, "index": index}).Debug("ordering: repeat task rerouted")
		}
	}
	index = clampIndex(s, taskID, dest.ID, index)

	completedAt := task.CompletedAt
	prev, _ := s.Column(task.ColumnID)
	switch wasDone, isDone := IsDone(prev), IsDone(dest); {
	case isDone && !wasDone:
		now := e.now()
		completedAt = &now
	case wasDone && !isDone:
		completedAt = nil
	}

	destID := dest.ID
	return e.run(ctx, Operation{
		Name: "move",
		Apply: func() {
			e.board.Dispatch(board.PatchTask{ID: taskID, Fn: func(t *models.Task) {
				t.ColumnID = destID
				t.Position = index
				t.CompletedAt = completedAt
			}})
		},
		Persist: func(ctx context.Context) error {
			pos := index
			_, err := e.store.UpdateTask(ctx, taskID, store.TaskPatch{
				ColumnID:    &destID,
				Position:    &pos,
				CompletedAt: store.Ptr(completedAt),
			})
			return err
		},
		ResyncOnError: true,
	})
}

// ReorderWithinColumn gives the listed tasks of columnID dense positions in
// the order given. IDs of unknown tasks or of tasks in other columns are
// skipped. The local change is applied in one step; changed positions are
// then written one by one. Failed writes are reported together and leave the
// local order in place.
func (e *Engine) ReorderWithinColumn(ctx context.Context, columnID string, orderedTaskIDs []string) error {
	s := e.board.Snapshot()
	if !access.CanEdit(s.Role) {
		return ErrReadOnly
	}
	patches := make(map[string]func(*models.Task), len(orderedTaskIDs))
	var updates []store.PositionUpdate
	for _, id := range orderedTaskIDs {
		t, ok := s.Task(id)
		if !ok || t.ColumnID != columnID {
			continue
		}
		if _, dup := patches[id]; dup {
			continue
		}
		pos := len(patches)
		patches[id] = func(t *models.Task) { t.Position = pos }
		if t.Position != pos {
			updates = append(updates, store.PositionUpdate{ID: id, Position: pos})
		}
	}
	if len(patches) == 0 {
		return nil
	}
	return e.run(ctx, Operation{
		Name:  "reorder",
		Apply: func() { e.board.Dispatch(board.PatchTasks{Fn: patches}) },
		Persist: func(ctx context.Context) error {
			if len(updates) == 0 {
				return nil
			}
			var errs []error
			for i, err := range e.store.UpdateTaskPositions(ctx, updates) {
				if err != nil {
					errs = append(errs, fmt.Errorf("position of %s: %w", updates[i].ID, err))
				}
			}
			return errors.Join(errs...)
		},
	})
}

// clampIndex bounds index to [0, n] where n counts the other tasks already
// in columnID.
func clampIndex(s board.State, taskID, columnID string, index int) int {
	n := 0
	for _, t := range s.TasksIn(columnID) {
		if t.ID != taskID {
			n++
		}
	}
	return max(0, min(index, n))
}

// Resync reloads every task of the board's columns from the store.
func (e *Engine) Resync(ctx context.Context) error {
	ids := e.board.Snapshot().ColumnIDs()
	tasks, err := e.store.GetBoardTasks(ctx, ids)
	if err != nil {
		return fmt.Errorf("ordering: resync: %w", err)
	}
	e.board.Dispatch(board.ReplaceTasks{Tasks: tasks})
	return nil
}
