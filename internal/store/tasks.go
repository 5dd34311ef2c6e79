package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zulandar/studyflow/internal/models"
	"github.com/zulandar/studyflow/internal/realtime"
)

// Opt is a nullable field in a partial update. Zero means "leave unchanged";
// a set Opt with a nil Value clears the column.
type Opt[T any] struct {
	Set   bool
	Value *T
}

// Value returns an Opt that writes v.
func Value[T any](v T) Opt[T] {
	return Opt[T]{Set: true, Value: &v}
}

// Null returns an Opt that clears the column.
func Null[T any]() Opt[T] {
	return Opt[T]{Set: true}
}

// Ptr returns an Opt that writes *p, or clears the column when p is nil.
func Ptr[T any](p *T) Opt[T] {
	return Opt[T]{Set: true, Value: p}
}

// TaskPatch is a partial task update. Nil pointers and unset Opts are left
// untouched.
type TaskPatch struct {
	ColumnID    *string
	Position    *int
	Title       *string
	Priority    *models.Priority
	IsRepeat    *bool
	SubjectID   Opt[string]
	Description Opt[string]
	Deadline    Opt[time.Time]
	CompletedAt Opt[time.Time]
}

func (p TaskPatch) updates() map[string]interface{} {
	u := make(map[string]interface{})
	if p.ColumnID != nil {
		u["column_id"] = *p.ColumnID
	}
	if p.Position != nil {
		u["position"] = *p.Position
	}
	if p.Title != nil {
		u["title"] = *p.Title
	}
	if p.Priority != nil {
		u["priority"] = *p.Priority
	}
	if p.IsRepeat != nil {
		u["is_repeat"] = *p.IsRepeat
	}
	setOpt(u, "subject_id", p.SubjectID)
	setOpt(u, "description", p.Description)
	setOpt(u, "deadline", p.Deadline)
	setOpt(u, "completed_at", p.CompletedAt)
	return u
}

func setOpt[T any](u map[string]interface{}, col string, o Opt[T]) {
	if !o.Set {
		return
	}
	if o.Value == nil {
		u[col] = nil
		return
	}
	u[col] = *o.Value
}

// PositionUpdate assigns a new position to one task.
type PositionUpdate struct {
	ID       string
	Position int
}

// NewTask holds the fields of a task to create.
type NewTask struct {
	ColumnID    string
	SubjectID   *string
	Title       string
	Description *string
	Deadline    *time.Time
	Priority    models.Priority
	IsRepeat    bool
}

// GetBoardTasks returns every task in the given columns ordered by position.
// An empty column list yields no tasks.
func (s *Store) GetBoardTasks(ctx context.Context, columnIDs []string) ([]models.Task, error) {
	if len(columnIDs) == 0 {
		return []models.Task{}, nil
	}
	var tasks []models.Task
	if err := s.db.WithContext(ctx).Where("column_id IN ?", columnIDs).
		Order("position ASC, created_at ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("store: get tasks for %d columns: %w", len(columnIDs), err)
	}
	return tasks, nil
}

// GetTask returns one task.
func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	var t models.Task
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		if notFound(err) {
			return t, fmt.Errorf("%w: task %s", ErrNotFound, id)
		}
		return t, fmt.Errorf("store: get task %s: %w", id, err)
	}
	return t, nil
}

// TaskBoard returns the ID of the board a task belongs to.
func (s *Store) TaskBoard(ctx context.Context, taskID string) (string, error) {
	t, err := s.GetTask(ctx, taskID)
	if err != nil {
		return "", err
	}
	return s.ColumnBoard(ctx, t.ColumnID)
}

// CreateTask appends a task to the end of its column: one past the highest
// position in use, or 0 for an empty column.
func (s *Store) CreateTask(ctx context.Context, nt NewTask) (models.Task, error) {
	nt.Title = strings.TrimSpace(nt.Title)
	if nt.Title == "" {
		return models.Task{}, fmt.Errorf("%w: task title is required", ErrInvalid)
	}
	if nt.Priority == "" {
		nt.Priority = models.PriorityMedium
	}
	now := s.now()
	t := models.Task{
		ID:          uuid.NewString(),
		ColumnID:    nt.ColumnID,
		SubjectID:   nt.SubjectID,
		Title:       nt.Title,
		Description: nt.Description,
		Deadline:    nt.Deadline,
		Priority:    models.ParsePriority(string(nt.Priority)),
		IsRepeat:    nt.IsRepeat,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Column{}).Where("id = ?", nt.ColumnID).Count(&count).Error; err != nil {
			return fmt.Errorf("store: check column %s: %w", nt.ColumnID, err)
		}
		if count == 0 {
			return fmt.Errorf("%w: column %s", ErrNotFound, nt.ColumnID)
		}
		var maxPos sql.NullInt64
		if err := tx.Model(&models.Task{}).Where("column_id = ?", nt.ColumnID).
			Select("MAX(position)").Row().Scan(&maxPos); err != nil {
			return fmt.Errorf("store: next position in %s: %w", nt.ColumnID, err)
		}
		if maxPos.Valid {
			t.Position = int(maxPos.Int64) + 1
		}
		if err := tx.Create(&t).Error; err != nil {
			return fmt.Errorf("store: create task: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}
	s.publish(ctx, realtime.KindInsert, realtime.TableTasks, "", t)
	return t, nil
}

// UpdateTask applies a partial update and returns the stored row.
func (s *Store) UpdateTask(ctx context.Context, id string, patch TaskPatch) (models.Task, error) {
	u := patch.updates()
	if p, ok := u["priority"].(models.Priority); ok {
		u["priority"] = models.ParsePriority(string(p))
	}
	if title, ok := u["title"].(string); ok {
		title = strings.TrimSpace(title)
		if title == "" {
			return models.Task{}, fmt.Errorf("%w: task title is required", ErrInvalid)
		}
		u["title"] = title
	}
	u["updated_at"] = s.now()

	res := s.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Updates(u)
	if res.Error != nil {
		return models.Task{}, fmt.Errorf("store: update task %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	t, err := s.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	s.publish(ctx, realtime.KindUpdate, realtime.TableTasks, "", t)
	return t, nil
}

// UpdateTaskPositions writes each position in order, one statement per task.
// The result has one entry per update: nil on success, the error otherwise.
// A failure does not stop the remaining updates.
func (s *Store) UpdateTaskPositions(ctx context.Context, updates []PositionUpdate) []error {
	errs := make([]error, len(updates))
	for i, pu := range updates {
		pos := pu.Position
		_, errs[i] = s.UpdateTask(ctx, pu.ID, TaskPatch{Position: &pos})
	}
	return errs
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	t, err := s.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Task{}).Error; err != nil {
		return fmt.Errorf("store: delete task %s: %w", id, err)
	}
	s.publish(ctx, realtime.KindDelete, realtime.TableTasks, "", t)
	return nil
}

// SubscribeToTaskChanges delivers task changes for the given columns.
func (s *Store) SubscribeToTaskChanges(ctx context.Context, columnIDs []string, onChange realtime.Handler) (realtime.Unsubscribe, error) {
	if s.feed == nil {
		return func() {}, nil
	}
	unsub, err := s.feed.Subscribe(ctx, realtime.Filter{Table: realtime.TableTasks, ColumnIDs: append([]string(nil), columnIDs...)}, onChange)
	if err != nil {
		return nil, fmt.Errorf("store: subscribe to tasks: %w", err)
	}
	return unsub, nil
}
