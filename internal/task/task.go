// Package task provides task lifecycle operations on top of the store:
// validated creation, filtered listing and partial updates addressed by
// human-friendly column and subject references.
package task

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/zulandar/studyflow/internal/models"
	"github.com/zulandar/studyflow/internal/store"
)

// ErrInvalidPriority is returned for a priority other than low, medium or high.
var ErrInvalidPriority = errors.New("task: invalid priority")

// CreateOpts holds parameters for creating a new task.
type CreateOpts struct {
	BoardID     string
	Column      string // column ID, title or position; empty means the first column
	Subject     string // subject ID or name; empty means none
	Title       string
	Description string
	Deadline    *time.Time
	Priority    string // low, medium, high; empty means medium
	Repeat      bool
}

// UpdateOpts holds a partial update. Nil fields are left untouched. An empty
// Subject, Description or Deadline string clears the field.
type UpdateOpts struct {
	Title       *string
	Description *string
	Subject     *string
	Deadline    *string
	Priority    *string
	Repeat      *bool
}

// ListFilters holds optional filters for listing tasks.
type ListFilters struct {
	BoardID    string
	ColumnID   string
	SubjectID  string
	Priority   string
	Incomplete bool
	DueBefore  *time.Time
}

// ValidatePriority accepts low, medium and high, and maps empty to medium.
func ValidatePriority(p string) (models.Priority, error) {
	switch p {
	case "":
		return models.PriorityMedium, nil
	case string(models.PriorityLow), string(models.PriorityMedium), string(models.PriorityHigh):
		return models.Priority(p), nil
	}
	return "", fmt.Errorf("%w %q: must be low, medium or high", ErrInvalidPriority, p)
}

// ParseDeadline accepts a date (2006-01-02, end of day in loc) or an RFC 3339
// timestamp. An empty string means no deadline.
func ParseDeadline(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: deadline %q: want YYYY-MM-DD or RFC 3339", store.ErrInvalid, s)
	}
	eod := d.Add(24*time.Hour - time.Second)
	return &eod, nil
}

// ResolveColumn finds a column by ID, case-insensitive title or position.
// An empty ref selects the first column.
func ResolveColumn(cols []models.Column, ref string) (models.Column, error) {
	if len(cols) == 0 {
		return models.Column{}, fmt.Errorf("task: board has no columns")
	}
	if ref == "" {
		first := cols[0]
		for _, c := range cols[1:] {
			if c.Position < first.Position {
				first = c
			}
		}
		return first, nil
	}
	for _, c := range cols {
		if c.ID == ref {
			return c, nil
		}
	}
	for _, c := range cols {
		if strings.EqualFold(c.Title, ref) {
			return c, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil {
		for _, c := range cols {
			if c.Position == n {
				return c, nil
			}
		}
	}
	return models.Column{}, fmt.Errorf("%w: column %q", store.ErrNotFound, ref)
}

// ResolveSubject finds a subject by ID or case-insensitive name.
func ResolveSubject(subjects []models.Subject, ref string) (models.Subject, error) {
	for _, s := range subjects {
		if s.ID == ref {
			return s, nil
		}
	}
	for _, s := range subjects {
		if strings.EqualFold(s.Name, ref) {
			return s, nil
		}
	}
	return models.Subject{}, fmt.Errorf("%w: subject %q", store.ErrNotFound, ref)
}

// Create validates opts and appends a new task to its column.
func Create(ctx context.Context, st *store.Store, opts CreateOpts) (models.Task, error) {
	if strings.TrimSpace(opts.Title) == "" {
		return models.Task{}, fmt.Errorf("%w: task title is required", store.ErrInvalid)
	}
	if opts.BoardID == "" {
		return models.Task{}, fmt.Errorf("%w: task board is required", store.ErrInvalid)
	}
	prio, err := ValidatePriority(opts.Priority)
	if err != nil {
		return models.Task{}, err
	}

	cols, err := st.GetColumns(ctx, opts.BoardID)
	if err != nil {
		return models.Task{}, err
	}
	col, err := ResolveColumn(cols, opts.Column)
	if err != nil {
		return models.Task{}, err
	}

	nt := store.NewTask{
		ColumnID: col.ID,
		Title:    opts.Title,
		Deadline: opts.Deadline,
		Priority: prio,
		IsRepeat: opts.Repeat,
	}
	if opts.Description != "" {
		nt.Description = &opts.Description
	}
	if opts.Subject != "" {
		subjects, err := st.GetSubjects(ctx, opts.BoardID)
		if err != nil {
			return models.Task{}, err
		}
		s, err := ResolveSubject(subjects, opts.Subject)
		if err != nil {
			return models.Task{}, err
		}
		nt.SubjectID = &s.ID
	}
	return st.CreateTask(ctx, nt)
}

// Get retrieves a task by ID.
func Get(ctx context.Context, st *store.Store, id string) (models.Task, error) {
	return st.GetTask(ctx, id)
}

// List returns tasks matching the given filters, ordered by column position
// then task position.
func List(ctx context.Context, db *gorm.DB, filters ListFilters) ([]models.Task, error) {
	q := db.WithContext(ctx).Model(&models.Task{}).
		Joins("JOIN columns ON columns.id = tasks.column_id")

	if filters.BoardID != "" {
		q = q.Where("columns.board_id = ?", filters.BoardID)
	}
	if filters.ColumnID != "" {
		q = q.Where("tasks.column_id = ?", filters.ColumnID)
	}
	if filters.SubjectID != "" {
		q = q.Where("tasks.subject_id = ?", filters.SubjectID)
	}
	if filters.Priority != "" {
		q = q.Where("tasks.priority = ?", filters.Priority)
	}
	if filters.Incomplete {
		q = q.Where("tasks.completed_at IS NULL")
	}
	if filters.DueBefore != nil {
		q = q.Where("tasks.deadline IS NOT NULL AND tasks.deadline <= ?", *filters.DueBefore)
	}

	var tasks []models.Task
	if err := q.Select("tasks.*").
		Order("columns.position ASC, tasks.position ASC, tasks.created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("task: list: %w", err)
	}
	return tasks, nil
}

// Update applies opts to a task.
func Update(ctx context.Context, st *store.Store, id string, opts UpdateOpts) (models.Task, error) {
	var patch store.TaskPatch
	patch.Title = opts.Title
	patch.IsRepeat = opts.Repeat
	if opts.Priority != nil {
		p, err := ValidatePriority(*opts.Priority)
		if err != nil {
			return models.Task{}, err
		}
		patch.Priority = &p
	}
	if opts.Description != nil {
		if *opts.Description == "" {
			patch.Description = store.Null[string]()
		} else {
			patch.Description = store.Value(*opts.Description)
		}
	}
	if opts.Deadline != nil {
		d, err := ParseDeadline(*opts.Deadline, time.Local)
		if err != nil {
			return models.Task{}, err
		}
		patch.Deadline = store.Ptr(d)
	}
	if opts.Subject != nil {
		if *opts.Subject == "" {
			patch.SubjectID = store.Null[string]()
		} else {
			boardID, err := st.TaskBoard(ctx, id)
			if err != nil {
				return models.Task{}, err
			}
			subjects, err := st.GetSubjects(ctx, boardID)
			if err != nil {
				return models.Task{}, err
			}
			s, err := ResolveSubject(subjects, *opts.Subject)
			if err != nil {
				return models.Task{}, err
			}
			patch.SubjectID = store.Value(s.ID)
		}
	}
	return st.UpdateTask(ctx, id, patch)
}

// Delete removes a task.
func Delete(ctx context.Context, st *store.Store, id string) error {
	return st.DeleteTask(ctx, id)
}
