// Package record converts raw change-feed rows into typed models and back.
//
// A raw record is a JSON-compatible map keyed by snake_case column names.
// Required fields are checked strictly; a record that fails a check is
// reported with ErrMalformed and must be dropped by the caller.
package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/zulandar/studyflow/internal/models"
)

// ErrMalformed is returned when a raw record is missing a required field or
// carries a value of the wrong type.
var ErrMalformed = errors.New("record: malformed")

// Record is one raw row as delivered by the change feed.
type Record map[string]any

// ID returns the record's "id" field, or "" when absent.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Task maps a raw tasks row.
func Task(r Record) (models.Task, error) {
	var (
		t   models.Task
		err error
	)
	if t.ID, err = requireString(r, "task.id", "id"); err != nil {
		return t, err
	}
	if t.ColumnID, err = requireString(r, "task.column_id", "column_id"); err != nil {
		return t, err
	}
	if t.Title, err = requireString(r, "task.title", "title"); err != nil {
		return t, err
	}
	if t.Position, err = requireInt(r, "task.position", "position"); err != nil {
		return t, err
	}
	if t.CreatedAt, err = requireTime(r, "task.created_at", "created_at"); err != nil {
		return t, err
	}
	if t.UpdatedAt, err = requireTime(r, "task.updated_at", "updated_at"); err != nil {
		return t, err
	}
	t.SubjectID = optionalString(r["subject_id"])
	t.Description = optionalString(r["description"])
	if t.Deadline, err = optionalTime(r, "task.deadline", "deadline"); err != nil {
		return t, err
	}
	if t.CompletedAt, err = optionalTime(r, "task.completed_at", "completed_at"); err != nil {
		return t, err
	}
	p, _ := r["priority"].(string)
	t.Priority = models.ParsePriority(p)
	t.IsRepeat, _ = r["is_repeat"].(bool)
	return t, nil
}

// Column maps a raw columns row.
func Column(r Record) (models.Column, error) {
	var (
		c   models.Column
		err error
	)
	if c.ID, err = requireString(r, "column.id", "id"); err != nil {
		return c, err
	}
	if c.BoardID, err = requireString(r, "column.board_id", "board_id"); err != nil {
		return c, err
	}
	if c.Title, err = requireString(r, "column.title", "title"); err != nil {
		return c, err
	}
	if c.Position, err = requireInt(r, "column.position", "position"); err != nil {
		return c, err
	}
	if c.CreatedAt, err = requireTime(r, "column.created_at", "created_at"); err != nil {
		return c, err
	}
	return c, nil
}

// Subject maps a raw subjects row.
func Subject(r Record) (models.Subject, error) {
	var (
		s   models.Subject
		err error
	)
	if s.ID, err = requireString(r, "subject.id", "id"); err != nil {
		return s, err
	}
	if s.BoardID, err = requireString(r, "subject.board_id", "board_id"); err != nil {
		return s, err
	}
	if s.Name, err = requireString(r, "subject.name", "name"); err != nil {
		return s, err
	}
	if s.CreatedAt, err = requireTime(r, "subject.created_at", "created_at"); err != nil {
		return s, err
	}
	s.UserID = optionalString(r["user_id"])
	s.Color = optionalString(r["color"])
	return s, nil
}

// FromTask builds the raw record published for a task row.
func FromTask(t models.Task) (Record, error) {
	return From(t)
}

// FromColumn builds the raw record published for a column row.
func FromColumn(c models.Column) (Record, error) {
	return From(c)
}

// FromSubject builds the raw record published for a subject row.
func FromSubject(s models.Subject) (Record, error) {
	return From(s)
}

// From round-trips v through its JSON form so the record carries exactly the
// keys and value shapes a remote subscriber would see.
func From(v any) (Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("record: marshal %T: %w", v, err)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("record: unmarshal %T: %w", v, err)
	}
	return r, nil
}

func requireString(r Record, field, key string) (string, error) {
	s, ok := r[key].(string)
	if !ok {
		return "", fmt.Errorf("%w: expected string for %s, got %s", ErrMalformed, field, typeName(r[key]))
	}
	return s, nil
}

func requireInt(r Record, field, key string) (int, error) {
	switch v := r[key].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int(v), nil
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), nil
		}
	}
	return 0, fmt.Errorf("%w: expected integer for %s, got %s", ErrMalformed, field, typeName(r[key]))
}

func requireTime(r Record, field, key string) (time.Time, error) {
	switch v := r[key].(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err == nil {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("%w: bad timestamp for %s: %v", ErrMalformed, field, err)
	}
	return time.Time{}, fmt.Errorf("%w: expected timestamp for %s, got %s", ErrMalformed, field, typeName(r[key]))
}

func optionalString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

// optionalTime accepts a missing, null or empty value as absent. Anything
// else must be a timestamp.
func optionalTime(r Record, field, key string) (*time.Time, error) {
	switch v := r[key].(type) {
	case nil:
		return nil, nil
	case *time.Time:
		return v, nil
	case string:
		if v == "" {
			return nil, nil
		}
	}
	t, err := requireTime(r, field, key)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
