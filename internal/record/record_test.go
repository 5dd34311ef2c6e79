package record

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/studyflow/internal/models"
)

func taskRecord() Record {
	return Record{
		"id":          "t1",
		"column_id":   "c1",
		"subject_id":  "s1",
		"title":       "Essay",
		"description": nil,
		"deadline":    "2026-03-01T10:00:00Z",
		"priority":    "high",
		"position":    float64(2),
		"is_repeat":   true,
		"created_at":  "2026-02-01T09:00:00Z",
		"updated_at":  "2026-02-02T09:00:00Z",
	}
}

func TestTask(t *testing.T) {
	task, err := Task(taskRecord())
	if err != nil {
		t.Fatalf("Task: %v", err)
	}
	if task.ID != "t1" || task.ColumnID != "c1" || task.Title != "Essay" {
		t.Errorf("task = %+v", task)
	}
	if task.SubjectID == nil || *task.SubjectID != "s1" {
		t.Errorf("SubjectID = %v, want s1", task.SubjectID)
	}
	if task.Description != nil {
		t.Errorf("Description = %v, want nil", *task.Description)
	}
	want := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if task.Deadline == nil || !task.Deadline.Equal(want) {
		t.Errorf("Deadline = %v, want %v", task.Deadline, want)
	}
	if task.Priority != models.PriorityHigh {
		t.Errorf("Priority = %q, want high", task.Priority)
	}
	if task.Position != 2 {
		t.Errorf("Position = %d, want 2", task.Position)
	}
	if !task.IsRepeat {
		t.Error("IsRepeat = false, want true")
	}
	if task.CompletedAt != nil {
		t.Errorf("CompletedAt = %v, want nil", task.CompletedAt)
	}
}

func TestTask_Defaults(t *testing.T) {
	r := taskRecord()
	r["priority"] = "urgent"
	delete(r, "is_repeat")
	delete(r, "subject_id")

	task, err := Task(r)
	if err != nil {
		t.Fatalf("Task: %v", err)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("Priority = %q, want medium fallback", task.Priority)
	}
	if task.IsRepeat {
		t.Error("IsRepeat should default to false")
	}
	if task.SubjectID != nil {
		t.Errorf("SubjectID = %v, want nil", *task.SubjectID)
	}
}

func TestTask_PositionShapes(t *testing.T) {
	for _, v := range []any{3, int64(3), float64(3), json.Number("3")} {
		r := taskRecord()
		r["position"] = v
		task, err := Task(r)
		if err != nil {
			t.Errorf("position %T: %v", v, err)
			continue
		}
		if task.Position != 3 {
			t.Errorf("position %T = %d, want 3", v, task.Position)
		}
	}
}

func TestTask_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		want  string
	}{
		{"missing id", "id", nil, "task.id"},
		{"numeric title", "title", 42.0, "task.title"},
		{"string position", "position", "2", "task.position"},
		{"fractional position", "position", 1.5, "task.position"},
		{"bad created_at", "created_at", "yesterday", "task.created_at"},
		{"missing column", "column_id", nil, "task.column_id"},
		{"bad deadline", "deadline", "next friday", "task.deadline"},
		{"numeric deadline", "deadline", 1740823200.0, "task.deadline"},
		{"bad completed_at", "completed_at", "2026-13-40", "task.completed_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := taskRecord()
			if tt.value == nil {
				delete(r, tt.key)
			} else {
				r[tt.key] = tt.value
			}
			_, err := Task(r)
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("err = %v, want ErrMalformed", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want to mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestTask_OptionalTimesAbsent(t *testing.T) {
	for _, v := range []any{nil, ""} {
		r := taskRecord()
		r["deadline"] = v
		r["completed_at"] = v
		task, err := Task(r)
		if err != nil {
			t.Errorf("deadline %#v: %v", v, err)
			continue
		}
		if task.Deadline != nil || task.CompletedAt != nil {
			t.Errorf("deadline %#v: got %v / %v, want both nil", v, task.Deadline, task.CompletedAt)
		}
	}
}

func TestColumn(t *testing.T) {
	c, err := Column(Record{
		"id": "c1", "board_id": "b1", "title": "Done", "position": 2.0,
		"created_at": "2026-02-01T09:00:00Z",
	})
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	if c.ID != "c1" || c.BoardID != "b1" || c.Position != 2 {
		t.Errorf("column = %+v", c)
	}

	_, err = Column(Record{"id": "c1", "board_id": "b1", "title": "Done"})
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("missing position: err = %v, want ErrMalformed", err)
	}
}

func TestSubject(t *testing.T) {
	s, err := Subject(Record{
		"id": "s1", "board_id": "b1", "name": "Math", "color": "#3b82f6",
		"created_at": "2026-02-01T09:00:00Z",
	})
	if err != nil {
		t.Fatalf("Subject: %v", err)
	}
	if s.Color == nil || *s.Color != "#3b82f6" {
		t.Errorf("Color = %v", s.Color)
	}
	if s.UserID != nil {
		t.Errorf("UserID = %v, want nil", *s.UserID)
	}
}

func TestFromTask_RoundTrip(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	in := models.Task{
		ID: "t1", ColumnID: "c1", Title: "Read", Priority: models.PriorityLow,
		Position: 4, Deadline: &deadline,
		CreatedAt: deadline.Add(-time.Hour), UpdatedAt: deadline,
	}
	r, err := FromTask(in)
	if err != nil {
		t.Fatalf("FromTask: %v", err)
	}
	if r.ID() != "t1" {
		t.Errorf("ID() = %q", r.ID())
	}
	if _, ok := r["column_id"]; !ok {
		t.Error("record missing column_id key")
	}
	out, err := Task(r)
	if err != nil {
		t.Fatalf("Task: %v", err)
	}
	if out.Position != 4 || out.Priority != models.PriorityLow || !out.Deadline.Equal(deadline) {
		t.Errorf("round trip = %+v", out)
	}
}

func TestFromColumn(t *testing.T) {
	r, err := FromColumn(models.Column{ID: "c1", BoardID: "b1", Title: "Repeat", Position: 3})
	if err != nil {
		t.Fatalf("FromColumn: %v", err)
	}
	c, err := Column(r)
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	if c.Position != 3 || c.Title != "Repeat" {
		t.Errorf("column = %+v", c)
	}
}
