package models

import "time"

// Task is a card on the board. Position is its 0-based rank within ColumnID.
type Task struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	ColumnID    string     `gorm:"size:36;not null;index:idx_task_column_position" json:"column_id"`
	SubjectID   *string    `gorm:"size:36;index" json:"subject_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description *string    `gorm:"type:text" json:"description"`
	Deadline    *time.Time `gorm:"index" json:"deadline"`
	Priority    Priority   `gorm:"size:8;not null;default:medium" json:"priority"`
	Position    int        `gorm:"not null;default:0;index:idx_task_column_position" json:"position"`
	IsRepeat    bool       `gorm:"not null;default:false" json:"is_repeat"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Priority ranks a task's urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority maps s onto a Priority. Unknown values fall back to medium.
func ParsePriority(s string) Priority {
	switch p := Priority(s); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p
	}
	return PriorityMedium
}

// Rank orders priorities for sorting: high 0, medium 1, low 2.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	}
	return 1
}
