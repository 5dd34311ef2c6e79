package models

import "time"

// Board is a Kanban board owned by one user and optionally shared with others.
type Board struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `gorm:"size:64;not null;index" json:"user_id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	OwnerEmail *string   `gorm:"size:255" json:"owner_email,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Column is an ordered lane on a board. Its position doubles as its semantic
// slot (intake, in progress, done, repeat).
type Column struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	BoardID   string    `gorm:"size:36;not null;uniqueIndex:idx_column_board_position" json:"board_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Position  int       `gorm:"not null;uniqueIndex:idx_column_board_position" json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// Subject is a per-board tag with an optional display colour.
type Subject struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	BoardID   string    `gorm:"size:36;not null;uniqueIndex:idx_subject_board_name" json:"board_id"`
	UserID    *string   `gorm:"size:64" json:"user_id,omitempty"`
	Name      string    `gorm:"size:128;not null;uniqueIndex:idx_subject_board_name" json:"name"`
	Color     *string   `gorm:"size:16" json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BoardMember grants a non-owner access to a board.
type BoardMember struct {
	BoardID   string    `gorm:"primaryKey;size:36" json:"board_id"`
	UserID    string    `gorm:"primaryKey;size:64;index" json:"user_id"`
	Role      Role      `gorm:"size:16;not null;default:viewer" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Role is a user's access level on a board.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleEditor, RoleViewer:
		return true
	}
	return false
}
