package models

import "time"

// Invite is a shareable code granting a role on a board.
type Invite struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	BoardID   string    `gorm:"size:36;not null;index" json:"board_id"`
	Code      string    `gorm:"size:16;not null;uniqueIndex" json:"code"`
	Role      Role      `gorm:"size:16;not null;default:viewer" json:"role"`
	CreatedBy string    `gorm:"size:64;not null" json:"created_by"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	UseCount  int       `gorm:"not null;default:0" json:"use_count"`
	MaxUses   int       `gorm:"not null;default:10" json:"max_uses"`
	CreatedAt time.Time `json:"created_at"`
}
