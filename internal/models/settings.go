package models

import "time"

// UserSettings holds per-user notification preferences.
type UserSettings struct {
	UserID               string    `gorm:"primaryKey;size:64" json:"user_id"`
	NotificationsEnabled bool      `gorm:"not null;default:false" json:"notifications_enabled"`
	HoursBeforeDeadline  int       `gorm:"not null;default:24" json:"hours_before_deadline"`
	EmailNotifications   bool      `gorm:"not null;default:false" json:"email_notifications"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// ReminderLog records a sent deadline reminder so the same deadline is never
// announced twice.
type ReminderLog struct {
	TaskID   string    `gorm:"primaryKey;size:36"`
	UserID   string    `gorm:"primaryKey;size:64"`
	Deadline time.Time `gorm:"primaryKey"`
	SentAt   time.Time `gorm:"not null"`
}
