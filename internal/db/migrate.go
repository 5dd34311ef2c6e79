package db

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zulandar/studyflow/internal/config"
	"github.com/zulandar/studyflow/internal/models"
)

// AllModels returns every GORM model for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Board{},
		&models.Column{},
		&models.Task{},
		&models.Subject{},
		&models.BoardMember{},
		&models.Invite{},
		&models.UserSettings{},
		&models.ReminderLog{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedBoard inserts the default columns and subjects for a new board. Column
// positions follow the order of defaults.Columns.
func SeedBoard(tx *gorm.DB, board *models.Board, defaults config.DefaultsConfig) ([]models.Column, []models.Subject, error) {
	columns := make([]models.Column, 0, len(defaults.Columns))
	for i, title := range defaults.Columns {
		columns = append(columns, models.Column{
			ID:       uuid.NewString(),
			BoardID:  board.ID,
			Title:    title,
			Position: i,
		})
	}
	if len(columns) > 0 {
		if err := tx.Create(&columns).Error; err != nil {
			return nil, nil, fmt.Errorf("db: seed columns for board %s: %w", board.ID, err)
		}
	}

	subjects := make([]models.Subject, 0, len(defaults.Subjects))
	for _, sd := range defaults.Subjects {
		s := models.Subject{
			ID:      uuid.NewString(),
			BoardID: board.ID,
			UserID:  &board.UserID,
			Name:    sd.Name,
		}
		if sd.Color != "" {
			color := sd.Color
			s.Color = &color
		}
		subjects = append(subjects, s)
	}
	if len(subjects) > 0 {
		if err := tx.Create(&subjects).Error; err != nil {
			return nil, nil, fmt.Errorf("db: seed subjects for board %s: %w", board.ID, err)
		}
	}
	return columns, subjects, nil
}
