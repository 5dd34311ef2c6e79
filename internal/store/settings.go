package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/zulandar/studyflow/internal/models"
)

// DefaultHoursBeforeDeadline is the reminder lead time for users without
// saved settings.
const DefaultHoursBeforeDeadline = 24

// GetSettings returns the user's notification settings, or the defaults
// when none are saved.
func (s *Store) GetSettings(ctx context.Context, userID string) (models.UserSettings, error) {
	var us models.UserSettings
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&us).Error
	if notFound(err) {
		return models.UserSettings{UserID: userID, HoursBeforeDeadline: DefaultHoursBeforeDeadline}, nil
	}
	if err != nil {
		return us, fmt.Errorf("store: get settings of %s: %w", userID, err)
	}
	return us, nil
}

// SaveSettings upserts the user's notification settings.
func (s *Store) SaveSettings(ctx context.Context, us models.UserSettings) (models.UserSettings, error) {
	if us.UserID == "" {
		return us, fmt.Errorf("%w: user id is required", ErrInvalid)
	}
	if us.HoursBeforeDeadline < 1 || us.HoursBeforeDeadline > 168 {
		return us, fmt.Errorf("%w: hours before deadline must be between 1 and 168", ErrInvalid)
	}
	us.UpdatedAt = s.now()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"notifications_enabled", "hours_before_deadline", "email_notifications", "updated_at"}),
	}).Create(&us).Error
	if err != nil {
		return us, fmt.Errorf("store: save settings of %s: %w", us.UserID, err)
	}
	return us, nil
}
