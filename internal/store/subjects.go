package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zulandar/studyflow/internal/models"
	"github.com/zulandar/studyflow/internal/realtime"
)

// SubjectPatch is a partial subject update.
type SubjectPatch struct {
	Name  *string
	Color Opt[string]
}

// GetSubjects returns a board's subjects ordered by name.
func (s *Store) GetSubjects(ctx context.Context, boardID string) ([]models.Subject, error) {
	var subs []models.Subject
	if err := s.db.WithContext(ctx).Where("board_id = ?", boardID).Order("name ASC").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("store: get subjects of board %s: %w", boardID, err)
	}
	return subs, nil
}

// SubjectBoard returns the ID of the board a subject belongs to.
func (s *Store) SubjectBoard(ctx context.Context, subjectID string) (string, error) {
	sub, err := s.getSubject(ctx, subjectID)
	if err != nil {
		return "", err
	}
	return sub.BoardID, nil
}

// AddSubject creates a subject. A nil color picks the next palette entry.
func (s *Store) AddSubject(ctx context.Context, boardID, userID, name string, color *string) (models.Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Subject{}, fmt.Errorf("%w: subject name is required", ErrInvalid)
	}
	if color != nil && !models.IsHexColor(*color) {
		return models.Subject{}, fmt.Errorf("%w: color %q is not a hex colour", ErrInvalid, *color)
	}
	sub := models.Subject{
		ID:        uuid.NewString(),
		BoardID:   boardID,
		Name:      name,
		Color:     color,
		CreatedAt: s.now(),
	}
	if userID != "" {
		sub.UserID = &userID
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.Subject
		if err := tx.Where("board_id = ?", boardID).Find(&existing).Error; err != nil {
			return fmt.Errorf("store: list subjects of board %s: %w", boardID, err)
		}
		for _, e := range existing {
			if strings.EqualFold(e.Name, name) {
				return fmt.Errorf("%w: subject %q", ErrDuplicate, name)
			}
		}
		if sub.Color == nil {
			c := models.PaletteColor(len(existing))
			sub.Color = &c
		}
		if err := tx.Create(&sub).Error; err != nil {
			return fmt.Errorf("store: create subject: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Subject{}, err
	}
	s.publish(ctx, realtime.KindInsert, realtime.TableSubjects, boardID, sub)
	return sub, nil
}

// UpdateSubject renames or recolours a subject.
func (s *Store) UpdateSubject(ctx context.Context, id string, patch SubjectPatch) (models.Subject, error) {
	sub, err := s.getSubject(ctx, id)
	if err != nil {
		return models.Subject{}, err
	}
	u := make(map[string]interface{})
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return models.Subject{}, fmt.Errorf("%w: subject name is required", ErrInvalid)
		}
		var clash int64
		if err := s.db.WithContext(ctx).Model(&models.Subject{}).
			Where("board_id = ? AND id <> ? AND LOWER(name) = LOWER(?)", sub.BoardID, id, name).
			Count(&clash).Error; err != nil {
			return models.Subject{}, fmt.Errorf("store: check subject name: %w", err)
		}
		if clash > 0 {
			return models.Subject{}, fmt.Errorf("%w: subject %q", ErrDuplicate, name)
		}
		u["name"] = name
	}
	if patch.Color.Set && patch.Color.Value != nil && !models.IsHexColor(*patch.Color.Value) {
		return models.Subject{}, fmt.Errorf("%w: color %q is not a hex colour", ErrInvalid, *patch.Color.Value)
	}
	setOpt(u, "color", patch.Color)
	if len(u) == 0 {
		return sub, nil
	}
	if err := s.db.WithContext(ctx).Model(&models.Subject{}).Where("id = ?", id).Updates(u).Error; err != nil {
		return models.Subject{}, fmt.Errorf("store: update subject %s: %w", id, err)
	}
	sub, err = s.getSubject(ctx, id)
	if err != nil {
		return models.Subject{}, err
	}
	s.publish(ctx, realtime.KindUpdate, realtime.TableSubjects, sub.BoardID, sub)
	return sub, nil
}

// DeleteSubject removes a subject and clears it from every task using it.
func (s *Store) DeleteSubject(ctx context.Context, id string) error {
	sub, err := s.getSubject(ctx, id)
	if err != nil {
		return err
	}
	var affected []models.Task
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("subject_id = ?", id).Find(&affected).Error; err != nil {
			return fmt.Errorf("store: find tasks of subject %s: %w", id, err)
		}
		if len(affected) > 0 {
			if err := tx.Model(&models.Task{}).Where("subject_id = ?", id).
				Updates(map[string]interface{}{"subject_id": nil, "updated_at": s.now()}).Error; err != nil {
				return fmt.Errorf("store: clear subject %s from tasks: %w", id, err)
			}
		}
		if err := tx.Where("id = ?", id).Delete(&models.Subject{}).Error; err != nil {
			return fmt.Errorf("store: delete subject %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, realtime.KindDelete, realtime.TableSubjects, sub.BoardID, sub)
	for _, t := range affected {
		t.SubjectID = nil
		s.publish(ctx, realtime.KindUpdate, realtime.TableTasks, sub.BoardID, t)
	}
	return nil
}

// SubscribeToSubjectChanges delivers subject changes for one board.
func (s *Store) SubscribeToSubjectChanges(ctx context.Context, boardID string, onChange realtime.Handler) (realtime.Unsubscribe, error) {
	if s.feed == nil {
		return func() {}, nil
	}
	unsub, err := s.feed.Subscribe(ctx, realtime.Filter{Table: realtime.TableSubjects, BoardID: boardID}, onChange)
	if err != nil {
		return nil, fmt.Errorf("store: subscribe to subjects: %w", err)
	}
	return unsub, nil
}

func (s *Store) getSubject(ctx context.Context, id string) (models.Subject, error) {
	var sub models.Subject
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&sub).Error; err != nil {
		if notFound(err) {
			return sub, fmt.Errorf("%w: subject %s", ErrNotFound, id)
		}
		return sub, fmt.Errorf("store: get subject %s: %w", id, err)
	}
	return sub, nil
}
