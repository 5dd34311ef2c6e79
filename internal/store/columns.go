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

// GetColumns returns a board's columns in position order.
func (s *Store) GetColumns(ctx context.Context, boardID string) ([]models.Column, error) {
	var cols []models.Column
	if err := s.db.WithContext(ctx).Where("board_id = ?", boardID).Order("position ASC").Find(&cols).Error; err != nil {
		return nil, fmt.Errorf("store: get columns of board %s: %w", boardID, err)
	}
	return cols, nil
}

// ColumnBoard returns the ID of the board a column belongs to.
func (s *Store) ColumnBoard(ctx context.Context, columnID string) (string, error) {
	var c models.Column
	if err := s.db.WithContext(ctx).Where("id = ?", columnID).First(&c).Error; err != nil {
		if notFound(err) {
			return "", fmt.Errorf("%w: column %s", ErrNotFound, columnID)
		}
		return "", fmt.Errorf("store: get column %s: %w", columnID, err)
	}
	return c.BoardID, nil
}

// CreateColumn appends a column after the board's last one.
func (s *Store) CreateColumn(ctx context.Context, boardID, title string) (models.Column, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Column{}, fmt.Errorf("%w: column title is required", ErrInvalid)
	}
	c := models.Column{
		ID:        uuid.NewString(),
		BoardID:   boardID,
		Title:     title,
		CreatedAt: s.now(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Column{}).Where("board_id = ?", boardID).Count(&count).Error; err != nil {
			return fmt.Errorf("store: count columns of board %s: %w", boardID, err)
		}
		c.Position = int(count)
		if err := tx.Create(&c).Error; err != nil {
			return fmt.Errorf("store: create column: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Column{}, err
	}
	s.publish(ctx, realtime.KindInsert, realtime.TableColumns, boardID, c)
	return c, nil
}

// RenameColumn changes a column's title. Titles carry no behaviour; the
// column's slot is its position.
func (s *Store) RenameColumn(ctx context.Context, columnID, title string) (models.Column, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Column{}, fmt.Errorf("%w: column title is required", ErrInvalid)
	}
	var c models.Column
	if err := s.db.WithContext(ctx).Where("id = ?", columnID).First(&c).Error; err != nil {
		if notFound(err) {
			return models.Column{}, fmt.Errorf("%w: column %s", ErrNotFound, columnID)
		}
		return models.Column{}, fmt.Errorf("store: get column %s: %w", columnID, err)
	}
	if err := s.db.WithContext(ctx).Model(&c).Update("title", title).Error; err != nil {
		return models.Column{}, fmt.Errorf("store: rename column %s: %w", columnID, err)
	}
	c.Title = title
	s.publish(ctx, realtime.KindUpdate, realtime.TableColumns, c.BoardID, c)
	return c, nil
}

// SubscribeToColumnChanges delivers column changes for one board.
func (s *Store) SubscribeToColumnChanges(ctx context.Context, boardID string, onChange realtime.Handler) (realtime.Unsubscribe, error) {
	if s.feed == nil {
		return func() {}, nil
	}
	unsub, err := s.feed.Subscribe(ctx, realtime.Filter{Table: realtime.TableColumns, BoardID: boardID}, onChange)
	if err != nil {
		return nil, fmt.Errorf("store: subscribe to columns: %w", err)
	}
	return unsub, nil
}
