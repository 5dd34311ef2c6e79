package store

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/zulandar/studyflow/internal/models"
)

// ListMembers returns a board's memberships.
func (s *Store) ListMembers(ctx context.Context, boardID string) ([]models.BoardMember, error) {
	var ms []models.BoardMember
	if err := s.db.WithContext(ctx).Where("board_id = ?", boardID).Order("created_at ASC").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("store: list members of board %s: %w", boardID, err)
	}
	return ms, nil
}

// LeaveBoard removes the user's membership. Owners cannot leave their own
// board.
func (s *Store) LeaveBoard(ctx context.Context, boardID, userID string) error {
	var b models.Board
	if err := s.db.WithContext(ctx).Where("id = ?", boardID).First(&b).Error; err != nil {
		if notFound(err) {
			return fmt.Errorf("%w: board %s", ErrNotFound, boardID)
		}
		return fmt.Errorf("store: get board %s: %w", boardID, err)
	}
	if b.UserID == userID {
		return ErrOwnerCannotLeave
	}
	res := s.db.WithContext(ctx).Where("board_id = ? AND user_id = ?", boardID, userID).Delete(&models.BoardMember{})
	if res.Error != nil {
		return fmt.Errorf("store: leave board %s: %w", boardID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: membership %s/%s", ErrNotFound, boardID, userID)
	}
	s.log.WithFields(log.Fields{"board_id": boardID, "user_id": userID}).Info("store: left board")
	return nil
}
