package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/zulandar/studyflow/internal/access"
	"github.com/zulandar/studyflow/internal/board"
	"github.com/zulandar/studyflow/internal/db"
	"github.com/zulandar/studyflow/internal/models"
)

// AvailableBoard is one board a user can open.
type AvailableBoard struct {
	Board   models.Board
	Role    models.Role
	IsOwner bool
}

// ListAvailableBoards returns the user's own boards, oldest first, followed by
// the boards shared with them.
func (s *Store) ListAvailableBoards(ctx context.Context, userID string) ([]AvailableBoard, error) {
	var own []models.Board
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&own).Error; err != nil {
		return nil, fmt.Errorf("store: list own boards of %s: %w", userID, err)
	}
	var memberships []models.BoardMember
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("store: list memberships of %s: %w", userID, err)
	}

	out := make([]AvailableBoard, 0, len(own)+len(memberships))
	seen := make(map[string]bool)
	for _, b := range own {
		out = append(out, AvailableBoard{Board: b, Role: models.RoleOwner, IsOwner: true})
		seen[b.ID] = true
	}
	for _, m := range memberships {
		if seen[m.BoardID] {
			continue
		}
		var b models.Board
		if err := s.db.WithContext(ctx).Where("id = ?", m.BoardID).First(&b).Error; err != nil {
			if notFound(err) {
				continue
			}
			return nil, fmt.Errorf("store: get shared board %s: %w", m.BoardID, err)
		}
		role := m.Role
		out = append(out, AvailableBoard{Board: b, Role: access.Resolve(b.UserID, userID, &role)})
		seen[b.ID] = true
	}
	return out, nil
}

// Access returns the user's role on a board. It fails with ErrNotFound for
// an unknown board and ErrForbidden when the user neither owns it nor is a
// member.
func (s *Store) Access(ctx context.Context, boardID, userID string) (models.Role, error) {
	var b models.Board
	if err := s.db.WithContext(ctx).Where("id = ?", boardID).First(&b).Error; err != nil {
		if notFound(err) {
			return "", fmt.Errorf("%w: board %s", ErrNotFound, boardID)
		}
		return "", fmt.Errorf("store: get board %s: %w", boardID, err)
	}
	if b.UserID == userID {
		return models.RoleOwner, nil
	}
	m, err := s.membership(ctx, boardID, userID)
	if err != nil {
		return "", err
	}
	if m == nil {
		return "", fmt.Errorf("%w: board %s", ErrForbidden, boardID)
	}
	return access.Resolve(b.UserID, userID, &m.Role), nil
}

func (s *Store) membership(ctx context.Context, boardID, userID string) (*models.BoardMember, error) {
	var m models.BoardMember
	err := s.db.WithContext(ctx).Where("board_id = ? AND user_id = ?", boardID, userID).First(&m).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get membership %s/%s: %w", boardID, userID, err)
	}
	return &m, nil
}

// CreateBoard creates a board owned by userID and seeds the configured
// default columns and subjects.
func (s *Store) CreateBoard(ctx context.Context, userID, title, ownerEmail string) (models.Board, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = s.defaults.BoardTitle
	}
	now := s.now()
	b := models.Board{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ownerEmail != "" {
		b.OwnerEmail = &ownerEmail
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&b).Error; err != nil {
			return fmt.Errorf("store: create board: %w", err)
		}
		if _, _, err := db.SeedBoard(tx, &b, s.defaults); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return models.Board{}, err
	}
	s.log.WithFields(log.Fields{"board_id": b.ID, "user_id": userID}).Info("store: created board")
	return b, nil
}

// RenameBoard changes a board's title.
func (s *Store) RenameBoard(ctx context.Context, boardID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: board title is required", ErrInvalid)
	}
	res := s.db.WithContext(ctx).Model(&models.Board{}).Where("id = ?", boardID).
		Updates(map[string]interface{}{"title": title, "updated_at": s.now()})
	if res.Error != nil {
		return fmt.Errorf("store: rename board %s: %w", boardID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: board %s", ErrNotFound, boardID)
	}
	return nil
}

// LoadBoard selects and loads the board to open for userID. The requested
// board wins when the user can access it; otherwise the user's oldest own
// board, then the first board shared with them. A user with no board at all
// gets a fresh default board.
func (s *Store) LoadBoard(ctx context.Context, userID, requestedID, ownerEmail string) (board.State, error) {
	available, err := s.ListAvailableBoards(ctx, userID)
	if err != nil {
		return board.State{}, err
	}

	var chosen *AvailableBoard
	if requestedID != "" {
		for i := range available {
			if available[i].Board.ID == requestedID {
				chosen = &available[i]
				break
			}
		}
		if chosen == nil {
			s.log.WithFields(log.Fields{"board_id": requestedID, "user_id": userID}).Warn("store: requested board not accessible, falling back")
		}
	}
	if chosen == nil {
		for i := range available {
			if available[i].IsOwner {
				chosen = &available[i]
				break
			}
		}
	}
	if chosen == nil && len(available) > 0 {
		chosen = &available[0]
	}
	if chosen == nil {
		b, err := s.CreateBoard(ctx, userID, s.defaults.BoardTitle, ownerEmail)
		if err != nil {
			return board.State{}, err
		}
		chosen = &AvailableBoard{Board: b, Role: models.RoleOwner, IsOwner: true}
	}
	return s.loadState(ctx, chosen.Board, chosen.Role)
}

// OpenBoard loads one board for userID. Unlike LoadBoard it never falls
// back: an inaccessible board fails with ErrNotFound or ErrForbidden.
func (s *Store) OpenBoard(ctx context.Context, boardID, userID string) (board.State, error) {
	role, err := s.Access(ctx, boardID, userID)
	if err != nil {
		return board.State{}, err
	}
	var b models.Board
	if err := s.db.WithContext(ctx).Where("id = ?", boardID).First(&b).Error; err != nil {
		return board.State{}, fmt.Errorf("store: get board %s: %w", boardID, err)
	}
	return s.loadState(ctx, b, role)
}

func (s *Store) loadState(ctx context.Context, b models.Board, role models.Role) (board.State, error) {
	columns, err := s.GetColumns(ctx, b.ID)
	if err != nil {
		return board.State{}, err
	}
	ids := make([]string, len(columns))
	for i, c := range columns {
		ids[i] = c.ID
	}
	tasks, err := s.GetBoardTasks(ctx, ids)
	if err != nil {
		return board.State{}, err
	}
	subjects, err := s.GetSubjects(ctx, b.ID)
	if err != nil {
		return board.State{}, err
	}
	return board.State{
		Board:    b,
		Columns:  columns,
		Tasks:    tasks,
		Subjects: subjects,
		Role:     role,
	}, nil
}
