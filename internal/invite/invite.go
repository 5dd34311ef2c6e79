// Package invite shares boards through short invite codes.
package invite

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/zulandar/studyflow/internal/access"
	"github.com/zulandar/studyflow/internal/logging"
	"github.com/zulandar/studyflow/internal/models"
	"github.com/zulandar/studyflow/internal/store"
)

// Alphabet omits characters that are easy to confuse when read aloud or
// retyped: 0/O/o, 1/l/I/i.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

const (
	CodeLength     = 8
	DefaultTTL     = 7 * 24 * time.Hour
	DefaultMaxUses = 10

	maxCodeAttempts = 5
)

var (
	ErrNotFound    = errors.New("invite: not found")
	ErrExpired     = errors.New("invite: expired")
	ErrExhausted   = errors.New("invite: no uses left")
	ErrInvalidRole = errors.New("invite: role must be editor or viewer")
)

// Info describes an invite to someone about to accept it.
type Info struct {
	Invite     models.Invite
	BoardTitle string
}

// Result is the outcome of accepting an invite.
type Result struct {
	BoardID string
	Role    models.Role
	// Joined is false when the user already had access; the invite is then
	// left untouched.
	Joined bool
}

// Service manages invites for boards in a store.
type Service struct {
	st  *store.Store
	db  *gorm.DB
	log log.FieldLogger
}

// New returns a Service over st.
func New(st *store.Store, logger log.FieldLogger) *Service {
	return &Service{st: st, db: st.DB(), log: logging.OrDiscard(logger)}
}

// GenerateCode returns a random code of CodeLength characters from Alphabet.
func GenerateCode() (string, error) {
	size := big.NewInt(int64(len(Alphabet)))
	b := make([]byte, CodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("invite: generate code: %w", err)
		}
		b[i] = Alphabet[n.Int64()]
	}
	return string(b), nil
}

// Create issues an invite granting role on boardID. Only the board owner may
// share it.
func (s *Service) Create(ctx context.Context, boardID, userID string, role models.Role) (models.Invite, error) {
	if role != models.RoleEditor && role != models.RoleViewer {
		return models.Invite{}, fmt.Errorf("%w, got %q", ErrInvalidRole, role)
	}
	if err := s.requireShare(ctx, boardID, userID); err != nil {
		return models.Invite{}, err
	}

	code, err := s.uniqueCode(ctx)
	if err != nil {
		return models.Invite{}, err
	}
	now := s.st.Now()
	inv := models.Invite{
		ID:        uuid.NewString(),
		BoardID:   boardID,
		Code:      code,
		Role:      role,
		CreatedBy: userID,
		ExpiresAt: now.Add(DefaultTTL),
		MaxUses:   DefaultMaxUses,
		CreatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&inv).Error; err != nil {
		return models.Invite{}, fmt.Errorf("invite: create for board %s: %w", boardID, err)
	}
	s.log.WithFields(log.Fields{"board_id": boardID, "role": role, "code": code}).Info("invite: created")
	return inv, nil
}

func (s *Service) uniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := GenerateCode()
		if err != nil {
			return "", err
		}
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Invite{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("invite: check code: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("invite: no free code after %d attempts", maxCodeAttempts)
}

// Lookup returns a still-valid invite and the title of its board.
func (s *Service) Lookup(ctx context.Context, code string) (Info, error) {
	inv, err := s.find(s.db.WithContext(ctx), code)
	if err != nil {
		return Info{}, err
	}
	var b models.Board
	if err := s.db.WithContext(ctx).Where("id = ?", inv.BoardID).First(&b).Error; err != nil {
		return Info{}, fmt.Errorf("invite: board of %s: %w", code, err)
	}
	return Info{Invite: inv, BoardTitle: b.Title}, nil
}

// find loads a usable invite by code.
func (s *Service) find(tx *gorm.DB, code string) (models.Invite, error) {
	var inv models.Invite
	if err := tx.Where("code = ?", code).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return inv, fmt.Errorf("%w: %s", ErrNotFound, code)
		}
		return inv, fmt.Errorf("invite: get %s: %w", code, err)
	}
	if !s.st.Now().Before(inv.ExpiresAt) {
		return inv, fmt.Errorf("%w: %s", ErrExpired, code)
	}
	if inv.MaxUses > 0 && inv.UseCount >= inv.MaxUses {
		return inv, fmt.Errorf("%w: %s", ErrExhausted, code)
	}
	return inv, nil
}

// Accept joins userID to the invite's board in one transaction. The owner
// and existing members keep their access and do not consume a use.
func (s *Service) Accept(ctx context.Context, code, userID string) (Result, error) {
	var res Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.find(tx, code)
		if err != nil {
			return err
		}
		res.BoardID = inv.BoardID

		var b models.Board
		if err := tx.Where("id = ?", inv.BoardID).First(&b).Error; err != nil {
			return fmt.Errorf("invite: board of %s: %w", code, err)
		}
		if b.UserID == userID {
			res.Role = models.RoleOwner
			return nil
		}

		var existing models.BoardMember
		err = tx.Where("board_id = ? AND user_id = ?", inv.BoardID, userID).First(&existing).Error
		if err == nil {
			res.Role = existing.Role
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("invite: check membership: %w", err)
		}

		// Conditional increment so that concurrent accepts cannot exceed
		// MaxUses.
		upd := tx.Model(&models.Invite{}).
			Where("id = ? AND (max_uses <= 0 OR use_count < max_uses)", inv.ID).
			UpdateColumn("use_count", gorm.Expr("use_count + ?", 1))
		if upd.Error != nil {
			return fmt.Errorf("invite: count use of %s: %w", code, upd.Error)
		}
		if upd.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrExhausted, code)
		}

		m := models.BoardMember{BoardID: inv.BoardID, UserID: userID, Role: inv.Role, CreatedAt: s.st.Now()}
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("invite: add member: %w", err)
		}
		res.Role = inv.Role
		res.Joined = true
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	if res.Joined {
		s.log.WithFields(log.Fields{"board_id": res.BoardID, "user_id": userID, "role": res.Role}).Info("invite: accepted")
	}
	return res, nil
}

// ListActive returns the board's unexpired invites, newest first.
func (s *Service) ListActive(ctx context.Context, boardID, userID string) ([]models.Invite, error) {
	if err := s.requireShare(ctx, boardID, userID); err != nil {
		return nil, err
	}
	var invs []models.Invite
	if err := s.db.WithContext(ctx).
		Where("board_id = ? AND expires_at > ?", boardID, s.st.Now()).
		Order("created_at DESC").Find(&invs).Error; err != nil {
		return nil, fmt.Errorf("invite: list for board %s: %w", boardID, err)
	}
	return invs, nil
}

// Revoke deletes an invite. Only the owner of its board may revoke it.
func (s *Service) Revoke(ctx context.Context, inviteID, userID string) error {
	var inv models.Invite
	if err := s.db.WithContext(ctx).Where("id = ?", inviteID).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, inviteID)
		}
		return fmt.Errorf("invite: get %s: %w", inviteID, err)
	}
	if err := s.requireShare(ctx, inv.BoardID, userID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Where("id = ?", inviteID).Delete(&models.Invite{}).Error; err != nil {
		return fmt.Errorf("invite: revoke %s: %w", inviteID, err)
	}
	s.log.WithFields(log.Fields{"board_id": inv.BoardID, "invite_id": inviteID}).Info("invite: revoked")
	return nil
}

// Leave removes userID's membership of boardID.
func (s *Service) Leave(ctx context.Context, boardID, userID string) error {
	return s.st.LeaveBoard(ctx, boardID, userID)
}

func (s *Service) requireShare(ctx context.Context, boardID, userID string) error {
	role, err := s.st.Access(ctx, boardID, userID)
	if err != nil {
		return err
	}
	if !access.CanShare(role) {
		return fmt.Errorf("%w: %s may not share board %s", store.ErrForbidden, role, boardID)
	}
	return nil
}
