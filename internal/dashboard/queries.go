package dashboard

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/studyflow/internal/access"
	"github.com/zulandar/studyflow/internal/board"
	"github.com/zulandar/studyflow/internal/invite"
	"github.com/zulandar/studyflow/internal/models"
	"github.com/zulandar/studyflow/internal/ordering"
	"github.com/zulandar/studyflow/internal/store"
	"github.com/zulandar/studyflow/internal/task"
)

// BoardView is the JSON shape of an open board: columns in position order,
// each with its tasks in position order.
type BoardView struct {
	Board    models.Board     `json:"board"`
	Role     models.Role      `json:"role"`
	CanEdit  bool             `json:"can_edit"`
	CanShare bool             `json:"can_share"`
	Columns  []ColumnView     `json:"columns"`
	Subjects []models.Subject `json:"subjects"`
}

// ColumnView is one column with its tasks.
type ColumnView struct {
	models.Column
	Slot  string        `json:"slot"`
	Tasks []models.Task `json:"tasks"`
}

// BoardSummary is one entry of the board picker.
type BoardSummary struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Role    models.Role `json:"role"`
	IsOwner bool        `json:"is_owner"`
}

func newBoardView(s board.State) BoardView {
	v := BoardView{
		Board:    s.Board,
		Role:     s.Role,
		CanEdit:  access.CanEdit(s.Role),
		CanShare: access.CanShare(s.Role),
		Columns:  make([]ColumnView, 0, len(s.Columns)),
		Subjects: s.Subjects,
	}
	if v.Subjects == nil {
		v.Subjects = []models.Subject{}
	}
	for _, col := range s.Columns {
		cv := ColumnView{Column: col, Slot: "none", Tasks: s.TasksIn(col.ID)}
		if slot, ok := ordering.SlotOf(col); ok {
			cv.Slot = slot.String()
		}
		if cv.Tasks == nil {
			cv.Tasks = []models.Task{}
		}
		v.Columns = append(v.Columns, cv)
	}
	return v
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, invite.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrForbidden), errors.Is(err, ordering.ErrReadOnly), errors.Is(err, store.ErrOwnerCannotLeave):
		return http.StatusForbidden
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, invite.ErrExpired), errors.Is(err, invite.ErrExhausted):
		return http.StatusGone
	case errors.Is(err, store.ErrInvalid), errors.Is(err, task.ErrInvalidPriority), errors.Is(err, invite.ErrInvalidRole):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", c.FullPath()).Error("dashboard: handler error")
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// authorize checks the caller's role on a board. need may be nil to accept
// any role.
func (s *server) authorize(c *gin.Context, boardID string, need func(models.Role) bool) (models.Role, bool) {
	role, err := s.store.Access(c.Request.Context(), boardID, currentUser(c))
	if err != nil {
		s.fail(c, err)
		return "", false
	}
	if need != nil && !need(role) {
		s.fail(c, store.ErrForbidden)
		return "", false
	}
	return role, true
}

// openBoard loads the board state the caller may see.
func (s *server) openBoard(c *gin.Context, boardID string) (board.State, bool) {
	st, err := s.store.OpenBoard(c.Request.Context(), boardID, currentUser(c))
	if err != nil {
		s.fail(c, err)
		return board.State{}, false
	}
	return st, true
}

// engine opens a board into a fresh container and returns an ordering
// engine on it.
func (s *server) engine(c *gin.Context, boardID string) (*ordering.Engine, bool) {
	st, ok := s.openBoard(c, boardID)
	if !ok {
		return nil, false
	}
	return ordering.New(board.NewContainer(st), s.store, s.log, ordering.WithClock(s.store.Now)), true
}
