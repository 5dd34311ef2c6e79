package dashboard

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/studyflow/internal/access"
	"github.com/zulandar/studyflow/internal/models"
	"github.com/zulandar/studyflow/internal/store"
	"github.com/zulandar/studyflow/internal/task"
	"github.com/zulandar/studyflow/internal/taskview"
)

// --- Boards ---

// handleOpenBoard loads the board to show on start: the requested one when
// accessible, otherwise the caller's first board, creating one if needed.
func (s *server) handleOpenBoard(c *gin.Context) {
	claims := currentClaims(c)
	st, err := s.store.LoadBoard(c.Request.Context(), claims.Subject, c.Query("board"), claims.Email)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newBoardView(st))
}

func (s *server) handleListBoards(c *gin.Context) {
	available, err := s.store.ListAvailableBoards(c.Request.Context(), currentUser(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]BoardSummary, len(available))
	for i, a := range available {
		out[i] = BoardSummary{ID: a.Board.ID, Title: a.Board.Title, Role: a.Role, IsOwner: a.IsOwner}
	}
	c.JSON(http.StatusOK, out)
}

type titleRequest struct {
	Title string `json:"title"`
}

func (s *server) handleCreateBoard(c *gin.Context) {
	var req titleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	claims := currentClaims(c)
	b, err := s.store.CreateBoard(c.Request.Context(), claims.Subject, req.Title, claims.Email)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (s *server) handleGetBoard(c *gin.Context) {
	st, ok := s.openBoard(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newBoardView(st))
}

func (s *server) handleRenameBoard(c *gin.Context) {
	boardID := c.Param("id")
	if _, ok := s.authorize(c, boardID, access.CanShare); !ok {
		return
	}
	var req titleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.store.RenameBoard(c.Request.Context(), boardID, req.Title); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) handleCreateColumn(c *gin.Context) {
	boardID := c.Param("id")
	if _, ok := s.authorize(c, boardID, access.CanEdit); !ok {
		return
	}
	var req titleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	col, err := s.store.CreateColumn(c.Request.Context(), boardID, req.Title)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, col)
}

func (s *server) handleLeaveBoard(c *gin.Context) {
	if err := s.invites.Leave(c.Request.Context(), c.Param("id"), currentUser(c)); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Views ---

func (s *server) handleGrouped(c *gin.Context) {
	st, ok := s.openBoard(c, c.Param("id"))
	if !ok {
		return
	}
	by := taskview.ParseGroupBy(c.Query("by"))
	c.JSON(http.StatusOK, gin.H{
		"group_by": by,
		"groups":   taskview.Grouped(st, by, s.store.Now()),
	})
}

func (s *server) handleWeek(c *gin.Context) {
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		badRequest(c, errors.New("offset must be an integer"))
		return
	}
	st, ok := s.openBoard(c, c.Param("id"))
	if !ok {
		return
	}
	days := taskview.Week(taskview.Incomplete(st.Tasks, st.Columns), s.store.Now(), offset)
	c.JSON(http.StatusOK, gin.H{
		"range": taskview.WeekRange(days),
		"days":  days,
	})
}

func (s *server) handleExport(c *gin.Context) {
	st, ok := s.openBoard(c, c.Param("id"))
	if !ok {
		return
	}
	opts := taskview.ExportOptions{
		Title:   st.Board.Title,
		GroupBy: taskview.ParseGroupBy(c.Query("by")),
		Now:     s.store.Now(),
		Notes:   c.Query("notes") == "true",
	}
	c.Header("Content-Type", "text/markdown; charset=utf-8")
	c.Status(http.StatusOK)
	if err := taskview.WriteMarkdown(c.Writer, st, opts); err != nil {
		s.log.WithError(err).Warn("dashboard: write export")
	}
}

// --- Tasks ---

func (s *server) handleListTasks(c *gin.Context) {
	boardID := c.Param("id")
	if _, ok := s.authorize(c, boardID, nil); !ok {
		return
	}
	filters := task.ListFilters{
		BoardID:    boardID,
		ColumnID:   c.Query("column"),
		SubjectID:  c.Query("subject"),
		Priority:   c.Query("priority"),
		Incomplete: c.Query("incomplete") == "true",
	}
	if v := c.Query("due_before"); v != "" {
		due, err := task.ParseDeadline(v, time.UTC)
		if err != nil {
			s.fail(c, err)
			return
		}
		filters.DueBefore = due
	}
	tasks, err := task.List(c.Request.Context(), s.store.DB(), filters)
	if err != nil {
		s.fail(c, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

type createTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Column      string `json:"column"`
	Subject     string `json:"subject"`
	Deadline    string `json:"deadline"`
	Priority    string `json:"priority"`
	Repeat      bool   `json:"is_repeat"`
}

func (s *server) handleCreateTask(c *gin.Context) {
	boardID := c.Param("id")
	if _, ok := s.authorize(c, boardID, access.CanEdit); !ok {
		return
	}
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	deadline, err := task.ParseDeadline(req.Deadline, time.UTC)
	if err != nil {
		s.fail(c, err)
		return
	}
	t, err := task.Create(c.Request.Context(), s.store, task.CreateOpts{
		BoardID:     boardID,
		Column:      req.Column,
		Subject:     req.Subject,
		Title:       req.Title,
		Description: req.Description,
		Deadline:    deadline,
		Priority:    req.Priority,
		Repeat:      req.Repeat,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Subject     *string `json:"subject"`
	Deadline    *string `json:"deadline"`
	Priority    *string `json:"priority"`
	Repeat      *bool   `json:"is_repeat"`
}

// taskBoard authorizes an edit of a task and returns its board ID.
func (s *server) taskBoard(c *gin.Context, taskID string) (string, bool) {
	boardID, err := s.store.TaskBoard(c.Request.Context(), taskID)
	if err != nil {
		s.fail(c, err)
		return "", false
	}
	if _, ok := s.authorize(c, boardID, access.CanEdit); !ok {
		return "", false
	}
	return boardID, true
}

func (s *server) handleUpdateTask(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.taskBoard(c, id); !ok {
		return
	}
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := task.Update(c.Request.Context(), s.store, id, task.UpdateOpts{
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		Deadline:    req.Deadline,
		Priority:    req.Priority,
		Repeat:      req.Repeat,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *server) handleDeleteTask(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.taskBoard(c, id); !ok {
		return
	}
	if err := task.Delete(c.Request.Context(), s.store, id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type moveRequest struct {
	ColumnID string `json:"column_id" binding:"required"`
	// Index defaults to the end of the column.
	Index *int `json:"index"`
}

// handleMoveTask commits a move to an explicit column and index. Repeat and
// completion rules apply.
func (s *server) handleMoveTask(c *gin.Context) {
	id := c.Param("id")
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	boardID, ok := s.taskBoard(c, id)
	if !ok {
		return
	}
	eng, ok := s.engine(c, boardID)
	if !ok {
		return
	}
	index := len(eng.Board().Snapshot().TasksIn(req.ColumnID))
	if req.Index != nil {
		index = *req.Index
	}
	if err := eng.CommitMove(c.Request.Context(), id, req.ColumnID, index); err != nil {
		s.fail(c, err)
		return
	}
	t, _ := eng.Board().Snapshot().Task(id)
	c.JSON(http.StatusOK, t)
}

type dropRequest struct {
	OverID string `json:"over_id"`
}

// handleDropTask finishes a drag: over a task or column of another column it
// moves the task there, over its own column it reorders.
func (s *server) handleDropTask(c *gin.Context) {
	id := c.Param("id")
	var req dropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	boardID, ok := s.taskBoard(c, id)
	if !ok {
		return
	}
	eng, ok := s.engine(c, boardID)
	if !ok {
		return
	}
	drag, err := eng.StartDrag(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := drag.Drop(c.Request.Context(), req.OverID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newBoardView(eng.Board().Snapshot()))
}

type reorderRequest struct {
	TaskIDs []string `json:"task_ids" binding:"required"`
}

func (s *server) handleReorder(c *gin.Context) {
	columnID := c.Param("id")
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	boardID, err := s.store.ColumnBoard(c.Request.Context(), columnID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if _, ok := s.authorize(c, boardID, access.CanEdit); !ok {
		return
	}
	eng, ok := s.engine(c, boardID)
	if !ok {
		return
	}
	if err := eng.ReorderWithinColumn(c.Request.Context(), columnID, req.TaskIDs); err != nil {
		s.fail(c, err)
		return
	}
	tasks := eng.Board().Snapshot().TasksIn(columnID)
	if tasks == nil {
		tasks = []models.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

// --- Subjects ---

func (s *server) handleListSubjects(c *gin.Context) {
	boardID := c.Param("id")
	if _, ok := s.authorize(c, boardID, nil); !ok {
		return
	}
	subs, err := s.store.GetSubjects(c.Request.Context(), boardID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if subs == nil {
		subs = []models.Subject{}
	}
	c.JSON(http.StatusOK, subs)
}

type subjectRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func (s *server) handleAddSubject(c *gin.Context) {
	boardID := c.Param("id")
	if _, ok := s.authorize(c, boardID, access.CanEdit); !ok {
		return
	}
	var req subjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	name := ""
	if req.Name != nil {
		name = *req.Name
	}
	sub, err := s.store.AddSubject(c.Request.Context(), boardID, currentUser(c), name, req.Color)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// subjectBoard authorizes an edit of a subject.
func (s *server) subjectBoard(c *gin.Context, id string) bool {
	boardID, err := s.store.SubjectBoard(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return false
	}
	_, ok := s.authorize(c, boardID, access.CanEdit)
	return ok
}

func (s *server) handleUpdateSubject(c *gin.Context) {
	id := c.Param("id")
	if !s.subjectBoard(c, id) {
		return
	}
	var req subjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	patch := store.SubjectPatch{Name: req.Name}
	if req.Color != nil {
		if *req.Color == "" {
			patch.Color = store.Null[string]()
		} else {
			patch.Color = store.Value(*req.Color)
		}
	}
	sub, err := s.store.UpdateSubject(c.Request.Context(), id, patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (s *server) handleDeleteSubject(c *gin.Context) {
	id := c.Param("id")
	if !s.subjectBoard(c, id) {
		return
	}
	if err := s.store.DeleteSubject(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
