// Package tui is the terminal board: columns side by side, cards that can
// be dragged with the mouse or moved with the keyboard, and live updates
// from other sessions.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"

	"github.com/zulandar/studyflow/internal/access"
	"github.com/zulandar/studyflow/internal/board"
	"github.com/zulandar/studyflow/internal/gesture"
	"github.com/zulandar/studyflow/internal/logging"
	"github.com/zulandar/studyflow/internal/models"
	"github.com/zulandar/studyflow/internal/ordering"
	"github.com/zulandar/studyflow/internal/store"
	"github.com/zulandar/studyflow/internal/taskview"
)

// boardChangedMsg reports a new board snapshot.
type boardChangedMsg struct{}

// opDoneMsg carries the result of a persisted board operation. follow, when
// set, is the task the cursor moves onto.
type opDoneMsg struct {
	name   string
	follow string
	err    error
}

// Model is the bubbletea model of an open board.
type Model struct {
	ctx    context.Context
	engine *ordering.Engine
	store  *store.Store
	log    log.FieldLogger
	now    func() time.Time

	changes chan struct{}
	unsub   func()

	tracker   *gesture.Tracker
	pressRect gesture.Rect
	drag      *ordering.Drag
	over      string

	col, row int
	adding   bool
	input    textinput.Model
	help     help.Model
	status   string
	err      error
}

// New returns a model for the engine's board. Call Close when done.
func New(ctx context.Context, eng *ordering.Engine, st *store.Store, logger log.FieldLogger) *Model {
	in := textinput.New()
	in.Placeholder = "Task title"
	in.CharLimit = 255
	in.Width = columnWidth * 2

	m := &Model{
		ctx:     ctx,
		engine:  eng,
		store:   st,
		log:     logging.OrDiscard(logger),
		now:     st.Now,
		changes: make(chan struct{}, 1),
		input:   in,
		help:    help.New(),
	}
	m.unsub = eng.Board().Subscribe(func(board.State) {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	})
	return m
}

// Close stops listening for board changes.
func (m *Model) Close() {
	if m.unsub != nil {
		m.unsub()
	}
}

func (m *Model) Init() tea.Cmd {
	return m.waitForChange()
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.changes:
			return boardChangedMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

// op runs fn off the update loop and reports its result.
func (m *Model) op(name string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{name: name, err: fn(m.ctx)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case boardChangedMsg:
		m.clampCursor()
		return m, m.waitForChange()

	case opDoneMsg:
		switch {
		case errors.Is(msg.err, ordering.ErrReadOnly):
			m.status, m.err = "", msg.err
		case msg.err != nil:
			m.log.WithError(msg.err).WithField("op", msg.name).Warn("tui: operation failed")
			m.status, m.err = "", msg.err
		default:
			m.status, m.err = msg.name, nil
		}
		if msg.follow != "" {
			m.follow(msg.follow)
		}
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			return m.updateInput(msg)
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)
	}
	return m, nil
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.adding = false
		m.input.Blur()
		m.input.Reset()
		return m, nil
	case tea.KeyEnter:
		title := strings.TrimSpace(m.input.Value())
		m.adding = false
		m.input.Blur()
		m.input.Reset()
		col, ok := m.focusedColumn()
		if title == "" || !ok {
			return m, nil
		}
		return m, m.op("added "+title, func(ctx context.Context) error {
			t, err := m.store.CreateTask(ctx, store.NewTask{ColumnID: col.ID, Title: title})
			if err != nil {
				return err
			}
			m.engine.Board().Dispatch(board.InsertTask{Task: t})
			return nil
		})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.engine.Board().Snapshot()
	switch {
	case key.Matches(msg, keys.Quit):
		if m.drag != nil {
			m.drag.Cancel()
		}
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, keys.Cancel):
		m.cancelDrag()
	case key.Matches(msg, keys.Left):
		m.focus(m.col-1, m.row)
	case key.Matches(msg, keys.Right):
		m.focus(m.col+1, m.row)
	case key.Matches(msg, keys.Up):
		m.focus(m.col, m.row-1)
	case key.Matches(msg, keys.Down):
		m.focus(m.col, m.row+1)
	case key.Matches(msg, keys.Refresh):
		return m, m.op("refreshed", m.engine.Resync)
	}
	if !m.editing(msg) {
		return m, nil
	}
	if !access.CanEdit(s.Role) {
		m.status, m.err = "", ordering.ErrReadOnly
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Add):
		if _, ok := m.focusedColumn(); !ok {
			return m, nil
		}
		m.adding = true
		return m, m.input.Focus()
	}

	t, ok := m.focusedTask()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, keys.MoveLeft), key.Matches(msg, keys.MoveRight):
		next := m.col + 1
		if key.Matches(msg, keys.MoveLeft) {
			next = m.col - 1
		}
		if next < 0 || next >= len(s.Columns) {
			return m, nil
		}
		return m, m.moveTo(t, s.Columns[next])
	case key.Matches(msg, keys.Done):
		done, ok := s.ColumnAt(ordering.SlotDone.Position())
		if !ok || done.ID == t.ColumnID {
			return m, nil
		}
		return m, m.moveTo(t, done)
	case key.Matches(msg, keys.MoveUp), key.Matches(msg, keys.MoveDown):
		to := m.row + 1
		if key.Matches(msg, keys.MoveUp) {
			to = m.row - 1
		}
		ids := taskIDs(s.TasksIn(t.ColumnID))
		if to < 0 || to >= len(ids) {
			return m, nil
		}
		order := ordering.ArrayMove(ids, m.row, to)
		m.row = to
		return m, m.op("reordered", func(ctx context.Context) error {
			return m.engine.ReorderWithinColumn(ctx, t.ColumnID, order)
		})
	case key.Matches(msg, keys.Delete):
		id := t.ID
		return m, m.op("deleted "+t.Title, func(ctx context.Context) error {
			return m.engine.Run(ctx, ordering.Operation{
				Name:          "delete",
				Apply:         func() { m.engine.Board().Dispatch(board.RemoveTask{ID: id}) },
				Persist:       func(ctx context.Context) error { return m.store.DeleteTask(ctx, id) },
				ResyncOnError: true,
			})
		})
	}
	return m, nil
}

// editing reports whether msg is a key that changes the board.
func (m *Model) editing(msg tea.KeyMsg) bool {
	for _, b := range []key.Binding{keys.Add, keys.MoveLeft, keys.MoveRight, keys.MoveUp, keys.MoveDown, keys.Done, keys.Delete} {
		if key.Matches(msg, b) {
			return true
		}
	}
	return false
}

// moveTo commits a move of t to the end of col and follows it with the
// cursor.
func (m *Model) moveTo(t models.Task, col models.Column) tea.Cmd {
	s := m.engine.Board().Snapshot()
	index := len(s.TasksIn(col.ID))
	id := t.ID
	return m.following(id, m.op("moved "+t.Title, func(ctx context.Context) error {
		return m.engine.CommitMove(ctx, id, col.ID, index)
	}))
}

// following makes the cursor land on taskID once cmd is done.
func (m *Model) following(taskID string, cmd tea.Cmd) tea.Cmd {
	return func() tea.Msg {
		msg := cmd().(opDoneMsg)
		msg.follow = taskID
		return msg
	}
}

func (m *Model) follow(id string) {
	s := m.engine.Board().Snapshot()
	for ci, c := range s.Columns {
		for ri, t := range s.TasksIn(c.ID) {
			if t.ID == id {
				m.col, m.row = ci, ri
				return
			}
		}
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	p := gesture.Point{X: float64(msg.X), Y: float64(msg.Y)}
	s := m.engine.Board().Snapshot()
	l := layoutBoard(s)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return nil
		}
		m.cancelDrag()
		card, ok := l.cardAt(p)
		if !ok {
			return nil
		}
		m.follow(card.id)
		m.tracker = gesture.NewTracker(gesture.SensorsFor(s.Role))
		if !m.tracker.Press(gesture.InputPointer, card.id, p, m.now()) {
			m.tracker = nil
			return nil
		}
		m.pressRect = card.rect

	case tea.MouseActionMotion:
		if m.tracker == nil {
			return nil
		}
		if m.tracker.Move(p, m.now()) {
			drag, err := m.engine.StartDrag(m.tracker.Item())
			if err != nil {
				m.status, m.err = "", err
				m.tracker = nil
				return nil
			}
			m.drag = drag
		}
		if m.drag == nil {
			return nil
		}
		active := m.pressRect.Translate(m.tracker.Offset())
		m.over = gesture.Over(active, l.droppables(m.drag.Active().ID))
		m.drag.Over(m.over)

	case tea.MouseActionRelease:
		if m.tracker == nil {
			return nil
		}
		dragging := m.tracker.Release(p)
		m.tracker = nil
		drag, over := m.drag, m.over
		m.drag, m.over = nil, ""
		if !dragging || drag == nil {
			return nil
		}
		id := drag.Active().ID
		cmd := m.op("moved "+drag.Active().Title, func(ctx context.Context) error {
			return drag.Drop(ctx, over)
		})
		return m.following(id, cmd)
	}
	return nil
}

func (m *Model) cancelDrag() {
	if m.drag != nil {
		m.drag.Cancel()
	}
	m.drag, m.over, m.tracker = nil, "", nil
}

func (m *Model) focus(col, row int) {
	m.col, m.row = col, row
	m.clampCursor()
}

func (m *Model) clampCursor() {
	s := m.engine.Board().Snapshot()
	m.col = min(max(m.col, 0), max(len(s.Columns)-1, 0))
	n := 0
	if m.col < len(s.Columns) {
		n = len(s.TasksIn(s.Columns[m.col].ID))
	}
	m.row = min(max(m.row, 0), max(n-1, 0))
}

func (m *Model) focusedColumn() (models.Column, bool) {
	s := m.engine.Board().Snapshot()
	if m.col < 0 || m.col >= len(s.Columns) {
		return models.Column{}, false
	}
	return s.Columns[m.col], true
}

func (m *Model) focusedTask() (models.Task, bool) {
	col, ok := m.focusedColumn()
	if !ok {
		return models.Task{}, false
	}
	tasks := m.engine.Board().Snapshot().TasksIn(col.ID)
	if m.row < 0 || m.row >= len(tasks) {
		return models.Task{}, false
	}
	return tasks[m.row], true
}

func taskIDs(tasks []models.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

// --- View ---

func (m *Model) View() string {
	s := m.engine.Board().Snapshot()

	header := titleStyle.Render(s.Board.Title) + " " + roleStyle.Render(string(s.Role))
	if !access.CanEdit(s.Role) {
		header += " " + readOnlyStyle.Render("read-only")
	}

	var activeID string
	if m.drag != nil {
		activeID = m.drag.Active().ID
	}
	n := rows(s)
	cols := make([]string, 0, 2*len(s.Columns))
	for i, c := range s.Columns {
		if i > 0 {
			cols = append(cols, strings.Repeat(" ", columnGap))
		}
		cols = append(cols, m.renderColumn(s, c, i == m.col, activeID, n))
	}

	footer := statusStyle.Render(m.status)
	if m.err != nil {
		footer = errorStyle.Render(m.err.Error())
	}
	parts := []string{header, "", lipgloss.JoinHorizontal(lipgloss.Top, cols...), footer}
	if m.adding {
		parts = append(parts, m.input.View())
	}
	parts = append(parts, m.help.View(keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderColumn(s board.State, c models.Column, focused bool, activeID string, rowCount int) string {
	tasks := s.TasksIn(c.ID)
	lines := []string{columnTitleStyle.MaxWidth(columnWidth - 2).Render(fmt.Sprintf("%s (%d)", c.Title, len(tasks)))}
	done := ordering.IsDone(c)
	now := m.now()
	for ri, t := range tasks {
		title := t.Title
		if marker := taskview.PriorityMarker(t.Priority); marker != "" {
			title = marker + " " + title
		}
		style := cardStyle
		switch {
		case t.ID == activeID:
			style = draggingCardStyle
		case focused && ri == m.row:
			style = selectedCardStyle
		case done:
			style = doneCardStyle
		}
		if color, ok := priorityColors[t.Priority]; ok && style.GetForeground() == (lipgloss.NoColor{}) {
			style = style.Foreground(color)
		}
		lines = append(lines, style.Render(title), m.renderMeta(s, t, now), "")
	}
	box := columnStyle
	if focused {
		box = focusedColumnStyle
	}
	return box.Height(1 + rowCount*cardHeight).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderMeta(s board.State, t models.Task, now time.Time) string {
	var parts []string
	style := metaStyle
	if t.SubjectID != nil {
		if sub, ok := s.Subject(*t.SubjectID); ok {
			parts = append(parts, sub.Name)
			style = subjectStyle(sub.Color)
		}
	}
	if t.Deadline != nil {
		parts = append(parts, taskview.DeadlineLabel(*t.Deadline, now))
	}
	if t.IsRepeat {
		parts = append(parts, "repeat")
	}
	return style.Render(strings.Join(parts, " · "))
}
