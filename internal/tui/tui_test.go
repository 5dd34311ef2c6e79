package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zulandar/studyflow/internal/board"
	"github.com/zulandar/studyflow/internal/gesture"
	"github.com/zulandar/studyflow/internal/models"
	"github.com/zulandar/studyflow/internal/ordering"
	"github.com/zulandar/studyflow/internal/store"
	"github.com/zulandar/studyflow/internal/store/storetest"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	env   *storetest.Env
	board models.Board
	cols  []models.Column
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := storetest.New(t, storetest.FixedClock(t0))
	b, err := env.Store.CreateBoard(context.Background(), "owner", "Semester", "")
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	cols, err := env.Store.GetColumns(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("GetColumns: %v", err)
	}
	return &fixture{env: env, board: b, cols: cols}
}

func (f *fixture) addTask(t *testing.T, col int, title string, repeat bool) models.Task {
	t.Helper()
	tk, err := f.env.Store.CreateTask(context.Background(), store.NewTask{ColumnID: f.cols[col].ID, Title: title, IsRepeat: repeat})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	return tk
}

// model opens the board for userID. Tasks must be added first.
func (f *fixture) model(t *testing.T, userID string) *Model {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	st, err := f.env.Store.LoadBoard(ctx, userID, f.board.ID, "")
	if err != nil {
		t.Fatalf("LoadBoard: %v", err)
	}
	eng := ordering.New(board.NewContainer(st), f.env.Store, nil, ordering.WithClock(f.env.Store.Now))
	m := New(ctx, eng, f.env.Store, nil)
	t.Cleanup(m.Close)
	return m
}

func (f *fixture) stored(t *testing.T, id string) models.Task {
	t.Helper()
	tk, err := f.env.Store.GetTask(context.Background(), id)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	return tk
}

func (f *fixture) storedTitles(t *testing.T, col int) string {
	t.Helper()
	tasks, err := f.env.Store.GetBoardTasks(context.Background(), []string{f.cols[col].ID})
	if err != nil {
		t.Fatal(err)
	}
	titles := make([]string, len(tasks))
	for i, tk := range tasks {
		titles[i] = tk.Title
	}
	return strings.Join(titles, ",")
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send delivers msg and runs the returned command once, feeding its result
// back into the model.
func send(t *testing.T, m *Model, msg tea.Msg) {
	t.Helper()
	_, cmd := m.Update(msg)
	if cmd == nil {
		return
	}
	if out := cmd(); out != nil {
		m.Update(out)
	}
}

func mouse(action tea.MouseAction, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

func TestKeyboard_MoveRight(t *testing.T) {
	f := newFixture(t)
	a := f.addTask(t, 0, "A", false)
	f.addTask(t, 0, "B", false)
	m := f.model(t, "owner")

	send(t, m, runes("L"))
	if m.err != nil {
		t.Fatalf("err = %v", m.err)
	}
	if got := f.stored(t, a.ID); got.ColumnID != f.cols[1].ID {
		t.Errorf("A column = %s, want in progress", got.ColumnID)
	}
	if m.col != 1 || m.row != 0 {
		t.Errorf("cursor = %d,%d, want 1,0", m.col, m.row)
	}
}

func TestKeyboard_DoneStampsCompletion(t *testing.T) {
	f := newFixture(t)
	a := f.addTask(t, 0, "A", false)
	m := f.model(t, "owner")

	send(t, m, runes("d"))
	got := f.stored(t, a.ID)
	if got.ColumnID != f.cols[2].ID {
		t.Fatalf("A column = %s, want done", got.ColumnID)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(t0) {
		t.Errorf("CompletedAt = %v, want %v", got.CompletedAt, t0)
	}
	if m.col != 2 {
		t.Errorf("cursor column = %d, want 2", m.col)
	}
}

func TestKeyboard_DoneReroutesRepeatTask(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 3, "r1", false)
	rep := f.addTask(t, 0, "flashcards", true)
	m := f.model(t, "owner")

	send(t, m, runes("d"))
	got := f.stored(t, rep.ID)
	if got.ColumnID != f.cols[3].ID || got.Position != 1 {
		t.Errorf("repeat task = column %s position %d, want repeat column at 1", got.ColumnID, got.Position)
	}
	if got.CompletedAt != nil {
		t.Errorf("CompletedAt = %v, want nil", got.CompletedAt)
	}
	if m.col != 3 || m.row != 1 {
		t.Errorf("cursor = %d,%d, want 3,1", m.col, m.row)
	}
}

func TestKeyboard_Reorder(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 0, "A", false)
	f.addTask(t, 0, "B", false)
	f.addTask(t, 0, "C", false)
	m := f.model(t, "owner")

	send(t, m, runes("J"))
	if got := f.storedTitles(t, 0); got != "B,A,C" {
		t.Errorf("order = %s, want B,A,C", got)
	}
	if m.row != 1 {
		t.Errorf("row = %d, want 1", m.row)
	}
	send(t, m, runes("K"))
	if got := f.storedTitles(t, 0); got != "A,B,C" {
		t.Errorf("order = %s, want A,B,C", got)
	}
}

func TestKeyboard_Navigation(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 0, "A", false)
	f.addTask(t, 0, "B", false)
	m := f.model(t, "owner")

	send(t, m, runes("j"))
	send(t, m, runes("j"))
	if m.row != 1 {
		t.Errorf("row = %d, want clamped to 1", m.row)
	}
	send(t, m, runes("l"))
	if m.col != 1 || m.row != 0 {
		t.Errorf("cursor = %d,%d, want 1,0 on empty column", m.col, m.row)
	}
	send(t, m, runes("h"))
	send(t, m, runes("h"))
	if m.col != 0 {
		t.Errorf("col = %d, want 0", m.col)
	}
}

func TestKeyboard_AddAndDelete(t *testing.T) {
	f := newFixture(t)
	m := f.model(t, "owner")

	m.Update(runes("a"))
	if !m.adding {
		t.Fatal("not in add mode")
	}
	m.Update(runes("Read chapter 4"))
	send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.adding {
		t.Error("still in add mode")
	}
	tasks := m.engine.Board().Snapshot().TasksIn(f.cols[0].ID)
	if len(tasks) != 1 || tasks[0].Title != "Read chapter 4" {
		t.Fatalf("tasks = %+v", tasks)
	}
	if got := f.storedTitles(t, 0); got != "Read chapter 4" {
		t.Errorf("stored = %q", got)
	}

	send(t, m, runes("x"))
	if n := len(m.engine.Board().Snapshot().TasksIn(f.cols[0].ID)); n != 0 {
		t.Errorf("tasks after delete = %d", n)
	}
	if got := f.storedTitles(t, 0); got != "" {
		t.Errorf("stored after delete = %q", got)
	}
}

func TestKeyboard_AddCancelled(t *testing.T) {
	f := newFixture(t)
	m := f.model(t, "owner")
	m.Update(runes("a"))
	m.Update(runes("nope"))
	send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.adding || m.input.Value() != "" {
		t.Errorf("adding = %v, input = %q", m.adding, m.input.Value())
	}
	if got := f.storedTitles(t, 0); got != "" {
		t.Errorf("stored = %q", got)
	}
}

func TestViewer_IsReadOnly(t *testing.T) {
	f := newFixture(t)
	a := f.addTask(t, 0, "A", false)
	if err := f.env.DB.Create(&models.BoardMember{BoardID: f.board.ID, UserID: "viewer", Role: models.RoleViewer}).Error; err != nil {
		t.Fatal(err)
	}
	m := f.model(t, "viewer")

	send(t, m, runes("L"))
	if !errors.Is(m.err, ordering.ErrReadOnly) {
		t.Errorf("err = %v, want ErrReadOnly", m.err)
	}
	send(t, m, mouse(tea.MouseActionPress, 5, 4))
	send(t, m, mouse(tea.MouseActionMotion, 40, 4))
	if m.drag != nil {
		t.Error("viewer started a drag")
	}
	send(t, m, mouse(tea.MouseActionRelease, 40, 4))
	if got := f.stored(t, a.ID); got.ColumnID != f.cols[0].ID {
		t.Errorf("viewer moved the task")
	}
	if !strings.Contains(m.View(), "read-only") {
		t.Error("view lacks read-only badge")
	}
}

func TestMouse_DragAcrossColumns(t *testing.T) {
	f := newFixture(t)
	a := f.addTask(t, 0, "A", false)
	c := f.addTask(t, 1, "C", false)
	m := f.model(t, "owner")

	send(t, m, mouse(tea.MouseActionPress, 5, 4))
	send(t, m, mouse(tea.MouseActionMotion, 7, 4))
	if m.drag != nil {
		t.Fatal("drag activated below the distance threshold")
	}
	send(t, m, mouse(tea.MouseActionMotion, 5+columnWidth+columnGap, 4))
	if m.drag == nil {
		t.Fatal("drag not activated")
	}
	if m.over != c.ID {
		t.Errorf("over = %q, want C", m.over)
	}
	preview, _ := m.engine.Board().Snapshot().Task(a.ID)
	if preview.ColumnID != f.cols[1].ID {
		t.Errorf("preview column = %s, want in progress", preview.ColumnID)
	}

	send(t, m, mouse(tea.MouseActionRelease, 5+columnWidth+columnGap, 4))
	if m.drag != nil {
		t.Error("drag still active after release")
	}
	if got := f.stored(t, a.ID); got.ColumnID != f.cols[1].ID || got.Position != 0 {
		t.Errorf("A = column %s position %d, want in progress at 0", got.ColumnID, got.Position)
	}
	if m.col != 1 {
		t.Errorf("cursor column = %d, want 1", m.col)
	}
}

func TestMouse_DragWithinColumnReorders(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 0, "A", false)
	f.addTask(t, 0, "B", false)
	f.addTask(t, 0, "C", false)
	m := f.model(t, "owner")

	send(t, m, mouse(tea.MouseActionPress, 5, 4))
	send(t, m, mouse(tea.MouseActionMotion, 5, 4+2*cardHeight))
	send(t, m, mouse(tea.MouseActionRelease, 5, 4+2*cardHeight))
	if got := f.storedTitles(t, 0); got != "B,C,A" {
		t.Errorf("order = %s, want B,C,A", got)
	}
}

func TestMouse_ClickSelects(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 0, "A", false)
	f.addTask(t, 1, "B", false)
	f.addTask(t, 1, "C", false)
	m := f.model(t, "owner")

	x := columnWidth + columnGap + 5
	send(t, m, mouse(tea.MouseActionPress, x, 4+cardHeight))
	send(t, m, mouse(tea.MouseActionRelease, x, 4+cardHeight))
	if m.col != 1 || m.row != 1 {
		t.Errorf("cursor = %d,%d, want 1,1", m.col, m.row)
	}
	if got := f.storedTitles(t, 1); got != "B,C" {
		t.Errorf("click changed order: %s", got)
	}
}

func TestEscCancelsDrag(t *testing.T) {
	f := newFixture(t)
	a := f.addTask(t, 0, "A", false)
	f.addTask(t, 1, "C", false)
	m := f.model(t, "owner")

	send(t, m, mouse(tea.MouseActionPress, 5, 4))
	send(t, m, mouse(tea.MouseActionMotion, 5+columnWidth+columnGap, 4))
	send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.drag != nil {
		t.Error("drag still active")
	}
	if got, _ := m.engine.Board().Snapshot().Task(a.ID); got.ColumnID != f.cols[0].ID {
		t.Errorf("preview not rolled back: column %s", got.ColumnID)
	}
	send(t, m, mouse(tea.MouseActionRelease, 5+columnWidth+columnGap, 4))
	if got := f.stored(t, a.ID); got.ColumnID != f.cols[0].ID {
		t.Error("cancelled drag was persisted")
	}
}

func TestBoardChangeWakesModel(t *testing.T) {
	f := newFixture(t)
	m := f.model(t, "owner")
	got := make(chan tea.Msg, 1)
	go func() { got <- m.Init()() }()

	m.engine.Board().Dispatch(board.InsertTask{Task: models.Task{ID: "remote", ColumnID: f.cols[0].ID, Title: "remote"}})
	select {
	case msg := <-got:
		if _, ok := msg.(boardChangedMsg); !ok {
			t.Errorf("msg = %T, want boardChangedMsg", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no board change message")
	}
}

func TestView(t *testing.T) {
	f := newFixture(t)
	due := t0.Add(20 * time.Hour)
	if _, err := f.env.Store.CreateTask(context.Background(), store.NewTask{
		ColumnID: f.cols[0].ID, Title: "Essay", Priority: models.PriorityHigh, Deadline: &due,
	}); err != nil {
		t.Fatal(err)
	}
	m := f.model(t, "owner")
	v := m.View()
	for _, want := range []string{"Semester", "owner", "Assigned (1)", "Done (0)", "!!! Essay", "tomorrow"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q:\n%s", want, v)
		}
	}
	if strings.Contains(v, "read-only") {
		t.Error("owner view shows read-only")
	}
}

func TestLayout(t *testing.T) {
	s := board.State{
		Columns: []models.Column{{ID: "c0", Position: 0}, {ID: "c1", Position: 1}},
		Tasks: []models.Task{
			{ID: "a", ColumnID: "c0", Position: 0},
			{ID: "b", ColumnID: "c0", Position: 1},
			{ID: "c", ColumnID: "c1", Position: 0},
		},
	}
	l := layoutBoard(s)
	if len(l.columns) != 2 || len(l.cards) != 3 {
		t.Fatalf("layout = %+v", l)
	}
	if got := l.columns[1].rect; got.X != columnWidth+columnGap || got.H != float64(3+2*cardHeight) {
		t.Errorf("column rect = %+v", got)
	}
	if c, ok := l.cardAt(gesture.Point{X: 3, Y: 4 + cardHeight}); !ok || c.id != "b" || c.index != 1 {
		t.Errorf("cardAt = %+v, %v", c, ok)
	}
	if _, ok := l.cardAt(gesture.Point{X: 3, Y: 3}); ok {
		t.Error("column title hit a card")
	}
	for _, d := range l.droppables("a") {
		if d.ID == "a" {
			t.Error("droppables include the active card")
		}
	}
	if n := len(l.droppables("a")); n != 4 {
		t.Errorf("droppables = %d, want 4", n)
	}
}
