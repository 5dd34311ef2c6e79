package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zulandar/studyflow/internal/models"
	"github.com/zulandar/studyflow/internal/realtime"
	"github.com/zulandar/studyflow/internal/store"
	"github.com/zulandar/studyflow/internal/store/storetest"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func waitEvent(t *testing.T, ch <-chan realtime.Event) realtime.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return realtime.Event{}
}

func newBoard(t *testing.T, env *storetest.Env, userID string) (models.Board, []models.Column) {
	t.Helper()
	ctx := context.Background()
	b, err := env.Store.CreateBoard(ctx, userID, "", "")
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	cols, err := env.Store.GetColumns(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetColumns: %v", err)
	}
	return b, cols
}

func TestCreateBoard_SeedsDefaults(t *testing.T) {
	env := storetest.New(t)
	b, cols := newBoard(t, env, "u1")
	if b.Title != "My Board" {
		t.Errorf("Title = %q, want My Board", b.Title)
	}
	if len(cols) != 4 {
		t.Fatalf("len(columns) = %d, want 4", len(cols))
	}
	for i, c := range cols {
		if c.Position != i {
			t.Errorf("cols[%d].Position = %d", i, c.Position)
		}
	}
	subs, err := env.Store.GetSubjects(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("GetSubjects: %v", err)
	}
	if len(subs) != 8 {
		t.Errorf("len(subjects) = %d, want 8", len(subs))
	}
	// ordered by name
	if subs[0].Name != "Biology" {
		t.Errorf("subs[0] = %q, want Biology", subs[0].Name)
	}
}

func TestLoadBoard_Selection(t *testing.T) {
	env := storetest.New(t)
	ctx := context.Background()

	// No boards: a default board is created.
	st, err := env.Store.LoadBoard(ctx, "u1", "", "u1@example.com")
	if err != nil {
		t.Fatalf("LoadBoard: %v", err)
	}
	if st.Role != models.RoleOwner || len(st.Columns) != 4 {
		t.Fatalf("state = role %q, %d columns", st.Role, len(st.Columns))
	}
	if st.Board.OwnerEmail == nil || *st.Board.OwnerEmail != "u1@example.com" {
		t.Errorf("OwnerEmail = %v", st.Board.OwnerEmail)
	}
	own := st.Board.ID

	// Second load reuses it.
	again, err := env.Store.LoadBoard(ctx, "u1", "", "")
	if err != nil {
		t.Fatalf("LoadBoard: %v", err)
	}
	if again.Board.ID != own {
		t.Errorf("second load opened %s, want %s", again.Board.ID, own)
	}

	// Shared board opens on request with the membership role.
	shared, _ := newBoard(t, env, "u2")
	if err := env.DB.Create(&models.BoardMember{BoardID: shared.ID, UserID: "u1", Role: models.RoleEditor}).Error; err != nil {
		t.Fatal(err)
	}
	st, err = env.Store.LoadBoard(ctx, "u1", shared.ID, "")
	if err != nil {
		t.Fatalf("LoadBoard: %v", err)
	}
	if st.Board.ID != shared.ID || st.Role != models.RoleEditor {
		t.Errorf("opened %s as %q, want %s as editor", st.Board.ID, st.Role, shared.ID)
	}

	// Inaccessible request falls back to the own board.
	foreign, _ := newBoard(t, env, "u3")
	st, err = env.Store.LoadBoard(ctx, "u1", foreign.ID, "")
	if err != nil {
		t.Fatalf("LoadBoard: %v", err)
	}
	if st.Board.ID != own {
		t.Errorf("fallback opened %s, want own board %s", st.Board.ID, own)
	}
}

func TestLoadBoard_SharedOnly(t *testing.T) {
	env := storetest.New(t)
	shared, _ := newBoard(t, env, "owner")
	if err := env.DB.Create(&models.BoardMember{BoardID: shared.ID, UserID: "guest", Role: models.RoleViewer}).Error; err != nil {
		t.Fatal(err)
	}
	st, err := env.Store.LoadBoard(context.Background(), "guest", "", "")
	if err != nil {
		t.Fatalf("LoadBoard: %v", err)
	}
	if st.Board.ID != shared.ID || st.Role != models.RoleViewer {
		t.Errorf("opened %s as %q, want shared board as viewer", st.Board.ID, st.Role)
	}
}

func TestListAvailableBoards(t *testing.T) {
	env := storetest.New(t)
	ctx := context.Background()
	mine, _ := newBoard(t, env, "u1")
	theirs, _ := newBoard(t, env, "u2")
	env.DB.Create(&models.BoardMember{BoardID: theirs.ID, UserID: "u1", Role: models.RoleViewer})
	// A membership on an own board does not duplicate it.
	env.DB.Create(&models.BoardMember{BoardID: mine.ID, UserID: "u1", Role: models.RoleViewer})

	list, err := env.Store.ListAvailableBoards(ctx, "u1")
	if err != nil {
		t.Fatalf("ListAvailableBoards: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].Board.ID != mine.ID || !list[0].IsOwner || list[0].Role != models.RoleOwner {
		t.Errorf("list[0] = %+v", list[0])
	}
	if list[1].Board.ID != theirs.ID || list[1].IsOwner || list[1].Role != models.RoleViewer {
		t.Errorf("list[1] = %+v", list[1])
	}
}

func TestAccess(t *testing.T) {
	env := storetest.New(t)
	ctx := context.Background()
	b, _ := newBoard(t, env, "owner")
	env.DB.Create(&models.BoardMember{BoardID: b.ID, UserID: "ed", Role: models.RoleEditor})

	if role, err := env.Store.Access(ctx, b.ID, "owner"); err != nil || role != models.RoleOwner {
		t.Errorf("owner: %q, %v", role, err)
	}
	if role, err := env.Store.Access(ctx, b.ID, "ed"); err != nil || role != models.RoleEditor {
		t.Errorf("editor: %q, %v", role, err)
	}
	if _, err := env.Store.Access(ctx, b.ID, "stranger"); !errors.Is(err, store.ErrForbidden) {
		t.Errorf("stranger: err = %v, want ErrForbidden", err)
	}
	if _, err := env.Store.Access(ctx, "nope", "owner"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing board: err = %v, want ErrNotFound", err)
	}
}

func TestOpenBoard_NoFallback(t *testing.T) {
	env := storetest.New(t)
	ctx := context.Background()
	b, _ := newBoard(t, env, "owner")
	env.DB.Create(&models.BoardMember{BoardID: b.ID, UserID: "v", Role: models.RoleViewer})

	s, err := env.Store.OpenBoard(ctx, b.ID, "v")
	if err != nil {
		t.Fatalf("OpenBoard: %v", err)
	}
	if s.Board.ID != b.ID || s.Role != models.RoleViewer || len(s.Columns) != 4 {
		t.Errorf("state = board %s role %s cols %d", s.Board.ID, s.Role, len(s.Columns))
	}
	if _, err := env.Store.OpenBoard(ctx, b.ID, "stranger"); !errors.Is(err, store.ErrForbidden) {
		t.Errorf("stranger: err = %v, want ErrForbidden", err)
	}
	if _, err := env.Store.OpenBoard(ctx, "missing", "owner"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing: err = %v, want ErrNotFound", err)
	}
}

func TestCreateTask_AppendsAfterMax(t *testing.T) {
	env := storetest.New(t)
	ctx := context.Background()
	_, cols := newBoard(t, env, "u1")

	first, err := env.Store.CreateTask(ctx, store.NewTask{ColumnID: cols[0].ID, Title: "  Read chapter 3 "})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if first.Position != 0 || first.Title != "Read chapter 3" || first.Priority != models.PriorityMedium {
		t.Errorf("first = %+v", first)
	}
	// Leave a gap: the next task goes after the highest position.
	if _, err := env.Store.UpdateTask(ctx, first.ID, store.TaskPatch{Position: intPtr(5)}); err != nil {
		t.Fatal(err)
	}
	second, err := env.Store.CreateTask(ctx, store.NewTask{ColumnID: cols[0].ID, Title: "Essay", Priority: "bogus"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if second.Position != 6 {
		t.Errorf("second.Position = %d, want 6", second.Position)
	}
	if second.Priority != models.PriorityMedium {
		t.Errorf("second.Priority = %q, want medium", second.Priority)
	}
}

func intPtr(n int) *int { return &n }

func TestCreateTask_Invalid(t *testing.T) {
	env := storetest.New(t)
	ctx := context.Background()
	if _, err := env.Store.CreateTask(ctx, store.NewTask{ColumnID: "x", Title: " "}); !errors.Is(err, store.ErrInvalid) {
		t.Errorf("blank title: err = %v, want ErrInvalid", err)
	}
	if _, err := env.Store.CreateTask(ctx, store.NewTask{ColumnID: "missing", Title: "x"}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing column: err = %v, want ErrNotFound", err)
	}
}

func TestGetBoardTasks_OrderedByPosition(t *testing.T) {
	env := storetest.New(t)
	ctx := context.Background()
	_, cols := newBoard(t, env, "u1")
	for _, title := range []string{"a", "b", "c"} {
		if _, err := env.Store.CreateTask(ctx, store.NewTask{ColumnID: cols[1].ID, Title: title}); err != nil {
			t.Fatal(err)
		}
	}
	tasks, err := env.Store.GetBoardTasks(ctx, []string{cols[1].ID})
	if err != nil {
		t.Fatalf("GetBoardTasks: %v", err)
	}
	if len(tasks) != 3 || tasks[0].Title != "a" || tasks[2].Position != 2 {
		t.Errorf("tasks = %+v", tasks)
	}
	if none, err := env.Store.GetBoardTasks(ctx, nil); err != nil || len(none) != 0 {
		t.Errorf("empty column set: %v, %v", none, err)
	}
}

func TestUpdateTask_PatchAndEcho(t *testing.T) {
	env := storetest.New(t, storetest.FixedClock(t0))
	ctx := context.Background()
	_, cols := newBoard(t, env, "u1")
	task, err := env.Store.CreateTask(ctx, store.NewTask{
		ColumnID: cols[0].ID, Title: "Lab report", Description: strPtr("draft"),
	})
	if err != nil {
		t.Fatal(err)
	}

	events := make(chan realtime.Event, 10)
	unsub, err := env.Store.SubscribeToTaskChanges(ctx, []string{cols[0].ID, cols[2].ID}, func(ev realtime.Event) { events <- ev })
	if err != nil {
		t.Fatalf("SubscribeToTaskChanges: %v", err)
	}
	defer unsub()

	done := cols[2].ID
	pos := 0
	updated, err := env.Store.UpdateTask(ctx, task.ID, store.TaskPatch{
		ColumnID:    &done,
		Position:    &pos,
		CompletedAt: store.Value(t0),
		Description: store.Null[string](),
	})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.ColumnID != done || updated.CompletedAt == nil || updated.Description != nil {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Title != "Lab report" {
		t.Errorf("Title changed to %q", updated.Title)
	}

	ev := waitEvent(t, events)
	if ev.Kind != realtime.KindUpdate || ev.ID() != task.ID {
		t.Errorf("event = %+v", ev)
	}
	if ev.Record["column_id"] != done {
		t.Errorf("event column_id = %v, want %s", ev.Record["column_id"], done)
	}

	if _, err := env.Store.UpdateTask(ctx, "missing", store.TaskPatch{Position: &pos}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing task: err = %v, want ErrNotFound", err)
	}
	blank := " "
	if _, err := env.Store.UpdateTask(ctx, task.ID, store.TaskPatch{Title: &blank}); !errors.Is(err, store.ErrInvalid) {
		t.Errorf("blank title: err = %v, want ErrInvalid", err)
	}
}

func TestUpdateTaskPositions_PerItemErrors(t *testing.T) {
	env := storetest.New(t)
	ctx := context.Background()
	_, cols := newBoard(t, env, "u1")
	a, _ := env.Store.CreateTask(ctx, store.NewTask{ColumnID: cols[0].ID, Title: "a"})
	b, _ := env.Store.CreateTask(ctx, store.NewTask{ColumnID: cols[0].ID, Title: "b"})

	errs := env.Store.UpdateTaskPositions(ctx, []store.PositionUpdate{
		{ID: b.ID, Position: 0},
		{ID: "ghost", Position: 1},
		{ID: a.ID, Position: 2},
	})
	if len(errs) != 3 {
		t.Fatalf("len(errs) = %d, want 3", len(errs))
	}
	if errs[0] != nil || errs[2] != nil {
		t.Errorf("errs = %v, want failures only for the missing task", errs)
	}
	if !errors.Is(errs[1], store.ErrNotFound) {
		t.Errorf("errs[1] = %v, want ErrNotFound", errs[1])
	}
	got, _ := env.Store.GetTask(ctx, a.ID)
	if got.Position != 2 {
		t.Errorf("a.Position = %d, want 2", got.Position)
	}
}

func TestDeleteTask_EchoesOldRow(t *testing.T) {
	env := storetest.New(t)
	ctx := context.Background()
	_, cols := newBoard(t, env, "u1")
	task, _ := env.Store.CreateTask(ctx, store.NewTask{ColumnID: cols[0].ID, Title: "x"})

	events := make(chan realtime.Event, 10)
	unsub, _ := env.Store.SubscribeToTaskChanges(ctx, []string{cols[0].ID}, func(ev realtime.Event) { events <- ev })
	defer unsub()

	if err := env.Store.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	ev := waitEvent(t, events)
	if ev.Kind != realtime.KindDelete || ev.OldID != task.ID {
		t.Errorf("event = %+v", ev)
	}
	if err := env.Store.DeleteTask(ctx, task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestColumns_CreateAndRename(t *testing.T) {
	env := storetest.New(t)
	ctx := context.Background()
	b, _ := newBoard(t, env, "u1")

	events := make(chan realtime.Event, 10)
	unsub, _ := env.Store.SubscribeToColumnChanges(ctx, b.ID, func(ev realtime.Event) { events <- ev })
	defer unsub()

	c, err := env.Store.CreateColumn(ctx, b.ID, "Backlog")
	if err != nil {
		t.Fatalf("CreateColumn: %v", err)
	}
	if c.Position != 4 {
		t.Errorf("Position = %d, want 4", c.Position)
	}
	if ev := waitEvent(t, events); ev.Kind != realtime.KindInsert || ev.ID() != c.ID {
		t.Errorf("insert event = %+v", ev)
	}

	renamed, err := env.Store.RenameColumn(ctx, c.ID, "Someday")
	if err != nil {
		t.Fatalf("RenameColumn: %v", err)
	}
	if renamed.Title != "Someday" || renamed.Position != 4 {
		t.Errorf("renamed = %+v", renamed)
	}
	if ev := waitEvent(t, events); ev.Kind != realtime.KindUpdate || ev.Record["title"] != "Someday" {
		t.Errorf("update event = %+v", ev)
	}

	if _, err := env.Store.RenameColumn(ctx, "missing", "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing column: err = %v", err)
	}
	if _, err := env.Store.CreateColumn(ctx, b.ID, ""); !errors.Is(err, store.ErrInvalid) {
		t.Errorf("blank title: err = %v", err)
	}
}

func TestSubjects_Lifecycle(t *testing.T) {
	env := storetest.New(t)
	ctx := context.Background()
	b, cols := newBoard(t, env, "u1")

	art, err := env.Store.AddSubject(ctx, b.ID, "u1", "Art", nil)
	if err != nil {
		t.Fatalf("AddSubject: %v", err)
	}
	// Eight defaults already exist, so the ninth palette entry is used.
	if art.Color == nil || *art.Color != models.PaletteColor(8) {
		t.Errorf("Color = %v, want %s", art.Color, models.PaletteColor(8))
	}
	if _, err := env.Store.AddSubject(ctx, b.ID, "u1", "art", nil); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("duplicate: err = %v, want ErrDuplicate", err)
	}
	if _, err := env.Store.AddSubject(ctx, b.ID, "u1", "Music", strPtr("blue")); !errors.Is(err, store.ErrInvalid) {
		t.Errorf("bad colour: err = %v, want ErrInvalid", err)
	}

	name := "Fine Art"
	updated, err := env.Store.UpdateSubject(ctx, art.ID, store.SubjectPatch{Name: &name, Color: store.Null[string]()})
	if err != nil {
		t.Fatalf("UpdateSubject: %v", err)
	}
	if updated.Name != "Fine Art" || updated.Color != nil {
		t.Errorf("updated = %+v", updated)
	}
	math := "math"
	if _, err := env.Store.UpdateSubject(ctx, art.ID, store.SubjectPatch{Name: &math}); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("rename onto existing: err = %v, want ErrDuplicate", err)
	}

	task, _ := env.Store.CreateTask(ctx, store.NewTask{ColumnID: cols[0].ID, Title: "Sketch", SubjectID: &art.ID})
	if err := env.Store.DeleteSubject(ctx, art.ID); err != nil {
		t.Fatalf("DeleteSubject: %v", err)
	}
	got, _ := env.Store.GetTask(ctx, task.ID)
	if got.SubjectID != nil {
		t.Errorf("task SubjectID = %v, want cleared", *got.SubjectID)
	}
	if _, err := env.Store.SubjectBoard(ctx, art.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("deleted subject: err = %v", err)
	}
}

func TestLeaveBoard(t *testing.T) {
	env := storetest.New(t)
	ctx := context.Background()
	b, _ := newBoard(t, env, "owner")
	env.DB.Create(&models.BoardMember{BoardID: b.ID, UserID: "guest", Role: models.RoleViewer})

	if err := env.Store.LeaveBoard(ctx, b.ID, "owner"); !errors.Is(err, store.ErrOwnerCannotLeave) {
		t.Errorf("owner leave: err = %v", err)
	}
	if err := env.Store.LeaveBoard(ctx, b.ID, "guest"); err != nil {
		t.Fatalf("LeaveBoard: %v", err)
	}
	if err := env.Store.LeaveBoard(ctx, b.ID, "guest"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second leave: err = %v, want ErrNotFound", err)
	}
	members, _ := env.Store.ListMembers(ctx, b.ID)
	if len(members) != 0 {
		t.Errorf("members = %v", members)
	}
}

func TestSettings(t *testing.T) {
	env := storetest.New(t)
	ctx := context.Background()

	us, err := env.Store.GetSettings(ctx, "u1")
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if us.NotificationsEnabled || us.HoursBeforeDeadline != 24 {
		t.Errorf("defaults = %+v", us)
	}

	us.NotificationsEnabled = true
	us.HoursBeforeDeadline = 48
	if _, err := env.Store.SaveSettings(ctx, us); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	us.HoursBeforeDeadline = 12
	if _, err := env.Store.SaveSettings(ctx, us); err != nil {
		t.Fatalf("SaveSettings (update): %v", err)
	}
	got, _ := env.Store.GetSettings(ctx, "u1")
	if !got.NotificationsEnabled || got.HoursBeforeDeadline != 12 {
		t.Errorf("saved = %+v", got)
	}

	us.HoursBeforeDeadline = 0
	if _, err := env.Store.SaveSettings(ctx, us); !errors.Is(err, store.ErrInvalid) {
		t.Errorf("zero hours: err = %v, want ErrInvalid", err)
	}
}

func TestRenameBoard(t *testing.T) {
	env := storetest.New(t)
	ctx := context.Background()
	b, _ := newBoard(t, env, "u1")
	if err := env.Store.RenameBoard(ctx, b.ID, "Semester 2"); err != nil {
		t.Fatalf("RenameBoard: %v", err)
	}
	if err := env.Store.RenameBoard(ctx, b.ID, ""); !errors.Is(err, store.ErrInvalid) {
		t.Errorf("blank: err = %v", err)
	}
	if err := env.Store.RenameBoard(ctx, "missing", "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing: err = %v", err)
	}
}
