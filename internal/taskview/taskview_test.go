package taskview

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/studyflow/internal/board"
	"github.com/zulandar/studyflow/internal/models"
)

// Monday.
var now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func at(days int, hour int) *time.Time {
	t := time.Date(2026, 3, 2+days, hour, 0, 0, 0, time.UTC)
	return &t
}

func ids(tasks []models.Task) string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return strings.Join(out, ",")
}

func state() board.State {
	return board.State{
		Columns: []models.Column{
			{ID: "todo", Title: "Assigned", Position: 0},
			{ID: "doing", Title: "In Progress", Position: 1},
			{ID: "done", Title: "Done", Position: 2},
			{ID: "repeat", Title: "Repeat", Position: 3},
		},
		Subjects: []models.Subject{
			{ID: "phys", Name: "physics", Color: strPtr("#ef4444")},
			{ID: "math", Name: "Math", Color: strPtr("#3b82f6")},
			{ID: "bio", Name: "Biology"},
		},
		Tasks: []models.Task{
			{ID: "a", ColumnID: "todo", Title: "Problem set", SubjectID: strPtr("math"), Priority: models.PriorityHigh, Deadline: at(1, 10)},
			{ID: "b", ColumnID: "doing", Title: "Lab report", SubjectID: strPtr("phys"), Priority: models.PriorityMedium, Deadline: at(-2, 12)},
			{ID: "c", ColumnID: "todo", Title: "Reading", Priority: models.PriorityLow},
			{ID: "d", ColumnID: "done", Title: "Quiz", SubjectID: strPtr("math"), Priority: models.PriorityHigh},
			{ID: "e", ColumnID: "repeat", Title: "Vocab", SubjectID: strPtr("math"), Priority: models.PriorityMedium, Deadline: at(0, 18)},
			{ID: "f", ColumnID: "todo", Title: "Essay", SubjectID: strPtr("gone"), Priority: models.PriorityHigh, Deadline: at(12, 9)},
			{ID: "g", ColumnID: "doing", Title: "Flashcards", Priority: models.PriorityHigh, Deadline: at(4, 9)},
		},
	}
}

func TestIncomplete(t *testing.T) {
	s := state()
	if got := ids(Incomplete(s.Tasks, s.Columns)); got != "a,b,c,e,f,g" {
		t.Errorf("Incomplete = %s", got)
	}
	if got := Incomplete(s.Tasks, s.Columns[:2]); len(got) != len(s.Tasks) {
		t.Errorf("without a done column got %d tasks, want all", len(got))
	}
}

func TestSort(t *testing.T) {
	tasks := []models.Task{
		{ID: "low", Priority: models.PriorityLow},
		{ID: "late", Deadline: at(5, 0), Priority: models.PriorityLow},
		{ID: "high", Priority: models.PriorityHigh},
		{ID: "early", Deadline: at(1, 0), Priority: models.PriorityLow},
		{ID: "early-high", Deadline: at(1, 0), Priority: models.PriorityHigh},
		{ID: "med", Priority: models.PriorityMedium},
	}
	if got := ids(Sort(tasks)); got != "early-high,early,late,high,med,low" {
		t.Errorf("Sort = %s", got)
	}
	if tasks[0].ID != "low" {
		t.Error("Sort modified its input")
	}
}

func TestGroupBySubject(t *testing.T) {
	s := state()
	groups := GroupBySubject(Incomplete(s.Tasks, s.Columns), s.Subjects)
	if len(groups) != 3 {
		t.Fatalf("groups = %+v", groups)
	}
	want := []struct{ key, label, tasks string }{
		{"math", "Math", "e,a"},
		{"phys", "physics", "b"},
		{KeyNone, NoSubjectLabel, "g,f,c"},
	}
	for i, w := range want {
		g := groups[i]
		if g.Key != w.key || g.Label != w.label || ids(g.Tasks) != w.tasks {
			t.Errorf("groups[%d] = %s %q [%s], want %s %q [%s]", i, g.Key, g.Label, ids(g.Tasks), w.key, w.label, w.tasks)
		}
	}
	if groups[0].Color != "#3b82f6" {
		t.Errorf("math colour = %q", groups[0].Color)
	}
}

func TestGroupByColumn(t *testing.T) {
	s := state()
	groups := GroupByColumn(s.Tasks, s.Columns)
	var got []string
	for _, g := range groups {
		got = append(got, g.Label+":"+ids(g.Tasks))
	}
	if strings.Join(got, " ") != "Assigned:a,f,c In Progress:b,g Repeat:e" {
		t.Errorf("GroupByColumn = %v", got)
	}
}

func TestGroupByDeadline(t *testing.T) {
	s := state()
	s.Tasks = append(s.Tasks, models.Task{ID: "h", ColumnID: "todo", Deadline: at(7, 0)})
	groups := GroupByDeadline(Incomplete(s.Tasks, s.Columns), now)
	var got []string
	for _, g := range groups {
		got = append(got, g.Key+":"+ids(g.Tasks))
	}
	want := "overdue:b today:e tomorrow:a week:g later:h,f none:c"
	if strings.Join(got, " ") != want {
		t.Errorf("GroupByDeadline = %v, want %s", got, want)
	}
}

func TestGrouped_ParseGroupBy(t *testing.T) {
	if ParseGroupBy("column") != ByColumn || ParseGroupBy("weird") != BySubject {
		t.Error("ParseGroupBy mapping wrong")
	}
	if got := Grouped(state(), ByColumn, now); len(got) != 3 {
		t.Errorf("Grouped(column) = %d groups", len(got))
	}
}

func TestPriorityMarker(t *testing.T) {
	tests := map[models.Priority]string{
		models.PriorityHigh:   "!!!",
		models.PriorityMedium: "!!",
		models.PriorityLow:    "",
	}
	for p, want := range tests {
		if got := PriorityMarker(p); got != want {
			t.Errorf("PriorityMarker(%s) = %q, want %q", p, got, want)
		}
	}
}

func TestDeadlineLabel(t *testing.T) {
	tests := []struct {
		deadline time.Time
		want     string
	}{
		{now.Add(-49 * time.Hour), "overdue 2 days"},
		{now.Add(-25 * time.Hour), "overdue 1 day"},
		{now.Add(-time.Hour), "today"},
		{now.Add(5 * time.Hour), "tomorrow"},
		{now.Add(30 * time.Hour), "in 2 days"},
		{now.Add(7 * 24 * time.Hour), "in 7 days"},
		{now.Add(9 * 24 * time.Hour), "11 Mar"},
	}
	for _, tt := range tests {
		if got := DeadlineLabel(tt.deadline, now); got != tt.want {
			t.Errorf("DeadlineLabel(%v) = %q, want %q", tt.deadline, got, tt.want)
		}
	}
}

func TestPrintDeadline(t *testing.T) {
	if PrintDeadline(nil, now) != "" {
		t.Error("nil deadline should be empty")
	}
	if got := PrintDeadline(at(0, 23), now); got != "today" {
		t.Errorf("today = %q", got)
	}
	if got := PrintDeadline(at(1, 0), now); got != "tomorrow" {
		t.Errorf("tomorrow = %q", got)
	}
	if got := PrintDeadline(at(3, 0), now); got != "Thu, 5 Mar" {
		t.Errorf("later = %q", got)
	}
}

func TestLoadLevel(t *testing.T) {
	tests := []struct {
		n    int
		want Load
	}{
		{0, LoadNone}, {1, LoadLight}, {2, LoadLight}, {3, LoadMedium}, {4, LoadMedium}, {5, LoadHeavy},
	}
	for _, tt := range tests {
		if got := LoadLevel(tt.n); got != tt.want {
			t.Errorf("LoadLevel(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestWeekStart(t *testing.T) {
	sunday := time.Date(2026, 3, 8, 20, 0, 0, 0, time.UTC)
	tests := []struct {
		now    time.Time
		offset int
		want   time.Time
	}{
		{now, 0, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{sunday, 0, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{now, 1, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)},
		{now, -1, time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := WeekStart(tt.now, tt.offset); !got.Equal(tt.want) {
			t.Errorf("WeekStart(%v, %d) = %v, want %v", tt.now, tt.offset, got, tt.want)
		}
	}
}

func TestWeek(t *testing.T) {
	s := state()
	days := Week(s.Tasks, now, 0)
	if len(days) != 7 {
		t.Fatalf("len(days) = %d", len(days))
	}
	if !days[0].IsToday || days[1].IsToday {
		t.Error("Monday should be today")
	}
	if ids(days[0].Tasks) != "e" || ids(days[1].Tasks) != "a" || ids(days[4].Tasks) != "g" {
		t.Errorf("days = [%s] [%s] [%s]", ids(days[0].Tasks), ids(days[1].Tasks), ids(days[4].Tasks))
	}
	if days[0].Load != LoadLight || days[2].Load != LoadNone {
		t.Errorf("loads = %q %q", days[0].Load, days[2].Load)
	}
	if got := WeekRange(days); got != "2 - 8 Mar" {
		t.Errorf("WeekRange = %q", got)
	}

	prev := Week(s.Tasks, now, -1)
	if ids(prev[5].Tasks) != "b" {
		t.Errorf("previous Saturday = [%s], want b", ids(prev[5].Tasks))
	}
	cross := Week(nil, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), 0)
	if got := WeekRange(cross); got != "30 Mar - 5 Apr" {
		t.Errorf("cross-month WeekRange = %q", got)
	}
}

func TestSanitizeColor(t *testing.T) {
	if SanitizeColor("#abc", "#000") != "#abc" {
		t.Error("valid colour replaced")
	}
	if SanitizeColor("red;drop", "#000") != "#000" {
		t.Error("invalid colour kept")
	}
}

func TestWriteMarkdown(t *testing.T) {
	s := state()
	s.Tasks[0].Description = strPtr("questions *1-10*")
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, s, ExportOptions{GroupBy: BySubject, Now: now, Notes: true}); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# My tasks\n",
		"_Monday, 2 March_",
		"## Math (2)",
		"- [ ] **!!!** Problem set  [Assigned] due tomorrow",
		"  > _questions \\*1-10\\*_",
		"- [ ] Reading  [Assigned]",
		"## No subject (3)",
		"## Notes",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "Quiz") {
		t.Error("done task exported")
	}
	if strings.Contains(out, "[Math]") {
		t.Error("subject repeated in subject grouping")
	}
}

func TestWriteMarkdown_ByDeadlineShowsSubject(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, state(), ExportOptions{Title: "Week 10", GroupBy: ByDeadline, Now: now}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "# Week 10") || !strings.Contains(out, "## Overdue (1)") {
		t.Errorf("unexpected export:\n%s", out)
	}
	if !strings.Contains(out, "Lab report  [physics] [In Progress]\n") {
		t.Errorf("deadline grouping should list subject and column without date:\n%s", out)
	}
}
