// Package taskview derives read-only views of a board: the sorted and
// grouped task lists used for printing and export, deadline labels, and the
// calendar week.
package taskview

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/zulandar/studyflow/internal/board"
	"github.com/zulandar/studyflow/internal/models"
)

// GroupBy selects how tasks are grouped.
type GroupBy string

const (
	BySubject  GroupBy = "subject"
	ByDeadline GroupBy = "deadline"
	ByColumn   GroupBy = "column"
)

// ParseGroupBy maps s onto a GroupBy. Unknown values fall back to subject.
func ParseGroupBy(s string) GroupBy {
	switch g := GroupBy(s); g {
	case BySubject, ByDeadline, ByColumn:
		return g
	}
	return BySubject
}

// Group is one titled section of tasks.
type Group struct {
	Key   string        `json:"key"`
	Label string        `json:"label"`
	Color string        `json:"color,omitempty"`
	Tasks []models.Task `json:"tasks"`
}

// Deadline bucket keys and colours.
const (
	KeyOverdue  = "overdue"
	KeyToday    = "today"
	KeyTomorrow = "tomorrow"
	KeyWeek     = "week"
	KeyLater    = "later"
	KeyNone     = "none"
)

var deadlineBuckets = []struct{ key, label, color string }{
	{KeyOverdue, "Overdue", "#ef4444"},
	{KeyToday, "Today", "#f97316"},
	{KeyTomorrow, "Tomorrow", "#eab308"},
	{KeyWeek, "This week", "#22c55e"},
	{KeyLater, "Later", "#3b82f6"},
	{KeyNone, "No deadline", ""},
}

// NoSubjectLabel heads the group of tasks without a subject.
const NoSubjectLabel = "No subject"

// Incomplete drops the tasks resting in the done column. Without a done
// column every task is returned.
func Incomplete(tasks []models.Task, columns []models.Column) []models.Task {
	var doneID string
	for _, c := range columns {
		if c.Position == 2 {
			doneID = c.ID
		}
	}
	if doneID == "" {
		return tasks
	}
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ColumnID != doneID {
			out = append(out, t)
		}
	}
	return out
}

// Sort returns tasks ordered by deadline, earliest first, with undated
// tasks last; ties are ordered high, medium, low priority.
func Sort(tasks []models.Task) []models.Task {
	out := append([]models.Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Deadline != nil && b.Deadline != nil:
			if !a.Deadline.Equal(*b.Deadline) {
				return a.Deadline.Before(*b.Deadline)
			}
		case a.Deadline != nil:
			return true
		case b.Deadline != nil:
			return false
		}
		return a.Priority.Rank() < b.Priority.Rank()
	})
	return out
}

// GroupBySubject groups tasks by subject, sorted by subject name, with the
// unassigned group last. Empty groups are left out.
func GroupBySubject(tasks []models.Task, subjects []models.Subject) []Group {
	index := make(map[string]int, len(subjects))
	groups := make([]Group, 0, len(subjects)+1)
	for _, s := range subjects {
		index[s.ID] = len(groups)
		g := Group{Key: s.ID, Label: s.Name}
		if s.Color != nil {
			g.Color = *s.Color
		}
		groups = append(groups, g)
	}
	none := Group{Key: KeyNone, Label: NoSubjectLabel}
	for _, t := range tasks {
		if t.SubjectID != nil {
			if i, ok := index[*t.SubjectID]; ok {
				groups[i].Tasks = append(groups[i].Tasks, t)
				continue
			}
		}
		none.Tasks = append(none.Tasks, t)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return strings.ToLower(groups[i].Label) < strings.ToLower(groups[j].Label)
	})
	groups = append(groups, none)
	return compact(groups)
}

// GroupByColumn groups tasks by the intake, in-progress and repeat columns,
// in that order. Done tasks are not listed.
func GroupByColumn(tasks []models.Task, columns []models.Column) []Group {
	var groups []Group
	for _, pos := range []int{0, 1, 3} {
		for _, c := range columns {
			if c.Position != pos {
				continue
			}
			g := Group{Key: c.ID, Label: c.Title}
			for _, t := range tasks {
				if t.ColumnID == c.ID {
					g.Tasks = append(g.Tasks, t)
				}
			}
			groups = append(groups, g)
		}
	}
	return compact(groups)
}

// GroupByDeadline buckets tasks relative to the calendar day of now.
func GroupByDeadline(tasks []models.Task, now time.Time) []Group {
	buckets := make(map[string][]models.Task)
	for _, t := range tasks {
		k := bucket(t.Deadline, now)
		buckets[k] = append(buckets[k], t)
	}
	groups := make([]Group, 0, len(deadlineBuckets))
	for _, b := range deadlineBuckets {
		groups = append(groups, Group{Key: b.key, Label: b.label, Color: b.color, Tasks: buckets[b.key]})
	}
	return compact(groups)
}

func bucket(deadline *time.Time, now time.Time) string {
	if deadline == nil {
		return KeyNone
	}
	today := startOfDay(now)
	day := startOfDay(deadline.In(now.Location()))
	switch {
	case day.Before(today):
		return KeyOverdue
	case day.Equal(today):
		return KeyToday
	case day.Equal(today.AddDate(0, 0, 1)):
		return KeyTomorrow
	case day.Before(today.AddDate(0, 0, 7)):
		return KeyWeek
	}
	return KeyLater
}

// compact sorts each group's tasks and drops empty groups.
func compact(groups []Group) []Group {
	out := groups[:0]
	for _, g := range groups {
		if len(g.Tasks) == 0 {
			continue
		}
		g.Tasks = Sort(g.Tasks)
		out = append(out, g)
	}
	return out
}

// Grouped returns the incomplete tasks of s grouped by by.
func Grouped(s board.State, by GroupBy, now time.Time) []Group {
	tasks := Incomplete(s.Tasks, s.Columns)
	switch by {
	case ByDeadline:
		return GroupByDeadline(tasks, now)
	case ByColumn:
		return GroupByColumn(tasks, s.Columns)
	}
	return GroupBySubject(tasks, s.Subjects)
}

// PriorityMarker returns "!!!" for high, "!!" for medium and "" for low.
func PriorityMarker(p models.Priority) string {
	switch p {
	case models.PriorityHigh:
		return "!!!"
	case models.PriorityMedium:
		return "!!"
	}
	return ""
}

// DeadlineLabel describes a deadline relative to now, as shown on a card:
// "overdue 2 days", "today", "tomorrow", "in 5 days" or a date beyond a week.
func DeadlineLabel(deadline, now time.Time) string {
	days := int(math.Ceil(deadline.Sub(now).Hours() / 24))
	switch {
	case days < 0:
		return fmt.Sprintf("overdue %s", plural(-days, "day"))
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days <= 7:
		return fmt.Sprintf("in %s", plural(days, "day"))
	}
	return deadline.In(now.Location()).Format("2 Jan")
}

// PrintDeadline describes a deadline by calendar day: "today", "tomorrow"
// or a short weekday and date.
func PrintDeadline(deadline *time.Time, now time.Time) string {
	if deadline == nil {
		return ""
	}
	d := deadline.In(now.Location())
	day, today := startOfDay(d), startOfDay(now)
	switch {
	case day.Equal(today):
		return "today"
	case day.Equal(today.AddDate(0, 0, 1)):
		return "tomorrow"
	}
	return d.Format("Mon, 2 Jan")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SanitizeColor returns c when it is a hex colour, fallback otherwise.
func SanitizeColor(c, fallback string) string {
	if models.IsHexColor(c) {
		return c
	}
	return fallback
}
