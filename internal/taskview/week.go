package taskview

import (
	"fmt"
	"time"

	"github.com/zulandar/studyflow/internal/models"
)

// Load is how busy a day is.
type Load string

const (
	LoadNone   Load = ""
	LoadLight  Load = "light"
	LoadMedium Load = "medium"
	LoadHeavy  Load = "heavy"
)

// LoadLevel grades a day by its number of tasks: up to 2 is light, up to 4
// medium, more is heavy.
func LoadLevel(count int) Load {
	switch {
	case count <= 0:
		return LoadNone
	case count <= 2:
		return LoadLight
	case count <= 4:
		return LoadMedium
	}
	return LoadHeavy
}

// Day is one calendar day of a week view.
type Day struct {
	Date    time.Time     `json:"date"`
	IsToday bool          `json:"is_today"`
	Load    Load          `json:"load"`
	Tasks   []models.Task `json:"tasks"`
}

// WeekStart returns midnight of the Monday of now's week, shifted by offset
// weeks.
func WeekStart(now time.Time, offset int) time.Time {
	today := startOfDay(now)
	sinceMonday := (int(today.Weekday()) + 6) % 7
	return today.AddDate(0, 0, -sinceMonday+7*offset)
}

// Week lays the dated tasks out over the seven days of a week. Tasks keep
// their input order within a day.
func Week(tasks []models.Task, now time.Time, offset int) []Day {
	start := WeekStart(now, offset)
	today := startOfDay(now)
	days := make([]Day, 7)
	for i := range days {
		days[i].Date = start.AddDate(0, 0, i)
		days[i].IsToday = days[i].Date.Equal(today)
	}
	for _, t := range tasks {
		if t.Deadline == nil {
			continue
		}
		d := startOfDay(t.Deadline.In(now.Location()))
		for i := range days {
			if days[i].Date.Equal(d) {
				days[i].Tasks = append(days[i].Tasks, t)
				break
			}
		}
	}
	for i := range days {
		days[i].Load = LoadLevel(len(days[i].Tasks))
	}
	return days
}

// WeekRange labels a week: "2 - 8 Mar" within a month, "30 Mar - 5 Apr"
// across two.
func WeekRange(days []Day) string {
	if len(days) == 0 {
		return ""
	}
	start, end := days[0].Date, days[len(days)-1].Date
	if start.Month() == end.Month() {
		return fmt.Sprintf("%d - %s", start.Day(), end.Format("2 Jan"))
	}
	return fmt.Sprintf("%s - %s", start.Format("2 Jan"), end.Format("2 Jan"))
}
