// Package notify sends deadline reminders for tasks that are about to fall
// due. Users opt in through their settings; each (task, deadline) pair is
// announced at most once per user.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zulandar/studyflow/internal/logging"
	"github.com/zulandar/studyflow/internal/models"
	"github.com/zulandar/studyflow/internal/ordering"
	"github.com/zulandar/studyflow/internal/taskview"
)

// Field is a labelled value shown alongside a reminder.
type Field struct {
	Name  string
	Value string
	Short bool
}

// Message is a rendered reminder, ready for any Sender.
type Message struct {
	Title  string
	Body   string
	Color  string
	Fields []Field

	Reminder Reminder
}

// Text renders the message as plain text.
func (m Message) Text() string {
	var b strings.Builder
	b.WriteString(m.Title)
	if m.Body != "" {
		b.WriteString("\n")
		b.WriteString(m.Body)
	}
	for _, f := range m.Fields {
		fmt.Fprintf(&b, "\n%s: %s", f.Name, f.Value)
	}
	return b.String()
}

// Sender delivers a reminder to one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Reminder is one task whose deadline falls inside a user's lead time.
type Reminder struct {
	UserID      string
	BoardID     string
	BoardTitle  string
	ColumnTitle string
	SubjectName string
	Task        models.Task
}

// Format renders a reminder relative to now.
func Format(r Reminder, now time.Time) Message {
	due := *r.Task.Deadline
	msg := Message{
		Title:    fmt.Sprintf("%s is due %s", r.Task.Title, taskview.PrintDeadline(&due, now)),
		Color:    "#f97316",
		Reminder: r,
	}
	if r.Task.Description != nil {
		msg.Body = *r.Task.Description
	}
	if due.Sub(now) <= 6*time.Hour {
		msg.Color = "#ef4444"
	}
	msg.Fields = append(msg.Fields, Field{Name: "Board", Value: r.BoardTitle, Short: true})
	if r.SubjectName != "" {
		msg.Fields = append(msg.Fields, Field{Name: "Subject", Value: r.SubjectName, Short: true})
	}
	msg.Fields = append(msg.Fields,
		Field{Name: "Column", Value: r.ColumnTitle, Short: true},
		Field{Name: "Priority", Value: string(r.Task.Priority), Short: true},
		Field{Name: "Deadline", Value: due.In(now.Location()).Format("Mon, 2 Jan 15:04"), Short: false},
	)
	return msg
}

// Notifier finds due reminders and hands them to every configured sender.
type Notifier struct {
	db      *gorm.DB
	senders []Sender
	log     log.FieldLogger
	now     func() time.Time
}

// Option customises a Notifier.
type Option func(*Notifier)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

// New returns a Notifier reading from db.
func New(db *gorm.DB, senders []Sender, logger log.FieldLogger, opts ...Option) *Notifier {
	n := &Notifier{
		db:      db,
		senders: senders,
		log:     logging.OrDiscard(logger),
		now:     time.Now,
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Senders returns the names of the configured senders.
func (n *Notifier) Senders() []string {
	names := make([]string, len(n.senders))
	for i, s := range n.senders {
		names[i] = s.Name()
	}
	return names
}

type dueRow struct {
	models.Task `gorm:"embedded"`
	BoardID     string
	BoardTitle  string
	ColumnTitle string
	SubjectName *string
}

// Due returns the reminders that have not been sent yet: for every user with
// notifications enabled, the open tasks on boards they own or belong to
// whose deadline lies within their lead time.
func (n *Notifier) Due(ctx context.Context) ([]Reminder, error) {
	var users []models.UserSettings
	if err := n.db.WithContext(ctx).Where("notifications_enabled = ?", true).Order("user_id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("notify: list settings: %w", err)
	}
	now := n.now()
	var out []Reminder
	for _, us := range users {
		rems, err := n.dueFor(ctx, us, now)
		if err != nil {
			return nil, err
		}
		out = append(out, rems...)
	}
	return out, nil
}

func (n *Notifier) dueFor(ctx context.Context, us models.UserSettings, now time.Time) ([]Reminder, error) {
	hours := us.HoursBeforeDeadline
	if hours <= 0 {
		hours = 24
	}
	var rows []dueRow
	err := n.db.WithContext(ctx).Table("tasks").
		Select("tasks.*, boards.id AS board_id, boards.title AS board_title, columns.title AS column_title, subjects.name AS subject_name").
		Joins("JOIN columns ON columns.id = tasks.column_id").
		Joins("JOIN boards ON boards.id = columns.board_id").
		Joins("LEFT JOIN subjects ON subjects.id = tasks.subject_id").
		Where("tasks.deadline IS NOT NULL AND tasks.deadline > ? AND tasks.deadline <= ?", now, now.Add(time.Duration(hours)*time.Hour)).
		Where("tasks.completed_at IS NULL AND columns.position <> ?", ordering.SlotDone.Position()).
		Where("(boards.user_id = ? OR EXISTS (SELECT 1 FROM board_members bm WHERE bm.board_id = boards.id AND bm.user_id = ?))", us.UserID, us.UserID).
		Order("tasks.deadline").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("notify: due tasks of %s: %w", us.UserID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.Task.ID
	}
	var logs []models.ReminderLog
	if err := n.db.WithContext(ctx).Where("user_id = ? AND task_id IN ?", us.UserID, ids).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("notify: reminder log of %s: %w", us.UserID, err)
	}
	sent := make(map[string][]time.Time, len(logs))
	for _, l := range logs {
		sent[l.TaskID] = append(sent[l.TaskID], l.Deadline)
	}

	var out []Reminder
	for _, r := range rows {
		if alreadySent(sent[r.Task.ID], *r.Task.Deadline) {
			continue
		}
		rem := Reminder{
			UserID:      us.UserID,
			BoardID:     r.BoardID,
			BoardTitle:  r.BoardTitle,
			ColumnTitle: r.ColumnTitle,
			Task:        r.Task,
		}
		if r.SubjectName != nil {
			rem.SubjectName = *r.SubjectName
		}
		out = append(out, rem)
	}
	return out, nil
}

func alreadySent(deadlines []time.Time, d time.Time) bool {
	for _, s := range deadlines {
		if s.Equal(d) {
			return true
		}
	}
	return false
}

// Run sends every due reminder through all senders and records the ones at
// least one sender accepted. It returns the number of reminders delivered and
// the joined sender errors.
func (n *Notifier) Run(ctx context.Context) (int, error) {
	if len(n.senders) == 0 {
		return 0, nil
	}
	rems, err := n.Due(ctx)
	if err != nil {
		return 0, err
	}
	now := n.now()
	var errs []error
	delivered := 0
	for _, rem := range rems {
		msg := Format(rem, now)
		ok := false
		for _, s := range n.senders {
			if err := s.Send(ctx, msg); err != nil {
				n.log.WithError(err).WithFields(log.Fields{
					"sender": s.Name(),
					"task":   rem.Task.ID,
					"user":   rem.UserID,
				}).Warn("notify: send reminder")
				errs = append(errs, fmt.Errorf("notify: %s: %w", s.Name(), err))
				continue
			}
			ok = true
		}
		if !ok {
			continue
		}
		entry := models.ReminderLog{
			TaskID:   rem.Task.ID,
			UserID:   rem.UserID,
			Deadline: *rem.Task.Deadline,
			SentAt:   now,
		}
		if err := n.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error; err != nil {
			return delivered, fmt.Errorf("notify: record reminder %s: %w", rem.Task.ID, err)
		}
		delivered++
		n.log.WithFields(log.Fields{"task": rem.Task.ID, "user": rem.UserID}).Info("notify: reminder sent")
	}
	return delivered, errors.Join(errs...)
}
