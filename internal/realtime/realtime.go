// Package realtime delivers row-level change events for boards.
//
// A Feed fans out Events published by the store to every subscriber whose
// Filter matches. Each subscription receives its events in publish order on
// its own goroutine.
package realtime

import (
	"context"
	"errors"
	"slices"

	"github.com/zulandar/studyflow/internal/record"
)

// Kind is the type of row change.
type Kind string

const (
	KindInsert Kind = "INSERT"
	KindUpdate Kind = "UPDATE"
	KindDelete Kind = "DELETE"
)

// Table names a watched table.
type Table string

const (
	TableTasks    Table = "tasks"
	TableColumns  Table = "columns"
	TableSubjects Table = "subjects"
)

// ErrClosed is returned by a feed that has been shut down.
var ErrClosed = errors.New("realtime: feed closed")

// Event is one row change. Record holds the new row for inserts and updates
// and the old row for deletes.
type Event struct {
	Kind    Kind          `json:"kind"`
	Table   Table         `json:"table"`
	BoardID string        `json:"board_id,omitempty"`
	Record  record.Record `json:"record"`
	OldID   string        `json:"old_id,omitempty"`
}

// ID returns the affected row's ID.
func (e Event) ID() string {
	if e.OldID != "" {
		return e.OldID
	}
	return e.Record.ID()
}

// Filter selects events for one subscription. Task events match on their
// column_id against ColumnIDs; column and subject events match on BoardID.
type Filter struct {
	Table     Table
	BoardID   string
	ColumnIDs []string
}

// Match reports whether ev passes the filter.
func (f Filter) Match(ev Event) bool {
	if ev.Table != f.Table {
		return false
	}
	switch f.Table {
	case TableTasks:
		col, _ := ev.Record["column_id"].(string)
		return slices.Contains(f.ColumnIDs, col)
	default:
		board, _ := ev.Record["board_id"].(string)
		if board == "" {
			board = ev.BoardID
		}
		return board == f.BoardID
	}
}

// Handler receives matching events.
type Handler func(Event)

// Unsubscribe stops delivery. It is safe to call more than once.
type Unsubscribe func()

// Feed is a change feed.
type Feed interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Unsubscribe, error)
}
