// Package store is the remote persistence boundary of StudyFlow.
//
// Every write runs against the SQL database through GORM and, once committed,
// is echoed as a row change on the realtime feed so that every open board
// (this process or another) can reconcile.
package store

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/zulandar/studyflow/internal/config"
	"github.com/zulandar/studyflow/internal/logging"
	"github.com/zulandar/studyflow/internal/realtime"
	"github.com/zulandar/studyflow/internal/record"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrForbidden is returned when a user has no access to a board.
	ErrForbidden = errors.New("store: forbidden")
	// ErrDuplicate is returned when a unique name is already taken.
	ErrDuplicate = errors.New("store: duplicate")
	// ErrInvalid is returned for rejected input.
	ErrInvalid = errors.New("store: invalid input")
	// ErrOwnerCannotLeave is returned when a board owner tries to leave it.
	ErrOwnerCannotLeave = errors.New("store: owner cannot leave own board")
)

// Store wraps a GORM database and the realtime feed writes are echoed on.
type Store struct {
	db       *gorm.DB
	feed     realtime.Feed
	defaults config.DefaultsConfig
	log      log.FieldLogger
	now      func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a Store. feed may be nil, in which case writes are not echoed.
func New(db *gorm.DB, feed realtime.Feed, defaults config.DefaultsConfig, logger log.FieldLogger, opts ...Option) *Store {
	s := &Store{
		db:       db,
		feed:     feed,
		defaults: defaults,
		log:      logging.OrDiscard(logger),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// DB exposes the underlying connection for read-only queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// publish echoes a committed change. Failures are logged, not returned:
// the write itself already succeeded.
func (s *Store) publish(ctx context.Context, kind realtime.Kind, table realtime.Table, boardID string, row any) {
	if s.feed == nil {
		return
	}
	r, err := record.From(row)
	if err != nil {
		s.log.WithError(err).WithField("table", table).Error("store: build change record")
		return
	}
	ev := realtime.Event{Kind: kind, Table: table, BoardID: boardID, Record: r}
	if kind == realtime.KindDelete {
		ev.OldID = r.ID()
	}
	if err := s.feed.Publish(ctx, ev); err != nil {
		s.log.WithError(err).WithFields(log.Fields{"table": table, "kind": kind, "id": r.ID()}).Warn("store: publish change")
	}
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
