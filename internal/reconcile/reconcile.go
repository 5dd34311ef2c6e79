// Package reconcile keeps an open board in step with the realtime feed.
//
// Remote inserts, updates and deletes are applied to the board container
// idempotently: an insert of a known row and a delete of an unknown row are
// ignored, and an update replaces the whole row. Rows that fail to map are
// logged and dropped.
package reconcile

import (
	"context"
	"fmt"
	"slices"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/zulandar/studyflow/internal/board"
	"github.com/zulandar/studyflow/internal/logging"
	"github.com/zulandar/studyflow/internal/realtime"
	"github.com/zulandar/studyflow/internal/record"
)

// Source opens change subscriptions for one board.
type Source interface {
	SubscribeToTaskChanges(ctx context.Context, columnIDs []string, onChange realtime.Handler) (realtime.Unsubscribe, error)
	SubscribeToColumnChanges(ctx context.Context, boardID string, onChange realtime.Handler) (realtime.Unsubscribe, error)
	SubscribeToSubjectChanges(ctx context.Context, boardID string, onChange realtime.Handler) (realtime.Unsubscribe, error)
}

// Reconciler applies feed events for one board to its container.
type Reconciler struct {
	board *board.Container
	src   Source
	log   log.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	closed     bool
	columnIDs  []string
	taskUnsub  realtime.Unsubscribe
	otherUnsub []realtime.Unsubscribe
	stopListen func()
}

// Start subscribes to task, column and subject changes of the container's
// board. The task subscription follows the board's column set.
func Start(ctx context.Context, c *board.Container, src Source, logger log.FieldLogger) (*Reconciler, error) {
	ctx, cancel := context.WithCancel(ctx)
	r := &Reconciler{
		board:  c,
		src:    src,
		log:    logging.OrDiscard(logger),
		ctx:    ctx,
		cancel: cancel,
	}
	s := c.Snapshot()
	boardID := s.Board.ID

	colUnsub, err := src.SubscribeToColumnChanges(ctx, boardID, r.Apply)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("reconcile: subscribe columns of %s: %w", boardID, err)
	}
	r.otherUnsub = append(r.otherUnsub, colUnsub)

	subjUnsub, err := src.SubscribeToSubjectChanges(ctx, boardID, r.Apply)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("reconcile: subscribe subjects of %s: %w", boardID, err)
	}
	r.mu.Lock()
	r.otherUnsub = append(r.otherUnsub, subjUnsub)
	r.mu.Unlock()

	if err := r.resubscribeTasks(s.ColumnIDs()); err != nil {
		r.Close()
		return nil, err
	}

	stop := c.Subscribe(func(next board.State) {
		if err := r.resubscribeTasks(next.ColumnIDs()); err != nil {
			r.log.WithError(err).WithField("board_id", boardID).Error("reconcile: task resubscribe failed")
		}
	})
	r.mu.Lock()
	r.stopListen = stop
	r.mu.Unlock()

	r.log.WithFields(log.Fields{"board_id": boardID, "columns": len(s.Columns)}).Debug("reconcile: started")
	return r, nil
}

// resubscribeTasks replaces the task subscription when the column set
// differs from the one currently watched.
func (r *Reconciler) resubscribeTasks(columnIDs []string) error {
	sorted := slices.Clone(columnIDs)
	slices.Sort(sorted)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	if r.taskUnsub != nil && slices.Equal(sorted, r.columnIDs) {
		return nil
	}
	if r.taskUnsub != nil {
		r.taskUnsub()
		r.taskUnsub = nil
	}
	unsub, err := r.src.SubscribeToTaskChanges(r.ctx, sorted, r.Apply)
	if err != nil {
		return fmt.Errorf("reconcile: subscribe tasks: %w", err)
	}
	r.taskUnsub = unsub
	r.columnIDs = sorted
	return nil
}

// Watching returns the sorted column IDs the task subscription covers.
func (r *Reconciler) Watching() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.columnIDs)
}

// Apply reconciles one event into the board. It is the handler registered
// with every subscription.
func (r *Reconciler) Apply(ev realtime.Event) {
	action, err := toAction(ev)
	if err != nil {
		r.log.WithError(err).WithFields(log.Fields{
			"table": ev.Table,
			"kind":  ev.Kind,
			"id":    ev.ID(),
		}).Error("reconcile: dropping event")
		return
	}
	if action == nil {
		return
	}
	if r.board.Dispatch(action) {
		r.log.WithFields(log.Fields{"table": ev.Table, "kind": ev.Kind, "id": ev.ID()}).Debug("reconcile: applied")
	}
}

func toAction(ev realtime.Event) (board.Action, error) {
	if ev.Kind == realtime.KindDelete {
		id := ev.ID()
		if id == "" {
			return nil, fmt.Errorf("%w: delete without id", record.ErrMalformed)
		}
		switch ev.Table {
		case realtime.TableTasks:
			return board.RemoveTask{ID: id}, nil
		case realtime.TableColumns:
			return board.RemoveColumn{ID: id}, nil
		case realtime.TableSubjects:
			return board.RemoveSubject{ID: id}, nil
		}
		return nil, fmt.Errorf("reconcile: unknown table %q", ev.Table)
	}

	insert := ev.Kind == realtime.KindInsert
	if !insert && ev.Kind != realtime.KindUpdate {
		return nil, fmt.Errorf("reconcile: unknown event kind %q", ev.Kind)
	}
	switch ev.Table {
	case realtime.TableTasks:
		t, err := record.Task(ev.Record)
		if err != nil {
			return nil, err
		}
		if insert {
			return board.InsertTask{Task: t}, nil
		}
		return board.ReplaceTask{Task: t}, nil
	case realtime.TableColumns:
		c, err := record.Column(ev.Record)
		if err != nil {
			return nil, err
		}
		if insert {
			return board.InsertColumn{Column: c}, nil
		}
		return board.ReplaceColumn{Column: c}, nil
	case realtime.TableSubjects:
		s, err := record.Subject(ev.Record)
		if err != nil {
			return nil, err
		}
		if insert {
			return board.InsertSubject{Subject: s}, nil
		}
		return board.ReplaceSubject{Subject: s}, nil
	}
	return nil, fmt.Errorf("reconcile: unknown table %q", ev.Table)
}

// Close ends every subscription. It is safe to call more than once.
func (r *Reconciler) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	unsubs := slices.Clone(r.otherUnsub)
	if r.taskUnsub != nil {
		unsubs = append(unsubs, r.taskUnsub)
	}
	stop := r.stopListen
	r.taskUnsub, r.otherUnsub, r.stopListen = nil, nil, nil
	r.mu.Unlock()

	if stop != nil {
		stop()
	}
	for _, u := range unsubs {
		u()
	}
	r.cancel()
}
