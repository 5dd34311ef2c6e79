package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/zulandar/studyflow/internal/realtime"
	"github.com/zulandar/studyflow/internal/store"
)

// handleEvents streams the board's row changes as server-sent events. The
// task subscription follows the board's column set.
func (s *server) handleEvents(c *gin.Context) {
	boardID := c.Param("id")
	if _, ok := s.authorize(c, boardID, nil); !ok {
		return
	}
	ctx := c.Request.Context()
	cols, err := s.store.GetColumns(ctx, boardID)
	if err != nil {
		s.fail(c, err)
		return
	}
	ids := make([]string, len(cols))
	for i, col := range cols {
		ids[i] = col.ID
	}

	events := make(chan realtime.Event, 64)
	w, err := watchBoard(ctx, s.store, boardID, ids, events, s.log)
	if err != nil {
		s.fail(c, err)
		return
	}
	defer w.close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	writeSSE(c.Writer, "connected", gin.H{"board_id": boardID})
	c.Writer.Flush()

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			writeSSE(c.Writer, "heartbeat", gin.H{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			c.Writer.Flush()
		case ev := <-events:
			writeSSE(c.Writer, "change", ev)
			c.Writer.Flush()
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}

// boardWatch forwards one board's feed events to a channel.
type boardWatch struct {
	st  *store.Store
	ctx context.Context
	out chan<- realtime.Event
	log log.FieldLogger

	mu        sync.Mutex
	closed    bool
	columnIDs []string
	taskUnsub realtime.Unsubscribe
	unsubs    []realtime.Unsubscribe
}

func watchBoard(ctx context.Context, st *store.Store, boardID string, columnIDs []string, out chan<- realtime.Event, logger log.FieldLogger) (*boardWatch, error) {
	w := &boardWatch{st: st, ctx: ctx, out: out, log: logger, columnIDs: columnIDs}

	unsub, err := st.SubscribeToColumnChanges(ctx, boardID, w.onColumn)
	if err != nil {
		return nil, err
	}
	w.unsubs = append(w.unsubs, unsub)
	if unsub, err = st.SubscribeToSubjectChanges(ctx, boardID, w.push); err != nil {
		w.close()
		return nil, err
	}
	w.unsubs = append(w.unsubs, unsub)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.taskUnsub, err = st.SubscribeToTaskChanges(ctx, w.columnIDs, w.push); err != nil {
		w.closeLocked()
		return nil, err
	}
	return w, nil
}

func (w *boardWatch) push(ev realtime.Event) {
	select {
	case w.out <- ev:
	case <-w.ctx.Done():
	}
}

func (w *boardWatch) onColumn(ev realtime.Event) {
	w.push(ev)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	id := ev.ID()
	next := slices.Clone(w.columnIDs)
	switch ev.Kind {
	case realtime.KindInsert:
		if slices.Contains(next, id) {
			return
		}
		next = append(next, id)
	case realtime.KindDelete:
		i := slices.Index(next, id)
		if i < 0 {
			return
		}
		next = slices.Delete(next, i, i+1)
	default:
		return
	}
	unsub, err := w.st.SubscribeToTaskChanges(w.ctx, next, w.push)
	if err != nil {
		w.log.WithError(err).Warn("dashboard: resubscribe to tasks")
		return
	}
	if w.taskUnsub != nil {
		w.taskUnsub()
	}
	w.taskUnsub = unsub
	w.columnIDs = next
}

func (w *boardWatch) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeLocked()
}

func (w *boardWatch) closeLocked() {
	if w.closed {
		return
	}
	w.closed = true
	if w.taskUnsub != nil {
		w.taskUnsub()
	}
	for _, u := range w.unsubs {
		u()
	}
}
