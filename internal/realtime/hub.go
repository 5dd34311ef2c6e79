package realtime

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/zulandar/studyflow/internal/logging"
)

const subscriberBuffer = 256

// Hub is an in-process Feed.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	nextID int
	closed bool
	log    log.FieldLogger
}

type subscriber struct {
	filter Filter
	events chan Event
	done   chan struct{}
	once   sync.Once
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

// NewHub returns an empty in-process feed.
func NewHub(logger log.FieldLogger) *Hub {
	return &Hub{
		subs: make(map[int]*subscriber),
		log:  logging.OrDiscard(logger),
	}
}

// Publish queues ev for every matching subscriber without waiting. A
// subscriber whose buffer is full misses ev; the drop is logged.
func (h *Hub) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrClosed
	}
	var targets []*subscriber
	for _, s := range h.subs {
		if s.filter.Match(ev) {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range targets {
		select {
		case s.events <- ev:
		case <-s.done:
		default:
			h.log.WithFields(log.Fields{"table": ev.Table, "kind": ev.Kind, "id": ev.ID()}).Warn("realtime: subscriber lagging, event dropped")
		}
	}
	return nil
}

// Subscribe registers h for events matching f until the returned
// Unsubscribe is called or ctx ends.
func (h *Hub) Subscribe(ctx context.Context, f Filter, handler Handler) (Unsubscribe, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	id := h.nextID
	h.nextID++
	s := &subscriber{
		filter: f,
		events: make(chan Event, subscriberBuffer),
		done:   make(chan struct{}),
	}
	h.subs[id] = s
	h.mu.Unlock()

	h.log.WithFields(log.Fields{"table": f.Table, "board_id": f.BoardID, "columns": len(f.ColumnIDs)}).Debug("realtime: subscribed")

	go func() {
		for {
			select {
			case ev := <-s.events:
				handler(ev)
			case <-s.done:
				return
			case <-ctx.Done():
				h.remove(id)
				return
			}
		}
	}()

	return func() { h.remove(id) }, nil
}

// Close stops every subscription. Further calls to Publish or Subscribe fail
// with ErrClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, s := range h.subs {
		s.stop()
		delete(h.subs, id)
	}
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) remove(id int) {
	h.mu.Lock()
	s, ok := h.subs[id]
	delete(h.subs, id)
	h.mu.Unlock()
	if ok {
		s.stop()
	}
}
