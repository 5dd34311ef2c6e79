package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/zulandar/studyflow/internal/logging"
)

// RedisFeed is a Feed backed by Redis pub/sub. Every table has its own
// channel; subscribers filter on the client side.
type RedisFeed struct {
	rc     *redis.Client
	prefix string
	log    log.FieldLogger
}

// NewRedisFeed wraps rc. Channels are named "<prefix>:<table>".
func NewRedisFeed(rc *redis.Client, prefix string, logger log.FieldLogger) *RedisFeed {
	return &RedisFeed{rc: rc, prefix: prefix, log: logging.OrDiscard(logger)}
}

// Channel returns the pub/sub channel for table.
func (f *RedisFeed) Channel(table Table) string {
	return f.prefix + ":" + string(table)
}

// Publish sends ev as JSON on its table channel.
func (f *RedisFeed) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("realtime: marshal %s event: %w", ev.Table, err)
	}
	if err := f.rc.Publish(ctx, f.Channel(ev.Table), payload).Err(); err != nil {
		return fmt.Errorf("realtime: publish %s event: %w", ev.Table, err)
	}
	return nil
}

// Subscribe listens on the filter's table channel. It returns once Redis has
// confirmed the subscription so no event published afterwards is missed.
func (f *RedisFeed) Subscribe(ctx context.Context, filter Filter, handler Handler) (Unsubscribe, error) {
	channel := f.Channel(filter.Table)
	sub := f.rc.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("realtime: subscribe %s: %w", channel, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					f.log.WithError(err).WithField("channel", channel).Error("realtime: unable to parse event")
					continue
				}
				if filter.Match(ev) {
					handler(ev)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			_ = sub.Close()
		})
	}, nil
}
