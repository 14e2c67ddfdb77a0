package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"letscode/internal/domain/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Broadcaster fans announcements out over a Redis pub/sub channel. Publish
// returns once Redis accepted the message; subscriber delivery is not tracked.
type Broadcaster struct {
	rdb     *redis.Client
	channel string
}

func NewBroadcaster(rdb *redis.Client, channel string) *Broadcaster {
	return &Broadcaster{rdb: rdb, channel: channel}
}

func (b *Broadcaster) Notify(ctx context.Context, n model.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", b.channel, err)
	}
	return nil
}

// Subscribe streams announcements until ctx is done. The returned channel is
// closed when the subscription ends.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan model.Notification, error) {
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", b.channel, err)
	}

	out := make(chan model.Notification)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var n model.Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					log.Warn().Err(err).Str("channel", b.channel).Msg("Dropping malformed notification")
					continue
				}
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
