// Package notifications delivers request lifecycle events to agents.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"

	"shaasam/internal/cache"

	"github.com/redis/go-redis/v9"
)

// RequestEvent is published after every successful lifecycle action.
type RequestEvent struct {
	Event     string `json:"event"`
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
	HumanID   string `json:"humanId"`
}

// Notifier publishes request events into Redis.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishRequestEvent sends evt to the request events channel. Without Redis it is a no-op.
func (n *Notifier) PublishRequestEvent(ctx context.Context, evt RequestEvent) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal request event: %w", err)
	}
	return n.rdb.Publish(ctx, cache.RequestEventsChannel, payload).Err()
}

// StartRequestSubscriber subscribes to the request events channel and calls onMessage
// for each payload until ctx is cancelled.
func (n *Notifier) StartRequestSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, cache.RequestEventsChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", cache.RequestEventsChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							slog.Error("panic in request subscriber", "panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
