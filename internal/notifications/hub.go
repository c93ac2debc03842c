package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"shaasam/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxSubscribersPerKey = 8
	maxSubscribers       = 2000
)

// ErrHubClosed is returned by Register after Shutdown.
var ErrHubClosed = errors.New("request hub is shut down")

// RequestHub fans request events out to WebSocket subscribers.
type RequestHub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscriber]struct{}
	total  int
	closed bool
}

// NewRequestHub creates an empty hub.
func NewRequestHub() *RequestHub {
	return &RequestHub{subs: make(map[string]map[*Subscriber]struct{})}
}

// Register adds a subscriber for key. Returns an error when limits are exceeded.
func (h *RequestHub) Register(key string, conn *websocket.Conn) (*Subscriber, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.total >= maxSubscribers {
		return nil, errors.New("server connection limit reached")
	}
	m, ok := h.subs[key]
	if !ok {
		m = make(map[*Subscriber]struct{})
		h.subs[key] = m
	}
	if len(m) >= maxSubscribersPerKey {
		return nil, errors.New("subscriber connection limit reached")
	}

	sub := newSubscriber(h, conn, key)
	m[sub] = struct{}{}
	h.total++
	observability.WebSocketSubscribers.Inc()
	return sub, nil
}

// Unregister removes sub and closes its send channel. Safe to call twice.
func (h *RequestHub) Unregister(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.subs[sub.Key]
	if !ok {
		return
	}
	if _, exists := m[sub]; !exists {
		return
	}
	delete(m, sub)
	if len(m) == 0 {
		delete(h.subs, sub.Key)
	}
	h.total--
	observability.WebSocketSubscribers.Dec()
	close(sub.Send)
}

// Count returns the number of connected subscribers.
func (h *RequestHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// Broadcast queues payload for every subscriber.
func (h *RequestHub) Broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, m := range h.subs {
		for sub := range m {
			sub.TrySend(payload)
		}
	}
}

// StartWiring forwards events published through n to every subscriber.
func (h *RequestHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartRequestSubscriber(ctx, func(payload string) {
		h.Broadcast([]byte(payload))
	})
}

// Shutdown closes every subscriber connection and rejects new ones.
func (h *RequestHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for key, m := range h.subs {
		for sub := range m {
			if sub.Conn != nil {
				if err := sub.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
					slog.Warn("failed to write close message", "subscriber", key, "error", err)
				}
				_ = sub.Conn.Close()
			}
			close(sub.Send)
			observability.WebSocketSubscribers.Dec()
		}
	}
	h.subs = make(map[string]map[*Subscriber]struct{})
	h.total = 0
	return nil
}
