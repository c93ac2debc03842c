package notifications

import (
	"log/slog"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Subscribers only send control frames.
	maxMessageSize = 512

	sendBuffer = 64
)

// Subscriber is one WebSocket connection on the request event feed.
type Subscriber struct {
	hub  *RequestHub
	Conn *websocket.Conn
	Send chan []byte
	// Key identifies the subscribing agent (a hashed API key or remote address).
	Key string
}

func newSubscriber(hub *RequestHub, conn *websocket.Conn, key string) *Subscriber {
	return &Subscriber{
		hub:  hub,
		Conn: conn,
		Key:  key,
		Send: make(chan []byte, sendBuffer),
	}
}

// ReadPump drains inbound frames until the peer goes away, then unregisters.
func (s *Subscriber) ReadPump() {
	defer func() {
		s.hub.Unregister(s)
		_ = s.Conn.Close()
	}()

	s.Conn.SetReadLimit(maxMessageSize)
	_ = s.Conn.SetReadDeadline(time.Now().Add(pongWait))
	s.Conn.SetPongHandler(func(string) error { _ = s.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := s.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("request feed read failed", "subscriber", s.Key, "error", err)
			}
			return
		}
	}
}

// WritePump pumps events from the hub to the connection and keeps it alive with pings.
func (s *Subscriber) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.Send:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues message without blocking. A full buffer drops the message.
func (s *Subscriber) TrySend(message []byte) bool {
	defer func() { _ = recover() }()
	select {
	case s.Send <- message:
		return true
	default:
		slog.Warn("request feed buffer full, dropped event", "subscriber", s.Key)
		return false
	}
}
