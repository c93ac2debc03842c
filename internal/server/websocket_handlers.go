package server

import (
	"log/slog"

	"shaasam/internal/middleware"
	"shaasam/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const localFeedKey = "feedKey"

// WebSocketUpgrade rejects plain HTTP requests on the feed and stores the
// subscriber key before the upgrade.
func (s *Server) WebSocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return models.RespondWithError(c, fiber.StatusUpgradeRequired,
			models.NewValidationError("WebSocket upgrade required"))
	}
	c.Locals(localFeedKey, middleware.ByAPIKey(c))
	return c.Next()
}

// RequestFeed streams request lifecycle events to agents over a WebSocket.
func (s *Server) RequestFeed() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		key, _ := conn.Locals(localFeedKey).(string)

		sub, err := s.hub.Register(key, conn)
		if err != nil {
			slog.Warn("request feed registration rejected", "subscriber", key, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go sub.WritePump()
		sub.ReadPump()
	})
}
