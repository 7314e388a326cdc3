package handlers

import (
	"obrolin/server/internal/relay"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// WebSocketUpgrade checks if the request should be upgraded to WebSocket
func WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}

	return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{
		"success": false,
		"error":   "WebSocket upgrade required",
	})
}

// WebSocketHandler handles WebSocket connections. The session drives
// its room membership itself through join_chat/leave_chat frames.
func WebSocketHandler(c *websocket.Conn) {
	userID := c.Locals("userID").(string)

	session := relay.NewSession(userID, c, hub)
	hub.Register <- session

	go session.WritePump()
	session.ReadPump() // Blocks until the connection closes
}

// GetRelayStats returns relay connection statistics
func GetRelayStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"sessions": hub.SessionCount(),
		},
	})
}
