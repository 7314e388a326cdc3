package routes

import (
	"obrolin/server/internal/handlers"
	"obrolin/server/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health check (public)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Obrolin API is running",
		})
	})

	// Auth + contact-request routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.StrictRateLimiter(), handlers.Signup)
	auth.Post("/login", middleware.StrictRateLimiter(), handlers.Login)
	auth.Get("/me", middleware.AuthMiddleware, handlers.GetMe)
	auth.Get("/available-users", middleware.AuthMiddleware, handlers.AvailableUsers)
	auth.Post("/send-request", middleware.AuthMiddleware, handlers.SendRequest)
	auth.Get("/sent-requests", middleware.AuthMiddleware, handlers.SentRequests)
	auth.Get("/received-requests", middleware.AuthMiddleware, handlers.ReceivedRequests)
	auth.Post("/accept-request", middleware.AuthMiddleware, handlers.AcceptRequest)
	auth.Post("/decline-request", middleware.AuthMiddleware, handlers.DeclineRequest)

	// Chat routes (protected)
	chats := api.Group("/chats", middleware.AuthMiddleware)
	chats.Get("/", handlers.GetChats)
	chats.Get("/:chatId", handlers.GetMessages)
	chats.Post("/:userId/message", handlers.SendMessage)
	chats.Post("/:chatId/image", middleware.UploadRateLimiter(), handlers.SendImage)

	// WebSocket route (protected)
	api.Get("/ws", middleware.AuthMiddleware, handlers.WebSocketUpgrade, websocket.New(handlers.WebSocketHandler))

	// Relay stats (protected, for debugging)
	api.Get("/ws/stats", middleware.AuthMiddleware, handlers.GetRelayStats)
}
