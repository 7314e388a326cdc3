package main

import (
	"context"
	"log"

	"obrolin/server/internal/blob"
	"obrolin/server/internal/config"
	"obrolin/server/internal/database"
	"obrolin/server/internal/handlers"
	"obrolin/server/internal/relay"
	"obrolin/server/internal/routes"
	"obrolin/server/internal/service"
	"obrolin/server/internal/store"
	"obrolin/server/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	utils.SetJWTSecret(cfg.JWTSecret)

	// Connect to database and apply schema
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Wire stores, services and the relay hub
	identity := store.NewIdentity(pool)
	ledger := store.NewRequests(pool)
	chats := store.NewChats(pool)
	hub := relay.NewRoomHub()

	messaging := service.NewMessaging(identity, chats, hub)
	contacts := service.NewContacts(identity, ledger, messaging)

	blobs, err := blob.NewLocal(cfg.UploadDir)
	if err != nil {
		log.Fatalf("Failed to initialize blob store: %v", err)
	}

	handlers.Init(identity, contacts, messaging, hub, blobs)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName: "Obrolin API v1.0",
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowCredentials: true,
	}))

	// Serve uploaded images
	app.Static("/uploads", cfg.UploadDir)

	// Setup routes
	routes.SetupRoutes(app)

	log.Printf("🚀 Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
