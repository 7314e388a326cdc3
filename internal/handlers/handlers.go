package handlers

import (
	"errors"
	"log"

	"obrolin/server/internal/blob"
	"obrolin/server/internal/relay"
	"obrolin/server/internal/service"
	"obrolin/server/internal/store"

	"github.com/gofiber/fiber/v2"
)

var (
	identity  *store.Identity
	contacts  *service.Contacts
	messaging *service.Messaging
	hub       *relay.RoomHub
	blobs     blob.Store
)

// Init wires the handlers to their collaborators and starts the relay
// hub loop
func Init(id *store.Identity, cs *service.Contacts, ms *service.Messaging, h *relay.RoomHub, bs blob.Store) {
	identity = id
	contacts = cs
	messaging = ms
	hub = h
	blobs = bs

	go hub.Run()
	log.Println("✅ Relay hub initialized")
}

// serviceError maps a service error to its HTTP response
func serviceError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, service.ErrInvalidTarget),
		errors.Is(err, service.ErrSelfMessage),
		errors.Is(err, service.ErrEmptyContent),
		errors.Is(err, service.ErrNoImage):
		status = fiber.StatusBadRequest
	case errors.Is(err, service.ErrDuplicateRequest),
		errors.Is(err, service.ErrAlreadyContacts):
		status = fiber.StatusConflict
	case errors.Is(err, service.ErrNotContacts),
		errors.Is(err, service.ErrAccessDenied):
		status = fiber.StatusForbidden
	case errors.Is(err, service.ErrUnavailable):
		status = fiber.StatusServiceUnavailable
	}

	if status == fiber.StatusInternalServerError || status == fiber.StatusServiceUnavailable {
		log.Printf("%s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}
