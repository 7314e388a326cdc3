package handlers

import (
	"obrolin/server/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SendRequestBody represents send request body
type SendRequestBody struct {
	TargetUserID string `json:"targetUserId"`
}

// RequestActionBody represents accept/decline request body
type RequestActionBody struct {
	RequestID string `json:"requestId"`
}

// AvailableUsers returns users the current user can still send a
// contact request to
func AvailableUsers(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	users, err := contacts.ListAvailable(c.Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    users,
	})
}

// SendRequest creates a pending contact request
func SendRequest(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var body SendRequestBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	request, err := contacts.SendRequest(c.Context(), userID, body.TargetUserID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    request,
	})
}

// SentRequests returns the user's outgoing requests
func SentRequests(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	requests, err := contacts.ListSent(c.Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	if requests == nil {
		requests = []models.RequestWithUser{}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    requests,
	})
}

// ReceivedRequests returns the user's incoming requests
func ReceivedRequests(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	requests, err := contacts.ListReceived(c.Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	if requests == nil {
		requests = []models.RequestWithUser{}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    requests,
	})
}

// AcceptRequest accepts a pending request addressed to the user
func AcceptRequest(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var body RequestActionBody
	if err := c.BodyParser(&body); err != nil || body.RequestID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Request ID is required",
		})
	}

	if err := contacts.Accept(c.Context(), userID, body.RequestID); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Request accepted",
	})
}

// DeclineRequest declines a pending request addressed to the user
func DeclineRequest(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var body RequestActionBody
	if err := c.BodyParser(&body); err != nil || body.RequestID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Request ID is required",
		})
	}

	if err := contacts.Decline(c.Context(), userID, body.RequestID); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Request declined",
	})
}
