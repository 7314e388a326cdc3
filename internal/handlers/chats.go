package handlers

import (
	"obrolin/server/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SendMessageBody represents send message request body
type SendMessageBody struct {
	Content string `json:"content"`
}

// GetChats returns all chats for the current user, most recent first
func GetChats(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	chats, err := messaging.ListChats(c.Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	if chats == nil {
		chats = []models.ChatSummary{}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    chats,
	})
}

// GetMessages returns the full ordered message log of a chat
func GetMessages(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	chatID := c.Params("chatId")

	messages, err := messaging.GetMessages(c.Context(), userID, chatID)
	if err != nil {
		return serviceError(c, err)
	}
	if messages == nil {
		messages = []models.Message{}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    messages,
	})
}

// SendMessage sends a text message to a contact, creating the chat on
// first message if needed
func SendMessage(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	otherUserID := c.Params("userId")

	var body SendMessageBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	chatID, err := messaging.SendText(c.Context(), userID, otherUserID, body.Content)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"chatId": chatID,
		},
	})
}

// SendImage uploads an image and appends it as a message to the chat
func SendImage(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	chatID := c.Params("chatId")

	// Check chat access before touching disk so a denied send never
	// leaves an orphan file in the upload directory
	if err := messaging.CanPost(c.Context(), userID, chatID); err != nil {
		return serviceError(c, err)
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "No image uploaded",
		})
	}

	if file.Size > 5*1024*1024 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Image size exceeds limit of 5MB",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to read image",
		})
	}
	defer src.Close()

	ref, err := blobs.Save(file.Filename, src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	message, err := messaging.SendImage(c.Context(), userID, chatID, ref.URL)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    message,
	})
}
