package handlers

import (
	"obrolin/server/internal/models"
	"obrolin/server/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// SignupRequest represents registration form fields
type SignupRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Number   string `json:"number" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Signup handles user registration. Accepts multipart form data so the
// profile picture can be uploaded in the same request.
func Signup(c *fiber.Ctx) error {
	req := SignupRequest{
		FullName: c.FormValue("fullName"),
		Number:   c.FormValue("number"),
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
	}

	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Full name, number, email and password (min 6 chars) are required",
		})
	}

	// Check if email already exists
	existing, err := identity.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return serviceError(c, err)
	}
	if existing != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "Email already registered",
		})
	}

	// Hash password
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to hash password",
		})
	}

	// Optional profile picture
	var profilePic *string
	if file, err := c.FormFile("profilePic"); err == nil {
		src, err := file.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Failed to read profile picture",
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
		profilePic = &ref.URL
	}

	user, err := identity.CreateUser(c.Context(), &models.User{
		FullName:   req.FullName,
		Number:     req.Number,
		Email:      req.Email,
		Password:   hashedPassword,
		ProfilePic: profilePic,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create user",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    user.ToResponse(),
	})
}

// Login handles user login
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Email and password are required",
		})
	}

	user, err := identity.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return serviceError(c, err)
	}
	if user == nil || !utils.CheckPassword(user.Password, req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid email or password",
		})
	}

	token, err := utils.GenerateToken(user.ID, user.Email)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to generate token",
		})
	}

	// Set HTTP-Only cookie for the token
	c.Cookie(&fiber.Cookie{
		Name:     "token",
		Value:    token,
		HTTPOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		SameSite: "Lax",
		MaxAge:   604800, // 7 days
	})

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"token": token,
			"user":  user.ToResponse(),
		},
	})
}

// GetMe returns current authenticated user
func GetMe(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	user, err := identity.GetByID(c.Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	if user == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "User not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    user.ToResponse(),
	})
}
