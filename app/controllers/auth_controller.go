package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/reviewpilot/ReviewPilot/app/models"
	"github.com/reviewpilot/ReviewPilot/app/repository"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/security"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/usercontext"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a new user account.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if _, err := repo.GetByEmail(strings.ToLower(req.Email)); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Email already registered"})
	}

	user, err := models.CreateUser(req.Name, strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	if err := repo.Create(user); err != nil {
		log.Errorf("register: create user failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create user"})
	}

	token, err := security.GenerateAuthToken(user.ID, user.Email, user.Role)
	if err != nil {
		log.Errorf("register: token generation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to issue token"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  userResponse(user),
	})
}

// HandleLogin authenticates a user and issues a bearer token.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid credentials"})
		}
		log.Errorf("login: user lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Login failed"})
	}

	if !models.CheckPasswordHash(req.Password, user.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid credentials"})
	}
	if user.Status != models.STATUS_ACTIVE {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Account disabled"})
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := repo.Update(user); err != nil {
		log.Warnf("login: failed to update last login for user %d: %v", user.ID, err)
	}

	token, err := security.GenerateAuthToken(user.ID, user.Email, user.Role)
	if err != nil {
		log.Errorf("login: token generation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to issue token"})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  userResponse(user),
	})
}

// HandleMe returns the authenticated user's profile.
func HandleMe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	repo := repository.GetGlobalFactory().GetUserRepository()

	user, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
	}
	return c.JSON(userResponse(user))
}

func userResponse(user *models.User) fiber.Map {
	return fiber.Map{
		"id":                      user.ID,
		"name":                    user.Name,
		"email":                   user.Email,
		"role":                    user.Role,
		"status":                  user.Status,
		"reply_mode":              user.ReplyMode,
		"ai_provider":             user.AIProvider,
		"ai_configured":           user.AIAPIKey != "",
		"google_connected":        user.HasGoogleConnection(),
		"needs_setup_fee":         user.NeedsSetupFee(),
		"has_active_access":       user.HasActiveAccess(),
		"subscription_active":     user.SubscriptionActive,
		"subscription_expires_at": formatTimePtr(user.SubscriptionExpiresAt),
		"created_at":              user.CreatedAt.UTC().Format(time.RFC3339),
		"last_login_at":           formatTimePtr(user.LastLoginAt),
	}
}
