package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/reviewpilot/ReviewPilot/app/models"
	"github.com/reviewpilot/ReviewPilot/app/repository"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/aiprovider"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/usercontext"
)

type replySettingsRequest struct {
	ReplyMode  *string `json:"reply_mode"`
	AIProvider *string `json:"ai_provider"`
	AIAPIKey   *string `json:"ai_api_key"`
}

// HandleUpdateReplySettings updates the user's reply mode and AI config.
func HandleUpdateReplySettings(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req replySettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
	}

	if req.ReplyMode != nil {
		mode := strings.TrimSpace(*req.ReplyMode)
		switch mode {
		case models.REPLY_MODE_MANUAL, models.REPLY_MODE_TEMPLATE, models.REPLY_MODE_AI:
			user.ReplyMode = mode
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid reply mode"})
		}
	}
	if req.AIProvider != nil {
		provider := strings.TrimSpace(*req.AIProvider)
		if provider != "" && !aiprovider.IsSupported(aiprovider.Provider(provider)) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Unsupported AI provider"})
		}
		user.AIProvider = provider
	}
	if req.AIAPIKey != nil {
		user.AIAPIKey = strings.TrimSpace(*req.AIAPIKey)
	}

	if err := repo.Update(user); err != nil {
		log.Errorf("reply settings: update failed for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update settings"})
	}

	return c.JSON(userResponse(user))
}

type profileRequest struct {
	Name *string `json:"name"`
}

// HandleUpdateProfile updates basic profile fields.
func HandleUpdateProfile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if err := user.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	if err := repo.Update(user); err != nil {
		log.Errorf("profile: update failed for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update profile"})
	}

	return c.JSON(userResponse(user))
}
