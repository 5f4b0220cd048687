package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/reviewpilot/ReviewPilot/app/models"
	"github.com/reviewpilot/ReviewPilot/app/repository"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/aiprovider"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/googlebusiness"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/replygen"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/usercontext"
)

// testPrompt verifies a provider/key pair without involving a real review.
const testPrompt = "Reply with the single word OK."

// HandleListProviders returns the supported AI providers.
func HandleListProviders(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"providers": aiprovider.Supported()})
}

// HandleTestAIConfig runs a minimal completion against the given provider
// and key (or the user's stored configuration) to confirm it works.
func HandleTestAIConfig(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req struct {
		Provider string `json:"provider"`
		APIKey   string `json:"api_key"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	provider, apiKey := req.Provider, req.APIKey
	if provider == "" || apiKey == "" {
		user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "User not found"})
		}
		if provider == "" {
			provider = user.AIProvider
		}
		if apiKey == "" {
			apiKey = user.AIAPIKey
		}
	}

	if !aiprovider.IsSupported(aiprovider.Provider(provider)) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Unsupported AI provider"})
	}
	if apiKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "No API key configured"})
	}

	text, err := aiprovider.Complete(c.Context(), aiprovider.Provider(provider), apiKey, testPrompt)
	if err != nil {
		log.Warnf("ai: config test failed for user %d provider %s: %v", userCtx.UserID, provider, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "provider_error", "message": err.Error()})
	}

	return c.JSON(fiber.Map{"status": "ok", "provider": provider, "sample": text})
}

// HandleGenerateReply generates and posts a reply for one review using the
// user's reply mode, optionally overridden per request. Requires active
// paid access.
func HandleGenerateReply(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	user, fail := loadAccessibleUser(c, userCtx.UserID)
	if user == nil {
		return fail
	}

	review, fail := loadOwnReview(c, userCtx.UserID)
	if review == nil {
		return fail
	}
	if review.IsReplied() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already_replied", "message": "Review already has a reply"})
	}

	var req struct {
		Method string `json:"method"`
	}
	_ = c.BodyParser(&req)
	if req.Method != "" && req.Method != models.REPLY_MODE_AI && req.Method != models.REPLY_MODE_TEMPLATE {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "method must be ai or template"})
	}

	generator := replygen.NewGenerator(repository.GetGlobalFactory().GetTemplateRepository())
	result, err := generator.Generate(c.Context(), user, review, req.Method)
	if err != nil {
		return generateReplyError(c, err)
	}

	client := newPlatformClient(user)
	reviewRepo := repository.GetGlobalFactory().GetReviewRepository()

	if err := client.UpdateReply(c.Context(), review.GoogleReviewID, result.Text); err != nil {
		log.Errorf("ai: posting generated reply to %s failed: %v", review.GoogleReviewID, err)
		_ = reviewRepo.UpdateReplyOutcome(review.ID, repository.ReplyOutcome{
			Status: models.REPLY_STATUS_FAILED,
			Error:  err.Error(),
		})
		if googlebusiness.IsAuthExpired(err) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "google_auth_expired", "message": "Google connection expired, please reconnect"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "platform_error", "message": "Failed to post reply to Google"})
	}

	now := time.Now()
	err = reviewRepo.UpdateReplyOutcome(review.ID, repository.ReplyOutcome{
		Status:         models.REPLY_STATUS_REPLIED,
		Method:         result.Method,
		Content:        result.Text,
		RepliedAt:      &now,
		TemplateUsed:   result.TemplateID,
		AIProviderUsed: result.Provider,
	})
	if err != nil {
		log.Errorf("ai: reply posted but outcome update failed for review %d: %v", review.ID, err)
	}

	return c.JSON(fiber.Map{
		"reply":    result.Text,
		"method":   result.Method,
		"provider": result.Provider,
	})
}

func generateReplyError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, replygen.ErrManualMode):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "manual_mode", "message": "Reply mode is manual; write the reply yourself or pass a method"})
	case errors.Is(err, replygen.ErrNotConfigured):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ai_not_configured", "message": "Configure an AI provider and API key first"})
	case errors.Is(err, replygen.ErrNoMatchingTemplate):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no_matching_template", "message": "No active template matches this rating"})
	default:
		var provErr *aiprovider.ProviderError
		if errors.As(err, &provErr) {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "provider_error", "message": provErr.Error()})
		}
		log.Errorf("ai: reply generation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to generate reply"})
	}
}
