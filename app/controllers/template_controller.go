package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/reviewpilot/ReviewPilot/app/models"
	"github.com/reviewpilot/ReviewPilot/app/repository"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/usercontext"
)

type templateRequest struct {
	Name      *string `json:"name"`
	Category  *string `json:"category"`
	MinRating *int    `json:"min_rating"`
	MaxRating *int    `json:"max_rating"`
	Content   *string `json:"content"`
	IsActive  *bool   `json:"is_active"`
}

// HandleListTemplates returns all templates of the authenticated user.
func HandleListTemplates(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	repo := repository.GetGlobalFactory().GetTemplateRepository()

	templates, err := repo.GetByUser(userCtx.UserID)
	if err != nil {
		log.Errorf("templates: list failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load templates"})
	}
	return c.JSON(templates)
}

// HandleCreateTemplate creates a new reply template.
func HandleCreateTemplate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req templateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	template := models.ReplyTemplate{
		UserID:    userCtx.UserID,
		Category:  models.TEMPLATE_CATEGORY_CUSTOM,
		MinRating: 1,
		MaxRating: 5,
		IsActive:  true,
	}
	applyTemplateRequest(&template, &req)

	if err := template.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}
	if template.MinRating > template.MaxRating {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "min_rating must not exceed max_rating"})
	}

	repo := repository.GetGlobalFactory().GetTemplateRepository()
	if err := repo.Create(&template); err != nil {
		log.Errorf("templates: create failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create template"})
	}

	return c.Status(fiber.StatusCreated).JSON(template)
}

// HandleUpdateTemplate updates one of the user's templates.
func HandleUpdateTemplate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	template, fail := loadOwnTemplate(c, userCtx.UserID)
	if template == nil {
		return fail
	}

	var req templateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	applyTemplateRequest(template, &req)

	if err := template.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}
	if template.MinRating > template.MaxRating {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "min_rating must not exceed max_rating"})
	}

	repo := repository.GetGlobalFactory().GetTemplateRepository()
	if err := repo.Update(template); err != nil {
		log.Errorf("templates: update %d failed: %v", template.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update template"})
	}
	return c.JSON(template)
}

// HandleDeleteTemplate deletes one of the user's templates.
func HandleDeleteTemplate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	template, fail := loadOwnTemplate(c, userCtx.UserID)
	if template == nil {
		return fail
	}

	repo := repository.GetGlobalFactory().GetTemplateRepository()
	if err := repo.Delete(template.ID); err != nil {
		log.Errorf("templates: delete %d failed: %v", template.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete template"})
	}
	return c.JSON(fiber.Map{"message": "Template deleted"})
}

// HandleMatchTemplate previews which template would answer a given rating.
func HandleMatchTemplate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req struct {
		StarRating int `json:"star_rating"`
	}
	if err := c.BodyParser(&req); err != nil || req.StarRating < 1 || req.StarRating > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "star_rating must be between 1 and 5"})
	}

	repo := repository.GetGlobalFactory().GetTemplateRepository()
	matches, err := repo.FindActiveMatching(userCtx.UserID, req.StarRating)
	if err != nil {
		log.Errorf("templates: match failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to match template"})
	}
	if len(matches) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "No matching template found"})
	}
	return c.JSON(matches[0])
}

func applyTemplateRequest(template *models.ReplyTemplate, req *templateRequest) {
	if req.Name != nil {
		template.Name = *req.Name
	}
	if req.Category != nil {
		template.Category = *req.Category
	}
	if req.MinRating != nil {
		template.MinRating = *req.MinRating
	}
	if req.MaxRating != nil {
		template.MaxRating = *req.MaxRating
	}
	if req.Content != nil {
		template.Content = *req.Content
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}
}

func loadOwnTemplate(c *fiber.Ctx, userID uint) (*models.ReplyTemplate, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid template id"})
	}

	repo := repository.GetGlobalFactory().GetTemplateRepository()
	template, err := repo.GetByID(uint(id))
	if err != nil || template.UserID != userID {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Template not found"})
	}
	return template, nil
}
