package controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/reviewpilot/ReviewPilot/app/models"
	"github.com/reviewpilot/ReviewPilot/app/repository"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/automation"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/database"
	metrics "github.com/reviewpilot/ReviewPilot/internal/pkg/metrics/counter"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/usercontext"
)

// HandleAdminListUsers lists all users with pagination.
func HandleAdminListUsers(c *fiber.Ctx) error {
	offset, limit, page := parsePagination(c)

	repo := repository.GetGlobalFactory().GetUserRepository()
	users, err := repo.List(offset, limit)
	if err != nil {
		log.Errorf("admin: user list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load users"})
	}
	total, err := repo.Count()
	if err != nil {
		log.Errorf("admin: user count failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load users"})
	}

	return c.JSON(fiber.Map{
		"users": users,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// HandleAdminCreateUser creates a user account on someone's behalf.
func HandleAdminCreateUser(c *fiber.Ctx) error {
	adminCtx := usercontext.GetUserContext(c)

	var req struct {
		Name           string `json:"name"`
		Email          string `json:"email"`
		Password       string `json:"password"`
		Role           string `json:"role"`
		BypassSetupFee bool   `json:"bypass_setup_fee"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if _, err := repo.GetByEmail(req.Email); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Email already registered"})
	}

	user, err := models.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}
	if req.Role == models.ROLE_ADMIN {
		user.Role = models.ROLE_ADMIN
	}
	user.SetupFeeBypassedByAdmin = req.BypassSetupFee
	adminID := adminCtx.UserID
	user.CreatedByAdmin = &adminID

	if err := repo.Create(user); err != nil {
		log.Errorf("admin: user creation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create user"})
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// HandleAdminUpdateUser changes account status, role and paywall overrides.
func HandleAdminUpdateUser(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid user id"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
	}

	var req struct {
		Status             *string `json:"status"`
		Role               *string `json:"role"`
		BypassSetupFee     *bool   `json:"bypass_setup_fee"`
		SubscriptionActive *bool   `json:"subscription_active"`
		SubscriptionDays   *int    `json:"subscription_days"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	if req.Status != nil {
		switch *req.Status {
		case models.STATUS_ACTIVE, models.STATUS_INACTIVE, models.STATUS_DISABLED:
			user.Status = *req.Status
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid status"})
		}
	}
	if req.Role != nil {
		switch *req.Role {
		case models.ROLE_USER, models.ROLE_ADMIN:
			user.Role = *req.Role
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid role"})
		}
	}
	if req.BypassSetupFee != nil {
		user.SetupFeeBypassedByAdmin = *req.BypassSetupFee
	}
	if req.SubscriptionActive != nil {
		user.SubscriptionActive = *req.SubscriptionActive
		if !*req.SubscriptionActive {
			user.SubscriptionExpiresAt = nil
		}
	}
	if req.SubscriptionDays != nil && *req.SubscriptionDays > 0 {
		expiry := time.Now().AddDate(0, 0, *req.SubscriptionDays)
		user.SubscriptionActive = true
		user.SubscriptionExpiresAt = &expiry
	}

	if err := repo.Update(user); err != nil {
		log.Errorf("admin: user update %d failed: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update user"})
	}
	return c.JSON(user)
}

// HandleAdminDeleteUser soft-deletes a user account.
func HandleAdminDeleteUser(c *fiber.Ctx) error {
	adminCtx := usercontext.GetUserContext(c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid user id"})
	}
	if uint(id) == adminCtx.UserID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "You cannot delete your own account"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if _, err := repo.GetByID(uint(id)); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
	}
	if err := repo.Delete(uint(id)); err != nil {
		log.Errorf("admin: user delete %d failed: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete user"})
	}
	return c.JSON(fiber.Map{"message": "User deleted"})
}

// HandleAdminAutomationStatus reports the scheduler state and reply counters.
func HandleAdminAutomationStatus(c *fiber.Ctx) error {
	manager := automation.GetManager()

	sent, failed, err := metrics.Totals()
	if err != nil {
		log.Warnf("admin: reply counters unavailable: %v", err)
	}

	response := fiber.Map{
		"scheduler_running": manager.IsRunning(),
		"replies_sent":      sent,
		"replies_failed":    failed,
	}
	if settings := models.GetAppSettings(); settings != nil {
		response["enabled"] = settings.IsAutomationEnabled()
		response["interval"] = settings.GetAutomationInterval().String()
	}
	if report := manager.LastReport(); report != nil {
		response["last_run"] = fiber.Map{
			"run_id":      report.RunID,
			"started_at":  report.StartedAt,
			"finished_at": report.FinishedAt,
			"discovered":  report.TotalDiscovered(),
			"replied":     report.TotalReplied(),
			"failed":      report.TotalFailed(),
		}
	}
	return c.JSON(response)
}

// HandleAdminRunAutomation triggers one automation run immediately.
func HandleAdminRunAutomation(c *fiber.Ctx) error {
	report := automation.GetManager().RunNow(c.Context())
	if report == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "run_skipped", "message": "Automation is disabled or a run is already in progress"})
	}
	return c.JSON(report)
}

// HandleAdminLastRunReport returns the full report of the most recent run.
func HandleAdminLastRunReport(c *fiber.Ctx) error {
	report := automation.GetManager().LastReport()
	if report == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "No run has completed yet"})
	}
	return c.JSON(report)
}

// HandleAdminReplyStats returns per-day reply counters.
func HandleAdminReplyStats(c *fiber.Ctx) error {
	days, _ := strconv.Atoi(c.Query("days", "30"))
	if days < 1 || days > 365 {
		days = 30
	}

	sent, failed, err := metrics.DailyTotals(days)
	if err != nil {
		log.Errorf("admin: daily counters failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load reply stats"})
	}
	return c.JSON(fiber.Map{"sent": sent, "failed": failed})
}

// HandleAdminGetSettings returns the current application settings.
func HandleAdminGetSettings(c *fiber.Ctx) error {
	settings := models.GetAppSettings()
	if settings == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Settings not loaded"})
	}
	return c.JSON(settings)
}

// HandleAdminUpdateSettings persists new application settings. The scheduler
// picks the new interval up on its next restart; all other values apply on
// the next run.
func HandleAdminUpdateSettings(c *fiber.Ctx) error {
	var settings models.AppSettings
	if err := c.BodyParser(&settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	if err := models.SaveSettings(database.GetDB(), &settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}
	return c.JSON(&settings)
}
