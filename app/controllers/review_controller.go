package controllers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/reviewpilot/ReviewPilot/app/models"
	"github.com/reviewpilot/ReviewPilot/app/repository"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/googlebusiness"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/usercontext"
)

// HandleListReviews returns the user's synced reviews, newest first.
// Optional query filters: status, location_id, page, limit.
func HandleListReviews(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	offset, limit, page := parsePagination(c)

	status := c.Query("status")
	locationID := c.Query("location_id")

	repo := repository.GetGlobalFactory().GetReviewRepository()
	reviews, total, err := repo.ListByUser(userCtx.UserID, status, locationID, offset, limit)
	if err != nil {
		log.Errorf("reviews: list failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load reviews"})
	}

	return c.JSON(fiber.Map{
		"reviews": reviews,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// HandleGetReview returns a single review owned by the user.
func HandleGetReview(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	review, fail := loadOwnReview(c, userCtx.UserID)
	if review == nil {
		return fail
	}
	return c.JSON(review)
}

// HandleReviewStats returns per-status counts of the user's reviews.
func HandleReviewStats(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetReviewRepository()
	counts, err := repo.CountByUserAndStatus(userCtx.UserID)
	if err != nil {
		log.Errorf("reviews: stats failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load review stats"})
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	return c.JSON(fiber.Map{
		"total":   total,
		"pending": counts[models.REPLY_STATUS_PENDING],
		"replied": counts[models.REPLY_STATUS_REPLIED],
		"failed":  counts[models.REPLY_STATUS_FAILED],
		"skipped": counts[models.REPLY_STATUS_SKIPPED],
	})
}

// HandleManualReply posts a hand-written reply to the platform and records
// it on the review. Requires active paid access.
func HandleManualReply(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	user, fail := loadAccessibleUser(c, userCtx.UserID)
	if user == nil {
		return fail
	}

	review, fail := loadOwnReview(c, userCtx.UserID)
	if review == nil {
		return fail
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "content is required"})
	}
	content := strings.TrimSpace(req.Content)

	client := newPlatformClient(user)
	if err := client.UpdateReply(c.Context(), review.GoogleReviewID, content); err != nil {
		log.Errorf("reviews: manual reply to %s failed: %v", review.GoogleReviewID, err)
		if googlebusiness.IsAuthExpired(err) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "google_auth_expired", "message": "Google connection expired, please reconnect"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "platform_error", "message": "Failed to post reply to Google"})
	}

	now := time.Now()
	repo := repository.GetGlobalFactory().GetReviewRepository()
	err := repo.UpdateReplyOutcome(review.ID, repository.ReplyOutcome{
		Status:    models.REPLY_STATUS_REPLIED,
		Method:    models.REPLY_METHOD_MANUAL,
		Content:   content,
		RepliedAt: &now,
	})
	if err != nil {
		// The platform reply went through; the local record is now stale
		// until the next sync picks it up.
		log.Errorf("reviews: reply posted but outcome update failed for review %d: %v", review.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Reply posted but local update failed"})
	}

	updated, err := repo.GetByID(review.ID)
	if err != nil {
		return c.JSON(review)
	}
	return c.JSON(updated)
}

// HandleDeleteReply removes the reply from the platform and resets the
// review to pending.
func HandleDeleteReply(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	user, fail := loadAccessibleUser(c, userCtx.UserID)
	if user == nil {
		return fail
	}

	review, fail := loadOwnReview(c, userCtx.UserID)
	if review == nil {
		return fail
	}
	if !review.IsReplied() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Review has no reply to delete"})
	}

	client := newPlatformClient(user)
	if err := client.DeleteReply(c.Context(), review.GoogleReviewID); err != nil {
		log.Errorf("reviews: delete reply on %s failed: %v", review.GoogleReviewID, err)
		if googlebusiness.IsAuthExpired(err) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "google_auth_expired", "message": "Google connection expired, please reconnect"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "platform_error", "message": "Failed to delete reply on Google"})
	}

	repo := repository.GetGlobalFactory().GetReviewRepository()
	err := repo.UpdateReplyOutcome(review.ID, repository.ReplyOutcome{
		Status: models.REPLY_STATUS_PENDING,
	})
	if err != nil {
		log.Errorf("reviews: reply deleted but outcome reset failed for review %d: %v", review.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Reply deleted but local update failed"})
	}

	return c.JSON(fiber.Map{"message": "Reply deleted"})
}

// loadAccessibleUser loads the user and enforces the paywall gate shared by
// every reply-producing endpoint.
func loadAccessibleUser(c *fiber.Ctx, userID uint) (*models.User, error) {
	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userID)
	if err != nil {
		return nil, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "User not found"})
	}
	if !user.HasActiveAccess() {
		return nil, c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "payment_required", "message": "Active subscription required"})
	}
	if !user.HasGoogleConnection() {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "google_not_connected", "message": "Connect your Google Business Profile first"})
	}
	return user, nil
}

func loadOwnReview(c *fiber.Ctx, userID uint) (*models.Review, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid review id"})
	}

	repo := repository.GetGlobalFactory().GetReviewRepository()
	review, err := repo.GetByID(uint(id))
	if err != nil || review.UserID != userID {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Review not found"})
	}
	return review, nil
}

// newPlatformClient builds a token-refreshing Google client for a user.
func newPlatformClient(user *models.User) *googlebusiness.Client {
	users := repository.GetGlobalFactory().GetUserRepository()
	client := googlebusiness.NewClient(googlebusiness.Credentials{
		AccessToken:  user.GoogleAccessToken,
		RefreshToken: user.GoogleRefreshToken,
		ExpiresAt:    user.GoogleTokenExpiresAt,
	})
	userID := user.ID
	client.OnTokenRefresh = func(accessToken string, expiresAt time.Time) {
		if err := users.UpdateGoogleTokens(userID, accessToken, "", &expiresAt); err != nil {
			log.Errorf("reviews: failed to persist refreshed token for user %d: %v", userID, err)
		}
	}
	return client
}
