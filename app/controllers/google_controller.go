package controllers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/reviewpilot/ReviewPilot/app/models"
	"github.com/reviewpilot/ReviewPilot/app/repository"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/automation"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/cache"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/env"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/googlebusiness"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/security"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/usercontext"
)

const (
	connectCookie  = "rp_google_connect"
	connectKeyTTL  = 15 * time.Minute
	connectKeyBase = "google_connect:"
)

// HandleGoogleAuth starts the Google OAuth flow. The browser cannot carry
// the Authorization header across the redirect dance, so the caller passes
// their bearer token as a query parameter and we correlate the callback via
// a short-lived cache key plus cookie.
func HandleGoogleAuth(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing token"})
	}
	claims, err := security.VerifyAuthToken(token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid token"})
	}

	state := uuid.New().String()
	if err := cache.Set(connectKeyBase+state, strconv.FormatUint(uint64(claims.UserID), 10), connectKeyTTL); err != nil {
		log.Errorf("google: failed to store connect state: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to start Google connection"})
	}

	c.Cookie(&fiber.Cookie{
		Name:     connectCookie,
		Value:    state,
		Expires:  time.Now().Add(connectKeyTTL),
		HTTPOnly: true,
		SameSite: "Lax",
		Secure:   !env.IsDev(),
	})

	return gothfiber.BeginAuthHandler(c)
}

// HandleGoogleCallback completes the OAuth flow and stores the credential
// on the user who started it.
func HandleGoogleCallback(c *fiber.Ctx) error {
	gothUser, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		log.Errorf("google: oauth completion failed: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "oauth_failed", "message": "Google authorization failed"})
	}

	state := c.Cookies(connectCookie)
	if state == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "oauth_failed", "message": "Connection session expired, please retry"})
	}
	stored, err := cache.Get(connectKeyBase + state)
	if err != nil {
		if !cache.IsNil(err) {
			log.Errorf("google: connect state lookup failed: %v", err)
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "oauth_failed", "message": "Connection session expired, please retry"})
	}
	_ = cache.Delete(connectKeyBase + state)
	c.ClearCookie(connectCookie)

	parsed, err := strconv.ParseUint(stored, 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "oauth_failed", "message": "Connection session invalid"})
	}
	userID := uint(parsed)

	var expiresAt *time.Time
	if !gothUser.ExpiresAt.IsZero() {
		t := gothUser.ExpiresAt
		expiresAt = &t
	}

	users := repository.GetGlobalFactory().GetUserRepository()
	if err := users.UpdateGoogleTokens(userID, gothUser.AccessToken, gothUser.RefreshToken, expiresAt); err != nil {
		log.Errorf("google: failed to store tokens for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to store Google credentials"})
	}

	frontend := env.GetEnv("FRONTEND_URL", "/")
	return c.Redirect(frontend+"?google_connected=1", fiber.StatusSeeOther)
}

// HandleGoogleStatus reports the connection state and the synced accounts.
func HandleGoogleStatus(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "User not found"})
	}

	return c.JSON(fiber.Map{
		"connected": user.HasGoogleConnection(),
		"accounts":  user.BusinessAccounts,
	})
}

// HandleSyncAccounts refreshes the stored account and location lists from
// the platform.
func HandleSyncAccounts(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	users := repository.GetGlobalFactory().GetUserRepository()
	user, err := users.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "User not found"})
	}
	if !user.HasGoogleConnection() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "google_not_connected", "message": "Connect your Google Business Profile first"})
	}

	client := newPlatformClient(user)

	rawAccounts, err := client.ListAccounts(c.Context())
	if err != nil {
		return googleAPIError(c, "Failed to list Google accounts", err)
	}

	accounts := make([]models.BusinessAccount, 0, len(rawAccounts))
	for _, a := range rawAccounts {
		accounts = append(accounts, models.BusinessAccount{
			AccountID:   a.Name,
			AccountName: a.AccountName,
		})
	}
	if err := users.ReplaceBusinessAccounts(user.ID, accounts); err != nil {
		log.Errorf("google: failed to store accounts for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to store accounts"})
	}

	// ReplaceBusinessAccounts fills in the row ids on insert.
	for i := range accounts {
		rawLocations, err := client.ListLocations(c.Context(), accounts[i].AccountID)
		if err != nil {
			log.Errorf("google: failed to list locations of %s: %v", accounts[i].AccountID, err)
			continue
		}
		locations := make([]models.BusinessLocation, 0, len(rawLocations))
		for _, l := range rawLocations {
			locations = append(locations, models.BusinessLocation{
				// Review APIs expect the combined resource name.
				LocationID:   accounts[i].AccountID + "/" + l.Name,
				LocationName: l.Title,
				Address:      formatAddress(l),
			})
		}
		if err := users.ReplaceLocations(accounts[i].ID, locations); err != nil {
			log.Errorf("google: failed to store locations of %s: %v", accounts[i].AccountID, err)
		}
	}

	refreshed, err := users.GetByID(user.ID)
	if err != nil {
		return c.JSON(fiber.Map{"accounts": accounts})
	}
	return c.JSON(fiber.Map{"accounts": refreshed.BusinessAccounts})
}

// HandleSyncReviews pulls the latest reviews of every connected location
// into the local store. Already known reviews are left untouched.
func HandleSyncReviews(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	users := repository.GetGlobalFactory().GetUserRepository()
	user, err := users.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "User not found"})
	}
	if !user.HasGoogleConnection() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "google_not_connected", "message": "Connect your Google Business Profile first"})
	}

	client := newPlatformClient(user)
	reviews := repository.GetGlobalFactory().GetReviewRepository()

	pageSize := 20
	if settings := models.GetAppSettings(); settings != nil {
		pageSize = settings.GetReviewPageSize()
	}
	fetched, created := 0, 0
	var syncErrors []string

	for ai := range user.BusinessAccounts {
		for li := range user.BusinessAccounts[ai].Locations {
			location := &user.BusinessAccounts[ai].Locations[li]

			raws, err := client.ListReviews(c.Context(), location.LocationID, pageSize)
			if err != nil {
				log.Errorf("google: review sync failed for location %s: %v", location.LocationID, err)
				if googlebusiness.IsAuthExpired(err) {
					return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "google_auth_expired", "message": "Google connection expired, please reconnect"})
				}
				syncErrors = append(syncErrors, location.LocationID)
				continue
			}

			fetched += len(raws)
			for i := range raws {
				review := automation.NewReviewFromRaw(user.ID, location, &raws[i])
				wasCreated, err := reviews.CreateIfAbsent(review)
				if err != nil {
					log.Errorf("google: failed to store review %s: %v", raws[i].Name, err)
					continue
				}
				if wasCreated {
					created++
				}
			}
		}
	}

	return c.JSON(fiber.Map{
		"fetched":          fetched,
		"new":              created,
		"failed_locations": syncErrors,
	})
}

// HandleGoogleDisconnect drops the stored credential and all synced accounts.
func HandleGoogleDisconnect(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	users := repository.GetGlobalFactory().GetUserRepository()
	if err := users.ClearGoogleConnection(userCtx.UserID); err != nil {
		log.Errorf("google: disconnect failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to disconnect Google"})
	}
	return c.JSON(fiber.Map{"message": "Google Business Profile disconnected"})
}

func googleAPIError(c *fiber.Ctx, message string, err error) error {
	log.Errorf("google: %s: %v", message, err)
	if googlebusiness.IsAuthExpired(err) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "google_auth_expired", "message": "Google connection expired, please reconnect"})
	}
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "platform_error", "message": message})
}

func formatAddress(l googlebusiness.Location) string {
	parts := append([]string{}, l.Address.AddressLines...)
	if l.Address.Locality != "" {
		parts = append(parts, l.Address.Locality)
	}
	return strings.Join(parts, ", ")
}
