package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/reviewpilot/ReviewPilot/app/controllers"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/middleware"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/oauth"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// init oauth providers and their state store
	oauth.Setup()

	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "ReviewPilot API",
		})
	})

	h.registerPublicRoutes(api)
	h.registerUserRoutes(api)
	h.registerAdminRoutes(api)
}

func (h ApiRouter) registerPublicRoutes(api fiber.Router) {
	auth := api.Group("/auth")
	auth.Post("/register", controllers.HandleRegister)
	auth.Post("/login", controllers.HandleLogin)

	// The OAuth dance runs in the browser, outside the bearer token flow.
	// HandleGoogleAuth authenticates through a token query parameter.
	google := api.Group("/google")
	google.Get("/auth/:provider", controllers.HandleGoogleAuth)
	google.Get("/auth/:provider/callback", controllers.HandleGoogleCallback)
	google.Get("/logout/:provider", gothfiber.Logout)

	api.Get("/ai/providers", controllers.HandleListProviders)
}

func (h ApiRouter) registerUserRoutes(api fiber.Router) {
	authed := api.Group("", middleware.AuthMiddleware())

	authed.Get("/auth/me", controllers.HandleMe)
	authed.Put("/user/profile", controllers.HandleUpdateProfile)
	authed.Put("/user/reply-settings", controllers.HandleUpdateReplySettings)

	google := authed.Group("/google")
	google.Get("/status", controllers.HandleGoogleStatus)
	google.Post("/sync-accounts", controllers.HandleSyncAccounts)
	google.Post("/sync-reviews", controllers.HandleSyncReviews)
	google.Delete("/disconnect", controllers.HandleGoogleDisconnect)

	reviews := authed.Group("/reviews")
	reviews.Get("/", controllers.HandleListReviews)
	reviews.Get("/stats", controllers.HandleReviewStats)
	reviews.Get("/:id", controllers.HandleGetReview)
	reviews.Post("/:id/reply", controllers.HandleManualReply)
	reviews.Post("/:id/generate-reply", controllers.HandleGenerateReply)
	reviews.Delete("/:id/reply", controllers.HandleDeleteReply)

	templates := authed.Group("/templates")
	templates.Get("/", controllers.HandleListTemplates)
	templates.Post("/", controllers.HandleCreateTemplate)
	templates.Post("/match", controllers.HandleMatchTemplate)
	templates.Put("/:id", controllers.HandleUpdateTemplate)
	templates.Delete("/:id", controllers.HandleDeleteTemplate)

	authed.Post("/ai/test", controllers.HandleTestAIConfig)

	payments := authed.Group("/payments")
	payments.Post("/order", controllers.HandleCreateOrder)
	payments.Post("/verify", controllers.HandleVerifyPayment)
	payments.Get("/history", controllers.HandlePaymentHistory)
}

func (h ApiRouter) registerAdminRoutes(api fiber.Router) {
	admin := api.Group("/admin", middleware.AuthMiddleware(), middleware.RequireAdmin)

	admin.Get("/users", controllers.HandleAdminListUsers)
	admin.Post("/users", controllers.HandleAdminCreateUser)
	admin.Put("/users/:id", controllers.HandleAdminUpdateUser)
	admin.Delete("/users/:id", controllers.HandleAdminDeleteUser)

	admin.Get("/automation/status", controllers.HandleAdminAutomationStatus)
	admin.Post("/automation/run", controllers.HandleAdminRunAutomation)
	admin.Get("/automation/last-run", controllers.HandleAdminLastRunReport)
	admin.Get("/automation/stats", controllers.HandleAdminReplyStats)

	admin.Get("/settings", controllers.HandleAdminGetSettings)
	admin.Put("/settings", controllers.HandleAdminUpdateSettings)
}
