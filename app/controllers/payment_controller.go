package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/reviewpilot/ReviewPilot/app/models"
	"github.com/reviewpilot/ReviewPilot/app/repository"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/paywall"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/usercontext"
)

func paywallService() *paywall.Service {
	factory := repository.GetGlobalFactory()
	return paywall.NewService(
		factory.GetPaymentRepository(),
		factory.GetUserRepository(),
		paywall.NewRazorpayClientFromEnv(),
	)
}

// HandleCreateOrder creates a checkout order for the setup fee or a
// subscription period.
func HandleCreateOrder(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req struct {
		Type string `json:"type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if req.Type != models.PAYMENT_TYPE_SETUP_FEE && req.Type != models.PAYMENT_TYPE_SUBSCRIPTION {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "type must be setup_fee or subscription"})
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "User not found"})
	}

	// A subscription bought before the setup fee would start its 30 day
	// clock while the account is still locked.
	if req.Type == models.PAYMENT_TYPE_SUBSCRIPTION && user.NeedsSetupFee() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "setup_fee_due", "message": "Pay the setup fee before subscribing"})
	}

	payment, order, err := paywallService().CreateOrder(c.Context(), user, req.Type)
	if err != nil {
		log.Errorf("payments: order creation failed for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "gateway_error", "message": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"payment_id": payment.ID,
		"order": fiber.Map{
			"id":       order.ID,
			"amount":   order.Amount,
			"currency": order.Currency,
		},
	})
}

// HandleVerifyPayment settles a checkout and advances the user's paywall
// state on success.
func HandleVerifyPayment(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req struct {
		OrderID   string `json:"razorpay_order_id"`
		PaymentID string `json:"razorpay_payment_id"`
		Signature string `json:"razorpay_signature"`
	}
	if err := c.BodyParser(&req); err != nil || req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "order id, payment id and signature are required"})
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "User not found"})
	}

	payment, err := paywallService().VerifyAndActivate(c.Context(), user, req.OrderID, req.PaymentID, req.Signature)
	switch {
	case errors.Is(err, paywall.ErrUnknownOrder):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "No pending payment for this order"})
	case errors.Is(err, paywall.ErrInvalidSignature):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature", "message": "Payment verification failed"})
	case err != nil:
		log.Errorf("payments: verification failed for order %s: %v", req.OrderID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Payment verification failed"})
	}

	return c.JSON(fiber.Map{
		"payment":           payment,
		"needs_setup_fee":   user.NeedsSetupFee(),
		"has_active_access": user.HasActiveAccess(),
	})
}

// HandlePaymentHistory lists the user's payments, newest first.
func HandlePaymentHistory(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	offset, limit, _ := parsePagination(c)

	payments, err := repository.GetGlobalFactory().GetPaymentRepository().GetByUser(userCtx.UserID, offset, limit)
	if err != nil {
		log.Errorf("payments: history failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load payments"})
	}
	return c.JSON(fiber.Map{"payments": payments})
}
