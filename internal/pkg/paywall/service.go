// Package paywall handles the setup-fee-plus-subscription gate: order
// creation, payment verification and the resulting account state changes.
// Access checks themselves are derived on the user model (HasActiveAccess);
// this package only mutates the inputs of that derivation.
package paywall

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reviewpilot/ReviewPilot/app/models"
	"github.com/reviewpilot/ReviewPilot/app/repository"
)

var (
	// ErrInvalidSignature means the checkout callback failed verification.
	ErrInvalidSignature = errors.New("payment signature verification failed")

	// ErrUnknownOrder means no pending payment matches the gateway order.
	ErrUnknownOrder = errors.New("no pending payment for this order")
)

const subscriptionPeriod = 30 * 24 * time.Hour

// Service creates and settles payments and flips the user's paywall flags.
type Service struct {
	payments repository.PaymentRepository
	users    repository.UserRepository
	gateway  *RazorpayClient
}

// NewService creates a paywall service.
func NewService(payments repository.PaymentRepository, users repository.UserRepository, gateway *RazorpayClient) *Service {
	return &Service{payments: payments, users: users, gateway: gateway}
}

// CreateOrder creates a gateway order plus a pending ledger entry for the
// given payment type.
func (s *Service) CreateOrder(ctx context.Context, user *models.User, paymentType string) (*models.Payment, *Order, error) {
	settings := models.GetAppSettings()

	var amount int64
	switch paymentType {
	case models.PAYMENT_TYPE_SETUP_FEE:
		if !user.NeedsSetupFee() {
			return nil, nil, errors.New("setup fee already settled")
		}
		amount = settings.SetupFeeAmount
	case models.PAYMENT_TYPE_SUBSCRIPTION:
		amount = settings.SubscriptionAmount
	default:
		return nil, nil, fmt.Errorf("invalid payment type %q", paymentType)
	}

	receipt := uuid.NewString()
	order, err := s.gateway.CreateOrder(ctx, amount, "INR", receipt)
	if err != nil {
		return nil, nil, err
	}

	payment := &models.Payment{
		UserID:          user.ID,
		Type:            paymentType,
		Amount:          amount,
		Currency:        "INR",
		RazorpayOrderID: order.ID,
		Status:          models.PAYMENT_STATUS_PENDING,
		Notes:           "receipt " + receipt,
	}
	if err := s.payments.Create(payment); err != nil {
		return nil, nil, err
	}

	return payment, order, nil
}

// VerifyAndActivate settles a pending payment after checkout. On a valid
// signature the payment completes and the user's paywall state advances:
// setup fee marks SetupFeePaid, subscription starts a 30 day period. An
// invalid signature marks the payment failed and returns ErrInvalidSignature.
func (s *Service) VerifyAndActivate(ctx context.Context, user *models.User, orderID, paymentID, signature string) (*models.Payment, error) {
	_ = ctx

	payment, err := s.payments.GetByOrderID(orderID)
	if err != nil {
		return nil, ErrUnknownOrder
	}
	if payment.UserID != user.ID || payment.Status != models.PAYMENT_STATUS_PENDING {
		return nil, ErrUnknownOrder
	}

	if !s.gateway.VerifySignature(orderID, paymentID, signature) {
		payment.Status = models.PAYMENT_STATUS_FAILED
		payment.RazorpayPaymentID = paymentID
		if err := s.payments.Update(payment); err != nil {
			return nil, err
		}
		return payment, ErrInvalidSignature
	}

	now := time.Now()
	payment.Status = models.PAYMENT_STATUS_COMPLETED
	payment.RazorpayPaymentID = paymentID
	payment.RazorpaySignature = signature

	switch payment.Type {
	case models.PAYMENT_TYPE_SETUP_FEE:
		user.SetupFeePaid = true
	case models.PAYMENT_TYPE_SUBSCRIPTION:
		end := now.Add(subscriptionPeriod)
		payment.SubscriptionPeriodStart = &now
		payment.SubscriptionPeriodEnd = &end
		user.SubscriptionActive = true
		user.SubscriptionExpiresAt = &end
	}

	if err := s.payments.Update(payment); err != nil {
		return nil, err
	}
	if err := s.users.Update(user); err != nil {
		return nil, err
	}

	return payment, nil
}
