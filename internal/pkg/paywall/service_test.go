package paywall

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewpilot/ReviewPilot/app/models"
	"github.com/reviewpilot/ReviewPilot/app/repository"
)

type fakePaymentRepo struct {
	byOrderID map[string]*models.Payment
	updated   []*models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{byOrderID: make(map[string]*models.Payment)}
}

func (f *fakePaymentRepo) Create(payment *models.Payment) error {
	f.byOrderID[payment.RazorpayOrderID] = payment
	return nil
}

func (f *fakePaymentRepo) GetByID(id uint) (*models.Payment, error) { return nil, errors.New("nope") }

func (f *fakePaymentRepo) GetByOrderID(orderID string) (*models.Payment, error) {
	if p, ok := f.byOrderID[orderID]; ok {
		return p, nil
	}
	return nil, errors.New("not found")
}

func (f *fakePaymentRepo) GetByUser(userID uint, offset, limit int) ([]models.Payment, error) {
	return nil, nil
}

func (f *fakePaymentRepo) Update(payment *models.Payment) error {
	f.updated = append(f.updated, payment)
	f.byOrderID[payment.RazorpayOrderID] = payment
	return nil
}

type fakeUserStore struct {
	saved *models.User
}

func (f *fakeUserStore) Create(user *models.User) error                { return nil }
func (f *fakeUserStore) GetByID(id uint) (*models.User, error)         { return nil, nil }
func (f *fakeUserStore) GetByEmail(email string) (*models.User, error) { return nil, nil }
func (f *fakeUserStore) Update(user *models.User) error {
	f.saved = user
	return nil
}
func (f *fakeUserStore) Delete(id uint) error                          { return nil }
func (f *fakeUserStore) List(offset, limit int) ([]models.User, error) { return nil, nil }
func (f *fakeUserStore) Count() (int64, error)                         { return 0, nil }
func (f *fakeUserStore) FindAutomationCandidates() ([]models.User, error) {
	return nil, nil
}
func (f *fakeUserStore) UpdateGoogleTokens(userID uint, accessToken, refreshToken string, expiresAt *time.Time) error {
	return nil
}
func (f *fakeUserStore) ClearGoogleConnection(userID uint) error { return nil }
func (f *fakeUserStore) ReplaceBusinessAccounts(userID uint, accounts []models.BusinessAccount) error {
	return nil
}
func (f *fakeUserStore) ReplaceLocations(accountRowID uint, locations []models.BusinessLocation) error {
	return nil
}

var _ repository.PaymentRepository = (*fakePaymentRepo)(nil)
var _ repository.UserRepository = (*fakeUserStore)(nil)

func signOrder(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestService(payments *fakePaymentRepo, users *fakeUserStore) *Service {
	gateway := &RazorpayClient{KeyID: "rzp_test", KeySecret: "top-secret"}
	return NewService(payments, users, gateway)
}

func TestVerifyAndActivateSetupFee(t *testing.T) {
	payments := newFakePaymentRepo()
	users := &fakeUserStore{}
	svc := newTestService(payments, users)

	user := &models.User{ID: 1, Role: models.ROLE_USER}
	pending := &models.Payment{
		UserID:          1,
		Type:            models.PAYMENT_TYPE_SETUP_FEE,
		Amount:          499900,
		RazorpayOrderID: "order_1",
		Status:          models.PAYMENT_STATUS_PENDING,
	}
	require.NoError(t, payments.Create(pending))

	sig := signOrder("top-secret", "order_1", "pay_1")
	payment, err := svc.VerifyAndActivate(context.Background(), user, "order_1", "pay_1", sig)
	require.NoError(t, err)

	assert.Equal(t, models.PAYMENT_STATUS_COMPLETED, payment.Status)
	assert.Equal(t, "pay_1", payment.RazorpayPaymentID)
	assert.True(t, user.SetupFeePaid)
	assert.False(t, user.SubscriptionActive)
	require.NotNil(t, users.saved)
	assert.True(t, users.saved.SetupFeePaid)
}

func TestVerifyAndActivateSubscription(t *testing.T) {
	payments := newFakePaymentRepo()
	users := &fakeUserStore{}
	svc := newTestService(payments, users)

	user := &models.User{ID: 1, Role: models.ROLE_USER, SetupFeePaid: true}
	pending := &models.Payment{
		UserID:          1,
		Type:            models.PAYMENT_TYPE_SUBSCRIPTION,
		Amount:          99900,
		RazorpayOrderID: "order_2",
		Status:          models.PAYMENT_STATUS_PENDING,
	}
	require.NoError(t, payments.Create(pending))

	sig := signOrder("top-secret", "order_2", "pay_2")
	payment, err := svc.VerifyAndActivate(context.Background(), user, "order_2", "pay_2", sig)
	require.NoError(t, err)

	assert.Equal(t, models.PAYMENT_STATUS_COMPLETED, payment.Status)
	require.NotNil(t, payment.SubscriptionPeriodStart)
	require.NotNil(t, payment.SubscriptionPeriodEnd)
	assert.True(t, user.SubscriptionActive)
	require.NotNil(t, user.SubscriptionExpiresAt)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), *user.SubscriptionExpiresAt, time.Minute)
	assert.True(t, user.HasActiveAccess())
}

func TestVerifyAndActivateBadSignature(t *testing.T) {
	payments := newFakePaymentRepo()
	users := &fakeUserStore{}
	svc := newTestService(payments, users)

	user := &models.User{ID: 1, Role: models.ROLE_USER}
	pending := &models.Payment{
		UserID:          1,
		Type:            models.PAYMENT_TYPE_SETUP_FEE,
		RazorpayOrderID: "order_3",
		Status:          models.PAYMENT_STATUS_PENDING,
	}
	require.NoError(t, payments.Create(pending))

	payment, err := svc.VerifyAndActivate(context.Background(), user, "order_3", "pay_3", "forged")
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, models.PAYMENT_STATUS_FAILED, payment.Status)
	assert.False(t, user.SetupFeePaid)
	assert.Nil(t, users.saved, "user state must not change on a forged signature")
}

func TestVerifyAndActivateUnknownOrder(t *testing.T) {
	svc := newTestService(newFakePaymentRepo(), &fakeUserStore{})

	user := &models.User{ID: 1}
	_, err := svc.VerifyAndActivate(context.Background(), user, "order_missing", "pay_x", "sig")
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestVerifyAndActivateWrongUser(t *testing.T) {
	payments := newFakePaymentRepo()
	svc := newTestService(payments, &fakeUserStore{})

	pending := &models.Payment{
		UserID:          42,
		Type:            models.PAYMENT_TYPE_SETUP_FEE,
		RazorpayOrderID: "order_4",
		Status:          models.PAYMENT_STATUS_PENDING,
	}
	require.NoError(t, payments.Create(pending))

	other := &models.User{ID: 1}
	sig := signOrder("top-secret", "order_4", "pay_4")
	_, err := svc.VerifyAndActivate(context.Background(), other, "order_4", "pay_4", sig)
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestVerifyAndActivateAlreadySettled(t *testing.T) {
	payments := newFakePaymentRepo()
	svc := newTestService(payments, &fakeUserStore{})

	settled := &models.Payment{
		UserID:          1,
		Type:            models.PAYMENT_TYPE_SETUP_FEE,
		RazorpayOrderID: "order_5",
		Status:          models.PAYMENT_STATUS_COMPLETED,
	}
	require.NoError(t, payments.Create(settled))

	user := &models.User{ID: 1}
	sig := signOrder("top-secret", "order_5", "pay_5")
	_, err := svc.VerifyAndActivate(context.Background(), user, "order_5", "pay_5", sig)
	assert.ErrorIs(t, err, ErrUnknownOrder)
}
