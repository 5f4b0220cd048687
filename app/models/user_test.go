package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	u, err := CreateUser("Max Muster", "max@example.com", "secret123")
	require.NoError(t, err)

	assert.Equal(t, ROLE_USER, u.Role)
	assert.Equal(t, STATUS_ACTIVE, u.Status)
	assert.Equal(t, REPLY_MODE_MANUAL, u.ReplyMode)
	assert.NotEqual(t, "secret123", u.Password)
	assert.True(t, CheckPasswordHash("secret123", u.Password))
	assert.False(t, CheckPasswordHash("wrong", u.Password))
}

func TestCreateUserValidation(t *testing.T) {
	_, err := CreateUser("Jo", "not-an-email", "secret123")
	assert.Error(t, err)

	_, err = CreateUser("Max Muster", "max@example.com", "short")
	assert.Error(t, err)
}

func TestNeedsSetupFee(t *testing.T) {
	tests := []struct {
		name string
		user User
		want bool
	}{
		{name: "fresh user owes the fee", user: User{Role: ROLE_USER}, want: true},
		{name: "paid fee", user: User{Role: ROLE_USER, SetupFeePaid: true}, want: false},
		{name: "admin bypass", user: User{Role: ROLE_USER, SetupFeeBypassedByAdmin: true}, want: false},
		{name: "admins never owe", user: User{Role: ROLE_ADMIN}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.NeedsSetupFee())
		})
	}
}

func TestHasActiveAccess(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)

	tests := []struct {
		name string
		user User
		want bool
	}{
		{
			name: "admin always has access",
			user: User{Role: ROLE_ADMIN},
			want: true,
		},
		{
			name: "fee unpaid blocks access",
			user: User{Role: ROLE_USER, SubscriptionActive: true, SubscriptionExpiresAt: &future},
			want: false,
		},
		{
			name: "fee paid but no subscription",
			user: User{Role: ROLE_USER, SetupFeePaid: true},
			want: false,
		},
		{
			name: "fee paid and running subscription",
			user: User{Role: ROLE_USER, SetupFeePaid: true, SubscriptionActive: true, SubscriptionExpiresAt: &future},
			want: true,
		},
		{
			name: "bypass counts as fee settled",
			user: User{Role: ROLE_USER, SetupFeeBypassedByAdmin: true, SubscriptionActive: true, SubscriptionExpiresAt: &future},
			want: true,
		},
		{
			name: "expired subscription blocks access",
			user: User{Role: ROLE_USER, SetupFeePaid: true, SubscriptionActive: true, SubscriptionExpiresAt: &past},
			want: false,
		},
		{
			name: "subscription active without expiry date",
			user: User{Role: ROLE_USER, SetupFeePaid: true, SubscriptionActive: true},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.HasActiveAccess())
		})
	}
}

func TestHasGoogleConnection(t *testing.T) {
	assert.False(t, (&User{}).HasGoogleConnection())
	assert.True(t, (&User{GoogleAccessToken: "ya29.token"}).HasGoogleConnection())
}
