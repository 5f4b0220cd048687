package models

import (
	"time"
)

const (
	PAYMENT_TYPE_SETUP_FEE    = "setup_fee"
	PAYMENT_TYPE_SUBSCRIPTION = "subscription"

	PAYMENT_STATUS_PENDING   = "pending"
	PAYMENT_STATUS_COMPLETED = "completed"
	PAYMENT_STATUS_FAILED    = "failed"
	PAYMENT_STATUS_REFUNDED  = "refunded"
)

// Payment is one entry in the payment ledger. Amount is in the smallest
// currency unit (paise for INR), matching what the gateway expects.
type Payment struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserID   uint   `gorm:"index:idx_payments_user_type;not null" json:"user_id"`
	Type     string `gorm:"type:varchar(50);not null;index:idx_payments_user_type" json:"type"`
	Amount   int64  `gorm:"not null" json:"amount"`
	Currency string `gorm:"type:varchar(10);default:'INR'" json:"currency"`

	RazorpayOrderID   string `gorm:"type:varchar(255);default:null;index" json:"razorpay_order_id"`
	RazorpayPaymentID string `gorm:"type:varchar(255);default:null" json:"razorpay_payment_id"`
	RazorpaySignature string `gorm:"type:varchar(255);default:null" json:"-"`

	Status string `gorm:"type:varchar(50);default:'pending';index:idx_payments_user_type" json:"status"`

	SubscriptionPeriodStart *time.Time `gorm:"type:timestamp;default:null" json:"subscription_period_start"`
	SubscriptionPeriodEnd   *time.Time `gorm:"type:timestamp;default:null" json:"subscription_period_end"`

	Notes string `gorm:"type:text;default:null" json:"notes"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsCompleted reports whether the payment has been captured and verified
func (p *Payment) IsCompleted() bool {
	return p.Status == PAYMENT_STATUS_COMPLETED
}
