package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_USER       = "user"
	ROLE_ADMIN      = "admin"
	STATUS_ACTIVE   = "active"
	STATUS_INACTIVE = "inactive"
	STATUS_DISABLED = "disabled"

	REPLY_MODE_MANUAL   = "manual"
	REPLY_MODE_TEMPLATE = "template"
	REPLY_MODE_AI       = "ai"

	AI_PROVIDER_OPENAI = "openai"
	AI_PROVIDER_GEMINI = "gemini"
	AI_PROVIDER_CLAUDE = "claude"
	AI_PROVIDER_GLM    = "glm"
)

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"type:varchar(150)" json:"name" validate:"required,min=3,max=150"`
	Email    string `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	Password string `gorm:"type:text" json:"-" validate:"required,min=6"`
	Role     string `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	Status   string `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active inactive disabled"`

	// Paywall state
	SetupFeePaid            bool       `gorm:"default:false" json:"setup_fee_paid"`
	SetupFeeBypassedByAdmin bool       `gorm:"default:false" json:"setup_fee_bypassed_by_admin"`
	SubscriptionActive      bool       `gorm:"default:false" json:"subscription_active"`
	SubscriptionExpiresAt   *time.Time `gorm:"type:timestamp;default:null" json:"subscription_expires_at"`

	// AI configuration
	AIProvider string `gorm:"type:varchar(50);default:null" json:"ai_provider" validate:"omitempty,oneof=openai gemini claude glm"`
	AIAPIKey   string `gorm:"type:text;default:null" json:"-"`

	// Reply settings
	ReplyMode string `gorm:"type:varchar(50);default:'manual'" json:"reply_mode" validate:"oneof=manual template ai"`

	// Google Business Profile connection
	GoogleAccessToken    string     `gorm:"type:text;default:null" json:"-"`
	GoogleRefreshToken   string     `gorm:"type:text;default:null" json:"-"`
	GoogleTokenExpiresAt *time.Time `gorm:"type:timestamp;default:null" json:"-"`

	BusinessAccounts []BusinessAccount `gorm:"foreignKey:UserID" json:"business_accounts,omitempty"`

	CreatedByAdmin *uint          `gorm:"default:null" json:"created_by_admin,omitempty"`
	LastLoginAt    *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func CreateUser(username string, email string, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:      username,
		Email:     email,
		Password:  pw,
		Role:      ROLE_USER,
		Status:    STATUS_ACTIVE,
		ReplyMode: REPLY_MODE_MANUAL,
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// IsActive reports whether the user status is active
func (u *User) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == ROLE_ADMIN
}

// HasGoogleConnection reports whether a Google Business Profile token is stored
func (u *User) HasGoogleConnection() bool {
	return u.GoogleAccessToken != ""
}

// NeedsSetupFee reports whether the one-time setup fee is still outstanding.
// Admins and bypassed accounts never owe the fee.
func (u *User) NeedsSetupFee() bool {
	if u.Role == ROLE_ADMIN {
		return false
	}
	if u.SetupFeePaid {
		return false
	}
	if u.SetupFeeBypassedByAdmin {
		return false
	}
	return true
}

// HasActiveAccess reports whether the account is past the paywall: setup fee
// settled and a non-expired subscription. Admins always have access.
func (u *User) HasActiveAccess() bool {
	if u.Role == ROLE_ADMIN {
		return true
	}
	if !u.SetupFeePaid && !u.SetupFeeBypassedByAdmin {
		return false
	}
	if !u.SubscriptionActive {
		return false
	}
	if u.SubscriptionExpiresAt != nil && time.Now().After(*u.SubscriptionExpiresAt) {
		return false
	}
	return true
}
