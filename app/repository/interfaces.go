package repository

import (
	"time"

	"github.com/reviewpilot/ReviewPilot/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	// FindAutomationCandidates returns users eligible for the automation run:
	// active, Google connected and reply mode ai or template.
	FindAutomationCandidates() ([]models.User, error)
	UpdateGoogleTokens(userID uint, accessToken, refreshToken string, expiresAt *time.Time) error
	ClearGoogleConnection(userID uint) error
	ReplaceBusinessAccounts(userID uint, accounts []models.BusinessAccount) error
	ReplaceLocations(accountRowID uint, locations []models.BusinessLocation) error
}

// ReviewRepository defines the interface for review-related database operations
type ReviewRepository interface {
	GetByID(id uint) (*models.Review, error)
	GetByGoogleReviewID(googleReviewID string) (*models.Review, error)
	// CreateIfAbsent inserts a review keyed by its external identifier. It is
	// first-writer-wins: when a row for the external id already exists the
	// insert is a no-op and created is false.
	CreateIfAbsent(review *models.Review) (created bool, err error)
	ListByUser(userID uint, status, locationID string, offset, limit int) ([]models.Review, int64, error)
	UpdateReplyOutcome(id uint, outcome ReplyOutcome) error
	CountByUserAndStatus(userID uint) (map[string]int64, error)
}

// ReplyOutcome carries the reply-state mutation applied after a dispatch
// or a manual reply.
type ReplyOutcome struct {
	Status         string
	Method         string
	Content        string
	RepliedAt      *time.Time
	Error          string
	TemplateUsed   *uint
	AIProviderUsed string
}

// TemplateRepository defines the interface for reply template operations
type TemplateRepository interface {
	Create(template *models.ReplyTemplate) error
	GetByID(id uint) (*models.ReplyTemplate, error)
	GetByUser(userID uint) ([]models.ReplyTemplate, error)
	Update(template *models.ReplyTemplate) error
	Delete(id uint) error
	// FindActiveMatching returns the user's active templates whose rating
	// range contains starRating, least used first, oldest first on ties.
	FindActiveMatching(userID uint, starRating int) ([]models.ReplyTemplate, error)
	IncrementUsage(id uint) error
}

// PaymentRepository defines the interface for payment ledger operations
type PaymentRepository interface {
	Create(payment *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByOrderID(orderID string) (*models.Payment, error)
	GetByUser(userID uint, offset, limit int) ([]models.Payment, error)
	Update(payment *models.Payment) error
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	Get() (*models.AppSettings, error)
	Save(settings *models.AppSettings) error
	GetValue(key string) (string, error)
	SetValue(key, value string) error
}
