package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	REPLY_STATUS_PENDING = "pending"
	REPLY_STATUS_REPLIED = "replied"
	REPLY_STATUS_FAILED  = "failed"
	REPLY_STATUS_SKIPPED = "skipped"

	REPLY_METHOD_AI       = "ai"
	REPLY_METHOD_TEMPLATE = "template"
	REPLY_METHOD_MANUAL   = "manual"
)

// Review mirrors one Google Business Profile review. GoogleReviewID is the
// external resource name and is globally unique; the database index is what
// keeps the manual sync path and the automation path from creating the same
// review twice.
type Review struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"index:idx_reviews_user_status;not null" json:"user_id"`

	GoogleReviewID string `gorm:"uniqueIndex;type:varchar(500);not null" json:"google_review_id"`
	LocationID     string `gorm:"type:varchar(255);index;not null" json:"location_id"`
	LocationName   string `gorm:"type:varchar(255)" json:"location_name"`

	ReviewerName     string    `gorm:"type:varchar(255);default:'Anonymous'" json:"reviewer_name"`
	ReviewerPhotoURL string    `gorm:"type:varchar(500);default:null" json:"reviewer_photo_url"`
	StarRating       int       `gorm:"not null" json:"star_rating" validate:"min=1,max=5"`
	Comment          string    `gorm:"type:text" json:"comment"`
	ReviewCreatedAt  time.Time `gorm:"not null" json:"review_created_at"`

	ReplyStatus    string     `gorm:"type:varchar(50);default:'pending';index:idx_reviews_user_status" json:"reply_status" validate:"oneof=pending replied failed skipped"`
	ReplyMethod    string     `gorm:"type:varchar(50);default:null" json:"reply_method"`
	ReplyContent   string     `gorm:"type:text;default:null" json:"reply_content"`
	RepliedAt      *time.Time `gorm:"type:timestamp;default:null" json:"replied_at"`
	ReplyError     string     `gorm:"type:text;default:null" json:"reply_error"`
	TemplateUsed   *uint      `gorm:"default:null" json:"template_used"`
	AIProviderUsed string     `gorm:"type:varchar(50);default:null" json:"ai_provider_used"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Review) Validate() error {
	v := validator.New()

	return v.Struct(r)
}

// IsPending reports whether the review still awaits a reply
func (r *Review) IsPending() bool {
	return r.ReplyStatus == REPLY_STATUS_PENDING
}

// IsReplied reports whether a reply has been posted, locally or on the platform
func (r *Review) IsReplied() bool {
	return r.ReplyStatus == REPLY_STATUS_REPLIED
}
