package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	TEMPLATE_CATEGORY_POSITIVE = "positive"
	TEMPLATE_CATEGORY_NEGATIVE = "negative"
	TEMPLATE_CATEGORY_NEUTRAL  = "neutral"
	TEMPLATE_CATEGORY_CUSTOM   = "custom"
)

// ReplyTemplate is a canned reply owned by one user. MinRating/MaxRating form
// an inclusive matching range; ranges of different templates may overlap.
// Content supports the placeholders {{reviewer_name}}, {{business_name}} and
// {{rating}}.
type ReplyTemplate struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserID   uint   `gorm:"index:idx_templates_user_active;not null" json:"user_id"`
	Name     string `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=1,max=255"`
	Category string `gorm:"type:varchar(50);default:'custom'" json:"category" validate:"oneof=positive negative neutral custom"`

	MinRating int `gorm:"default:1" json:"min_rating" validate:"min=1,max=5"`
	MaxRating int `gorm:"default:5" json:"max_rating" validate:"min=1,max=5"`

	Content    string `gorm:"type:text;not null" json:"content" validate:"required"`
	IsActive   bool   `gorm:"default:true;index:idx_templates_user_active" json:"is_active"`
	UsageCount int    `gorm:"default:0" json:"usage_count"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *ReplyTemplate) Validate() error {
	v := validator.New()

	if err := v.Struct(t); err != nil {
		return err
	}
	return nil
}

// Matches reports whether the star rating falls inside the template's range
func (t *ReplyTemplate) Matches(starRating int) bool {
	return t.MinRating <= starRating && starRating <= t.MaxRating
}
