package models

import (
	"time"
)

// BusinessAccount is one connected Google Business Profile account of a user.
// Rows are replaced wholesale when the user re-syncs their account list.
type BusinessAccount struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"index;not null" json:"user_id"`
	AccountID   string `gorm:"type:varchar(255);not null" json:"account_id"`
	AccountName string `gorm:"type:varchar(255)" json:"account_name"`

	Locations []BusinessLocation `gorm:"foreignKey:BusinessAccountID" json:"locations,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BusinessLocation is a single location under a connected business account.
// LocationID is the external resource name used for review listing and replies.
type BusinessLocation struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	BusinessAccountID uint   `gorm:"index;not null" json:"business_account_id"`
	LocationID        string `gorm:"type:varchar(255);not null;index" json:"location_id"`
	LocationName      string `gorm:"type:varchar(255)" json:"location_name"`
	Address           string `gorm:"type:varchar(500)" json:"address"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
