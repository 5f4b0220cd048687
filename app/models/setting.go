package models

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Setting represents a system setting
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type" validate:"required"` // string, boolean, integer
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppSettings represents the application settings structure
type AppSettings struct {
	SiteTitle                 string `json:"site_title" validate:"required,min=1,max=255"`
	AutomationEnabled         bool   `json:"automation_enabled"`
	AutomationIntervalMinutes int    `json:"automation_interval_minutes" validate:"min=1"`
	ReplyPacingSeconds        int    `json:"reply_pacing_seconds" validate:"min=0"`
	ReviewPageSize            int    `json:"review_page_size" validate:"min=1,max=50"`
	SetupFeeAmount            int64  `json:"setup_fee_amount"`
	SubscriptionAmount        int64  `json:"subscription_amount"`
	mu                        sync.RWMutex
}

// Global settings instance
var (
	appSettings *AppSettings
	settingsMu  sync.RWMutex
)

// GetAppSettings returns the current application settings
func GetAppSettings() *AppSettings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return appSettings
}

// LoadSettings loads settings from database into memory
func LoadSettings(db *gorm.DB) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	// Initialize with defaults
	appSettings = &AppSettings{
		SiteTitle:                 "ReviewPilot",
		AutomationEnabled:         true,
		AutomationIntervalMinutes: 15,
		ReplyPacingSeconds:        2,
		ReviewPageSize:            20,
		SetupFeeAmount:            499900, // 4999 INR in paise
		SubscriptionAmount:        99900,  // 999 INR in paise
	}

	// Load settings from database
	var settings []Setting
	if err := db.Find(&settings).Error; err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Apply loaded settings
	for _, setting := range settings {
		switch setting.Key {
		case "site_title":
			appSettings.SiteTitle = setting.Value
		case "automation_enabled":
			appSettings.AutomationEnabled = setting.Value == "true"
		case "automation_interval_minutes":
			if v, err := strconv.Atoi(setting.Value); err == nil && v > 0 {
				appSettings.AutomationIntervalMinutes = v
			}
		case "reply_pacing_seconds":
			if v, err := strconv.Atoi(setting.Value); err == nil && v >= 0 {
				appSettings.ReplyPacingSeconds = v
			}
		case "review_page_size":
			if v, err := strconv.Atoi(setting.Value); err == nil && v > 0 {
				appSettings.ReviewPageSize = v
			}
		case "setup_fee_amount":
			if v, err := strconv.ParseInt(setting.Value, 10, 64); err == nil && v > 0 {
				appSettings.SetupFeeAmount = v
			}
		case "subscription_amount":
			if v, err := strconv.ParseInt(setting.Value, 10, 64); err == nil && v > 0 {
				appSettings.SubscriptionAmount = v
			}
		}
	}

	return nil
}

// SaveSettings saves current settings to database
func SaveSettings(db *gorm.DB, settings *AppSettings) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	// Validate settings
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	settingsMap := map[string]interface{}{
		"site_title":                  settings.SiteTitle,
		"automation_enabled":          fmt.Sprintf("%t", settings.AutomationEnabled),
		"automation_interval_minutes": strconv.Itoa(settings.AutomationIntervalMinutes),
		"reply_pacing_seconds":        strconv.Itoa(settings.ReplyPacingSeconds),
		"review_page_size":            strconv.Itoa(settings.ReviewPageSize),
		"setup_fee_amount":            strconv.FormatInt(settings.SetupFeeAmount, 10),
		"subscription_amount":         strconv.FormatInt(settings.SubscriptionAmount, 10),
	}

	// Save each setting
	for key, value := range settingsMap {
		var setting Setting
		result := db.Where("setting_key = ?", key).First(&setting)

		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				// Create new setting
				setting = Setting{
					Key:   key,
					Value: fmt.Sprintf("%v", value),
					Type:  getSettingType(key),
				}
				if err := db.Create(&setting).Error; err != nil {
					return fmt.Errorf("failed to create setting %s: %w", key, err)
				}
			} else {
				return fmt.Errorf("failed to query setting %s: %w", key, result.Error)
			}
		} else {
			// Update existing setting
			setting.Value = fmt.Sprintf("%v", value)
			if err := db.Save(&setting).Error; err != nil {
				return fmt.Errorf("failed to update setting %s: %w", key, err)
			}
		}
	}

	appSettings = settings
	return nil
}

func getSettingType(key string) string {
	switch key {
	case "automation_enabled":
		return "boolean"
	case "automation_interval_minutes", "reply_pacing_seconds", "review_page_size",
		"setup_fee_amount", "subscription_amount":
		return "integer"
	default:
		return "string"
	}
}

func (s *AppSettings) Validate() error {
	v := validator.New()

	return v.Struct(s)
}

// GetAutomationInterval returns the scheduler tick interval with fallback
func (s *AppSettings) GetAutomationInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.AutomationIntervalMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.AutomationIntervalMinutes) * time.Minute
}

// GetReplyPacing returns the delay between consecutive auto-replies
func (s *AppSettings) GetReplyPacing() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ReplyPacingSeconds < 0 {
		return 2 * time.Second
	}
	return time.Duration(s.ReplyPacingSeconds) * time.Second
}

// GetReviewPageSize returns the page size used against the review API
func (s *AppSettings) GetReviewPageSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ReviewPageSize <= 0 {
		return 20
	}
	return s.ReviewPageSize
}

// IsAutomationEnabled reports whether the background scheduler should run
func (s *AppSettings) IsAutomationEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.AutomationEnabled
}
