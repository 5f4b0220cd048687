package repository

import (
	"github.com/reviewpilot/ReviewPilot/app/models"
	"gorm.io/gorm"
)

// settingRepository implements the SettingRepository interface
type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new setting repository instance
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

// Get returns the in-memory settings, loading them from the DB on first use
func (r *settingRepository) Get() (*models.AppSettings, error) {
	if s := models.GetAppSettings(); s != nil {
		return s, nil
	}
	if err := models.LoadSettings(r.db); err != nil {
		return nil, err
	}
	return models.GetAppSettings(), nil
}

// Save persists settings and refreshes the in-memory copy
func (r *settingRepository) Save(settings *models.AppSettings) error {
	return models.SaveSettings(r.db, settings)
}

// GetValue reads a single raw setting value
func (r *settingRepository) GetValue(key string) (string, error) {
	var setting models.Setting
	if err := r.db.Where("setting_key = ?", key).First(&setting).Error; err != nil {
		return "", err
	}
	return setting.Value, nil
}

// SetValue writes a single raw setting value
func (r *settingRepository) SetValue(key, value string) error {
	var setting models.Setting
	err := r.db.Where("setting_key = ?", key).First(&setting).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return r.db.Create(&models.Setting{Key: key, Value: value, Type: "string"}).Error
		}
		return err
	}
	setting.Value = value
	return r.db.Save(&setting).Error
}
