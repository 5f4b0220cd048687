package repository

import (
	"time"

	"github.com/reviewpilot/ReviewPilot/app/models"
	"gorm.io/gorm"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.Preload("BusinessAccounts.Locations").First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates an existing user in the database
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// Delete soft-deletes a user
func (r *userRepository) Delete(id uint) error {
	return r.db.Delete(&models.User{}, id).Error
}

// List retrieves users with pagination
func (r *userRepository) List(offset, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.Offset(offset).Limit(limit).Order("created_at DESC").Find(&users).Error
	return users, err
}

// Count returns the total number of users
func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

// FindAutomationCandidates returns active, Google-connected users whose reply
// mode allows auto-replies. Paywall access is re-checked by the caller at run
// time, not here.
func (r *userRepository) FindAutomationCandidates() ([]models.User, error) {
	var users []models.User
	err := r.db.
		Preload("BusinessAccounts.Locations").
		Where("status = ?", models.STATUS_ACTIVE).
		Where("google_access_token IS NOT NULL AND google_access_token <> ''").
		Where("reply_mode IN ?", []string{models.REPLY_MODE_AI, models.REPLY_MODE_TEMPLATE}).
		Find(&users).Error
	return users, err
}

// UpdateGoogleTokens stores a fresh OAuth credential set for the user
func (r *userRepository) UpdateGoogleTokens(userID uint, accessToken, refreshToken string, expiresAt *time.Time) error {
	updates := map[string]interface{}{
		"google_access_token":     accessToken,
		"google_token_expires_at": expiresAt,
	}
	// A refresh grant is only delivered on first consent; keep the old one
	// when the provider omits it.
	if refreshToken != "" {
		updates["google_refresh_token"] = refreshToken
	}
	return r.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
}

// ClearGoogleConnection removes the stored credentials and connected accounts
func (r *userRepository) ClearGoogleConnection(userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"google_access_token":     "",
			"google_refresh_token":    "",
			"google_token_expires_at": nil,
		}).Error; err != nil {
			return err
		}
		return deleteBusinessAccounts(tx, userID)
	})
}

// ReplaceBusinessAccounts swaps the user's connected account list wholesale
func (r *userRepository) ReplaceBusinessAccounts(userID uint, accounts []models.BusinessAccount) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteBusinessAccounts(tx, userID); err != nil {
			return err
		}
		for i := range accounts {
			accounts[i].UserID = userID
			if err := tx.Create(&accounts[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceLocations swaps the location list of one connected account
func (r *userRepository) ReplaceLocations(accountRowID uint, locations []models.BusinessLocation) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("business_account_id = ?", accountRowID).
			Delete(&models.BusinessLocation{}).Error; err != nil {
			return err
		}
		for i := range locations {
			locations[i].BusinessAccountID = accountRowID
			if err := tx.Create(&locations[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func deleteBusinessAccounts(tx *gorm.DB, userID uint) error {
	var accountIDs []uint
	if err := tx.Model(&models.BusinessAccount{}).
		Where("user_id = ?", userID).
		Pluck("id", &accountIDs).Error; err != nil {
		return err
	}
	if len(accountIDs) > 0 {
		if err := tx.Where("business_account_id IN ?", accountIDs).
			Delete(&models.BusinessLocation{}).Error; err != nil {
			return err
		}
	}
	return tx.Where("user_id = ?", userID).Delete(&models.BusinessAccount{}).Error
}
