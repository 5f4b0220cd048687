package repository

import (
	"github.com/reviewpilot/ReviewPilot/app/models"
	"gorm.io/gorm"
)

// templateRepository implements the TemplateRepository interface
type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a new template repository instance
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

// Create creates a new reply template
func (r *templateRepository) Create(template *models.ReplyTemplate) error {
	return r.db.Create(template).Error
}

// GetByID retrieves a template by its ID
func (r *templateRepository) GetByID(id uint) (*models.ReplyTemplate, error) {
	var template models.ReplyTemplate
	err := r.db.First(&template, id).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// GetByUser retrieves all templates of a user, newest first
func (r *templateRepository) GetByUser(userID uint) ([]models.ReplyTemplate, error) {
	var templates []models.ReplyTemplate
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&templates).Error
	return templates, err
}

// Update updates an existing template
func (r *templateRepository) Update(template *models.ReplyTemplate) error {
	return r.db.Save(template).Error
}

// Delete removes a template
func (r *templateRepository) Delete(id uint) error {
	return r.db.Delete(&models.ReplyTemplate{}, id).Error
}

// FindActiveMatching returns the user's active templates whose rating range
// contains starRating. Least used first so usage spreads across templates;
// id ascending as a deterministic tie-break.
func (r *templateRepository) FindActiveMatching(userID uint, starRating int) ([]models.ReplyTemplate, error) {
	var templates []models.ReplyTemplate
	err := r.db.
		Where("user_id = ? AND is_active = ?", userID, true).
		Where("min_rating <= ? AND max_rating >= ?", starRating, starRating).
		Order("usage_count ASC, id ASC").
		Find(&templates).Error
	return templates, err
}

// IncrementUsage bumps a template's usage counter by one
func (r *templateRepository) IncrementUsage(id uint) error {
	return r.db.Model(&models.ReplyTemplate{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
}
