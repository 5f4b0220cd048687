package repository

import (
	"errors"
	"strings"

	"github.com/reviewpilot/ReviewPilot/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// reviewRepository implements the ReviewRepository interface
type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository creates a new review repository instance
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// GetByID retrieves a review by its ID
func (r *reviewRepository) GetByID(id uint) (*models.Review, error) {
	var review models.Review
	err := r.db.First(&review, id).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// GetByGoogleReviewID retrieves a review by its external identifier
func (r *reviewRepository) GetByGoogleReviewID(googleReviewID string) (*models.Review, error) {
	var review models.Review
	err := r.db.Where("google_review_id = ?", googleReviewID).First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// CreateIfAbsent inserts a review unless one with the same external id
// already exists. The unique index on google_review_id makes this atomic:
// whichever path (manual sync or automation tick) wins the insert, the loser
// sees a no-op instead of a duplicate row.
func (r *reviewRepository) CreateIfAbsent(review *models.Review) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "google_review_id"}},
		DoNothing: true,
	}).Create(review)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

// ListByUser retrieves a user's reviews with optional status/location filters
func (r *reviewRepository) ListByUser(userID uint, status, locationID string, offset, limit int) ([]models.Review, int64, error) {
	query := r.db.Model(&models.Review{}).Where("user_id = ?", userID)
	if s := strings.TrimSpace(status); s != "" {
		query = query.Where("reply_status = ?", s)
	}
	if l := strings.TrimSpace(locationID); l != "" {
		query = query.Where("location_id = ?", l)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	err := query.Order("review_created_at DESC").Offset(offset).Limit(limit).Find(&reviews).Error
	return reviews, total, err
}

// UpdateReplyOutcome persists the result of a reply attempt
func (r *reviewRepository) UpdateReplyOutcome(id uint, outcome ReplyOutcome) error {
	if outcome.Status == "" {
		return errors.New("reply outcome requires a status")
	}
	updates := map[string]interface{}{
		"reply_status":     outcome.Status,
		"reply_method":     outcome.Method,
		"reply_content":    outcome.Content,
		"replied_at":       outcome.RepliedAt,
		"reply_error":      outcome.Error,
		"template_used":    outcome.TemplateUsed,
		"ai_provider_used": outcome.AIProviderUsed,
	}
	return r.db.Model(&models.Review{}).Where("id = ?", id).Updates(updates).Error
}

// CountByUserAndStatus returns review counts grouped by reply status
func (r *reviewRepository) CountByUserAndStatus(userID uint) (map[string]int64, error) {
	type row struct {
		ReplyStatus string
		Total       int64
	}
	var rows []row
	err := r.db.Model(&models.Review{}).
		Select("reply_status, COUNT(*) as total").
		Where("user_id = ?", userID).
		Group("reply_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.ReplyStatus] = rw.Total
	}
	return counts, nil
}
