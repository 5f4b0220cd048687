package automation

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/reviewpilot/ReviewPilot/app/models"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/googlebusiness"
)

// Ingest pulls reviews for every connected location of the user and stores
// the ones not seen before. Reviews that already carry a reply on the
// platform are stored as replied so they are never auto-answered again.
// Returns only newly created reviews still pending a reply. Per-location
// failures are recorded on the account report and do not stop sibling
// locations.
func (r *Runner) Ingest(ctx context.Context, client PlatformClient, user *models.User, acct *AccountReport) []models.Review {
	var newPending []models.Review

	for ai := range user.BusinessAccounts {
		for li := range user.BusinessAccounts[ai].Locations {
			location := &user.BusinessAccounts[ai].Locations[li]

			raws, err := client.ListReviews(ctx, location.LocationID, r.pageSize)
			if err != nil {
				log.Errorf("[Automation] Error fetching reviews for location %s: %v", location.LocationID, err)
				acct.IngestErrors = append(acct.IngestErrors,
					fmt.Sprintf("location %s: %v", location.LocationID, err))
				continue
			}

			for i := range raws {
				created, review, err := r.storeIfNew(user, location, &raws[i])
				if err != nil {
					log.Errorf("[Automation] Error storing review %s: %v", raws[i].Name, err)
					acct.IngestErrors = append(acct.IngestErrors,
						fmt.Sprintf("review %s: %v", raws[i].Name, err))
					continue
				}
				if created && review.IsPending() {
					newPending = append(newPending, *review)
				}
			}
		}
	}

	return newPending
}

// storeIfNew inserts the raw review unless its external id is already known.
// Duplicate detection is by external identifier only; an existing row is
// never touched here.
func (r *Runner) storeIfNew(user *models.User, location *models.BusinessLocation, raw *googlebusiness.RawReview) (bool, *models.Review, error) {
	review := NewReviewFromRaw(user.ID, location, raw)

	created, err := r.reviews.CreateIfAbsent(review)
	if err != nil {
		return false, nil, err
	}
	return created, review, nil
}

// NewReviewFromRaw maps a platform review onto a local record. A reply
// already present on the platform means a human answered outside this
// system, so the record starts out replied instead of pending.
func NewReviewFromRaw(userID uint, location *models.BusinessLocation, raw *googlebusiness.RawReview) *models.Review {
	review := &models.Review{
		UserID:           userID,
		GoogleReviewID:   raw.Name,
		LocationID:       location.LocationID,
		LocationName:     location.LocationName,
		ReviewerName:     reviewerNameOrDefault(raw.Reviewer.DisplayName),
		ReviewerPhotoURL: raw.Reviewer.ProfilePhotoURL,
		StarRating:       googlebusiness.ParseStarRating(raw.StarRating),
		Comment:          raw.Comment,
		ReviewCreatedAt:  raw.CreateTime,
		ReplyStatus:      models.REPLY_STATUS_PENDING,
	}

	if raw.Reply != nil {
		review.ReplyStatus = models.REPLY_STATUS_REPLIED
		review.ReplyContent = raw.Reply.Comment
		repliedAt := raw.Reply.UpdateTime
		review.RepliedAt = &repliedAt
	}

	return review
}

func reviewerNameOrDefault(name string) string {
	if name == "" {
		return "Anonymous"
	}
	return name
}
