package automation

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/reviewpilot/ReviewPilot/app/models"
	"github.com/reviewpilot/ReviewPilot/app/repository"
)

// Dispatch attempts to auto-reply to one pending review. Manual-mode users
// are never auto-replied; their reviews stay pending untouched. Any failure
// at generation or posting is persisted on the review as a failed outcome
// and reported back. Nothing is raised to the caller.
//
// Template usage counters increment on generation success even when the
// later platform submission fails; the counter tracks generations, not
// deliveries.
func (r *Runner) Dispatch(ctx context.Context, client PlatformClient, user *models.User, review *models.Review) ReviewOutcome {
	outcome := ReviewOutcome{
		ReviewID:       review.ID,
		GoogleReviewID: review.GoogleReviewID,
	}

	if user.ReplyMode == models.REPLY_MODE_MANUAL {
		outcome.Kind = OutcomeSkipped
		return outcome
	}

	result, err := r.generator.Generate(ctx, user, review, "")
	if err != nil {
		log.Errorf("[Automation] Error generating reply for review %d: %v", review.ID, err)
		r.persistFailure(review.ID, err)
		outcome.Kind = OutcomeFailed
		outcome.Error = err.Error()
		return outcome
	}
	outcome.Method = result.Method

	if err := client.UpdateReply(ctx, review.GoogleReviewID, result.Text); err != nil {
		log.Errorf("[Automation] Error posting reply for review %d: %v", review.ID, err)
		r.persistFailure(review.ID, err)
		outcome.Kind = OutcomeFailed
		outcome.Error = err.Error()
		return outcome
	}

	now := time.Now()
	err = r.reviews.UpdateReplyOutcome(review.ID, repository.ReplyOutcome{
		Status:         models.REPLY_STATUS_REPLIED,
		Method:         result.Method,
		Content:        result.Text,
		RepliedAt:      &now,
		TemplateUsed:   result.TemplateID,
		AIProviderUsed: result.Provider,
	})
	if err != nil {
		// The reply is live on the platform but the local record is stale;
		// next ingest will not re-create it thanks to the external id, so
		// only the bookkeeping is lost.
		log.Errorf("[Automation] Error persisting reply outcome for review %d: %v", review.ID, err)
		outcome.Kind = OutcomeFailed
		outcome.Error = err.Error()
		return outcome
	}

	log.Infof("[Automation] Auto-replied to review %d for user %d", review.ID, user.ID)
	outcome.Kind = OutcomeReplied
	return outcome
}

func (r *Runner) persistFailure(reviewID uint, cause error) {
	err := r.reviews.UpdateReplyOutcome(reviewID, repository.ReplyOutcome{
		Status: models.REPLY_STATUS_FAILED,
		Error:  cause.Error(),
	})
	if err != nil {
		log.Errorf("[Automation] Error persisting failure for review %d: %v", reviewID, err)
	}
}
