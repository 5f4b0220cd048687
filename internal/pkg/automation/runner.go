package automation

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/reviewpilot/ReviewPilot/app/models"
	"github.com/reviewpilot/ReviewPilot/app/repository"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/googlebusiness"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/replygen"
)

// PlatformClient is the slice of the Google Business Profile client the
// runner needs. Satisfied by *googlebusiness.Client.
type PlatformClient interface {
	ListReviews(ctx context.Context, locationID string, pageSize int) ([]googlebusiness.RawReview, error)
	UpdateReply(ctx context.Context, reviewID, comment string) error
}

// ClientFactory builds a platform client for one user's credentials.
type ClientFactory func(user *models.User) PlatformClient

// ReplyGenerator produces reply text. Satisfied by *replygen.Generator.
type ReplyGenerator interface {
	Generate(ctx context.Context, user *models.User, review *models.Review, mode string) (*replygen.Result, error)
}

// Runner drives one automation tick: candidate selection, ingestion and
// dispatch. Accounts and reviews are processed strictly sequentially; the
// pacing delay between replies is the only throttle against the platform's
// per-account rate limits.
type Runner struct {
	users     repository.UserRepository
	reviews   repository.ReviewRepository
	generator ReplyGenerator
	newClient ClientFactory

	pageSize int
	pacing   time.Duration

	// sleep is swappable in tests
	sleep func(ctx context.Context, d time.Duration)
}

// NewRunner wires a runner from its collaborators.
func NewRunner(users repository.UserRepository, reviews repository.ReviewRepository, generator ReplyGenerator, newClient ClientFactory, pageSize int, pacing time.Duration) *Runner {
	return &Runner{
		users:     users,
		reviews:   reviews,
		generator: generator,
		newClient: newClient,
		pageSize:  pageSize,
		pacing:    pacing,
		sleep:     sleepWithContext,
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// Run executes one full automation pass over all eligible accounts.
func (r *Runner) Run(ctx context.Context) *RunReport {
	report := &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}

	users, err := r.users.FindAutomationCandidates()
	if err != nil {
		report.Error = err.Error()
		report.FinishedAt = time.Now()
		log.Errorf("[Automation] Failed to load candidates: %v", err)
		return report
	}

	log.Infof("[Automation] Checking %d users...", len(users))

	for i := range users {
		user := &users[i]
		acct := r.processUser(ctx, user)
		report.Accounts = append(report.Accounts, acct)

		if ctx.Err() != nil {
			report.Error = ctx.Err().Error()
			break
		}
	}

	report.FinishedAt = time.Now()
	log.Infof("[Automation] Run %s complete: %d discovered, %d replied, %d failed in %s",
		report.RunID, report.TotalDiscovered(), report.TotalReplied(), report.TotalFailed(), report.Duration())
	return report
}

// processUser ingests and dispatches for one account. Every failure inside
// is recorded on the account report; nothing escapes to abort the run.
func (r *Runner) processUser(ctx context.Context, user *models.User) AccountReport {
	acct := AccountReport{UserID: user.ID, Email: user.Email}

	// Paywall state can change between ticks; re-derive it now and skip
	// without mutating anything when access lapsed.
	if !user.HasActiveAccess() {
		acct.SkippedNoAccess = true
		return acct
	}

	client := r.newClient(user)

	newReviews := r.Ingest(ctx, client, user, &acct)
	acct.Discovered = len(newReviews)
	log.Infof("[Automation] User %s: %d new reviews", user.Email, len(newReviews))

	for i := range newReviews {
		outcome := r.Dispatch(ctx, client, user, &newReviews[i])
		acct.Outcomes = append(acct.Outcomes, outcome)

		// Pace write calls against the platform's rate limits.
		r.sleep(ctx, r.pacing)
		if ctx.Err() != nil {
			break
		}
	}

	return acct
}
