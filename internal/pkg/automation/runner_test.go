package automation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewpilot/ReviewPilot/app/models"
	"github.com/reviewpilot/ReviewPilot/app/repository"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/googlebusiness"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/replygen"
)

// --- fakes ---

type fakeUserRepo struct {
	candidates []models.User
	err        error
}

func (f *fakeUserRepo) Create(user *models.User) error                { return nil }
func (f *fakeUserRepo) GetByID(id uint) (*models.User, error)         { return nil, nil }
func (f *fakeUserRepo) GetByEmail(email string) (*models.User, error) { return nil, nil }
func (f *fakeUserRepo) Update(user *models.User) error                { return nil }
func (f *fakeUserRepo) Delete(id uint) error                          { return nil }
func (f *fakeUserRepo) List(offset, limit int) ([]models.User, error) { return nil, nil }
func (f *fakeUserRepo) Count() (int64, error)                         { return 0, nil }
func (f *fakeUserRepo) FindAutomationCandidates() ([]models.User, error) {
	return f.candidates, f.err
}
func (f *fakeUserRepo) UpdateGoogleTokens(userID uint, accessToken, refreshToken string, expiresAt *time.Time) error {
	return nil
}
func (f *fakeUserRepo) ClearGoogleConnection(userID uint) error { return nil }
func (f *fakeUserRepo) ReplaceBusinessAccounts(userID uint, accounts []models.BusinessAccount) error {
	return nil
}
func (f *fakeUserRepo) ReplaceLocations(accountRowID uint, locations []models.BusinessLocation) error {
	return nil
}

// fakeReviewRepo stores reviews keyed by external id, mirroring the unique
// index semantics of the real store.
type fakeReviewRepo struct {
	mu       sync.Mutex
	byExtID  map[string]*models.Review
	nextID   uint
	outcomes map[uint]repository.ReplyOutcome
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{
		byExtID:  make(map[string]*models.Review),
		outcomes: make(map[uint]repository.ReplyOutcome),
	}
}

func (f *fakeReviewRepo) GetByID(id uint) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.byExtID {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeReviewRepo) GetByGoogleReviewID(googleReviewID string) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.byExtID[googleReviewID]; ok {
		return r, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeReviewRepo) CreateIfAbsent(review *models.Review) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byExtID[review.GoogleReviewID]; exists {
		return false, nil
	}
	f.nextID++
	review.ID = f.nextID
	stored := *review
	f.byExtID[review.GoogleReviewID] = &stored
	return true, nil
}

func (f *fakeReviewRepo) ListByUser(userID uint, status, locationID string, offset, limit int) ([]models.Review, int64, error) {
	return nil, 0, nil
}

func (f *fakeReviewRepo) UpdateReplyOutcome(id uint, outcome repository.ReplyOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes[id] = outcome
	for _, r := range f.byExtID {
		if r.ID == id {
			r.ReplyStatus = outcome.Status
			r.ReplyMethod = outcome.Method
			r.ReplyContent = outcome.Content
			r.RepliedAt = outcome.RepliedAt
			r.ReplyError = outcome.Error
			r.TemplateUsed = outcome.TemplateUsed
			r.AIProviderUsed = outcome.AIProviderUsed
		}
	}
	return nil
}

func (f *fakeReviewRepo) CountByUserAndStatus(userID uint) (map[string]int64, error) {
	return nil, nil
}

// fakePlatform serves canned reviews per location and records posted replies.
type fakePlatform struct {
	mu       sync.Mutex
	reviews  map[string][]googlebusiness.RawReview
	listErr  map[string]error
	replyErr error
	replies  []postedReply
}

type postedReply struct {
	reviewID string
	comment  string
}

func (f *fakePlatform) ListReviews(ctx context.Context, locationID string, pageSize int) ([]googlebusiness.RawReview, error) {
	if err := f.listErr[locationID]; err != nil {
		return nil, err
	}
	return f.reviews[locationID], nil
}

func (f *fakePlatform) UpdateReply(ctx context.Context, reviewID, comment string) error {
	if f.replyErr != nil {
		return f.replyErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, postedReply{reviewID: reviewID, comment: comment})
	return nil
}

// fakeTemplateRepo backs the real generator in tests and records usage bumps.
type fakeTemplateRepo struct {
	templates []models.ReplyTemplate
	usage     map[uint]int
}

func newFakeTemplateRepo(templates ...models.ReplyTemplate) *fakeTemplateRepo {
	return &fakeTemplateRepo{templates: templates, usage: make(map[uint]int)}
}

func (f *fakeTemplateRepo) Create(template *models.ReplyTemplate) error           { return nil }
func (f *fakeTemplateRepo) GetByID(id uint) (*models.ReplyTemplate, error)        { return nil, nil }
func (f *fakeTemplateRepo) GetByUser(userID uint) ([]models.ReplyTemplate, error) { return nil, nil }
func (f *fakeTemplateRepo) Update(template *models.ReplyTemplate) error           { return nil }
func (f *fakeTemplateRepo) Delete(id uint) error                                  { return nil }

func (f *fakeTemplateRepo) FindActiveMatching(userID uint, starRating int) ([]models.ReplyTemplate, error) {
	var matches []models.ReplyTemplate
	for _, tmpl := range f.templates {
		if tmpl.UserID == userID && tmpl.IsActive && tmpl.Matches(starRating) {
			matches = append(matches, tmpl)
		}
	}
	return matches, nil
}

func (f *fakeTemplateRepo) IncrementUsage(id uint) error {
	f.usage[id]++
	return nil
}

type fakeGenerator struct {
	result *replygen.Result
	err    error
	calls  int
}

func (f *fakeGenerator) Generate(ctx context.Context, user *models.User, review *models.Review, mode string) (*replygen.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// --- helpers ---

func activeUser(id uint, mode string) models.User {
	expiry := time.Now().Add(24 * time.Hour)
	return models.User{
		ID:                    id,
		Email:                 "user@example.com",
		Role:                  models.ROLE_USER,
		Status:                models.STATUS_ACTIVE,
		SetupFeePaid:          true,
		SubscriptionActive:    true,
		SubscriptionExpiresAt: &expiry,
		ReplyMode:             mode,
		BusinessAccounts: []models.BusinessAccount{
			{
				ID: 1,
				Locations: []models.BusinessLocation{
					{ID: 1, LocationID: "accounts/1/locations/1", LocationName: "Joe's Cafe"},
				},
			},
		},
	}
}

func rawReview(name, rating, comment string) googlebusiness.RawReview {
	r := googlebusiness.RawReview{
		Name:       name,
		StarRating: rating,
		Comment:    comment,
		CreateTime: time.Now().Add(-time.Hour),
	}
	r.Reviewer.DisplayName = "Sam"
	return r
}

func newTestRunner(users *fakeUserRepo, reviews *fakeReviewRepo, gen ReplyGenerator, platform PlatformClient) *Runner {
	r := NewRunner(users, reviews, gen, func(*models.User) PlatformClient { return platform }, 20, 0)
	r.sleep = func(ctx context.Context, d time.Duration) {}
	return r
}

// --- tests ---

func TestRunRepliesWithTemplate(t *testing.T) {
	platform := &fakePlatform{
		reviews: map[string][]googlebusiness.RawReview{
			"accounts/1/locations/1": {rawReview("accounts/1/locations/1/reviews/r1", "TWO", "Bad service")},
		},
	}
	reviews := newFakeReviewRepo()
	tmplID := uint(7)
	gen := &fakeGenerator{result: &replygen.Result{
		Text:       "Sorry, Sam.",
		Method:     models.REPLY_METHOD_TEMPLATE,
		TemplateID: &tmplID,
	}}
	users := &fakeUserRepo{candidates: []models.User{activeUser(1, models.REPLY_MODE_TEMPLATE)}}

	report := newTestRunner(users, reviews, gen, platform).Run(context.Background())

	assert.Equal(t, 1, report.TotalDiscovered())
	assert.Equal(t, 1, report.TotalReplied())
	assert.Equal(t, 0, report.TotalFailed())

	require.Len(t, platform.replies, 1)
	assert.Equal(t, "accounts/1/locations/1/reviews/r1", platform.replies[0].reviewID)
	assert.Equal(t, "Sorry, Sam.", platform.replies[0].comment)

	stored, err := reviews.GetByGoogleReviewID("accounts/1/locations/1/reviews/r1")
	require.NoError(t, err)
	assert.Equal(t, models.REPLY_STATUS_REPLIED, stored.ReplyStatus)
	assert.Equal(t, models.REPLY_METHOD_TEMPLATE, stored.ReplyMethod)
	assert.Equal(t, "Sorry, Sam.", stored.ReplyContent)
	require.NotNil(t, stored.TemplateUsed)
	assert.Equal(t, uint(7), *stored.TemplateUsed)
	assert.NotNil(t, stored.RepliedAt)
}

func TestRunIsIdempotent(t *testing.T) {
	platform := &fakePlatform{
		reviews: map[string][]googlebusiness.RawReview{
			"accounts/1/locations/1": {rawReview("accounts/1/locations/1/reviews/r1", "FIVE", "Great!")},
		},
	}
	reviews := newFakeReviewRepo()
	gen := &fakeGenerator{result: &replygen.Result{Text: "Thanks!", Method: models.REPLY_METHOD_AI, Provider: "openai"}}
	users := &fakeUserRepo{candidates: []models.User{activeUser(1, models.REPLY_MODE_AI)}}

	runner := newTestRunner(users, reviews, gen, platform)

	first := runner.Run(context.Background())
	assert.Equal(t, 1, first.TotalDiscovered())
	assert.Equal(t, 1, first.TotalReplied())

	// Second run sees the same platform reviews but discovers nothing new.
	second := runner.Run(context.Background())
	assert.Equal(t, 0, second.TotalDiscovered())
	assert.Equal(t, 0, second.TotalReplied())
	assert.Len(t, platform.replies, 1, "the same review must not be answered twice")
}

func TestRunSkipsUsersWithoutAccess(t *testing.T) {
	platform := &fakePlatform{
		reviews: map[string][]googlebusiness.RawReview{
			"accounts/1/locations/1": {rawReview("accounts/1/locations/1/reviews/r1", "FIVE", "Great!")},
		},
	}
	reviews := newFakeReviewRepo()
	gen := &fakeGenerator{result: &replygen.Result{Text: "Thanks!", Method: models.REPLY_METHOD_AI}}

	lapsed := activeUser(1, models.REPLY_MODE_AI)
	lapsed.SubscriptionActive = false
	users := &fakeUserRepo{candidates: []models.User{lapsed}}

	report := newTestRunner(users, reviews, gen, platform).Run(context.Background())

	require.Len(t, report.Accounts, 1)
	assert.True(t, report.Accounts[0].SkippedNoAccess)
	assert.Equal(t, 0, report.TotalDiscovered())
	assert.Empty(t, platform.replies)
	assert.Equal(t, 0, gen.calls)
	assert.Empty(t, reviews.byExtID, "nothing may be stored for a locked account")
}

func TestRunStoresPlatformRepliedReviewsAsReplied(t *testing.T) {
	answered := rawReview("accounts/1/locations/1/reviews/r1", "FOUR", "Nice")
	answered.Reply = &googlebusiness.ReviewReply{
		Comment:    "Thanks for coming in!",
		UpdateTime: time.Now().Add(-30 * time.Minute),
	}
	platform := &fakePlatform{
		reviews: map[string][]googlebusiness.RawReview{
			"accounts/1/locations/1": {answered},
		},
	}
	reviews := newFakeReviewRepo()
	gen := &fakeGenerator{result: &replygen.Result{Text: "Thanks!", Method: models.REPLY_METHOD_AI}}
	users := &fakeUserRepo{candidates: []models.User{activeUser(1, models.REPLY_MODE_AI)}}

	report := newTestRunner(users, reviews, gen, platform).Run(context.Background())

	assert.Equal(t, 0, report.TotalDiscovered(), "already answered reviews are not new work")
	assert.Empty(t, platform.replies)

	stored, err := reviews.GetByGoogleReviewID("accounts/1/locations/1/reviews/r1")
	require.NoError(t, err)
	assert.Equal(t, models.REPLY_STATUS_REPLIED, stored.ReplyStatus)
	assert.Equal(t, "Thanks for coming in!", stored.ReplyContent)
}

func TestRunRecordsGenerationFailure(t *testing.T) {
	platform := &fakePlatform{
		reviews: map[string][]googlebusiness.RawReview{
			"accounts/1/locations/1": {rawReview("accounts/1/locations/1/reviews/r1", "THREE", "Okay")},
		},
	}
	reviews := newFakeReviewRepo()
	gen := &fakeGenerator{err: replygen.ErrNoMatchingTemplate}
	users := &fakeUserRepo{candidates: []models.User{activeUser(1, models.REPLY_MODE_TEMPLATE)}}

	report := newTestRunner(users, reviews, gen, platform).Run(context.Background())

	assert.Equal(t, 1, report.TotalDiscovered())
	assert.Equal(t, 1, report.TotalFailed())
	assert.Empty(t, platform.replies)

	stored, err := reviews.GetByGoogleReviewID("accounts/1/locations/1/reviews/r1")
	require.NoError(t, err)
	assert.Equal(t, models.REPLY_STATUS_FAILED, stored.ReplyStatus)
	assert.Contains(t, stored.ReplyError, "no matching reply template")
}

func TestRunRecordsPostFailure(t *testing.T) {
	platform := &fakePlatform{
		reviews: map[string][]googlebusiness.RawReview{
			"accounts/1/locations/1": {rawReview("accounts/1/locations/1/reviews/r1", "FIVE", "Great!")},
		},
		replyErr: errors.New("rate limited"),
	}
	reviews := newFakeReviewRepo()
	gen := &fakeGenerator{result: &replygen.Result{Text: "Thanks!", Method: models.REPLY_METHOD_AI}}
	users := &fakeUserRepo{candidates: []models.User{activeUser(1, models.REPLY_MODE_AI)}}

	report := newTestRunner(users, reviews, gen, platform).Run(context.Background())

	assert.Equal(t, 1, report.TotalFailed())

	stored, err := reviews.GetByGoogleReviewID("accounts/1/locations/1/reviews/r1")
	require.NoError(t, err)
	assert.Equal(t, models.REPLY_STATUS_FAILED, stored.ReplyStatus)
	assert.Contains(t, stored.ReplyError, "rate limited")
}

// Template usage counts increment at generation time and stay incremented
// when the platform post afterwards fails. The counter steers rotation, it
// is not a delivery record.
func TestRunKeepsUsageBumpWhenPostFails(t *testing.T) {
	platform := &fakePlatform{
		reviews: map[string][]googlebusiness.RawReview{
			"accounts/1/locations/1": {rawReview("accounts/1/locations/1/reviews/r1", "FIVE", "Great!")},
		},
		replyErr: errors.New("backend error"),
	}
	reviews := newFakeReviewRepo()
	templates := newFakeTemplateRepo(models.ReplyTemplate{
		ID:        7,
		UserID:    1,
		Name:      "Thanks",
		MinRating: 4,
		MaxRating: 5,
		Content:   "Thanks, {{reviewer_name}}!",
		IsActive:  true,
	})
	gen := replygen.NewGenerator(templates)
	users := &fakeUserRepo{candidates: []models.User{activeUser(1, models.REPLY_MODE_TEMPLATE)}}

	report := newTestRunner(users, reviews, gen, platform).Run(context.Background())

	assert.Equal(t, 1, report.TotalFailed())
	assert.Equal(t, 1, templates.usage[7], "generation already consumed the template")

	stored, err := reviews.GetByGoogleReviewID("accounts/1/locations/1/reviews/r1")
	require.NoError(t, err)
	assert.Equal(t, models.REPLY_STATUS_FAILED, stored.ReplyStatus)
	assert.Contains(t, stored.ReplyError, "backend error")
}

func TestRunContinuesAfterLocationError(t *testing.T) {
	user := activeUser(1, models.REPLY_MODE_AI)
	user.BusinessAccounts[0].Locations = append(user.BusinessAccounts[0].Locations,
		models.BusinessLocation{ID: 2, LocationID: "accounts/1/locations/2", LocationName: "Joe's Bar"})

	platform := &fakePlatform{
		reviews: map[string][]googlebusiness.RawReview{
			"accounts/1/locations/2": {rawReview("accounts/1/locations/2/reviews/r9", "FIVE", "Great!")},
		},
		listErr: map[string]error{
			"accounts/1/locations/1": errors.New("backend error"),
		},
	}
	reviews := newFakeReviewRepo()
	gen := &fakeGenerator{result: &replygen.Result{Text: "Thanks!", Method: models.REPLY_METHOD_AI}}
	users := &fakeUserRepo{candidates: []models.User{user}}

	report := newTestRunner(users, reviews, gen, platform).Run(context.Background())

	require.Len(t, report.Accounts, 1)
	assert.Len(t, report.Accounts[0].IngestErrors, 1)
	assert.Equal(t, 1, report.TotalDiscovered(), "healthy sibling location still processed")
	assert.Equal(t, 1, report.TotalReplied())
}

func TestRunSkipsManualModeReviews(t *testing.T) {
	platform := &fakePlatform{
		reviews: map[string][]googlebusiness.RawReview{
			"accounts/1/locations/1": {rawReview("accounts/1/locations/1/reviews/r1", "FIVE", "Great!")},
		},
	}
	reviews := newFakeReviewRepo()
	gen := &fakeGenerator{result: &replygen.Result{Text: "Thanks!", Method: models.REPLY_METHOD_AI}}

	// Manual users would normally not be candidates; if one slips through,
	// dispatch must still leave their reviews alone.
	users := &fakeUserRepo{candidates: []models.User{activeUser(1, models.REPLY_MODE_MANUAL)}}

	report := newTestRunner(users, reviews, gen, platform).Run(context.Background())

	require.Len(t, report.Accounts, 1)
	assert.Equal(t, 1, report.Accounts[0].Skipped())
	assert.Empty(t, platform.replies)
	assert.Equal(t, 0, gen.calls)

	stored, err := reviews.GetByGoogleReviewID("accounts/1/locations/1/reviews/r1")
	require.NoError(t, err)
	assert.Equal(t, models.REPLY_STATUS_PENDING, stored.ReplyStatus)
}

func TestRunCandidateLoadFailure(t *testing.T) {
	users := &fakeUserRepo{err: errors.New("db down")}
	report := newTestRunner(users, newFakeReviewRepo(), &fakeGenerator{}, &fakePlatform{}).Run(context.Background())

	assert.Equal(t, "db down", report.Error)
	assert.Empty(t, report.Accounts)
}

func TestRunPacesBetweenReplies(t *testing.T) {
	platform := &fakePlatform{
		reviews: map[string][]googlebusiness.RawReview{
			"accounts/1/locations/1": {
				rawReview("accounts/1/locations/1/reviews/r1", "FIVE", "Great!"),
				rawReview("accounts/1/locations/1/reviews/r2", "FOUR", "Nice"),
			},
		},
	}
	reviews := newFakeReviewRepo()
	gen := &fakeGenerator{result: &replygen.Result{Text: "Thanks!", Method: models.REPLY_METHOD_AI}}
	users := &fakeUserRepo{candidates: []models.User{activeUser(1, models.REPLY_MODE_AI)}}

	runner := NewRunner(users, reviews, gen, func(*models.User) PlatformClient { return platform }, 20, 2*time.Second)

	var slept []time.Duration
	runner.sleep = func(ctx context.Context, d time.Duration) {
		slept = append(slept, d)
	}

	report := runner.Run(context.Background())

	assert.Equal(t, 2, report.TotalReplied())
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, slept)
}
