package automation

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/reviewpilot/ReviewPilot/app/models"
	"github.com/reviewpilot/ReviewPilot/app/repository"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/cache"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/googlebusiness"
	metrics "github.com/reviewpilot/ReviewPilot/internal/pkg/metrics/counter"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/replygen"
)

const runLockKey = "automation:run_lock"

// Manager owns the automation scheduler lifecycle: a single ticker that
// triggers sequential runs, plus the Redis run guard keeping overlapping
// ticks from processing the same accounts twice.
type Manager struct {
	ticker  *time.Ticker
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool

	lastReport *RunReport
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global automation manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = &Manager{
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// Start starts the periodic automation runs
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	interval := 15 * time.Minute
	if settings := getAppSettings(); settings != nil {
		interval = settings.GetAutomationInterval()
	}

	// Recreate stop channel for each start cycle so the manager can be
	// restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true

	m.ticker = time.NewTicker(interval)
	m.wg.Add(1)
	go m.loop(m.stopCh, m.ticker)

	log.Infof("[Automation] Scheduled to run every %s", interval)
}

// Stop stops the scheduler and waits for an in-flight run to return
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}

	log.Info("[Automation] Stopping scheduler...")

	if m.ticker != nil {
		m.ticker.Stop()
	}
	close(m.stopCh)
	m.running = false
	m.mu.Unlock()

	// Wait outside the lock: an in-flight run still needs it to store its
	// report before the loop goroutine can exit.
	m.wg.Wait()
	log.Info("[Automation] Scheduler stopped")
}

// IsRunning returns whether the scheduler is currently started
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// LastReport returns the report of the most recent run, if any
func (m *Manager) LastReport() *RunReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReport
}

// loop takes the stop channel and ticker as arguments so it never touches
// manager fields that Start reassigns on a later cycle.
func (m *Manager) loop(stopCh <-chan struct{}, ticker *time.Ticker) {
	defer m.wg.Done()
	for {
		select {
		case <-stopCh:
			log.Info("[Automation] Run loop stopping")
			return
		case <-ticker.C:
			m.RunNow(context.Background())
		}
	}
}

// RunNow executes one automation run immediately. Also used by the admin
// trigger endpoint. Returns nil when the run was skipped (disabled or
// another run in flight).
func (m *Manager) RunNow(ctx context.Context) *RunReport {
	settings := getAppSettings()
	if settings != nil && !settings.IsAutomationEnabled() {
		log.Debug("[Automation] Skipping run: automation disabled")
		return nil
	}

	interval := 15 * time.Minute
	if settings != nil {
		interval = settings.GetAutomationInterval()
	}

	// Single-flight guard. A run longer than the interval would otherwise
	// overlap the next tick; the lock TTL keeps a crashed run from wedging
	// the scheduler forever.
	acquired, err := cache.SetNX(runLockKey, time.Now().Format(time.RFC3339), interval)
	if err != nil {
		log.Errorf("[Automation] Run guard unavailable: %v", err)
		return nil
	}
	if !acquired {
		log.Warn("[Automation] Skipping run: previous run still in progress")
		return nil
	}
	defer func() {
		if err := cache.Delete(runLockKey); err != nil {
			log.Errorf("[Automation] Failed to release run guard: %v", err)
		}
	}()

	log.Info("[Automation] Starting review check...")
	report := m.newRunner().Run(ctx)

	if n := report.TotalReplied(); n > 0 {
		metrics.AddRepliesSent(n)
	}
	if n := report.TotalFailed(); n > 0 {
		metrics.AddRepliesFailed(n)
	}

	m.mu.Lock()
	m.lastReport = report
	m.mu.Unlock()

	log.Info("[Automation] Review check complete")
	return report
}

// newRunner assembles a runner from the global repositories and the current
// settings. Built per run so settings changes apply without a restart.
func (m *Manager) newRunner() *Runner {
	repos := repository.GetGlobalRepositories()

	pageSize := 20
	pacing := 2 * time.Second
	if settings := getAppSettings(); settings != nil {
		pageSize = settings.GetReviewPageSize()
		pacing = settings.GetReplyPacing()
	}

	return NewRunner(
		repos.User,
		repos.Review,
		replygen.NewGenerator(repos.Template),
		NewClientFactory(repos.User),
		pageSize,
		pacing,
	)
}

// NewClientFactory builds platform clients that persist refreshed tokens
// back to the user record.
func NewClientFactory(users repository.UserRepository) ClientFactory {
	return func(user *models.User) PlatformClient {
		client := googlebusiness.NewClient(googlebusiness.Credentials{
			AccessToken:  user.GoogleAccessToken,
			RefreshToken: user.GoogleRefreshToken,
			ExpiresAt:    user.GoogleTokenExpiresAt,
		})
		userID := user.ID
		client.OnTokenRefresh = func(accessToken string, expiresAt time.Time) {
			if err := users.UpdateGoogleTokens(userID, accessToken, "", &expiresAt); err != nil {
				log.Errorf("[Automation] Failed to persist refreshed token for user %d: %v", userID, err)
			}
		}
		return client
	}
}

// getAppSettings safely returns the current app settings
func getAppSettings() *models.AppSettings {
	return models.GetAppSettings()
}
