package automation

import (
	"time"
)

// OutcomeKind classifies what happened to one review during dispatch.
type OutcomeKind string

const (
	OutcomeReplied OutcomeKind = "replied"
	OutcomeFailed  OutcomeKind = "failed"
	OutcomeSkipped OutcomeKind = "skipped"
)

// ReviewOutcome records the dispatch result of one review. Failures are
// captured here instead of propagating; the run always continues.
type ReviewOutcome struct {
	ReviewID       uint        `json:"review_id"`
	GoogleReviewID string      `json:"google_review_id"`
	Kind           OutcomeKind `json:"kind"`
	Method         string      `json:"method,omitempty"`
	Error          string      `json:"error,omitempty"`
}

// AccountReport aggregates one user's processing within a run.
type AccountReport struct {
	UserID          uint            `json:"user_id"`
	Email           string          `json:"email"`
	SkippedNoAccess bool            `json:"skipped_no_access,omitempty"`
	Discovered      int             `json:"discovered"`
	IngestErrors    []string        `json:"ingest_errors,omitempty"`
	Outcomes        []ReviewOutcome `json:"outcomes,omitempty"`
}

// Replied counts successfully auto-replied reviews for this account.
func (a *AccountReport) Replied() int {
	return a.countKind(OutcomeReplied)
}

// Failed counts reviews whose reply attempt failed for this account.
func (a *AccountReport) Failed() int {
	return a.countKind(OutcomeFailed)
}

// Skipped counts reviews deliberately not auto-replied for this account.
func (a *AccountReport) Skipped() int {
	return a.countKind(OutcomeSkipped)
}

func (a *AccountReport) countKind(kind OutcomeKind) int {
	n := 0
	for _, o := range a.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

// RunReport is the aggregated result of one automation tick.
type RunReport struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Accounts   []AccountReport `json:"accounts"`
	Error      string          `json:"error,omitempty"`
}

// TotalDiscovered sums newly discovered reviews across all accounts.
func (r *RunReport) TotalDiscovered() int {
	n := 0
	for i := range r.Accounts {
		n += r.Accounts[i].Discovered
	}
	return n
}

// TotalReplied sums successfully replied reviews across all accounts.
func (r *RunReport) TotalReplied() int {
	n := 0
	for i := range r.Accounts {
		n += r.Accounts[i].Replied()
	}
	return n
}

// TotalFailed sums failed reply attempts across all accounts.
func (r *RunReport) TotalFailed() int {
	n := 0
	for i := range r.Accounts {
		n += r.Accounts[i].Failed()
	}
	return n
}

// Duration returns how long the run took.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
