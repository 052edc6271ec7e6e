package attempt

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gokatarajesh/talentquiz/internal/assessment"
	"github.com/gokatarajesh/talentquiz/pkg/http/ws"
)

var (
	// ErrAttemptNotFound is returned for an unknown or evicted attempt id.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptForbidden is returned when the caller does not own the attempt.
	ErrAttemptForbidden = errors.New("attempt belongs to another candidate")
	// ErrResultNotReady is returned when results are requested before completion.
	ErrResultNotReady = errors.New("attempt has not been completed")
)

// TestSource loads tests from the catalog.
type TestSource interface {
	Get(ctx context.Context, id string) (assessment.Test, error)
}

// SubmissionStore persists completed submissions.
type SubmissionStore interface {
	Save(ctx context.Context, sub assessment.Submission) error
	Get(ctx context.Context, id string) (assessment.Submission, error)
	ListByCandidate(ctx context.Context, candidateID string, limit int) ([]assessment.Submission, error)
}

// Broadcaster pushes feed messages to the connections watching an attempt.
type Broadcaster interface {
	Broadcast(attemptID string, msg ws.Message) error
	CloseAttempt(attemptID string)
}

// Actor identifies the caller of a read operation.
type Actor struct {
	UserID string
	// Staff callers (recruiters, admins) may read any candidate's results.
	Staff bool
}

// Snapshot is the candidate-facing state of an attempt.
type Snapshot struct {
	ID          string          `json:"id"`
	TestID      string          `json:"test_id"`
	TestTitle   string          `json:"test_title"`
	CandidateID string          `json:"candidate_id"`
	CreatedAt   time.Time       `json:"created_at"`
	View        assessment.View `json:"view"`
}

type attempt struct {
	id          string
	testID      string
	testTitle   string
	candidateID string
	createdAt   time.Time
	kinds       map[string]assessment.Kind
	runner      *assessment.Runner

	mu      sync.Mutex
	touched time.Time
}

func (a *attempt) touch(now time.Time) {
	a.mu.Lock()
	a.touched = now
	a.mu.Unlock()
}

func (a *attempt) lastTouched() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.touched
}

func (a *attempt) snapshot() Snapshot {
	return Snapshot{
		ID:          a.id,
		TestID:      a.testID,
		TestTitle:   a.testTitle,
		CandidateID: a.candidateID,
		CreatedAt:   a.createdAt,
		View:        a.runner.View(),
	}
}
