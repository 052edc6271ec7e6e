package attempt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/talentquiz/internal/assessment"
	"github.com/gokatarajesh/talentquiz/internal/metrics"
	"github.com/gokatarajesh/talentquiz/internal/results"
	"github.com/gokatarajesh/talentquiz/pkg/http/ws"
)

const defaultPersistTimeout = 5 * time.Second

// ManagerOptions tunes runner and persistence behavior.
type ManagerOptions struct {
	TickInterval   time.Duration
	PersistTimeout time.Duration
	Now            func() time.Time
}

// Manager hosts one Runner per attempt and routes completions to the feed,
// metrics and the submission store.
type Manager struct {
	mu       sync.RWMutex
	attempts map[string]*attempt

	tests   TestSource
	subs    SubmissionStore
	hub     Broadcaster
	metrics *metrics.Metrics
	opts    ManagerOptions
	logger  zerolog.Logger

	// Runner countdowns outlive the request that started them.
	baseCtx context.Context
	cancel  context.CancelFunc
	// persist.Add only happens under mu while closing is false.
	persist sync.WaitGroup
	closing bool
}

// NewManager builds a manager. subs and hub may be nil.
func NewManager(tests TestSource, subs SubmissionStore, hub Broadcaster, m *metrics.Metrics, opts ManagerOptions, logger zerolog.Logger) *Manager {
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = defaultPersistTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		attempts: make(map[string]*attempt),
		tests:    tests,
		subs:     subs,
		hub:      hub,
		metrics:  m,
		opts:     opts,
		logger:   logger.With().Str("component", "attempt_manager").Logger(),
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// Create loads testID from the catalog and registers a NotStarted attempt for
// candidateID.
func (m *Manager) Create(ctx context.Context, testID, candidateID string) (Snapshot, error) {
	test, err := m.tests.Get(ctx, testID)
	if err != nil {
		return Snapshot{}, err
	}

	now := m.opts.Now()
	a := &attempt{
		id:          uuid.NewString(),
		testID:      test.ID,
		testTitle:   test.Title,
		candidateID: candidateID,
		createdAt:   now,
		kinds:       make(map[string]assessment.Kind, len(test.Questions)),
		touched:     now,
	}
	for _, q := range test.Questions {
		a.kinds[q.ID] = q.Kind
	}
	a.runner = assessment.NewRunner(test, candidateID, assessment.RunnerOptions{
		TickInterval: m.opts.TickInterval,
		Now:          m.opts.Now,
		NewID:        func() string { return a.id },
		OnComplete:   func(sub assessment.Submission) { m.completed(a, sub) },
		OnTick:       func(remaining time.Duration) { m.ticked(a, remaining) },
		Logger:       m.logger.With().Str("attempt_id", a.id).Logger(),
	})

	m.mu.Lock()
	m.attempts[a.id] = a
	m.mu.Unlock()
	m.metrics.AttemptTracked(1)

	m.logger.Info().
		Str("attempt_id", a.id).
		Str("test_id", test.ID).
		Str("candidate_id", candidateID).
		Msg("attempt created")
	return a.snapshot(), nil
}

// Start begins the countdown of an owned attempt.
func (m *Manager) Start(_ context.Context, id, candidateID string) (Snapshot, error) {
	a, err := m.owned(id, candidateID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := a.runner.Start(m.baseCtx); err != nil {
		return Snapshot{}, err
	}
	m.metrics.AttemptStarted()
	return a.snapshot(), nil
}

// Answer decodes raw against the question kind and records it.
func (m *Manager) Answer(_ context.Context, id, candidateID, questionID string, raw json.RawMessage) (Snapshot, error) {
	a, err := m.owned(id, candidateID)
	if err != nil {
		return Snapshot{}, err
	}
	kind, ok := a.kinds[questionID]
	if !ok {
		return Snapshot{}, assessment.ErrUnknownQuestion
	}
	answer, err := assessment.DecodeAnswer(kind, raw)
	if err != nil {
		var malformed *assessment.MalformedAnswerError
		if errors.As(err, &malformed) {
			malformed.QuestionID = questionID
		}
		return Snapshot{}, err
	}
	if err := a.runner.RecordAnswer(questionID, answer); err != nil {
		return Snapshot{}, err
	}
	return a.snapshot(), nil
}

// Next moves the cursor forward. Outside a running attempt it returns the
// unchanged snapshot.
func (m *Manager) Next(_ context.Context, id, candidateID string) (Snapshot, error) {
	a, err := m.owned(id, candidateID)
	if err != nil {
		return Snapshot{}, err
	}
	a.runner.Next()
	return a.snapshot(), nil
}

// Previous moves the cursor back.
func (m *Manager) Previous(_ context.Context, id, candidateID string) (Snapshot, error) {
	a, err := m.owned(id, candidateID)
	if err != nil {
		return Snapshot{}, err
	}
	a.runner.Previous()
	return a.snapshot(), nil
}

// Submit completes the attempt. A repeated submit returns the original
// submission with assessment.ErrAlreadySubmitted.
func (m *Manager) Submit(_ context.Context, id, candidateID string) (assessment.Submission, error) {
	a, err := m.owned(id, candidateID)
	if err != nil {
		return assessment.Submission{}, err
	}
	return a.runner.Submit()
}

// Get returns the attempt snapshot.
func (m *Manager) Get(_ context.Context, id, candidateID string) (Snapshot, error) {
	a, err := m.owned(id, candidateID)
	if err != nil {
		return Snapshot{}, err
	}
	return a.snapshot(), nil
}

// Abandon stops and evicts an attempt. An unfinished attempt produces no
// submission.
func (m *Manager) Abandon(_ context.Context, id, candidateID string) error {
	if _, err := m.owned(id, candidateID); err != nil {
		return err
	}
	m.evict(id)
	return nil
}

// Result builds the scored report of a completed attempt. The in-memory
// submission is preferred; evicted attempts are read back from the store.
func (m *Manager) Result(ctx context.Context, id string, actor Actor) (results.Report, error) {
	m.mu.RLock()
	a, ok := m.attempts[id]
	m.mu.RUnlock()

	if ok {
		if a.candidateID != actor.UserID && !actor.Staff {
			return results.Report{}, ErrAttemptForbidden
		}
		sub, done := a.runner.Submission()
		if !done {
			return results.Report{}, ErrResultNotReady
		}
		return results.Build(a.runner.Test(), sub), nil
	}

	if m.subs == nil {
		return results.Report{}, ErrAttemptNotFound
	}
	sub, err := m.subs.Get(ctx, id)
	if err != nil {
		return results.Report{}, ErrAttemptNotFound
	}
	if sub.CandidateID != actor.UserID && !actor.Staff {
		return results.Report{}, ErrAttemptForbidden
	}

	test, err := m.tests.Get(ctx, sub.TestID)
	if err != nil {
		m.logger.Warn().Err(err).Str("test_id", sub.TestID).Msg("test unavailable for stored submission")
		test = assessment.Test{ID: sub.TestID, Title: sub.TestTitle}
	}
	return results.Build(test, sub), nil
}

// History lists a candidate's stored submissions, newest first.
func (m *Manager) History(ctx context.Context, candidateID string, limit int) ([]assessment.Submission, error) {
	if m.subs == nil {
		return []assessment.Submission{}, nil
	}
	subs, err := m.subs.ListByCandidate(ctx, candidateID, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return subs, nil
}

// Reap evicts attempts idle for longer than retention. Running timed attempts
// are kept until their countdown ends.
func (m *Manager) Reap(retention time.Duration) int {
	cutoff := m.opts.Now().Add(-retention)

	m.mu.RLock()
	stale := make([]string, 0)
	for id, a := range m.attempts {
		if !a.lastTouched().Before(cutoff) {
			continue
		}
		view := a.runner.View()
		if view.State == assessment.StateInProgress && view.Timed && view.RemainingSeconds > 0 {
			continue
		}
		stale = append(stale, id)
	}
	m.mu.RUnlock()

	for _, id := range stale {
		m.evict(id)
	}
	return len(stale)
}

// Len reports how many attempts are held in memory.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.attempts)
}

// Close stops every runner and waits for pending persistence.
func (m *Manager) Close() {
	m.cancel()

	m.mu.Lock()
	m.closing = true
	ids := make([]string, 0, len(m.attempts))
	for id := range m.attempts {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.evict(id)
	}

	m.persist.Wait()
}

func (m *Manager) owned(id, candidateID string) (*attempt, error) {
	m.mu.RLock()
	a, ok := m.attempts[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrAttemptNotFound
	}
	if a.candidateID != candidateID {
		return nil, ErrAttemptForbidden
	}
	a.touch(m.opts.Now())
	return a, nil
}

func (m *Manager) evict(id string) {
	m.mu.Lock()
	a, ok := m.attempts[id]
	delete(m.attempts, id)
	m.mu.Unlock()

	if !ok {
		return
	}
	a.runner.Close()
	if m.hub != nil {
		m.hub.CloseAttempt(id)
	}
	m.metrics.AttemptTracked(-1)
	m.logger.Debug().Str("attempt_id", id).Msg("attempt evicted")
}

func (m *Manager) ticked(a *attempt, remaining time.Duration) {
	if m.hub == nil {
		return
	}
	msg, err := ws.NewMessage(ws.TypeAttemptTick, ws.AttemptTickPayload{
		AttemptID:        a.id,
		RemainingSeconds: int(remaining / time.Second),
	})
	if err != nil {
		return
	}
	_ = m.hub.Broadcast(a.id, msg)
}

func (m *Manager) completed(a *attempt, sub assessment.Submission) {
	a.touch(m.opts.Now())
	m.metrics.SubmissionCompleted(sub.Reason, sub.Percentage)

	if m.hub != nil {
		msg, err := ws.NewMessage(ws.TypeAttemptCompleted, ws.AttemptCompletedPayload{
			AttemptID:    a.id,
			SubmissionID: sub.ID,
			Reason:       sub.Reason,
			Score:        sub.Score,
			MaxScore:     sub.MaxScore,
			Percentage:   sub.Percentage,
		})
		if err == nil {
			if err := m.hub.Broadcast(a.id, msg); err != nil {
				m.logger.Warn().Err(err).Str("attempt_id", a.id).Msg("completion broadcast failed")
			}
		}
	}

	if m.subs == nil {
		return
	}
	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		m.metrics.PersistFailed()
		m.logger.Warn().Str("submission_id", sub.ID).Msg("manager closing; submission not persisted")
		return
	}
	m.persist.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.persist.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.opts.PersistTimeout)
		defer cancel()

		if err := m.subs.Save(ctx, sub); err != nil {
			m.metrics.PersistFailed()
			m.logger.Error().Err(err).Str("submission_id", sub.ID).Msg("failed to persist submission")
		}
	}()
}
