package assessment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultTickInterval is how often a timed runner decrements its countdown.
const DefaultTickInterval = time.Second

// RunnerOptions configures a Runner. Zero values fall back to defaults.
type RunnerOptions struct {
	// TickInterval is the wall-clock period between countdown ticks. Each tick
	// removes one second from the remaining time.
	TickInterval time.Duration
	Now          func() time.Time
	NewID        func() string
	// OnComplete receives the submission exactly once, outside the runner lock.
	OnComplete func(Submission)
	// OnTick receives the remaining time after every countdown tick.
	OnTick func(remaining time.Duration)
	Logger zerolog.Logger
}

// View is a point-in-time snapshot of a runner, safe to show a candidate.
type View struct {
	State            State     `json:"state"`
	Cursor           int       `json:"cursor"`
	Total            int       `json:"total"`
	Current          *Question `json:"current,omitempty"`
	CurrentAnswer    Answer    `json:"current_answer,omitempty"`
	Answered         int       `json:"answered"`
	Timed            bool      `json:"timed"`
	RemainingSeconds int       `json:"remaining_seconds"`
}

// Runner drives one candidate through one test and produces one Submission.
// All operations, ticks included, are serialized by mu.
type Runner struct {
	mu          sync.Mutex
	test        Test
	candidateID string
	opts        RunnerOptions
	logger      zerolog.Logger

	state      State
	cursor     int
	answers    map[string]Answer
	remaining  time.Duration
	startedAt  time.Time
	submission *Submission
	closed     bool
	cancel     context.CancelFunc
}

// NewRunner loads a private copy of test in the NotStarted state.
func NewRunner(test Test, candidateID string, opts RunnerOptions) *Runner {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Runner{
		test:        test.Clone(),
		candidateID: candidateID,
		opts:        opts,
		logger: opts.Logger.With().
			Str("component", "runner").
			Str("test_id", test.ID).
			Str("candidate_id", candidateID).
			Logger(),
		state:   StateNotStarted,
		answers: make(map[string]Answer),
	}
}

// Start moves the runner to InProgress and arms the countdown for timed tests.
// The countdown goroutine lives until the run completes, Close is called or ctx
// is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateNotStarted || r.closed {
		return ErrInvalidTransition
	}
	if len(r.test.Questions) == 0 {
		return ErrNoQuestions
	}

	r.state = StateInProgress
	r.cursor = 0
	r.startedAt = r.opts.Now()
	r.remaining = r.test.Duration()

	if r.test.Timed() {
		timerCtx, cancel := context.WithCancel(ctx)
		r.cancel = cancel
		go r.runTimer(timerCtx)
	}

	r.logger.Debug().
		Int("questions", len(r.test.Questions)).
		Dur("duration", r.remaining).
		Msg("assessment started")
	return nil
}

func (r *Runner) runTimer(ctx context.Context) {
	ticker := time.NewTicker(r.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Tick()
		}
	}
}

// Tick removes one second from the countdown. Reaching zero submits the run
// with ReasonTimerExpired. Ticks outside a timed, running attempt do nothing.
func (r *Runner) Tick() {
	r.mu.Lock()
	if r.state != StateInProgress || r.closed || !r.test.Timed() {
		r.mu.Unlock()
		return
	}

	r.remaining -= time.Second
	if r.remaining > 0 {
		remaining := r.remaining
		r.mu.Unlock()
		if r.opts.OnTick != nil {
			r.opts.OnTick(remaining)
		}
		return
	}

	r.remaining = 0
	sub := r.completeLocked(ReasonTimerExpired)
	r.mu.Unlock()

	if r.opts.OnTick != nil {
		r.opts.OnTick(0)
	}
	r.handoff(sub)
}

// RecordAnswer stores or overwrites the answer to a question.
func (r *Runner) RecordAnswer(questionID string, answer Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateInProgress || r.closed {
		return ErrNotInProgress
	}
	q, ok := r.test.Question(questionID)
	if !ok {
		return ErrUnknownQuestion
	}
	if answer == nil {
		return &MalformedAnswerError{QuestionID: questionID, Expected: q.Kind, Reason: "missing value"}
	}
	if answer.Kind() != q.Kind {
		return &MalformedAnswerError{QuestionID: questionID, Expected: q.Kind, Got: answer.Kind()}
	}
	if m, ok := answer.(MultipleAnswer); ok {
		answer = NewMultipleAnswer(m...)
	}
	r.answers[questionID] = answer
	return nil
}

// Next advances the cursor, stopping at the last question.
func (r *Runner) Next() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateInProgress || r.closed {
		return
	}
	if r.cursor < len(r.test.Questions)-1 {
		r.cursor++
	}
}

// Previous moves the cursor back, stopping at the first question.
func (r *Runner) Previous() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateInProgress || r.closed {
		return
	}
	if r.cursor > 0 {
		r.cursor--
	}
}

// Submit completes the run from any cursor position. A repeated call returns
// the original submission together with ErrAlreadySubmitted.
func (r *Runner) Submit() (Submission, error) {
	r.mu.Lock()
	if r.state == StateCompleted {
		sub := *r.submission
		r.mu.Unlock()
		return sub, ErrAlreadySubmitted
	}
	if r.state != StateInProgress || r.closed {
		r.mu.Unlock()
		return Submission{}, ErrNotInProgress
	}
	sub := r.completeLocked(ReasonSubmitted)
	r.mu.Unlock()

	r.handoff(sub)
	return sub, nil
}

// Close stops the countdown. A run closed before completion never produces a
// submission.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopTimerLocked()
	if r.state != StateCompleted && !r.closed {
		r.logger.Debug().Str("state", string(r.state)).Msg("assessment abandoned")
	}
	r.closed = true
}

// View returns a snapshot of the run. Correct answers are never included.
func (r *Runner) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := View{
		State:            r.state,
		Cursor:           r.cursor,
		Total:            len(r.test.Questions),
		Answered:         len(r.answers),
		Timed:            r.test.Timed(),
		RemainingSeconds: int(r.remaining / time.Second),
	}
	if r.state == StateNotStarted {
		v.RemainingSeconds = int(r.test.Duration() / time.Second)
	}
	if r.state == StateInProgress && len(r.test.Questions) > 0 {
		q := r.test.Questions[r.cursor].Public()
		v.Current = &q
		v.CurrentAnswer = r.answers[q.ID]
	}
	return v
}

// State returns the lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Submission returns the completed submission, if any.
func (r *Runner) Submission() (Submission, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.submission == nil {
		return Submission{}, false
	}
	return *r.submission, true
}

// Test returns a copy of the test being run.
func (r *Runner) Test() Test {
	return r.test.Clone()
}

// CandidateID returns the candidate the runner belongs to.
func (r *Runner) CandidateID() string {
	return r.candidateID
}

func (r *Runner) completeLocked(reason string) Submission {
	r.stopTimerLocked()

	records := make([]AnswerRecord, 0, len(r.answers))
	for _, q := range r.test.Questions {
		if a, ok := r.answers[q.ID]; ok {
			records = append(records, AnswerRecord{QuestionID: q.ID, Value: a})
		}
	}
	score := Grade(r.test.Questions, r.answers)

	sub := Submission{
		ID:          r.opts.NewID(),
		TestID:      r.test.ID,
		TestTitle:   r.test.Title,
		CandidateID: r.candidateID,
		StartedAt:   r.startedAt,
		EndedAt:     r.opts.Now(),
		Answers:     records,
		Score:       score.Score,
		MaxScore:    score.MaxScore,
		Percentage:  score.Percentage,
		Reason:      reason,
	}
	r.submission = &sub
	r.state = StateCompleted

	r.logger.Info().
		Str("submission_id", sub.ID).
		Str("reason", reason).
		Int("score", sub.Score).
		Int("max_score", sub.MaxScore).
		Msg("assessment completed")
	return sub
}

func (r *Runner) stopTimerLocked() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *Runner) handoff(sub Submission) {
	if r.opts.OnComplete != nil {
		r.opts.OnComplete(sub)
	}
}
