// Package generation turns a skills request into a stored, runnable test.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/talentquiz/internal/assessment"
	"github.com/gokatarajesh/talentquiz/internal/catalog"
	"github.com/gokatarajesh/talentquiz/internal/metrics"
	"github.com/gokatarajesh/talentquiz/internal/qcm"
	"github.com/gokatarajesh/talentquiz/internal/store"
)

// ErrNoQuestionsGenerated is returned when the completion yields nothing usable.
var ErrNoQuestionsGenerated = errors.New("no questions available, please retry generation")

// ErrCompletionFailed wraps failures of the completion endpoint.
var ErrCompletionFailed = errors.New("completion request failed")

// Completer produces free text for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// TestCreator persists a generated test.
type TestCreator interface {
	Create(ctx context.Context, test assessment.Test) (assessment.Test, error)
}

// Request describes one generation run.
type Request struct {
	JobID           string   `json:"job_id"`
	Title           string   `json:"title" validate:"max=200"`
	Category        string   `json:"category" validate:"max=100"`
	Skills          []string `json:"skills" validate:"required,min=1,dive,required"`
	Level           string   `json:"level"`
	Count           int      `json:"count" validate:"gte=0,lte=20"`
	DurationMinutes int      `json:"duration_minutes" validate:"gte=0,lte=600"`
	UserID          string   `json:"-"`
}

// ServiceOptions configures defaults for requests that leave fields empty.
type ServiceOptions struct {
	DefaultCount int
	DefaultLevel string
}

// Service runs completion, parsing and persistence.
type Service struct {
	completer Completer
	store     store.Store
	catalog   TestCreator
	validator *catalog.Validator
	metrics   *metrics.Metrics
	opts      ServiceOptions
	logger    zerolog.Logger
}

func NewService(completer Completer, s store.Store, tests TestCreator, m *metrics.Metrics, opts ServiceOptions, logger zerolog.Logger) *Service {
	if opts.DefaultCount <= 0 {
		opts.DefaultCount = defaultCount
	}
	if opts.DefaultLevel == "" {
		opts.DefaultLevel = defaultLevel
	}
	return &Service{
		completer: completer,
		store:     s,
		catalog:   tests,
		validator: catalog.NewValidator(),
		metrics:   m,
		opts:      opts,
		logger:    logger.With().Str("component", "generation").Logger(),
	}
}

// Generate requests questions for req, stores the parsed sequence under the
// caller's qcm_questions key and creates a test from the questions that carry
// a correct answer.
func (s *Service) Generate(ctx context.Context, req Request) (assessment.Test, error) {
	if err := s.validator.Struct(req); err != nil {
		return assessment.Test{}, err
	}
	if req.Count <= 0 {
		req.Count = s.opts.DefaultCount
	}
	if req.Level == "" {
		req.Level = s.opts.DefaultLevel
	}
	logger := s.logger.With().Str("job_id", req.JobID).Str("user_id", req.UserID).Logger()

	started := time.Now()
	text, err := s.completer.Complete(ctx, BuildPrompt(req.Count, req.Skills, req.Level))
	if err != nil {
		s.metrics.ObserveGeneration("error", time.Since(started))
		return assessment.Test{}, fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}

	questions, report := qcm.ParseWithReport(text)
	s.metrics.ObserveParse(report.Blocks, report.Emitted, report.Dropped)
	logger.Info().
		Int("blocks", report.Blocks).
		Int("emitted", report.Emitted).
		Int("dropped", report.Dropped).
		Msg("completion parsed")

	if len(questions) == 0 {
		s.metrics.ObserveGeneration("empty", time.Since(started))
		return assessment.Test{}, ErrNoQuestionsGenerated
	}

	if err := store.PutJSON(ctx, s.questionStore(req.UserID), store.KeyQuestions, questions); err != nil {
		return assessment.Test{}, fmt.Errorf("store questions: %w", err)
	}

	runnable := make([]assessment.Question, 0, len(questions))
	for _, q := range questions {
		if q.CorrectIndex != nil {
			runnable = append(runnable, q)
		}
	}
	if skipped := len(questions) - len(runnable); skipped > 0 {
		logger.Warn().Int("skipped", skipped).Msg("questions without a correct answer left out of the test")
	}
	if len(runnable) == 0 {
		s.metrics.ObserveGeneration("empty", time.Since(started))
		return assessment.Test{}, ErrNoQuestionsGenerated
	}

	test, err := s.catalog.Create(ctx, assessment.Test{
		Title:           s.title(req),
		Category:        req.Category,
		JobID:           req.JobID,
		DurationMinutes: req.DurationMinutes,
		Description:     fmt.Sprintf("%s level questions on %s.", req.Level, strings.Join(req.Skills, ", ")),
		Questions:       runnable,
	})
	if err != nil {
		s.metrics.ObserveGeneration("error", time.Since(started))
		return assessment.Test{}, fmt.Errorf("create test: %w", err)
	}

	s.metrics.ObserveGeneration("ok", time.Since(started))
	logger.Info().Str("test_id", test.ID).Int("questions", len(test.Questions)).Msg("test generated")
	return test, nil
}

// LastQuestions returns the most recent parsed sequence stored for userID.
func (s *Service) LastQuestions(ctx context.Context, userID string) ([]assessment.Question, error) {
	var questions []assessment.Question
	if err := store.GetJSON(ctx, s.questionStore(userID), store.KeyQuestions, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (s *Service) questionStore(userID string) store.Store {
	if userID == "" {
		return s.store
	}
	return store.Scoped(s.store, "user:"+userID)
}

func (s *Service) title(req Request) string {
	if t := strings.TrimSpace(req.Title); t != "" {
		return t
	}
	return strings.Join(req.Skills, ", ") + " assessment"
}
