// Package catalog manages the tests recruiters build or generate.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/talentquiz/internal/assessment"
	"github.com/gokatarajesh/talentquiz/internal/store"
)

// ErrTestNotFound is returned when no test has the requested id.
var ErrTestNotFound = errors.New("test not found")

// ErrTestExists is returned when a created test reuses an existing id.
var ErrTestExists = errors.New("test already exists")

const copySuffix = " (Copy)"

// Summary counts questions per kind.
type Summary struct {
	Total          int `json:"total"`
	SingleChoice   int `json:"single_choice"`
	MultipleChoice int `json:"multiple_choice"`
	FreeText       int `json:"free_text"`
	MaxScore       int `json:"max_score"`
}

// Service keeps the ordered test list under store.KeyTests.
type Service struct {
	store     store.Store
	validator *Validator
	logger    zerolog.Logger
	newID     func() string

	mu sync.Mutex
}

// NewService creates a catalog over s.
func NewService(s store.Store, logger zerolog.Logger) *Service {
	return &Service{
		store:     s,
		validator: NewValidator(),
		logger:    logger.With().Str("component", "catalog").Logger(),
		newID:     uuid.NewString,
	}
}

// List returns every test whose title or category contains query,
// case-insensitively. An empty query returns all tests.
func (s *Service) List(ctx context.Context, query string) ([]assessment.Test, error) {
	tests, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return tests, nil
	}
	out := make([]assessment.Test, 0, len(tests))
	for _, t := range tests {
		if strings.Contains(strings.ToLower(t.Title), query) || strings.Contains(strings.ToLower(t.Category), query) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Get returns a test by id.
func (s *Service) Get(ctx context.Context, id string) (assessment.Test, error) {
	tests, err := s.load(ctx)
	if err != nil {
		return assessment.Test{}, err
	}
	for _, t := range tests {
		if t.ID == id {
			return t, nil
		}
	}
	return assessment.Test{}, ErrTestNotFound
}

// Create validates and appends a test. An empty id is replaced with a uuid.
func (s *Service) Create(ctx context.Context, test assessment.Test) (assessment.Test, error) {
	if err := s.validator.Test(test); err != nil {
		return assessment.Test{}, err
	}
	if test.ID == "" {
		test.ID = s.newID()
	}

	err := s.update(ctx, func(tests []assessment.Test) ([]assessment.Test, error) {
		for _, t := range tests {
			if t.ID == test.ID {
				return nil, fmt.Errorf("%w: %s", ErrTestExists, test.ID)
			}
		}
		return append(tests, test), nil
	})
	if err != nil {
		return assessment.Test{}, err
	}

	s.logger.Info().Str("test_id", test.ID).Int("questions", len(test.Questions)).Msg("test created")
	return test, nil
}

// Duplicate copies a test under a new id with " (Copy)" appended to the title.
func (s *Service) Duplicate(ctx context.Context, id string) (assessment.Test, error) {
	var dup assessment.Test
	err := s.update(ctx, func(tests []assessment.Test) ([]assessment.Test, error) {
		for _, t := range tests {
			if t.ID == id {
				dup = t.Clone()
				dup.ID = s.newID()
				dup.Title = t.Title + copySuffix
				return append(tests, dup), nil
			}
		}
		return nil, ErrTestNotFound
	})
	if err != nil {
		return assessment.Test{}, err
	}
	s.logger.Info().Str("test_id", id).Str("copy_id", dup.ID).Msg("test duplicated")
	return dup, nil
}

// Delete removes a test.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.update(ctx, func(tests []assessment.Test) ([]assessment.Test, error) {
		for i, t := range tests {
			if t.ID == id {
				return append(tests[:i], tests[i+1:]...), nil
			}
		}
		return nil, ErrTestNotFound
	})
	if err != nil {
		return err
	}
	s.logger.Info().Str("test_id", id).Msg("test deleted")
	return nil
}

// Summarize counts the questions of t per kind.
func Summarize(t assessment.Test) Summary {
	sum := Summary{Total: len(t.Questions), MaxScore: t.MaxScore()}
	for _, q := range t.Questions {
		switch q.Kind {
		case assessment.KindSingleChoice:
			sum.SingleChoice++
		case assessment.KindMultipleChoice:
			sum.MultipleChoice++
		case assessment.KindFreeText:
			sum.FreeText++
		}
	}
	return sum
}

func (s *Service) load(ctx context.Context) ([]assessment.Test, error) {
	var tests []assessment.Test
	err := store.GetJSON(ctx, s.store, store.KeyTests, &tests)
	if errors.Is(err, store.ErrNotFound) {
		return []assessment.Test{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load tests: %w", err)
	}
	return tests, nil
}

func (s *Service) update(ctx context.Context, fn func([]assessment.Test) ([]assessment.Test, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if locker, ok := s.store.(store.Locker); ok {
		unlock, err := locker.Lock(ctx, store.KeyTests)
		if err != nil {
			return fmt.Errorf("lock tests: %w", err)
		}
		defer func() {
			if err := unlock(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to release tests lock")
			}
		}()
	}

	tests, err := s.load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(tests)
	if err != nil {
		return err
	}
	if err := store.PutJSON(ctx, s.store, store.KeyTests, next); err != nil {
		return fmt.Errorf("save tests: %w", err)
	}
	return nil
}
