package assessment

import (
	"time"
)

// Kind identifies how a question is answered and scored.
type Kind string

// Question kinds.
const (
	KindSingleChoice   Kind = "single-choice"
	KindMultipleChoice Kind = "multiple-choice"
	KindFreeText       Kind = "free-text"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSingleChoice, KindMultipleChoice, KindFreeText:
		return true
	}
	return false
}

// IsChoice reports whether the kind carries options.
func (k Kind) IsChoice() bool {
	return k == KindSingleChoice || k == KindMultipleChoice
}

// Question is a single assessment item.
type Question struct {
	ID             string   `json:"id" validate:"required"`
	Title          string   `json:"title,omitempty"`
	Prompt         string   `json:"prompt" validate:"required"`
	Kind           Kind     `json:"kind" validate:"required,oneof=single-choice multiple-choice free-text"`
	Options        []string `json:"options,omitempty"`
	CorrectAnswers []string `json:"correct_answers,omitempty"`
	CorrectIndex   *int     `json:"correct_index,omitempty"`
	Points         int      `json:"points" validate:"gte=0"`
}

// Public returns a copy of q without answer material, safe to show to candidates.
func (q Question) Public() Question {
	out := q
	out.Options = append([]string(nil), q.Options...)
	out.CorrectAnswers = nil
	out.CorrectIndex = nil
	return out
}

// Test is an ordered assessment, usually attached to a job posting.
type Test struct {
	ID              string     `json:"id"`
	Title           string     `json:"title" validate:"required,max=200"`
	Category        string     `json:"category,omitempty" validate:"max=100"`
	JobID           string     `json:"job_id,omitempty"`
	DurationMinutes int        `json:"duration_minutes" validate:"gte=0,lte=600"`
	Description     string     `json:"description,omitempty" validate:"max=2000"`
	Questions       []Question `json:"questions" validate:"dive"`
}

// Timed reports whether the test runs against a countdown.
func (t Test) Timed() bool {
	return t.DurationMinutes > 0
}

// Duration is the countdown length, zero when untimed.
func (t Test) Duration() time.Duration {
	if t.DurationMinutes <= 0 {
		return 0
	}
	return time.Duration(t.DurationMinutes) * time.Minute
}

// MaxScore sums the points of every question.
func (t Test) MaxScore() int {
	total := 0
	for _, q := range t.Questions {
		total += q.Points
	}
	return total
}

// Question looks up a question by id.
func (t Test) Question(id string) (Question, bool) {
	for _, q := range t.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Clone returns a deep copy so callers cannot mutate a running test.
func (t Test) Clone() Test {
	out := t
	out.Questions = make([]Question, len(t.Questions))
	for i, q := range t.Questions {
		cp := q
		cp.Options = append([]string(nil), q.Options...)
		cp.CorrectAnswers = append([]string(nil), q.CorrectAnswers...)
		if q.CorrectIndex != nil {
			idx := *q.CorrectIndex
			cp.CorrectIndex = &idx
		}
		out.Questions[i] = cp
	}
	return out
}

// State is the runner lifecycle position.
type State string

// Runner states.
const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// Completion reasons recorded on a Submission.
const (
	ReasonSubmitted    = "submitted"
	ReasonTimerExpired = "timer_expired"
)

// Submission is the immutable record of one completed run.
type Submission struct {
	ID          string         `json:"id"`
	TestID      string         `json:"test_id"`
	TestTitle   string         `json:"test_title"`
	CandidateID string         `json:"candidate_id"`
	StartedAt   time.Time      `json:"started_at"`
	EndedAt     time.Time      `json:"ended_at"`
	Answers     []AnswerRecord `json:"answers"`
	Score       int            `json:"score"`
	MaxScore    int            `json:"max_score"`
	Percentage  int            `json:"percentage"`
	Reason      string         `json:"reason"`
}

// Answer returns the recorded answer for a question, if any.
func (s Submission) Answer(questionID string) (Answer, bool) {
	for _, rec := range s.Answers {
		if rec.QuestionID == questionID {
			return rec.Value, true
		}
	}
	return nil, false
}
