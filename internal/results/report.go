// Package results derives the read-only report shown after a submission.
package results

import (
	"math"
	"time"

	"github.com/gokatarajesh/talentquiz/internal/assessment"
)

// Level is a coarse performance band.
type Level string

// Performance levels, highest first.
const (
	LevelExcellent        Level = "excellent"
	LevelGood             Level = "good"
	LevelSatisfactory     Level = "satisfactory"
	LevelNeedsImprovement Level = "needs improvement"
	LevelPoor             Level = "poor"
)

var levelMessages = map[Level]string{
	LevelExcellent:        "Outstanding performance! You demonstrated comprehensive knowledge of the subject matter.",
	LevelGood:             "Good job! You have a solid understanding of most concepts tested.",
	LevelSatisfactory:     "You have a reasonable grasp of the fundamentals, but there's room for improvement.",
	LevelNeedsImprovement: "You demonstrated basic knowledge but need to strengthen your understanding of key concepts.",
	LevelPoor:             "You need significant improvement in your understanding of the subject matter.",
}

// LevelFor maps a percentage to its performance level.
func LevelFor(percentage int) Level {
	switch {
	case percentage >= 90:
		return LevelExcellent
	case percentage >= 80:
		return LevelGood
	case percentage >= 70:
		return LevelSatisfactory
	case percentage >= 60:
		return LevelNeedsImprovement
	default:
		return LevelPoor
	}
}

// Message is the candidate-facing explanation of a level.
func (l Level) Message() string {
	return levelMessages[l]
}

// Report is the rendered outcome of one submission.
type Report struct {
	SubmissionID    string       `json:"submission_id"`
	TestID          string       `json:"test_id"`
	TestTitle       string       `json:"test_title"`
	CandidateID     string       `json:"candidate_id"`
	Score           int          `json:"score"`
	MaxScore        int          `json:"max_score"`
	Percentage      int          `json:"percentage"`
	DurationMinutes int          `json:"duration_minutes"`
	Level           Level        `json:"level"`
	Message         string       `json:"message"`
	Reason          string       `json:"reason"`
	StartedAt       time.Time    `json:"started_at"`
	EndedAt         time.Time    `json:"ended_at"`
	Correct         int          `json:"correct"`
	Answered        int          `json:"answered"`
	Items           []ItemResult `json:"items"`
}

// ItemResult is the per-question breakdown.
type ItemResult struct {
	QuestionID     string            `json:"question_id"`
	Title          string            `json:"title,omitempty"`
	Prompt         string            `json:"prompt"`
	Kind           assessment.Kind   `json:"kind"`
	Options        []string          `json:"options,omitempty"`
	Answer         assessment.Answer `json:"answer,omitempty"`
	CorrectAnswers []string          `json:"correct_answers"`
	Correct        bool              `json:"correct"`
	Points         int               `json:"points"`
	Awarded        int               `json:"awarded"`
}

// Build re-derives per-question correctness for sub against test. Score
// fields come from the submission as recorded.
func Build(test assessment.Test, sub assessment.Submission) Report {
	r := Report{
		SubmissionID:    sub.ID,
		TestID:          sub.TestID,
		TestTitle:       sub.TestTitle,
		CandidateID:     sub.CandidateID,
		Score:           sub.Score,
		MaxScore:        sub.MaxScore,
		Percentage:      sub.Percentage,
		DurationMinutes: durationMinutes(test, sub),
		Level:           LevelFor(sub.Percentage),
		Reason:          sub.Reason,
		StartedAt:       sub.StartedAt,
		EndedAt:         sub.EndedAt,
		Answered:        len(sub.Answers),
		Items:           make([]ItemResult, 0, len(test.Questions)),
	}
	if r.TestTitle == "" {
		r.TestTitle = test.Title
	}
	r.Message = r.Level.Message()

	for _, q := range test.Questions {
		answer, _ := sub.Answer(q.ID)
		correct := assessment.Evaluate(q, answer)
		item := ItemResult{
			QuestionID:     q.ID,
			Title:          q.Title,
			Prompt:         q.Prompt,
			Kind:           q.Kind,
			Options:        q.Options,
			Answer:         answer,
			CorrectAnswers: q.CorrectAnswers,
			Correct:        correct,
			Points:         q.Points,
		}
		if correct {
			item.Awarded = q.Points
			r.Correct++
		}
		r.Items = append(r.Items, item)
	}
	return r
}

func durationMinutes(test assessment.Test, sub assessment.Submission) int {
	if sub.StartedAt.IsZero() || sub.EndedAt.IsZero() || sub.EndedAt.Before(sub.StartedAt) {
		return test.DurationMinutes
	}
	return int(math.Round(sub.EndedAt.Sub(sub.StartedAt).Minutes()))
}
