package assessment

import (
	"math"
	"strings"
)

// Score is the aggregate outcome of grading a set of answers.
type Score struct {
	Score      int `json:"score"`
	MaxScore   int `json:"max_score"`
	Percentage int `json:"percentage"`
}

// Evaluate reports whether answer earns the question's points.
//
// Single choice is an exact, case-sensitive match. Multiple choice requires the
// selected set to equal the correct set, with no partial credit. Free text is
// compared case-insensitively after trimming. A nil answer is never correct.
func Evaluate(q Question, answer Answer) bool {
	if answer == nil || answer.Kind() != q.Kind {
		return false
	}
	switch a := answer.(type) {
	case SingleAnswer:
		if len(q.CorrectAnswers) != 1 {
			return false
		}
		return string(a) == q.CorrectAnswers[0]
	case MultipleAnswer:
		want := NewMultipleAnswer(q.CorrectAnswers...)
		got := NewMultipleAnswer(a...)
		if len(want) == 0 || len(want) != len(got) {
			return false
		}
		for i := range want {
			if want[i] != got[i] {
				return false
			}
		}
		return true
	case TextAnswer:
		if len(q.CorrectAnswers) != 1 {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(string(a)), strings.TrimSpace(q.CorrectAnswers[0]))
	}
	return false
}

// Award returns the points earned by answer on q.
func Award(q Question, answer Answer) int {
	if Evaluate(q, answer) {
		return q.Points
	}
	return 0
}

// Grade scores answers against every question of the test. Unanswered
// questions earn nothing but still count toward the maximum.
func Grade(questions []Question, answers map[string]Answer) Score {
	var s Score
	for _, q := range questions {
		s.MaxScore += q.Points
		s.Score += Award(q, answers[q.ID])
	}
	s.Percentage = Percentage(s.Score, s.MaxScore)
	return s
}

// Percentage is round(100*score/max), zero when max is zero.
func Percentage(score, max int) int {
	if max <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(max)))
}
