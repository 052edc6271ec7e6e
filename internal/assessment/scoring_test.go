package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func singleQ(id, correct string, points int) Question {
	return Question{
		ID:             id,
		Prompt:         "Capital of France?",
		Kind:           KindSingleChoice,
		Options:        []string{"Paris", "Lyon", "Nice", "Lille"},
		CorrectAnswers: []string{correct},
		Points:         points,
	}
}

func TestEvaluateSingleChoiceIsCaseSensitive(t *testing.T) {
	q := singleQ("1", "Paris", 2)

	assert.Equal(t, 2, Award(q, SingleAnswer("Paris")))
	assert.Equal(t, 0, Award(q, SingleAnswer("paris")))
	assert.Equal(t, 0, Award(q, nil))
}

func TestEvaluateMultipleChoiceHasNoPartialCredit(t *testing.T) {
	q := Question{
		ID:             "m",
		Kind:           KindMultipleChoice,
		Options:        []string{"A", "B", "C", "D"},
		CorrectAnswers: []string{"A", "B"},
		Points:         3,
	}

	assert.Equal(t, 0, Award(q, NewMultipleAnswer("A")))
	assert.Equal(t, 0, Award(q, NewMultipleAnswer("A", "B", "C")))
	assert.Equal(t, 3, Award(q, NewMultipleAnswer("B", "A")))
	assert.Equal(t, 3, Award(q, MultipleAnswer{"B", "A", "B"}))
}

func TestEvaluateFreeTextIgnoresCaseAndSpace(t *testing.T) {
	q := Question{ID: "t", Kind: KindFreeText, CorrectAnswers: []string{"Goroutine"}, Points: 1}

	assert.True(t, Evaluate(q, TextAnswer("  goroutine \n")))
	assert.False(t, Evaluate(q, TextAnswer("thread")))
}

func TestEvaluateRejectsMismatchedKind(t *testing.T) {
	q := singleQ("1", "Paris", 1)
	assert.False(t, Evaluate(q, TextAnswer("Paris")))
}

func TestGradeCountsUnansweredTowardMax(t *testing.T) {
	questions := []Question{singleQ("1", "Paris", 4), singleQ("2", "Paris", 6)}

	got := Grade(questions, map[string]Answer{"1": SingleAnswer("Paris")})

	assert.Equal(t, Score{Score: 4, MaxScore: 10, Percentage: 40}, got)
}

func TestPercentage(t *testing.T) {
	cases := []struct {
		score, max, want int
	}{
		{7, 10, 70},
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{5, 5, 100},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Percentage(tc.score, tc.max), "score=%d max=%d", tc.score, tc.max)
	}
}
