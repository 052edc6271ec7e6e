package results

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gokatarajesh/talentquiz/internal/assessment"
)

func reportFixture() (assessment.Test, assessment.Submission) {
	test := assessment.Test{
		ID:              "t1",
		Title:           "Go basics",
		DurationMinutes: 20,
		Questions: []assessment.Question{
			{ID: "1", Prompt: "Capital?", Kind: assessment.KindSingleChoice, Options: []string{"Paris", "Lyon"}, CorrectAnswers: []string{"Paris"}, Points: 2},
			{ID: "2", Prompt: "Refs", Kind: assessment.KindMultipleChoice, Options: []string{"map", "int"}, CorrectAnswers: []string{"map"}, Points: 1},
			{ID: "3", Prompt: "Keyword", Kind: assessment.KindFreeText, CorrectAnswers: []string{"go"}, Points: 1},
		},
	}
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	sub := assessment.Submission{
		ID:          "s1",
		TestID:      "t1",
		TestTitle:   "Go basics",
		CandidateID: "c1",
		StartedAt:   start,
		EndedAt:     start.Add(12*time.Minute + 40*time.Second),
		Answers: []assessment.AnswerRecord{
			{QuestionID: "1", Value: assessment.SingleAnswer("Paris")},
			{QuestionID: "2", Value: assessment.NewMultipleAnswer("map", "int")},
		},
		Score:      2,
		MaxScore:   4,
		Percentage: 50,
		Reason:     assessment.ReasonSubmitted,
	}
	return test, sub
}

func TestLevelFor(t *testing.T) {
	cases := map[int]Level{
		100: LevelExcellent,
		90:  LevelExcellent,
		89:  LevelGood,
		80:  LevelGood,
		70:  LevelSatisfactory,
		60:  LevelNeedsImprovement,
		59:  LevelPoor,
		0:   LevelPoor,
	}
	for pct, want := range cases {
		assert.Equal(t, want, LevelFor(pct), "percentage %d", pct)
		assert.NotEmpty(t, want.Message())
	}
}

func TestBuildReport(t *testing.T) {
	test, sub := reportFixture()

	r := Build(test, sub)

	assert.Equal(t, 13, r.DurationMinutes)
	assert.Equal(t, LevelPoor, r.Level)
	assert.Equal(t, 1, r.Correct)
	assert.Equal(t, 2, r.Answered)
	require.Len(t, r.Items, 3)
	assert.True(t, r.Items[0].Correct)
	assert.Equal(t, 2, r.Items[0].Awarded)
	assert.False(t, r.Items[1].Correct)
	assert.Nil(t, r.Items[2].Answer)
	assert.False(t, r.Items[2].Correct)
}

func TestBuildReportFallsBackToTestDuration(t *testing.T) {
	test, sub := reportFixture()
	sub.StartedAt = time.Time{}

	assert.Equal(t, 20, Build(test, sub).DurationMinutes)
}

func TestWriteXLSX(t *testing.T) {
	test, sub := reportFixture()
	var buf bytes.Buffer

	require.NoError(t, WriteXLSX(&buf, Build(test, sub)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Questions"}, f.GetSheetList())
	title, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Go basics", title)

	rows, err := f.GetRows("Questions")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"2", "Refs", "multiple-choice", "int, map", "map", "No", "1", "0"}, rows[2])
}
